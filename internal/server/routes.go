package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	audithandler "afyabima/backend/internal/audit/handler"
	authhandler "afyabima/backend/internal/auth/handler"
	claimshandler "afyabima/backend/internal/claims/handler"
	insurancehandler "afyabima/backend/internal/insurance/handler"
	notificationhandler "afyabima/backend/internal/notification/handler"
	"afyabima/backend/internal/security"
)

// Handlers groups the per-feature HTTP handlers for route registration.
type Handlers struct {
	Auth         *authhandler.HTTP
	Insurance    *insurancehandler.HTTP
	Claims       *claimshandler.HTTP
	Audit        *audithandler.HTTP
	Notification *notificationhandler.HTTP
}

// RegisterRoutes binds the REST surface. Auth endpoints (except me/logout)
// are public; everything else requires a Bearer access token bound to a live
// session.
func RegisterRoutes(s *Server, h Handlers, tokens *security.TokenProvider, sessions SessionChecker) {
	s.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	s.POST("/auth/register", h.Auth.Register)
	s.POST("/auth/login", h.Auth.Login)
	s.POST("/auth/refresh", h.Auth.Refresh)

	authed := s.Group("", RequireAuth(tokens, sessions))

	authed.GET("/auth/me", h.Auth.Me)
	authed.POST("/auth/logout", h.Auth.Logout)

	authed.POST("/insurance", h.Insurance.Enroll)
	authed.GET("/insurance/user/:id", h.Insurance.GetByOwner)
	authed.PATCH("/insurance/:id/status", h.Insurance.UpdateStatus)
	authed.PATCH("/insurance/:id/dependents", h.Insurance.UpdateDependents)

	authed.POST("/claims", h.Claims.Submit)
	authed.GET("/claims", h.Claims.ListAll)
	authed.GET("/claims/patient/:id", h.Claims.ListByPatient)
	authed.PATCH("/claims/:id/process", h.Claims.Process)

	authed.GET("/audit-logs", h.Audit.Query)

	authed.GET("/users/:id/notifications", h.Notification.Fetch)
	authed.PATCH("/notifications/:id/read", h.Notification.MarkRead)
	authed.POST("/notifications/read-all", h.Notification.MarkAllRead)
	authed.DELETE("/notifications/:id", h.Notification.Delete)
	authed.POST("/notifications/send", h.Notification.Send)
}
