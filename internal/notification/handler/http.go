package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"afyabima/backend/internal/apperr"
	"afyabima/backend/internal/notification/domain"
	"afyabima/backend/internal/notification/service"
	"afyabima/backend/internal/server/reqctx"
	userdomain "afyabima/backend/internal/user/domain"
)

// HTTP exposes the notification dispatcher over REST.
type HTTP struct {
	svc *service.Dispatcher
}

func NewHTTP(svc *service.Dispatcher) *HTTP {
	return &HTTP{svc: svc}
}

// Fetch returns a user's notifications. Users read only their own inbox.
func (h *HTTP) Fetch(c *gin.Context) {
	identity, _ := reqctx.GetIdentity(c.Request.Context())
	userID := c.Param("id")
	if userID != identity.UserID {
		c.JSON(http.StatusForbidden, gin.H{"error": "not permitted to read another user's notifications"})
		return
	}
	rows, unread, err := h.svc.Fetch(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	out := make([]gin.H, 0, len(rows))
	for _, n := range rows {
		out = append(out, gin.H{
			"id":        n.ID,
			"batchId":   n.BatchID,
			"title":     n.Title,
			"message":   n.Message,
			"type":      n.Type,
			"isRead":    n.IsRead,
			"metadata":  n.Metadata,
			"createdAt": n.CreatedAt,
		})
	}
	c.JSON(http.StatusOK, gin.H{"notifications": out, "unreadCount": unread})
}

func (h *HTTP) MarkRead(c *gin.Context) {
	identity, _ := reqctx.GetIdentity(c.Request.Context())
	if err := h.svc.MarkRead(c.Request.Context(), identity.UserID, c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"read": true})
}

func (h *HTTP) MarkAllRead(c *gin.Context) {
	identity, _ := reqctx.GetIdentity(c.Request.Context())
	if err := h.svc.MarkAllRead(c.Request.Context(), identity.UserID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"read": true})
}

func (h *HTTP) Delete(c *gin.Context) {
	identity, _ := reqctx.GetIdentity(c.Request.Context())
	if err := h.svc.Delete(c.Request.Context(), identity.UserID, c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

type sendRequest struct {
	UserIDs  []string          `json:"userIds"`
	Roles    []string          `json:"roles"`
	Title    string            `json:"title" binding:"required"`
	Message  string            `json:"message" binding:"required"`
	Type     string            `json:"type"`
	Metadata map[string]string `json:"metadata"`
}

func (h *HTTP) Send(c *gin.Context) {
	identity, _ := reqctx.GetIdentity(c.Request.Context())
	var req sendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "title and message are required"})
		return
	}
	roles := make([]userdomain.Role, 0, len(req.Roles))
	for _, r := range req.Roles {
		roles = append(roles, userdomain.Role(r))
	}
	batchID, err := h.svc.Send(c.Request.Context(), identity, service.SendInput{
		UserIDs:  req.UserIDs,
		Roles:    roles,
		Title:    req.Title,
		Message:  req.Message,
		Type:     domain.NotificationType(req.Type),
		Metadata: req.Metadata,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"batchId": batchID})
}

func respondError(c *gin.Context, err error) {
	c.JSON(apperr.HTTPStatus(err), gin.H{"error": err.Error()})
}
