package server

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"afyabima/backend/internal/security"
	"afyabima/backend/internal/server/reqctx"
	sessiondomain "afyabima/backend/internal/session/domain"
	userdomain "afyabima/backend/internal/user/domain"
)

const bearerPrefix = "bearer "

// SessionChecker verifies that a session referenced by an access token still
// exists and has not been revoked.
type SessionChecker interface {
	GetByID(ctx context.Context, id string) (*sessiondomain.Session, error)
}

// CaptureMeta stores the client IP and user agent in the request context so
// audit records can carry them.
func CaptureMeta() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := reqctx.WithRequestMeta(c.Request.Context(), c.ClientIP(), c.Request.UserAgent())
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// RequireAuth validates the Bearer access token and binds the caller identity
// into the request context. A revoked or expired session is a 401 even when
// the token signature is still valid.
func RequireAuth(tokens *security.TokenProvider, sessions SessionChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractBearer(c.GetHeader("Authorization"))
		if token == "" {
			unauthorized(c)
			return
		}
		sessionID, userID, role, err := tokens.ValidateAccess(token)
		if err != nil {
			unauthorized(c)
			return
		}
		sess, err := sessions.GetByID(c.Request.Context(), sessionID)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "session lookup failed"})
			return
		}
		if sess == nil || sess.RevokedAt != nil || time.Now().UTC().After(sess.ExpiresAt) {
			unauthorized(c)
			return
		}
		ctx := reqctx.WithIdentity(c.Request.Context(), userID, userdomain.Role(role), sessionID)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func unauthorized(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing or invalid authorization"})
}

// extractBearer returns the Bearer token from the header value, or "" if
// missing or malformed.
func extractBearer(header string) string {
	v := strings.TrimSpace(header)
	if len(v) < len(bearerPrefix) {
		return ""
	}
	if !strings.EqualFold(v[:len(bearerPrefix)], bearerPrefix) {
		return ""
	}
	return strings.TrimSpace(v[len(bearerPrefix):])
}
