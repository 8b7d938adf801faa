package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"afyabima/backend/internal/apperr"
	"afyabima/backend/internal/audit"
	"afyabima/backend/internal/audit/domain"
	"afyabima/backend/internal/authz"
	"afyabima/backend/internal/server/reqctx"
)

// HTTP exposes the audit trail query endpoint.
type HTTP struct {
	trail *audit.Trail
	gate  authz.Gate
}

func NewHTTP(trail *audit.Trail, gate authz.Gate) *HTTP {
	return &HTTP{trail: trail, gate: gate}
}

// Query returns audit records newest first, filtered by actor, action, and
// date range. Admin only.
func (h *HTTP) Query(c *gin.Context) {
	identity, _ := reqctx.GetIdentity(c.Request.Context())
	if !h.gate.Permit(c.Request.Context(), identity.Role, authz.OpViewAuditTrail) {
		c.JSON(http.StatusForbidden, gin.H{"error": "not permitted to view the audit trail"})
		return
	}

	f := domain.Filter{
		ActorID: c.Query("userId"),
		Action:  c.Query("action"),
	}
	var err error
	if f.From, err = parseDate(c.Query("startDate"), false); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "startDate must be RFC 3339 or YYYY-MM-DD"})
		return
	}
	if f.To, err = parseDate(c.Query("endDate"), true); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "endDate must be RFC 3339 or YYYY-MM-DD"})
		return
	}
	page, _ := strconv.Atoi(c.Query("page"))
	limit, _ := strconv.Atoi(c.Query("limit"))

	records, err := h.trail.Query(c.Request.Context(), f, page, limit)
	if err != nil {
		c.JSON(apperr.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}
	out := make([]gin.H, 0, len(records))
	for _, r := range records {
		out = append(out, gin.H{
			"id":           r.ID,
			"actorId":      r.ActorID,
			"action":       r.Action,
			"resourceType": r.ResourceType,
			"resourceId":   r.ResourceID,
			"details":      r.Details,
			"ip":           r.IP,
			"userAgent":    r.UserAgent,
			"createdAt":    r.CreatedAt,
		})
	}
	c.JSON(http.StatusOK, gin.H{"records": out})
}

// parseDate accepts RFC 3339 or a bare date. A bare end date covers the whole
// day.
func parseDate(s string, endOfDay bool) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, err
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return t, nil
}
