package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"afyabima/backend/internal/apperr"
	"afyabima/backend/internal/authz"
	"afyabima/backend/internal/insurance/domain"
	"afyabima/backend/internal/insurance/service"
	"afyabima/backend/internal/server/reqctx"
)

// HTTP exposes the policy ledger over REST.
type HTTP struct {
	svc  *service.PolicyLedger
	gate authz.Gate
}

func NewHTTP(svc *service.PolicyLedger, gate authz.Gate) *HTTP {
	return &HTTP{svc: svc, gate: gate}
}

type enrollRequest struct {
	Tier       string             `json:"tier" binding:"required"`
	Dependents []domain.Dependent `json:"dependents"`
}

func (h *HTTP) Enroll(c *gin.Context) {
	identity, _ := reqctx.GetIdentity(c.Request.Context())
	var req enrollRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "tier is required"})
		return
	}
	policy, err := h.svc.Enroll(c.Request.Context(), identity, domain.Tier(req.Tier), req.Dependents)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, policyResponse(policy))
}

// GetByOwner returns a member's policy. Members see only their own; reading
// another member's policy needs admin-level visibility.
func (h *HTTP) GetByOwner(c *gin.Context) {
	identity, _ := reqctx.GetIdentity(c.Request.Context())
	ownerID := c.Param("id")
	if ownerID != identity.UserID && !h.gate.Permit(c.Request.Context(), identity.Role, authz.OpViewAllClaims) {
		c.JSON(http.StatusForbidden, gin.H{"error": "not permitted to view another member's policy"})
		return
	}
	policy, err := h.svc.GetByOwner(c.Request.Context(), ownerID)
	if err != nil {
		respondError(c, err)
		return
	}
	if policy == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no policy found for this member"})
		return
	}
	c.JSON(http.StatusOK, policyResponse(policy))
}

type updateStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

func (h *HTTP) UpdateStatus(c *gin.Context) {
	identity, _ := reqctx.GetIdentity(c.Request.Context())
	var req updateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "status is required"})
		return
	}
	policy, err := h.svc.UpdateStatus(c.Request.Context(), identity, c.Param("id"), domain.PolicyStatus(req.Status))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, policyResponse(policy))
}

type updateDependentsRequest struct {
	Dependents []domain.Dependent `json:"dependents"`
}

func (h *HTTP) UpdateDependents(c *gin.Context) {
	identity, _ := reqctx.GetIdentity(c.Request.Context())
	var req updateDependentsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "dependents payload is malformed"})
		return
	}
	policy, err := h.svc.UpdateDependents(c.Request.Context(), identity, c.Param("id"), req.Dependents)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, policyResponse(policy))
}

func policyResponse(p *domain.Policy) gin.H {
	return gin.H{
		"id":            p.ID,
		"ownerId":       p.OwnerID,
		"tier":          p.Tier,
		"status":        p.Status,
		"coverageLimit": p.CoverageLimit,
		"premiumAmount": p.PremiumAmount,
		"dependents":    p.Dependents,
		"startDate":     p.StartDate,
		"endDate":       p.EndDate,
		"createdAt":     p.CreatedAt,
		"updatedAt":     p.UpdatedAt,
	}
}

func respondError(c *gin.Context, err error) {
	c.JSON(apperr.HTTPStatus(err), gin.H{"error": err.Error()})
}
