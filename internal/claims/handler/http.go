package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"afyabima/backend/internal/apperr"
	"afyabima/backend/internal/authz"
	"afyabima/backend/internal/claims/domain"
	"afyabima/backend/internal/claims/service"
	"afyabima/backend/internal/server/reqctx"
)

// HTTP exposes the claims engine over REST.
type HTTP struct {
	svc  *service.ClaimsEngine
	gate authz.Gate
}

func NewHTTP(svc *service.ClaimsEngine, gate authz.Gate) *HTTP {
	return &HTTP{svc: svc, gate: gate}
}

type submitRequest struct {
	PolicyID         string   `json:"policyId" binding:"required"`
	FacilityID       string   `json:"facilityId"`
	ClaimAmount      int64    `json:"claimAmount"`
	ServicesRendered []string `json:"servicesRendered"`
}

func (h *HTTP) Submit(c *gin.Context) {
	identity, _ := reqctx.GetIdentity(c.Request.Context())
	var req submitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "policyId is required"})
		return
	}
	claim, err := h.svc.Submit(c.Request.Context(), identity, service.SubmitInput{
		PolicyID:         req.PolicyID,
		FacilityID:       req.FacilityID,
		ClaimAmount:      req.ClaimAmount,
		ServicesRendered: req.ServicesRendered,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, claimResponse(claim))
}

type processRequest struct {
	Status          string `json:"status" binding:"required"`
	RejectionReason string `json:"rejectionReason"`
}

func (h *HTTP) Process(c *gin.Context) {
	identity, _ := reqctx.GetIdentity(c.Request.Context())
	var req processRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "status is required"})
		return
	}
	claim, err := h.svc.Process(c.Request.Context(), identity, c.Param("id"), domain.ClaimStatus(req.Status), req.RejectionReason)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, claimResponse(claim))
}

func (h *HTTP) ListAll(c *gin.Context) {
	identity, _ := reqctx.GetIdentity(c.Request.Context())
	claims, err := h.svc.ListAll(c.Request.Context(), identity, domain.ClaimStatus(c.Query("status")))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, claimListResponse(claims))
}

// ListByPatient returns a patient's claims. Patients see only their own;
// reading another patient's claims needs the view-all permission.
func (h *HTTP) ListByPatient(c *gin.Context) {
	identity, _ := reqctx.GetIdentity(c.Request.Context())
	patientID := c.Param("id")
	if patientID != identity.UserID && !h.gate.Permit(c.Request.Context(), identity.Role, authz.OpViewAllClaims) {
		c.JSON(http.StatusForbidden, gin.H{"error": "not permitted to view another patient's claims"})
		return
	}
	claims, err := h.svc.ListForOwner(c.Request.Context(), patientID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, claimListResponse(claims))
}

func claimResponse(cl *domain.Claim) gin.H {
	return gin.H{
		"id":               cl.ID,
		"policyId":         cl.PolicyID,
		"patientId":        cl.PatientID,
		"facilityId":       cl.FacilityID,
		"claimAmount":      cl.ClaimAmount,
		"servicesRendered": cl.ServicesRendered,
		"status":           cl.Status,
		"rejectionReason":  cl.RejectionReason,
		"processedBy":      cl.ProcessedBy,
		"transactionHash":  cl.TransactionHash,
		"createdAt":        cl.CreatedAt,
		"updatedAt":        cl.UpdatedAt,
	}
}

func claimListResponse(claims []*domain.Claim) gin.H {
	out := make([]gin.H, 0, len(claims))
	for _, cl := range claims {
		out = append(out, claimResponse(cl))
	}
	return gin.H{"claims": out}
}

func respondError(c *gin.Context, err error) {
	c.JSON(apperr.HTTPStatus(err), gin.H{"error": err.Error()})
}
