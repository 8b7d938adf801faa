package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"afyabima/backend/internal/apperr"
	"afyabima/backend/internal/authz"
	"afyabima/backend/internal/claims/domain"
	"afyabima/backend/internal/claims/ledger"
	claimsrepo "afyabima/backend/internal/claims/repository"
	insurancedomain "afyabima/backend/internal/insurance/domain"
	"afyabima/backend/internal/platform/keylock"
)

// PolicyReader resolves the policy a claim references.
type PolicyReader interface {
	GetByID(ctx context.Context, id string) (*insurancedomain.Policy, error)
}

// Auditor appends an audit record. A failed append aborts the mutation.
type Auditor interface {
	Record(ctx context.Context, actorID, action, resourceType, resourceID, details string) error
}

// Notifier delivers an outcome message to a single user.
type Notifier interface {
	Notify(ctx context.Context, recipientID, title, message, ntype string) error
}

// SubmitInput is the caller-supplied part of a claim submission.
type SubmitInput struct {
	PolicyID         string
	FacilityID       string
	ClaimAmount      int64
	ServicesRendered []string
}

// ClaimsEngine owns claim entities and the submission/adjudication state
// machine. Every mutation is gated, audited before the effect, and
// serialized per entity.
type ClaimsEngine struct {
	repo     claimsrepo.Repository
	policies PolicyReader
	gate     authz.Gate
	auditor  Auditor
	notifier Notifier
	attestor ledger.Attestor
	locks    *keylock.KeyedMutex
}

func NewClaimsEngine(
	repo claimsrepo.Repository,
	policies PolicyReader,
	gate authz.Gate,
	auditor Auditor,
	notifier Notifier,
	attestor ledger.Attestor,
) *ClaimsEngine {
	return &ClaimsEngine{
		repo:     repo,
		policies: policies,
		gate:     gate,
		auditor:  auditor,
		notifier: notifier,
		attestor: attestor,
		locks:    keylock.New(),
	}
}

// Submit validates a claim against its policy and persists it as pending.
// The claim's patient is the policy owner: an identity submitting against a
// policy it does not own needs the delegated-submission permission.
func (e *ClaimsEngine) Submit(ctx context.Context, identity authz.Identity, in SubmitInput) (*domain.Claim, error) {
	if len(in.ServicesRendered) == 0 {
		return nil, apperr.Validation("at least one rendered service is required")
	}
	if in.ClaimAmount <= 0 {
		return nil, apperr.Validation("claim amount must be positive")
	}

	unlock := e.locks.Lock("policy:" + in.PolicyID)
	defer unlock()

	policy, err := e.policies.GetByID(ctx, in.PolicyID)
	if err != nil {
		return nil, err
	}
	if policy == nil {
		return nil, apperr.Validation("policy %s does not exist", in.PolicyID)
	}
	if policy.Status != insurancedomain.PolicyStatusActive {
		return nil, apperr.State("policy %s is %s, claims require an active policy", policy.ID, policy.Status)
	}
	if in.ClaimAmount > policy.CoverageLimit {
		return nil, apperr.Validation("claim amount %d exceeds coverage limit %d", in.ClaimAmount, policy.CoverageLimit)
	}

	if policy.OwnerID == identity.UserID {
		if !e.gate.Permit(ctx, identity.Role, authz.OpSubmitClaim) {
			return nil, apperr.Authorization("not permitted to submit claims")
		}
	} else if !e.gate.Permit(ctx, identity.Role, authz.OpSubmitClaimOnBehalf) {
		return nil, apperr.Authorization("not permitted to submit claims on behalf of another member")
	}

	now := time.Now().UTC()
	claim := &domain.Claim{
		ID:               uuid.New().String(),
		PolicyID:         policy.ID,
		PatientID:        policy.OwnerID,
		FacilityID:       in.FacilityID,
		ClaimAmount:      in.ClaimAmount,
		ServicesRendered: in.ServicesRendered,
		Status:           domain.ClaimStatusPending,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := e.auditor.Record(ctx, identity.UserID, "claim_submitted", "claim", claim.ID,
		fmt.Sprintf("policy=%s amount=%d", policy.ID, in.ClaimAmount)); err != nil {
		return nil, err
	}
	if err := e.repo.Create(ctx, claim); err != nil {
		return nil, err
	}
	return claim, nil
}

// Process adjudicates a pending claim to a terminal status. Approval asks
// the external ledger for an attestation hash; if that fails the claim stays
// pending. The owner is notified of the outcome; if delivery fails the
// transition is rolled back.
func (e *ClaimsEngine) Process(ctx context.Context, identity authz.Identity, claimID string, newStatus domain.ClaimStatus, rejectionReason string) (*domain.Claim, error) {
	if !e.gate.Permit(ctx, identity.Role, authz.OpProcessClaim) {
		return nil, apperr.Authorization("not permitted to process claims")
	}
	if !domain.TerminalStatus(newStatus) {
		return nil, apperr.Validation("%q is not an adjudication outcome", newStatus)
	}
	if newStatus == domain.ClaimStatusRejected && rejectionReason == "" {
		return nil, apperr.Validation("a rejection requires a rejection reason")
	}

	unlock := e.locks.Lock("claim:" + claimID)
	defer unlock()

	claim, err := e.repo.GetByID(ctx, claimID)
	if err != nil {
		return nil, err
	}
	if claim == nil {
		return nil, apperr.NotFound("claim %s not found", claimID)
	}
	if claim.Status != domain.ClaimStatusPending {
		return nil, apperr.State("claim %s is already %s, adjudication is final", claim.ID, claim.Status)
	}

	var txHash string
	if newStatus == domain.ClaimStatusApproved {
		txHash, err = e.attestor.Attest(ctx, claim.ID, claim.ClaimAmount)
		if err != nil {
			return nil, apperr.Dependency("ledger attestation failed", err)
		}
	}

	prev := *claim
	if err := e.auditor.Record(ctx, identity.UserID, "claim_processed", "claim", claim.ID,
		fmt.Sprintf("%s -> %s", claim.Status, newStatus)); err != nil {
		return nil, err
	}

	claim.Status = newStatus
	claim.ProcessedBy = identity.UserID
	claim.RejectionReason = rejectionReason
	claim.TransactionHash = txHash
	claim.UpdatedAt = time.Now().UTC()
	if err := e.repo.Update(ctx, claim); err != nil {
		return nil, err
	}

	title, msg, ntype := outcomeMessage(claim)
	if err := e.notifier.Notify(ctx, claim.PatientID, title, msg, ntype); err != nil {
		if restoreErr := e.repo.Update(ctx, &prev); restoreErr != nil {
			return nil, apperr.Dependency("notification failed and rollback failed", restoreErr)
		}
		return nil, apperr.Dependency("owner notification failed", err)
	}
	return claim, nil
}

// ListForOwner returns the owner's claims, newest first.
func (e *ClaimsEngine) ListForOwner(ctx context.Context, ownerID string) ([]*domain.Claim, error) {
	return e.repo.ListByPatient(ctx, ownerID)
}

// ListAll returns every claim, newest first, optionally filtered by status.
func (e *ClaimsEngine) ListAll(ctx context.Context, identity authz.Identity, status domain.ClaimStatus) ([]*domain.Claim, error) {
	if !e.gate.Permit(ctx, identity.Role, authz.OpViewAllClaims) {
		return nil, apperr.Authorization("not permitted to view all claims")
	}
	if status != "" && status != domain.ClaimStatusPending && !domain.TerminalStatus(status) {
		return nil, apperr.Validation("unknown claim status %q", status)
	}
	return e.repo.ListAll(ctx, status)
}

func outcomeMessage(c *domain.Claim) (title, msg, ntype string) {
	switch c.Status {
	case domain.ClaimStatusApproved:
		return "Claim approved",
			fmt.Sprintf("Your claim for %d was approved. Attestation: %s", c.ClaimAmount, c.TransactionHash),
			"success"
	case domain.ClaimStatusRejected:
		return "Claim rejected",
			fmt.Sprintf("Your claim for %d was rejected: %s", c.ClaimAmount, c.RejectionReason),
			"error"
	default:
		return "Claim under review",
			fmt.Sprintf("Your claim for %d was flagged for manual review.", c.ClaimAmount),
			"warning"
	}
}
