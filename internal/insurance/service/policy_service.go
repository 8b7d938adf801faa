package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"afyabima/backend/internal/apperr"
	"afyabima/backend/internal/authz"
	"afyabima/backend/internal/insurance/domain"
	insurancerepo "afyabima/backend/internal/insurance/repository"
	"afyabima/backend/internal/platform/keylock"
)

// EnrollmentConflictMode decides what a second enrollment does while an
// active policy exists.
type EnrollmentConflictMode string

const (
	// ConflictReject fails the new enrollment with a state error.
	ConflictReject EnrollmentConflictMode = "reject"
	// ConflictSupersede cancels the existing active policy and activates the new one.
	ConflictSupersede EnrollmentConflictMode = "supersede"
)

// Auditor appends an audit record. A failed append aborts the mutation:
// nothing proceeds unaudited.
type Auditor interface {
	Record(ctx context.Context, actorID, action, resourceType, resourceID, details string) error
}

// Notifier delivers an outcome message to a single user.
type Notifier interface {
	Notify(ctx context.Context, recipientID, title, message, ntype string) error
}

// Verifier is the optional external enrollment-verification collaborator.
// When present it may hold a new policy in pending instead of active.
type Verifier interface {
	InitialStatus(ctx context.Context, ownerID string, tier domain.Tier) (domain.PolicyStatus, error)
}

// PolicyLedger owns policy entities and their enrollment/status lifecycle.
type PolicyLedger struct {
	repo         insurancerepo.Repository
	gate         authz.Gate
	auditor      Auditor
	notifier     Notifier
	verifier     Verifier // may be nil
	conflictMode EnrollmentConflictMode
	locks        *keylock.KeyedMutex
}

// NewPolicyLedger returns a PolicyLedger with the given collaborators.
// verifier may be nil; then new policies start active.
func NewPolicyLedger(
	repo insurancerepo.Repository,
	gate authz.Gate,
	auditor Auditor,
	notifier Notifier,
	verifier Verifier,
	conflictMode EnrollmentConflictMode,
) *PolicyLedger {
	if conflictMode == "" {
		conflictMode = ConflictReject
	}
	return &PolicyLedger{
		repo:         repo,
		gate:         gate,
		auditor:      auditor,
		notifier:     notifier,
		verifier:     verifier,
		conflictMode: conflictMode,
		locks:        keylock.New(),
	}
}

// Enroll creates a policy for the calling identity on the given tier. Premium
// and coverage limit come from the tier defaults. While an active policy
// exists the configured conflict mode decides: reject with a state error, or
// cancel the old policy and activate the new one.
func (l *PolicyLedger) Enroll(ctx context.Context, identity authz.Identity, tier domain.Tier, dependents []domain.Dependent) (*domain.Policy, error) {
	info, ok := domain.TierDefaults(tier)
	if !ok {
		return nil, apperr.Validation("unknown policy tier %q", tier)
	}
	for _, d := range dependents {
		if d.Name == "" {
			return nil, apperr.Validation("dependent name is required")
		}
	}

	unlock := l.locks.Lock("owner:" + identity.UserID)
	defer unlock()

	existing, err := l.repo.GetActiveByOwner(ctx, identity.UserID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		switch l.conflictMode {
		case ConflictSupersede:
			existing.Status = domain.PolicyStatusCancelled
			existing.UpdatedAt = time.Now().UTC()
			if err := l.auditor.Record(ctx, identity.UserID, "policy_superseded", "policy", existing.ID, "replaced by new enrollment"); err != nil {
				return nil, err
			}
			if err := l.repo.Update(ctx, existing); err != nil {
				return nil, err
			}
		default:
			return nil, apperr.State("an active policy already exists for this member")
		}
	}

	status := domain.PolicyStatusActive
	if l.verifier != nil {
		status, err = l.verifier.InitialStatus(ctx, identity.UserID, tier)
		if err != nil {
			return nil, apperr.Dependency("enrollment verification failed", err)
		}
	}

	now := time.Now().UTC()
	policy := &domain.Policy{
		ID:            uuid.New().String(),
		OwnerID:       identity.UserID,
		Tier:          tier,
		Status:        status,
		CoverageLimit: info.CoverageLimit,
		PremiumAmount: info.PremiumAmount,
		Dependents:    dependents,
		StartDate:     now,
		EndDate:       now.AddDate(1, 0, 0),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := l.auditor.Record(ctx, identity.UserID, "policy_enrolled", "policy", policy.ID, fmt.Sprintf("tier=%s", tier)); err != nil {
		return nil, err
	}
	if err := l.repo.Create(ctx, policy); err != nil {
		return nil, err
	}
	return policy, nil
}

// GetByOwner returns the owner's active policy, falling back to the most
// recent one of any status. Returns nil when the owner has never enrolled.
func (l *PolicyLedger) GetByOwner(ctx context.Context, ownerID string) (*domain.Policy, error) {
	p, err := l.repo.GetActiveByOwner(ctx, ownerID)
	if err != nil || p != nil {
		return p, err
	}
	return l.repo.GetLatestByOwner(ctx, ownerID)
}

// UpdateStatus transitions a policy to newStatus. Admin only. Writing the
// unchanged status is rejected so the audit trail stays meaningful. A lapsed
// or cancelled outcome notifies the owner; if that delivery fails the status
// change is rolled back.
func (l *PolicyLedger) UpdateStatus(ctx context.Context, identity authz.Identity, policyID string, newStatus domain.PolicyStatus) (*domain.Policy, error) {
	if !l.gate.Permit(ctx, identity.Role, authz.OpUpdatePolicyStatus) {
		return nil, apperr.Authorization("not permitted to update policy status")
	}
	if !domain.ValidStatus(newStatus) {
		return nil, apperr.Validation("unknown policy status %q", newStatus)
	}

	unlock := l.locks.Lock("policy:" + policyID)
	defer unlock()

	policy, err := l.repo.GetByID(ctx, policyID)
	if err != nil {
		return nil, err
	}
	if policy == nil {
		return nil, apperr.NotFound("policy %s not found", policyID)
	}
	if policy.Status == newStatus {
		return nil, apperr.State("policy is already %s", newStatus)
	}

	prevStatus := policy.Status
	prevUpdated := policy.UpdatedAt
	if err := l.auditor.Record(ctx, identity.UserID, "policy_status_updated", "policy", policy.ID,
		fmt.Sprintf("%s -> %s", prevStatus, newStatus)); err != nil {
		return nil, err
	}

	policy.Status = newStatus
	policy.UpdatedAt = time.Now().UTC()
	if err := l.repo.Update(ctx, policy); err != nil {
		return nil, err
	}

	if newStatus == domain.PolicyStatusLapsed || newStatus == domain.PolicyStatusCancelled {
		msg := fmt.Sprintf("Your %s policy is now %s. Claims against it can no longer be submitted.", policy.Tier, newStatus)
		if err := l.notifier.Notify(ctx, policy.OwnerID, "Policy status changed", msg, "warning"); err != nil {
			policy.Status = prevStatus
			policy.UpdatedAt = prevUpdated
			if restoreErr := l.repo.Update(ctx, policy); restoreErr != nil {
				return nil, apperr.Dependency("notification failed and rollback failed", restoreErr)
			}
			return nil, apperr.Dependency("owner notification failed", err)
		}
	}
	return policy, nil
}

// UpdateDependents replaces the dependent list. Only the policy owner (or an
// admin) may edit dependents.
func (l *PolicyLedger) UpdateDependents(ctx context.Context, identity authz.Identity, policyID string, dependents []domain.Dependent) (*domain.Policy, error) {
	for _, d := range dependents {
		if d.Name == "" {
			return nil, apperr.Validation("dependent name is required")
		}
	}

	unlock := l.locks.Lock("policy:" + policyID)
	defer unlock()

	policy, err := l.repo.GetByID(ctx, policyID)
	if err != nil {
		return nil, err
	}
	if policy == nil {
		return nil, apperr.NotFound("policy %s not found", policyID)
	}
	if policy.OwnerID != identity.UserID && !l.gate.Permit(ctx, identity.Role, authz.OpUpdatePolicyStatus) {
		return nil, apperr.Authorization("only the policy owner may edit dependents")
	}

	if err := l.auditor.Record(ctx, identity.UserID, "policy_dependents_updated", "policy", policy.ID,
		fmt.Sprintf("dependents=%d", len(dependents))); err != nil {
		return nil, err
	}
	policy.Dependents = dependents
	policy.UpdatedAt = time.Now().UTC()
	if err := l.repo.Update(ctx, policy); err != nil {
		return nil, err
	}
	return policy, nil
}
