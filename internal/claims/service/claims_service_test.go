package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"afyabima/backend/internal/apperr"
	"afyabima/backend/internal/authz"
	"afyabima/backend/internal/claims/domain"
	claimsrepo "afyabima/backend/internal/claims/repository"
	insurancedomain "afyabima/backend/internal/insurance/domain"
	insurancerepo "afyabima/backend/internal/insurance/repository"
	userdomain "afyabima/backend/internal/user/domain"
)

type fakeGate struct {
	grants map[userdomain.Role][]string
}

func (g *fakeGate) Permit(ctx context.Context, role userdomain.Role, operation string) bool {
	for _, op := range g.grants[role] {
		if op == operation {
			return true
		}
	}
	return false
}

type fakeAuditor struct {
	actions []string
	failing bool
}

func (a *fakeAuditor) Record(ctx context.Context, actorID, action, resourceType, resourceID, details string) error {
	if a.failing {
		return apperr.Dependency("audit trail unavailable", errors.New("down"))
	}
	a.actions = append(a.actions, action)
	return nil
}

type fakeNotifier struct {
	recipients []string
	failing    bool
}

func (n *fakeNotifier) Notify(ctx context.Context, recipientID, title, message, ntype string) error {
	if n.failing {
		return errors.New("dispatcher down")
	}
	n.recipients = append(n.recipients, recipientID)
	return nil
}

type fakeAttestor struct {
	calls   int
	failing bool
}

func (a *fakeAttestor) Attest(ctx context.Context, claimID string, amount int64) (string, error) {
	a.calls++
	if a.failing {
		return "", errors.New("ledger unreachable")
	}
	return "0xattest-" + claimID, nil
}

var (
	admin     = authz.Identity{UserID: "admin-1", Role: userdomain.RoleAdmin}
	patient   = authz.Identity{UserID: "patient-1", Role: userdomain.RolePatient}
	frontDesk = authz.Identity{UserID: "desk-1", Role: userdomain.RoleFrontDesk}
)

type fixture struct {
	engine   *ClaimsEngine
	claims   *claimsrepo.MemoryRepository
	policies *insurancerepo.MemoryRepository
	auditor  *fakeAuditor
	notifier *fakeNotifier
	attestor *fakeAttestor
}

func newFixture() *fixture {
	gate := &fakeGate{grants: map[userdomain.Role][]string{
		userdomain.RoleAdmin:     {authz.OpSubmitClaim, authz.OpSubmitClaimOnBehalf, authz.OpProcessClaim, authz.OpViewAllClaims},
		userdomain.RolePatient:   {authz.OpSubmitClaim},
		userdomain.RoleFrontDesk: {authz.OpSubmitClaimOnBehalf},
	}}
	f := &fixture{
		claims:   claimsrepo.NewMemoryRepository(),
		policies: insurancerepo.NewMemoryRepository(),
		auditor:  &fakeAuditor{},
		notifier: &fakeNotifier{},
		attestor: &fakeAttestor{},
	}
	f.engine = NewClaimsEngine(f.claims, f.policies, gate, f.auditor, f.notifier, f.attestor)
	return f
}

func (f *fixture) seedPolicy(t *testing.T, ownerID string, status insurancedomain.PolicyStatus, coverage int64) *insurancedomain.Policy {
	t.Helper()
	now := time.Now().UTC()
	p := &insurancedomain.Policy{
		ID:            uuid.New().String(),
		OwnerID:       ownerID,
		Tier:          insurancedomain.TierKati,
		Status:        status,
		CoverageLimit: coverage,
		PremiumAmount: 1_500,
		StartDate:     now,
		EndDate:       now.AddDate(1, 0, 0),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := f.policies.Create(context.Background(), p); err != nil {
		t.Fatalf("seed policy: %v", err)
	}
	return p
}

func (f *fixture) submit(t *testing.T, identity authz.Identity, policyID string, amount int64) *domain.Claim {
	t.Helper()
	c, err := f.engine.Submit(context.Background(), identity, SubmitInput{
		PolicyID:         policyID,
		FacilityID:       "facility-1",
		ClaimAmount:      amount,
		ServicesRendered: []string{"consultation"},
	})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	return c
}

func TestSubmit_CreatesPendingClaim(t *testing.T) {
	f := newFixture()
	policy := f.seedPolicy(t, patient.UserID, insurancedomain.PolicyStatusActive, 150_000)

	claim := f.submit(t, patient, policy.ID, 40_000)
	if claim.Status != domain.ClaimStatusPending {
		t.Errorf("status = %q, want pending", claim.Status)
	}
	if claim.PatientID != patient.UserID {
		t.Errorf("patient = %q, want policy owner %q", claim.PatientID, patient.UserID)
	}
	if len(f.auditor.actions) != 1 || f.auditor.actions[0] != "claim_submitted" {
		t.Errorf("audit actions = %v, want [claim_submitted]", f.auditor.actions)
	}
}

func TestSubmit_OverCoverageLimit(t *testing.T) {
	f := newFixture()
	policy := f.seedPolicy(t, patient.UserID, insurancedomain.PolicyStatusActive, 150_000)

	_, err := f.engine.Submit(context.Background(), patient, SubmitInput{
		PolicyID:         policy.ID,
		ClaimAmount:      200_000,
		ServicesRendered: []string{"surgery"},
	})
	if apperr.KindOf(err) != apperr.KindValidation {
		t.Fatalf("kind = %q, want validation", apperr.KindOf(err))
	}
	if len(f.auditor.actions) != 0 {
		t.Errorf("audit actions = %v, want none on rejected submission", f.auditor.actions)
	}
	if len(f.notifier.recipients) != 0 {
		t.Errorf("notified = %v, want none", f.notifier.recipients)
	}
}

func TestSubmit_InactivePolicy(t *testing.T) {
	f := newFixture()
	for _, status := range []insurancedomain.PolicyStatus{
		insurancedomain.PolicyStatusLapsed,
		insurancedomain.PolicyStatusCancelled,
		insurancedomain.PolicyStatusPending,
	} {
		policy := f.seedPolicy(t, patient.UserID, status, 150_000)
		_, err := f.engine.Submit(context.Background(), patient, SubmitInput{
			PolicyID:         policy.ID,
			ClaimAmount:      1_000,
			ServicesRendered: []string{"consultation"},
		})
		if apperr.KindOf(err) != apperr.KindState {
			t.Errorf("status %s: kind = %q, want state", status, apperr.KindOf(err))
		}
	}
}

func TestSubmit_InvalidInput(t *testing.T) {
	f := newFixture()
	policy := f.seedPolicy(t, patient.UserID, insurancedomain.PolicyStatusActive, 150_000)

	_, err := f.engine.Submit(context.Background(), patient, SubmitInput{PolicyID: policy.ID, ClaimAmount: 1_000})
	if apperr.KindOf(err) != apperr.KindValidation {
		t.Errorf("empty services: kind = %q, want validation", apperr.KindOf(err))
	}
	_, err = f.engine.Submit(context.Background(), patient, SubmitInput{PolicyID: policy.ID, ClaimAmount: 0, ServicesRendered: []string{"x-ray"}})
	if apperr.KindOf(err) != apperr.KindValidation {
		t.Errorf("zero amount: kind = %q, want validation", apperr.KindOf(err))
	}
	_, err = f.engine.Submit(context.Background(), patient, SubmitInput{PolicyID: "no-such-policy", ClaimAmount: 1_000, ServicesRendered: []string{"x-ray"}})
	if apperr.KindOf(err) != apperr.KindValidation {
		t.Errorf("missing policy: kind = %q, want validation", apperr.KindOf(err))
	}
}

func TestSubmit_DelegatedSubmission(t *testing.T) {
	f := newFixture()
	policy := f.seedPolicy(t, patient.UserID, insurancedomain.PolicyStatusActive, 150_000)

	claim := f.submit(t, frontDesk, policy.ID, 2_500)
	if claim.PatientID != patient.UserID {
		t.Errorf("patient = %q, want policy owner %q", claim.PatientID, patient.UserID)
	}

	other := authz.Identity{UserID: "patient-2", Role: userdomain.RolePatient}
	_, err := f.engine.Submit(context.Background(), other, SubmitInput{
		PolicyID:         policy.ID,
		ClaimAmount:      2_500,
		ServicesRendered: []string{"consultation"},
	})
	if apperr.KindOf(err) != apperr.KindAuthorization {
		t.Errorf("kind = %q, want authorization for non-owner without delegation", apperr.KindOf(err))
	}
}

func TestProcess_Approve(t *testing.T) {
	f := newFixture()
	policy := f.seedPolicy(t, patient.UserID, insurancedomain.PolicyStatusActive, 150_000)
	claim := f.submit(t, patient, policy.ID, 40_000)

	processed, err := f.engine.Process(context.Background(), admin, claim.ID, domain.ClaimStatusApproved, "")
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if processed.Status != domain.ClaimStatusApproved {
		t.Errorf("status = %q, want approved", processed.Status)
	}
	if processed.TransactionHash == "" {
		t.Error("approved claim has empty transaction hash")
	}
	if processed.ProcessedBy != admin.UserID {
		t.Errorf("processedBy = %q, want %q", processed.ProcessedBy, admin.UserID)
	}
	if len(f.notifier.recipients) != 1 || f.notifier.recipients[0] != patient.UserID {
		t.Errorf("notified = %v, want [%s]", f.notifier.recipients, patient.UserID)
	}
}

func TestProcess_RejectRequiresReason(t *testing.T) {
	f := newFixture()
	policy := f.seedPolicy(t, patient.UserID, insurancedomain.PolicyStatusActive, 150_000)
	claim := f.submit(t, patient, policy.ID, 40_000)

	_, err := f.engine.Process(context.Background(), admin, claim.ID, domain.ClaimStatusRejected, "")
	if apperr.KindOf(err) != apperr.KindValidation {
		t.Fatalf("kind = %q, want validation", apperr.KindOf(err))
	}
	got, _ := f.claims.GetByID(context.Background(), claim.ID)
	if got.Status != domain.ClaimStatusPending {
		t.Errorf("status = %q, want pending after rejected process", got.Status)
	}

	processed, err := f.engine.Process(context.Background(), admin, claim.ID, domain.ClaimStatusRejected, "not covered")
	if err != nil {
		t.Fatalf("Process with reason: %v", err)
	}
	if processed.RejectionReason != "not covered" {
		t.Errorf("reason = %q, want %q", processed.RejectionReason, "not covered")
	}
}

func TestProcess_NonAdminDenied(t *testing.T) {
	f := newFixture()
	policy := f.seedPolicy(t, patient.UserID, insurancedomain.PolicyStatusActive, 150_000)
	claim := f.submit(t, patient, policy.ID, 40_000)

	_, err := f.engine.Process(context.Background(), patient, claim.ID, domain.ClaimStatusApproved, "")
	if apperr.KindOf(err) != apperr.KindAuthorization {
		t.Fatalf("kind = %q, want authorization", apperr.KindOf(err))
	}
	got, _ := f.claims.GetByID(context.Background(), claim.ID)
	if got.Status != domain.ClaimStatusPending {
		t.Errorf("status = %q, want pending", got.Status)
	}
}

func TestProcess_TerminalClaimUnchanged(t *testing.T) {
	f := newFixture()
	policy := f.seedPolicy(t, patient.UserID, insurancedomain.PolicyStatusActive, 150_000)
	claim := f.submit(t, patient, policy.ID, 40_000)
	ctx := context.Background()

	first, err := f.engine.Process(ctx, admin, claim.ID, domain.ClaimStatusApproved, "")
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	_, err = f.engine.Process(ctx, admin, claim.ID, domain.ClaimStatusRejected, "second thoughts")
	if apperr.KindOf(err) != apperr.KindState {
		t.Fatalf("kind = %q, want state on re-adjudication", apperr.KindOf(err))
	}
	got, _ := f.claims.GetByID(ctx, claim.ID)
	if got.Status != domain.ClaimStatusApproved || got.TransactionHash != first.TransactionHash || got.RejectionReason != "" {
		t.Errorf("claim changed by rejected re-adjudication: %+v", got)
	}
}

func TestProcess_AttestorFailureKeepsPending(t *testing.T) {
	f := newFixture()
	f.attestor.failing = true
	policy := f.seedPolicy(t, patient.UserID, insurancedomain.PolicyStatusActive, 150_000)
	claim := f.submit(t, patient, policy.ID, 40_000)
	ctx := context.Background()

	_, err := f.engine.Process(ctx, admin, claim.ID, domain.ClaimStatusApproved, "")
	if apperr.KindOf(err) != apperr.KindDependency {
		t.Fatalf("kind = %q, want dependency", apperr.KindOf(err))
	}
	got, _ := f.claims.GetByID(ctx, claim.ID)
	if got.Status != domain.ClaimStatusPending || got.TransactionHash != "" {
		t.Errorf("claim after failed attestation = %+v, want unchanged pending", got)
	}

	f.attestor.failing = false
	if _, err := f.engine.Process(ctx, admin, claim.ID, domain.ClaimStatusApproved, ""); err != nil {
		t.Fatalf("Process after ledger recovery: %v", err)
	}
}

func TestProcess_NotificationFailureRollsBack(t *testing.T) {
	f := newFixture()
	f.notifier.failing = true
	policy := f.seedPolicy(t, patient.UserID, insurancedomain.PolicyStatusActive, 150_000)
	claim := f.submit(t, patient, policy.ID, 40_000)
	ctx := context.Background()

	_, err := f.engine.Process(ctx, admin, claim.ID, domain.ClaimStatusApproved, "")
	if apperr.KindOf(err) != apperr.KindDependency {
		t.Fatalf("kind = %q, want dependency", apperr.KindOf(err))
	}
	got, _ := f.claims.GetByID(ctx, claim.ID)
	if got.Status != domain.ClaimStatusPending || got.ProcessedBy != "" {
		t.Errorf("claim after failed notify = %+v, want rolled back to pending", got)
	}
}

func TestListAll_RequiresPermission(t *testing.T) {
	f := newFixture()
	policy := f.seedPolicy(t, patient.UserID, insurancedomain.PolicyStatusActive, 150_000)
	f.submit(t, patient, policy.ID, 1_000)
	second := f.submit(t, patient, policy.ID, 2_000)
	ctx := context.Background()

	if _, err := f.engine.ListAll(ctx, patient, ""); apperr.KindOf(err) != apperr.KindAuthorization {
		t.Errorf("kind = %q, want authorization", apperr.KindOf(err))
	}

	if _, err := f.engine.Process(ctx, admin, second.ID, domain.ClaimStatusFlagged, ""); err != nil {
		t.Fatalf("Process: %v", err)
	}
	all, err := f.engine.ListAll(ctx, admin, "")
	if err != nil {
		t.Fatalf("ListAll: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("len(all) = %d, want 2", len(all))
	}
	flagged, err := f.engine.ListAll(ctx, admin, domain.ClaimStatusFlagged)
	if err != nil {
		t.Fatalf("ListAll(flagged): %v", err)
	}
	if len(flagged) != 1 || flagged[0].ID != second.ID {
		t.Errorf("flagged = %v, want [%s]", flagged, second.ID)
	}
}

func TestListForOwner(t *testing.T) {
	f := newFixture()
	policy := f.seedPolicy(t, patient.UserID, insurancedomain.PolicyStatusActive, 150_000)
	f.submit(t, patient, policy.ID, 1_000)
	f.submit(t, patient, policy.ID, 2_000)

	mine, err := f.engine.ListForOwner(context.Background(), patient.UserID)
	if err != nil {
		t.Fatalf("ListForOwner: %v", err)
	}
	if len(mine) != 2 {
		t.Fatalf("len = %d, want 2", len(mine))
	}
	if mine[0].ClaimAmount != 2_000 {
		t.Errorf("first = %d, want newest first (2000)", mine[0].ClaimAmount)
	}
}
