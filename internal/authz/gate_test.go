package authz

import (
	"context"
	"testing"

	userdomain "afyabima/backend/internal/user/domain"
)

func newGate(t *testing.T) *OPAGate {
	t.Helper()
	g, err := NewOPAGate(context.Background())
	if err != nil {
		t.Fatalf("NewOPAGate: %v", err)
	}
	return g
}

func TestPermit_AdminAllowsEverything(t *testing.T) {
	g := newGate(t)
	ops := []string{
		OpSubmitClaim, OpSubmitClaimOnBehalf, OpProcessClaim, OpViewAllClaims,
		OpUpdatePolicyStatus, OpSendBroadcast, OpViewAuditTrail,
	}
	for _, op := range ops {
		if !g.Permit(context.Background(), userdomain.RoleAdmin, op) {
			t.Errorf("Permit(admin, %s) = false, want true", op)
		}
	}
}

func TestPermit_PatientOnlySubmitsOwnClaims(t *testing.T) {
	g := newGate(t)
	if !g.Permit(context.Background(), userdomain.RolePatient, OpSubmitClaim) {
		t.Error("Permit(patient, submit_claim) = false, want true")
	}
	denied := []string{
		OpSubmitClaimOnBehalf, OpProcessClaim, OpViewAllClaims,
		OpUpdatePolicyStatus, OpSendBroadcast, OpViewAuditTrail,
	}
	for _, op := range denied {
		if g.Permit(context.Background(), userdomain.RolePatient, op) {
			t.Errorf("Permit(patient, %s) = true, want false", op)
		}
	}
}

func TestPermit_FrontDeskDelegatedSubmissionOnly(t *testing.T) {
	g := newGate(t)
	if !g.Permit(context.Background(), userdomain.RoleFrontDesk, OpSubmitClaimOnBehalf) {
		t.Error("Permit(front-desk, submit_claim_on_behalf) = false, want true")
	}
	for _, op := range []string{OpProcessClaim, OpViewAllClaims, OpUpdatePolicyStatus, OpViewAuditTrail} {
		if g.Permit(context.Background(), userdomain.RoleFrontDesk, op) {
			t.Errorf("Permit(front-desk, %s) = true, want false", op)
		}
	}
}

func TestPermit_FailsClosed(t *testing.T) {
	g := newGate(t)
	if g.Permit(context.Background(), userdomain.Role("intruder"), OpProcessClaim) {
		t.Error("Permit(unknown role) = true, want false")
	}
	if g.Permit(context.Background(), userdomain.RoleDoctor, "unknown_operation") {
		t.Error("Permit(unknown operation) = true, want false")
	}
}

func TestPermit_ClinicalRolesCanSubmitOwn(t *testing.T) {
	g := newGate(t)
	for _, role := range []userdomain.Role{userdomain.RoleDoctor, userdomain.RoleNurse, userdomain.RolePharmacy} {
		if !g.Permit(context.Background(), role, OpSubmitClaim) {
			t.Errorf("Permit(%s, submit_claim) = false, want true", role)
		}
		if g.Permit(context.Background(), role, OpProcessClaim) {
			t.Errorf("Permit(%s, process_claim) = true, want false", role)
		}
	}
}
