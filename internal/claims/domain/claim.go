package domain

import "time"

// ClaimStatus is the claim state machine: pending is the only non-terminal
// state; approved, rejected, and flagged_for_review are terminal.
type ClaimStatus string

const (
	ClaimStatusPending  ClaimStatus = "pending"
	ClaimStatusApproved ClaimStatus = "approved"
	ClaimStatusRejected ClaimStatus = "rejected"
	ClaimStatusFlagged  ClaimStatus = "flagged_for_review"
)

// TerminalStatus reports whether s is a valid adjudication outcome.
func TerminalStatus(s ClaimStatus) bool {
	switch s {
	case ClaimStatusApproved, ClaimStatusRejected, ClaimStatusFlagged:
		return true
	}
	return false
}

// Claim is a reimbursement request against a policy. A claim is created by
// submission and mutated exactly once by an adjudication transition.
type Claim struct {
	ID               string
	PolicyID         string
	PatientID        string
	FacilityID       string
	ClaimAmount      int64
	ServicesRendered []string
	Status           ClaimStatus
	RejectionReason  string // non-empty iff Status is rejected
	ProcessedBy      string // set iff Status is not pending
	TransactionHash  string // set iff Status is approved
	CreatedAt        time.Time
	UpdatedAt        time.Time
}
