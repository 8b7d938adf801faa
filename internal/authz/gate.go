// Package authz implements the authorization gate: a fixed role × operation
// rule table evaluated in-process with OPA Rego. Deny is the default for any
// pair the table does not explicitly grant.
package authz

import (
	"context"
	"fmt"

	"github.com/open-policy-agent/opa/v1/ast"
	"github.com/open-policy-agent/opa/v1/rego"

	userdomain "afyabima/backend/internal/user/domain"
)

// Operations checked by the gate.
const (
	OpSubmitClaim         = "submit_claim"
	OpSubmitClaimOnBehalf = "submit_claim_on_behalf"
	OpProcessClaim        = "process_claim"
	OpViewAllClaims       = "view_all_claims"
	OpUpdatePolicyStatus  = "update_policy_status"
	OpSendBroadcast       = "send_broadcast_notification"
	OpViewAuditTrail      = "view_audit_trail"
)

// Identity is the authenticated caller as seen by the domain services: who
// they are and which role their access token carries.
type Identity struct {
	UserID string
	Role   userdomain.Role
}

// Gate decides whether an identity role may perform an operation.
type Gate interface {
	// Permit returns true only when the rule table explicitly grants the
	// operation to the role. Evaluation failures deny.
	Permit(ctx context.Context, role userdomain.Role, operation string) bool
}

// Rule table. Admin is granted everything; patients and clinical roles may
// submit claims against their own policy; front-desk may submit on a
// patient's behalf. Everything else is denied by the default.
const rulesRego = `package afyabima.authz

default allow = false

allow if {
	input.role == "admin"
}

allow if {
	input.operation == "submit_claim"
	input.role in {"patient", "doctor", "nurse", "pharmacy"}
}

allow if {
	input.operation == "submit_claim_on_behalf"
	input.role == "front-desk"
}
`

// OPAGate evaluates the rule table with the in-process Rego engine.
type OPAGate struct {
	query rego.PreparedEvalQuery
}

// NewOPAGate compiles the rule table once. Returns an error only if the
// embedded policy fails to compile, which is a programming error.
func NewOPAGate(ctx context.Context) (*OPAGate, error) {
	compiler, err := ast.CompileModules(map[string]string{"authz.rego": rulesRego})
	if err != nil {
		return nil, fmt.Errorf("compile authz rules: %w", err)
	}
	q, err := rego.New(
		rego.Query("data.afyabima.authz.allow"),
		rego.Compiler(compiler),
	).PrepareForEval(ctx)
	if err != nil {
		return nil, fmt.Errorf("prepare authz query: %w", err)
	}
	return &OPAGate{query: q}, nil
}

// Permit evaluates the rule table for (role, operation). Any evaluation
// failure or missing result denies.
func (g *OPAGate) Permit(ctx context.Context, role userdomain.Role, operation string) bool {
	input := map[string]interface{}{
		"role":      string(role),
		"operation": operation,
	}
	rs, err := g.query.Eval(ctx, rego.EvalInput(input))
	if err != nil || len(rs) == 0 || len(rs[0].Expressions) == 0 {
		return false
	}
	allowed, ok := rs[0].Expressions[0].Value.(bool)
	return ok && allowed
}
