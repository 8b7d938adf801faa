// Package ledger talks to the external settlement ledger that attests
// approved claims. The transaction hash it returns is treated as an opaque
// attestation token; the core never inspects it.
package ledger

import "context"

// Attestor requests an attestation for an approved claim. A failure means
// the approval must not commit.
type Attestor interface {
	Attest(ctx context.Context, claimID string, amount int64) (txHash string, err error)
}
