package ledger

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

// LocalAttestor derives a deterministic-looking attestation hash in-process.
// Used when no external ledger is configured (dev and in-memory mode).
type LocalAttestor struct {
	nowF func() time.Time
}

// NewLocalAttestor returns a LocalAttestor.
func NewLocalAttestor() *LocalAttestor {
	return &LocalAttestor{nowF: time.Now}
}

// Attest returns a SHA-256 hash over the claim id, amount, and current time.
func (a *LocalAttestor) Attest(ctx context.Context, claimID string, amount int64) (string, error) {
	payload := fmt.Sprintf("%s|%d|%d", claimID, amount, a.nowF().UnixNano())
	sum := sha256.Sum256([]byte(payload))
	return hex.EncodeToString(sum[:]), nil
}
