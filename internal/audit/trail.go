// Package audit owns the append-only trail of every state-changing action.
package audit

import (
	"context"
	"time"

	"github.com/google/uuid"

	"afyabima/backend/internal/apperr"
	"afyabima/backend/internal/audit/domain"
	auditrepo "afyabima/backend/internal/audit/repository"
)

// MetaExtractor returns the client IP and user agent from the request context
// (set by the HTTP middleware). Either may be empty.
type MetaExtractor func(ctx context.Context) (ip, userAgent string)

// Trail appends and queries audit records. Unlike ordinary request logging,
// Append is not best-effort: if the store is unavailable the triggering domain
// operation must fail rather than proceed unaudited, so the error propagates.
type Trail struct {
	repo      auditrepo.Repository
	extractor MetaExtractor
}

// NewTrail returns a Trail persisting to repo. extractor may be nil; then IP
// and user agent are recorded as empty.
func NewTrail(repo auditrepo.Repository, extractor MetaExtractor) *Trail {
	return &Trail{repo: repo, extractor: extractor}
}

// Record appends one audit entry for the given actor and action. Returns a
// dependency error when the store rejects the append; callers must abort the
// domain mutation in that case.
func (t *Trail) Record(ctx context.Context, actorID, action, resourceType, resourceID, details string) error {
	ip, agent := "", ""
	if t.extractor != nil {
		ip, agent = t.extractor(ctx)
	}
	rec := &domain.Record{
		ID:           uuid.New().String(),
		ActorID:      actorID,
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		Details:      details,
		IP:           ip,
		UserAgent:    agent,
		CreatedAt:    time.Now().UTC(),
	}
	if err := t.repo.Append(ctx, rec); err != nil {
		return apperr.Dependency("audit trail unavailable", err)
	}
	return nil
}

// Query returns records matching the filter, newest first, for the given page.
// page is 1-based; pageSize falls back to 20 when not positive.
func (t *Trail) Query(ctx context.Context, f domain.Filter, page, pageSize int) ([]*domain.Record, error) {
	if pageSize <= 0 {
		pageSize = 20
	}
	if page <= 0 {
		page = 1
	}
	return t.repo.Query(ctx, f, pageSize, (page-1)*pageSize)
}
