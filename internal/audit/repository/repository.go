package repository

import (
	"context"

	"afyabima/backend/internal/audit/domain"
)

// Repository defines append-only persistence for audit records.
// There is deliberately no update or delete.
type Repository interface {
	Append(ctx context.Context, r *domain.Record) error
	// Query returns matching records ordered newest first.
	Query(ctx context.Context, f domain.Filter, limit, offset int) ([]*domain.Record, error)
}
