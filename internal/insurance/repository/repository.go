package repository

import (
	"context"

	"afyabima/backend/internal/insurance/domain"
)

// Repository defines persistence for insurance policies.
type Repository interface {
	GetByID(ctx context.Context, id string) (*domain.Policy, error)
	// GetActiveByOwner returns the owner's active policy, or nil if none.
	GetActiveByOwner(ctx context.Context, ownerID string) (*domain.Policy, error)
	// GetLatestByOwner returns the owner's most recently created policy
	// regardless of status, or nil if none.
	GetLatestByOwner(ctx context.Context, ownerID string) (*domain.Policy, error)
	Create(ctx context.Context, p *domain.Policy) error
	// Update persists status, dependents, end date, and updated_at.
	Update(ctx context.Context, p *domain.Policy) error
}
