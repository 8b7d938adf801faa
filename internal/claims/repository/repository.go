package repository

import (
	"context"

	"afyabima/backend/internal/claims/domain"
)

// Repository defines persistence for claims.
type Repository interface {
	GetByID(ctx context.Context, id string) (*domain.Claim, error)
	// ListByPatient returns the patient's claims, newest first.
	ListByPatient(ctx context.Context, patientID string) ([]*domain.Claim, error)
	// ListAll returns all claims, newest first, optionally filtered by status.
	ListAll(ctx context.Context, status domain.ClaimStatus) ([]*domain.Claim, error)
	Create(ctx context.Context, c *domain.Claim) error
	// Update persists status, rejection reason, processor, transaction hash,
	// and updated_at.
	Update(ctx context.Context, c *domain.Claim) error
}
