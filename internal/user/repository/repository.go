package repository

import (
	"context"

	"afyabima/backend/internal/user/domain"
)

// Repository defines persistence for users.
type Repository interface {
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	// ListIDsByRoles returns the ids of active users holding any of the given roles.
	// Used to expand role-targeted notifications at send time.
	ListIDsByRoles(ctx context.Context, roles []domain.Role) ([]string, error)
	Create(ctx context.Context, u *domain.User) error
}
