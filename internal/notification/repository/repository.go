package repository

import (
	"context"

	"afyabima/backend/internal/notification/domain"
)

// Repository is the notification persistence contract. Reads return nil (or
// an empty slice) for missing rows rather than an error.
type Repository interface {
	GetByID(ctx context.Context, id string) (*domain.Notification, error)
	// ListByRecipient returns the recipient's notifications, newest first.
	ListByRecipient(ctx context.Context, recipientID string) ([]*domain.Notification, error)
	CreateBatch(ctx context.Context, notifications []*domain.Notification) error
	MarkRead(ctx context.Context, id string) error
	MarkAllRead(ctx context.Context, recipientID string) error
	Delete(ctx context.Context, id string) error
}
