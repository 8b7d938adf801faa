package repository

import (
	"context"
	"sync"

	"afyabima/backend/internal/notification/domain"
)

// MemoryRepository is an in-memory notification store. Safe for concurrent use.
type MemoryRepository struct {
	mu    sync.RWMutex
	byID  map[string]*domain.Notification
	order []string
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{byID: make(map[string]*domain.Notification)}
}

func (r *MemoryRepository) GetByID(_ context.Context, id string) (*domain.Notification, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n, ok := r.byID[id]
	if !ok {
		return nil, nil
	}
	cp := *n
	return &cp, nil
}

func (r *MemoryRepository) ListByRecipient(_ context.Context, recipientID string) ([]*domain.Notification, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*domain.Notification
	for i := len(r.order) - 1; i >= 0; i-- {
		n, ok := r.byID[r.order[i]]
		if !ok || n.RecipientID != recipientID {
			continue
		}
		cp := *n
		out = append(out, &cp)
	}
	return out, nil
}

func (r *MemoryRepository) CreateBatch(_ context.Context, notifications []*domain.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, n := range notifications {
		cp := *n
		r.byID[n.ID] = &cp
		r.order = append(r.order, n.ID)
	}
	return nil
}

func (r *MemoryRepository) MarkRead(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if n, ok := r.byID[id]; ok {
		n.IsRead = true
	}
	return nil
}

func (r *MemoryRepository) MarkAllRead(_ context.Context, recipientID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, n := range r.byID {
		if n.RecipientID == recipientID {
			n.IsRead = true
		}
	}
	return nil
}

func (r *MemoryRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.byID, id)
	return nil
}
