package repository

import (
	"context"
	"sync"

	"afyabima/backend/internal/claims/domain"
)

// MemoryRepository is an in-memory claim store used when the server runs
// without a database. Safe for concurrent use.
type MemoryRepository struct {
	mu    sync.RWMutex
	byID  map[string]*domain.Claim
	order []string
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{byID: make(map[string]*domain.Claim)}
}

func (r *MemoryRepository) GetByID(_ context.Context, id string) (*domain.Claim, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.byID[id]
	if !ok {
		return nil, nil
	}
	cp := *c
	return &cp, nil
}

func (r *MemoryRepository) ListByPatient(_ context.Context, patientID string) ([]*domain.Claim, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*domain.Claim
	for i := len(r.order) - 1; i >= 0; i-- {
		c := r.byID[r.order[i]]
		if c.PatientID == patientID {
			cp := *c
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *MemoryRepository) ListAll(_ context.Context, status domain.ClaimStatus) ([]*domain.Claim, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*domain.Claim
	for i := len(r.order) - 1; i >= 0; i-- {
		c := r.byID[r.order[i]]
		if status != "" && c.Status != status {
			continue
		}
		cp := *c
		out = append(out, &cp)
	}
	return out, nil
}

func (r *MemoryRepository) Create(_ context.Context, c *domain.Claim) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *c
	r.byID[c.ID] = &cp
	r.order = append(r.order, c.ID)
	return nil
}

func (r *MemoryRepository) Update(_ context.Context, c *domain.Claim) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[c.ID]; !ok {
		return nil
	}
	cp := *c
	r.byID[c.ID] = &cp
	return nil
}
