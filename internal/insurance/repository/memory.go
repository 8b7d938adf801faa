package repository

import (
	"context"
	"sync"

	"afyabima/backend/internal/insurance/domain"
)

// MemoryRepository is an in-memory Repository used in tests and when the
// server runs without a database.
type MemoryRepository struct {
	mu       sync.RWMutex
	policies map[string]*domain.Policy
	order    []string // insertion order for latest-by-owner lookups
}

// NewMemoryRepository returns an empty in-memory policy repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{policies: make(map[string]*domain.Policy)}
}

func (r *MemoryRepository) GetByID(ctx context.Context, id string) (*domain.Policy, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.policies[id]
	if !ok {
		return nil, nil
	}
	return copyPolicy(p), nil
}

func (r *MemoryRepository) GetActiveByOwner(ctx context.Context, ownerID string) (*domain.Policy, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for i := len(r.order) - 1; i >= 0; i-- {
		p := r.policies[r.order[i]]
		if p.OwnerID == ownerID && p.Status == domain.PolicyStatusActive {
			return copyPolicy(p), nil
		}
	}
	return nil, nil
}

func (r *MemoryRepository) GetLatestByOwner(ctx context.Context, ownerID string) (*domain.Policy, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for i := len(r.order) - 1; i >= 0; i-- {
		p := r.policies[r.order[i]]
		if p.OwnerID == ownerID {
			return copyPolicy(p), nil
		}
	}
	return nil, nil
}

func (r *MemoryRepository) Create(ctx context.Context, p *domain.Policy) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.policies[p.ID] = copyPolicy(p)
	r.order = append(r.order, p.ID)
	return nil
}

func (r *MemoryRepository) Update(ctx context.Context, p *domain.Policy) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.policies[p.ID]; ok {
		existing.Status = p.Status
		existing.Dependents = append([]domain.Dependent(nil), p.Dependents...)
		existing.EndDate = p.EndDate
		existing.UpdatedAt = p.UpdatedAt
	}
	return nil
}

func copyPolicy(p *domain.Policy) *domain.Policy {
	cp := *p
	cp.Dependents = append([]domain.Dependent(nil), p.Dependents...)
	return &cp
}
