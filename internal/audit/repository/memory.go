package repository

import (
	"context"
	"errors"
	"sync"

	"afyabima/backend/internal/audit/domain"
)

var errUnavailable = errors.New("audit store unavailable")

// MemoryRepository is an append-only in-memory Repository used in tests and
// when the server runs without a database.
type MemoryRepository struct {
	mu      sync.RWMutex
	records []*domain.Record
	failing bool
}

// NewMemoryRepository returns an empty in-memory audit repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{}
}

// SetFailing makes Append return an error; used in tests to simulate an
// unavailable audit store.
func (r *MemoryRepository) SetFailing(failing bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failing = failing
}

func (r *MemoryRepository) Append(ctx context.Context, rec *domain.Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failing {
		return errUnavailable
	}
	cp := *rec
	r.records = append(r.records, &cp)
	return nil
}

func (r *MemoryRepository) Query(ctx context.Context, f domain.Filter, limit, offset int) ([]*domain.Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	// Records are appended in order; walk backwards for newest first.
	var matched []*domain.Record
	for i := len(r.records) - 1; i >= 0; i-- {
		if f.Matches(r.records[i]) {
			cp := *r.records[i]
			matched = append(matched, &cp)
		}
	}
	if offset >= len(matched) {
		return nil, nil
	}
	matched = matched[offset:]
	if limit > 0 && limit < len(matched) {
		matched = matched[:limit]
	}
	return matched, nil
}

// Len returns the number of appended records. Test helper.
func (r *MemoryRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.records)
}
