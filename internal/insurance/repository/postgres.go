package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"afyabima/backend/internal/insurance/domain"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a policy repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const policyColumns = "id, owner_id, tier, status, coverage_limit, premium_amount, dependents, start_date, end_date, created_at, updated_at"

// GetByID returns the policy for id, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*domain.Policy, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+policyColumns+" FROM policies WHERE id = $1", id)
	return scanPolicy(row)
}

// GetActiveByOwner returns the owner's active policy, or nil if none.
func (r *PostgresRepository) GetActiveByOwner(ctx context.Context, ownerID string) (*domain.Policy, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+policyColumns+" FROM policies WHERE owner_id = $1 AND status = 'active' ORDER BY created_at DESC LIMIT 1",
		ownerID)
	return scanPolicy(row)
}

// GetLatestByOwner returns the owner's most recently created policy, or nil if none.
func (r *PostgresRepository) GetLatestByOwner(ctx context.Context, ownerID string) (*domain.Policy, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+policyColumns+" FROM policies WHERE owner_id = $1 ORDER BY created_at DESC LIMIT 1",
		ownerID)
	return scanPolicy(row)
}

// Create persists the policy. The policy must have ID set.
func (r *PostgresRepository) Create(ctx context.Context, p *domain.Policy) error {
	deps, err := json.Marshal(p.Dependents)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO policies (id, owner_id, tier, status, coverage_limit, premium_amount, dependents, start_date, end_date, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		p.ID, p.OwnerID, string(p.Tier), string(p.Status), p.CoverageLimit, p.PremiumAmount,
		deps, p.StartDate, p.EndDate, p.CreatedAt, p.UpdatedAt)
	return err
}

// Update persists status, dependents, end date, and updated_at.
func (r *PostgresRepository) Update(ctx context.Context, p *domain.Policy) error {
	deps, err := json.Marshal(p.Dependents)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx,
		"UPDATE policies SET status = $1, dependents = $2, end_date = $3, updated_at = $4 WHERE id = $5",
		string(p.Status), deps, p.EndDate, p.UpdatedAt, p.ID)
	return err
}

func scanPolicy(row *sql.Row) (*domain.Policy, error) {
	var p domain.Policy
	var tier, status string
	var deps []byte
	err := row.Scan(&p.ID, &p.OwnerID, &tier, &status, &p.CoverageLimit, &p.PremiumAmount,
		&deps, &p.StartDate, &p.EndDate, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	p.Tier = domain.Tier(tier)
	p.Status = domain.PolicyStatus(status)
	if len(deps) > 0 {
		if err := json.Unmarshal(deps, &p.Dependents); err != nil {
			return nil, err
		}
	}
	return &p, nil
}
