package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"afyabima/backend/internal/claims/domain"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a claim repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const claimColumns = "id, policy_id, patient_id, facility_id, claim_amount, services_rendered, status, rejection_reason, processed_by, transaction_hash, created_at, updated_at"

// GetByID returns the claim for id, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*domain.Claim, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+claimColumns+" FROM claims WHERE id = $1", id)
	c, err := scanClaim(row)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// ListByPatient returns the patient's claims, newest first.
func (r *PostgresRepository) ListByPatient(ctx context.Context, patientID string) ([]*domain.Claim, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+claimColumns+" FROM claims WHERE patient_id = $1 ORDER BY created_at DESC", patientID)
	if err != nil {
		return nil, err
	}
	return collectClaims(rows)
}

// ListAll returns all claims, newest first, optionally filtered by status.
func (r *PostgresRepository) ListAll(ctx context.Context, status domain.ClaimStatus) ([]*domain.Claim, error) {
	var (
		rows *sql.Rows
		err  error
	)
	if status == "" {
		rows, err = r.db.QueryContext(ctx, "SELECT "+claimColumns+" FROM claims ORDER BY created_at DESC")
	} else {
		rows, err = r.db.QueryContext(ctx,
			"SELECT "+claimColumns+" FROM claims WHERE status = $1 ORDER BY created_at DESC", string(status))
	}
	if err != nil {
		return nil, err
	}
	return collectClaims(rows)
}

// Create persists the claim. The claim must have ID set.
func (r *PostgresRepository) Create(ctx context.Context, c *domain.Claim) error {
	services, err := json.Marshal(c.ServicesRendered)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO claims (id, policy_id, patient_id, facility_id, claim_amount, services_rendered, status, rejection_reason, processed_by, transaction_hash, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		c.ID, c.PolicyID, c.PatientID, c.FacilityID, c.ClaimAmount, services, string(c.Status),
		c.RejectionReason, c.ProcessedBy, c.TransactionHash, c.CreatedAt, c.UpdatedAt)
	return err
}

// Update persists the adjudication outcome.
func (r *PostgresRepository) Update(ctx context.Context, c *domain.Claim) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE claims SET status = $1, rejection_reason = $2, processed_by = $3, transaction_hash = $4, updated_at = $5
		 WHERE id = $6`,
		string(c.Status), c.RejectionReason, c.ProcessedBy, c.TransactionHash, c.UpdatedAt, c.ID)
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanClaim(row rowScanner) (*domain.Claim, error) {
	var c domain.Claim
	var status string
	var services []byte
	err := row.Scan(&c.ID, &c.PolicyID, &c.PatientID, &c.FacilityID, &c.ClaimAmount, &services,
		&status, &c.RejectionReason, &c.ProcessedBy, &c.TransactionHash, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	c.Status = domain.ClaimStatus(status)
	if len(services) > 0 {
		if err := json.Unmarshal(services, &c.ServicesRendered); err != nil {
			return nil, err
		}
	}
	return &c, nil
}

func collectClaims(rows *sql.Rows) ([]*domain.Claim, error) {
	defer rows.Close()
	var out []*domain.Claim
	for rows.Next() {
		c, err := scanClaim(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
