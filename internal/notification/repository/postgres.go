package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"afyabima/backend/internal/notification/domain"
)

type PostgresRepository struct {
	db *sql.DB
}

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const notificationColumns = "id, batch_id, recipient_id, title, message, type, is_read, metadata, created_at"

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*domain.Notification, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+notificationColumns+" FROM notifications WHERE id = $1", id)
	return scanNotification(row)
}

func (r *PostgresRepository) ListByRecipient(ctx context.Context, recipientID string) ([]*domain.Notification, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+notificationColumns+" FROM notifications WHERE recipient_id = $1 ORDER BY created_at DESC", recipientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*domain.Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

// CreateBatch inserts every row in one transaction so a partially delivered
// batch never becomes visible.
func (r *PostgresRepository) CreateBatch(ctx context.Context, notifications []*domain.Notification) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	for _, n := range notifications {
		meta, err := json.Marshal(n.Metadata)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO notifications (id, batch_id, recipient_id, title, message, type, is_read, metadata, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			n.ID, n.BatchID, n.RecipientID, n.Title, n.Message, string(n.Type), n.IsRead, meta, n.CreatedAt); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (r *PostgresRepository) MarkRead(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, "UPDATE notifications SET is_read = TRUE WHERE id = $1", id)
	return err
}

func (r *PostgresRepository) MarkAllRead(ctx context.Context, recipientID string) error {
	_, err := r.db.ExecContext(ctx, "UPDATE notifications SET is_read = TRUE WHERE recipient_id = $1", recipientID)
	return err
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM notifications WHERE id = $1", id)
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanNotification(row rowScanner) (*domain.Notification, error) {
	var n domain.Notification
	var ntype string
	var meta []byte
	err := row.Scan(&n.ID, &n.BatchID, &n.RecipientID, &n.Title, &n.Message, &ntype, &n.IsRead, &meta, &n.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	n.Type = domain.NotificationType(ntype)
	if len(meta) > 0 {
		if err := json.Unmarshal(meta, &n.Metadata); err != nil {
			return nil, err
		}
	}
	return &n, nil
}
