package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"filenet/internal/model"
	"filenet/internal/repository"
)

// PermissionPostgres is a PostgreSQL implementation of repository.PermissionRepository.
// Cascade application happens inside a single transaction, so the persisted
// grant set never holds WRITE or DELETE without READ, not even transiently.
type PermissionPostgres struct {
	db *sql.DB
}

// NewPermissionPostgres creates a new PermissionPostgres repository.
func NewPermissionPostgres(db *sql.DB) *PermissionPostgres {
	return &PermissionPostgres{db: db}
}

var _ repository.PermissionRepository = (*PermissionPostgres)(nil)

// Grant upserts every cascaded level for (documentID, userID) atomically.
// Re-granting an existing level is a no-op, which makes grants idempotent
// and order-independent.
func (r *PermissionPostgres) Grant(ctx context.Context, documentID, userID string, level model.Level, grantedBy string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	const q = `
		INSERT INTO document_permissions (document_id, user_id, level, granted_by, created_at)
		VALUES ($1, $2, $3, $4, now())
		ON CONFLICT (document_id, user_id, level) DO NOTHING
	`
	for _, l := range level.Cascade() {
		if _, err := tx.ExecContext(ctx, q, documentID, userID, string(l), grantedBy); err != nil {
			return fmt.Errorf("grant %s: %w", l, err)
		}
	}
	return tx.Commit()
}

// Revoke deletes every cascaded level for (documentID, userID) atomically:
// revoking READ strips WRITE and DELETE in the same transaction.
func (r *PermissionPostgres) Revoke(ctx context.Context, documentID, userID string, level model.Level) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	const q = `DELETE FROM document_permissions WHERE document_id = $1 AND user_id = $2 AND level = $3`
	for _, l := range level.RevokeCascade() {
		if _, err := tx.ExecContext(ctx, q, documentID, userID, string(l)); err != nil {
			return fmt.Errorf("revoke %s: %w", l, err)
		}
	}
	return tx.Commit()
}

// Levels returns the explicit grant rows for (documentID, userID).
func (r *PermissionPostgres) Levels(ctx context.Context, documentID, userID string) ([]model.Level, error) {
	const q = `SELECT level FROM document_permissions WHERE document_id = $1 AND user_id = $2`
	rows, err := r.db.QueryContext(ctx, q, documentID, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	levels := make([]model.Level, 0)
	for rows.Next() {
		var l string
		if err := rows.Scan(&l); err != nil {
			return nil, err
		}
		levels = append(levels, model.Level(l))
	}
	return levels, rows.Err()
}
