package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"filenet/internal/model"
	"filenet/internal/repository"
)

// VersionPostgres is a PostgreSQL implementation of repository.VersionRepository.
type VersionPostgres struct {
	db *sql.DB
}

// NewVersionPostgres creates a new VersionPostgres repository.
func NewVersionPostgres(db *sql.DB) *VersionPostgres {
	return &VersionPostgres{db: db}
}

var _ repository.VersionRepository = (*VersionPostgres)(nil)

// Create inserts a version row and moves the document's current_version_id
// to it in the same transaction. A per-document advisory lock serializes
// concurrent creators for the same document: both commit, the later one
// wins the pointer, and the pointer can never end up referencing neither.
func (r *VersionPostgres) Create(ctx context.Context, v *model.Version) (*model.Version, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	const qLock = `SELECT pg_advisory_xact_lock(hashtextextended($1, 0))`
	if _, err := tx.ExecContext(ctx, qLock, v.DocumentID); err != nil {
		return nil, fmt.Errorf("acquire document lock: %w", err)
	}

	// Verify the document still exists while holding the lock.
	const qExists = `SELECT 1 FROM documents WHERE id = $1`
	var one int
	if err := tx.QueryRowContext(ctx, qExists, v.DocumentID).Scan(&one); err != nil {
		return nil, err
	}

	const qVer = `
		INSERT INTO document_versions (id, document_id, storage_key, checksum, size, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	if _, err := tx.ExecContext(ctx, qVer,
		v.ID, v.DocumentID, v.StorageKey, v.Checksum, v.Size, v.CreatedBy, v.CreatedAt,
	); err != nil {
		return nil, fmt.Errorf("insert version: %w", err)
	}

	const qPtr = `
		UPDATE documents
		SET current_version_id = $2, size = $3, modified_at = $4
		WHERE id = $1
	`
	if _, err := tx.ExecContext(ctx, qPtr, v.DocumentID, v.ID, v.Size, v.CreatedAt); err != nil {
		return nil, fmt.Errorf("move current version: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	out := *v
	return &out, nil
}

// FindByID returns a non-deleted version belonging to the given document.
func (r *VersionPostgres) FindByID(ctx context.Context, documentID, versionID string) (*model.Version, error) {
	const q = `
		SELECT id, document_id, storage_key, checksum, size, created_by, created_at
		FROM document_versions
		WHERE id = $1 AND document_id = $2 AND deleted_at IS NULL
	`
	row := r.db.QueryRowContext(ctx, q, versionID, documentID)
	var v model.Version
	if err := row.Scan(
		&v.ID,
		&v.DocumentID,
		&v.StorageKey,
		&v.Checksum,
		&v.Size,
		&v.CreatedBy,
		&v.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &v, nil
}

// ListByDocument returns non-deleted versions oldest first.
func (r *VersionPostgres) ListByDocument(ctx context.Context, documentID string) ([]model.Version, error) {
	const q = `
		SELECT id, document_id, storage_key, checksum, size, created_by, created_at
		FROM document_versions
		WHERE document_id = $1 AND deleted_at IS NULL
		ORDER BY created_at ASC, id ASC
	`
	rows, err := r.db.QueryContext(ctx, q, documentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.Version, 0)
	for rows.Next() {
		var v model.Version
		if err := rows.Scan(
			&v.ID,
			&v.DocumentID,
			&v.StorageKey,
			&v.Checksum,
			&v.Size,
			&v.CreatedBy,
			&v.CreatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, v)
	}
	return items, rows.Err()
}
