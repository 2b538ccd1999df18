package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"filenet/internal/model"
	"filenet/internal/repository"
)

// DocumentPostgres is a PostgreSQL implementation of repository.DocumentRepository.
// It uses database/sql with parameterized queries and contains no business logic.
type DocumentPostgres struct {
	db *sql.DB
}

// NewDocumentPostgres creates a new DocumentPostgres repository.
func NewDocumentPostgres(db *sql.DB) *DocumentPostgres {
	return &DocumentPostgres{db: db}
}

var _ repository.DocumentRepository = (*DocumentPostgres)(nil)

// Create inserts the document, its first version, and the initial metadata
// set in one transaction, then points current_version_id at that version.
// Either everything is visible or nothing is.
func (r *DocumentPostgres) Create(ctx context.Context, doc *model.Document, first *model.Version, metadata map[string]string) (*model.Document, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	const qDoc = `
		INSERT INTO documents (id, owner_id, filename, content_type, size, created_at, modified_at)
		VALUES ($1, $2, $3, $4, $5, $6, $6)
	`
	if _, err := tx.ExecContext(ctx, qDoc,
		doc.ID, doc.OwnerID, doc.Filename, doc.ContentType, doc.Size, doc.CreatedAt,
	); err != nil {
		return nil, fmt.Errorf("insert document: %w", err)
	}

	const qVer = `
		INSERT INTO document_versions (id, document_id, storage_key, checksum, size, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	if _, err := tx.ExecContext(ctx, qVer,
		first.ID, doc.ID, first.StorageKey, first.Checksum, first.Size, first.CreatedBy, first.CreatedAt,
	); err != nil {
		return nil, fmt.Errorf("insert first version: %w", err)
	}

	const qPtr = `UPDATE documents SET current_version_id = $2 WHERE id = $1`
	if _, err := tx.ExecContext(ctx, qPtr, doc.ID, first.ID); err != nil {
		return nil, fmt.Errorf("set current version: %w", err)
	}

	if err := upsertMetadata(ctx, tx, doc.ID, metadata); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}

	out := *doc
	out.CurrentVersionID = first.ID
	out.ModifiedAt = doc.CreatedAt
	return &out, nil
}

// FindByID fetches a single document by its ID.
func (r *DocumentPostgres) FindByID(ctx context.Context, id string) (*model.Document, error) {
	const q = `
		SELECT id, owner_id, filename, content_type, size, current_version_id, created_at, modified_at
		FROM documents
		WHERE id = $1
	`
	row := r.db.QueryRowContext(ctx, q, id)
	var d model.Document
	if err := row.Scan(
		&d.ID,
		&d.OwnerID,
		&d.Filename,
		&d.ContentType,
		&d.Size,
		&d.CurrentVersionID,
		&d.CreatedAt,
		&d.ModifiedAt,
	); err != nil {
		return nil, err
	}
	return &d, nil
}

// Search returns the metadata-only projection of matching documents.
// The WHERE clause restricts results to documents the user owns or holds
// an explicit read grant on; the SELECT list never touches storage keys.
func (r *DocumentPostgres) Search(ctx context.Context, q repository.SearchQuery) ([]model.DocumentSummary, error) {
	const qSearch = `
		SELECT d.id, d.owner_id, d.filename, d.content_type, d.size, d.created_at, d.modified_at
		FROM documents d
		WHERE (d.filename ILIKE '%' || $1 || '%'
		   OR EXISTS (
			SELECT 1 FROM document_metadata m
			WHERE m.document_id = d.id AND m.value ILIKE '%' || $1 || '%'
		   ))
		  AND (d.owner_id = $2
		   OR EXISTS (
			SELECT 1 FROM document_permissions p
			WHERE p.document_id = d.id AND p.user_id = $2 AND p.level = 'read'
		   ))
		ORDER BY d.created_at DESC, d.id DESC
	`
	rows, err := r.db.QueryContext(ctx, qSearch, escapeLike(q.Term), q.UserID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.DocumentSummary, 0)
	for rows.Next() {
		var s model.DocumentSummary
		if err := rows.Scan(
			&s.ID,
			&s.OwnerID,
			&s.Filename,
			&s.ContentType,
			&s.Size,
			&s.CreatedAt,
			&s.ModifiedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range items {
		meta, err := r.GetMetadata(ctx, items[i].ID)
		if err != nil {
			return nil, err
		}
		items[i].Metadata = meta
	}
	return items, nil
}

// Delete removes the document row; versions, grants, and metadata cascade
// via foreign keys. Storage keys of all versions are collected first so the
// caller can remove the stored objects.
func (r *DocumentPostgres) Delete(ctx context.Context, id string) ([]string, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	const qKeys = `SELECT storage_key FROM document_versions WHERE document_id = $1`
	rows, err := tx.QueryContext(ctx, qKeys, id)
	if err != nil {
		return nil, err
	}
	keys := make([]string, 0)
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			rows.Close()
			return nil, err
		}
		keys = append(keys, k)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	const qDel = `DELETE FROM documents WHERE id = $1`
	if _, err := tx.ExecContext(ctx, qDel, id); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return keys, nil
}

// GetMetadata returns the metadata key/value set for a document.
func (r *DocumentPostgres) GetMetadata(ctx context.Context, documentID string) (map[string]string, error) {
	const q = `SELECT key, value FROM document_metadata WHERE document_id = $1`
	rows, err := r.db.QueryContext(ctx, q, documentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	meta := make(map[string]string)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, err
		}
		meta[k] = v
	}
	return meta, rows.Err()
}

// SetMetadata upserts entries into the document's metadata set in one
// transaction, last-writer-wins per key.
func (r *DocumentPostgres) SetMetadata(ctx context.Context, documentID string, entries map[string]string) error {
	if len(entries) == 0 {
		return nil
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	const qTouch = `UPDATE documents SET modified_at = now() WHERE id = $1`
	res, err := tx.ExecContext(ctx, qTouch, documentID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return sql.ErrNoRows
	}

	if err := upsertMetadata(ctx, tx, documentID, entries); err != nil {
		return err
	}
	return tx.Commit()
}

// upsertMetadata writes entries within an existing transaction. Conflicts
// are resolved on the case-insensitive key index so "Title" overwrites
// "title" rather than sitting next to it.
func upsertMetadata(ctx context.Context, tx *sql.Tx, documentID string, entries map[string]string) error {
	const q = `
		INSERT INTO document_metadata (document_id, key, value)
		VALUES ($1, $2, $3)
		ON CONFLICT (document_id, lower(key)) DO UPDATE SET key = EXCLUDED.key, value = EXCLUDED.value
	`
	for k, v := range entries {
		if _, err := tx.ExecContext(ctx, q, documentID, k, v); err != nil {
			return fmt.Errorf("upsert metadata key %q: %w", k, err)
		}
	}
	return nil
}

// escapeLike neutralizes LIKE wildcards in user-supplied search terms.
func escapeLike(term string) string {
	term = strings.ReplaceAll(term, `\`, `\\`)
	term = strings.ReplaceAll(term, `%`, `\%`)
	term = strings.ReplaceAll(term, `_`, `\_`)
	return term
}
