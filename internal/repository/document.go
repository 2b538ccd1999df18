package repository

import (
	"context"

	"filenet/internal/model"
)

// DocumentRepository defines data access for documents using SQL queries only.
// No business logic here — strictly persistence operations.
type DocumentRepository interface {
	// Create inserts a document together with its first version and initial
	// metadata in a single transaction, then points current_version_id at
	// that version. Returns the stored document.
	Create(ctx context.Context, doc *model.Document, first *model.Version, metadata map[string]string) (*model.Document, error)

	// FindByID returns a document by its ID.
	FindByID(ctx context.Context, id string) (*model.Document, error)

	// Search returns summaries of documents whose filename or metadata
	// values contain the term, restricted to documents the querying user
	// owns or holds a read grant on. The projection never includes storage
	// keys.
	Search(ctx context.Context, q SearchQuery) ([]model.DocumentSummary, error)

	// Delete removes a document row; versions, grants, and metadata go with
	// it via foreign-key cascade. Returns the storage keys of all versions
	// so the caller can clean up object storage.
	Delete(ctx context.Context, id string) ([]string, error)

	// GetMetadata returns the document's metadata set.
	GetMetadata(ctx context.Context, documentID string) (map[string]string, error)

	// SetMetadata upserts the given entries into the document's metadata
	// set, last-writer-wins per key. Keys are case-insensitively unique.
	SetMetadata(ctx context.Context, documentID string, entries map[string]string) error
}
