package repository

import (
	"context"

	"filenet/internal/model"
)

// VersionRepository defines data access for document versions.
type VersionRepository interface {
	// Create inserts a new version and moves the document's
	// current_version_id to it in the same transaction. Version creation
	// for a single document is serialized; concurrent creators queue and
	// the last commit wins the pointer.
	Create(ctx context.Context, v *model.Version) (*model.Version, error)

	// FindByID returns a non-deleted version belonging to the given document.
	FindByID(ctx context.Context, documentID, versionID string) (*model.Version, error)

	// ListByDocument returns non-deleted versions in creation order (oldest first).
	ListByDocument(ctx context.Context, documentID string) ([]model.Version, error)
}
