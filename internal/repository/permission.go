package repository

import (
	"context"

	"filenet/internal/model"
)

// PermissionRepository defines data access for per-user document grants.
// Grant and Revoke must apply the full cascade for a level atomically:
// the persisted grant set never holds WRITE or DELETE without READ.
type PermissionRepository interface {
	// Grant upserts every level in level.Cascade() for (documentID, userID)
	// in one transaction. Granting is idempotent.
	Grant(ctx context.Context, documentID, userID string, level model.Level, grantedBy string) error

	// Revoke deletes every level in level.RevokeCascade() for
	// (documentID, userID) in one transaction.
	Revoke(ctx context.Context, documentID, userID string, level model.Level) error

	// Levels returns the explicit grant rows for (documentID, userID).
	// Owner-implicit permissions are a service concern, not a row.
	Levels(ctx context.Context, documentID, userID string) ([]model.Level, error)
}
