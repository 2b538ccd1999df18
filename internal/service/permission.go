package service

import (
	"context"
	"database/sql"
	"errors"

	"filenet/internal/model"
	"filenet/internal/repository"
)

// PermissionService evaluates and mutates per-user document grants.
// The cascade rules live in model.Level; this service decides who may
// mutate grants and answers authorization checks. The owner implicitly
// holds every level and never needs a grant row.
type PermissionService interface {
	// Grant gives subjectUserID the level on the document. The actor must
	// be the owner or hold DELETE. WRITE and DELETE grants carry READ with
	// them; granting in any order converges to the same persisted set.
	Grant(ctx context.Context, documentID, actorID, subjectUserID string, level model.Level) error

	// Revoke removes the level from subjectUserID. Same authorization as
	// Grant. Revoking READ also removes WRITE and DELETE atomically.
	Revoke(ctx context.Context, documentID, actorID, subjectUserID string, level model.Level) error

	// Check reports whether the user holds required on the document,
	// counting level implication (DELETE ⊇ WRITE ⊇ READ) and implicit
	// ownership. Returns ErrNotFound if the document does not exist.
	Check(ctx context.Context, documentID, userID string, required model.Level) (bool, error)
}

type permissionService struct {
	docs   repository.DocumentRepository
	grants repository.PermissionRepository
}

// NewPermissionService constructs a PermissionService.
func NewPermissionService(docs repository.DocumentRepository, grants repository.PermissionRepository) PermissionService {
	return &permissionService{docs: docs, grants: grants}
}

func (s *permissionService) Grant(ctx context.Context, documentID, actorID, subjectUserID string, level model.Level) error {
	if !level.Valid() {
		return NewValidationError("unknown permission level %q", level)
	}
	if err := s.authorizeShare(ctx, documentID, actorID); err != nil {
		return err
	}
	return s.grants.Grant(ctx, documentID, subjectUserID, level, actorID)
}

func (s *permissionService) Revoke(ctx context.Context, documentID, actorID, subjectUserID string, level model.Level) error {
	if !level.Valid() {
		return NewValidationError("unknown permission level %q", level)
	}
	if err := s.authorizeShare(ctx, documentID, actorID); err != nil {
		return err
	}
	return s.grants.Revoke(ctx, documentID, subjectUserID, level)
}

func (s *permissionService) Check(ctx context.Context, documentID, userID string, required model.Level) (bool, error) {
	doc, err := s.docs.FindByID(ctx, documentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, ErrNotFound
		}
		return false, err
	}
	if doc.OwnerID == userID {
		return true, nil
	}
	levels, err := s.grants.Levels(ctx, documentID, userID)
	if err != nil {
		return false, err
	}
	for _, l := range levels {
		if l.Implies(required) {
			return true, nil
		}
	}
	return false, nil
}

// authorizeShare enforces who may change grants: the owner, or a holder of
// an explicit DELETE grant. Authorization runs before any mutation, so a
// denied request has no side effects.
func (s *permissionService) authorizeShare(ctx context.Context, documentID, actorID string) error {
	doc, err := s.docs.FindByID(ctx, documentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}
	if doc.OwnerID == actorID {
		return nil
	}
	levels, err := s.grants.Levels(ctx, documentID, actorID)
	if err != nil {
		return err
	}
	for _, l := range levels {
		if l == model.LevelDelete {
			return nil
		}
	}
	return ErrForbidden
}
