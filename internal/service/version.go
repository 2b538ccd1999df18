package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"io"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"filenet/internal/model"
	"filenet/internal/repository"
	"filenet/internal/storage"
)

// SelectorCurrent resolves to the document's current version.
const SelectorCurrent = "current"

// VersionService creates, lists, and resolves immutable document versions.
type VersionService interface {
	// CreateVersion streams content into object storage under a fresh,
	// never-reused key, then atomically records the version and moves the
	// document's current-version pointer. Requires WRITE on the document.
	// The pointer only moves after the storage write is fully acknowledged,
	// so an aborted upload can never become current.
	CreateVersion(ctx context.Context, documentID, actorID string, r io.Reader, contentType string, size int64) (*model.Version, error)

	// Resolve maps a selector (SelectorCurrent or an explicit version id)
	// to a version of the document. Requires READ.
	Resolve(ctx context.Context, documentID, actorID, selector string) (*model.Version, error)

	// ListVersions returns the document's versions oldest first, a snapshot
	// of the set at call time. Requires READ.
	ListVersions(ctx context.Context, documentID, actorID string) ([]model.Version, error)
}

type versionService struct {
	store    storage.Storage
	docs     repository.DocumentRepository
	versions repository.VersionRepository
	perms    PermissionService
}

// NewVersionService constructs a VersionService.
func NewVersionService(store storage.Storage, docs repository.DocumentRepository, versions repository.VersionRepository, perms PermissionService) VersionService {
	return &versionService{store: store, docs: docs, versions: versions, perms: perms}
}

func (s *versionService) CreateVersion(ctx context.Context, documentID, actorID string, r io.Reader, contentType string, size int64) (*model.Version, error) {
	if r == nil {
		return nil, ErrReaderNil
	}
	ok, err := s.perms.Check(ctx, documentID, actorID, model.LevelWrite)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrForbidden
	}

	doc, err := s.docs.FindByID(ctx, documentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	versionID := uuid.New().String()
	key := versionKey(documentID, versionID, doc.Filename)

	objInfo, err := s.store.Put(ctx, key, r, storage.PutObjectOptions{
		Size:        size,
		ContentType: contentType,
		Metadata: map[string]string{
			"document-id": documentID,
			"version-id":  versionID,
		},
	})
	if err != nil {
		return nil, err
	}

	v := &model.Version{
		ID:         versionID,
		DocumentID: documentID,
		StorageKey: objInfo.Key,
		Checksum:   objInfo.ETag,
		Size:       objInfo.Size,
		CreatedBy:  actorID,
		CreatedAt:  time.Now().UTC(),
	}
	stored, err := s.versions.Create(ctx, v)
	if err != nil {
		// The object is already in storage; deleting it here could race a
		// concurrent commit, and a blind re-commit risks a duplicate
		// version. Leave the orphan for out-of-band reconciliation and
		// report the gap with a correlation id.
		gap := &ConsistencyGapError{
			CorrelationID: uuid.New().String(),
			StorageKey:    objInfo.Key,
			Err:           err,
		}
		logConsistencyGap(gap, documentID)
		return nil, gap
	}
	return stored, nil
}

func (s *versionService) Resolve(ctx context.Context, documentID, actorID, selector string) (*model.Version, error) {
	ok, err := s.perms.Check(ctx, documentID, actorID, model.LevelRead)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrForbidden
	}
	return s.resolveUnchecked(ctx, documentID, selector)
}

// resolveUnchecked maps a selector to a version without an authorization
// check; callers that have already verified READ use it directly.
func (s *versionService) resolveUnchecked(ctx context.Context, documentID, selector string) (*model.Version, error) {
	target := selector
	if target == "" || target == SelectorCurrent {
		doc, err := s.docs.FindByID(ctx, documentID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, ErrNotFound
			}
			return nil, err
		}
		target = doc.CurrentVersionID
	}
	v, err := s.versions.FindByID(ctx, documentID, target)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return v, nil
}

func (s *versionService) ListVersions(ctx context.Context, documentID, actorID string) ([]model.Version, error) {
	ok, err := s.perms.Check(ctx, documentID, actorID, model.LevelRead)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrForbidden
	}
	return s.versions.ListByDocument(ctx, documentID)
}

// versionKey builds the storage key for a version. The version UUID makes
// the key unique across all versions ever created; keys are never reused.
func versionKey(documentID, versionID, filename string) string {
	return filepath.ToSlash(filepath.Join("documents", documentID, versionID+filepath.Ext(filename)))
}

func logConsistencyGap(gap *ConsistencyGapError, documentID string) {
	entry := map[string]any{
		"ts":             time.Now().UTC().Format(time.RFC3339Nano),
		"level":          "error",
		"event":          "consistency_gap",
		"correlation_id": gap.CorrelationID,
		"document_id":    documentID,
		"storage_key":    gap.StorageKey,
		"error_message":  gap.Err.Error(),
	}
	if b, err := json.Marshal(entry); err == nil {
		log.SetFlags(0)
		log.New(os.Stderr, "", 0).Println(string(b))
	}
}
