package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"

	"filenet/internal/config"
	"filenet/internal/model"
	"filenet/internal/repository"
	"filenet/internal/storage"
)

// UpdateRequest carries the optional pieces of a document update. Content
// and Metadata may each be nil; at least one must be present.
type UpdateRequest struct {
	Content     io.Reader
	ContentType string
	Size        int64
	Metadata    map[string]string
}

// UpdateResult reports the state after an update.
type UpdateResult struct {
	Document *model.Document   `json:"document"`
	Version  *model.Version    `json:"version"`
	Metadata map[string]string `json:"metadata"`
}

// RetrieveResult is a streamed document download. Callers own Body and
// must close it.
type RetrieveResult struct {
	Body     io.ReadCloser
	Document *model.Document
	Version  *model.Version
}

// DocumentWithMetadata is the structured retrieve-with-metadata response.
type DocumentWithMetadata struct {
	Document *model.Document   `json:"document"`
	Metadata map[string]string `json:"metadata"`
	Version  *model.Version    `json:"version"`
}

// DocumentService defines the use cases for handling documents. Every
// operation authorizes before touching storage, so a denied request never
// causes storage I/O.
type DocumentService interface {
	// Upload creates a document, its first version, and initial metadata in
	// one transaction; ownership goes to the actor. Only authentication is
	// required.
	Upload(ctx context.Context, actorID string, r io.Reader, filename, contentType string, size int64, metadata map[string]string) (*model.Document, error)

	// Search returns metadata summaries of readable documents matching the
	// term. An empty match is an empty slice, never an error.
	Search(ctx context.Context, actorID, term string) ([]model.DocumentSummary, error)

	// Retrieve streams the bytes of the selected version (current, or an
	// explicit version id). Requires READ.
	Retrieve(ctx context.Context, documentID, actorID, versionSelector string) (*RetrieveResult, error)

	// RetrieveWithMetadata returns document attributes, the metadata set,
	// and the selected version summary in one response. Requires READ.
	RetrieveWithMetadata(ctx context.Context, documentID, actorID, versionSelector string) (*DocumentWithMetadata, error)

	// Update applies a content change (new version) and/or a metadata delta
	// (last-writer-wins per key). Requires WRITE.
	Update(ctx context.Context, documentID, actorID string, req UpdateRequest) (*UpdateResult, error)

	// Delete removes the document, all versions, grants, metadata, and the
	// stored objects. Requires DELETE.
	Delete(ctx context.Context, documentID, actorID string) error
}

type documentService struct {
	store    storage.Storage
	docs     repository.DocumentRepository
	versions VersionService
	perms    PermissionService
	upload   config.UploadConfig
}

// NewDocumentService constructs a new DocumentService.
func NewDocumentService(store storage.Storage, docs repository.DocumentRepository, versions VersionService, perms PermissionService, upload config.UploadConfig) DocumentService {
	return &documentService{store: store, docs: docs, versions: versions, perms: perms, upload: upload}
}

func (s *documentService) Upload(ctx context.Context, actorID string, r io.Reader, filename, contentType string, size int64, metadata map[string]string) (*model.Document, error) {
	if r == nil {
		return nil, ErrReaderNil
	}
	if filename == "" {
		return nil, NewValidationError("filename is required")
	}
	if err := s.validateContent(contentType, size); err != nil {
		return nil, err
	}

	docID := uuid.New().String()
	versionID := uuid.New().String()
	key := versionKey(docID, versionID, filename)

	objInfo, err := s.store.Put(ctx, key, r, storage.PutObjectOptions{
		Size:        size,
		ContentType: contentType,
		Metadata: map[string]string{
			"original-filename": filename,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("upload to storage: %w", err)
	}

	now := time.Now().UTC()
	doc := &model.Document{
		ID:          docID,
		OwnerID:     actorID,
		Filename:    filename,
		ContentType: contentType,
		Size:        objInfo.Size,
		CreatedAt:   now,
	}
	first := &model.Version{
		ID:         versionID,
		DocumentID: docID,
		StorageKey: objInfo.Key,
		Checksum:   objInfo.ETag,
		Size:       objInfo.Size,
		CreatedBy:  actorID,
		CreatedAt:  now,
	}
	stored, err := s.docs.Create(ctx, doc, first, metadata)
	if err != nil {
		// No document row exists yet, so removing the just-written object
		// cannot race anything; roll it back.
		if delErr := s.store.Delete(ctx, key); delErr != nil {
			return nil, fmt.Errorf("db save failed: %v; rollback delete failed: %v", err, delErr)
		}
		return nil, fmt.Errorf("db save failed: %w", err)
	}
	return stored, nil
}

// Search is a repository-level projection: the query never selects storage
// keys or content, and permission filtering happens in SQL rather than as
// a post-filter on full retrieves.
func (s *documentService) Search(ctx context.Context, actorID, term string) ([]model.DocumentSummary, error) {
	return s.docs.Search(ctx, repository.SearchQuery{Term: strings.TrimSpace(term), UserID: actorID})
}

func (s *documentService) Retrieve(ctx context.Context, documentID, actorID, versionSelector string) (*RetrieveResult, error) {
	doc, ver, err := s.authorizeRead(ctx, documentID, actorID, versionSelector)
	if err != nil {
		return nil, err
	}
	body, _, err := s.store.Get(ctx, ver.StorageKey)
	if err != nil {
		return nil, fmt.Errorf("get from storage: %w", err)
	}
	return &RetrieveResult{Body: body, Document: doc, Version: ver}, nil
}

func (s *documentService) RetrieveWithMetadata(ctx context.Context, documentID, actorID, versionSelector string) (*DocumentWithMetadata, error) {
	doc, ver, err := s.authorizeRead(ctx, documentID, actorID, versionSelector)
	if err != nil {
		return nil, err
	}
	meta, err := s.docs.GetMetadata(ctx, documentID)
	if err != nil {
		return nil, err
	}
	return &DocumentWithMetadata{Document: doc, Metadata: meta, Version: ver}, nil
}

func (s *documentService) Update(ctx context.Context, documentID, actorID string, req UpdateRequest) (*UpdateResult, error) {
	if req.Content == nil && len(req.Metadata) == 0 {
		return nil, NewValidationError("nothing to update: provide content or metadata")
	}

	ok, err := s.perms.Check(ctx, documentID, actorID, model.LevelWrite)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrForbidden
	}

	var ver *model.Version
	if req.Content != nil {
		if err := s.validateContent(req.ContentType, req.Size); err != nil {
			return nil, err
		}
		ver, err = s.versions.CreateVersion(ctx, documentID, actorID, req.Content, req.ContentType, req.Size)
		if err != nil {
			return nil, err
		}
	}

	if len(req.Metadata) > 0 {
		if err := s.docs.SetMetadata(ctx, documentID, req.Metadata); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, ErrNotFound
			}
			return nil, err
		}
	}

	doc, err := s.docs.FindByID(ctx, documentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	meta, err := s.docs.GetMetadata(ctx, documentID)
	if err != nil {
		return nil, err
	}
	return &UpdateResult{Document: doc, Version: ver, Metadata: meta}, nil
}

func (s *documentService) Delete(ctx context.Context, documentID, actorID string) error {
	ok, err := s.perms.Check(ctx, documentID, actorID, model.LevelDelete)
	if err != nil {
		return err
	}
	if !ok {
		return ErrForbidden
	}

	keys, err := s.docs.Delete(ctx, documentID)
	if err != nil {
		return err
	}
	// Rows are gone; stored objects are unreachable from here on. A failed
	// object delete leaves an orphan for reconciliation, same as the
	// version-creation gap.
	for _, key := range keys {
		if delErr := s.store.Delete(ctx, key); delErr != nil {
			gap := &ConsistencyGapError{
				CorrelationID: uuid.New().String(),
				StorageKey:    key,
				Err:           delErr,
			}
			logConsistencyGap(gap, documentID)
		}
	}
	return nil
}

// authorizeRead checks READ, then loads the document and resolves the
// version selector. The storage adapter is only consulted afterwards.
func (s *documentService) authorizeRead(ctx context.Context, documentID, actorID, versionSelector string) (*model.Document, *model.Version, error) {
	if documentID == "" {
		return nil, nil, ErrIDRequired
	}
	ok, err := s.perms.Check(ctx, documentID, actorID, model.LevelRead)
	if err != nil {
		return nil, nil, err
	}
	if !ok {
		return nil, nil, ErrForbidden
	}
	doc, err := s.docs.FindByID(ctx, documentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, ErrNotFound
		}
		return nil, nil, err
	}
	selector := versionSelector
	if selector == "" {
		selector = SelectorCurrent
	}
	ver, err := s.versions.Resolve(ctx, documentID, actorID, selector)
	if err != nil {
		return nil, nil, err
	}
	return doc, ver, nil
}

func (s *documentService) validateContent(contentType string, size int64) error {
	if size > s.upload.MaxBytes {
		return NewValidationError("payload of %d bytes exceeds limit of %d", size, s.upload.MaxBytes)
	}
	if len(s.upload.AllowedTypes) == 0 {
		return nil
	}
	base := contentType
	if i := strings.Index(base, ";"); i >= 0 {
		base = base[:i]
	}
	base = strings.TrimSpace(strings.ToLower(base))
	for _, allowed := range s.upload.AllowedTypes {
		if base == strings.ToLower(allowed) {
			return nil
		}
	}
	return NewValidationError("unsupported content type %q", contentType)
}
