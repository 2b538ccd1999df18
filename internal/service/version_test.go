package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"testing"
	"time"

	"filenet/internal/model"
	repoMocks "filenet/internal/repository/mocks"
	"filenet/internal/storage"
	storeMocks "filenet/internal/storage/mocks"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// newVersionFixture wires a VersionService over mocks, with a real
// permission service on top of the same repository mocks.
func newVersionFixture() (*storeMocks.MockStorage, *repoMocks.MockDocumentRepository, *repoMocks.MockVersionRepository, *repoMocks.MockPermissionRepository, VersionService) {
	mStore := new(storeMocks.MockStorage)
	mDocs := new(repoMocks.MockDocumentRepository)
	mVers := new(repoMocks.MockVersionRepository)
	mGrants := new(repoMocks.MockPermissionRepository)
	perms := NewPermissionService(mDocs, mGrants)
	return mStore, mDocs, mVers, mGrants, NewVersionService(mStore, mDocs, mVers, perms)
}

func TestVersionService_CreateVersion(t *testing.T) {
	ctx := context.Background()
	doc := &model.Document{ID: "d1", OwnerID: "owner", Filename: "report.pdf", CurrentVersionID: "v0"}

	t.Run("writer creates a version", func(t *testing.T) {
		mStore, mDocs, mVers, mGrants, svc := newVersionFixture()
		r := strings.NewReader("new content")

		mDocs.On("FindByID", ctx, "d1").Return(doc, nil)
		mGrants.On("Levels", ctx, "d1", "writer").Return([]model.Level{model.LevelRead, model.LevelWrite}, nil)
		mStore.On("Put", ctx, mock.MatchedBy(func(key string) bool {
			return strings.HasPrefix(key, "documents/d1/") && strings.HasSuffix(key, ".pdf")
		}), r, mock.Anything).Return(storage.ObjectInfo{Key: "documents/d1/new.pdf", Size: 11, ETag: "abc"}, nil)
		mVers.On("Create", ctx, mock.MatchedBy(func(v *model.Version) bool {
			return v.DocumentID == "d1" && v.CreatedBy == "writer" && v.Checksum == "abc"
		})).Return(&model.Version{ID: "v1", DocumentID: "d1", CreatedBy: "writer"}, nil)

		v, err := svc.CreateVersion(ctx, "d1", "writer", r, "application/pdf", 11)

		assert.NoError(t, err)
		assert.Equal(t, "writer", v.CreatedBy)
		mStore.AssertExpectations(t)
		mVers.AssertExpectations(t)
	})

	t.Run("read-only user is denied before storage I/O", func(t *testing.T) {
		mStore, mDocs, _, mGrants, svc := newVersionFixture()

		mDocs.On("FindByID", ctx, "d1").Return(doc, nil)
		mGrants.On("Levels", ctx, "d1", "reader").Return([]model.Level{model.LevelRead}, nil)

		_, err := svc.CreateVersion(ctx, "d1", "reader", strings.NewReader("x"), "text/plain", 1)

		assert.ErrorIs(t, err, ErrForbidden)
		mStore.AssertNotCalled(t, "Put", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("metadata commit failure leaves the orphan and reports a gap", func(t *testing.T) {
		mStore, mDocs, mVers, _, svc := newVersionFixture()
		r := strings.NewReader("content")

		mDocs.On("FindByID", ctx, "d1").Return(doc, nil)
		mStore.On("Put", ctx, mock.Anything, r, mock.Anything).
			Return(storage.ObjectInfo{Key: "documents/d1/v.pdf", Size: 7}, nil)
		mVers.On("Create", ctx, mock.Anything).Return(nil, errors.New("commit fail"))

		_, err := svc.CreateVersion(ctx, "d1", "owner", r, "application/pdf", 7)

		var gap *ConsistencyGapError
		assert.ErrorAs(t, err, &gap)
		assert.NotEmpty(t, gap.CorrelationID)
		// The stored object is never deleted or retried.
		mStore.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
	})

	t.Run("nil reader", func(t *testing.T) {
		_, _, _, _, svc := newVersionFixture()

		_, err := svc.CreateVersion(ctx, "d1", "owner", nil, "text/plain", 0)

		assert.ErrorIs(t, err, ErrReaderNil)
	})
}

func TestVersionService_Resolve(t *testing.T) {
	ctx := context.Background()
	doc := &model.Document{ID: "d1", OwnerID: "owner", CurrentVersionID: "v2"}

	t.Run("current selector follows the pointer", func(t *testing.T) {
		_, mDocs, mVers, _, svc := newVersionFixture()

		mDocs.On("FindByID", ctx, "d1").Return(doc, nil)
		mVers.On("FindByID", ctx, "d1", "v2").Return(&model.Version{ID: "v2", DocumentID: "d1"}, nil)

		v, err := svc.Resolve(ctx, "d1", "owner", SelectorCurrent)

		assert.NoError(t, err)
		assert.Equal(t, "v2", v.ID)
	})

	t.Run("explicit version id", func(t *testing.T) {
		_, mDocs, mVers, _, svc := newVersionFixture()

		mDocs.On("FindByID", ctx, "d1").Return(doc, nil)
		mVers.On("FindByID", ctx, "d1", "v1").Return(&model.Version{ID: "v1", DocumentID: "d1"}, nil)

		v, err := svc.Resolve(ctx, "d1", "owner", "v1")

		assert.NoError(t, err)
		assert.Equal(t, "v1", v.ID)
	})

	t.Run("version of another document is not found", func(t *testing.T) {
		_, mDocs, mVers, _, svc := newVersionFixture()

		mDocs.On("FindByID", ctx, "d1").Return(doc, nil)
		mVers.On("FindByID", ctx, "d1", "other-doc-version").Return(nil, sql.ErrNoRows)

		_, err := svc.Resolve(ctx, "d1", "owner", "other-doc-version")

		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("no read grant", func(t *testing.T) {
		_, mDocs, _, mGrants, svc := newVersionFixture()

		mDocs.On("FindByID", ctx, "d1").Return(doc, nil)
		mGrants.On("Levels", ctx, "d1", "stranger").Return([]model.Level{}, nil)

		_, err := svc.Resolve(ctx, "d1", "stranger", SelectorCurrent)

		assert.ErrorIs(t, err, ErrForbidden)
	})
}

func TestVersionService_ListVersions(t *testing.T) {
	ctx := context.Background()
	doc := &model.Document{ID: "d1", OwnerID: "owner", CurrentVersionID: "v2"}

	t.Run("returns versions in creation order", func(t *testing.T) {
		_, mDocs, mVers, _, svc := newVersionFixture()

		older := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
		mDocs.On("FindByID", ctx, "d1").Return(doc, nil)
		mVers.On("ListByDocument", ctx, "d1").Return([]model.Version{
			{ID: "v1", CreatedAt: older},
			{ID: "v2", CreatedAt: older.Add(time.Hour)},
		}, nil)

		versions, err := svc.ListVersions(ctx, "d1", "owner")

		assert.NoError(t, err)
		assert.Len(t, versions, 2)
		assert.Equal(t, "v1", versions[0].ID)
		assert.True(t, versions[0].CreatedAt.Before(versions[1].CreatedAt))
	})

	t.Run("requires read", func(t *testing.T) {
		_, mDocs, mVers, mGrants, svc := newVersionFixture()

		mDocs.On("FindByID", ctx, "d1").Return(doc, nil)
		mGrants.On("Levels", ctx, "d1", "stranger").Return([]model.Level{}, nil)

		_, err := svc.ListVersions(ctx, "d1", "stranger")

		assert.ErrorIs(t, err, ErrForbidden)
		mVers.AssertNotCalled(t, "ListByDocument", mock.Anything, mock.Anything)
	})
}
