package postgres

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"filenet/internal/model"
	"filenet/internal/repository"
	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
)

func TestDocumentPostgres_Create(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewDocumentPostgres(db)
	ctx := context.Background()

	now := time.Now().UTC()
	doc := &model.Document{
		ID:          "doc-uuid",
		OwnerID:     "user-uuid",
		Filename:    "test.txt",
		ContentType: "text/plain",
		Size:        123,
		CreatedAt:   now,
	}
	first := &model.Version{
		ID:         "ver-uuid",
		DocumentID: "doc-uuid",
		StorageKey: "documents/doc-uuid/ver-uuid.txt",
		Checksum:   "etag",
		Size:       123,
		CreatedBy:  "user-uuid",
		CreatedAt:  now,
	}

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO documents").
		WithArgs(doc.ID, doc.OwnerID, doc.Filename, doc.ContentType, doc.Size, doc.CreatedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO document_versions").
		WithArgs(first.ID, doc.ID, first.StorageKey, first.Checksum, first.Size, first.CreatedBy, first.CreatedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE documents SET current_version_id").
		WithArgs(doc.ID, first.ID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO document_metadata").
		WithArgs(doc.ID, "project", "apollo").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	result, err := repo.Create(ctx, doc, first, map[string]string{"project": "apollo"})

	assert.NoError(t, err)
	assert.NotNil(t, result)
	assert.Equal(t, first.ID, result.CurrentVersionID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDocumentPostgres_FindByID(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewDocumentPostgres(db)
	ctx := context.Background()

	t.Run("found", func(t *testing.T) {
		rows := sqlmock.NewRows([]string{"id", "owner_id", "filename", "content_type", "size", "current_version_id", "created_at", "modified_at"}).
			AddRow("test-id", "owner-id", "file.txt", "text/plain", 100, "ver-id", time.Now(), time.Now())

		mock.ExpectQuery("SELECT (.+) FROM documents").
			WithArgs("test-id").
			WillReturnRows(rows)

		doc, err := repo.FindByID(ctx, "test-id")

		assert.NoError(t, err)
		assert.NotNil(t, doc)
		assert.Equal(t, "ver-id", doc.CurrentVersionID)
	})

	t.Run("not found", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM documents").
			WithArgs("missing").
			WillReturnError(sql.ErrNoRows)

		doc, err := repo.FindByID(ctx, "missing")

		assert.ErrorIs(t, err, sql.ErrNoRows)
		assert.Nil(t, doc)
	})
}

func TestDocumentPostgres_Search(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewDocumentPostgres(db)
	ctx := context.Background()

	t.Run("returns summaries with metadata", func(t *testing.T) {
		rows := sqlmock.NewRows([]string{"id", "owner_id", "filename", "content_type", "size", "created_at", "modified_at"}).
			AddRow("doc-1", "owner-id", "report.pdf", "application/pdf", 2048, time.Now(), time.Now())

		mock.ExpectQuery("SELECT (.+) FROM documents d").
			WithArgs("report", "user-1").
			WillReturnRows(rows)
		mock.ExpectQuery("SELECT key, value FROM document_metadata").
			WithArgs("doc-1").
			WillReturnRows(sqlmock.NewRows([]string{"key", "value"}).AddRow("project", "apollo"))

		items, err := repo.Search(ctx, repository.SearchQuery{Term: "report", UserID: "user-1"})

		assert.NoError(t, err)
		assert.Len(t, items, 1)
		assert.Equal(t, "apollo", items[0].Metadata["project"])
	})

	t.Run("no match is an empty slice", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM documents d").
			WithArgs("nothing", "user-1").
			WillReturnRows(sqlmock.NewRows([]string{"id", "owner_id", "filename", "content_type", "size", "created_at", "modified_at"}))

		items, err := repo.Search(ctx, repository.SearchQuery{Term: "nothing", UserID: "user-1"})

		assert.NoError(t, err)
		assert.NotNil(t, items)
		assert.Len(t, items, 0)
	})

	t.Run("like wildcards are escaped", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM documents d").
			WithArgs(`50\%`, "user-1").
			WillReturnRows(sqlmock.NewRows([]string{"id", "owner_id", "filename", "content_type", "size", "created_at", "modified_at"}))

		_, err := repo.Search(ctx, repository.SearchQuery{Term: "50%", UserID: "user-1"})

		assert.NoError(t, err)
	})
}

func TestDocumentPostgres_Delete(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewDocumentPostgres(db)
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT storage_key FROM document_versions").
		WithArgs("doc-1").
		WillReturnRows(sqlmock.NewRows([]string{"storage_key"}).
			AddRow("documents/doc-1/v1.pdf").
			AddRow("documents/doc-1/v2.pdf"))
	mock.ExpectExec("DELETE FROM documents WHERE id").
		WithArgs("doc-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	keys, err := repo.Delete(ctx, "doc-1")

	assert.NoError(t, err)
	assert.Equal(t, []string{"documents/doc-1/v1.pdf", "documents/doc-1/v2.pdf"}, keys)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDocumentPostgres_SetMetadata(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewDocumentPostgres(db)
	ctx := context.Background()

	t.Run("upserts and touches modified_at", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectExec("UPDATE documents SET modified_at").
			WithArgs("doc-1").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec("INSERT INTO document_metadata").
			WithArgs("doc-1", "status", "final").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		err := repo.SetMetadata(ctx, "doc-1", map[string]string{"status": "final"})

		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing document", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectExec("UPDATE documents SET modified_at").
			WithArgs("missing").
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectRollback()

		err := repo.SetMetadata(ctx, "missing", map[string]string{"status": "final"})

		assert.ErrorIs(t, err, sql.ErrNoRows)
	})

	t.Run("empty delta is a no-op", func(t *testing.T) {
		err := repo.SetMetadata(ctx, "doc-1", nil)

		assert.NoError(t, err)
	})
}
