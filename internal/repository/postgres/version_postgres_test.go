package postgres

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"filenet/internal/model"
	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
)

func TestVersionPostgres_Create(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewVersionPostgres(db)
	ctx := context.Background()

	now := time.Now().UTC()
	v := &model.Version{
		ID:         "ver-2",
		DocumentID: "doc-1",
		StorageKey: "documents/doc-1/ver-2.pdf",
		Checksum:   "etag2",
		Size:       2048,
		CreatedBy:  "user-1",
		CreatedAt:  now,
	}

	t.Run("inserts and moves the current pointer in one transaction", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectExec("SELECT pg_advisory_xact_lock").
			WithArgs("doc-1").
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery("SELECT 1 FROM documents").
			WithArgs("doc-1").
			WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))
		mock.ExpectExec("INSERT INTO document_versions").
			WithArgs(v.ID, v.DocumentID, v.StorageKey, v.Checksum, v.Size, v.CreatedBy, v.CreatedAt).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec("UPDATE documents").
			WithArgs(v.DocumentID, v.ID, v.Size, v.CreatedAt).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		out, err := repo.Create(ctx, v)

		assert.NoError(t, err)
		assert.Equal(t, "ver-2", out.ID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("document deleted while waiting on the lock", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectExec("SELECT pg_advisory_xact_lock").
			WithArgs("doc-1").
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery("SELECT 1 FROM documents").
			WithArgs("doc-1").
			WillReturnError(sql.ErrNoRows)
		mock.ExpectRollback()

		out, err := repo.Create(ctx, v)

		assert.ErrorIs(t, err, sql.ErrNoRows)
		assert.Nil(t, out)
	})
}

func TestVersionPostgres_FindByID(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewVersionPostgres(db)
	ctx := context.Background()

	t.Run("found", func(t *testing.T) {
		rows := sqlmock.NewRows([]string{"id", "document_id", "storage_key", "checksum", "size", "created_by", "created_at"}).
			AddRow("ver-1", "doc-1", "documents/doc-1/ver-1.pdf", "etag", 100, "user-1", time.Now())

		mock.ExpectQuery("SELECT (.+) FROM document_versions").
			WithArgs("ver-1", "doc-1").
			WillReturnRows(rows)

		v, err := repo.FindByID(ctx, "doc-1", "ver-1")

		assert.NoError(t, err)
		assert.Equal(t, "documents/doc-1/ver-1.pdf", v.StorageKey)
	})

	t.Run("wrong document", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM document_versions").
			WithArgs("ver-1", "other-doc").
			WillReturnError(sql.ErrNoRows)

		v, err := repo.FindByID(ctx, "other-doc", "ver-1")

		assert.ErrorIs(t, err, sql.ErrNoRows)
		assert.Nil(t, v)
	})
}

func TestVersionPostgres_ListByDocument(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewVersionPostgres(db)
	ctx := context.Background()

	older := time.Now().UTC().Add(-time.Hour)
	rows := sqlmock.NewRows([]string{"id", "document_id", "storage_key", "checksum", "size", "created_by", "created_at"}).
		AddRow("ver-1", "doc-1", "k1", "e1", 100, "user-1", older).
		AddRow("ver-2", "doc-1", "k2", "e2", 200, "user-2", older.Add(time.Hour))

	mock.ExpectQuery("SELECT (.+) FROM document_versions").
		WithArgs("doc-1").
		WillReturnRows(rows)

	items, err := repo.ListByDocument(ctx, "doc-1")

	assert.NoError(t, err)
	assert.Len(t, items, 2)
	assert.Equal(t, "ver-1", items[0].ID)
	assert.Equal(t, "ver-2", items[1].ID)
}
