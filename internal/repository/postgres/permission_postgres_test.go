package postgres

import (
	"context"
	"testing"

	"filenet/internal/model"
	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
)

func TestPermissionPostgres_Grant(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewPermissionPostgres(db)
	ctx := context.Background()

	t.Run("write grant persists read in the same transaction", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectExec("INSERT INTO document_permissions").
			WithArgs("doc-1", "bob", "read", "alice").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec("INSERT INTO document_permissions").
			WithArgs("doc-1", "bob", "write", "alice").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		err := repo.Grant(ctx, "doc-1", "bob", model.LevelWrite, "alice")

		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("read grant inserts a single row", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectExec("INSERT INTO document_permissions").
			WithArgs("doc-1", "bob", "read", "alice").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		err := repo.Grant(ctx, "doc-1", "bob", model.LevelRead, "alice")

		assert.NoError(t, err)
	})

	t.Run("re-grant is idempotent", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectExec("INSERT INTO document_permissions").
			WithArgs("doc-1", "bob", "read", "alice").
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectExec("INSERT INTO document_permissions").
			WithArgs("doc-1", "bob", "delete", "alice").
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectCommit()

		err := repo.Grant(ctx, "doc-1", "bob", model.LevelDelete, "alice")

		assert.NoError(t, err)
	})
}

func TestPermissionPostgres_Revoke(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewPermissionPostgres(db)
	ctx := context.Background()

	t.Run("revoking read strips write and delete atomically", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectExec("DELETE FROM document_permissions").
			WithArgs("doc-1", "bob", "read").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec("DELETE FROM document_permissions").
			WithArgs("doc-1", "bob", "write").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec("DELETE FROM document_permissions").
			WithArgs("doc-1", "bob", "delete").
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectCommit()

		err := repo.Revoke(ctx, "doc-1", "bob", model.LevelRead)

		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("revoking write leaves read intact", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectExec("DELETE FROM document_permissions").
			WithArgs("doc-1", "bob", "write").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		err := repo.Revoke(ctx, "doc-1", "bob", model.LevelWrite)

		assert.NoError(t, err)
	})
}

func TestPermissionPostgres_Levels(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewPermissionPostgres(db)
	ctx := context.Background()

	t.Run("returns explicit grants", func(t *testing.T) {
		rows := sqlmock.NewRows([]string{"level"}).AddRow("read").AddRow("write")

		mock.ExpectQuery("SELECT level FROM document_permissions").
			WithArgs("doc-1", "bob").
			WillReturnRows(rows)

		levels, err := repo.Levels(ctx, "doc-1", "bob")

		assert.NoError(t, err)
		assert.Equal(t, []model.Level{model.LevelRead, model.LevelWrite}, levels)
	})

	t.Run("no grants is an empty slice", func(t *testing.T) {
		mock.ExpectQuery("SELECT level FROM document_permissions").
			WithArgs("doc-1", "stranger").
			WillReturnRows(sqlmock.NewRows([]string{"level"}))

		levels, err := repo.Levels(ctx, "doc-1", "stranger")

		assert.NoError(t, err)
		assert.Len(t, levels, 0)
	})
}
