package postgres

import (
	"context"
	"database/sql"

	"filenet/internal/model"
	"filenet/internal/repository"
)

// UserPostgres is a PostgreSQL implementation of repository.UserRepository.
type UserPostgres struct {
	db *sql.DB
}

// NewUserPostgres creates a new UserPostgres repository.
func NewUserPostgres(db *sql.DB) *UserPostgres {
	return &UserPostgres{db: db}
}

var _ repository.UserRepository = (*UserPostgres)(nil)

// FindByToken returns the user owning the given API token.
func (r *UserPostgres) FindByToken(ctx context.Context, token string) (*model.User, error) {
	const q = `SELECT id, username, api_token, created_at FROM users WHERE api_token = $1`
	return scanUser(r.db.QueryRowContext(ctx, q, token))
}

// FindByID returns a user by ID.
func (r *UserPostgres) FindByID(ctx context.Context, id string) (*model.User, error) {
	const q = `SELECT id, username, api_token, created_at FROM users WHERE id = $1`
	return scanUser(r.db.QueryRowContext(ctx, q, id))
}

func scanUser(row *sql.Row) (*model.User, error) {
	var u model.User
	if err := row.Scan(&u.ID, &u.Username, &u.APIToken, &u.CreatedAt); err != nil {
		return nil, err
	}
	return &u, nil
}
