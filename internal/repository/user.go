package repository

import (
	"context"

	"filenet/internal/model"
)

// UserRepository defines lookup of authenticated principals.
type UserRepository interface {
	// FindByToken returns the user owning the given API token.
	FindByToken(ctx context.Context, token string) (*model.User, error)

	// FindByID returns a user by ID.
	FindByID(ctx context.Context, id string) (*model.User, error)
}
