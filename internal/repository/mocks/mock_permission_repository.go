package mocks

import (
	"context"

	"filenet/internal/model"
	"github.com/stretchr/testify/mock"
)

type MockPermissionRepository struct {
	mock.Mock
}

func (m *MockPermissionRepository) Grant(ctx context.Context, documentID, userID string, level model.Level, grantedBy string) error {
	args := m.Called(ctx, documentID, userID, level, grantedBy)
	return args.Error(0)
}

func (m *MockPermissionRepository) Revoke(ctx context.Context, documentID, userID string, level model.Level) error {
	args := m.Called(ctx, documentID, userID, level)
	return args.Error(0)
}

func (m *MockPermissionRepository) Levels(ctx context.Context, documentID, userID string) ([]model.Level, error) {
	args := m.Called(ctx, documentID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Level), args.Error(1)
}
