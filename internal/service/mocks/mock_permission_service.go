package mocks

import (
	"context"

	"filenet/internal/model"
	"github.com/stretchr/testify/mock"
)

type MockPermissionService struct {
	mock.Mock
}

func (m *MockPermissionService) Grant(ctx context.Context, documentID, actorID, subjectUserID string, level model.Level) error {
	args := m.Called(ctx, documentID, actorID, subjectUserID, level)
	return args.Error(0)
}

func (m *MockPermissionService) Revoke(ctx context.Context, documentID, actorID, subjectUserID string, level model.Level) error {
	args := m.Called(ctx, documentID, actorID, subjectUserID, level)
	return args.Error(0)
}

func (m *MockPermissionService) Check(ctx context.Context, documentID, userID string, required model.Level) (bool, error) {
	args := m.Called(ctx, documentID, userID, required)
	return args.Bool(0), args.Error(1)
}
