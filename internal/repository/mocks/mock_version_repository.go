package mocks

import (
	"context"

	"filenet/internal/model"
	"github.com/stretchr/testify/mock"
)

type MockVersionRepository struct {
	mock.Mock
}

func (m *MockVersionRepository) Create(ctx context.Context, v *model.Version) (*model.Version, error) {
	args := m.Called(ctx, v)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Version), args.Error(1)
}

func (m *MockVersionRepository) FindByID(ctx context.Context, documentID, versionID string) (*model.Version, error) {
	args := m.Called(ctx, documentID, versionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Version), args.Error(1)
}

func (m *MockVersionRepository) ListByDocument(ctx context.Context, documentID string) ([]model.Version, error) {
	args := m.Called(ctx, documentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Version), args.Error(1)
}
