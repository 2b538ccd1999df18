package mocks

import (
	"context"
	"io"

	"filenet/internal/model"
	"github.com/stretchr/testify/mock"
)

type MockVersionService struct {
	mock.Mock
}

func (m *MockVersionService) CreateVersion(ctx context.Context, documentID, actorID string, r io.Reader, contentType string, size int64) (*model.Version, error) {
	args := m.Called(ctx, documentID, actorID, r, contentType, size)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Version), args.Error(1)
}

func (m *MockVersionService) Resolve(ctx context.Context, documentID, actorID, selector string) (*model.Version, error) {
	args := m.Called(ctx, documentID, actorID, selector)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Version), args.Error(1)
}

func (m *MockVersionService) ListVersions(ctx context.Context, documentID, actorID string) ([]model.Version, error) {
	args := m.Called(ctx, documentID, actorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Version), args.Error(1)
}
