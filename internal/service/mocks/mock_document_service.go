package mocks

import (
	"context"
	"io"

	"filenet/internal/model"
	"filenet/internal/service"
	"github.com/stretchr/testify/mock"
)

type MockDocumentService struct {
	mock.Mock
}

func (m *MockDocumentService) Upload(ctx context.Context, actorID string, r io.Reader, filename, contentType string, size int64, metadata map[string]string) (*model.Document, error) {
	args := m.Called(ctx, actorID, r, filename, contentType, size, metadata)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Document), args.Error(1)
}

func (m *MockDocumentService) Search(ctx context.Context, actorID, term string) ([]model.DocumentSummary, error) {
	args := m.Called(ctx, actorID, term)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.DocumentSummary), args.Error(1)
}

func (m *MockDocumentService) Retrieve(ctx context.Context, documentID, actorID, versionSelector string) (*service.RetrieveResult, error) {
	args := m.Called(ctx, documentID, actorID, versionSelector)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.RetrieveResult), args.Error(1)
}

func (m *MockDocumentService) RetrieveWithMetadata(ctx context.Context, documentID, actorID, versionSelector string) (*service.DocumentWithMetadata, error) {
	args := m.Called(ctx, documentID, actorID, versionSelector)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.DocumentWithMetadata), args.Error(1)
}

func (m *MockDocumentService) Update(ctx context.Context, documentID, actorID string, req service.UpdateRequest) (*service.UpdateResult, error) {
	args := m.Called(ctx, documentID, actorID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.UpdateResult), args.Error(1)
}

func (m *MockDocumentService) Delete(ctx context.Context, documentID, actorID string) error {
	args := m.Called(ctx, documentID, actorID)
	return args.Error(0)
}
