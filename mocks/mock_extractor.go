package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"talentos/internal/domain"
)

// MockDocumentExtractor is a mock implementation of port.DocumentExtractor.
type MockDocumentExtractor struct {
	mock.Mock
}

func (m *MockDocumentExtractor) ExtractOne(ctx context.Context, doc domain.Document) (*domain.CandidateRecord, error) {
	args := m.Called(ctx, doc)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CandidateRecord), args.Error(1)
}

func (m *MockDocumentExtractor) ExtractGroup(ctx context.Context, docs []domain.Document) ([]domain.CandidateRecord, error) {
	args := m.Called(ctx, docs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.CandidateRecord), args.Error(1)
}

// MockEmbedder is a mock implementation of port.Embedder.
type MockEmbedder struct {
	mock.Mock
}

func (m *MockEmbedder) Embed(ctx context.Context, text string) ([]float64, error) {
	args := m.Called(ctx, text)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]float64), args.Error(1)
}
