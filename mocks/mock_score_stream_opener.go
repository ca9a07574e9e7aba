package mocks

import (
	"context"
	"io"

	"github.com/stretchr/testify/mock"
)

// MockScoreStreamOpener is a mock implementation of port.ScoreStreamOpener.
type MockScoreStreamOpener struct {
	mock.Mock
}

func (m *MockScoreStreamOpener) Open(ctx context.Context, jobDescription string, candidateIDs []string) (io.ReadCloser, error) {
	args := m.Called(ctx, jobDescription, candidateIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(io.ReadCloser), args.Error(1)
}
