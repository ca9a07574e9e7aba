package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"talentos/internal/domain"
)

// MockEmailSender is a mock implementation of port.EmailSender.
type MockEmailSender struct {
	mock.Mock
}

func (m *MockEmailSender) SendBatchCompleted(ctx context.Context, toEmail string, batch *domain.ExtractionBatch) error {
	args := m.Called(ctx, toEmail, batch)
	return args.Error(0)
}
