package port

import (
	"context"

	"talentos/internal/domain"
)

// EmailSender defines the contract for batch notification emails.
type EmailSender interface {
	SendBatchCompleted(ctx context.Context, toEmail string, batch *domain.ExtractionBatch) error
}
