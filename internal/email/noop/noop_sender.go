package noop

import (
	"context"
	"log"

	"talentos/internal/domain"
	"talentos/internal/port"
)

type noopSender struct{}

// NewNoopSender creates an EmailSender that only logs. Used in local
// development where no SES credentials exist.
func NewNoopSender() port.EmailSender {
	return &noopSender{}
}

func (s *noopSender) SendBatchCompleted(_ context.Context, toEmail string, batch *domain.ExtractionBatch) error {
	log.Printf("noopSender.SendBatchCompleted: to=%s batch=%s stored=%d failed=%d",
		toEmail, batch.ID, batch.SucceededCount, batch.FailedCount)
	return nil
}
