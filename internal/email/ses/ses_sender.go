package ses

import (
	"context"
	"fmt"
	"strings"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"

	"talentos/internal/domain"
	"talentos/internal/port"
)

type sesSender struct {
	client      *sesv2.Client
	fromAddress string
	fromName    string
	frontendURL string
}

// NewSESSender creates a new SES-backed EmailSender.
func NewSESSender(region, fromAddress, fromName, frontendURL string) (port.EmailSender, error) {
	cfg, err := awsconfig.LoadDefaultConfig(context.Background(), awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("loading AWS config for SES: %w", err)
	}
	client := sesv2.NewFromConfig(cfg)
	return &sesSender{
		client:      client,
		fromAddress: fromAddress,
		fromName:    fromName,
		frontendURL: frontendURL,
	}, nil
}

func (s *sesSender) SendBatchCompleted(ctx context.Context, toEmail string, batch *domain.ExtractionBatch) error {
	batchURL := fmt.Sprintf("%s/batches/%s", s.frontendURL, batch.ID)

	subject := fmt.Sprintf("Resume batch %s: %d processed, %d failed",
		shortID(batch.ID.String()), batch.SucceededCount, batch.FailedCount)
	htmlBody := buildBatchCompletedHTML(batch, batchURL)
	textBody := buildBatchCompletedText(batch, batchURL)

	from := fmt.Sprintf("%s <%s>", s.fromName, s.fromAddress)

	_, err := s.client.SendEmail(ctx, &sesv2.SendEmailInput{
		FromEmailAddress: &from,
		Destination: &types.Destination{
			ToAddresses: []string{toEmail},
		},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{Data: &subject},
				Body: &types.Body{
					Html: &types.Content{Data: &htmlBody},
					Text: &types.Content{Data: &textBody},
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("SES SendEmail: %w", err)
	}
	return nil
}

func buildBatchCompletedText(batch *domain.ExtractionBatch, batchURL string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Your resume extraction batch has finished.\n\n")
	fmt.Fprintf(&b, "Documents submitted: %d\n", batch.DocumentCount)
	fmt.Fprintf(&b, "Candidates stored:   %d\n", batch.SucceededCount)
	fmt.Fprintf(&b, "Failed:              %d\n", batch.FailedCount)
	if len(batch.FailedNames) > 0 {
		fmt.Fprintf(&b, "\nFailed documents:\n")
		for _, name := range batch.FailedNames {
			fmt.Fprintf(&b, "  - %s\n", name)
		}
	}
	fmt.Fprintf(&b, "\nView the results: %s\n", batchURL)
	return b.String()
}

func buildBatchCompletedHTML(batch *domain.ExtractionBatch, batchURL string) string {
	var failures string
	if len(batch.FailedNames) > 0 {
		var items strings.Builder
		for _, name := range batch.FailedNames {
			fmt.Fprintf(&items, "<li>%s</li>", name)
		}
		failures = fmt.Sprintf("<p>Failed documents:</p><ul>%s</ul>", items.String())
	}
	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<head><meta charset="UTF-8"></head>
<body style="font-family: sans-serif; color: #333;">
  <h2>Resume batch finished</h2>
  <p>Documents submitted: <strong>%d</strong><br>
     Candidates stored: <strong>%d</strong><br>
     Failed: <strong>%d</strong></p>
  %s
  <p><a href="%s">View the results</a></p>
</body>
</html>`, batch.DocumentCount, batch.SucceededCount, batch.FailedCount, failures, batchURL)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
