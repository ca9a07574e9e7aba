package port

import (
	"context"
	"io"
)

// ScoreStreamOpener opens one streaming connection to the candidate-scoring
// service. The returned reader delivers the raw event stream; closing it
// severs the connection, which is also how cancellation reaches the service.
type ScoreStreamOpener interface {
	Open(ctx context.Context, jobDescription string, candidateIDs []string) (io.ReadCloser, error)
}
