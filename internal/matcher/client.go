package matcher

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// StreamClient opens candidate-scoring streams against the matcher
// service over HTTP. The response body is a server-sent-event stream.
type StreamClient struct {
	endpoint string
	apiKey   string
	client   *http.Client
}

func NewStreamClient(endpoint, apiKey string, timeout time.Duration) *StreamClient {
	return &StreamClient{
		endpoint: endpoint,
		apiKey:   apiKey,
		client:   &http.Client{Timeout: timeout},
	}
}

type scoreRequest struct {
	JobDescription string   `json:"job_description"`
	CandidateIDs   []string `json:"candidate_ids"`
}

// Open submits a scoring request and returns the event stream. The caller
// owns the returned body and must close it.
func (c *StreamClient) Open(ctx context.Context, jobDescription string, candidateIDs []string) (io.ReadCloser, error) {
	body, err := json.Marshal(scoreRequest{JobDescription: jobDescription, CandidateIDs: candidateIDs})
	if err != nil {
		return nil, fmt.Errorf("matcher.Open: marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("matcher.Open: creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("matcher.Open: sending request: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("matcher.Open: matcher returned status %d: %s", resp.StatusCode, string(snippet))
	}
	return resp.Body, nil
}
