package gemini

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"talentos/internal/config"
	"talentos/internal/domain"
	"talentos/internal/extractor"
)

const apiBaseURL = "https://generativelanguage.googleapis.com/v1beta/models"

// Client implements port.DocumentExtractor and port.Embedder using Google's
// Gemini API. Each Client is bound to a single API key; the pipeline builds
// one Client per credential slot.
type Client struct {
	apiKey        string
	model         string
	embedModel    string
	endpoint      string
	embedEndpoint string
	client        *http.Client
	embedClient   *http.Client
}

// NewClient creates a Gemini-backed extractor/embedder for one API key.
func NewClient(cfg *config.ExtractorConfig, embedCfg *config.EmbeddingConfig, apiKey string) *Client {
	return newClient(cfg, embedCfg, apiKey, "", "")
}

// NewClientWithEndpoints creates a client pointing at custom API endpoints (for testing).
func NewClientWithEndpoints(cfg *config.ExtractorConfig, embedCfg *config.EmbeddingConfig, apiKey, endpoint, embedEndpoint string) *Client {
	return newClient(cfg, embedCfg, apiKey, endpoint, embedEndpoint)
}

func newClient(cfg *config.ExtractorConfig, embedCfg *config.EmbeddingConfig, apiKey, endpoint, embedEndpoint string) *Client {
	model := cfg.DefaultModel
	if model == "" {
		model = "gemini-2.0-flash"
	}
	embedModel := embedCfg.Model
	if embedModel == "" {
		embedModel = "gemini-embedding-001"
	}
	timeout := time.Duration(cfg.TimeoutSecs) * time.Second
	if timeout == 0 {
		timeout = 120 * time.Second
	}
	embedTimeout := time.Duration(embedCfg.TimeoutSecs) * time.Second
	if embedTimeout == 0 {
		embedTimeout = 30 * time.Second
	}
	if endpoint == "" {
		endpoint = fmt.Sprintf("%s/%s:generateContent", apiBaseURL, model)
	}
	if embedEndpoint == "" {
		embedEndpoint = fmt.Sprintf("%s/%s:embedContent", apiBaseURL, embedModel)
	}
	return &Client{
		apiKey:        apiKey,
		model:         model,
		embedModel:    embedModel,
		endpoint:      endpoint,
		embedEndpoint: embedEndpoint,
		client:        &http.Client{Timeout: timeout},
		embedClient:   &http.Client{Timeout: embedTimeout},
	}
}

// ExtractOne converts a single resume into a candidate record.
func (c *Client) ExtractOne(ctx context.Context, doc domain.Document) (*domain.CandidateRecord, error) {
	parts, err := buildDocumentParts([]domain.Document{doc})
	if err != nil {
		return nil, err
	}
	parts = append(parts, map[string]interface{}{"text": extractor.BuildResumePrompt()})

	text, err := c.generate(ctx, parts)
	if err != nil {
		return nil, err
	}

	var parsed struct {
		Candidate json.RawMessage `json:"candidate"`
	}
	if err := json.Unmarshal([]byte(text), &parsed); err != nil {
		return nil, &extractor.MalformedOutputError{Provider: "gemini", Err: err, Raw: truncate(text, 500)}
	}
	if len(parsed.Candidate) == 0 {
		return nil, &extractor.MalformedOutputError{
			Provider: "gemini",
			Err:      fmt.Errorf("missing candidate key"),
			Raw:      truncate(text, 500),
		}
	}

	rec, err := decodeCandidate(parsed.Candidate, doc.Name)
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// ExtractGroup converts a group of resumes in one call. The response is
// expected to carry one candidate per document in input order; a shorter
// array is returned as-is for the caller's partial-failure bookkeeping.
func (c *Client) ExtractGroup(ctx context.Context, docs []domain.Document) ([]domain.CandidateRecord, error) {
	parts, err := buildDocumentParts(docs)
	if err != nil {
		return nil, err
	}
	parts = append(parts, map[string]interface{}{"text": extractor.BuildResumeGroupPrompt(len(docs))})

	text, err := c.generate(ctx, parts)
	if err != nil {
		return nil, err
	}

	var parsed struct {
		Candidates []json.RawMessage `json:"candidates"`
	}
	if err := json.Unmarshal([]byte(text), &parsed); err != nil {
		return nil, &extractor.MalformedOutputError{Provider: "gemini", Err: err, Raw: truncate(text, 500)}
	}

	records := make([]domain.CandidateRecord, 0, len(parsed.Candidates))
	for i, raw := range parsed.Candidates {
		sourceName := ""
		if i < len(docs) {
			sourceName = docs[i].Name
		}
		rec, err := decodeCandidate(raw, sourceName)
		if err != nil {
			return nil, err
		}
		records = append(records, *rec)
	}
	return records, nil
}

// Embed requests one embedding vector for the given text.
func (c *Client) Embed(ctx context.Context, text string) ([]float64, error) {
	reqBody := map[string]interface{}{
		"content": map[string]interface{}{
			"parts": []map[string]interface{}{
				{"text": text},
			},
		},
	}
	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshaling embed request: %w", err)
	}

	respBody, err := c.post(ctx, c.embedClient, c.embedEndpoint, bodyBytes)
	if err != nil {
		return nil, err
	}

	var resp struct {
		Embedding struct {
			Values []float64 `json:"values"`
		} `json:"embedding"`
	}
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, &extractor.MalformedOutputError{Provider: "gemini", Err: err}
	}
	if len(resp.Embedding.Values) == 0 {
		return nil, &extractor.MalformedOutputError{
			Provider: "gemini",
			Err:      fmt.Errorf("response missing embedding values"),
		}
	}
	return resp.Embedding.Values, nil
}

// generate sends one generateContent call and returns the first candidate's text.
func (c *Client) generate(ctx context.Context, parts []map[string]interface{}) (string, error) {
	reqBody := map[string]interface{}{
		"contents": []map[string]interface{}{
			{
				"role":  "user",
				"parts": parts,
			},
		},
		"generationConfig": map[string]interface{}{
			"responseMimeType": "application/json",
			"maxOutputTokens":  16384,
		},
	}
	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	respBody, err := c.post(ctx, c.client, c.endpoint, bodyBytes)
	if err != nil {
		return "", err
	}

	var resp geminiResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return "", &extractor.MalformedOutputError{Provider: "gemini", Err: err}
	}
	if len(resp.Candidates) == 0 || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", &extractor.MalformedOutputError{
			Provider: "gemini",
			Err:      fmt.Errorf("empty response from API"),
		}
	}
	return resp.Candidates[0].Content.Parts[0].Text, nil
}

func (c *Client) post(ctx context.Context, hc *http.Client, endpoint string, body []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling gemini API: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		retryAfter := extractor.ParseRetryAfterHeader(resp.Header.Get("Retry-After"))
		return nil, extractor.NewRateLimitError("gemini",
			fmt.Errorf("status 429: %s", truncate(string(respBody), 200)), retryAfter)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &extractor.UpstreamError{
			Provider:   "gemini",
			StatusCode: resp.StatusCode,
			Message:    truncate(string(respBody), 200),
		}
	}
	return respBody, nil
}

// buildDocumentParts converts documents into inline_data request parts.
func buildDocumentParts(docs []domain.Document) ([]map[string]interface{}, error) {
	parts := make([]map[string]interface{}, 0, len(docs)+1)
	for _, doc := range docs {
		mimeType, err := toGeminiMimeType(doc.ContentType)
		if err != nil {
			return nil, err
		}
		parts = append(parts, map[string]interface{}{
			"inline_data": map[string]interface{}{
				"mime_type": mimeType,
				"data":      base64.StdEncoding.EncodeToString(doc.Data),
			},
		})
	}
	return parts, nil
}

func toGeminiMimeType(contentType string) (string, error) {
	switch contentType {
	case "application/pdf":
		return "application/pdf", nil
	case "image/jpeg":
		return "image/jpeg", nil
	case "image/png":
		return "image/png", nil
	case "text/plain":
		return "text/plain", nil
	default:
		return "", fmt.Errorf("unsupported content type for extraction: %s", contentType)
	}
}

// geminiResponse models the Gemini API response.
type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
		FinishReason string `json:"finishReason"`
	} `json:"candidates"`
}

// candidatePayload is the wire shape of one extracted candidate.
type candidatePayload struct {
	Name       string   `json:"name"`
	Email      *string  `json:"email"`
	Phone      *string  `json:"phone"`
	Title      *string  `json:"title"`
	Sector     *string  `json:"sector"`
	Experience *string  `json:"experience"`
	Education  *string  `json:"education"`
	Summary    *string  `json:"summary"`
	Skills     []string `json:"skills"`
}

// decodeCandidate schema-checks and converts one raw candidate object.
func decodeCandidate(raw json.RawMessage, sourceFile string) (*domain.CandidateRecord, error) {
	if err := extractor.ValidateCandidateJSON(raw); err != nil {
		return nil, &extractor.MalformedOutputError{Provider: "gemini", Err: err, Raw: truncate(string(raw), 500)}
	}
	var p candidatePayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, &extractor.MalformedOutputError{Provider: "gemini", Err: err, Raw: truncate(string(raw), 500)}
	}
	return &domain.CandidateRecord{
		Name:       p.Name,
		Email:      p.Email,
		Phone:      p.Phone,
		Title:      p.Title,
		Sector:     p.Sector,
		Experience: p.Experience,
		Education:  p.Education,
		Summary:    p.Summary,
		Skills:     p.Skills,
		SourceFile: sourceFile,
	}, nil
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
