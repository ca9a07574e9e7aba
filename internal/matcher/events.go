package matcher

import (
	"encoding/json"
	"fmt"

	"talentos/internal/domain"
)

// EventType names the kinds of frames a scoring stream can carry.
type EventType string

const (
	EventPartial  EventType = "partial"
	EventComplete EventType = "complete"
	EventError    EventType = "error"
	EventLog      EventType = "log"
)

// StreamEvent is one decoded frame from the scoring stream. Exactly the
// fields for its Type are populated.
type StreamEvent struct {
	Type EventType

	// partial / complete
	Matches []domain.CandidateMatch

	// partial
	ProcessedCount int
	TotalCount     int

	// error
	Message string

	// log
	Level   string
	LogText string
}

type partialPayload struct {
	Matches        []domain.CandidateMatch `json:"matches"`
	ProcessedCount int                     `json:"processed_count"`
	TotalCount     int                     `json:"total_count"`
}

type completePayload struct {
	Matches []domain.CandidateMatch `json:"matches"`
}

type errorPayload struct {
	Message string `json:"message"`
}

type logPayload struct {
	Level   string `json:"level"`
	Message string `json:"message"`
}

// decodeEvent turns one SSE frame (event name plus data payload) into a
// StreamEvent. Unknown event names are an error so the consumer can
// decide whether to skip or abort.
func decodeEvent(name string, data []byte) (*StreamEvent, error) {
	switch EventType(name) {
	case EventPartial:
		var p partialPayload
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, fmt.Errorf("decoding partial event: %w", err)
		}
		return &StreamEvent{
			Type:           EventPartial,
			Matches:        p.Matches,
			ProcessedCount: p.ProcessedCount,
			TotalCount:     p.TotalCount,
		}, nil
	case EventComplete:
		var p completePayload
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, fmt.Errorf("decoding complete event: %w", err)
		}
		return &StreamEvent{Type: EventComplete, Matches: p.Matches}, nil
	case EventError:
		var p errorPayload
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, fmt.Errorf("decoding error event: %w", err)
		}
		return &StreamEvent{Type: EventError, Message: p.Message}, nil
	case EventLog, "":
		// Untyped data frames carry {level, message} log lines.
		var p logPayload
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, fmt.Errorf("decoding log event: %w", err)
		}
		return &StreamEvent{Type: EventLog, Level: p.Level, LogText: p.Message}, nil
	default:
		return nil, fmt.Errorf("unknown event type %q", name)
	}
}
