package pipeline

import (
	"fmt"
	"strings"

	"talentos/internal/domain"
)

// placeholderNames are extractor outputs that mean "the model could not
// find a name". Records carrying one are rejected rather than persisted.
var placeholderNames = map[string]struct{}{
	"unknown":       {},
	"n/a":           {},
	"not found":     {},
	"not specified": {},
	"na":            {},
	"none":          {},
}

// RejectionError marks a record that failed post-extraction validation.
// Rejections are permanent: retrying the same payload cannot fix them.
type RejectionError struct {
	SourceFile string
	Reason     string
}

func (e *RejectionError) Error() string {
	return fmt.Sprintf("record from %q rejected: %s", e.SourceFile, e.Reason)
}

// ValidateRecord enforces the minimum bar for a candidate record to enter
// persistence: a real, non-placeholder name.
func ValidateRecord(rec *domain.CandidateRecord) error {
	name := strings.TrimSpace(rec.Name)
	if name == "" {
		return &RejectionError{SourceFile: rec.SourceFile, Reason: "empty name"}
	}
	if _, ok := placeholderNames[strings.ToLower(name)]; ok {
		return &RejectionError{SourceFile: rec.SourceFile, Reason: fmt.Sprintf("placeholder name %q", rec.Name)}
	}
	return nil
}
