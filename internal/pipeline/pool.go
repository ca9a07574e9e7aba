package pipeline

import (
	"errors"

	"talentos/internal/port"
)

// Slot is one credential slot in the pool: a fixed index plus the extractor
// and embedder clients bound to that credential.
type Slot struct {
	Index     int
	Extractor port.DocumentExtractor
	Embedder  port.Embedder
}

// CredentialPool is a fixed, ordered set of interchangeable upstream
// credentials. The pool is sized at startup and never resized mid-batch.
type CredentialPool struct {
	slots []Slot
}

// NewCredentialPool builds a pool from parallel extractor/embedder lists,
// one entry per credential.
func NewCredentialPool(extractors []port.DocumentExtractor, embedders []port.Embedder) (*CredentialPool, error) {
	if len(extractors) == 0 {
		return nil, errors.New("credential pool requires at least one credential")
	}
	if len(embedders) != len(extractors) {
		return nil, errors.New("credential pool requires one embedder per extractor")
	}
	slots := make([]Slot, len(extractors))
	for i := range extractors {
		slots[i] = Slot{Index: i, Extractor: extractors[i], Embedder: embedders[i]}
	}
	return &CredentialPool{slots: slots}, nil
}

// Size returns the number of credential slots.
func (p *CredentialPool) Size() int {
	return len(p.slots)
}

// Assign deterministically maps an item index to a slot: itemIndex mod K.
// A unit of work keeps its slot for its entire attempt sequence.
func (p *CredentialPool) Assign(itemIndex int) Slot {
	return p.slots[itemIndex%len(p.slots)]
}
