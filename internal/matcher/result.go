package matcher

import (
	"sort"

	"talentos/internal/domain"
)

// MergedResultSet accumulates partial match results keyed by candidate.
// When the same candidate arrives more than once, the higher score wins,
// so merging is idempotent and scores never regress. Not safe for
// concurrent use; the consumer owns it from a single goroutine.
type MergedResultSet struct {
	byCandidate map[string]domain.CandidateMatch
}

func NewMergedResultSet() *MergedResultSet {
	return &MergedResultSet{byCandidate: make(map[string]domain.CandidateMatch)}
}

// Merge folds a batch of matches into the set.
func (s *MergedResultSet) Merge(matches []domain.CandidateMatch) {
	for _, m := range matches {
		existing, ok := s.byCandidate[m.CandidateID]
		if ok && existing.Score >= m.Score {
			continue
		}
		s.byCandidate[m.CandidateID] = m
	}
}

// Replace discards everything accumulated so far in favor of the final
// authoritative list.
func (s *MergedResultSet) Replace(matches []domain.CandidateMatch) {
	s.byCandidate = make(map[string]domain.CandidateMatch, len(matches))
	for _, m := range matches {
		s.byCandidate[m.CandidateID] = m
	}
}

// Len reports how many distinct candidates the set holds.
func (s *MergedResultSet) Len() int {
	return len(s.byCandidate)
}

// Sorted returns the matches ordered by descending score, ties broken by
// candidate ID for stable output.
func (s *MergedResultSet) Sorted() []domain.CandidateMatch {
	out := make([]domain.CandidateMatch, 0, len(s.byCandidate))
	for _, m := range s.byCandidate {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].CandidateID < out[j].CandidateID
	})
	return out
}
