package pipeline

import "talentos/internal/domain"

// GroupDocuments chunks docs into consecutive groups of at most size.
// The last group may be shorter.
func GroupDocuments(docs []domain.Document, size int) [][]domain.Document {
	if size <= 0 {
		size = 1
	}
	groups := make([][]domain.Document, 0, (len(docs)+size-1)/size)
	for start := 0; start < len(docs); start += size {
		end := start + size
		if end > len(docs) {
			end = len(docs)
		}
		groups = append(groups, docs[start:end])
	}
	return groups
}

// ShardDocuments divides docs into at most k contiguous slices of
// ceil(n/k) documents each. Slice i is bound to credential slot i; empty
// trailing slices are omitted. Every document lands in exactly one slice
// and slice sizes sum to len(docs).
func ShardDocuments(docs []domain.Document, k int) [][]domain.Document {
	if k <= 0 {
		k = 1
	}
	sliceSize := (len(docs) + k - 1) / k
	return GroupDocuments(docs, sliceSize)
}
