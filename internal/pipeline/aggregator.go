package pipeline

import (
	"sort"

	"talentos/internal/domain"
)

// itemResult is the per-document outcome a worker reports back to the
// aggregator. Exactly one of record/err is set.
type itemResult struct {
	index  int
	name   string
	record *domain.CandidateRecord
	err    error
}

// aggregate drains results until the channel closes and folds them into
// ordered success and failure lists. It is the single consumer of the
// channel, so no locking is needed.
func aggregate(results <-chan itemResult) ([]domain.CandidateRecord, []string) {
	var succeeded []itemResult
	var failed []itemResult
	for res := range results {
		if res.err != nil {
			failed = append(failed, res)
			continue
		}
		succeeded = append(succeeded, res)
	}

	sort.Slice(succeeded, func(i, j int) bool { return succeeded[i].index < succeeded[j].index })
	sort.Slice(failed, func(i, j int) bool { return failed[i].index < failed[j].index })

	records := make([]domain.CandidateRecord, 0, len(succeeded))
	for _, res := range succeeded {
		records = append(records, *res.record)
	}
	names := make([]string, 0, len(failed))
	for _, res := range failed {
		names = append(names, res.name)
	}
	return records, names
}
