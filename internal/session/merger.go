package session

import (
	"sort"

	"testviewer/internal/domain"
)

// Merger folds a batch into the live record set and returns the new canonically ordered set
type Merger interface {
	Merge(live, batch []domain.TestRecord) []domain.TestRecord
}

// ResortMerger concatenates and re-sorts the whole set on every batch.
// Result sets are hundreds to low thousands of cases, so the full sort is cheap enough.
type ResortMerger struct{}

// Merge never mutates live or batch
func (ResortMerger) Merge(live, batch []domain.TestRecord) []domain.TestRecord {
	merged := make([]domain.TestRecord, 0, len(live)+len(batch))
	merged = append(merged, live...)
	merged = append(merged, batch...)
	SortRecords(merged)
	return merged
}

// SortRecords orders records failed, skipped, passed, then by id
func SortRecords(records []domain.TestRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		ri, rj := records[i].Status.Rank(), records[j].Status.Rank()
		if ri != rj {
			return ri < rj
		}
		return records[i].ID < records[j].ID
	})
}
