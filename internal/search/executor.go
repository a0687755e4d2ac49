package search

import (
	"context"
	"sort"
)

// BookStore is the collaborator that holds book records. The engine never
// keeps a reference to a store beyond one call.
type BookStore interface {
	// Snapshot opens a consistent read view. Count and Fetch on the same
	// snapshot observe the same records.
	Snapshot(ctx context.Context) (Snapshot, error)
}

// Snapshot is a point-in-time read view of a BookStore.
type Snapshot interface {
	Count(ctx context.Context, pred Predicate) (int, error)
	Fetch(ctx context.Context, pred Predicate, window PageWindow) ([]BookRecord, error)
	Close() error
}

// Execute runs pred against store and returns the requested window of the
// ordered match set plus the total number of matches. Count and window
// are served from a single snapshot. Store failures come back as
// *StoreUnavailableError and are never retried. A malformed window is
// rejected with a *ValidationError before the store is touched.
func Execute(ctx context.Context, pred Predicate, window PageWindow, store BookStore) ([]BookRecord, int, error) {
	if window.Limit < 1 || window.Limit > MaxLimit {
		return nil, 0, invalid("limit", "must be between 1 and %d, got %d", MaxLimit, window.Limit)
	}
	if window.Offset < 0 {
		return nil, 0, invalid("offset", "must not be negative, got %d", window.Offset)
	}
	if store == nil {
		return nil, 0, Unavailable("snapshot", errNoStore)
	}
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}

	snap, err := store.Snapshot(ctx)
	if err != nil {
		return nil, 0, storeErr(ctx, "snapshot", err)
	}
	defer snap.Close()

	total, err := snap.Count(ctx, pred)
	if err != nil {
		return nil, 0, storeErr(ctx, "count", err)
	}

	var matches []BookRecord
	if window.Offset < total {
		matches, err = snap.Fetch(ctx, pred, window)
		if err != nil {
			return nil, 0, storeErr(ctx, "fetch", err)
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}
	if matches == nil {
		matches = []BookRecord{}
	}
	return matches, total, nil
}

// storeErr keeps cancellation distinguishable from an unavailable store.
func storeErr(ctx context.Context, op string, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	return Unavailable(op, err)
}

// SortRecords orders records by case-folded sort key, then by id.
func SortRecords(records []BookRecord) {
	keys := make(map[int64]string, len(records))
	for _, r := range records {
		keys[r.ID] = fold(r.SortKey())
	}
	sort.SliceStable(records, func(i, j int) bool {
		ki, kj := keys[records[i].ID], keys[records[j].ID]
		if ki != kj {
			return ki < kj
		}
		return records[i].ID < records[j].ID
	})
}

// MatchAndSort filters records through pred and returns the matches in
// canonical order. The input slice is not modified.
func MatchAndSort(records []BookRecord, pred Predicate) []BookRecord {
	matches := make([]BookRecord, 0, len(records))
	for _, r := range records {
		if pred.Match(r) {
			matches = append(matches, r)
		}
	}
	SortRecords(matches)
	return matches
}

// Slice returns matches[offset:offset+limit], clamped to the slice.
func Slice(matches []BookRecord, window PageWindow) []BookRecord {
	if window.Offset < 0 {
		window.Offset = 0
	}
	if window.Offset >= len(matches) {
		return []BookRecord{}
	}
	end := len(matches)
	if window.Limit > 0 && window.Offset+window.Limit < end {
		end = window.Offset + window.Limit
	}
	out := make([]BookRecord, end-window.Offset)
	copy(out, matches[window.Offset:end])
	return out
}
