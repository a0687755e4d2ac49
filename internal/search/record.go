// Package search resolves free-text input and structured filters into a
// single deterministic query over a book-metadata store.
//
// # Data Flow
//
//	text ──► Parser ──► PartialCriteria ─┐
//	                                     ├─► Composer ──► Query{Criteria, Window}
//	ExplicitParams ──────────────────────┘
//
//	Criteria ──► Build ──► Predicate ──► Execute(store) ──► Assemble ──► ResultDocument
//
// Parser, Composer and Build are pure and safe for concurrent use. The only
// blocking step is Execute, which opens exactly one Snapshot of the store it
// is handed and serves both the total count and the page window from it.
//
// # Implementing a Store
//
// Stores implement BookStore. Stores that cannot evaluate a Predicate
// natively can load candidate records and use MatchAndSort plus Slice:
//
//	matches := search.MatchAndSort(records, pred)
//	page := search.Slice(matches, window)
package search

import "time"

// SeriesRef names the series a book belongs to and its position in it.
type SeriesRef struct {
	Name  string  `json:"name"`
	Index float64 `json:"index"`
}

// BookRecord is the read-only projection of a book owned by a store.
type BookRecord struct {
	ID        int64      `json:"id"`
	Title     string     `json:"title"`
	Sort      string     `json:"sort,omitempty"`
	Authors   []string   `json:"authors"`
	Tags      []string   `json:"tags"`
	Series    *SeriesRef `json:"series,omitempty"`
	Rating    int        `json:"rating"` // 0-5, 0 = unrated
	Publisher string     `json:"publisher,omitempty"`
	Pubdate   *time.Time `json:"pubdate,omitempty"`
	AddedAt   *time.Time `json:"added_at,omitempty"`
	SizeBytes int64      `json:"size_bytes"`
	Formats   []string   `json:"formats"`
	Comments  string     `json:"comments,omitempty"`
}

// SortKey returns the key used for ordering. Records without an explicit
// sort value fall back to their title.
func (r BookRecord) SortKey() string {
	if r.Sort != "" {
		return r.Sort
	}
	return r.Title
}

// SeriesName returns the series name or an empty string.
func (r BookRecord) SeriesName() string {
	if r.Series == nil {
		return ""
	}
	return r.Series.Name
}

// Year returns the publication year, or 0 when the pubdate is unknown.
func (r BookRecord) Year() int {
	if r.Pubdate == nil {
		return 0
	}
	return r.Pubdate.Year()
}
