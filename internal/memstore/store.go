// Package memstore is an in-memory BookStore. Writers replace the record
// slice wholesale, so a snapshot is just the slice that was current when it
// was opened.
package memstore

import (
	"context"
	"sort"
	"sync"

	"github.com/mrlokans/bookfinder/internal/search"
)

type Store struct {
	mu      sync.RWMutex
	records []search.BookRecord
}

func New(records ...search.BookRecord) *Store {
	s := &Store{}
	s.Replace(records)
	return s
}

// Replace swaps the whole record set.
func (s *Store) Replace(records []search.BookRecord) {
	next := make([]search.BookRecord, len(records))
	copy(next, records)

	s.mu.Lock()
	s.records = next
	s.mu.Unlock()
}

// Put inserts or replaces a record by ID.
func (s *Store) Put(rec search.BookRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := make([]search.BookRecord, 0, len(s.records)+1)
	replaced := false
	for _, r := range s.records {
		if r.ID == rec.ID {
			next = append(next, rec)
			replaced = true
			continue
		}
		next = append(next, r)
	}
	if !replaced {
		next = append(next, rec)
	}
	s.records = next
}

// Len returns the number of records currently held.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

func (s *Store) Snapshot(ctx context.Context) (search.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	records := s.records
	s.mu.RUnlock()
	return &snapshot{records: records, memo: make(map[string][]search.BookRecord)}, nil
}

// Names collects the distinct authors, tags and series of the current
// record set, sorted.
func (s *Store) Names(ctx context.Context) (search.NameIndex, error) {
	if err := ctx.Err(); err != nil {
		return search.NameIndex{}, err
	}
	s.mu.RLock()
	records := s.records
	s.mu.RUnlock()

	authors, tags, series := newNameSet(), newNameSet(), newNameSet()
	for _, r := range records {
		authors.add(r.Authors...)
		tags.add(r.Tags...)
		series.add(r.SeriesName())
	}
	return search.NameIndex{
		Authors: authors.sorted(),
		Tags:    tags.sorted(),
		Series:  series.sorted(),
	}, nil
}

type snapshot struct {
	records []search.BookRecord
	mu      sync.Mutex
	memo    map[string][]search.BookRecord
}

// matches evaluates pred once per snapshot so Count and Fetch agree.
func (s *snapshot) matches(pred search.Predicate) []search.BookRecord {
	key := pred.Key()
	s.mu.Lock()
	defer s.mu.Unlock()
	if m, ok := s.memo[key]; ok {
		return m
	}
	m := search.MatchAndSort(s.records, pred)
	s.memo[key] = m
	return m
}

func (s *snapshot) Count(ctx context.Context, pred search.Predicate) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	return len(s.matches(pred)), nil
}

func (s *snapshot) Fetch(ctx context.Context, pred search.Predicate, window search.PageWindow) ([]search.BookRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return search.Slice(s.matches(pred), window), nil
}

func (s *snapshot) Close() error { return nil }

type nameSet map[string]struct{}

func newNameSet() nameSet { return nameSet{} }

func (n nameSet) add(values ...string) {
	for _, v := range values {
		if v != "" {
			n[v] = struct{}{}
		}
	}
}

func (n nameSet) sorted() []string {
	out := make([]string, 0, len(n))
	for v := range n {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
