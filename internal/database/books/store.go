package books

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/mrlokans/bookfinder/internal/entities"
	"github.com/mrlokans/bookfinder/internal/search"
)

// Store exposes the catalog as a search.BookStore. Each snapshot is a
// single SQLite read transaction.
type Store struct {
	db *gorm.DB
}

// NewStore creates a catalog-backed book store.
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Snapshot(ctx context.Context) (search.Snapshot, error) {
	tx := s.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, fmt.Errorf("failed to begin catalog snapshot: %w", tx.Error)
	}
	return &snapshot{tx: tx, memo: make(map[string][]search.BookRecord)}, nil
}

// Names lists every author, tag and series name in the catalog.
func (s *Store) Names(ctx context.Context) (search.NameIndex, error) {
	var idx search.NameIndex
	db := s.db.WithContext(ctx)
	if err := db.Model(&entities.Author{}).Order("name ASC").Pluck("name", &idx.Authors).Error; err != nil {
		return search.NameIndex{}, fmt.Errorf("failed to list authors: %w", err)
	}
	if err := db.Model(&entities.Tag{}).Order("name ASC").Pluck("name", &idx.Tags).Error; err != nil {
		return search.NameIndex{}, fmt.Errorf("failed to list tags: %w", err)
	}
	if err := db.Model(&entities.Series{}).Order("name ASC").Pluck("name", &idx.Series).Error; err != nil {
		return search.NameIndex{}, fmt.Errorf("failed to list series: %w", err)
	}
	return idx, nil
}

type snapshot struct {
	tx *gorm.DB

	mu   sync.Mutex
	memo map[string][]search.BookRecord
}

func (s *snapshot) Count(ctx context.Context, pred search.Predicate) (int, error) {
	matches, err := s.matches(ctx, pred)
	if err != nil {
		return 0, err
	}
	return len(matches), nil
}

func (s *snapshot) Fetch(ctx context.Context, pred search.Predicate, window search.PageWindow) ([]search.BookRecord, error) {
	matches, err := s.matches(ctx, pred)
	if err != nil {
		return nil, err
	}
	return search.Slice(matches, window), nil
}

// Close ends the read transaction. Nothing is ever written through it.
func (s *snapshot) Close() error {
	return s.tx.Rollback().Error
}

// matches loads the SQL candidate set once per predicate and applies the
// exact predicate in memory.
func (s *snapshot) matches(ctx context.Context, pred search.Predicate) ([]search.BookRecord, error) {
	key := pred.Key()

	s.mu.Lock()
	defer s.mu.Unlock()
	if m, ok := s.memo[key]; ok {
		return m, nil
	}

	var rows []entities.Book
	q := pushDown(s.tx.WithContext(ctx).Model(&entities.Book{}), pred.Criteria())
	if err := preloadBook(q).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to load candidate books: %w", err)
	}

	records := make([]search.BookRecord, len(rows))
	for i, b := range rows {
		records[i] = ToRecord(b)
	}
	m := search.MatchAndSort(records, pred)
	s.memo[key] = m
	return m, nil
}

// dateSlack widens date bounds so the SQL filter stays a superset of the
// day-granular predicate regardless of stored time-of-day or offset.
const dateSlack = 48 * time.Hour

// pushDown narrows the candidate rows with the numeric, date and format
// facets. Every condition here is implied by the in-memory predicate.
func pushDown(q *gorm.DB, c search.SearchCriteria) *gorm.DB {
	if c.Unrated {
		q = q.Where("books.rating = 0")
	}
	if c.Rating.Min != nil {
		q = q.Where("books.rating >= ?", *c.Rating.Min)
	}
	if c.Rating.Max != nil {
		q = q.Where("books.rating <= ?", *c.Rating.Max)
	}
	if c.Size.Min != nil {
		q = q.Where("books.size_bytes >= ?", *c.Size.Min)
	}
	if c.Size.Max != nil {
		q = q.Where("books.size_bytes <= ?", *c.Size.Max)
	}
	if c.HasPublisher != nil && *c.HasPublisher {
		q = q.Where("books.publisher IS NOT NULL AND books.publisher <> ''")
	}
	if c.Pubdate.Active() {
		q = dateBounds(q, "books.pubdate", c.Pubdate)
	}
	if c.Added.Active() {
		q = dateBounds(q, "books.added_at", c.Added)
	}
	if len(c.Formats.Include) > 0 {
		q = q.Where("EXISTS (SELECT 1 FROM book_formats bf WHERE bf.book_id = books.id AND UPPER(bf.format) IN ?)",
			upperAll(c.Formats.Include))
	}
	if len(c.Formats.Exclude) > 0 {
		q = q.Where("NOT EXISTS (SELECT 1 FROM book_formats bf WHERE bf.book_id = books.id AND UPPER(bf.format) IN ?)",
			upperAll(c.Formats.Exclude))
	}
	return q
}

func dateBounds(q *gorm.DB, column string, r search.DateRange) *gorm.DB {
	q = q.Where(column + " IS NOT NULL")
	if r.From != nil {
		q = q.Where(column+" >= ?", r.From.UTC().Add(-dateSlack))
	}
	if r.To != nil {
		q = q.Where(column+" <= ?", r.To.UTC().Add(dateSlack))
	}
	return q
}

func upperAll(values []string) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = strings.ToUpper(strings.TrimSpace(v))
	}
	return out
}
