// Package calibredb reads a Calibre library's metadata.db as a BookStore.
// The database is opened read-only; Calibre itself stays the only writer.
package calibredb

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/mrlokans/bookfinder/internal/memstore"
	"github.com/mrlokans/bookfinder/internal/search"
)

// MetadataFile is the name of Calibre's catalog database inside a library.
const MetadataFile = "metadata.db"

// listSep separates values folded together by group_concat. Unit separator
// never appears in Calibre names.
const listSep = "\x1f"

const recordsQuery = `
SELECT b.id, b.title, COALESCE(b.sort, ''), b.series_index,
	CAST(b.pubdate AS TEXT), CAST(b.timestamp AS TEXT),
	(SELECT group_concat(a.name, char(31)) FROM books_authors_link l JOIN authors a ON a.id = l.author WHERE l.book = b.id),
	(SELECT group_concat(t.name, char(31)) FROM books_tags_link l JOIN tags t ON t.id = l.tag WHERE l.book = b.id),
	(SELECT s.name FROM books_series_link l JOIN series s ON s.id = l.series WHERE l.book = b.id),
	(SELECT r.rating FROM books_ratings_link l JOIN ratings r ON r.id = l.rating WHERE l.book = b.id),
	(SELECT p.name FROM books_publishers_link l JOIN publishers p ON p.id = l.publisher WHERE l.book = b.id),
	(SELECT group_concat(d.format, char(31)) FROM data d WHERE d.book = b.id),
	(SELECT MAX(d.uncompressed_size) FROM data d WHERE d.book = b.id),
	(SELECT c.text FROM comments c WHERE c.book = b.id)
FROM books b
ORDER BY b.id`

type Store struct {
	db   *sql.DB
	path string
}

// Open opens the metadata.db of the library at path. path may name the
// library directory or the database file itself.
func Open(path string) (*Store, error) {
	dbPath := path
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		dbPath = filepath.Join(path, MetadataFile)
	}
	if _, err := os.Stat(dbPath); err != nil {
		return nil, fmt.Errorf("calibre database not found: %w", err)
	}

	db, err := sql.Open("sqlite3", "file:"+dbPath+"?mode=ro")
	if err != nil {
		return nil, fmt.Errorf("failed to open calibre database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to open calibre database: %w", err)
	}
	return &Store{db: db, path: dbPath}, nil
}

// New wraps an already open connection.
func New(db *sql.DB, path string) *Store {
	return &Store{db: db, path: path}
}

func (s *Store) Path() string { return s.path }

func (s *Store) Close() error { return s.db.Close() }

// Snapshot loads every record with a single statement, which SQLite runs
// against one consistent read view.
func (s *Store) Snapshot(ctx context.Context) (search.Snapshot, error) {
	records, err := s.Records(ctx)
	if err != nil {
		return nil, err
	}
	return memstore.New(records...).Snapshot(ctx)
}

// Records returns all books of the library ordered by id.
func (s *Store) Records(ctx context.Context) ([]search.BookRecord, error) {
	rows, err := s.db.QueryContext(ctx, recordsQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to query calibre books: %w", err)
	}
	defer rows.Close()

	var records []search.BookRecord
	for rows.Next() {
		var (
			rec                                     search.BookRecord
			seriesIndex                             sql.NullFloat64
			pubdate, added                          sql.NullString
			authors, tags, series, publisher, forms sql.NullString
			rating, size                            sql.NullInt64
			comments                                sql.NullString
		)
		if err := rows.Scan(&rec.ID, &rec.Title, &rec.Sort, &seriesIndex, &pubdate, &added,
			&authors, &tags, &series, &rating, &publisher, &forms, &size, &comments); err != nil {
			return nil, fmt.Errorf("failed to scan calibre book: %w", err)
		}

		rec.Authors = splitList(authors.String)
		rec.Tags = splitList(tags.String)
		if series.String != "" {
			rec.Series = &search.SeriesRef{Name: series.String, Index: seriesIndex.Float64}
		}
		rec.Rating = halveRating(rating.Int64)
		rec.Publisher = publisher.String
		rec.Pubdate = parsePubdate(pubdate.String)
		rec.AddedAt = parseTimestamp(added.String)
		rec.SizeBytes = size.Int64
		rec.Formats = upper(splitList(forms.String))
		rec.Comments = comments.String

		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read calibre books: %w", err)
	}
	return records, nil
}

// Names reads the distinct authors, tags and series straight from
// Calibre's lookup tables.
func (s *Store) Names(ctx context.Context) (search.NameIndex, error) {
	var idx search.NameIndex
	for _, q := range []struct {
		table string
		dst   *[]string
	}{
		{"authors", &idx.Authors},
		{"tags", &idx.Tags},
		{"series", &idx.Series},
	} {
		names, err := s.column(ctx, "SELECT name FROM "+q.table+" ORDER BY name")
		if err != nil {
			return search.NameIndex{}, fmt.Errorf("failed to load %s: %w", q.table, err)
		}
		*q.dst = names
	}
	return idx, nil
}

func (s *Store) column(ctx context.Context, query string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []string{}
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// halveRating maps Calibre's 0-10 half-star scale onto whole stars,
// rounding half stars up.
func halveRating(r int64) int {
	if r <= 0 {
		return 0
	}
	if r > 10 {
		r = 10
	}
	return int((r + 1) / 2)
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, listSep)
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func upper(values []string) []string {
	for i, v := range values {
		values[i] = strings.ToUpper(v)
	}
	return values
}

var timestampLayouts = []string{
	"2006-01-02 15:04:05.999999-07:00",
	"2006-01-02 15:04:05-07:00",
	"2006-01-02T15:04:05.999999-07:00",
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func parseTimestamp(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			t = t.UTC()
			return &t
		}
	}
	return nil
}

// parsePubdate treats Calibre's placeholder date (year 101 and earlier) as
// an unknown publication date.
func parsePubdate(s string) *time.Time {
	t := parseTimestamp(s)
	if t == nil || t.Year() <= 101 {
		return nil
	}
	return t
}
