package importers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"
)

// JSONBook is one entry of a JSON book list.
type JSONBook struct {
	ID          string       `json:"id"`
	Title       string       `json:"title"`
	Sort        string       `json:"sort"`
	Author      string       `json:"author"`
	Authors     []string     `json:"authors"`
	Tags        []string     `json:"tags"`
	Series      string       `json:"series"`
	SeriesIndex float64      `json:"series_index"`
	Rating      int          `json:"rating"`
	Publisher   string       `json:"publisher"`
	Pubdate     string       `json:"pubdate"`
	AddedAt     string       `json:"added_at"`
	Formats     []JSONFormat `json:"formats"`
	Comments    string       `json:"comments"`
	ISBN        string       `json:"isbn"`
}

type JSONFormat struct {
	Format string `json:"format"`
	Size   int64  `json:"size"`
	Path   string `json:"path"`
}

// JSONConverter converts a JSON book list. The document is either a bare
// array of books or an object with a "books" array.
type JSONConverter struct {
	Books    []JSONBook
	FilePath string
}

func NewJSONConverter(books []JSONBook) *JSONConverter {
	return &JSONConverter{Books: books}
}

// ParseJSON reads a book list and validates its dates up front so a bad
// file fails before anything is written.
func ParseJSON(r io.Reader) (*JSONConverter, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read book list: %w", err)
	}
	data = bytes.TrimSpace(data)

	var books []JSONBook
	if len(data) > 0 && data[0] == '{' {
		var doc struct {
			Books []JSONBook `json:"books"`
		}
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("invalid book list: %w", err)
		}
		books = doc.Books
	} else if err := json.Unmarshal(data, &books); err != nil {
		return nil, fmt.Errorf("invalid book list: %w", err)
	}

	for i, b := range books {
		if _, err := parseDate(b.Pubdate); err != nil {
			return nil, fmt.Errorf("book %d (%s): pubdate: %w", i, b.Title, err)
		}
		if _, err := parseDate(b.AddedAt); err != nil {
			return nil, fmt.Errorf("book %d (%s): added_at: %w", i, b.Title, err)
		}
	}
	return &JSONConverter{Books: books}, nil
}

func (c *JSONConverter) Convert() ([]RawBook, Source) {
	out := make([]RawBook, 0, len(c.Books))
	for _, b := range c.Books {
		authors := b.Authors
		if len(authors) == 0 && b.Author != "" {
			authors = []string{b.Author}
		}
		raw := RawBook{
			Title:       b.Title,
			Sort:        b.Sort,
			Authors:     authors,
			Tags:        b.Tags,
			Series:      b.Series,
			SeriesIndex: b.SeriesIndex,
			Rating:      b.Rating,
			Publisher:   b.Publisher,
			Comments:    b.Comments,
			ISBN:        b.ISBN,
			ExternalID:  b.ID,
		}
		raw.Pubdate, _ = parseDate(b.Pubdate)
		raw.AddedAt, _ = parseDate(b.AddedAt)
		for _, f := range b.Formats {
			raw.Formats = append(raw.Formats, RawFormat{Format: f.Format, SizeBytes: f.Size, Path: f.Path})
		}
		out = append(out, raw)
	}
	return out, Source{Name: "json", FilePath: c.FilePath}
}

func parseDate(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	for _, layout := range []string{"2006-01-02", time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			t = t.UTC()
			return &t, nil
		}
	}
	return nil, fmt.Errorf("%q is not YYYY-MM-DD or RFC 3339", s)
}
