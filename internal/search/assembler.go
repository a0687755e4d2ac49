package search

import (
	"strings"
	"unicode/utf8"
)

const commentPreviewRunes = 200

// BookProjection is the subset of a BookRecord exposed in results.
type BookProjection struct {
	ID          int64    `json:"id"`
	Title       string   `json:"title"`
	Authors     []string `json:"authors"`
	Series      string   `json:"series,omitempty"`
	SeriesIndex *float64 `json:"series_index,omitempty"`
	Rating      int      `json:"rating"`
	Tags        []string `json:"tags"`
	Year        int      `json:"year,omitempty"`
	Pubdate     string   `json:"pubdate,omitempty"`
	Formats     []string `json:"formats"`
	Comments    string   `json:"comments,omitempty"`
}

// ResultDocument is one page of search results.
type ResultDocument struct {
	Items      []BookProjection `json:"items"`
	Total      int              `json:"total"`
	Page       int              `json:"page"`
	PerPage    int              `json:"per_page"`
	TotalPages int              `json:"total_pages"`
	Table      string           `json:"table,omitempty"`
}

// AssembleOptions controls optional parts of the document.
type AssembleOptions struct {
	Table       bool `json:"table"`
	Description bool `json:"include_description"`
}

// Assemble turns an executed page into a ResultDocument. The page math
// depends only on total and window.
func Assemble(matches []BookRecord, total int, window PageWindow, opts AssembleOptions) ResultDocument {
	limit := window.Limit
	if limit < 1 {
		limit = DefaultLimit
	}

	doc := ResultDocument{
		Items:      make([]BookProjection, 0, len(matches)),
		Total:      total,
		Page:       window.Offset/limit + 1,
		PerPage:    limit,
		TotalPages: 1,
	}
	if total > 0 {
		doc.TotalPages = (total + limit - 1) / limit
	}

	for _, r := range matches {
		doc.Items = append(doc.Items, project(r, opts.Description))
	}
	if opts.Table {
		doc.Table = RenderTable(doc.Items, opts.Description)
	}
	return doc
}

func project(r BookRecord, withComments bool) BookProjection {
	p := BookProjection{
		ID:      r.ID,
		Title:   r.Title,
		Authors: nonNil(r.Authors),
		Rating:  r.Rating,
		Tags:    nonNil(r.Tags),
		Year:    r.Year(),
		Formats: nonNil(r.Formats),
	}
	if r.Series != nil {
		p.Series = r.Series.Name
		idx := r.Series.Index
		p.SeriesIndex = &idx
	}
	if r.Pubdate != nil {
		p.Pubdate = r.Pubdate.UTC().Format("2006-01-02")
	}
	if withComments {
		p.Comments = truncateRunes(strings.TrimSpace(r.Comments), commentPreviewRunes)
	}
	return p
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	out := make([]string, len(values))
	copy(out, values)
	return out
}

// truncateRunes shortens s to at most n runes, marking the cut with an
// ellipsis.
func truncateRunes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	if n == 1 {
		return "…"
	}
	runes := []rune(s)
	return strings.TrimRight(string(runes[:n-1]), " ") + "…"
}
