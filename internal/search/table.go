package search

import (
	"strconv"
	"strings"
	"unicode/utf8"
)

type tableColumn struct {
	title string
	width int
	value func(p BookProjection) string
}

var baseColumns = []tableColumn{
	{"ID", 6, func(p BookProjection) string { return strconv.FormatInt(p.ID, 10) }},
	{"Title", 36, func(p BookProjection) string { return p.Title }},
	{"Author(s)", 24, func(p BookProjection) string { return strings.Join(p.Authors, ", ") }},
	{"Year", 4, func(p BookProjection) string {
		if p.Year == 0 {
			return ""
		}
		return strconv.Itoa(p.Year)
	}},
	{"Rating", 5, func(p BookProjection) string { return stars(p.Rating) }},
	{"Tags", 24, func(p BookProjection) string { return strings.Join(p.Tags, ", ") }},
}

var descriptionColumn = tableColumn{"Description", 48, func(p BookProjection) string {
	return strings.Join(strings.Fields(p.Comments), " ")
}}

// RenderTable renders items as a fixed-width text table. Widths are
// measured in runes; overlong cells are truncated with an ellipsis.
func RenderTable(items []BookProjection, withDescription bool) string {
	cols := baseColumns
	if withDescription {
		cols = append(append([]tableColumn{}, baseColumns...), descriptionColumn)
	}

	var b strings.Builder
	header := make([]string, len(cols))
	rule := make([]string, len(cols))
	for i, c := range cols {
		header[i] = pad(c.title, c.width)
		rule[i] = strings.Repeat("-", c.width)
	}
	writeRow(&b, header)
	writeRow(&b, rule)

	row := make([]string, len(cols))
	for _, it := range items {
		for i, c := range cols {
			row[i] = pad(truncateRunes(c.value(it), c.width), c.width)
		}
		writeRow(&b, row)
	}
	return b.String()
}

func writeRow(b *strings.Builder, cells []string) {
	b.WriteString(strings.TrimRight(strings.Join(cells, "  "), " "))
	b.WriteByte('\n')
}

func pad(s string, width int) string {
	if n := utf8.RuneCountInString(s); n < width {
		return s + strings.Repeat(" ", width-n)
	}
	return s
}

// stars renders a 0-5 rating as filled and empty star glyphs.
func stars(rating int) string {
	if rating < 0 {
		rating = 0
	}
	if rating > 5 {
		rating = 5
	}
	return strings.Repeat("★", rating) + strings.Repeat("☆", 5-rating)
}
