package books

import (
	"strings"
	"time"

	"github.com/mrlokans/bookfinder/internal/entities"
	"github.com/mrlokans/bookfinder/internal/search"
)

// ToRecord projects a fully preloaded catalog book into a search record.
func ToRecord(b entities.Book) search.BookRecord {
	rec := search.BookRecord{
		ID:        int64(b.ID),
		Title:     b.Title,
		Sort:      b.Sort,
		Authors:   b.AuthorNames(),
		Tags:      make([]string, 0, len(b.Tags)),
		Rating:    b.Rating,
		Publisher: b.Publisher,
		SizeBytes: b.SizeBytes,
		Formats:   make([]string, 0, len(b.Formats)),
		Comments:  b.Comments,
	}
	for _, t := range b.Tags {
		rec.Tags = append(rec.Tags, t.Name)
	}
	for _, f := range b.Formats {
		rec.Formats = append(rec.Formats, strings.ToUpper(f.Format))
	}
	if b.Series != nil {
		rec.Series = &search.SeriesRef{Name: b.Series.Name, Index: b.SeriesIndex}
	}
	if b.Pubdate != nil {
		rec.Pubdate = utc(*b.Pubdate)
	}
	if !b.AddedAt.IsZero() {
		rec.AddedAt = utc(b.AddedAt)
	}
	return rec
}

func utc(t time.Time) *time.Time {
	u := t.UTC()
	return &u
}
