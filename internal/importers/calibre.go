package importers

import (
	"context"
	"fmt"

	"github.com/mrlokans/bookfinder/internal/search"
)

// RecordSource lists every record of a library.
type RecordSource interface {
	Records(ctx context.Context) ([]search.BookRecord, error)
}

// CalibreConverter mirrors a Calibre library into the catalog.
type CalibreConverter struct {
	records []search.BookRecord
	path    string
}

// NewCalibreConverter reads the library up front; Convert itself cannot fail.
func NewCalibreConverter(ctx context.Context, src RecordSource, path string) (*CalibreConverter, error) {
	records, err := src.Records(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read calibre library: %w", err)
	}
	return &CalibreConverter{records: records, path: path}, nil
}

func (c *CalibreConverter) Convert() ([]RawBook, Source) {
	out := make([]RawBook, 0, len(c.records))
	for _, r := range c.records {
		raw := RawBook{
			Title:      r.Title,
			Sort:       r.Sort,
			Authors:    r.Authors,
			Tags:       r.Tags,
			Rating:     r.Rating,
			Publisher:  r.Publisher,
			Pubdate:    r.Pubdate,
			AddedAt:    r.AddedAt,
			SizeBytes:  r.SizeBytes,
			Comments:   r.Comments,
			ExternalID: fmt.Sprintf("calibre:%d", r.ID),
		}
		if r.Series != nil {
			raw.Series = r.Series.Name
			raw.SeriesIndex = r.Series.Index
		}
		for _, f := range r.Formats {
			raw.Formats = append(raw.Formats, RawFormat{Format: f})
		}
		out = append(out, raw)
	}
	return out, Source{Name: "calibre", FilePath: c.path}
}
