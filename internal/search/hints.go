package search

// HintKind identifies the facet a parser hint targets.
type HintKind string

const (
	HintAuthor    HintKind = "author"
	HintTag       HintKind = "tag"
	HintSeries    HintKind = "series"
	HintPublisher HintKind = "publisher"
	HintYear      HintKind = "year"
	HintRating    HintKind = "rating"
)

// Hint is a facet value extracted from free text. The concrete types are
// AuthorHint, TagHint, SeriesHint, PublisherHint, YearHint and RatingHint.
type Hint interface {
	Kind() HintKind
	apply(p *PartialCriteria)
}

type AuthorHint struct {
	Name    string
	Negated bool
}

type TagHint struct {
	Name    string
	Negated bool
}

type SeriesHint struct {
	Name    string
	Negated bool
}

type PublisherHint struct {
	Name string
}

type YearHint struct {
	Year int
}

// RatingHint asks for books rated at least Min stars.
type RatingHint struct {
	Min int
}

func (AuthorHint) Kind() HintKind    { return HintAuthor }
func (TagHint) Kind() HintKind       { return HintTag }
func (SeriesHint) Kind() HintKind    { return HintSeries }
func (PublisherHint) Kind() HintKind { return HintPublisher }
func (YearHint) Kind() HintKind      { return HintYear }
func (RatingHint) Kind() HintKind    { return HintRating }

func (h AuthorHint) apply(p *PartialCriteria) {
	if h.Negated {
		p.ExcludeAuthors = append(p.ExcludeAuthors, h.Name)
		return
	}
	p.Authors = append(p.Authors, h.Name)
}

func (h TagHint) apply(p *PartialCriteria) {
	if h.Negated {
		p.ExcludeTags = append(p.ExcludeTags, h.Name)
		return
	}
	p.Tags = append(p.Tags, h.Name)
}

func (h SeriesHint) apply(p *PartialCriteria) {
	if h.Negated {
		p.ExcludeSeries = append(p.ExcludeSeries, h.Name)
		return
	}
	p.Series = append(p.Series, h.Name)
}

func (h PublisherHint) apply(p *PartialCriteria) {
	p.Publishers = append(p.Publishers, h.Name)
}

// Later year hints win; a query names one publication year.
func (h YearHint) apply(p *PartialCriteria) {
	y := h.Year
	p.Year = &y
}

func (h RatingHint) apply(p *PartialCriteria) {
	m := h.Min
	p.MinRating = &m
}

// PartialCriteria holds what free text contributes to a query: its terms
// and phrases plus the facet values suggested by hints. It is merged with
// explicit parameters by the Composer.
type PartialCriteria struct {
	Terms   []string
	Phrases []string

	Authors        []string
	ExcludeAuthors []string
	Tags           []string
	ExcludeTags    []string
	Series         []string
	ExcludeSeries  []string
	Publishers     []string
	Year           *int
	MinRating      *int
}

// FoldHints applies hints in order.
func FoldHints(hints []Hint) PartialCriteria {
	var p PartialCriteria
	for _, h := range hints {
		h.apply(&p)
	}
	return p
}

// HasHints reports whether any facet hint was extracted.
func (p PartialCriteria) HasHints() bool {
	return len(p.Authors) > 0 || len(p.ExcludeAuthors) > 0 ||
		len(p.Tags) > 0 || len(p.ExcludeTags) > 0 ||
		len(p.Series) > 0 || len(p.ExcludeSeries) > 0 ||
		len(p.Publishers) > 0 || p.Year != nil || p.MinRating != nil
}
