package search

import (
	"strings"
	"time"
)

// ExplicitParams is the structured parameter set of a search call. Nil
// pointers and empty lists mean "not supplied".
type ExplicitParams struct {
	Text     *string `json:"text,omitempty" form:"text"`
	Operator string  `json:"operator,omitempty" form:"operator"`

	Author         *string  `json:"author,omitempty" form:"author"`
	Authors        []string `json:"authors,omitempty" form:"authors"`
	ExcludeAuthors []string `json:"exclude_authors,omitempty" form:"exclude_authors"`

	Tag         *string  `json:"tag,omitempty" form:"tag"`
	Tags        []string `json:"tags,omitempty" form:"tags"`
	ExcludeTags []string `json:"exclude_tags,omitempty" form:"exclude_tags"`

	Series        *string  `json:"series,omitempty" form:"series"`
	ExcludeSeries []string `json:"exclude_series,omitempty" form:"exclude_series"`

	Publisher    *string  `json:"publisher,omitempty" form:"publisher"`
	Publishers   []string `json:"publishers,omitempty" form:"publishers"`
	HasPublisher *bool    `json:"has_publisher,omitempty" form:"has_publisher"`

	Rating    *int  `json:"rating,omitempty" form:"rating"`
	MinRating *int  `json:"min_rating,omitempty" form:"min_rating"`
	MaxRating *int  `json:"max_rating,omitempty" form:"max_rating"`
	Unrated   *bool `json:"unrated,omitempty" form:"unrated"`

	Comment          *string `json:"comment,omitempty" form:"comment"`
	HasEmptyComments *bool   `json:"has_empty_comments,omitempty" form:"has_empty_comments"`

	PubdateStart *string `json:"pubdate_start,omitempty" form:"pubdate_start"`
	PubdateEnd   *string `json:"pubdate_end,omitempty" form:"pubdate_end"`
	AddedAfter   *string `json:"added_after,omitempty" form:"added_after"`
	AddedBefore  *string `json:"added_before,omitempty" form:"added_before"`

	MinSize *int64 `json:"min_size,omitempty" form:"min_size"`
	MaxSize *int64 `json:"max_size,omitempty" form:"max_size"`

	Formats []string `json:"formats,omitempty" form:"formats"`

	Limit  *int `json:"limit,omitempty" form:"limit"`
	Offset *int `json:"offset,omitempty" form:"offset"`

	// Accepted for forward compatibility; they never affect results.
	Boost     map[string]float64 `json:"boost,omitempty" form:"-"`
	Fuzzy     bool               `json:"fuzzy,omitempty" form:"fuzzy"`
	Highlight bool               `json:"highlight,omitempty" form:"highlight"`
	Suggest   bool               `json:"suggest,omitempty" form:"suggest"`
}

// Composer merges explicit parameters with parser hints and validates the
// result.
type Composer struct {
	defaultLimit int
}

// NewComposer returns a composer using defaultLimit when no limit is given.
// Out-of-range defaults fall back to DefaultLimit.
func NewComposer(defaultLimit int) *Composer {
	if defaultLimit < 1 || defaultLimit > MaxLimit {
		defaultLimit = DefaultLimit
	}
	return &Composer{defaultLimit: defaultLimit}
}

// Compose builds the canonical query. For every facet an explicit value
// wins over a hint; a hint only fills a facet the caller left empty.
// Validation runs in a fixed order (operator, author, tag, publisher,
// comment, rating, size, dates, limit, offset) and stops at the first violation.
func (c *Composer) Compose(e ExplicitParams, hints PartialCriteria) (Query, error) {
	var crit SearchCriteria

	op, ok := ParseOperator(e.Operator)
	if !ok {
		return Query{}, invalid("operator", "must be one of AND, OR, FUZZY, got %q", e.Operator)
	}
	crit.Operator = op
	crit.Terms = normalizeTerms(hints.Terms)
	crit.Phrases = normalizeTerms(hints.Phrases)

	inc, err := scalarOrList("author", e.Author, e.Authors)
	if err != nil {
		return Query{}, err
	}
	crit.Authors = mergeFacet(inc, normalizeList(e.ExcludeAuthors), hints.Authors, hints.ExcludeAuthors)

	inc, err = scalarOrList("tag", e.Tag, e.Tags)
	if err != nil {
		return Query{}, err
	}
	crit.Tags = mergeFacet(inc, normalizeList(e.ExcludeTags), hints.Tags, hints.ExcludeTags)

	inc, _ = scalarOrList("series", e.Series, nil)
	crit.Series = mergeFacet(inc, normalizeList(e.ExcludeSeries), hints.Series, hints.ExcludeSeries)

	inc, err = scalarOrList("publisher", e.Publisher, e.Publishers)
	if err != nil {
		return Query{}, err
	}
	noPublisher := e.HasPublisher != nil && !*e.HasPublisher
	if noPublisher && len(inc) > 0 {
		return Query{}, invalid("publisher", "publisher contradicts has_publisher=false")
	}
	hinted := hints.Publishers
	if noPublisher {
		hinted = nil
	}
	crit.Publishers = mergeFacet(inc, nil, hinted, nil)
	crit.HasPublisher = e.HasPublisher

	if e.Comment != nil {
		crit.Comment = strings.TrimSpace(*e.Comment)
	}
	if crit.Comment != "" && e.HasEmptyComments != nil && *e.HasEmptyComments {
		return Query{}, invalid("comment", "comment contradicts has_empty_comments=true")
	}
	crit.HasEmptyComments = e.HasEmptyComments
	crit.Formats = SetFacet{Include: upperList(normalizeList(e.Formats))}

	if err := composeRating(&crit, e, hints); err != nil {
		return Query{}, err
	}
	if err := composeSize(&crit, e); err != nil {
		return Query{}, err
	}
	if err := composeDates(&crit, e, hints); err != nil {
		return Query{}, err
	}

	window, err := c.window(e)
	if err != nil {
		return Query{}, err
	}

	crit.Hints = RankingHints{
		Boost:     e.Boost,
		Fuzzy:     e.Fuzzy || op == OperatorFuzzy,
		Highlight: e.Highlight,
		Suggest:   e.Suggest,
	}

	return Query{Criteria: crit, Window: window}, nil
}

func composeRating(crit *SearchCriteria, e ExplicitParams, hints PartialCriteria) error {
	for _, f := range []struct {
		name string
		v    *int
	}{{"rating", e.Rating}, {"min_rating", e.MinRating}, {"max_rating", e.MaxRating}} {
		if f.v != nil && (*f.v < 1 || *f.v > 5) {
			return invalid(f.name, "must be between 1 and 5, got %d", *f.v)
		}
	}
	if e.Rating != nil && (e.MinRating != nil || e.MaxRating != nil) {
		return invalid("rating", "rating cannot be combined with min_rating or max_rating")
	}
	unrated := e.Unrated != nil && *e.Unrated
	if unrated && (e.Rating != nil || e.MinRating != nil || e.MaxRating != nil) {
		return invalid("rating", "unrated contradicts a rating bound")
	}
	if e.MinRating != nil && e.MaxRating != nil && *e.MinRating > *e.MaxRating {
		return invalid("rating", "min_rating %d is greater than max_rating %d", *e.MinRating, *e.MaxRating)
	}

	switch {
	case e.Rating != nil:
		crit.Rating = IntRange{Min: intPtr(*e.Rating), Max: intPtr(*e.Rating)}
	case e.MinRating != nil || e.MaxRating != nil:
		crit.Rating = IntRange{Min: e.MinRating, Max: e.MaxRating}
	case e.Unrated != nil:
		crit.Unrated = unrated
	case hints.MinRating != nil && *hints.MinRating == 0:
		crit.Unrated = true
	case hints.MinRating != nil:
		crit.Rating = IntRange{Min: intPtr(*hints.MinRating)}
	}
	return nil
}

func composeSize(crit *SearchCriteria, e ExplicitParams) error {
	if e.MinSize != nil && *e.MinSize < 0 {
		return invalid("min_size", "must not be negative, got %d", *e.MinSize)
	}
	if e.MaxSize != nil && *e.MaxSize < 0 {
		return invalid("max_size", "must not be negative, got %d", *e.MaxSize)
	}
	if e.MinSize != nil && e.MaxSize != nil && *e.MinSize > *e.MaxSize {
		return invalid("size", "min_size %d is greater than max_size %d", *e.MinSize, *e.MaxSize)
	}
	crit.Size = SizeRange{Min: e.MinSize, Max: e.MaxSize}
	return nil
}

func composeDates(crit *SearchCriteria, e ExplicitParams, hints PartialCriteria) error {
	pub, err := parseRange("pubdate_start", e.PubdateStart, "pubdate_end", e.PubdateEnd)
	if err != nil {
		return err
	}
	if !pub.Active() && hints.Year != nil {
		from := time.Date(*hints.Year, time.January, 1, 0, 0, 0, 0, time.UTC)
		to := time.Date(*hints.Year, time.December, 31, 0, 0, 0, 0, time.UTC)
		pub = DateRange{From: &from, To: &to}
	}
	crit.Pubdate = pub

	added, err := parseRange("added_after", e.AddedAfter, "added_before", e.AddedBefore)
	if err != nil {
		return err
	}
	crit.Added = added
	return nil
}

func (c *Composer) window(e ExplicitParams) (PageWindow, error) {
	w := PageWindow{Limit: c.defaultLimit}
	if e.Limit != nil {
		if *e.Limit < 1 || *e.Limit > MaxLimit {
			return PageWindow{}, invalid("limit", "must be between 1 and %d, got %d", MaxLimit, *e.Limit)
		}
		w.Limit = *e.Limit
	}
	if e.Offset != nil {
		if *e.Offset < 0 {
			return PageWindow{}, invalid("offset", "must not be negative, got %d", *e.Offset)
		}
		w.Offset = *e.Offset
	}
	return w, nil
}

// --- helpers ---

var dateLayouts = []string{"2006-01-02", time.RFC3339}

func parseDate(field, raw string) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return &t, nil
		}
	}
	return nil, invalid(field, "expected an ISO date (YYYY-MM-DD), got %q", raw)
}

func parseRange(fromName string, fromRaw *string, toName string, toRaw *string) (DateRange, error) {
	var r DateRange
	var err error
	if fromRaw != nil && strings.TrimSpace(*fromRaw) != "" {
		if r.From, err = parseDate(fromName, *fromRaw); err != nil {
			return DateRange{}, err
		}
	}
	if toRaw != nil && strings.TrimSpace(*toRaw) != "" {
		if r.To, err = parseDate(toName, *toRaw); err != nil {
			return DateRange{}, err
		}
	}
	if r.From != nil && r.To != nil && dayOf(*r.From).After(dayOf(*r.To)) {
		return DateRange{}, invalid(fromName, "%s %s is after %s %s",
			fromName, r.From.Format("2006-01-02"), toName, r.To.Format("2006-01-02"))
	}
	return r, nil
}

// scalarOrList folds the single-value form of a facet into a one-element
// list. Supplying both forms is rejected.
func scalarOrList(facet string, scalar *string, list []string) ([]string, error) {
	values := normalizeList(list)
	if scalar == nil || strings.TrimSpace(*scalar) == "" {
		return values, nil
	}
	if len(values) > 0 {
		return nil, invalid(facet, "%s and %ss are mutually exclusive", facet, facet)
	}
	return []string{strings.TrimSpace(*scalar)}, nil
}

func mergeFacet(include, exclude, hintInclude, hintExclude []string) SetFacet {
	if len(include) == 0 {
		include = normalizeList(hintInclude)
	}
	if len(exclude) == 0 {
		exclude = normalizeList(hintExclude)
	}
	return SetFacet{Include: include, Exclude: exclude}
}

// normalizeList trims values, drops empties and removes case-insensitive
// duplicates while keeping first-seen order.
func normalizeList(values []string) []string {
	var out []string
	seen := make(map[string]bool, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		key := fold(v)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, v)
	}
	return out
}

// NormalizeList applies the list normalisation used for facet values.
func NormalizeList(values []string) []string { return normalizeList(values) }

// normalizeTerms drops empty terms but keeps duplicates and case.
func normalizeTerms(values []string) []string {
	var out []string
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			out = append(out, v)
		}
	}
	return out
}

func upperList(values []string) []string {
	for i, v := range values {
		values[i] = strings.ToUpper(v)
	}
	return values
}

func intPtr(v int) *int { return &v }
