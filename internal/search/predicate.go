package search

import (
	"encoding/json"
	"strings"
	"time"
)

// Predicate is a boolean test over a single BookRecord derived from
// SearchCriteria. The zero value matches every record.
type Predicate struct {
	criteria SearchCriteria
	clauses  []clause
}

type clause struct {
	name string
	test func(v *recordView) bool
}

// Match reports whether r satisfies every active facet.
func (p Predicate) Match(r BookRecord) bool {
	v := &recordView{rec: r}
	for _, c := range p.clauses {
		if !c.test(v) {
			return false
		}
	}
	return true
}

// Criteria returns the criteria the predicate was built from, so stores
// can push parts of it down into their native query language.
func (p Predicate) Criteria() SearchCriteria {
	return p.criteria
}

// Key returns a stable identity for the predicate. Two predicates built
// from equal criteria share a key.
func (p Predicate) Key() string {
	b, err := json.Marshal(p.criteria)
	if err != nil {
		return ""
	}
	return string(b)
}

// Clauses lists the active clause names in evaluation order.
func (p Predicate) Clauses() []string {
	names := make([]string, len(p.clauses))
	for i, c := range p.clauses {
		names[i] = c.name
	}
	return names
}

// Build converts criteria into a Predicate. Facets of different kinds are
// ANDed; an inclusion set matches any of its values; every exclusion set
// removes matches on its own. Build performs no I/O and cannot fail.
func Build(c SearchCriteria) Predicate {
	b := &builder{}

	b.setFacet("authors", c.Authors, func(v *recordView) []string { return v.authors() })
	b.setFacet("tags", c.Tags, func(v *recordView) []string { return v.tags() })
	b.setFacet("series", c.Series, func(v *recordView) []string { return v.series() })
	b.setFacet("publishers", c.Publishers, func(v *recordView) []string { return v.publisher() })
	b.formats(c.Formats)

	if c.HasPublisher != nil {
		want := *c.HasPublisher
		b.add("has_publisher", func(v *recordView) bool {
			return (strings.TrimSpace(v.rec.Publisher) != "") == want
		})
	}
	if c.Comment != "" {
		needle := fold(c.Comment)
		b.add("comment", func(v *recordView) bool {
			return strings.Contains(v.comments(), needle)
		})
	}
	if c.HasEmptyComments != nil {
		want := *c.HasEmptyComments
		b.add("has_empty_comments", func(v *recordView) bool {
			return (strings.TrimSpace(v.rec.Comments) == "") == want
		})
	}

	if c.Unrated {
		b.add("unrated", func(v *recordView) bool { return v.rec.Rating == 0 })
	}
	if c.Rating.Active() {
		lo, hi := c.Rating.Min, c.Rating.Max
		b.add("rating", func(v *recordView) bool {
			r := v.rec.Rating
			return (lo == nil || r >= *lo) && (hi == nil || r <= *hi)
		})
	}
	if c.Size.Active() {
		lo, hi := c.Size.Min, c.Size.Max
		b.add("size", func(v *recordView) bool {
			s := v.rec.SizeBytes
			return (lo == nil || s >= *lo) && (hi == nil || s <= *hi)
		})
	}
	if c.Pubdate.Active() {
		r := c.Pubdate
		b.add("pubdate", func(v *recordView) bool { return r.contains(v.rec.Pubdate) })
	}
	if c.Added.Active() {
		r := c.Added
		b.add("added", func(v *recordView) bool { return r.contains(v.rec.AddedAt) })
	}

	b.text(c.Terms, c.Phrases, c.Operator.Effective())

	return Predicate{criteria: c, clauses: b.clauses}
}

type builder struct {
	clauses []clause
}

func (b *builder) add(name string, test func(v *recordView) bool) {
	b.clauses = append(b.clauses, clause{name: name, test: test})
}

// setFacet adds the inclusion clause and, separately, the exclusion clause
// of a text facet. values returns the record's folded values.
func (b *builder) setFacet(name string, f SetFacet, values func(v *recordView) []string) {
	if len(f.Include) > 0 {
		needles := foldAll(f.Include)
		b.add(name+":include", func(v *recordView) bool {
			return anyContains(values(v), needles)
		})
	}
	if len(f.Exclude) > 0 {
		needles := foldAll(f.Exclude)
		b.add(name+":exclude", func(v *recordView) bool {
			return !anyContains(values(v), needles)
		})
	}
}

// formats compares codes exactly; codes are stored upper-case.
func (b *builder) formats(f SetFacet) {
	if len(f.Include) > 0 {
		want := upperSet(f.Include)
		b.add("formats:include", func(v *recordView) bool {
			return hasAny(v.rec.Formats, want)
		})
	}
	if len(f.Exclude) > 0 {
		deny := upperSet(f.Exclude)
		b.add("formats:exclude", func(v *recordView) bool {
			return !hasAny(v.rec.Formats, deny)
		})
	}
}

func (b *builder) text(terms, phrases []string, op Operator) {
	if len(terms) > 0 {
		needles := foldAll(terms)
		b.add("text:"+strings.ToLower(string(op)), func(v *recordView) bool {
			fields := v.textFields()
			if op == OperatorAnd {
				for _, n := range needles {
					if !anyContains(fields, []string{n}) {
						return false
					}
				}
				return true
			}
			return anyContains(fields, needles)
		})
	}
	if len(phrases) > 0 {
		needles := foldAll(phrases)
		b.add("phrases", func(v *recordView) bool {
			fields := v.textFields()
			for _, n := range needles {
				if !anyContains(fields, []string{n}) {
					return false
				}
			}
			return true
		})
	}
}

func anyContains(values, needles []string) bool {
	for _, val := range values {
		for _, n := range needles {
			if strings.Contains(val, n) {
				return true
			}
		}
	}
	return false
}

func upperSet(values []string) map[string]bool {
	set := make(map[string]bool, len(values))
	for _, v := range values {
		set[strings.ToUpper(strings.TrimSpace(v))] = true
	}
	return set
}

func hasAny(values []string, set map[string]bool) bool {
	for _, v := range values {
		if set[strings.ToUpper(v)] {
			return true
		}
	}
	return false
}

func (r DateRange) contains(t *time.Time) bool {
	if t == nil {
		return false
	}
	day := dayOf(*t)
	if r.From != nil && day.Before(dayOf(*r.From)) {
		return false
	}
	if r.To != nil && day.After(dayOf(*r.To)) {
		return false
	}
	return true
}

func dayOf(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// recordView folds record fields lazily, at most once per Match call.
type recordView struct {
	rec BookRecord

	fAuthors, fTags, fSeries, fPublisher, fText []string
	fComments                                   *string
}

func (v *recordView) authors() []string {
	if v.fAuthors == nil {
		v.fAuthors = foldAll(v.rec.Authors)
	}
	return v.fAuthors
}

func (v *recordView) tags() []string {
	if v.fTags == nil {
		v.fTags = foldAll(v.rec.Tags)
	}
	return v.fTags
}

func (v *recordView) series() []string {
	if v.fSeries == nil {
		v.fSeries = []string{}
		if name := v.rec.SeriesName(); name != "" {
			v.fSeries = append(v.fSeries, fold(name))
		}
	}
	return v.fSeries
}

func (v *recordView) publisher() []string {
	if v.fPublisher == nil {
		v.fPublisher = []string{}
		if v.rec.Publisher != "" {
			v.fPublisher = append(v.fPublisher, fold(v.rec.Publisher))
		}
	}
	return v.fPublisher
}

func (v *recordView) comments() string {
	if v.fComments == nil {
		c := fold(v.rec.Comments)
		v.fComments = &c
	}
	return *v.fComments
}

// textFields are the fields free text is matched against: title, authors,
// tags, series and comments.
func (v *recordView) textFields() []string {
	if v.fText == nil {
		fields := []string{fold(v.rec.Title)}
		fields = append(fields, v.authors()...)
		fields = append(fields, v.tags()...)
		fields = append(fields, v.series()...)
		fields = append(fields, v.comments())
		v.fText = fields
	}
	return v.fText
}
