package search

import (
	"strings"
	"time"
)

// Operator controls how free-text terms are combined.
type Operator string

const (
	OperatorAnd   Operator = "AND"
	OperatorOr    Operator = "OR"
	OperatorFuzzy Operator = "FUZZY" // accepted, evaluated as OR
)

// ParseOperator normalises an operator name. Empty input yields OR.
func ParseOperator(s string) (Operator, bool) {
	switch Operator(strings.ToUpper(strings.TrimSpace(s))) {
	case "", OperatorOr:
		return OperatorOr, true
	case OperatorAnd:
		return OperatorAnd, true
	case OperatorFuzzy:
		return OperatorFuzzy, true
	}
	return "", false
}

// Effective returns the operator actually used for matching.
func (o Operator) Effective() Operator {
	if o == OperatorAnd {
		return OperatorAnd
	}
	return OperatorOr
}

// SetFacet is the inclusion/exclusion pair of a list-valued facet.
// An empty Include means "no inclusion constraint".
type SetFacet struct {
	Include []string `json:"include,omitempty"`
	Exclude []string `json:"exclude,omitempty"`
}

// Active reports whether the facet constrains anything.
func (f SetFacet) Active() bool {
	return len(f.Include) > 0 || len(f.Exclude) > 0
}

// IntRange is an inclusive integer range; nil bounds are open.
type IntRange struct {
	Min *int `json:"min,omitempty"`
	Max *int `json:"max,omitempty"`
}

func (r IntRange) Active() bool { return r.Min != nil || r.Max != nil }

// SizeRange is an inclusive byte-size range; nil bounds are open.
type SizeRange struct {
	Min *int64 `json:"min,omitempty"`
	Max *int64 `json:"max,omitempty"`
}

func (r SizeRange) Active() bool { return r.Min != nil || r.Max != nil }

// DateRange is an inclusive day-granular range; nil bounds are open.
type DateRange struct {
	From *time.Time `json:"from,omitempty"`
	To   *time.Time `json:"to,omitempty"`
}

func (r DateRange) Active() bool { return r.From != nil || r.To != nil }

// RankingHints carries relevance options that are accepted for forward
// compatibility and never change which records match or their order.
type RankingHints struct {
	Boost     map[string]float64 `json:"boost,omitempty"`
	Fuzzy     bool               `json:"fuzzy,omitempty"`
	Highlight bool               `json:"highlight,omitempty"`
	Suggest   bool               `json:"suggest,omitempty"`
}

// SearchCriteria is the canonical, validated query.
type SearchCriteria struct {
	Authors    SetFacet `json:"authors"`
	Tags       SetFacet `json:"tags"`
	Series     SetFacet `json:"series"`
	Publishers SetFacet `json:"publishers"`
	Formats    SetFacet `json:"formats"`

	HasPublisher     *bool  `json:"has_publisher,omitempty"`
	Comment          string `json:"comment,omitempty"`
	HasEmptyComments *bool  `json:"has_empty_comments,omitempty"`
	Unrated          bool   `json:"unrated,omitempty"`

	Rating  IntRange  `json:"rating"`
	Size    SizeRange `json:"size"`
	Pubdate DateRange `json:"pubdate"`
	Added   DateRange `json:"added"`

	Terms    []string `json:"terms,omitempty"`
	Phrases  []string `json:"phrases,omitempty"`
	Operator Operator `json:"operator"`

	Hints RankingHints `json:"hints"`
}

// PageWindow selects one page of an ordered match set.
type PageWindow struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

const (
	DefaultLimit = 50
	MaxLimit     = 1000
)

// Query is the composer output: what to match and which slice to return.
type Query struct {
	Criteria SearchCriteria `json:"criteria"`
	Window   PageWindow     `json:"window"`
}
