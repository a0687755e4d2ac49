package search

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// NameIndex lists known names the parser recognises in free text without
// an explicit marker. It is treated as immutable once handed to a Parser.
type NameIndex struct {
	Authors []string `json:"authors"`
	Tags    []string `json:"tags"`
	Series  []string `json:"series"`
}

// Size returns the total number of names.
func (n NameIndex) Size() int {
	return len(n.Authors) + len(n.Tags) + len(n.Series)
}

// minIndexedNameLen keeps very short names ("Al", "SF") from swallowing
// ordinary words.
const minIndexedNameLen = 3

// ParseResult is the outcome of parsing one free-text input.
type ParseResult struct {
	Terms   []string
	Phrases []string
	Hints   []Hint
	Partial PartialCriteria
}

type indexedName struct {
	kind  HintKind
	name  string
	words []string
}

// Parser extracts terms, phrases and facet hints from free text.
// A Parser is immutable and safe for concurrent use.
type Parser struct {
	names      []indexedName
	extractors []extractor
}

// NewParser creates a parser that also recognises the names in index.
func NewParser(index NameIndex) *Parser {
	p := &Parser{names: buildNameTable(index)}
	p.extractors = []extractor{
		extractMarkers,
		extractPhrases,
		extractRatings,
		extractYears,
		p.extractIndexedNames,
	}
	return p
}

// Parse never fails: unrecognised input becomes plain terms.
func (p *Parser) Parse(text string) ParseResult {
	s := newScan(text)
	var res ParseResult
	for _, ex := range p.extractors {
		ex(s, &res)
	}
	for _, tok := range s.freeTokens() {
		term := strings.Trim(tok.text, `"`)
		if term != "" {
			res.Terms = append(res.Terms, term)
		}
	}
	res.Partial = FoldHints(res.Hints)
	res.Partial.Terms = res.Terms
	res.Partial.Phrases = res.Phrases
	return res
}

// --- scanning state ---

type token struct {
	text       string
	start, end int
}

type scan struct {
	text string
	used []bool
}

func newScan(text string) *scan {
	return &scan{text: text, used: make([]bool, len(text))}
}

func (s *scan) free(start, end int) bool {
	for i := start; i < end; i++ {
		if s.used[i] {
			return false
		}
	}
	return true
}

func (s *scan) consume(start, end int) {
	for i := start; i < end; i++ {
		s.used[i] = true
	}
}

// freeTokens splits the unconsumed text on whitespace, keeping byte offsets
// into the original text.
func (s *scan) freeTokens() []token {
	var out []token
	start := -1
	for i, r := range s.text {
		boundary := unicode.IsSpace(r) || s.used[i]
		if boundary {
			if start >= 0 {
				out = append(out, token{text: s.text[start:i], start: start, end: i})
				start = -1
			}
			continue
		}
		if start < 0 {
			start = i
		}
	}
	if start >= 0 {
		out = append(out, token{text: s.text[start:], start: start, end: len(s.text)})
	}
	return out
}

// onlySpaceBetween reports whether the original text between two offsets
// holds nothing but whitespace.
func (s *scan) onlySpaceBetween(from, to int) bool {
	if from > to {
		return false
	}
	return strings.TrimSpace(s.text[from:to]) == ""
}

type extractor func(s *scan, res *ParseResult)

// --- extractors, applied in order ---

var (
	markerPattern = regexp.MustCompile(`(?i)(?:^|\s)(-?)(author|tag|series|publisher):(?:"([^"]*)"|(\S+))`)
	hashtagRe     = regexp.MustCompile(`(?:^|\s)(-?)#([\p{L}\p{N}_\-]+)`)
	phrasePattern = regexp.MustCompile(`"([^"]*)"`)
	ratingToken   = regexp.MustCompile(`(?i)^rating:([0-5])$`)
	yearMarker    = regexp.MustCompile(`(?i)^year:(\d{4})$`)
	bareYear      = regexp.MustCompile(`^\d{4}$`)
)

// quoteSpans returns the byte ranges of complete "..." pairs, quotes included.
func quoteSpans(text string) [][2]int {
	var spans [][2]int
	for _, m := range phrasePattern.FindAllStringIndex(text, -1) {
		spans = append(spans, [2]int{m[0], m[1]})
	}
	return spans
}

// crossesQuote reports whether [start, end) cuts into a quoted span without
// containing it whole. A marker's own field:"value" form contains its quote.
func crossesQuote(spans [][2]int, start, end int) bool {
	for _, q := range spans {
		overlaps := start < q[1] && q[0] < end
		contained := start <= q[0] && q[1] <= end
		if overlaps && !contained {
			return true
		}
	}
	return false
}

func extractMarkers(s *scan, res *ParseResult) {
	quotes := quoteSpans(s.text)
	for _, m := range markerPattern.FindAllStringSubmatchIndex(s.text, -1) {
		// m[2] is the start of the optional "-" group, i.e. the marker itself.
		start, end := m[2], m[1]
		if !s.free(start, end) || crossesQuote(quotes, start, end) {
			continue
		}
		s.consume(start, end)

		negated := m[3] > m[2]
		field := strings.ToLower(s.text[m[4]:m[5]])
		var value string
		if m[6] >= 0 {
			value = s.text[m[6]:m[7]]
		} else {
			value = strings.Trim(s.text[m[8]:m[9]], `"`)
		}
		value = strings.TrimSpace(value)
		if value == "" {
			continue
		}
		switch field {
		case "author":
			res.Hints = append(res.Hints, AuthorHint{Name: value, Negated: negated})
		case "tag":
			res.Hints = append(res.Hints, TagHint{Name: value, Negated: negated})
		case "series":
			res.Hints = append(res.Hints, SeriesHint{Name: value, Negated: negated})
		case "publisher":
			if !negated {
				res.Hints = append(res.Hints, PublisherHint{Name: value})
			}
		}
	}

	for _, m := range hashtagRe.FindAllStringSubmatchIndex(s.text, -1) {
		start, end := m[2], m[1]
		if !s.free(start, end) || crossesQuote(quotes, start, end) {
			continue
		}
		s.consume(start, end)
		res.Hints = append(res.Hints, TagHint{Name: s.text[m[4]:m[5]], Negated: m[3] > m[2]})
	}
}

func extractPhrases(s *scan, res *ParseResult) {
	for _, m := range phrasePattern.FindAllStringSubmatchIndex(s.text, -1) {
		if !s.free(m[0], m[1]) {
			continue
		}
		s.consume(m[0], m[1])
		if phrase := s.text[m[2]:m[3]]; strings.TrimSpace(phrase) != "" {
			res.Phrases = append(res.Phrases, phrase)
		}
	}
}

func extractRatings(s *scan, res *ParseResult) {
	for _, tok := range s.freeTokens() {
		if m := ratingToken.FindStringSubmatch(tok.text); m != nil {
			n, _ := strconv.Atoi(m[1])
			s.consume(tok.start, tok.end)
			res.Hints = append(res.Hints, RatingHint{Min: n})
			continue
		}
		if n := countStars(tok.text); n > 0 {
			s.consume(tok.start, tok.end)
			res.Hints = append(res.Hints, RatingHint{Min: min(n, 5)})
		}
	}
}

// countStars returns the number of star glyphs when tok consists only of
// stars, and 0 otherwise.
func countStars(tok string) int {
	n := 0
	for _, r := range tok {
		switch r {
		case '★', '⭐':
			n++
		case '\uFE0F': // emoji presentation selector
		default:
			return 0
		}
	}
	return n
}

func extractYears(s *scan, res *ParseResult) {
	standalone := len(strings.Fields(s.text)) == 1
	for _, tok := range s.freeTokens() {
		if m := yearMarker.FindStringSubmatch(tok.text); m != nil {
			y, _ := strconv.Atoi(m[1])
			s.consume(tok.start, tok.end)
			res.Hints = append(res.Hints, YearHint{Year: y})
			continue
		}
		if standalone || !bareYear.MatchString(tok.text) {
			continue
		}
		y, _ := strconv.Atoi(tok.text)
		if y < 1000 || y > 2999 {
			continue
		}
		s.consume(tok.start, tok.end)
		res.Hints = append(res.Hints, YearHint{Year: y})
	}
}

func (p *Parser) extractIndexedNames(s *scan, res *ParseResult) {
	if len(p.names) == 0 {
		return
	}
	toks := s.freeTokens()
	words := make([]string, len(toks))
	for i, t := range toks {
		words[i] = normalizeWord(t.text)
	}

	for i := 0; i < len(toks); {
		matched := 0
		for _, n := range p.names {
			if !p.matchAt(s, toks, words, i, n.words) {
				continue
			}
			last := toks[i+len(n.words)-1]
			s.consume(toks[i].start, last.end)
			res.Hints = append(res.Hints, hintFor(n))
			matched = len(n.words)
			break
		}
		if matched == 0 {
			i++
			continue
		}
		i += matched
	}
}

func (p *Parser) matchAt(s *scan, toks []token, words []string, i int, name []string) bool {
	if i+len(name) > len(toks) {
		return false
	}
	for j, w := range name {
		if words[i+j] != w {
			return false
		}
		if j > 0 && !s.onlySpaceBetween(toks[i+j-1].end, toks[i+j].start) {
			return false
		}
	}
	return true
}

func hintFor(n indexedName) Hint {
	switch n.kind {
	case HintAuthor:
		return AuthorHint{Name: n.name}
	case HintSeries:
		return SeriesHint{Name: n.name}
	default:
		return TagHint{Name: n.name}
	}
}

// buildNameTable orders names longest first so "Arthur Conan Doyle" wins
// over "Doyle". Kind order breaks ties between identical names.
func buildNameTable(index NameIndex) []indexedName {
	kindRank := map[HintKind]int{HintAuthor: 0, HintSeries: 1, HintTag: 2}
	seen := make(map[string]bool)
	var out []indexedName

	add := func(kind HintKind, names []string) {
		for _, name := range names {
			name = strings.TrimSpace(name)
			if utf8.RuneCountInString(name) < minIndexedNameLen {
				continue
			}
			words := nameWords(name)
			key := strings.Join(words, " ")
			if len(words) == 0 || seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, indexedName{kind: kind, name: name, words: words})
		}
	}
	add(HintAuthor, index.Authors)
	add(HintSeries, index.Series)
	add(HintTag, index.Tags)

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if len(a.words) != len(b.words) {
			return len(a.words) > len(b.words)
		}
		if la, lb := utf8.RuneCountInString(a.name), utf8.RuneCountInString(b.name); la != lb {
			return la > lb
		}
		if kindRank[a.kind] != kindRank[b.kind] {
			return kindRank[a.kind] < kindRank[b.kind]
		}
		return a.name < b.name
	})
	return out
}

func normalizeWord(w string) string {
	return fold(strings.TrimFunc(w, unicode.IsPunct))
}

func nameWords(name string) []string {
	var words []string
	for _, w := range strings.Fields(name) {
		if n := normalizeWord(w); n != "" {
			words = append(words, n)
		}
	}
	return words
}
