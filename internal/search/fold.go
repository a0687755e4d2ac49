package search

import "golang.org/x/text/cases"

// fold returns the case-folded form of s. A Caser keeps state, so each call
// builds its own instead of sharing one across goroutines.
func fold(s string) string {
	if s == "" {
		return s
	}
	return cases.Fold().String(s)
}

func foldAll(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		out = append(out, fold(v))
	}
	return out
}

// Fold is the case folding used by matching and ordering.
func Fold(s string) string { return fold(s) }
