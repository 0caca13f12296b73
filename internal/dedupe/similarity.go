// Package dedupe suppresses near-duplicate candidate segments, both within one
// video (time overlap plus wording) and across videos sharing a keyword
// (wording only).
package dedupe

import (
	"strings"
	"unicode"

	"broll/internal/segment"
)

// Overlap returns the intersection-over-union of two time intervals.
func Overlap(a, b segment.Segment) float64 {
	inter := min(a.End, b.End) - max(a.Start, b.Start)
	if inter <= 0 {
		return 0
	}
	union := max(a.End, b.End) - min(a.Start, b.Start)
	if union <= 0 {
		return 0
	}
	return inter / union
}

// Tokens splits text into a lowercase set of letter/digit runs.
func Tokens(text string) map[string]struct{} {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	set := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		set[f] = struct{}{}
	}
	return set
}

// TextSimilarity is the Jaccard similarity of the token sets of a and b.
// Two texts without tokens are not considered similar.
func TextSimilarity(a, b string) float64 {
	return jaccard(Tokens(a), Tokens(b))
}

func jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 0
	}
	inter := 0
	for k := range a {
		if _, ok := b[k]; ok {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	if union <= 0 {
		return 0
	}
	return float64(inter) / float64(union)
}
