package dupdetect

import (
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/antzucaro/matchr"
)

// SimilarityMetric scores how close two fingerprints are, in [0, 1].
// Implementations must be symmetric, return 1 for identical inputs and be
// safe for concurrent use.
type SimilarityMetric interface {
	Similarity(a, b string) float64
}

// SimilarityFunc adapts a plain function into a SimilarityMetric.
type SimilarityFunc func(a, b string) float64

func (f SimilarityFunc) Similarity(a, b string) float64 { return f(a, b) }

// DamerauLevenshteinMetric normalizes the Damerau-Levenshtein edit distance
// (insert, delete, substitute, adjacent transposition) by the longer input.
type DamerauLevenshteinMetric struct{}

func (DamerauLevenshteinMetric) Similarity(a, b string) float64 {
	return normalizedSimilarity(matchr.DamerauLevenshtein, a, b)
}

// LevenshteinMetric is DamerauLevenshteinMetric without transpositions.
type LevenshteinMetric struct{}

func (LevenshteinMetric) Similarity(a, b string) float64 {
	return normalizedSimilarity(matchr.Levenshtein, a, b)
}

// normalizedSimilarity returns 1 - distance(a, b) / max(len(a), len(b)).
// Lengths are counted in runes, the unit matchr edits in. Two empty strings
// are identical.
func normalizedSimilarity(distance func(a, b string) int, a, b string) float64 {
	longest := max(utf8.RuneCountInString(a), utf8.RuneCountInString(b))
	if longest == 0 {
		return 1
	}
	return 1 - float64(distance(a, b))/float64(longest)
}

// Similarity scores a and b with the default Damerau-Levenshtein metric.
func Similarity(a, b string) float64 {
	return DamerauLevenshteinMetric{}.Similarity(a, b)
}

// TruncateScore drops every decimal digit after the first, rounding toward
// zero. It works on the shortest decimal form of x so that values such as
// 0.7, whose binary form sits just below 0.7, are not truncated to 0.6.
func TruncateScore(x float64) float64 {
	s := strconv.FormatFloat(x, 'f', -1, 64)
	if dot := strings.IndexByte(s, '.'); dot >= 0 && len(s) > dot+2 {
		s = s[:dot+2]
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return x
	}
	return v
}
