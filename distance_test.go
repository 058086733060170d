package dupdetect

import (
	"math"
	"math/rand"
	"testing"
)

const floatTol = 1e-10

func almostEqual(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

// --- DamerauLevenshteinMetric tests ---

func TestDamerauLevenshtein_Identical(t *testing.T) {
	m := DamerauLevenshteinMetric{}
	for _, s := range []string{"a", "hello world ", "héllo", "  "} {
		if got := m.Similarity(s, s); got != 1 {
			t.Errorf("Similarity(%q, %q) = %v, want 1", s, s, got)
		}
	}
}

func TestDamerauLevenshtein_BothEmpty(t *testing.T) {
	if got := Similarity("", ""); got != 1 {
		t.Errorf("Similarity(\"\", \"\") = %v, want 1", got)
	}
}

func TestDamerauLevenshtein_OneEmpty(t *testing.T) {
	if got := Similarity("", "abc"); got != 0 {
		t.Errorf("Similarity(\"\", \"abc\") = %v, want 0", got)
	}
	if got := Similarity("abc", ""); got != 0 {
		t.Errorf("Similarity(\"abc\", \"\") = %v, want 0", got)
	}
}

func TestDamerauLevenshtein_HandComputed(t *testing.T) {
	tests := []struct {
		a, b string
		want float64
	}{
		// One deletion over 12 characters.
		{"hello world ", "hello wrld ", 1 - 1.0/12},
		// One adjacent transposition.
		{"ab", "ba", 0.5},
		{"abcd", "acbd", 0.75},
		// k→s, e→i, insert g.
		{"kitten", "sitting", 1 - 3.0/7},
		// Lengths count runes, not bytes.
		{"héllo", "hello", 0.8},
		{"abc", "xyz", 0},
	}
	m := DamerauLevenshteinMetric{}
	for _, tt := range tests {
		if got := m.Similarity(tt.a, tt.b); !almostEqual(got, tt.want, floatTol) {
			t.Errorf("Similarity(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestLevenshtein_NoTransposition(t *testing.T) {
	m := LevenshteinMetric{}
	// Without transpositions "ab"→"ba" takes two substitutions.
	if got := m.Similarity("ab", "ba"); got != 0 {
		t.Errorf("Similarity(\"ab\", \"ba\") = %v, want 0", got)
	}
	if got := m.Similarity("hello world ", "hello wrld "); !almostEqual(got, 1-1.0/12, floatTol) {
		t.Errorf("Similarity = %v, want %v", got, 1-1.0/12)
	}
}

func TestSimilarity_SymmetricAndBounded(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	randString := func() string {
		b := make([]rune, rng.Intn(8))
		for i := range b {
			b[i] = []rune("ab é")[rng.Intn(4)]
		}
		return string(b)
	}

	metrics := []SimilarityMetric{DamerauLevenshteinMetric{}, LevenshteinMetric{}}
	for i := 0; i < 500; i++ {
		a, b := randString(), randString()
		for _, m := range metrics {
			ab := m.Similarity(a, b)
			ba := m.Similarity(b, a)
			if ab != ba {
				t.Fatalf("%T: Similarity(%q, %q) = %v but reversed = %v", m, a, b, ab, ba)
			}
			if ab < 0 || ab > 1 {
				t.Fatalf("%T: Similarity(%q, %q) = %v, out of [0, 1]", m, a, b, ab)
			}
		}
	}
}

func TestSimilarityFunc(t *testing.T) {
	called := false
	f := SimilarityFunc(func(a, b string) float64 {
		called = true
		return 0.25
	})
	if got := f.Similarity("x", "y"); got != 0.25 {
		t.Errorf("SimilarityFunc returned %v, want 0.25", got)
	}
	if !called {
		t.Error("SimilarityFunc did not call the wrapped function")
	}
}

// --- TruncateScore tests ---

func TestTruncateScore(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{1 - 1.0/12, 0.9},
		{1 - 1.0/11, 0.9},
		{0.7, 0.7},
		{1 - 0.3, 0.7},
		{0.69999, 0.6},
		{0.99999, 0.9},
		{0.05, 0},
		{1, 1},
		{0, 0},
		{1 - 3.0/7, 0.5},
	}
	for _, tt := range tests {
		if got := TruncateScore(tt.in); got != tt.want {
			t.Errorf("TruncateScore(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
