package dupdetect

import (
	"database/sql"
	"math"
	"math/rand"
	"slices"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.MatchThreshold != 0.5 {
		t.Errorf("MatchThreshold: got %f, want 0.5", cfg.MatchThreshold)
	}
	if cfg.GroupColumnName != "Group" {
		t.Errorf("GroupColumnName: got %q, want \"Group\"", cfg.GroupColumnName)
	}
	if cfg.SimColumnName != "Similarity" {
		t.Errorf("SimColumnName: got %q, want \"Similarity\"", cfg.SimColumnName)
	}
	if cfg.RemoveSingletons {
		t.Error("RemoveSingletons: got true, want false")
	}
	if cfg.RemoveDuplicates {
		t.Error("RemoveDuplicates: got true, want false")
	}
	if _, ok := cfg.Metric.(DamerauLevenshteinMetric); !ok {
		t.Errorf("Metric: got %T, want DamerauLevenshteinMetric", cfg.Metric)
	}
	if cfg.WindowSize != 4 {
		t.Errorf("WindowSize: got %d, want 4", cfg.WindowSize)
	}
}

func TestConfigValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"negative threshold", func(c *Config) { c.MatchThreshold = -0.1 }},
		{"threshold above one", func(c *Config) { c.MatchThreshold = 1.01 }},
		{"NaN threshold", func(c *Config) { c.MatchThreshold = math.NaN() }},
		{"negative window", func(c *Config) { c.WindowSize = -1 }},
		{"negative workers", func(c *Config) { c.Workers = -2 }},
		{"same column names", func(c *Config) { c.SimColumnName = c.GroupColumnName }},
	}

	fps := []string{"a ", "b "}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			if _, err := Cluster(fps, cfg); err == nil {
				t.Errorf("expected error for %s", tt.name)
			}
			if err := cfg.Validate(); err == nil {
				t.Errorf("Validate: expected error for %s", tt.name)
			}
		})
	}
}

func TestConfigValidation_BoundaryThresholds(t *testing.T) {
	for _, th := range []float64{0, 1} {
		cfg := DefaultConfig()
		cfg.MatchThreshold = th
		if err := cfg.Validate(); err != nil {
			t.Errorf("threshold %v: unexpected error %v", th, err)
		}
	}
}

func TestClusterWithZeroConfig(t *testing.T) {
	// A zero Config picks up defaults for everything but the threshold,
	// where 0 is a legal value.
	result, err := Cluster([]string{"abc ", "xyz "}, Config{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !slices.Equal(result.ClusterIDs, []int{1, 1}) {
		t.Errorf("ClusterIDs = %v, want [1 1]", result.ClusterIDs)
	}
}

func TestClusterEmptyData(t *testing.T) {
	result, err := Cluster([]string{}, DefaultConfig())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.ClusterIDs) != 0 {
		t.Errorf("expected empty cluster ids, got %d", len(result.ClusterIDs))
	}
	if len(result.Similarities) != 0 {
		t.Errorf("expected empty similarities, got %d", len(result.Similarities))
	}
	if len(result.Assignments()) != 0 {
		t.Errorf("expected no assignments, got %d", len(result.Assignments()))
	}
}

func fingerprintsOf(records ...string) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = Fingerprint([]sql.NullString{{String: r, Valid: true}})
	}
	return out
}

func null() sql.NullFloat64 { return sql.NullFloat64{} }

func score(v float64) sql.NullFloat64 { return sql.NullFloat64{Float64: v, Valid: true} }

func TestClusterScenarios(t *testing.T) {
	tests := []struct {
		name      string
		records   []string
		threshold float64
		wantIDs   []int
		wantSims  []sql.NullFloat64
	}{
		{
			name:      "one edit merges at 0.8",
			records:   []string{"hello world", "hello wrld", "goodbye"},
			threshold: 0.8,
			wantIDs:   []int{1, 1, 3},
			wantSims:  []sql.NullFloat64{null(), score(0.9), null()},
		},
		{
			name:      "threshold 1 keeps near duplicates apart",
			records:   []string{"hello world", "hello wrld", "goodbye"},
			threshold: 1.0,
			wantIDs:   []int{1, 2, 3},
			wantSims:  []sql.NullFloat64{null(), null(), null()},
		},
		{
			name:      "identical records",
			records:   []string{"abc", "abc", "abc"},
			threshold: 1.0,
			wantIDs:   []int{1, 1, 1},
			wantSims:  []sql.NullFloat64{null(), score(1), score(1)},
		},
		{
			name:      "single record",
			records:   []string{"x"},
			threshold: 0.5,
			wantIDs:   []int{1},
			wantSims:  []sql.NullFloat64{null()},
		},
		{
			name:      "reverse pass joins records differing at the start",
			records:   []string{"xbcdefghij", "ybcdefghij", "xc", "xd", "xe", "xf"},
			threshold: 0.8,
			wantIDs:   []int{1, 1, 3, 4, 5, 6},
			wantSims:  []sql.NullFloat64{null(), score(0.9), null(), null(), null(), null()},
		},
		{
			name:      "member check keeps clusters consistent",
			records:   []string{"abcdefghij", "abcdefghiz", "abcdefghkj"},
			threshold: 0.85,
			wantIDs:   []int{1, 1, 3},
			wantSims:  []sql.NullFloat64{null(), score(0.9), null()},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.MatchThreshold = tt.threshold
			result, err := Cluster(fingerprintsOf(tt.records...), cfg)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !slices.Equal(result.ClusterIDs, tt.wantIDs) {
				t.Errorf("ClusterIDs = %v, want %v", result.ClusterIDs, tt.wantIDs)
			}
			if !slices.Equal(result.Similarities, tt.wantSims) {
				t.Errorf("Similarities = %v, want %v", result.Similarities, tt.wantSims)
			}
		})
	}
}

func TestClusterSingleRecordSuppressed(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RemoveSingletons = true
	result, err := Cluster(fingerprintsOf("x"), cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Assignments()) != 0 {
		t.Errorf("expected no assignments, got %v", result.Assignments())
	}
}

func TestClusterStats(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MatchThreshold = 0.8
	result, err := Cluster(fingerprintsOf("xbcdefghij", "ybcdefghij", "xc", "xd", "xe", "xf"), cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	s := result.Stats
	if s.Forward.Merges != 0 || s.Reverse.Merges != 1 {
		t.Errorf("Merges forward=%d reverse=%d, want 0 and 1", s.Forward.Merges, s.Reverse.Merges)
	}
	if s.Forward.Comparisons != 14 || s.Reverse.Comparisons != 12 {
		t.Errorf("Comparisons forward=%d reverse=%d, want 14 and 12",
			s.Forward.Comparisons, s.Reverse.Comparisons)
	}
	if s.Clusters != 5 || s.Singletons != 4 {
		t.Errorf("Clusters=%d Singletons=%d, want 5 and 4", s.Clusters, s.Singletons)
	}
}

// randomFingerprints draws short strings over a two-letter alphabet so that
// near duplicates are common.
func randomFingerprints(rng *rand.Rand, n int) []string {
	out := make([]string, n)
	for i := range out {
		b := make([]byte, 1+rng.Intn(6))
		for j := range b {
			b[j] = "ab"[rng.Intn(2)]
		}
		out[i] = string(b) + " "
	}
	return out
}

func TestClusterProperties(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	thresholds := []float64{0, 0.3, 0.5, 0.6, 0.75, 0.8, 1}

	for trial := 0; trial < 300; trial++ {
		fps := randomFingerprints(rng, 1+rng.Intn(30))
		cfg := DefaultConfig()
		cfg.MatchThreshold = thresholds[rng.Intn(len(thresholds))]

		result, err := Cluster(fps, cfg)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		for i, id := range result.ClusterIDs {
			// The representative is the earliest member and maps to itself.
			if id > i+1 {
				t.Fatalf("%v t=%v: record %d has cluster id %d above its own index", fps, cfg.MatchThreshold, i+1, id)
			}
			if result.ClusterIDs[id-1] != id {
				t.Fatalf("%v t=%v: representative %d maps to %d", fps, cfg.MatchThreshold, id, result.ClusterIDs[id-1])
			}
			// Every member clears the threshold against its representative.
			if s := Similarity(fps[id-1], fps[i]); s < cfg.MatchThreshold {
				t.Fatalf("%v t=%v: record %d scores %v against representative %d",
					fps, cfg.MatchThreshold, i+1, s, id)
			}
			if result.Similarities[i].Valid == (id == i+1) {
				t.Fatalf("record %d: similarity validity %v with cluster id %d",
					i+1, result.Similarities[i].Valid, id)
			}
		}

		switch cfg.MatchThreshold {
		case 0:
			for i, id := range result.ClusterIDs {
				if id != 1 {
					t.Fatalf("%v t=0: record %d in cluster %d, want 1", fps, i+1, id)
				}
			}
		case 1:
			for i, id := range result.ClusterIDs {
				if fps[id-1] != fps[i] {
					t.Fatalf("%v t=1: record %d (%q) merged with %q", fps, i+1, fps[i], fps[id-1])
				}
			}
		}
	}
}

func TestClusterDeterministic(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	fps := randomFingerprints(rng, 200)
	cfg := DefaultConfig()
	cfg.MatchThreshold = 0.6

	first, err := Cluster(fps, cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := Cluster(fps, cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !slices.Equal(first.ClusterIDs, second.ClusterIDs) {
		t.Error("ClusterIDs differ between runs")
	}
	if !slices.Equal(first.Similarities, second.Similarities) {
		t.Error("Similarities differ between runs")
	}
}

func TestClusterSingletonSuppression(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	fps := randomFingerprints(rng, 60)
	cfg := DefaultConfig()
	cfg.MatchThreshold = 0.8

	plain, err := Cluster(fps, cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	cfg.RemoveSingletons = true
	suppressed, err := Cluster(fps, cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !slices.Equal(plain.ClusterIDs, suppressed.ClusterIDs) {
		t.Error("suppression changed cluster ids")
	}
	if !slices.Equal(plain.Similarities, suppressed.Similarities) {
		t.Error("suppression changed similarities")
	}

	clusters := plain.Clusters()
	for i, id := range plain.ClusterIDs {
		singleton := len(clusters[id]) == 1
		if suppressed.Kept[i] == singleton {
			t.Errorf("record %d: kept=%v, singleton=%v", i+1, suppressed.Kept[i], singleton)
		}
		if !plain.Kept[i] {
			t.Errorf("record %d dropped without suppression", i+1)
		}
	}
}

func TestClusterWindowSizeOne(t *testing.T) {
	// With a single-slot window the distant match in the reverse-pass
	// scenario is still found, since the two reversed fingerprints sort
	// next to each other.
	cfg := DefaultConfig()
	cfg.MatchThreshold = 0.8
	cfg.WindowSize = 1
	result, err := Cluster(fingerprintsOf("xbcdefghij", "ybcdefghij", "xc", "xd", "xe", "xf"), cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.ClusterIDs[1] != 1 {
		t.Errorf("ClusterIDs = %v, want record 2 in cluster 1", result.ClusterIDs)
	}
}

func TestClusterCustomMetric(t *testing.T) {
	// A metric that considers everything identical merges all records.
	cfg := DefaultConfig()
	cfg.MatchThreshold = 1
	cfg.Metric = SimilarityFunc(func(a, b string) float64 { return 1 })
	result, err := Cluster(fingerprintsOf("a", "bb", "ccc"), cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !slices.Equal(result.ClusterIDs, []int{1, 1, 1}) {
		t.Errorf("ClusterIDs = %v, want [1 1 1]", result.ClusterIDs)
	}
}
