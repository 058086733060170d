package dupdetect

import (
	"database/sql"
	"fmt"
	"math"
	"runtime"
)

// Config controls approximate-duplicate clustering.
// Start with [DefaultConfig] and override the fields you need.
type Config struct {
	// MatchThreshold is the minimum similarity for two records to share a
	// cluster. 1 merges only identical fingerprints; 0 merges every record.
	// Must be in [0, 1]. Default: 0.5.
	MatchThreshold float64

	// GroupColumnName names the derived cluster-id column. Default: "Group".
	GroupColumnName string

	// SimColumnName names the derived similarity column. Default: "Similarity".
	SimColumnName string

	// RemoveSingletons drops records whose cluster has no other member from
	// the output. Cluster ids and scores of other records are unaffected.
	// Default: false.
	RemoveSingletons bool

	// RemoveDuplicates is carried for settings compatibility and has no
	// effect on clustering or output.
	RemoveDuplicates bool

	// Metric scores fingerprint similarity.
	// Default: DamerauLevenshteinMetric.
	Metric SimilarityMetric

	// WindowSize is how many recently touched clusters each record is
	// compared against. Larger windows find more merges at linear extra
	// cost per record. Must be >= 1. Default: 4.
	WindowSize int

	// Workers controls the number of goroutines used to score members
	// against their representatives once clustering is done. Clustering
	// itself is sequential. 0 means use runtime.NumCPU().
	// Default: 0 (auto).
	Workers int
}

// Stats reports the work done by Cluster.
type Stats struct {
	Forward PassStats
	Reverse PassStats
	// Clusters is the number of distinct clusters, singletons included.
	Clusters int
	// Singletons is the number of clusters with a single record.
	Singletons int
	// Suppressed is the number of records dropped by RemoveSingletons.
	Suppressed int
}

// Result contains the output of clustering, indexed by arrival position.
type Result struct {
	// ClusterIDs assigns each record the 1-based index of its cluster's
	// earliest record.
	ClusterIDs []int

	// Similarities holds each record's similarity to its representative,
	// truncated to one decimal. It is null for representatives.
	Similarities []sql.NullFloat64

	// Kept is false for records removed by singleton suppression.
	Kept []bool

	Stats Stats
}

// DefaultConfig returns a Config with reasonable defaults.
func DefaultConfig() Config {
	return Config{
		MatchThreshold:  0.5,
		GroupColumnName: "Group",
		SimColumnName:   "Similarity",
		Metric:          DamerauLevenshteinMetric{},
		WindowSize:      DefaultWindowSize,
	}
}

// ValidThreshold reports whether t is a usable match threshold.
func ValidThreshold(t float64) bool {
	return !math.IsNaN(t) && t >= 0 && t <= 1
}

// validateConfig checks that cfg fields are valid and returns a descriptive error if not.
func validateConfig(cfg *Config) error {
	if !ValidThreshold(cfg.MatchThreshold) {
		return fmt.Errorf("dupdetect: MatchThreshold must be in [0, 1], got %v", cfg.MatchThreshold)
	}
	if cfg.WindowSize < 1 {
		return fmt.Errorf("dupdetect: WindowSize must be >= 1, got %d", cfg.WindowSize)
	}
	if cfg.Workers < 0 {
		return fmt.Errorf("dupdetect: Workers must be >= 0 (0 means runtime.NumCPU()), got %d", cfg.Workers)
	}
	if cfg.GroupColumnName == cfg.SimColumnName {
		return fmt.Errorf("dupdetect: GroupColumnName and SimColumnName must differ, both are %q", cfg.GroupColumnName)
	}
	return nil
}

// applyDefaults fills in zero-valued config fields with their defaults.
func applyDefaults(cfg *Config) {
	if cfg.GroupColumnName == "" {
		cfg.GroupColumnName = "Group"
	}
	if cfg.SimColumnName == "" {
		cfg.SimColumnName = "Similarity"
	}
	if cfg.Metric == nil {
		cfg.Metric = DamerauLevenshteinMetric{}
	}
	if cfg.WindowSize == 0 {
		cfg.WindowSize = DefaultWindowSize
	}
	if cfg.Workers == 0 {
		cfg.Workers = runtime.NumCPU()
	}
}

// Validate reports whether cfg would be accepted by Cluster.
func (cfg Config) Validate() error {
	applyDefaults(&cfg)
	return validateConfig(&cfg)
}

// emptyResult returns a Result with zero-valued slices for n records.
// When n is 0, all slices are non-nil but empty.
func emptyResult(n int) *Result {
	return &Result{
		ClusterIDs:   make([]int, n),
		Similarities: make([]sql.NullFloat64, n),
		Kept:         make([]bool, n),
	}
}

// Cluster groups approximately duplicate fingerprints. fingerprints[i] is
// the fingerprint of the record at 1-based index i+1. The whole set must be
// available up front: both passes sort it. Returns an error if the config is
// invalid; an empty input yields an empty Result.
func Cluster(fingerprints []string, cfg Config) (*Result, error) {
	applyDefaults(&cfg)
	if err := validateConfig(&cfg); err != nil {
		return nil, err
	}

	n := len(fingerprints)
	if n == 0 {
		return emptyResult(0), nil
	}

	forest := NewForest(fingerprints)
	r := emptyResult(n)
	clusterForest(forest, cfg, &r.Stats)
	project(forest, cfg, r)
	return r, nil
}

// clusterForest runs the fingerprint-order pass followed by the
// reversed-fingerprint pass. The second pass starts from the clusters the
// first one built.
func clusterForest(f *Forest, cfg Config, stats *Stats) {
	e := newEngine(f, cfg)
	byData := dataOrder(f)
	e.forwardPass(byData, &stats.Forward)
	e.reversePass(reversedOrder(f, byData), &stats.Reverse)
}
