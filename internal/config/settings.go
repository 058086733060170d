package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	dupdetect "github.com/Silvia-F/di-duplicate-detection"
)

// DefaultFeedbackSize is the number of rows between progress log lines.
const DefaultFeedbackSize = 50000

// Settings is the persisted configuration of a duplicate-detection step.
type Settings struct {
	// MatchThreshold is the minimum similarity for two records to share a
	// cluster.
	// Default: 0.5, Range: 0-1
	MatchThreshold float64 `yaml:"match_threshold"`

	// GroupColumnName names the derived cluster-id column.
	// Default: "Group"
	GroupColumnName string `yaml:"group_column_name"`

	// SimColumnName names the derived similarity column.
	// Default: "Similarity"
	SimColumnName string `yaml:"sim_column_name"`

	// RemoveSingletons drops records that matched nothing.
	// Default: false
	RemoveSingletons bool `yaml:"remove_singletons"`

	// RemoveDuplicates is stored and round-tripped but has no effect.
	// Default: false
	RemoveDuplicates bool `yaml:"remove_duplicates"`

	// WindowSize is the number of recent clusters each record is compared
	// against.
	// Default: 4, Range: >= 1
	WindowSize int `yaml:"window_size"`

	// FeedbackSize is how many rows pass between progress log lines.
	// Set to 0 to disable progress logging.
	// Default: 50000
	FeedbackSize int `yaml:"feedback_size"`
}

// Default returns the settings of a freshly created step.
func Default() Settings {
	return Settings{
		MatchThreshold:  0.5,
		GroupColumnName: "Group",
		SimColumnName:   "Similarity",
		WindowSize:      dupdetect.DefaultWindowSize,
		FeedbackSize:    DefaultFeedbackSize,
	}
}

// fileSettings mirrors Settings but keeps the threshold as a raw node so
// that an unreadable value can fall back instead of failing the load.
type fileSettings struct {
	MatchThreshold   yaml.Node `yaml:"match_threshold"`
	GroupColumnName  string    `yaml:"group_column_name"`
	SimColumnName    string    `yaml:"sim_column_name"`
	RemoveSingletons bool      `yaml:"remove_singletons"`
	RemoveDuplicates bool      `yaml:"remove_duplicates"`
	WindowSize       *int      `yaml:"window_size"`
	FeedbackSize     *int      `yaml:"feedback_size"`
}

// Load reads settings from a YAML file. An empty path yields Default().
//
// Persisted settings are read leniently: a missing, non-numeric or
// out-of-range match_threshold falls back to 0.5 with a warning, and
// missing column names fall back to their defaults. Unknown keys and
// malformed YAML are errors.
func Load(path string, logger *slog.Logger) (Settings, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Default(), fmt.Errorf("reading settings file: %w", err)
	}
	return Parse(data, logger)
}

// Parse decodes a YAML settings document. See Load for the fallback rules.
func Parse(data []byte, logger *slog.Logger) (Settings, error) {
	if logger == nil {
		logger = slog.Default()
	}
	s := Default()

	var raw fileSettings
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&raw); err != nil && !errors.Is(err, io.EOF) {
		return s, fmt.Errorf("parsing settings YAML: %w", err)
	}

	s.MatchThreshold = thresholdFromNode(&raw.MatchThreshold, logger)
	if raw.GroupColumnName != "" {
		s.GroupColumnName = raw.GroupColumnName
	}
	if raw.SimColumnName != "" {
		s.SimColumnName = raw.SimColumnName
	}
	s.RemoveSingletons = raw.RemoveSingletons
	s.RemoveDuplicates = raw.RemoveDuplicates
	if raw.WindowSize != nil {
		s.WindowSize = *raw.WindowSize
	}
	if raw.FeedbackSize != nil {
		s.FeedbackSize = *raw.FeedbackSize
	}
	return s, nil
}

func thresholdFromNode(n *yaml.Node, logger *slog.Logger) float64 {
	fallback := Default().MatchThreshold
	if n.Kind == 0 {
		return fallback
	}
	if n.Kind != yaml.ScalarNode {
		logger.Warn("match_threshold is not a scalar, using default", "default", fallback)
		return fallback
	}
	t, err := strconv.ParseFloat(n.Value, 64)
	if err != nil {
		logger.Warn("match_threshold is not a number, using default", "value", n.Value, "default", fallback)
		return fallback
	}
	if !dupdetect.ValidThreshold(t) {
		logger.Warn("match_threshold out of range, using default", "value", t, "default", fallback)
		return fallback
	}
	return t
}

// Validate checks if the settings have valid values.
func (s Settings) Validate() error {
	if !dupdetect.ValidThreshold(s.MatchThreshold) {
		return fmt.Errorf("match_threshold must be between 0 and 1 (got %v)", s.MatchThreshold)
	}
	if s.GroupColumnName == "" {
		return fmt.Errorf("group_column_name must not be empty")
	}
	if s.SimColumnName == "" {
		return fmt.Errorf("sim_column_name must not be empty")
	}
	if s.GroupColumnName == s.SimColumnName {
		return fmt.Errorf("group_column_name and sim_column_name must differ (both %q)", s.GroupColumnName)
	}
	if s.WindowSize < 1 {
		return fmt.Errorf("window_size must be at least 1 (got %d)", s.WindowSize)
	}
	if s.FeedbackSize < 0 {
		return fmt.Errorf("feedback_size cannot be negative (got %d)", s.FeedbackSize)
	}
	return nil
}

// CoreConfig converts the settings into a clustering configuration.
func (s Settings) CoreConfig() dupdetect.Config {
	cfg := dupdetect.DefaultConfig()
	cfg.MatchThreshold = s.MatchThreshold
	cfg.GroupColumnName = s.GroupColumnName
	cfg.SimColumnName = s.SimColumnName
	cfg.RemoveSingletons = s.RemoveSingletons
	cfg.RemoveDuplicates = s.RemoveDuplicates
	cfg.WindowSize = s.WindowSize
	return cfg
}

// Save writes the settings to path as YAML.
func (s Settings) Save(path string) error {
	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshaling settings: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing settings file: %w", err)
	}
	return nil
}

// String returns a human-readable representation of the settings.
func (s Settings) String() string {
	return fmt.Sprintf(
		"Settings{MatchThreshold: %v, Group: %q, Similarity: %q, "+
			"RemoveSingletons: %t, RemoveDuplicates: %t, Window: %d, Feedback: %d}",
		s.MatchThreshold, s.GroupColumnName, s.SimColumnName,
		s.RemoveSingletons, s.RemoveDuplicates, s.WindowSize, s.FeedbackSize,
	)
}
