package config

import (
	"fmt"
	"os"
	"strconv"
)

// ApplyEnv overrides s with values from environment variables.
//
// Environment variables:
//   - DUPDETECT_MATCH_THRESHOLD: Minimum similarity, 0-1
//   - DUPDETECT_GROUP_COLUMN: Name of the cluster-id column
//   - DUPDETECT_SIM_COLUMN: Name of the similarity column
//   - DUPDETECT_REMOVE_SINGLETONS: Drop records that matched nothing
//   - DUPDETECT_REMOVE_DUPLICATES: Stored only, no effect
//   - DUPDETECT_WINDOW_SIZE: Candidate window size
//   - DUPDETECT_FEEDBACK_SIZE: Rows between progress log lines
//
// Unlike values read from a settings file, explicit overrides are strict:
// an unparsable or out-of-range value is an error.
func ApplyEnv(s Settings) (Settings, error) {
	if err := parseEnvFloat("DUPDETECT_MATCH_THRESHOLD", &s.MatchThreshold); err != nil {
		return s, err
	}
	if err := parseEnvString("DUPDETECT_GROUP_COLUMN", &s.GroupColumnName); err != nil {
		return s, err
	}
	if err := parseEnvString("DUPDETECT_SIM_COLUMN", &s.SimColumnName); err != nil {
		return s, err
	}
	if err := parseEnvBool("DUPDETECT_REMOVE_SINGLETONS", &s.RemoveSingletons); err != nil {
		return s, err
	}
	if err := parseEnvBool("DUPDETECT_REMOVE_DUPLICATES", &s.RemoveDuplicates); err != nil {
		return s, err
	}
	if err := parseEnvInt("DUPDETECT_WINDOW_SIZE", &s.WindowSize); err != nil {
		return s, err
	}
	if err := parseEnvInt("DUPDETECT_FEEDBACK_SIZE", &s.FeedbackSize); err != nil {
		return s, err
	}

	if err := s.Validate(); err != nil {
		return s, fmt.Errorf("invalid settings from environment: %w", err)
	}
	return s, nil
}

// parseEnvFloat parses a float from an environment variable
func parseEnvFloat(key string, dest *float64) error {
	value := os.Getenv(key)
	if value == "" {
		return nil
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fmt.Errorf("invalid value for %s: %w", key, err)
	}
	*dest = parsed
	return nil
}

// parseEnvInt parses an int from an environment variable
func parseEnvInt(key string, dest *int) error {
	value := os.Getenv(key)
	if value == "" {
		return nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("invalid value for %s: %w", key, err)
	}
	*dest = parsed
	return nil
}

// parseEnvBool parses a bool from an environment variable
func parseEnvBool(key string, dest *bool) error {
	value := os.Getenv(key)
	if value == "" {
		return nil
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fmt.Errorf("invalid value for %s: %w", key, err)
	}
	*dest = parsed
	return nil
}

// parseEnvString parses a string from an environment variable
func parseEnvString(key string, dest *string) error {
	value := os.Getenv(key)
	if value == "" {
		return nil
	}
	*dest = value
	return nil
}
