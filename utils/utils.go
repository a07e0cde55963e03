package utils

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ErrNotFound is returned when the source or the sample does not exist
var ErrNotFound = errors.New("file or folder does not exist")

// DefaultOutputName is the report file name used when no output is given
const DefaultOutputName = "similarity.txt"

// DefaultOutputPath places the report next to the source
func DefaultOutputPath(source string) string {
	return filepath.Join(filepath.Dir(source), DefaultOutputName)
}

// ValidateSource checks that the source exists
func ValidateSource(source string) error {
	if _, err := os.Stat(source); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrNotFound, source)
		}
		return fmt.Errorf("cannot access source %s: %w", source, err)
	}
	return nil
}

// ValidateSample checks that the sample exists and is a regular file
func ValidateSample(sample string) error {
	info, err := os.Stat(sample)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrNotFound, sample)
		}
		return fmt.Errorf("cannot access sample %s: %w", sample, err)
	}
	if info.IsDir() {
		return fmt.Errorf("sample must be an image file, got a directory: %s", sample)
	}
	return nil
}

// ParseScore parses and validates a percentage in [0, 100]
func ParseScore(scoreStr string) (float64, error) {
	var score float64
	if _, err := fmt.Sscanf(scoreStr, "%f", &score); err != nil {
		return 0, fmt.Errorf("invalid score %q: %w", scoreStr, err)
	}
	if score < 0 || score > 100 {
		return 0, fmt.Errorf("score must be between 0 and 100, got %v", score)
	}
	return score, nil
}
