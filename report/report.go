// Package report ranks similarity records and persists them as a
// line-oriented text report.
package report

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"simfinder/types"

	"github.com/samber/lo"
)

// ErrIO is returned when the report cannot be written
var ErrIO = errors.New("cannot write report")

const separator = " --> "

// Entry is one parsed report line
type Entry struct {
	Filename string
	Score    float64
}

// Rank returns the records sorted by score, highest first. Records with equal
// scores keep their input order. The input slice is left untouched.
func Rank(records []types.SimilarityRecord) []types.SimilarityRecord {
	ranked := make([]types.SimilarityRecord, len(records))
	copy(ranked, records)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})
	return ranked
}

// Filter drops ranked records below minScore and keeps at most limit of them.
// A limit of zero or less means no limit.
func Filter(ranked []types.SimilarityRecord, minScore float64, limit int) []types.SimilarityRecord {
	kept := lo.Filter(ranked, func(r types.SimilarityRecord, _ int) bool {
		return r.Score >= minScore
	})
	if limit > 0 && len(kept) > limit {
		kept = kept[:limit]
	}
	return kept
}

// FormatLine renders a single record as it appears in the report
func FormatLine(r types.SimilarityRecord) string {
	return fmt.Sprintf("%s%s%.2f%%", filepath.Base(r.Path), separator, r.Score)
}

// Write serializes the header and the records to w
func Write(w io.Writer, sourceLabel string, ranked []types.SimilarityRecord) error {
	bw := bufio.NewWriter(w)
	if _, err := fmt.Fprintln(bw, sourceLabel); err != nil {
		return err
	}
	for _, r := range ranked {
		if _, err := fmt.Fprintln(bw, FormatLine(r)); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// WriteReport writes the report to outputPath. The file is written next to
// its destination and renamed into place, so a failure never leaves a
// partial report behind.
func WriteReport(outputPath, sourceLabel string, ranked []types.SimilarityRecord) error {
	dir := filepath.Dir(outputPath)
	tmp, err := os.CreateTemp(dir, ".simfinder-report-*")
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrIO, outputPath, err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if err := Write(tmp, sourceLabel, ranked); err != nil {
		tmp.Close()
		return fmt.Errorf("%w: %s: %v", ErrIO, outputPath, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrIO, outputPath, err)
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrIO, outputPath, err)
	}
	if err := os.Rename(tmpName, outputPath); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrIO, outputPath, err)
	}
	return nil
}

// ParseReport reads a report back into its header and entries
func ParseReport(r io.Reader) (string, []Entry, error) {
	sc := bufio.NewScanner(r)
	if !sc.Scan() {
		if err := sc.Err(); err != nil {
			return "", nil, err
		}
		return "", nil, errors.New("empty report")
	}
	label := sc.Text()

	var entries []Entry
	lineNo := 1
	for sc.Scan() {
		lineNo++
		line := sc.Text()
		if line == "" {
			continue
		}

		// filenames may contain the separator; the score never does
		idx := strings.LastIndex(line, separator)
		if idx < 0 || !strings.HasSuffix(line, "%") {
			return "", nil, fmt.Errorf("line %d: malformed entry %q", lineNo, line)
		}
		score, err := strconv.ParseFloat(strings.TrimSuffix(line[idx+len(separator):], "%"), 64)
		if err != nil {
			return "", nil, fmt.Errorf("line %d: bad score: %w", lineNo, err)
		}
		entries = append(entries, Entry{Filename: line[:idx], Score: score})
	}
	if err := sc.Err(); err != nil {
		return "", nil, err
	}
	return label, entries, nil
}

// ReadReport parses the report stored at path
func ReadReport(path string) (string, []Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", nil, err
	}
	defer f.Close()
	return ParseReport(f)
}
