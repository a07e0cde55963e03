package scanner

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"time"

	"simfinder/imageprocessor"
	"simfinder/logging"
	"simfinder/signalhandler"
	"simfinder/types"

	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"
)

// Hasher fingerprints corpus files. *imageprocessor.Hasher satisfies it.
type Hasher interface {
	Bits() int
	FingerprintFile(path string) (imageprocessor.Fingerprint, imageprocessor.ImageMeta, error)
}

// ScanOptions defines the options for scanning
type ScanOptions struct {
	SourcePrefix string    // namespace for cache entries, usually the source label
	MaxWorkers   int       // <= 0 picks a value from the CPU count
	Cache        *sql.DB   // optional fingerprint cache
	Progress     io.Writer // progress bar destination; nil disables it
}

// ProcessImageResult holds the result of processing a single corpus file
type ProcessImageResult struct {
	Path    string
	Success bool
	Error   error
	Score   float64
	Format  imageprocessor.FormatType
	Cached  bool
}

// Scan fingerprints every regular file under root and scores it against the
// sample fingerprint. Files that cannot be decoded are skipped with a
// warning. The returned records follow the lexical walk order.
func Scan(ctx context.Context, root string, sample imageprocessor.Fingerprint, hasher Hasher, options ScanOptions) ([]types.SimilarityRecord, types.ScanStats, error) {
	if sample.IsZero() {
		return nil, types.ScanStats{}, fmt.Errorf("%w: sample fingerprint is empty", imageprocessor.ErrIncompatibleFingerprint)
	}
	if sample.Len() != hasher.Bits() {
		return nil, types.ScanStats{}, fmt.Errorf("%w: sample has %d bits, hasher produces %d",
			imageprocessor.ErrIncompatibleFingerprint, sample.Len(), hasher.Bits())
	}

	files, err := collectFiles(root)
	if err != nil {
		return nil, types.ScanStats{}, err
	}

	workers := options.MaxWorkers
	if workers <= 0 {
		workers = signalhandler.GetOptimalProcs()
	}

	logging.DebugLog("Starting scan of %s: %d files, %d workers", root, len(files), workers)

	tracker := NewProgressTracker(len(files), options.Progress)
	startTime := time.Now()

	results := make([]ProcessImageResult, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, path := range files {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = processImage(root, path, sample, hasher, options)
			tracker.Add(results[i])
			return nil
		})
	}

	err = g.Wait()
	tracker.Stop()
	if err == nil {
		err = ctx.Err()
	}
	if err != nil {
		return nil, tracker.Stats(), fmt.Errorf("scan of %s interrupted: %w", root, err)
	}

	PrintCompletionStats(tracker, startTime)

	records := lo.FilterMap(results, func(r ProcessImageResult, _ int) (types.SimilarityRecord, bool) {
		return types.SimilarityRecord{Path: r.Path, Score: r.Score}, r.Success
	})
	return records, tracker.Stats(), nil
}

// processImage fingerprints and scores a single file
func processImage(root, path string, sample imageprocessor.Fingerprint, hasher Hasher, options ScanOptions) ProcessImageResult {
	result := ProcessImageResult{Path: path}

	fileInfo, err := os.Stat(path)
	if err != nil {
		result.Error = fmt.Errorf("cannot stat file %s: %w", path, err)
		return result
	}

	key := relativeKey(root, path)

	fp, format, cached := checkCache(options.Cache, key, options.SourcePrefix, fileInfo, hasher.Bits())
	if !cached {
		var meta imageprocessor.ImageMeta
		fp, meta, err = hasher.FingerprintFile(path)
		if err != nil {
			result.Error = err
			return result
		}
		format = meta.Format
		storeCache(options.Cache, key, options.SourcePrefix, fileInfo, meta, fp)
	}

	score, err := imageprocessor.Similarity(fp, sample)
	if err != nil {
		result.Error = fmt.Errorf("%s: %w", path, err)
		return result
	}

	result.Success = true
	result.Score = score
	result.Format = format
	result.Cached = cached
	return result
}
