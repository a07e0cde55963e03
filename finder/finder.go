// Package finder runs the whole similarity search: validate inputs, open the
// source, fingerprint the sample once, scan, rank and write the report.
package finder

import (
	"context"
	"fmt"
	"io"
	"path/filepath"

	"simfinder/archive"
	"simfinder/config"
	"simfinder/database"
	"simfinder/imageprocessor"
	"simfinder/logging"
	"simfinder/report"
	"simfinder/scanner"
	"simfinder/types"
	"simfinder/utils"
)

// Finder holds the settings shared by every run
type Finder struct {
	Config   config.Config
	Hasher   scanner.Hasher // nil uses a DCT hasher of Config.HashSize
	Progress io.Writer      // nil disables the progress bar
}

// Result describes a completed run
type Result struct {
	OutputPath string
	Records    []types.SimilarityRecord
	Stats      types.ScanStats
	Extracted  bool                 // source was an archive unpacked into a temporary workspace
	Cache      *database.CacheStats // nil when no cache is configured
}

// New creates a Finder for cfg
func New(cfg config.Config) *Finder {
	return &Finder{Config: cfg}
}

// Run ranks every image under source by similarity to sample and writes the
// report. Any extracted workspace is removed before Run returns.
func (f *Finder) Run(ctx context.Context, source, sample string) (res *Result, err error) {
	// absent workspace means nothing to clean up
	var ws *archive.Workspace
	defer func() {
		if cerr := ws.Close(); cerr != nil {
			logging.LogError("Failed to remove workspace: %v", cerr)
			if err == nil {
				err = fmt.Errorf("cannot remove workspace: %w", cerr)
			}
		}
	}()

	if err := f.Config.Validate(); err != nil {
		return nil, err
	}
	if err := utils.ValidateSource(source); err != nil {
		return nil, err
	}
	if err := utils.ValidateSample(sample); err != nil {
		return nil, err
	}

	hasher, err := f.hasher()
	if err != nil {
		return nil, err
	}

	output := f.Config.Output
	if output == "" {
		output = utils.DefaultOutputPath(source)
	}

	sampleFP, _, err := hasher.FingerprintFile(sample)
	if err != nil {
		return nil, fmt.Errorf("sample image: %w", err)
	}
	logging.DebugLog("Sample fingerprint for %s: %s", sample, sampleFP)

	ws, err = archive.Open(ctx, source, f.Config.Password)
	if err != nil {
		return nil, err
	}
	if ws.Temporary() {
		logging.DebugLog("Scanning %s extracted into %s", source, ws.Dir)
	}

	options := scanner.ScanOptions{
		SourcePrefix: cacheNamespace(source),
		MaxWorkers:   f.Config.Workers,
		Progress:     f.Progress,
	}
	if f.Config.CachePath != "" {
		db, err := database.InitDatabase(f.Config.CachePath)
		if err != nil {
			return nil, fmt.Errorf("cannot open fingerprint cache: %w", err)
		}
		defer db.Close()
		options.Cache = db
	}

	records, stats, err := scanner.Scan(ctx, ws.Dir, sampleFP, hasher, options)
	if err != nil {
		return nil, err
	}

	ranked := report.Filter(report.Rank(records), f.Config.MinScore, f.Config.Limit)

	if err := report.WriteReport(output, source, ranked); err != nil {
		return nil, err
	}
	logging.LogInfo("Report written to %s (%d entries)", output, len(ranked))

	res = &Result{OutputPath: output, Records: ranked, Stats: stats, Extracted: ws.Temporary()}
	if options.Cache != nil {
		cs, err := database.GetCacheStats(options.Cache, options.SourcePrefix)
		if err != nil {
			logging.LogWarning("Cannot read fingerprint cache stats: %v", err)
		} else {
			res.Cache = cs
		}
	}
	return res, nil
}

func (f *Finder) hasher() (scanner.Hasher, error) {
	if f.Hasher != nil {
		return f.Hasher, nil
	}
	return imageprocessor.NewHasher(f.Config.HashSize)
}

// cacheNamespace keys cache entries by the absolute source path so the same
// relative label used from different directories does not collide
func cacheNamespace(source string) string {
	abs, err := filepath.Abs(source)
	if err != nil {
		return source
	}
	return abs
}
