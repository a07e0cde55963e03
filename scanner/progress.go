package scanner

import (
	"fmt"
	"io"
	"sync"
	"time"

	"simfinder/logging"
	"simfinder/types"

	"github.com/schollz/progressbar/v3"
)

// ProgressTracker tracks progress of the scan operation
type ProgressTracker struct {
	mu         sync.Mutex
	bar        *progressbar.ProgressBar
	totalFiles int
	processed  int
	errors     int
	cacheHits  int
	formats    map[string]int
}

// NewProgressTracker creates a tracker; a nil writer disables the progress bar
func NewProgressTracker(totalFiles int, w io.Writer) *ProgressTracker {
	tracker := &ProgressTracker{
		totalFiles: totalFiles,
		formats:    make(map[string]int),
	}
	if w != nil && totalFiles > 0 {
		tracker.bar = progressbar.NewOptions(totalFiles,
			progressbar.OptionSetDescription("Fingerprinting"),
			progressbar.OptionSetWriter(w),
			progressbar.OptionShowCount(),
			progressbar.OptionThrottle(100*time.Millisecond),
			progressbar.OptionClearOnFinish(),
		)
	}
	return tracker
}

// Add records the outcome for one file
func (p *ProgressTracker) Add(result ProcessImageResult) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.processed++
	if result.Success {
		p.formats[string(result.Format)]++
		if result.Cached {
			p.cacheHits++
		}
		logging.LogImageProcessed(result.Path, true, "")
	} else {
		p.errors++
		errMsg := "unknown error"
		if result.Error != nil {
			errMsg = result.Error.Error()
		}
		logging.LogWarning("Skipping %s: %s", result.Path, errMsg)
		logging.LogImageProcessed(result.Path, false, errMsg)
	}

	if p.bar != nil {
		p.bar.Add(1)
	}
}

// Stop ends the progress display
func (p *ProgressTracker) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.bar != nil {
		p.bar.Finish()
	}
}

// Stats returns a snapshot of the counters
func (p *ProgressTracker) Stats() types.ScanStats {
	p.mu.Lock()
	defer p.mu.Unlock()

	formats := make(map[string]int, len(p.formats))
	for k, v := range p.formats {
		formats[k] = v
	}
	return types.ScanStats{
		TotalFiles: p.totalFiles,
		Scored:     p.processed - p.errors,
		Skipped:    p.errors,
		CacheHits:  p.cacheHits,
		Formats:    formats,
	}
}

// PrintCompletionStats logs a summary after scan completion
func PrintCompletionStats(tracker *ProgressTracker, startTime time.Time) {
	stats := tracker.Stats()
	elapsed := time.Since(startTime)

	logging.DebugLog("Scan completed in %v. Files: %d, Scored: %d, Skipped: %d, Cache hits: %d, Formats: %v",
		elapsed, stats.TotalFiles, stats.Scored, stats.Skipped, stats.CacheHits, stats.Formats)

	summary := fmt.Sprintf("Scored %d of %d files in %v", stats.Scored, stats.TotalFiles, elapsed.Round(time.Millisecond))
	if stats.Skipped > 0 {
		summary += fmt.Sprintf(" (%d skipped)", stats.Skipped)
	}
	logging.LogInfo("%s", summary)
}
