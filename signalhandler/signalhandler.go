package signalhandler

import (
	"context"
	"os"
	"os/signal"
	"runtime"
	"syscall"
)

// NotifyContext returns a context cancelled on SIGINT or SIGTERM, so a run can
// unwind and release its workspace instead of exiting mid-extraction
func NotifyContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

// GetOptimalProcs returns the number of fingerprinting workers for this machine
func GetOptimalProcs() int {
	numCPU := runtime.NumCPU()

	// leave headroom for the walker and the progress display
	maxProcs := (numCPU * 3) / 4
	if maxProcs < 1 {
		maxProcs = 1
	}

	return maxProcs
}
