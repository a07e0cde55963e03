package logging

import (
	"fmt"
	"io"
	"log"
	"os"
	"sync"
	"time"
)

var (
	stdLogger   = log.New(os.Stderr, "", log.LstdFlags)
	debugLogger *log.Logger
	logFile     *os.File
	debugMode   bool
	mu          sync.Mutex
	isSetup     bool
)

// SetupLogger routes all log output to the specified log file
func SetupLogger(logFilePath string, debug bool) error {
	mu.Lock()
	defer mu.Unlock()

	if isSetup {
		return nil
	}

	var err error
	logFile, err = os.OpenFile(logFilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}

	debugLogger = log.New(logFile, "", log.LstdFlags)
	debugMode = debug

	debugLogger.Printf("--- simfinder log started at %s ---\n", time.Now().Format(time.RFC3339))

	isSetup = true
	return nil
}

// SetOutput replaces the fallback writer used when no log file is set up
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	stdLogger = log.New(w, "", 0)
}

// SetDebug toggles debug lines
func SetDebug(enabled bool) {
	mu.Lock()
	defer mu.Unlock()
	debugMode = enabled
}

// CloseLogger closes the log file
func CloseLogger() {
	mu.Lock()
	defer mu.Unlock()

	if logFile != nil {
		debugLogger.Printf("--- simfinder log closed at %s ---\n", time.Now().Format(time.RFC3339))
		logFile.Close()
		logFile = nil
		debugLogger = nil
		isSetup = false
	}
}

func output() *log.Logger {
	if debugLogger != nil {
		return debugLogger
	}
	return stdLogger
}

// LogInfo logs an information message
func LogInfo(format string, args ...interface{}) {
	mu.Lock()
	defer mu.Unlock()
	output().Printf("INFO: "+format, args...)
}

// DebugLog logs a message if debug mode is enabled
func DebugLog(format string, args ...interface{}) {
	mu.Lock()
	defer mu.Unlock()

	if debugMode {
		output().Printf(format, args...)
	}
}

// LogError logs an error message
func LogError(format string, args ...interface{}) {
	mu.Lock()
	defer mu.Unlock()
	output().Printf("ERROR: "+format, args...)
}

// LogWarning logs a warning message
func LogWarning(format string, args ...interface{}) {
	mu.Lock()
	defer mu.Unlock()
	output().Printf("WARNING: "+format, args...)
}

// LogImageProcessed logs the outcome for a single corpus file
func LogImageProcessed(path string, success bool, errMsg string) {
	mu.Lock()
	defer mu.Unlock()

	if !debugMode {
		return
	}
	if success {
		output().Printf("PROCESSED: %s", path)
	} else {
		output().Printf("FAILED: %s - Error: %s", path, errMsg)
	}
}
