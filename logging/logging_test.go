package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestWarningsReachFallbackWriter(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer SetOutput(os.Stderr)

	LogWarning("skipping %s", "broken.jpg")

	if !strings.Contains(buf.String(), "WARNING: skipping broken.jpg") {
		t.Errorf("unexpected log output: %q", buf.String())
	}
}

func TestDebugLinesRequireDebugMode(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer SetOutput(os.Stderr)

	SetDebug(false)
	DebugLog("hidden")
	LogImageProcessed("a.png", true, "")
	if buf.Len() != 0 {
		t.Fatalf("expected no output without debug mode, got %q", buf.String())
	}

	SetDebug(true)
	defer SetDebug(false)
	DebugLog("visible")
	LogImageProcessed("b.png", false, "bad header")

	out := buf.String()
	if !strings.Contains(out, "visible") || !strings.Contains(out, "FAILED: b.png - Error: bad header") {
		t.Errorf("unexpected debug output: %q", out)
	}
}

func TestSetupLoggerWritesToFile(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "simfinder.log")
	if err := SetupLogger(logPath, false); err != nil {
		t.Fatal(err)
	}
	LogError("report failed")
	CloseLogger()

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "ERROR: report failed") {
		t.Errorf("log file missing error line: %q", data)
	}
}
