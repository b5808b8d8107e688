package main

import (
	"bytes"
	"os"
	"testing"

	"github.com/fatih/color"
)

// captureOutput captures stdout while running a function
func captureOutput(t *testing.T, fn func() error) (string, error) {
	t.Helper()

	origStdout := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("failed to create pipe: %v", err)
	}
	os.Stdout = w

	done := make(chan []byte)
	go func() {
		var buf bytes.Buffer
		_, _ = buf.ReadFrom(r)
		done <- buf.Bytes()
	}()

	fnErr := fn()

	w.Close()
	os.Stdout = origStdout
	out := <-done
	r.Close()

	return string(out), fnErr
}

// resetFlags restores global flags to their defaults for a test.
func resetFlags(t *testing.T) {
	t.Helper()
	verbose, quiet, noColor = false, false, true
	maxArena, sweepThreshold, logLevel = 16<<20, 0, ""
	stressWorkers, stressIterations, stressSize = 4, 100, 64
	walkCount, walkFreeEvery, walkGrow = 12, 3, true

	prev := color.NoColor
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = prev })
}
