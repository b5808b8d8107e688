package main

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshuapare/heapkit/heap"
)

func TestRunDemo(t *testing.T) {
	resetFlags(t)
	verbose = true

	out, err := captureOutput(t, runDemo)
	require.NoError(t, err)

	for _, step := range demoSteps {
		assert.Contains(t, out, "✓ "+step.name)
	}
	assert.Contains(t, out, "Test 5: threads")
	assert.Contains(t, out, `grew to "Small -> Expanded!"`)
	assert.Contains(t, out, "4 workers × 100 iterations")
	assert.Contains(t, out, "All tests completed successfully!")
	assert.NotContains(t, out, "✗")
}

func TestRunDemo_Quiet(t *testing.T) {
	resetFlags(t)
	quiet = true

	out, err := captureOutput(t, runDemo)
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestRunStress(t *testing.T) {
	resetFlags(t)
	stressWorkers, stressIterations, stressSize = 8, 250, 100

	out, err := captureOutput(t, runStress)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ 2,000 cycles")
	assert.Contains(t, out, "in use:      0 bytes")
}

func TestRunStress_RejectsBadFlags(t *testing.T) {
	resetFlags(t)
	stressWorkers = 0
	_, err := captureOutput(t, runStress)
	require.Error(t, err)
}

func TestRunStress_ArenaTooSmall(t *testing.T) {
	resetFlags(t)
	maxArena = 4096
	stressWorkers, stressIterations, stressSize = 2, 10, 1<<16

	out, err := captureOutput(t, runStress)
	require.ErrorIs(t, err, heap.ErrNoSpace)
	assert.Contains(t, out, "✗ stress")
}

func TestRunWalk(t *testing.T) {
	resetFlags(t)
	walkCount, walkFreeEvery, walkGrow = 6, 2, false

	out, err := captureOutput(t, runWalk)
	require.NoError(t, err)

	// Allocations 0, 2 and 4 are released; nothing is merged before a sweep.
	assert.Equal(t, 3, strings.Count(out, " free |"))
	assert.Equal(t, 3, strings.Count(out, " fresh |"))
	assert.Contains(t, out, "6 blocks")
	assert.Contains(t, out, "0 adjacent free pairs")
}

func TestRunWalk_Realloc(t *testing.T) {
	resetFlags(t)
	walkCount, walkFreeEvery = 4, 0

	out, err := captureOutput(t, runWalk)
	require.NoError(t, err)
	// The first block is released by the move and a fifth one appended.
	assert.Contains(t, out, "5 blocks")
	assert.Equal(t, 1, strings.Count(out, " free |"))
}

func TestHeapConfig_FlagsOverrideEnv(t *testing.T) {
	resetFlags(t)
	t.Setenv(heap.EnvSweepThreshold, "7")
	t.Setenv(heap.EnvMaxArena, "8192")

	cfg := heapConfig()
	assert.Equal(t, 7, cfg.SweepThreshold)
	assert.Equal(t, 16<<20, cfg.MaxArena)

	sweepThreshold = 3
	assert.Equal(t, 3, heapConfig().SweepThreshold)
}

func TestBytesString(t *testing.T) {
	assert.Equal(t, "1,048,576 bytes", bytesString(1<<20))
	assert.Equal(t, "0 bytes", bytesString(0))
}
