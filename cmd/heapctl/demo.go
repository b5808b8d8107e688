package main

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/joshuapare/heapkit/heap"
)

func init() {
	rootCmd.AddCommand(newDemoCmd())
}

func newDemoCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Run the allocator demonstration",
		Long: `The demo command walks through the basic operations on a fresh arena:
allocate and release, growing reallocation, zeroed allocation, a burst of
releases that triggers coalescing, and four goroutines sharing the heap.

Example:
  heapctl demo
  heapctl demo --sweep-threshold 4 --no-color`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDemo()
		},
	}
	return cmd
}

// demoStep is one scenario of the demonstration.
type demoStep struct {
	name string
	run  func(h *heap.Heap) (string, error)
}

var demoSteps = []demoStep{
	{"malloc/free", demoAllocFree},
	{"realloc", demoRealloc},
	{"calloc", demoCalloc},
	{"coalescing", demoCoalesce},
	{"threads", demoThreads},
}

func runDemo() error {
	h, err := heap.New(heapConfig())
	if err != nil {
		return fmt.Errorf("failed to create heap: %w", err)
	}
	defer h.Close()

	failed := 0
	for i, step := range demoSteps {
		printVerbose("Test %d: %s\n", i+1, step.name)
		detail, err := step.run(h)
		if err != nil {
			failed++
			printCheck(false, "%s: %v", step.name, err)
			continue
		}
		printCheck(true, "%s: %s", step.name, detail)
	}

	if err := h.Verify(); err != nil {
		printCheck(false, "heap verify: %v", err)
		failed++
	} else {
		st := h.Stats()
		printCheck(true, "heap verify: arena %s, %d sweeps", bytesString(st.ArenaBytes), st.Sweeps)
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d demo checks failed", failed, len(demoSteps)+1)
	}
	printInfo("All tests completed successfully!\n")
	return nil
}

func demoAllocFree(h *heap.Heap) (string, error) {
	const msg = "Hello from heapkit!"
	ref, p, err := h.Alloc(100)
	if err != nil {
		return "", err
	}
	copy(p, msg)
	got, err := h.Payload(ref)
	if err != nil {
		return "", err
	}
	if string(got[:len(msg)]) != msg {
		return "", fmt.Errorf("read back %q", got[:len(msg)])
	}
	h.Free(ref)
	return fmt.Sprintf("stored %q", msg), nil
}

func demoRealloc(h *heap.Heap) (string, error) {
	const (
		small  = "Small"
		suffix = " -> Expanded!"
	)
	ref, p, err := h.Alloc(10)
	if err != nil {
		return "", err
	}
	copy(p, small)

	ref, p, err = h.Realloc(ref, 100)
	if err != nil {
		return "", err
	}
	copy(p[len(small):], suffix)
	want := small + suffix
	if got := string(p[:len(want)]); got != want {
		return "", fmt.Errorf("after realloc got %q", got)
	}
	h.Free(ref)
	return fmt.Sprintf("grew to %q", want), nil
}

func demoCalloc(h *heap.Heap) (string, error) {
	const count = 10
	ref, p, err := h.Calloc(count, 8)
	if err != nil {
		return "", err
	}
	defer h.Free(ref)
	for i := range count {
		if v := binary.LittleEndian.Uint64(p[i*8:]); v != 0 {
			return "", fmt.Errorf("element %d is %d", i, v)
		}
	}
	return fmt.Sprintf("%d integers zeroed", count), nil
}

func demoCoalesce(h *heap.Heap) (string, error) {
	before := h.Stats().Sweeps
	refs := make([]heap.Ref, 10)
	for i := range refs {
		ref, p, err := h.Alloc(128)
		if err != nil {
			return "", err
		}
		copy(p, bytes.Repeat([]byte{byte(i)}, len(p)))
		refs[i] = ref
	}
	for _, ref := range refs {
		h.Free(ref)
	}

	// The release count has reached the threshold; this allocation sweeps.
	ref, _, err := h.Alloc(512)
	if err != nil {
		return "", err
	}
	defer h.Free(ref)

	sweeps := h.Stats().Sweeps - before
	if sweeps == 0 && heapConfig().SweepThreshold <= len(refs) {
		return "", errors.New("no sweep after releases reached the threshold")
	}
	if pairs := h.AdjacentFree(); pairs != 0 && sweeps > 0 {
		return "", fmt.Errorf("%d adjacent free pairs after sweep", pairs)
	}
	return fmt.Sprintf("%d sweep(s), 512 bytes served from merged space", sweeps), nil
}

func demoThreads(h *heap.Heap) (string, error) {
	res, err := runWorkers(h, 4, 100, 64)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%d workers × %d iterations", res.Workers, res.Iterations), nil
}
