package main

import (
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/joshuapare/heapkit/heap"
)

// workerResult summarises a runWorkers call.
type workerResult struct {
	Workers    int
	Iterations int
	Elapsed    time.Duration
}

// Ops returns the number of allocate/verify/release cycles performed.
func (r workerResult) Ops() int { return r.Workers * r.Iterations }

// runWorkers starts workers goroutines that each perform iterations cycles of
// allocate, write a worker-tagged message, read it back and release. The
// first mismatch or allocation failure stops the run.
func runWorkers(h *heap.Heap, workers, iterations, size int) (workerResult, error) {
	res := workerResult{Workers: workers, Iterations: iterations}
	start := time.Now()

	var g errgroup.Group
	for w := 1; w <= workers; w++ {
		g.Go(func() error {
			for i := range iterations {
				msg := fmt.Sprintf("Thread %d - iteration %d", w, i)
				n := max(size, len(msg))
				ref, p, err := h.Alloc(n)
				if err != nil {
					return fmt.Errorf("worker %d iteration %d: %w", w, i, err)
				}
				copy(p, msg)

				got, err := h.Payload(ref)
				if err != nil {
					return fmt.Errorf("worker %d iteration %d: %w", w, i, err)
				}
				if string(got[:len(msg)]) != msg {
					return fmt.Errorf("worker %d iteration %d: read %q, wrote %q", w, i, got[:len(msg)], msg)
				}
				h.Free(ref)
			}
			return nil
		})
	}
	err := g.Wait()
	res.Elapsed = time.Since(start)
	return res, err
}
