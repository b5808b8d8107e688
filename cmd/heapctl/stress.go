package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/joshuapare/heapkit/heap"
)

var (
	stressWorkers    int
	stressIterations int
	stressSize       int
)

func init() {
	cmd := newStressCmd()
	cmd.Flags().IntVarP(&stressWorkers, "workers", "w", 4, "Number of concurrent workers")
	cmd.Flags().IntVarP(&stressIterations, "iterations", "n", 1000, "Cycles per worker")
	cmd.Flags().IntVarP(&stressSize, "size", "s", 64, "Bytes requested per allocation")
	rootCmd.AddCommand(cmd)
}

func newStressCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stress",
		Short: "Run concurrent allocate/release cycles",
		Long: `The stress command starts a number of workers that share one arena.
Each worker allocates, writes a tagged message, reads it back and releases,
failing on the first mismatch. The arena is verified afterwards.

Example:
  heapctl stress
  heapctl stress --workers 16 --iterations 10000 --size 256`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStress()
		},
	}
	return cmd
}

func runStress() error {
	if stressWorkers <= 0 || stressIterations <= 0 || stressSize <= 0 {
		return fmt.Errorf("workers, iterations and size must be positive")
	}

	h, err := heap.New(heapConfig())
	if err != nil {
		return fmt.Errorf("failed to create heap: %w", err)
	}
	defer h.Close()

	printVerbose("Starting %d workers × %d iterations of %d bytes\n",
		stressWorkers, stressIterations, stressSize)

	res, err := runWorkers(h, stressWorkers, stressIterations, stressSize)
	if err != nil {
		printCheck(false, "stress: %v", err)
		return err
	}
	if err := h.Verify(); err != nil {
		printCheck(false, "verify: %v", err)
		return err
	}

	st := h.Stats()
	printCheck(true, "%s cycles in %s", numbers.Sprintf("%d", res.Ops()), res.Elapsed.Round(time.Millisecond))
	printInfo("  arena:       %s\n", bytesString(st.ArenaBytes))
	printInfo("  in use:      %s\n", bytesString(st.InUseBytes))
	printInfo("  reused:      %s\n", numbers.Sprintf("%d", st.AllocFastPath))
	printInfo("  grown:       %s (%s)\n", numbers.Sprintf("%d", st.GrowCalls), bytesString(st.GrowBytes))
	printInfo("  splits:      %s\n", numbers.Sprintf("%d", st.SplitCount))
	printInfo("  merges:      %s\n", numbers.Sprintf("%d", st.CoalesceForward+st.CoalesceBackward))
	printInfo("  sweeps:      %s\n", numbers.Sprintf("%d", st.Sweeps))
	return nil
}
