package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/joshuapare/heapkit/heap"
)

var (
	walkCount     int
	walkFreeEvery int
	walkGrow      bool
)

func init() {
	cmd := newWalkCmd()
	cmd.Flags().IntVar(&walkCount, "count", 12, "Number of allocations in the workload")
	cmd.Flags().IntVar(&walkFreeEvery, "free-every", 3, "Release every Nth allocation (0 keeps all)")
	cmd.Flags().BoolVar(&walkGrow, "realloc", true, "Grow the first surviving allocation after the releases")
	rootCmd.AddCommand(cmd)
}

func newWalkCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "walk",
		Short: "Print the block list after a scripted workload",
		Long: `The walk command allocates a run of blocks of increasing size,
releases every Nth one, optionally grows a survivor, and prints every block of
the arena in address order.

Example:
  heapctl walk
  heapctl walk --count 40 --free-every 2 --sweep-threshold 5`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWalk()
		},
	}
	return cmd
}

func runWalk() error {
	if walkCount <= 0 {
		return fmt.Errorf("count must be positive")
	}

	h, err := heap.New(heapConfig())
	if err != nil {
		return fmt.Errorf("failed to create heap: %w", err)
	}
	defer h.Close()

	if err := walkWorkload(h); err != nil {
		return err
	}
	if err := h.Verify(); err != nil {
		printError("%v\n", err)
		return err
	}

	blocks := h.Blocks()
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"#", "Header", "Ref", "Size", "State"})
	table.SetAlignment(tablewriter.ALIGN_RIGHT)
	for i, b := range blocks {
		table.Append([]string{
			strconv.Itoa(i),
			fmt.Sprintf("%#x", b.Offset),
			fmt.Sprintf("%#x", uint64(b.Ref)),
			numbers.Sprintf("%d", b.Size),
			b.State.String(),
		})
	}
	if !quiet {
		table.Render()
	}

	st := h.Stats()
	printInfo("%d blocks, arena %s, in use %s, %d adjacent free pairs\n",
		len(blocks), bytesString(st.ArenaBytes), bytesString(st.InUseBytes), h.AdjacentFree())
	return nil
}

// walkWorkload allocates walkCount blocks of growing size, releases every
// walkFreeEvery-th one and grows the first survivor.
func walkWorkload(h *heap.Heap) error {
	refs := make([]heap.Ref, 0, walkCount)
	for i := range walkCount {
		ref, p, err := h.Alloc(16 * (i + 1))
		if err != nil {
			return fmt.Errorf("allocation %d: %w", i, err)
		}
		p[0] = byte(i)
		refs = append(refs, ref)
	}
	printVerbose("Allocated %d blocks\n", len(refs))

	var survivors []heap.Ref
	for i, ref := range refs {
		if walkFreeEvery > 0 && i%walkFreeEvery == 0 {
			h.Free(ref)
			continue
		}
		survivors = append(survivors, ref)
	}
	printVerbose("Released %d blocks\n", len(refs)-len(survivors))

	if walkGrow && len(survivors) > 0 {
		size, err := h.UsableSize(survivors[0])
		if err != nil {
			return err
		}
		if _, _, err := h.Realloc(survivors[0], size*4); err != nil {
			return fmt.Errorf("realloc: %w", err)
		}
		printVerbose("Grew block %#x from %d to %d bytes\n", uint64(survivors[0]), size, size*4)
	}
	return nil
}
