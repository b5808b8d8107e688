package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/joshuapare/heapkit/heap"
	"github.com/joshuapare/heapkit/internal/logger"
)

var (
	// Global flags
	verbose        bool
	quiet          bool
	noColor        bool
	maxArena       int
	sweepThreshold int
	logLevel       string
)

var rootCmd = &cobra.Command{
	Use:   "heapctl",
	Short: "Drive and inspect the heapkit allocator",
	Long: `heapctl runs workloads against a heapkit arena. It can replay the
reference demonstration, hammer the allocator from many goroutines, and print
the block list left behind by a workload.

Arena settings come from HEAPKIT_MAX_ARENA, HEAPKIT_SWEEP_THRESHOLD and
HEAPKIT_LOG_ALLOC unless overridden by flags.`,
	Version:           "0.1.0",
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().
		BoolVarP(&quiet, "quiet", "q", false, "Suppress all output except errors")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().
		IntVar(&maxArena, "max-arena", 0, "Largest arena size in bytes (default from env or 1 GiB)")
	rootCmd.PersistentFlags().
		IntVar(&sweepThreshold, "sweep-threshold", 0, "Releases between coalescing sweeps (default from env or 10)")
	rootCmd.PersistentFlags().
		StringVar(&logLevel, "log-level", "", "Allocator log level: debug, info, warn, error")
}

func execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// setup applies the global flags before any subcommand runs.
func setup(cmd *cobra.Command, args []string) error {
	if noColor {
		color.NoColor = true
	}
	if logLevel != "" {
		logger.Init(logger.Options{Enabled: true, Level: logger.ParseLevel(logLevel)})
	}
	return nil
}

// heapConfig merges environment settings with flag overrides.
func heapConfig() heap.Config {
	cfg := heap.ConfigFromEnv()
	if maxArena > 0 {
		cfg.MaxArena = maxArena
	}
	if sweepThreshold > 0 {
		cfg.SweepThreshold = sweepThreshold
	}
	if logLevel != "" {
		cfg.Logger = logger.L
	}
	return cfg
}

// Helper functions for output

var numbers = message.NewPrinter(language.English)

// printInfo prints an info message if not in quiet mode
func printInfo(format string, args ...interface{}) {
	if !quiet {
		fmt.Fprintf(os.Stdout, format, args...)
	}
}

// printError prints an error message
func printError(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "Error: "+format, args...)
}

// printVerbose prints a verbose message if verbose mode is enabled
func printVerbose(format string, args ...interface{}) {
	if verbose && !quiet {
		fmt.Fprintf(os.Stdout, format, args...)
	}
}

// printCheck prints a pass or fail line for a named check.
func printCheck(ok bool, format string, args ...interface{}) {
	mark := color.GreenString("✓")
	if !ok {
		mark = color.RedString("✗")
	}
	printInfo("%s %s\n", mark, fmt.Sprintf(format, args...))
}

// bytesString renders n with thousands separators.
func bytesString(n int64) string {
	return numbers.Sprintf("%d bytes", n)
}
