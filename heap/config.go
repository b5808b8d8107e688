package heap

import (
	"log/slog"
	"os"
	"strconv"

	"github.com/joshuapare/heapkit/internal/logger"
	"github.com/joshuapare/heapkit/internal/segment"
)

// Environment variables read by ConfigFromEnv.
const (
	EnvMaxArena       = "HEAPKIT_MAX_ARENA"
	EnvSweepThreshold = "HEAPKIT_SWEEP_THRESHOLD"
	EnvLogAlloc       = "HEAPKIT_LOG_ALLOC"
)

// Config controls a Heap.
type Config struct {
	// MaxArena is the largest size in bytes the arena may grow to. The
	// segment reserves this much address space up front.
	MaxArena int

	// SweepThreshold is the number of releases that arms the next
	// allocation's coalescing sweep.
	SweepThreshold int

	// Logger receives debug records for growth and sweeps. Nil uses the
	// process-wide logger.
	Logger *slog.Logger
}

// DefaultConfig returns the configuration used when nothing is overridden.
func DefaultConfig() Config {
	return Config{
		MaxArena:       segment.DefaultLimit,
		SweepThreshold: DefaultSweepThreshold,
	}
}

// ConfigFromEnv starts from DefaultConfig and applies HEAPKIT_MAX_ARENA,
// HEAPKIT_SWEEP_THRESHOLD and HEAPKIT_LOG_ALLOC. Malformed or non-positive
// numbers are ignored. Any non-empty HEAPKIT_LOG_ALLOC sends debug records to
// stderr.
func ConfigFromEnv() Config {
	cfg := DefaultConfig()
	if v, ok := envInt(EnvMaxArena); ok {
		cfg.MaxArena = v
	}
	if v, ok := envInt(EnvSweepThreshold); ok {
		cfg.SweepThreshold = v
	}
	if os.Getenv(EnvLogAlloc) != "" {
		cfg.Logger = logger.New(logger.Options{Enabled: true, Level: slog.LevelDebug})
	}
	return cfg
}

func envInt(name string) (int, bool) {
	raw := os.Getenv(name)
	if raw == "" {
		return 0, false
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		return 0, false
	}
	return v, true
}

// normalize fills zero fields with defaults.
func (c Config) normalize() Config {
	if c.MaxArena <= 0 {
		c.MaxArena = segment.DefaultLimit
	}
	if c.SweepThreshold <= 0 {
		c.SweepThreshold = DefaultSweepThreshold
	}
	if c.Logger == nil {
		c.Logger = logger.L
	}
	return c
}
