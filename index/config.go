package index

import (
	"os"
	"strconv"
	"strings"
	"sync"
)

// Config configures cache sizing and behavior for index construction.
//
// Use DefaultConfig for environment-derived defaults, or build one
// directly and pass it to New/NewCache.
type Config struct {
	// CacheSize is the maximum number of distinct (pattern, vocabulary)
	// index builds the process-wide LRU cache holds at once.
	//
	// Default: 50, matching FASTER_OUTLINES_CACHE_SIZE's default in the
	// original faster-outlines project.
	CacheSize int

	// DisableCache makes every cache lookup miss and every insert a
	// no-op, forcing every LazyIndex to build from scratch. Useful for
	// benchmarking the builder in isolation or for workloads where the
	// vocabulary changes on every call and caching would only waste
	// memory.
	DisableCache bool

	// Workers is a hint for how much parallelism a future builder
	// scheduler may use. The current builder is single-goroutine per
	// LazyIndex (see builder.go); this field is threaded through
	// configuration today so a future fan-out scheduler has a single,
	// already-wired place to read it from.
	Workers int
}

// Validate reports whether c is usable, returning an *IndexError with
// Kind InputInvalid otherwise.
func (c Config) Validate() error {
	if c.CacheSize <= 0 {
		return &IndexError{Kind: InputInvalid, Message: "CacheSize must be > 0"}
	}
	if c.Workers <= 0 {
		return &IndexError{Kind: InputInvalid, Message: "Workers must be > 0"}
	}
	return nil
}

// WithCacheSize returns a copy of c with CacheSize set.
func (c Config) WithCacheSize(n int) Config {
	c.CacheSize = n
	return c
}

// WithDisableCache returns a copy of c with DisableCache set.
func (c Config) WithDisableCache(disable bool) Config {
	c.DisableCache = disable
	return c
}

const (
	envCacheSize    = "FASTER_OUTLINES_CACHE_SIZE"
	envDisableCache = "FASTER_OUTLINES_DISABLE_CACHE"
	envWorkers      = "FASTER_OUTLINES_WORKERS"

	defaultCacheSize = 50
	defaultWorkers   = 1
)

var envConfigOnce = sync.OnceValue(loadEnvConfig)

// DefaultConfig returns the configuration derived from the process
// environment, computed once per process and cached thereafter:
//
//   - FASTER_OUTLINES_CACHE_SIZE: positive integer, default 50.
//   - FASTER_OUTLINES_DISABLE_CACHE: "1"/"true"/"yes" (case-insensitive)
//     disables caching entirely; anything else (including unset) leaves
//     it enabled.
//   - FASTER_OUTLINES_WORKERS: positive integer parallelism hint,
//     default 1.
//
// These mirror FASTER_OUTLINES_CACHE_SIZE / FASTER_OUTLINES_DISABLE_CACHE
// from the project this package is modeled on; they are also the
// implementation of what is referred to elsewhere as FSM_CACHE_SIZE and
// DISABLE_CACHE.
func DefaultConfig() Config {
	return envConfigOnce()
}

func loadEnvConfig() Config {
	cfg := Config{
		CacheSize: defaultCacheSize,
		Workers:   defaultWorkers,
	}
	if v := os.Getenv(envCacheSize); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.CacheSize = n
		}
	}
	if v := os.Getenv(envWorkers); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Workers = n
		}
	}
	switch strings.ToLower(strings.TrimSpace(os.Getenv(envDisableCache))) {
	case "1", "true", "yes":
		cfg.DisableCache = true
	}
	return cfg
}
