// Package timeouts centralizes the context deadlines handlers put on database
// and I/O work, so a slow Mongo never wedges a request goroutine forever.
//
// Values start at the defaults below and can be tuned per deployment with
// Configure or ConfigureFromEnv at startup. Pick the tier by the shape of the
// operation:
//   - Ping: the health endpoint's connectivity probe
//   - Short: one-document work (load an activity, look up a user by email)
//   - Medium: list queries and simple writes (board views, vote upserts)
//   - Long: multi-collection work (delete with vote cascade, roster writes)
//   - Batch: the lifecycle sweep and GridFS image streaming
package timeouts

import (
	"context"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Defaults, used until Configure or ConfigureFromEnv overrides them.
const (
	DefaultPing   = 2 * time.Second
	DefaultShort  = 5 * time.Second
	DefaultMedium = 10 * time.Second
	DefaultLong   = 30 * time.Second
	DefaultBatch  = 60 * time.Second
)

var (
	mu     sync.RWMutex
	ping   = DefaultPing
	short  = DefaultShort
	medium = DefaultMedium
	long   = DefaultLong
	batch  = DefaultBatch
)

// Ping is the deadline for the health endpoint's Mongo probe.
func Ping() time.Duration {
	mu.RLock()
	defer mu.RUnlock()
	return ping
}

// Short is the deadline for single-document reads and lookups.
func Short() time.Duration {
	mu.RLock()
	defer mu.RUnlock()
	return short
}

// Medium is the deadline for list queries and simple writes, which is most of
// the board API: activity lists, poll views, vote upserts.
func Medium() time.Duration {
	mu.RLock()
	defer mu.RUnlock()
	return medium
}

// Long is the deadline for work spanning collections, such as deleting an
// activity with its vote cascade or replacing a voting roster under retry.
func Long() time.Duration {
	mu.RLock()
	defer mu.RUnlock()
	return long
}

// Batch is the deadline for the lifecycle sweep and image streaming.
func Batch() time.Duration {
	mu.RLock()
	defer mu.RUnlock()
	return batch
}

// Config carries override values; zero fields keep the current setting.
type Config struct {
	Ping   time.Duration
	Short  time.Duration
	Medium time.Duration
	Long   time.Duration
	Batch  time.Duration
}

// Configure applies cfg over the current values. Call during startup, before
// the router is built.
func Configure(cfg Config) {
	mu.Lock()
	defer mu.Unlock()
	if cfg.Ping > 0 {
		ping = cfg.Ping
	}
	if cfg.Short > 0 {
		short = cfg.Short
	}
	if cfg.Medium > 0 {
		medium = cfg.Medium
	}
	if cfg.Long > 0 {
		long = cfg.Long
	}
	if cfg.Batch > 0 {
		batch = cfg.Batch
	}
}

// Reset restores the defaults. Tests use this to undo Configure.
func Reset() {
	Configure(Config{DefaultPing, DefaultShort, DefaultMedium, DefaultLong, DefaultBatch})
}

// ConfigureFromEnv reads duration overrides from TIMEOUT_PING, TIMEOUT_SHORT,
// TIMEOUT_MEDIUM, TIMEOUT_LONG, and TIMEOUT_BATCH (time.ParseDuration syntax,
// e.g. "500ms", "45s", "2m"). Unset or unparsable variables keep the current
// value. Returns how many overrides took effect, which the startup hook logs.
func ConfigureFromEnv() int {
	mu.Lock()
	defer mu.Unlock()

	overrides := []struct {
		env string
		dst *time.Duration
	}{
		{"TIMEOUT_PING", &ping},
		{"TIMEOUT_SHORT", &short},
		{"TIMEOUT_MEDIUM", &medium},
		{"TIMEOUT_LONG", &long},
		{"TIMEOUT_BATCH", &batch},
	}

	applied := 0
	for _, o := range overrides {
		v := os.Getenv(o.env)
		if v == "" {
			continue
		}
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			*o.dst = d
			applied++
		}
	}
	return applied
}

// Current snapshots the active configuration for logging.
func Current() Config {
	mu.RLock()
	defer mu.RUnlock()
	return Config{Ping: ping, Short: short, Medium: medium, Long: long, Batch: batch}
}

// WithTimeout wraps context.WithTimeout and logs a warning when the deadline
// fires, naming the operation. Used on the paths where a timeout is worth
// noticing, like the sweep and roster writes.
//
//	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "roster purchase")
//	defer cancel()
func WithTimeout(parent context.Context, timeout time.Duration, log *zap.Logger, operation string) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(parent, timeout)
	return ctx, func() {
		if ctx.Err() == context.DeadlineExceeded && log != nil {
			log.Warn("operation timed out",
				zap.String("operation", operation),
				zap.Duration("timeout", timeout),
			)
		}
		cancel()
	}
}
