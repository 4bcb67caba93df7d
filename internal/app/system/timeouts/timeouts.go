// Package timeouts provides centralized timeout values for handler operations.
package timeouts

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Defaults used until Configure is called.
const (
	DefaultPing  = 2 * time.Second
	DefaultShort = 5 * time.Second
	DefaultFetch = 15 * time.Second
	DefaultLong  = 30 * time.Second
)

var mu sync.RWMutex

var (
	ping  = DefaultPing
	short = DefaultShort
	fetch = DefaultFetch
	long  = DefaultLong
)

// Ping returns the timeout for health checks.
func Ping() time.Duration {
	mu.RLock()
	defer mu.RUnlock()
	return ping
}

// Short returns the timeout for single-document reads and writes.
func Short() time.Duration {
	mu.RLock()
	defer mu.RUnlock()
	return short
}

// Fetch returns the timeout for one request to the grades endpoint.
func Fetch() time.Duration {
	mu.RLock()
	defer mu.RUnlock()
	return fetch
}

// Long returns the timeout for bulk writes such as a grade sync.
func Long() time.Duration {
	mu.RLock()
	defer mu.RUnlock()
	return long
}

// Config holds timeout overrides. Zero fields keep the current value.
type Config struct {
	Ping  time.Duration
	Short time.Duration
	Fetch time.Duration
	Long  time.Duration
}

// Configure sets custom timeout values.
func Configure(cfg Config) {
	mu.Lock()
	defer mu.Unlock()
	if cfg.Ping > 0 {
		ping = cfg.Ping
	}
	if cfg.Short > 0 {
		short = cfg.Short
	}
	if cfg.Fetch > 0 {
		fetch = cfg.Fetch
	}
	if cfg.Long > 0 {
		long = cfg.Long
	}
}

// Reset restores all timeouts to defaults.
func Reset() {
	mu.Lock()
	defer mu.Unlock()
	ping = DefaultPing
	short = DefaultShort
	fetch = DefaultFetch
	long = DefaultLong
}

// Current returns the current timeout configuration.
func Current() Config {
	mu.RLock()
	defer mu.RUnlock()
	return Config{Ping: ping, Short: short, Fetch: fetch, Long: long}
}

// WithTimeout creates a context with timeout and logs when the deadline
// was the reason the operation ended.
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
