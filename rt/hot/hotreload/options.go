package hotreload

import (
	"log/slog"
	"time"
)

const (
	defaultInterval     = 30 * time.Second
	defaultFetchTimeout = 30 * time.Second
)

type config struct {
	name     string
	interval time.Duration
	logger   *slog.Logger
	fetch    Fetcher

	fetchTimeout time.Duration

	store    Store
	storeKey string
}

// Option configures a Reloader.
type Option func(*config)

// WithName sets a human-friendly name used in logs.
func WithName(name string) Option {
	return func(c *config) { c.name = name }
}

// WithInterval sets the Run period. Non-positive values keep the default (30s).
func WithInterval(d time.Duration) Option {
	return func(c *config) {
		if d > 0 {
			c.interval = d
		}
	}
}

// WithFetchTimeout bounds each shared fetch started by Reload. Non-positive values
// keep the default (30s).
func WithFetchTimeout(d time.Duration) Option {
	return func(c *config) {
		if d > 0 {
			c.fetchTimeout = d
		}
	}
}

// WithLogger sets the logger. Default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithFetcher sets the payload origin used by Reload and Run.
//
// A Reloader without a fetcher can still publish via ConsumeKafka and Restore.
func WithFetcher(f Fetcher) Option {
	return func(c *config) { c.fetch = f }
}

// WithStore persists every published payload under key, for Restore.
func WithStore(s Store, key string) Option {
	return func(c *config) {
		c.store = s
		c.storeKey = key
	}
}

func defaultConfig() config {
	return config{
		interval:     defaultInterval,
		fetchTimeout: defaultFetchTimeout,
		logger:       slog.Default(),
	}
}
