package admin

import (
	"log/slog"
	"net/http"
)

// New assembles and returns the admin subtree handler.
//
// Security & control:
//   - Nothing is mounted unless explicitly enabled via options.
//   - Every enabled capability must have a non-nil Guard (explicit).
//
// Assembly errors are fail-fast and will panic.
func New(opts ...Option) http.Handler {
	b := newBuilder()
	for _, opt := range opts {
		if opt != nil {
			opt(b)
		}
	}
	return b.build()
}

// Option configures admin assembly.
type Option func(*Builder)

// WithLogger sets the logger used to report recovered handler panics.
// Default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(b *Builder) {
		requireBuilder(b)
		if l != nil {
			b.logger = l
		}
	}
}

// Builder collects capabilities and builds the final admin handler.
//
// It is intentionally not exposed; users configure admin via Options.
type Builder struct {
	logger *slog.Logger

	paths map[string]http.Handler // path -> handler (one capability per path)
}

func newBuilder() *Builder {
	return &Builder{
		paths: make(map[string]http.Handler),
	}
}

func (b *Builder) build() http.Handler {
	mux := http.NewServeMux()
	for path, h := range b.paths {
		if path == "" || h == nil {
			continue
		}
		mux.Handle(path, h)
	}
	logger := b.logger
	if logger == nil {
		logger = slog.Default()
	}
	return recoverer(logger, mux)
}

// recoverer turns a handler panic into a 500 so one broken capability cannot take
// down the admin subtree. http.ErrAbortHandler is re-raised.
func recoverer(logger *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}
			logger.Error("admin: handler panic", "path", r.URL.Path, "panic", rec)
			w.WriteHeader(http.StatusInternalServerError)
		}()
		next.ServeHTTP(w, r)
	})
}
