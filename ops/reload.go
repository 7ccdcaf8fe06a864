package ops

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/evan-idocoding/hotkit/rt/hot/hotreload"
)

// Reloader is the subset of *hotreload.Reloader used by reload handlers.
type Reloader interface {
	Reload(ctx context.Context) (hotreload.Result, error)
	Stats() hotreload.Stats
}

type reloadConfig struct {
	format  Format
	timeout time.Duration
}

// ReloadOption configures reload handlers.
type ReloadOption func(*reloadConfig)

// WithReloadDefaultFormat sets the default response format for reload handlers.
//
// Default is FormatText.
func WithReloadDefaultFormat(f Format) ReloadOption {
	return func(c *reloadConfig) { c.format = f }
}

// WithReloadTimeout bounds a triggered reload. Non-positive means no extra bound
// beyond the request context.
func WithReloadTimeout(d time.Duration) ReloadOption {
	return func(c *reloadConfig) { c.timeout = d }
}

func applyReloadOptions(opts []ReloadOption) reloadConfig {
	cfg := reloadConfig{format: FormatText}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	cfg.format = normalizeFormat(cfg.format)
	return cfg
}

type reloadTriggerResponse struct {
	OK     bool              `json:"ok"`
	Error  string            `json:"error,omitempty"`
	Result *hotreload.Result `json:"result,omitempty"`
}

type reloadStatsResponse struct {
	OK    bool             `json:"ok"`
	Error string           `json:"error,omitempty"`
	Stats *hotreload.Stats `json:"stats,omitempty"`
}

// ReloadTriggerHandler returns a handler that runs one reload and reports its result.
//
// Behavior:
//   - POST only; other methods return 405.
//   - Concurrent triggers share one in-flight fetch (see hotreload.Reloader.Reload).
//   - Deadlines return 504, fetch failures 502, decode failures 422, everything else 500.
func ReloadTriggerHandler(rl Reloader, opts ...ReloadOption) http.Handler {
	if rl == nil {
		panic("ops: nil Reloader")
	}
	cfg := applyReloadOptions(opts)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		format := formatFromRequest(r, cfg.format)
		write := func(code int, resp reloadTriggerResponse) {
			writeResponse(w, r, format, code, resp.OK, resp.Error, resp, func() string {
				return renderReloadResultText(*resp.Result)
			})
		}
		if r.Method != http.MethodPost {
			w.Header().Set("Allow", "POST")
			write(http.StatusMethodNotAllowed, reloadTriggerResponse{Error: "method not allowed"})
			return
		}

		ctx := r.Context()
		if cfg.timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, cfg.timeout)
			defer cancel()
		}
		res, err := rl.Reload(ctx)
		if err != nil {
			write(mapReloadErrorToStatus(err), reloadTriggerResponse{Error: err.Error()})
			return
		}
		write(http.StatusOK, reloadTriggerResponse{OK: true, Result: &res})
	})
}

// ReloadStatsHandler returns a handler that outputs reloader counters.
//
// GET/HEAD only; other methods return 405.
func ReloadStatsHandler(rl Reloader, opts ...ReloadOption) http.Handler {
	if rl == nil {
		panic("ops: nil Reloader")
	}
	cfg := applyReloadOptions(opts)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		format := formatFromRequest(r, cfg.format)
		write := func(code int, resp reloadStatsResponse) {
			writeResponse(w, r, format, code, resp.OK, resp.Error, resp, func() string {
				return renderReloadStatsText(*resp.Stats)
			})
		}
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			w.Header().Set("Allow", "GET, HEAD")
			write(http.StatusMethodNotAllowed, reloadStatsResponse{Error: "method not allowed"})
			return
		}
		st := rl.Stats()
		write(http.StatusOK, reloadStatsResponse{OK: true, Stats: &st})
	})
}

func renderReloadResultText(res hotreload.Result) string {
	lw := lineWriter{prefix: "reload", key: "result"}
	lw.write("changed", strconv.FormatBool(res.Changed))
	lw.write("version", res.Version.String())
	lw.write("bytes", strconv.Itoa(res.Bytes))
	return lw.b.String()
}

func renderReloadStatsText(st hotreload.Stats) string {
	name := st.Name
	if name == "" {
		name = "-"
	}
	lw := lineWriter{prefix: "reload", key: escapeTextField(name)}
	lw.write("published", strconv.FormatUint(st.Published, 10))
	lw.write("unchanged", strconv.FormatUint(st.Unchanged, 10))
	lw.write("failures", strconv.FormatUint(st.Failures, 10))
	if st.LastError != "" {
		lw.write("last_error", escapeTextField(st.LastError))
	}
	if !st.LastPublishedAt.IsZero() {
		lw.write("last_published_at", st.LastPublishedAt.Format(time.RFC3339Nano))
	}
	return lw.b.String()
}

func mapReloadErrorToStatus(err error) int {
	// Deadline first: fetch errors wrap the fetcher's own context error.
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, hotreload.ErrFetch):
		return http.StatusBadGateway
	case errors.Is(err, hotreload.ErrDecode):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
