package ops

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/evan-idocoding/hotkit/rt/hot"
)

type hotConfig struct {
	format Format

	guards []func(key string) bool
	guard  func(key string) bool
}

// HotOption configures hot registry handlers.
type HotOption func(*hotConfig)

// WithHotDefaultFormat sets the default response format for hot handlers.
//
// This default can be overridden per request by URL query:
//   - ?format=json
//   - ?format=text
//
// Default is FormatText.
func WithHotDefaultFormat(f Format) HotOption {
	return func(c *hotConfig) { c.format = f }
}

// WithHotKeyGuard appends a key guard.
//
// All guards are combined with AND: a key is allowed only if all guards allow it.
// This applies to both read and write handlers.
func WithHotKeyGuard(fn func(key string) bool) HotOption {
	return func(c *hotConfig) {
		if fn != nil {
			c.guards = append(c.guards, fn)
		}
	}
}

// WithHotAllowPrefixes restricts keys to the provided prefixes.
//
// Safety note: if no non-empty prefix is provided, this option denies all keys.
func WithHotAllowPrefixes(prefixes ...string) HotOption {
	var ps []string
	for _, p := range prefixes {
		if p != "" {
			ps = append(ps, p)
		}
	}
	return WithHotKeyGuard(func(key string) bool {
		for _, p := range ps {
			if strings.HasPrefix(key, p) {
				return true
			}
		}
		return false
	})
}

// WithHotAllowKeys restricts keys to the provided explicit set.
//
// Safety note: if no non-empty key is provided, this option denies all keys.
func WithHotAllowKeys(keys ...string) HotOption {
	set := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		if k != "" {
			set[k] = struct{}{}
		}
	}
	return WithHotKeyGuard(func(key string) bool {
		_, ok := set[key]
		return ok
	})
}

func applyHotOptions(opts []HotOption) hotConfig {
	cfg := hotConfig{format: FormatText}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	cfg.format = normalizeFormat(cfg.format)
	if len(cfg.guards) > 0 {
		guards := cfg.guards
		cfg.guard = func(key string) bool {
			for _, g := range guards {
				if !g(key) {
					return false
				}
			}
			return true
		}
	}
	return cfg
}

type hotSnapshotResponse struct {
	OK       bool          `json:"ok"`
	Error    string        `json:"error,omitempty"`
	Snapshot *hot.Snapshot `json:"snapshot,omitempty"`
}

type hotLookupResponse struct {
	OK    bool      `json:"ok"`
	Error string    `json:"error,omitempty"`
	Item  *hot.Item `json:"item,omitempty"`
}

type hotWriteResponse struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`

	Key string    `json:"key,omitempty"`
	Old *hot.Item `json:"old,omitempty"`
	New *hot.Item `json:"new,omitempty"`
}

// HotSnapshotHandler returns a handler that outputs a point-in-time view of all
// registered Sources.
//
// Behavior:
//   - GET/HEAD only; other methods return 405.
//   - Keys rejected by guards are omitted.
func HotSnapshotHandler(reg *hot.Registry, opts ...HotOption) http.Handler {
	if reg == nil {
		panic("ops: nil hot.Registry")
	}
	cfg := applyHotOptions(opts)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		format := formatFromRequest(r, cfg.format)
		write := func(code int, resp hotSnapshotResponse) {
			writeResponse(w, r, format, code, resp.OK, resp.Error, resp, func() string {
				return renderHotSnapshotText(*resp.Snapshot)
			})
		}
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			w.Header().Set("Allow", "GET, HEAD")
			write(http.StatusMethodNotAllowed, hotSnapshotResponse{Error: "method not allowed"})
			return
		}

		snap := reg.Snapshot()
		if cfg.guard != nil {
			snap = filterHotSnapshot(snap, cfg.guard)
		}
		write(http.StatusOK, hotSnapshotResponse{OK: true, Snapshot: &snap})
	})
}

// HotLookupHandler returns a handler that looks up a single key.
//
// Input:
//   - GET/HEAD only
//   - URL query: ?key=<key>
func HotLookupHandler(reg *hot.Registry, opts ...HotOption) http.Handler {
	if reg == nil {
		panic("ops: nil hot.Registry")
	}
	cfg := applyHotOptions(opts)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		format := formatFromRequest(r, cfg.format)
		write := func(code int, resp hotLookupResponse) {
			writeResponse(w, r, format, code, resp.OK, resp.Error, resp, func() string {
				return renderHotItemText(*resp.Item)
			})
		}
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			w.Header().Set("Allow", "GET, HEAD")
			write(http.StatusMethodNotAllowed, hotLookupResponse{Error: "method not allowed"})
			return
		}

		key, code, errMsg := checkHotKey(r, cfg)
		if code != 0 {
			write(code, hotLookupResponse{Error: errMsg})
			return
		}
		it, found := reg.Lookup(key)
		if !found {
			write(http.StatusNotFound, hotLookupResponse{Error: "key not found"})
			return
		}
		write(http.StatusOK, hotLookupResponse{OK: true, Item: &it})
	})
}

// HotSetHandler returns a handler that publishes a new value from its string form
// (see hot.Registry.SetFromString).
//
// Input:
//   - POST only
//   - URL query: ?key=<key>&value=<string representation>
//
// value can be empty string if the registered parser allows it.
func HotSetHandler(reg *hot.Registry, opts ...HotOption) http.Handler {
	if reg == nil {
		panic("ops: nil hot.Registry")
	}
	cfg := applyHotOptions(opts)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		format := formatFromRequest(r, cfg.format)
		write := func(code int, resp hotWriteResponse) {
			writeResponse(w, r, format, code, resp.OK, resp.Error, resp, func() string {
				return renderHotWriteText(resp.Key, resp.Old, resp.New)
			})
		}
		if r.Method != http.MethodPost {
			w.Header().Set("Allow", "POST")
			write(http.StatusMethodNotAllowed, hotWriteResponse{Error: "method not allowed"})
			return
		}

		key, code, errMsg := checkHotKey(r, cfg)
		if code != 0 {
			write(code, hotWriteResponse{Error: errMsg})
			return
		}
		value, hasValue := getQueryRaw(r, "value")
		if !hasValue {
			write(http.StatusBadRequest, hotWriteResponse{Error: "missing value"})
			return
		}

		old, found := reg.Lookup(key)
		if !found {
			write(http.StatusNotFound, hotWriteResponse{Error: "key not found"})
			return
		}
		if err := reg.SetFromString(key, value); err != nil {
			msg := err.Error()
			if old.Redacted {
				msg = sanitizeHotWriteError(err)
			}
			write(mapHotErrorToStatus(err), hotWriteResponse{Error: msg, Key: key, Old: &old})
			return
		}

		newIt, _ := reg.Lookup(key)
		write(http.StatusOK, hotWriteResponse{OK: true, Key: key, Old: &old, New: &newIt})
	})
}

// checkHotKey extracts and validates ?key=. A non-zero code means the request is rejected.
func checkHotKey(r *http.Request, cfg hotConfig) (key string, code int, errMsg string) {
	key, ok := getQueryRequired(r, "key")
	if !ok {
		return "", http.StatusBadRequest, "missing key"
	}
	if err := validateHotKey(key); err != nil {
		return "", http.StatusBadRequest, err.Error()
	}
	if cfg.guard != nil && !cfg.guard(key) {
		return "", http.StatusForbidden, "key not allowed"
	}
	return key, 0, ""
}

func filterHotSnapshot(s hot.Snapshot, guard func(string) bool) hot.Snapshot {
	out := hot.Snapshot{Items: make([]hot.Item, 0, len(s.Items))}
	for _, it := range s.Items {
		if it.Key != "" && guard(it.Key) {
			out.Items = append(out.Items, it)
		}
	}
	return out
}

func renderHotSnapshotText(s hot.Snapshot) string {
	var b strings.Builder
	for _, it := range s.Items {
		b.WriteString(renderHotItemText(it))
	}
	return b.String()
}

func renderHotItemText(it hot.Item) string {
	// Format: hot\t<key>\t<field>\t<value>\n
	lw := lineWriter{prefix: "hot", key: it.Key}
	appendHotItemLines(&lw, "", it)
	return lw.b.String()
}

func renderHotWriteText(key string, old, newIt *hot.Item) string {
	// Same shape as Snapshot/Lookup, with "old.*" / "new.*" field namespaces.
	lw := lineWriter{prefix: "hot", key: key}
	if old != nil {
		appendHotItemLines(&lw, "old.", *old)
	}
	if newIt != nil {
		appendHotItemLines(&lw, "new.", *newIt)
	}
	return lw.b.String()
}

func appendHotItemLines(lw *lineWriter, ns string, it hot.Item) {
	lw.write(ns+"type", it.Type)
	if it.Redacted {
		lw.write(ns+"value", "<redacted>")
	} else {
		lw.write(ns+"value", stringifyAny(it.Value))
	}
	lw.write(ns+"version", it.Version.String())
	lw.write(ns+"strategy", it.Strategy.String())
	if !it.LastUpdatedAt.IsZero() {
		lw.write(ns+"last_updated_at", it.LastUpdatedAt.Format(time.RFC3339Nano))
	}
}

func mapHotErrorToStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, hot.ErrInvalidKey), errors.Is(err, hot.ErrInvalidValue):
		return http.StatusBadRequest
	case errors.Is(err, hot.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func sanitizeHotWriteError(err error) string {
	// For redacted keys, avoid reflecting user-provided values in error messages.
	switch {
	case errors.Is(err, hot.ErrInvalidValue):
		return "invalid value"
	case errors.Is(err, hot.ErrInvalidKey):
		return "invalid key"
	case errors.Is(err, hot.ErrNotFound):
		return "key not found"
	default:
		return "error"
	}
}

func validateHotKey(key string) error {
	// Same rule as rt/hot: [A-Za-z0-9._-], non-empty.
	if key == "" {
		return errors.New("invalid key: empty")
	}
	for i := 0; i < len(key); i++ {
		c := key[i]
		switch {
		case c >= 'a' && c <= 'z':
		case c >= 'A' && c <= 'Z':
		case c >= '0' && c <= '9':
		case c == '.' || c == '_' || c == '-':
		default:
			if c == '/' {
				return errors.New("invalid key: contains '/' (not allowed)")
			}
			if strings.ContainsRune(" \t\r\n", rune(c)) {
				return errors.New("invalid key: contains whitespace (not allowed)")
			}
			return errors.New("invalid key: contains invalid char (allowed: [A-Za-z0-9._-])")
		}
	}
	return nil
}
