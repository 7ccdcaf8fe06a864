package admin

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/evan-idocoding/hotkit/rt/hot"
)

// Guard enforces request admission for a capability.
//
// Implementations must be fast and must not block; they must not do I/O.
type Guard interface {
	// Middleware returns a net/http middleware that enforces this guard.
	//
	// Denied requests must respond with HTTP 403.
	Middleware() func(http.Handler) http.Handler
}

type checkGuard func(r *http.Request) bool

func (g checkGuard) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if next == nil {
			panic("admin: guard: nil next handler")
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if g == nil || !g(r) {
				w.WriteHeader(http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// DenyAll returns a guard that denies all requests with HTTP 403.
func DenyAll() Guard {
	return checkGuard(func(*http.Request) bool { return false })
}

// AllowAll returns a guard that allows all requests.
func AllowAll() Guard {
	return checkGuard(func(*http.Request) bool { return true })
}

// DefaultTokenHeader is the default header used by token-based guards when not overridden.
const DefaultTokenHeader = "X-Access-Token"

type TokenOption func(*tokenConfig)

type tokenConfig struct {
	header string
}

// WithTokenHeader overrides the token header name for token-based guards.
//
// Empty/blank names are ignored (default is DefaultTokenHeader).
func WithTokenHeader(name string) TokenOption {
	return func(c *tokenConfig) {
		name = strings.TrimSpace(name)
		if name != "" {
			c.header = name
		}
	}
}

func applyTokenOptions(opts []TokenOption) tokenConfig {
	cfg := tokenConfig{header: DefaultTokenHeader}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}

// Tokens returns a guard that validates requests using a static token list.
//
// nil/empty tokens deny all (fail-closed); blank tokens are ignored.
func Tokens(tokens []string, opts ...TokenOption) Guard {
	cfg := applyTokenOptions(opts)
	set := cleanTokens(tokens)
	return checkGuard(func(r *http.Request) bool {
		return containsToken(set, r.Header.Get(cfg.header))
	})
}

// HotTokens returns a guard whose token list is read from src on every request,
// so rotated tokens take effect as soon as src is updated.
//
// src must be non-nil (nil is an assembly error and will panic). An empty list denies all.
func HotTokens(src *hot.Source[[]string], opts ...TokenOption) Guard {
	if src == nil {
		panic("admin: HotTokens: nil token source")
	}
	cfg := applyTokenOptions(opts)
	return checkGuard(func(r *http.Request) bool {
		return containsToken(src.Load(), r.Header.Get(cfg.header))
	})
}

// Check returns a guard backed by a custom fast predicate.
//
// fn must be fast and must not block; it must not do I/O.
// fn == nil is an assembly error and will panic.
func Check(fn func(r *http.Request) bool) Guard {
	if fn == nil {
		panic("admin: Check: nil func")
	}
	return checkGuard(fn)
}

func cleanTokens(tokens []string) []string {
	out := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if strings.TrimSpace(t) != "" {
			out = append(out, t)
		}
	}
	return out
}

func containsToken(set []string, got string) bool {
	if got == "" {
		return false
	}
	found := false
	for _, t := range set {
		if strings.TrimSpace(t) == "" {
			continue
		}
		// Compare against every entry to keep timing independent of position.
		if subtle.ConstantTimeCompare([]byte(t), []byte(got)) == 1 {
			found = true
		}
	}
	return found
}
