package hotslog

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/evan-idocoding/hotkit/rt/hot"
)

// LevelVar registers a level Source under key and binds it to a slog.LevelVar.
//
// Accepted values are case-insensitive (normalized to lowercase):
//   - debug / info / warn / error
//
// and common aliases:
//   - warning -> warn
//   - err -> error
//
// Registry writes are validated. A value published directly with Source.Update that
// does not parse leaves the LevelVar unchanged.
//
// If r is nil, hot.Default() is used.
func LevelVar(r *hot.Registry, key string, defaultLevel slog.Level) (*hot.Source[string], *slog.LevelVar, error) {
	if r == nil {
		r = hot.Default()
	}

	lv := new(slog.LevelVar)
	lv.Set(enumToLevel(levelToEnum(defaultLevel)))

	var src *hot.Source[string]
	src = hot.NewSource(levelToEnum(defaultLevel),
		// Read back the latest value: callbacks of concurrent updates may interleave.
		hot.WithOnUpdate(func(string, hot.Version) {
			if s, ok := normalizeLevel(src.Load()); ok {
				lv.Set(enumToLevel(s))
			}
		}),
	)

	err := hot.Register(r, key, src, hot.WithParse(func(s string) (string, error) {
		n, ok := normalizeLevel(s)
		if !ok {
			return "", fmt.Errorf("unknown level %q (allowed: debug, info, warn, error)", s)
		}
		return n, nil
	}))
	if err != nil {
		return nil, nil, err
	}
	return src, lv, nil
}

func normalizeLevel(s string) (string, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	switch s {
	case "warning":
		s = "warn"
	case "err":
		s = "error"
	}
	switch s {
	case "debug", "info", "warn", "error":
		return s, true
	default:
		return "", false
	}
}

func levelToEnum(l slog.Level) string {
	// slog: Debug=-4, Info=0, Warn=4, Error=8
	switch {
	case l < slog.LevelInfo:
		return "debug"
	case l < slog.LevelWarn:
		return "info"
	case l < slog.LevelError:
		return "warn"
	default:
		return "error"
	}
}

func enumToLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
