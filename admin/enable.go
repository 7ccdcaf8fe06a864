package admin

import (
	"strings"
	"time"

	"github.com/evan-idocoding/hotkit/ops"
	"github.com/evan-idocoding/hotkit/rt/hot"
)

// --- hot registry ---

// HotAccessSpec restricts which registry keys an endpoint may touch.
type HotAccessSpec struct {
	AllowPrefixes []string
	AllowKeys     []string
	AllowFunc     func(key string) bool
}

type HotSnapshotSpec struct {
	Guard    Guard
	Path     string // default "/hot/snapshot"
	Registry *hot.Registry
	Access   HotAccessSpec // optional filter for reads
}

func EnableHotSnapshot(spec HotSnapshotSpec) Option {
	return func(b *Builder) {
		requireRegistry(spec.Registry, "hot.snapshot")
		opts := hotReadOptionsOrPanic(spec.Access)
		mount(b, "hot.snapshot", spec.Path, "/hot/snapshot", spec.Guard, ops.HotSnapshotHandler(spec.Registry, opts...))
	}
}

type HotLookupSpec struct {
	Guard    Guard
	Path     string // default "/hot/lookup"
	Registry *hot.Registry
	Access   HotAccessSpec // optional filter for reads
}

func EnableHotLookup(spec HotLookupSpec) Option {
	return func(b *Builder) {
		requireRegistry(spec.Registry, "hot.lookup")
		opts := hotReadOptionsOrPanic(spec.Access)
		mount(b, "hot.lookup", spec.Path, "/hot/lookup", spec.Guard, ops.HotLookupHandler(spec.Registry, opts...))
	}
}

type HotSetSpec struct {
	Guard    Guard
	Path     string // default "/hot/set"
	Registry *hot.Registry
	Access   HotAccessSpec // required allowlist for writes; empty => deny-all
}

func EnableHotSet(spec HotSetSpec) Option {
	return func(b *Builder) {
		requireRegistry(spec.Registry, "hot.set")
		opts := hotWriteOptionsOrPanic(spec.Access)
		mount(b, "hot.set", spec.Path, "/hot/set", spec.Guard, ops.HotSetHandler(spec.Registry, opts...))
	}
}

// --- reload ---

type ReloadSpec struct {
	Guard    Guard
	Path     string // default "/reload"; stats are mounted at Path+"/stats"
	Reloader ops.Reloader
	Timeout  time.Duration // <=0 means no extra timeout
}

// EnableReload mounts a reload trigger (POST) and its stats (GET/HEAD).
func EnableReload(spec ReloadSpec) Option {
	return func(b *Builder) {
		if spec.Reloader == nil {
			panic("admin: reload: nil Reloader")
		}
		path := mount(b, "reload", spec.Path, "/reload", spec.Guard,
			ops.ReloadTriggerHandler(spec.Reloader, ops.WithReloadTimeout(spec.Timeout)))
		mount(b, "reload.stats", strings.TrimSuffix(path, "/")+"/stats", "", spec.Guard,
			ops.ReloadStatsHandler(spec.Reloader))
	}
}

func requireRegistry(r *hot.Registry, capName string) {
	if r == nil {
		panic("admin: " + capName + ": nil hot.Registry")
	}
}

// --- access allowlists ---

func hotReadOptionsOrPanic(a HotAccessSpec) []ops.HotOption {
	fn := hotAccessFuncOrPanic(a)
	if fn == nil {
		return nil
	}
	return []ops.HotOption{ops.WithHotKeyGuard(fn)}
}

func hotWriteOptionsOrPanic(a HotAccessSpec) []ops.HotOption {
	fn := hotAccessFuncOrPanic(a)
	if fn == nil {
		// Fail-closed: empty access => deny all writes.
		return []ops.HotOption{ops.WithHotKeyGuard(func(string) bool { return false })}
	}
	return []ops.HotOption{ops.WithHotKeyGuard(fn)}
}

func hotAccessFuncOrPanic(a HotAccessSpec) func(key string) bool {
	// AllowFunc is exclusive to avoid semantic confusion.
	if a.AllowFunc != nil {
		if len(a.AllowPrefixes) != 0 || len(a.AllowKeys) != 0 {
			panic("admin: hot access: AllowFunc conflicts with AllowPrefixes/AllowKeys")
		}
		return a.AllowFunc
	}
	prefixes, prefixesSpecified := trimNonEmpty(a.AllowPrefixes)
	keys, keysSpecified := trimNonEmpty(a.AllowKeys)

	// Fail-closed on invalid config: user specified a list but none valid.
	if (prefixesSpecified && len(prefixes) == 0) || (keysSpecified && len(keys) == 0) {
		return func(string) bool { return false }
	}
	if len(prefixes) == 0 && len(keys) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		set[k] = struct{}{}
	}
	return func(key string) bool {
		if key == "" {
			return false
		}
		if _, ok := set[key]; ok {
			return true
		}
		for _, p := range prefixes {
			if strings.HasPrefix(key, p) {
				return true
			}
		}
		return false
	}
}

func trimNonEmpty(in []string) (out []string, specified bool) {
	if len(in) == 0 {
		return nil, false
	}
	specified = true
	out = make([]string, 0, len(in))
	for _, raw := range in {
		s := strings.TrimSpace(raw)
		if s == "" {
			continue
		}
		out = append(out, s)
	}
	return out, specified
}
