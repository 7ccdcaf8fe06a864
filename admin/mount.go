package admin

import (
	"fmt"
	"net/http"
	"strings"
)

// mount guards h and registers it as capability name. A blank path selects def.
// It returns the path actually used.
func mount(b *Builder, name, path, def string, g Guard, h http.Handler) string {
	requireBuilder(b)
	requireGuard(g, name)
	if h == nil {
		panic("admin: " + name + ": nil handler")
	}
	path = capabilityPath(name, path, def)
	if _, taken := b.paths[path]; taken {
		panic("admin: " + name + ": path already mounted: " + path)
	}
	b.paths[path] = g.Middleware()(h)
	return path
}

// capabilityPath enforces the ServeMux-safe path shape: absolute, single-segment
// separators, no whitespace and no query/fragment characters.
func capabilityPath(name, path, def string) string {
	p := strings.TrimSpace(path)
	if p == "" {
		p = def
	}
	switch {
	case !strings.HasPrefix(p, "/"):
		panic(fmt.Sprintf("admin: %s: path %q must start with '/'", name, p))
	case strings.ContainsAny(p, " \t\r\n?#"), strings.Contains(p, "//"):
		panic(fmt.Sprintf("admin: %s: path %q contains whitespace, '?', '#' or '//'", name, p))
	}
	return p
}

func requireBuilder(b *Builder) {
	if b == nil {
		panic("admin: nil builder")
	}
}

func requireGuard(g Guard, capName string) {
	if g == nil {
		panic("admin: " + capName + ": nil Guard")
	}
}
