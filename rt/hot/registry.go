package hot

import (
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"
	"time"
)

type entry interface {
	key() string
	snapshot() Item
	setFromString(v string) error
}

type registerConfig struct {
	redact bool
	parse  any // func(string) (T, error)
}

// RegisterOption configures a registered Source.
type RegisterOption func(*registerConfig)

// WithRedact hides the value in Snapshot / Lookup.
func WithRedact() RegisterOption {
	return func(c *registerConfig) { c.redact = true }
}

// WithParse sets the parser used by SetFromString.
//
// Without it, SetFromString decodes the string as JSON into T, except that a
// string-typed Source takes the raw string as-is.
//
// The parser type must match the Source type; a mismatch makes Register fail with
// ErrInvalidConfig.
func WithParse[T any](fn func(s string) (T, error)) RegisterOption {
	return func(c *registerConfig) {
		if fn != nil {
			c.parse = fn
		}
	}
}

// Registry names Sources for ops/admin usage.
//
// It is safe for concurrent use. The zero value is ready to use.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]entry
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]entry)}
}

var (
	defaultOnce sync.Once
	defaultR    *Registry
)

// Default returns the process-wide default Registry.
func Default() *Registry {
	defaultOnce.Do(func() { defaultR = NewRegistry() })
	return defaultR
}

// Register adds src to r under key.
func Register[T any](r *Registry, key string, src *Source[T], opts ...RegisterOption) error {
	if r == nil {
		return fmt.Errorf("%w: nil Registry", ErrInvalidConfig)
	}
	if src == nil {
		return fmt.Errorf("%w: %q nil Source", ErrInvalidConfig, key)
	}
	if err := validateKey(key); err != nil {
		return err
	}
	var cfg registerConfig
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	e := &sourceEntry[T]{k: key, src: src, redact: cfg.redact, typ: typeName[T]()}
	if cfg.parse != nil {
		fn, ok := cfg.parse.(func(string) (T, error))
		if !ok {
			return fmt.Errorf("%w: %q parser %T does not produce %s", ErrInvalidConfig, key, cfg.parse, e.typ)
		}
		e.parse = fn
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.entries == nil {
		r.entries = make(map[string]entry)
	}
	if _, ok := r.entries[key]; ok {
		return fmt.Errorf("%w: %q", ErrAlreadyRegistered, key)
	}
	r.entries[key] = e
	return nil
}

// Snapshot returns a point-in-time view of all registered Sources.
//
// Items are sorted by key (lexicographically) for stable output.
func (r *Registry) Snapshot() Snapshot {
	if r == nil {
		return Snapshot{}
	}
	r.mu.RLock()
	items := make([]entry, 0, len(r.entries))
	for _, e := range r.entries {
		items = append(items, e)
	}
	r.mu.RUnlock()

	sort.Slice(items, func(i, j int) bool { return items[i].key() < items[j].key() })

	out := make([]Item, 0, len(items))
	for _, e := range items {
		out = append(out, e.snapshot())
	}
	return Snapshot{Items: out}
}

// Lookup returns a point-in-time view of a single key.
//
// If the key is invalid or not found, ok is false.
func (r *Registry) Lookup(key string) (it Item, ok bool) {
	e, err := r.find(key)
	if err != nil {
		return Item{}, false
	}
	return e.snapshot(), true
}

// SetFromString parses value and publishes it to the Source registered under key.
func (r *Registry) SetFromString(key, value string) error {
	e, err := r.find(key)
	if err != nil {
		return err
	}
	return e.setFromString(value)
}

func (r *Registry) find(key string) (entry, error) {
	if r == nil {
		return nil, fmt.Errorf("%w: nil Registry", ErrInvalidConfig)
	}
	if err := validateKey(key); err != nil {
		return nil, err
	}
	r.mu.RLock()
	e, ok := r.entries[key]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, key)
	}
	return e, nil
}

type sourceEntry[T any] struct {
	k      string
	typ    string
	src    *Source[T]
	redact bool
	parse  func(string) (T, error)
}

func (e *sourceEntry[T]) key() string { return e.k }

func (e *sourceEntry[T]) snapshot() Item {
	c := e.src.load()
	it := Item{
		Key:      e.k,
		Type:     e.typ,
		Version:  c.version,
		Strategy: e.src.Strategy(),
	}
	if e.redact {
		it.Redacted = true
	} else {
		it.Value = c.value
	}
	if c.updatedAt != 0 {
		it.LastUpdatedAt = time.Unix(0, c.updatedAt)
	}
	return it
}

func (e *sourceEntry[T]) setFromString(s string) error {
	var (
		v   T
		err error
	)
	if e.parse != nil {
		v, err = e.parse(s)
	} else if sp, ok := any(&v).(*string); ok {
		*sp = s
	} else {
		err = json.Unmarshal([]byte(s), &v)
	}
	if err != nil {
		if e.redact {
			return fmt.Errorf("%w: %q", ErrInvalidValue, e.k)
		}
		return fmt.Errorf("%w: %q: %v", ErrInvalidValue, e.k, err)
	}
	e.src.Update(v)
	return nil
}

func typeName[T any]() string {
	return reflect.TypeOf((*T)(nil)).Elem().String()
}

func validateKey(key string) error {
	if key == "" {
		return fmt.Errorf("%w: empty", ErrInvalidKey)
	}
	for i := 0; i < len(key); i++ {
		c := key[i]
		switch {
		case c >= 'a' && c <= 'z':
		case c >= 'A' && c <= 'Z':
		case c >= '0' && c <= '9':
		case c == '.' || c == '_' || c == '-':
		default:
			// Explicitly call out common footguns.
			if c == '/' {
				return fmt.Errorf("%w: %q contains '/' (not allowed)", ErrInvalidKey, key)
			}
			if strings.ContainsRune(" \t\r\n", rune(c)) {
				return fmt.Errorf("%w: %q contains whitespace (not allowed)", ErrInvalidKey, key)
			}
			return fmt.Errorf("%w: %q contains invalid char %q (allowed: [A-Za-z0-9._-])", ErrInvalidKey, key, c)
		}
	}
	return nil
}
