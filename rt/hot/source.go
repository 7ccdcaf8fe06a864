package hot

import "time"

type config[T any] struct {
	strategy Strategy
	onUpdate []func(T, Version)
}

// Option configures a Source at construction time.
type Option[T any] func(*config[T])

// WithStrategy selects the slot strategy. Unknown values fall back to StrategyAtomic.
//
// Default is StrategyAtomic.
func WithStrategy[T any](s Strategy) Option[T] {
	return func(c *config[T]) { c.strategy = s }
}

// WithOnUpdate appends an update callback.
//
// Callbacks are executed synchronously inside Update after the new value is published.
// Callbacks must be fast and must not block. Panics are recovered and swallowed.
func WithOnUpdate[T any](fn func(newValue T, v Version)) Option[T] {
	return func(c *config[T]) {
		if fn != nil {
			c.onUpdate = append(c.onUpdate, fn)
		}
	}
}

// Source is the authoritative holder of a hot value and its Version.
//
// It is safe for concurrent use by any number of readers and writers.
// A Source must be created with NewSource.
type Source[T any] struct {
	slot     slot[T]
	strategy Strategy
	onUpdate []func(T, Version)
}

// NewSource creates a Source holding initial at version 0.
func NewSource[T any](initial T, opts ...Option[T]) *Source[T] {
	var cfg config[T]
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	if cfg.strategy != StrategyAtomic && cfg.strategy != StrategyLocked {
		cfg.strategy = StrategyAtomic
	}
	return &Source[T]{
		slot:     newSlot(cfg.strategy, initial),
		strategy: cfg.strategy,
		onUpdate: cfg.onUpdate,
	}
}

// Update replaces the current value and increments the version by exactly one,
// as a single step observable by all readers.
//
// Concurrent updates are totally ordered by the Source. The value left in place
// after a burst of concurrent updates is the one ordered last, which need not be
// the one whose call started last.
func (s *Source[T]) Update(v T) { s.Publish(v) }

// Publish is Update that also returns the version v was published with.
//
// Unlike a later call to Version, the result is not affected by concurrent writers.
func (s *Source[T]) Publish(v T) Version {
	if s == nil || s.slot == nil {
		panic("hot: use of uninitialized Source")
	}
	c := s.slot.publish(v)
	for _, cb := range s.onUpdate {
		safeCall(cb, c.value, c.version)
	}
	return c.version
}

// Get captures the current value and its version into a new Handle.
//
// The captured pair is always consistent: the reported version is the one the
// value was published with.
func (s *Source[T]) Get() *Handle[T] {
	return &Handle[T]{src: s, c: s.load()}
}

// Load returns the current value without creating a Handle.
func (s *Source[T]) Load() T { return s.load().value }

// Version returns the number of completed updates.
//
// It is cheap and may briefly lag an Update that is still in progress.
func (s *Source[T]) Version() Version { return s.slot.version() }

// LastUpdatedAt returns the time of the last Update. Zero means never updated.
func (s *Source[T]) LastUpdatedAt() time.Time {
	ns := s.load().updatedAt
	if ns == 0 {
		return time.Time{}
	}
	return time.Unix(0, ns)
}

// Strategy reports the slot strategy of s.
func (s *Source[T]) Strategy() Strategy { return s.strategy }

func (s *Source[T]) load() *cell[T] {
	if s == nil || s.slot == nil {
		panic("hot: use of uninitialized Source")
	}
	c := s.slot.load()
	if c == nil {
		panic("hot: invalid slot (no published cell)")
	}
	return c
}

func safeCall[T any](fn func(T, Version), v T, ver Version) {
	if fn == nil {
		return
	}
	defer func() { _ = recover() }()
	fn(v, ver)
}
