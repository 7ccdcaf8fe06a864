package hot

// Handle is a per-consumer cache of a Source snapshot.
//
// A Handle is owned by one goroutine at a time: Sync and Update mutate it in place.
// Share a Source (or Clone the Handle) across goroutines instead of sharing a Handle.
//
// The zero value is a detached Handle: Get returns the zero T, it is never expired,
// Sync is a no-op, and Update attaches it to a fresh Source.
type Handle[T any] struct {
	src *Source[T]
	c   *cell[T]
}

// New creates a fresh Source holding v and returns a Handle to it.
func New[T any](v T, opts ...Option[T]) *Handle[T] {
	return NewSource(v, opts...).Get()
}

// Get returns the cached value.
//
// It never blocks and never touches the Source; the value may be arbitrarily stale.
func (h *Handle[T]) Get() T {
	if h.c == nil {
		var zero T
		return zero
	}
	return h.c.value
}

// Version returns the version the cached value was published with.
func (h *Handle[T]) Version() Version {
	if h.c == nil {
		return 0
	}
	return h.c.version
}

// Source returns the Source h is attached to (nil for a detached Handle).
func (h *Handle[T]) Source() *Source[T] { return h.src }

// IsExpired reports whether the Source has been updated since the cached value was captured.
func (h *Handle[T]) IsExpired() bool {
	if h.src == nil {
		return false
	}
	return h.Version() < h.src.Version()
}

// Sync re-captures the current value and version from the Source.
//
// Calling Sync again without an intervening Update leaves the Handle unchanged.
func (h *Handle[T]) Sync() *Handle[T] {
	if h.src == nil {
		return h
	}
	h.c = h.src.load()
	return h
}

// GetSync syncs while the Handle is expired, then returns the cached value.
//
// Known limitation: GetSync loops for as long as other goroutines keep updating the
// Source between its checks. Under continuous concurrent writes it is not guaranteed
// to return in bounded time. Use Sync + Get when a single refresh is enough.
func (h *Handle[T]) GetSync() T {
	for h.IsExpired() {
		h.Sync()
	}
	return h.Get()
}

// Update publishes v to the Source and then syncs h.
//
// If another writer updates the Source between the two steps, h is expired again
// right after Update returns. That is inherent to multi-writer usage.
func (h *Handle[T]) Update(v T) {
	if h.src == nil {
		*h = *New(v)
		return
	}
	h.src.Update(v)
	h.Sync()
}

// Clone returns an independent Handle holding the same snapshot and Source.
func (h *Handle[T]) Clone() *Handle[T] {
	c := *h
	return &c
}
