// Package hot provides hot-reloadable shared state: a Source holds the authoritative
// current value of some immutable snapshot (a config, a routing table, ...), and any
// number of Handles cache that snapshot locally, detect when it is stale and refresh
// it on demand.
//
// # Design highlights
//
//   - Source.Update replaces the value wholesale and bumps a per-Source Version by
//     exactly one. Concurrent updates are totally ordered; none is lost.
//   - A value and its version are published together as one immutable cell, so a
//     reader never pairs a new version with an old value (or the reverse).
//   - Handle.Get never blocks and never touches the Source. It returns whatever the
//     Handle captured at its last Sync, however stale.
//   - Handle.IsExpired is a cheap version comparison. Handle.Sync re-captures.
//   - Old snapshots stay valid for as long as any Handle (or anything else) holds
//     them, including after the Source itself is gone.
//
// # Quick start
//
//	src := hot.NewSource("hello world")
//	h := src.Get()
//
//	src.Update("hello hotsauce")
//	_ = h.IsExpired() // true
//	h.Sync()
//	_ = h.Get() // "hello hotsauce"
//
// # Strategies
//
// Two interchangeable strategies implement the shared slot of a Source:
//
//   - StrategyAtomic (default): the cell sits behind an atomic.Pointer. Readers load it
//     without locking; writers publish with a compare-and-swap loop. Replaced cells are
//     reclaimed by the garbage collector once no reader references them.
//   - StrategyLocked: the cell sits behind a sync.RWMutex. Readers share the read lock;
//     writers take the write lock for the duration of the swap.
//
// Both satisfy the same contract. Pick one per Source with WithStrategy.
//
// # Values must be treated as immutable
//
// A Source never copies T. If T is a pointer, map or slice, every Handle that captured it
// shares the same underlying data; mutating it in place defeats the whole model.
// Build a new value and call Update instead.
//
// # Update callbacks
//
// WithOnUpdate registers callbacks that run synchronously on the writer goroutine
// after the new cell is published, in registration order. Callback panics are recovered
// and swallowed. Callbacks of concurrent updates may interleave; a callback that needs
// the latest value should read Source.Load rather than trust its argument ordering.
//
// # Registry
//
// A Registry names Sources for ops/admin usage (point-in-time snapshots, lookups and
// string-based writes). Keys must be non-empty and can only contain [A-Za-z0-9._-].
//
// # Serialization
//
// Handle implements json.Marshaler/Unmarshaler and yaml.Marshaler/Unmarshaler. It encodes
// exactly as its cached value; decoding attaches the Handle to a fresh single-value
// Source. This lets static configuration structs embed hot fields.
//
// # Invariant violations
//
// There is no recoverable error in the Source/Handle path. A broken internal invariant
// (for example a Source with no published cell) panics.
package hot
