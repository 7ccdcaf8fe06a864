package hot

import (
	"sync"
	"sync/atomic"
	"time"
)

// cell is one published (value, version) pair. It is never mutated after publication.
type cell[T any] struct {
	value   T
	version Version

	// updatedAt is the unix-nano time of the Update that published this cell (0 for the initial cell).
	updatedAt int64
}

// slot is the single shared, mutable resource of a Source.
type slot[T any] interface {
	// load returns the current cell. It never returns nil once the slot is initialized.
	load() *cell[T]
	// version returns a version that is >= the version of any cell a reader has loaded.
	version() Version
	// publish installs a cell for v with the next version and returns it.
	// The cell's updatedAt is read after its predecessor was observed, so it never
	// precedes the predecessor's (modulo wall clock steps).
	publish(v T) *cell[T]
}

func newSlot[T any](s Strategy, initial T) slot[T] {
	c := &cell[T]{value: initial}
	switch s {
	case StrategyLocked:
		return &lockedSlot[T]{cur: c}
	default:
		as := &atomicSlot[T]{}
		as.cur.Store(c)
		return as
	}
}

type atomicSlot[T any] struct {
	cur atomic.Pointer[cell[T]]
}

func (s *atomicSlot[T]) load() *cell[T] { return s.cur.Load() }

func (s *atomicSlot[T]) version() Version {
	c := s.cur.Load()
	if c == nil {
		return 0
	}
	return c.version
}

func (s *atomicSlot[T]) publish(v T) *cell[T] {
	next := &cell[T]{value: v}
	for {
		old := s.cur.Load()
		if old == nil {
			panic("hot: invalid slot (no published cell)")
		}
		next.version = old.version + 1
		next.updatedAt = time.Now().UnixNano()
		if s.cur.CompareAndSwap(old, next) {
			return next
		}
	}
}

type lockedSlot[T any] struct {
	mu  sync.RWMutex
	cur *cell[T]

	// ver mirrors cur.version. It is stored before the write lock is released,
	// so it is never behind a cell any reader can have loaded.
	ver atomic.Uint64
}

func (s *lockedSlot[T]) load() *cell[T] {
	s.mu.RLock()
	c := s.cur
	s.mu.RUnlock()
	return c
}

func (s *lockedSlot[T]) version() Version { return Version(s.ver.Load()) }

func (s *lockedSlot[T]) publish(v T) *cell[T] {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cur == nil {
		panic("hot: invalid slot (no published cell)")
	}
	next := &cell[T]{value: v, version: s.cur.version + 1, updatedAt: time.Now().UnixNano()}
	s.cur = next
	s.ver.Store(uint64(next.version))
	return next
}
