package hotreload

import (
	"errors"
	"fmt"

	"github.com/cockroachdb/pebble"
)

// Store persists raw payloads for Restore.
type Store interface {
	// Load returns the payload saved under key, or an error wrapping ErrNoSnapshot.
	Load(key string) ([]byte, error)
	Save(key string, raw []byte) error
}

const pebbleKeyPrefix = "hot/"

// PebbleStore is a Store backed by a Pebble database.
type PebbleStore struct {
	db    *pebble.DB
	owned bool
}

// NewPebbleStore wraps an already open database. Close does not close db.
func NewPebbleStore(db *pebble.DB) (*PebbleStore, error) {
	if db == nil {
		return nil, fmt.Errorf("%w: nil pebble.DB", ErrInvalidConfig)
	}
	return &PebbleStore{db: db}, nil
}

// OpenPebbleStore opens (or creates) a Pebble database at dir. opts may be nil.
func OpenPebbleStore(dir string, opts *pebble.Options) (*PebbleStore, error) {
	db, err := pebble.Open(dir, opts)
	if err != nil {
		return nil, fmt.Errorf("hotreload: open pebble store: %w", err)
	}
	return &PebbleStore{db: db, owned: true}, nil
}

// Load implements Store.
func (s *PebbleStore) Load(key string) ([]byte, error) {
	v, closer, err := s.db.Get(pebbleKey(key))
	if errors.Is(err, pebble.ErrNotFound) {
		return nil, fmt.Errorf("%w: %q", ErrNoSnapshot, key)
	}
	if err != nil {
		return nil, fmt.Errorf("hotreload: pebble get %q: %w", key, err)
	}
	// v is only valid until closer is closed.
	out := append([]byte(nil), v...)
	if err := closer.Close(); err != nil {
		return nil, fmt.Errorf("hotreload: pebble get %q: %w", key, err)
	}
	return out, nil
}

// Save implements Store. Writes are synced.
func (s *PebbleStore) Save(key string, raw []byte) error {
	if err := s.db.Set(pebbleKey(key), raw, pebble.Sync); err != nil {
		return fmt.Errorf("hotreload: pebble set %q: %w", key, err)
	}
	return nil
}

// Close closes the database if it was opened by OpenPebbleStore.
func (s *PebbleStore) Close() error {
	if !s.owned {
		return nil
	}
	return s.db.Close()
}

func pebbleKey(key string) []byte {
	return []byte(pebbleKeyPrefix + key)
}
