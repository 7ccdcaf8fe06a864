package hot

import (
	"fmt"
	"strconv"
	"time"
)

// Version is the per-Source update sequence number.
//
// It starts at 0 and is incremented exactly once per completed Update.
type Version uint64

func (v Version) String() string { return strconv.FormatUint(uint64(v), 10) }

// Strategy selects how a Source guards its shared slot.
type Strategy int

const (
	// StrategyAtomic publishes cells through an atomic pointer (lock-free reads and writes).
	StrategyAtomic Strategy = iota
	// StrategyLocked publishes cells under a reader-writer mutex.
	StrategyLocked
)

func (s Strategy) String() string {
	switch s {
	case StrategyAtomic:
		return "atomic"
	case StrategyLocked:
		return "locked"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s Strategy) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Strategy) UnmarshalText(b []byte) error {
	switch string(b) {
	case "atomic":
		*s = StrategyAtomic
	case "locked":
		*s = StrategyLocked
	default:
		return fmt.Errorf("%w: unknown strategy %q", ErrInvalidValue, string(b))
	}
	return nil
}

// Item is a point-in-time view of a single registered Source.
type Item struct {
	Key string `json:"key"`

	// Type is the Go type of the Source value.
	Type string `json:"type"`

	// Value is the current value. It is nil if the Source is redacted.
	Value any `json:"value,omitempty"`

	Redacted bool `json:"redacted,omitempty"`

	Version  Version  `json:"version"`
	Strategy Strategy `json:"strategy"`

	// LastUpdatedAt is the timestamp of the last Update. Zero means never updated.
	LastUpdatedAt time.Time `json:"lastUpdatedAt"`
}

// Snapshot is a view of all registered Sources.
type Snapshot struct {
	Items []Item `json:"items"`
}
