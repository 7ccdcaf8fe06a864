package hotreload

import "errors"

var (
	// ErrInvalidConfig indicates a construction-time configuration error.
	ErrInvalidConfig = errors.New("hotreload: invalid config")
	// ErrFetch indicates the payload could not be fetched.
	ErrFetch = errors.New("hotreload: fetch failed")
	// ErrDecode indicates the payload could not be decoded.
	ErrDecode = errors.New("hotreload: decode failed")
	// ErrPanic indicates a fetcher or decoder panicked. The panic is recovered.
	ErrPanic = errors.New("hotreload: panic recovered")
	// ErrNoSnapshot indicates the store has no persisted payload for the key.
	ErrNoSnapshot = errors.New("hotreload: no snapshot")
)
