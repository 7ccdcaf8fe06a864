package hot

import "errors"

var (
	// ErrInvalidKey indicates the key is empty or contains invalid characters.
	ErrInvalidKey = errors.New("hot: invalid key")
	// ErrAlreadyRegistered indicates the same key is registered more than once.
	ErrAlreadyRegistered = errors.New("hot: already registered")
	// ErrNotFound indicates the key is not registered.
	ErrNotFound = errors.New("hot: key not found")
	// ErrInvalidValue indicates a string value could not be parsed into the Source type.
	ErrInvalidValue = errors.New("hot: invalid value")
	// ErrInvalidConfig indicates a registration-time configuration error.
	ErrInvalidConfig = errors.New("hot: invalid config")
)
