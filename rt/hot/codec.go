package hot

import (
	"encoding/json"

	"gopkg.in/yaml.v3"
)

// MarshalJSON encodes exactly the cached value (no version, no envelope).
//
// It uses a value receiver so that Handle fields embedded by value in a struct are
// encoded as their value even when the struct itself is not addressable.
func (h Handle[T]) MarshalJSON() ([]byte, error) {
	return json.Marshal(h.Get())
}

// UnmarshalJSON decodes a value and attaches h to a fresh single-value Source.
func (h *Handle[T]) UnmarshalJSON(b []byte) error {
	var v T
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*h = *New(v)
	return nil
}

// MarshalYAML encodes exactly the cached value.
func (h Handle[T]) MarshalYAML() (any, error) {
	return h.Get(), nil
}

// UnmarshalYAML decodes a value and attaches h to a fresh single-value Source.
func (h *Handle[T]) UnmarshalYAML(node *yaml.Node) error {
	var v T
	if err := node.Decode(&v); err != nil {
		return err
	}
	*h = *New(v)
	return nil
}
