package hotreload

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"

	"google.golang.org/protobuf/proto"
	"gopkg.in/yaml.v3"
)

// Fetcher returns the raw payload of the current configuration.
type Fetcher func(ctx context.Context) ([]byte, error)

// Decoder turns a raw payload into a value.
type Decoder[T any] func(raw []byte) (T, error)

// FileFetcher reads the whole file at path on every fetch.
func FileFetcher(path string) Fetcher {
	return func(ctx context.Context) ([]byte, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return os.ReadFile(path)
	}
}

// JSONDecoder decodes JSON payloads.
func JSONDecoder[T any]() Decoder[T] {
	return func(raw []byte) (T, error) {
		var v T
		err := json.Unmarshal(raw, &v)
		return v, err
	}
}

// YAMLDecoder decodes YAML payloads. Unknown fields are rejected.
func YAMLDecoder[T any]() Decoder[T] {
	return func(raw []byte) (T, error) {
		var v T
		dec := yaml.NewDecoder(bytes.NewReader(raw))
		dec.KnownFields(true)
		if err := dec.Decode(&v); err != nil {
			return v, err
		}
		return v, nil
	}
}

// ProtoDecoder decodes binary protobuf payloads into a message created by newMsg.
func ProtoDecoder[T proto.Message](newMsg func() T) Decoder[T] {
	return func(raw []byte) (T, error) {
		m := newMsg()
		if err := proto.Unmarshal(raw, m); err != nil {
			var zero T
			return zero, fmt.Errorf("proto: %w", err)
		}
		return m, nil
	}
}
