package readcache

import (
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

// The cache stores msgpack-encoded values. Encoding is a typed boundary:
// each resource kind round-trips through its own Go type, never through
// an untyped blob trusted by convention.

// Encode serializes a value for storage.
func Encode[T any](v T) ([]byte, error) {
	data, err := msgpack.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode cache value: %w", err)
	}
	return data, nil
}

// Decode deserializes a stored value.
func Decode[T any](data []byte) (T, error) {
	var v T
	if err := msgpack.Unmarshal(data, &v); err != nil {
		return v, fmt.Errorf("%w: %v", ErrInvalidEntry, err)
	}
	return v, nil
}
