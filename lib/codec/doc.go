// Package codec provides the value encoding strategies used by the stones store.
// It defines a common generic interface and multiple implementations for turning
// application values into the byte sequences stored by the database engines and back.
//
// The package focuses on:
//   - Providing a consistent interface for different encoding formats
//   - A closed set of implementations selected by name when a store is opened
//   - The round-trip law: Decode(Encode(v)) == v for every accepted value
//   - Treating malformed input as fatal (ErrMalformed), never as a retryable condition
//
// Key Components:
//
//   - Codec[V]: Core interface that all codec implementations must satisfy.
//
//   - rawCodecImpl: Identity codec for values that already are raw bytes. Only
//     available for V = []byte.
//
//   - cborCodecImpl: The default general-purpose codec, CBOR (RFC 8949) built on
//     fxamacker/cbor. Works for any V; dynamic values decode to int64, float64,
//     []any and map[string]any. Maps are encoded with sorted keys.
//
//   - binaryCodecImpl: Secondary codec for V = any. A compact tagged binary
//     format for dynamic values (nil, bool, integers, floats, strings, bytes, lists
//     and string keyed maps, nested arbitrarily). Integers decode as int64 and floats
//     as float64, maps are encoded with sorted keys so equal values give equal bytes.
//
//   - jsonCodecImpl: Implementation using JSON encoding for any V, useful for
//     debugging or interoperability with other systems.
//
//   - gobCodecImpl: Implementation using Go's built-in gob encoding for concrete
//     Go types.
//
// Thread Safety:
//
//	All codec implementations are stateless and safe for concurrent use
//	across multiple goroutines without additional synchronization.
//
// Usage:
//
//	c, err := codec.New[any](codec.ImplCBOR)
//	data, err := c.Encode(map[string]any{"n": 1})
//	value, err := c.Decode(data)
package codec
