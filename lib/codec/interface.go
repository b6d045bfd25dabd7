package codec

import (
	"errors"
	"fmt"
	"strings"

	"github.com/lni/dragonboat/v4/logger"
)

var log = logger.GetLogger("codec")

// --------------------------------------------------------------------------
// Helper Types
// --------------------------------------------------------------------------

type Implementation string

const (
	ImplRaw    Implementation = "raw"
	ImplCBOR   Implementation = "cbor"
	ImplBinary Implementation = "binary"
	ImplJSON   Implementation = "json"
	ImplGob    Implementation = "gob"
)

// Default is the general-purpose codec used when no codec is configured.
const Default = ImplCBOR

// ErrMalformed is returned when bytes cannot be decoded by a codec.
var ErrMalformed = errors.New("codec: malformed input")

// malformed logs a failed decode and wraps err in ErrMalformed
func malformed(impl Implementation, data []byte, err error) error {
	log.Debugf("%s: decoding %d bytes failed: %v", impl, len(data), err)
	return fmt.Errorf("%w: %v", ErrMalformed, err)
}

// --------------------------------------------------------------------------
// Interface Definition
// --------------------------------------------------------------------------

// Codec converts values of type V into their stored byte form and back.
// Implementations must satisfy Decode(Encode(v)) == v for every value they accept,
// where dynamic codecs compare numbers after widening to int64 and float64.
// A codec is selected once when a store is opened and never changes afterward.
type Codec[V any] interface {
	// Encode converts a value into bytes.
	Encode(value V) ([]byte, error)
	// Decode converts bytes produced by Encode back into a value.
	// Errors are not retryable, they indicate corrupt data or a codec mismatch.
	Decode(data []byte) (V, error)
	// Name returns the implementation identifier of the codec.
	Name() Implementation
}

// --------------------------------------------------------------------------
// Codec Selection
// --------------------------------------------------------------------------

// New returns the codec for impl with value type V.
// The raw codec can only be used with V = []byte.
func New[V any](impl Implementation) (Codec[V], error) {
	switch impl {
	case ImplRaw:
		c, ok := any(NewRawCodec()).(Codec[V])
		if !ok {
			var zero V
			return nil, fmt.Errorf("codec %s requires []byte values, got %T", impl, zero)
		}
		return c, nil
	case ImplCBOR:
		return NewCBORCodec[V](), nil
	case ImplBinary:
		c, ok := any(NewBinaryCodec()).(Codec[V])
		if !ok {
			var zero V
			return nil, fmt.Errorf("codec %s requires any values, got %T", impl, zero)
		}
		return c, nil
	case ImplJSON:
		return NewJSONCodec[V](), nil
	case ImplGob:
		return NewGobCodec[V](), nil
	default:
		return nil, fmt.Errorf("invalid codec %s", impl)
	}
}

// Parse converts a codec name into an Implementation.
func Parse(name string) (Implementation, error) {
	impl := Implementation(strings.ToLower(strings.TrimSpace(name)))
	for _, a := range Available() {
		if a == impl {
			return impl, nil
		}
	}
	return "", fmt.Errorf("invalid codec %s (expected one of: raw, cbor, binary, json, gob)", name)
}

// Available lists all built-in codecs.
func Available() []Implementation {
	return []Implementation{ImplRaw, ImplCBOR, ImplBinary, ImplJSON, ImplGob}
}
