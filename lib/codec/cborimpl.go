package codec

import (
	"fmt"
	"reflect"

	"github.com/fxamacker/cbor/v2"
)

// cborEnc encodes maps with sorted keys so equal values give equal bytes
var cborEnc = mustEncMode(cbor.EncOptions{Sort: cbor.SortCoreDeterministic})

// cborDec decodes dynamic maps as map[string]any and integers as int64
var cborDec = mustDecMode(cbor.DecOptions{
	DefaultMapType: reflect.TypeOf(map[string]any(nil)),
	IntDec:         cbor.IntDecConvertSigned,
})

func mustEncMode(opts cbor.EncOptions) cbor.EncMode {
	em, err := opts.EncMode()
	if err != nil {
		panic(fmt.Sprintf("codec: invalid cbor encode options: %v", err))
	}
	return em
}

func mustDecMode(opts cbor.DecOptions) cbor.DecMode {
	dm, err := opts.DecMode()
	if err != nil {
		panic(fmt.Sprintf("codec: invalid cbor decode options: %v", err))
	}
	return dm
}

// NewCBORCodec creates a new codec using CBOR (RFC 8949) encoding.
//
// Decoding into V = any yields nil, bool, int64, float64, string, []byte,
// []any and map[string]any.
func NewCBORCodec[V any]() Codec[V] {
	return cborCodecImpl[V]{}
}

// cborCodecImpl implements the Codec interface using cbor encoding
type cborCodecImpl[V any] struct {
}

// --------------------------------------------------------------------------
// Interface Methods (docu see codec.Codec)
// --------------------------------------------------------------------------

func (c cborCodecImpl[V]) Encode(value V) ([]byte, error) {
	data, err := cborEnc.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("codec %s: %w", ImplCBOR, err)
	}
	return data, nil
}

func (c cborCodecImpl[V]) Decode(data []byte) (V, error) {
	var value V
	if err := cborDec.Unmarshal(data, &value); err != nil {
		return value, malformed(ImplCBOR, data, err)
	}
	return value, nil
}

func (c cborCodecImpl[V]) Name() Implementation {
	return ImplCBOR
}
