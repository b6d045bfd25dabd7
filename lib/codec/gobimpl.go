package codec

import (
	"bytes"
	"encoding/gob"
)

// NewGobCodec creates a new codec using Go's binary gob format.
// V should be a concrete type, gob cannot decode into a bare interface value.
func NewGobCodec[V any]() Codec[V] {
	return gobCodecImpl[V]{}
}

// gobCodecImpl implements the Codec interface using gob encoding
type gobCodecImpl[V any] struct {
}

// --------------------------------------------------------------------------
// Interface Methods (docu see codec.Codec)
// --------------------------------------------------------------------------

func (g gobCodecImpl[V]) Encode(value V) ([]byte, error) {
	var buf bytes.Buffer
	enc := gob.NewEncoder(&buf)
	if err := enc.Encode(value); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (g gobCodecImpl[V]) Decode(data []byte) (V, error) {
	var value V
	dec := gob.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&value); err != nil {
		return value, malformed(ImplGob, data, err)
	}
	return value, nil
}

func (g gobCodecImpl[V]) Name() Implementation {
	return ImplGob
}
