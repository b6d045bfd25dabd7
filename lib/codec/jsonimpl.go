package codec

import (
	"encoding/json"
)

// NewJSONCodec creates a new codec using json encoding
func NewJSONCodec[V any]() Codec[V] {
	return jsonCodecImpl[V]{}
}

// jsonCodecImpl implements the Codec interface using json encoding
type jsonCodecImpl[V any] struct {
}

// --------------------------------------------------------------------------
// Interface Methods (docu see codec.Codec)
// --------------------------------------------------------------------------

func (j jsonCodecImpl[V]) Encode(value V) ([]byte, error) {
	return json.Marshal(value)
}

func (j jsonCodecImpl[V]) Decode(data []byte) (V, error) {
	var value V
	if err := json.Unmarshal(data, &value); err != nil {
		return value, malformed(ImplJSON, data, err)
	}
	return value, nil
}

func (j jsonCodecImpl[V]) Name() Implementation {
	return ImplJSON
}
