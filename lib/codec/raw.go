package codec

// NewRawCodec creates a codec that stores byte values unchanged.
func NewRawCodec() Codec[[]byte] {
	return rawCodecImpl{}
}

// rawCodecImpl implements Codec as the identity on byte slices
type rawCodecImpl struct{}

// --------------------------------------------------------------------------
// Interface Methods (docu see codec.Codec)
// --------------------------------------------------------------------------

func (rawCodecImpl) Encode(value []byte) ([]byte, error) {
	return clone(value), nil
}

func (rawCodecImpl) Decode(data []byte) ([]byte, error) {
	return clone(data), nil
}

func (rawCodecImpl) Name() Implementation {
	return ImplRaw
}

// clone copies b so callers never share memory with the engine.
// A nil input yields an empty, non-nil slice.
func clone(b []byte) []byte {
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
