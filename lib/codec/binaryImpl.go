package codec

import (
	"encoding/binary"
	"fmt"
	"math"
	"sort"
)

// NewBinaryCodec creates a new codec using a compact tagged binary format
// for dynamic values.
//
// Supported values are nil, bool, all integer kinds (decoded as int64),
// float32/float64 (decoded as float64), string, []byte, []any and
// map[string]any, nested arbitrarily. Narrower number kinds are widened, so
// the round-trip law holds for int64 and float64 only.
func NewBinaryCodec() Codec[any] {
	return binaryCodecImpl{}
}

// binaryCodecImpl implements Codec using a custom binary format
type binaryCodecImpl struct {
}

// Type tags, one byte in front of every encoded value
const (
	tagNil byte = iota
	tagFalse
	tagTrue
	tagInt
	tagFloat
	tagString
	tagBytes
	tagList
	tagMap
)

// maxDepth bounds nesting while decoding
const maxDepth = 512

// --------------------------------------------------------------------------
// Interface Methods (docu see codec.Codec)
// --------------------------------------------------------------------------

func (b binaryCodecImpl) Encode(value any) ([]byte, error) {
	return b.appendValue(make([]byte, 0, 64), value)
}

func (b binaryCodecImpl) Decode(data []byte) (any, error) {
	value, pos, err := b.readValue(data, 0, 0)
	if err == nil && pos != len(data) {
		err = fmt.Errorf("%w: %d trailing bytes", ErrMalformed, len(data)-pos)
	}
	if err != nil {
		log.Debugf("%s: decoding %d bytes failed: %v", ImplBinary, len(data), err)
		return nil, err
	}
	return value, nil
}

func (b binaryCodecImpl) Name() Implementation {
	return ImplBinary
}

// --------------------------------------------------------------------------
// Encoding
// --------------------------------------------------------------------------

// appendValue appends the encoded form of value to buf
func (b binaryCodecImpl) appendValue(buf []byte, value any) ([]byte, error) {
	switch v := value.(type) {
	case nil:
		return append(buf, tagNil), nil
	case bool:
		if v {
			return append(buf, tagTrue), nil
		}
		return append(buf, tagFalse), nil
	case int:
		return appendInt(buf, int64(v)), nil
	case int8:
		return appendInt(buf, int64(v)), nil
	case int16:
		return appendInt(buf, int64(v)), nil
	case int32:
		return appendInt(buf, int64(v)), nil
	case int64:
		return appendInt(buf, v), nil
	case uint:
		return appendUint(buf, uint64(v))
	case uint8:
		return appendInt(buf, int64(v)), nil
	case uint16:
		return appendInt(buf, int64(v)), nil
	case uint32:
		return appendInt(buf, int64(v)), nil
	case uint64:
		return appendUint(buf, v)
	case float32:
		return appendFloat(buf, float64(v)), nil
	case float64:
		return appendFloat(buf, v), nil
	case string:
		buf = append(buf, tagString)
		buf = binary.BigEndian.AppendUint32(buf, uint32(len(v)))
		return append(buf, v...), nil
	case []byte:
		buf = append(buf, tagBytes)
		buf = binary.BigEndian.AppendUint32(buf, uint32(len(v)))
		return append(buf, v...), nil
	case []any:
		buf = append(buf, tagList)
		buf = binary.BigEndian.AppendUint32(buf, uint32(len(v)))
		var err error
		for _, item := range v {
			if buf, err = b.appendValue(buf, item); err != nil {
				return nil, err
			}
		}
		return buf, nil
	case map[string]any:
		buf = append(buf, tagMap)
		buf = binary.BigEndian.AppendUint32(buf, uint32(len(v)))

		// sort keys so equal maps always encode to equal bytes
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		var err error
		for _, k := range keys {
			buf = binary.BigEndian.AppendUint32(buf, uint32(len(k)))
			buf = append(buf, k...)
			if buf, err = b.appendValue(buf, v[k]); err != nil {
				return nil, err
			}
		}
		return buf, nil
	default:
		return nil, fmt.Errorf("codec %s: unsupported value type %T", ImplBinary, value)
	}
}

func appendInt(buf []byte, v int64) []byte {
	buf = append(buf, tagInt)
	return binary.BigEndian.AppendUint64(buf, uint64(v))
}

func appendUint(buf []byte, v uint64) ([]byte, error) {
	if v > math.MaxInt64 {
		return nil, fmt.Errorf("codec %s: unsigned value %d overflows int64", ImplBinary, v)
	}
	return appendInt(buf, int64(v)), nil
}

func appendFloat(buf []byte, v float64) []byte {
	buf = append(buf, tagFloat)
	return binary.BigEndian.AppendUint64(buf, math.Float64bits(v))
}

// --------------------------------------------------------------------------
// Decoding
// --------------------------------------------------------------------------

// readValue decodes one value starting at pos and returns the position after it
func (b binaryCodecImpl) readValue(data []byte, pos, depth int) (any, int, error) {
	if depth > maxDepth {
		return nil, pos, fmt.Errorf("%w: nesting deeper than %d", ErrMalformed, maxDepth)
	}
	if pos >= len(data) {
		return nil, pos, fmt.Errorf("%w: data too short for type tag", ErrMalformed)
	}

	tag := data[pos]
	pos++

	switch tag {
	case tagNil:
		return nil, pos, nil
	case tagFalse:
		return false, pos, nil
	case tagTrue:
		return true, pos, nil
	case tagInt:
		if pos+8 > len(data) {
			return nil, pos, fmt.Errorf("%w: data too short for int", ErrMalformed)
		}
		return int64(binary.BigEndian.Uint64(data[pos : pos+8])), pos + 8, nil
	case tagFloat:
		if pos+8 > len(data) {
			return nil, pos, fmt.Errorf("%w: data too short for float", ErrMalformed)
		}
		return math.Float64frombits(binary.BigEndian.Uint64(data[pos : pos+8])), pos + 8, nil
	case tagString:
		raw, next, err := readChunk(data, pos, "string")
		if err != nil {
			return nil, pos, err
		}
		return string(raw), next, nil
	case tagBytes:
		raw, next, err := readChunk(data, pos, "bytes")
		if err != nil {
			return nil, pos, err
		}
		return clone(raw), next, nil
	case tagList:
		n, next, err := readLength(data, pos, "list")
		if err != nil {
			return nil, pos, err
		}
		pos = next
		// every item takes at least one byte
		if n > len(data)-pos {
			return nil, pos, fmt.Errorf("%w: list length %d exceeds data", ErrMalformed, n)
		}
		list := make([]any, 0, n)
		for i := 0; i < n; i++ {
			var item any
			if item, pos, err = b.readValue(data, pos, depth+1); err != nil {
				return nil, pos, err
			}
			list = append(list, item)
		}
		return list, pos, nil
	case tagMap:
		n, next, err := readLength(data, pos, "map")
		if err != nil {
			return nil, pos, err
		}
		pos = next
		// every entry takes at least five bytes (key length + tag)
		if n > (len(data)-pos)/5 {
			return nil, pos, fmt.Errorf("%w: map length %d exceeds data", ErrMalformed, n)
		}
		m := make(map[string]any, n)
		for i := 0; i < n; i++ {
			var key []byte
			if key, pos, err = readChunk(data, pos, "map key"); err != nil {
				return nil, pos, err
			}
			var item any
			if item, pos, err = b.readValue(data, pos, depth+1); err != nil {
				return nil, pos, err
			}
			m[string(key)] = item
		}
		return m, pos, nil
	default:
		return nil, pos, fmt.Errorf("%w: unknown type tag %d", ErrMalformed, tag)
	}
}

// readLength reads a big endian uint32 length prefix
func readLength(data []byte, pos int, what string) (int, int, error) {
	if pos+4 > len(data) {
		return 0, pos, fmt.Errorf("%w: data too short for %s length", ErrMalformed, what)
	}
	return int(binary.BigEndian.Uint32(data[pos : pos+4])), pos + 4, nil
}

// readChunk reads a length prefixed byte sequence, the result aliases data
func readChunk(data []byte, pos int, what string) ([]byte, int, error) {
	n, pos, err := readLength(data, pos, what)
	if err != nil {
		return nil, pos, err
	}
	if pos+n > len(data) {
		return nil, pos, fmt.Errorf("%w: data too short for %s data", ErrMalformed, what)
	}
	return data[pos : pos+n], pos + n, nil
}
