package codec

import (
	"bytes"
	"errors"
	"math"
	"os"
	"reflect"
	"strings"
	"testing"

	"github.com/ValentinKolb/stones/lib/common"
)

func TestMain(m *testing.M) {
	// route the codec logger through the stones factory before any decode logs
	if err := common.InitLoggers(common.StoreConfig{LogLevel: "warn"}); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

// testRecord is a concrete value type used with the typed codecs
type testRecord struct {
	Name  string
	Count int
	Tags  []string
	Attrs map[string]float64
}

// testDynamicValues returns values in the widened form the dynamic codecs decode to
func testDynamicValues() []any {
	return []any{
		nil,
		true,
		false,
		int64(0),
		int64(-42),
		int64(math.MaxInt64),
		int64(math.MinInt64),
		3.25,
		math.Inf(-1),
		"",
		"hello stones",
		[]byte{},
		[]byte{0x00, 0xff, 0x10},
		[]any{},
		[]any{int64(1), "two", 3.0, nil, []byte("four")},
		map[string]any{},
		map[string]any{
			"a": int64(1),
			"b": []any{"x", map[string]any{"nested": true}},
			"c": map[string]any{"d": []byte("e")},
		},
	}
}

// TestCBORCodecRoundTrip tests that dynamic values survive encode and decode
func TestCBORCodecRoundTrip(t *testing.T) {
	c := NewCBORCodec[any]()

	for i, value := range testDynamicValues() {
		if b, ok := value.([]byte); ok && len(b) == 0 {
			continue
		}

		data, err := c.Encode(value)
		if err != nil {
			t.Errorf("Failed to encode value %d (%v): %v", i, value, err)
			continue
		}

		result, err := c.Decode(data)
		if err != nil {
			t.Errorf("Failed to decode value %d (%v): %v", i, value, err)
			continue
		}

		if !reflect.DeepEqual(value, result) {
			t.Errorf("Value %d doesn't match after round trip:\nOriginal: %#v\nResult: %#v", i, value, result)
		}
	}
}

// TestCBORCodecDynamicTypes tests the Go types dynamic cbor values decode to
func TestCBORCodecDynamicTypes(t *testing.T) {
	c := NewCBORCodec[any]()

	data, err := c.Encode(map[string]any{
		"pos":  7,
		"neg":  int32(-3),
		"list": []string{"a"},
		"map":  map[string]int{"n": 1},
	})
	if err != nil {
		t.Fatalf("Failed to encode: %v", err)
	}
	result, err := c.Decode(data)
	if err != nil {
		t.Fatalf("Failed to decode: %v", err)
	}

	expected := map[string]any{
		"pos":  int64(7),
		"neg":  int64(-3),
		"list": []any{"a"},
		"map":  map[string]any{"n": int64(1)},
	}
	if !reflect.DeepEqual(expected, result) {
		t.Errorf("Expected %#v, got %#v", expected, result)
	}
}

// TestCBORCodecDeterministicMaps tests that equal maps always produce equal bytes
func TestCBORCodecDeterministicMaps(t *testing.T) {
	c := NewCBORCodec[any]()
	value := map[string]any{"z": int64(1), "a": int64(2), "m": "x", "b": nil}

	first, err := c.Encode(value)
	if err != nil {
		t.Fatalf("Failed to encode: %v", err)
	}
	for i := 0; i < 20; i++ {
		next, err := c.Encode(value)
		if err != nil {
			t.Fatalf("Failed to encode: %v", err)
		}
		if !bytes.Equal(first, next) {
			t.Fatalf("Encoding %d differs from the first encoding", i)
		}
	}
}

// TestCBORCodecKnownBytes tests that values match their RFC 8949 encoding
func TestCBORCodecKnownBytes(t *testing.T) {
	c := NewCBORCodec[any]()

	testCases := []struct {
		name     string
		value    any
		expected []byte
	}{
		{"null", nil, []byte{0xf6}},
		{"true", true, []byte{0xf5}},
		{"small int", int64(10), []byte{0x0a}},
		{"negative int", int64(-1), []byte{0x20}},
		{"text", "a", []byte{0x61, 'a'}},
		{"bytes", []byte{0x01}, []byte{0x41, 0x01}},
		{"list", []any{int64(1)}, []byte{0x81, 0x01}},
		{"map", map[string]any{"k": true}, []byte{0xa1, 0x61, 'k', 0xf5}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			data, err := c.Encode(tc.value)
			if err != nil {
				t.Fatalf("Failed to encode: %v", err)
			}
			if !bytes.Equal(tc.expected, data) {
				t.Errorf("Expected %x, got %x", tc.expected, data)
			}
		})
	}
}

// TestCBORCodecUnsupported tests that values cbor can not represent are rejected
func TestCBORCodecUnsupported(t *testing.T) {
	c := NewCBORCodec[any]()

	for _, value := range []any{make(chan int), func() {}, []any{complex(1, 2)}} {
		if _, err := c.Encode(value); err == nil {
			t.Errorf("Expected error for %T but got none", value)
		}
	}
}

// TestInvalidCBORData tests how the cbor codec handles corrupt or invalid data
func TestInvalidCBORData(t *testing.T) {
	c := NewCBORCodec[any]()

	testCases := []struct {
		name string
		data []byte
	}{
		{"Empty data", []byte{}},
		{"Trailing bytes", []byte{0xf5, 0x00}},
		{"Lone break", []byte{0xff}},
		{"Truncated text", []byte{0x65, 'a', 'b'}}, // Claims length 5 but only 2 bytes provided
		{"Truncated list", []byte{0x83, 0x01}},
		{"Truncated uint64", []byte{0x1b, 0x00, 0x00}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := c.Decode(tc.data)
			if err == nil {
				t.Fatalf("Expected error but got none")
			}
			if !errors.Is(err, ErrMalformed) {
				t.Errorf("Expected ErrMalformed, got: %v", err)
			}
		})
	}
}

// TestDecodeFailureIsLogged tests that malformed input is reported on the codec logger
func TestDecodeFailureIsLogged(t *testing.T) {
	if err := common.InitLoggers(common.StoreConfig{LogLevel: "debug", LogFormat: "json"}); err != nil {
		t.Fatalf("Failed to init loggers: %v", err)
	}
	var buf bytes.Buffer
	common.SetOutput(&buf, common.LogFormatJSON)
	defer func() {
		_ = common.InitLoggers(common.StoreConfig{LogLevel: "warn"})
	}()

	if _, err := NewCBORCodec[any]().Decode([]byte{0xff}); !errors.Is(err, ErrMalformed) {
		t.Fatalf("Expected ErrMalformed, got: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, `"component":"codec"`) || !strings.Contains(out, "cbor: decoding 1 bytes failed") {
		t.Errorf("Expected a codec debug entry, got: %s", out)
	}
}

// TestBinaryCodecRoundTrip tests that dynamic values survive encode and decode
func TestBinaryCodecRoundTrip(t *testing.T) {
	c := NewBinaryCodec()

	for i, value := range testDynamicValues() {
		data, err := c.Encode(value)
		if err != nil {
			t.Errorf("Failed to encode value %d (%v): %v", i, value, err)
			continue
		}

		result, err := c.Decode(data)
		if err != nil {
			t.Errorf("Failed to decode value %d (%v): %v", i, value, err)
			continue
		}

		if !reflect.DeepEqual(value, result) {
			t.Errorf("Value %d doesn't match after round trip:\nOriginal: %#v\nResult: %#v", i, value, result)
		}
	}
}

// TestBinaryCodecNormalisation tests that integer and float kinds decode to int64 and float64
func TestBinaryCodecNormalisation(t *testing.T) {
	c := NewBinaryCodec()

	testCases := []struct {
		name     string
		value    any
		expected any
	}{
		{"int", 7, int64(7)},
		{"int8", int8(-8), int64(-8)},
		{"int16", int16(300), int64(300)},
		{"int32", int32(-70000), int64(-70000)},
		{"uint", uint(9), int64(9)},
		{"uint8", uint8(255), int64(255)},
		{"uint16", uint16(65535), int64(65535)},
		{"uint32", uint32(1 << 31), int64(1 << 31)},
		{"uint64", uint64(1 << 40), int64(1 << 40)},
		{"float32", float32(1.5), 1.5},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			data, err := c.Encode(tc.value)
			if err != nil {
				t.Fatalf("Failed to encode: %v", err)
			}
			result, err := c.Decode(data)
			if err != nil {
				t.Fatalf("Failed to decode: %v", err)
			}
			if !reflect.DeepEqual(tc.expected, result) {
				t.Errorf("Expected %#v, got %#v", tc.expected, result)
			}
		})
	}
}

// TestBinaryCodecDeterministicMaps tests that equal maps always produce equal bytes
func TestBinaryCodecDeterministicMaps(t *testing.T) {
	c := NewBinaryCodec()
	value := map[string]any{"z": int64(1), "a": int64(2), "m": "x", "b": nil}

	first, err := c.Encode(value)
	if err != nil {
		t.Fatalf("Failed to encode: %v", err)
	}
	for i := 0; i < 20; i++ {
		next, err := c.Encode(value)
		if err != nil {
			t.Fatalf("Failed to encode: %v", err)
		}
		if !bytes.Equal(first, next) {
			t.Fatalf("Encoding %d differs from the first encoding", i)
		}
	}
}

// TestBinaryCodecUnsupported tests that values outside the supported domain are rejected
func TestBinaryCodecUnsupported(t *testing.T) {
	c := NewBinaryCodec()

	testCases := []struct {
		name  string
		value any
	}{
		{"struct", testRecord{Name: "x"}},
		{"typed slice", []string{"a"}},
		{"typed map", map[string]int{"a": 1}},
		{"nested unsupported", []any{int64(1), struct{}{}}},
		{"uint64 overflow", uint64(math.MaxUint64)},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := c.Encode(tc.value); err == nil {
				t.Errorf("Expected error for %T but got none", tc.value)
			}
		})
	}
}

// TestInvalidBinaryData tests how the binary codec handles corrupt or invalid data
func TestInvalidBinaryData(t *testing.T) {
	c := NewBinaryCodec()

	testCases := []struct {
		name        string
		data        []byte
		expectError bool
	}{
		{
			name:        "Empty data",
			data:        []byte{},
			expectError: true,
		},
		{
			name:        "Nil only",
			data:        []byte{tagNil},
			expectError: false,
		},
		{
			name:        "Trailing bytes",
			data:        []byte{tagTrue, 0x00},
			expectError: true,
		},
		{
			name:        "Unknown tag",
			data:        []byte{0x7f},
			expectError: true,
		},
		{
			name:        "Truncated int",
			data:        []byte{tagInt, 0, 0, 0},
			expectError: true,
		},
		{
			name:        "Invalid length for string",
			data:        []byte{tagString, 0, 0, 0, 5, 'a', 'b', 'c'}, // Claims length 5 but only 3 bytes provided
			expectError: true,
		},
		{
			name:        "List length exceeds data",
			data:        []byte{tagList, 0xff, 0xff, 0xff, 0xff},
			expectError: true,
		},
		{
			name:        "Map length exceeds data",
			data:        []byte{tagMap, 0, 0, 0, 2, 0, 0, 0, 1, 'k', tagNil},
			expectError: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := c.Decode(tc.data)

			if tc.expectError && err == nil {
				t.Errorf("Expected error but got none")
			} else if !tc.expectError && err != nil {
				t.Errorf("Did not expect error but got: %v", err)
			}
			if err != nil && !errors.Is(err, ErrMalformed) {
				t.Errorf("Expected ErrMalformed, got: %v", err)
			}
		})
	}
}

// TestTypedCodecsRoundTrip tests the json and gob codecs with a concrete value type
func TestTypedCodecsRoundTrip(t *testing.T) {
	codecs := map[string]Codec[testRecord]{
		"CBOR": NewCBORCodec[testRecord](),
		"JSON": NewJSONCodec[testRecord](),
		"GOB":  NewGobCodec[testRecord](),
	}
	records := []testRecord{
		{Name: "first", Count: 1, Tags: []string{"a", "b"}, Attrs: map[string]float64{"w": 0.5}},
		{Name: "second", Count: -3, Tags: []string{"c"}, Attrs: map[string]float64{"h": 2, "d": 1e9}},
	}

	for name, c := range codecs {
		t.Run(name, func(t *testing.T) {
			for i, record := range records {
				data, err := c.Encode(record)
				if err != nil {
					t.Fatalf("Failed to encode record %d: %v", i, err)
				}
				result, err := c.Decode(data)
				if err != nil {
					t.Fatalf("Failed to decode record %d: %v", i, err)
				}
				if !reflect.DeepEqual(record, result) {
					t.Errorf("Record %d doesn't match after round trip:\nOriginal: %+v\nResult: %+v", i, record, result)
				}
			}

			if _, err := c.Decode([]byte{0xde, 0xad}); !errors.Is(err, ErrMalformed) {
				t.Errorf("Expected ErrMalformed for garbage input, got: %v", err)
			}
		})
	}
}

// TestRawCodec tests that the raw codec is the identity and does not alias its input
func TestRawCodec(t *testing.T) {
	c := NewRawCodec()
	in := []byte("payload")

	data, err := c.Encode(in)
	if err != nil {
		t.Fatalf("Failed to encode: %v", err)
	}
	if !bytes.Equal(in, data) {
		t.Errorf("Expected %q, got %q", in, data)
	}

	data[0] = 'X'
	if in[0] != 'p' {
		t.Errorf("Encode must copy its input")
	}

	out, err := c.Decode([]byte{})
	if err != nil {
		t.Fatalf("Failed to decode: %v", err)
	}
	if out == nil || len(out) != 0 {
		t.Errorf("Expected empty non-nil slice, got %#v", out)
	}
}

// TestNew tests the tagged codec selection
func TestNew(t *testing.T) {
	if c, err := New[[]byte](ImplRaw); err != nil || c.Name() != ImplRaw {
		t.Errorf("Expected raw codec for []byte, got %v, %v", c, err)
	}
	if _, err := New[string](ImplRaw); err == nil {
		t.Errorf("Expected error when selecting raw codec for string values")
	}
	if c, err := New[any](ImplCBOR); err != nil || c.Name() != ImplCBOR {
		t.Errorf("Expected cbor codec for any, got %v, %v", c, err)
	}
	if c, err := New[testRecord](ImplCBOR); err != nil || c.Name() != ImplCBOR {
		t.Errorf("Expected cbor codec for a struct type, got %v, %v", c, err)
	}
	if c, err := New[any](ImplBinary); err != nil || c.Name() != ImplBinary {
		t.Errorf("Expected binary codec for any, got %v, %v", c, err)
	}
	if _, err := New[testRecord](ImplBinary); err == nil {
		t.Errorf("Expected error when selecting binary codec for a struct type")
	}
	if c, err := New[testRecord](ImplJSON); err != nil || c.Name() != ImplJSON {
		t.Errorf("Expected json codec, got %v, %v", c, err)
	}
	if c, err := New[testRecord](ImplGob); err != nil || c.Name() != ImplGob {
		t.Errorf("Expected gob codec, got %v, %v", c, err)
	}
	if _, err := New[any]("msgpack"); err == nil {
		t.Errorf("Expected error for unknown codec")
	}
}

// TestParse tests parsing codec names
func TestParse(t *testing.T) {
	for _, impl := range Available() {
		parsed, err := Parse(" " + string(impl) + " ")
		if err != nil || parsed != impl {
			t.Errorf("Expected %s, got %s (%v)", impl, parsed, err)
		}
	}
	if impl, err := Parse("JSON"); err != nil || impl != ImplJSON {
		t.Errorf("Expected case-insensitive parsing, got %s (%v)", impl, err)
	}
	if Default != ImplCBOR {
		t.Errorf("Expected cbor as default codec, got %s", Default)
	}
	if _, err := Parse("yaml"); err == nil {
		t.Errorf("Expected error for unknown codec name")
	}
}
