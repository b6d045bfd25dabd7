package codec

import (
	"testing"
)

// benchmarkValues returns a set of values for targeted benchmarking
func benchmarkValues() map[string]any {
	return map[string]any{
		"Int":         int64(123456789),
		"SmallString": "k",
		"LargeBytes":  make([]byte, 1024*16), // 16KB of data
		"List": []any{
			int64(1), int64(2), int64(3), "four", 5.5, true, nil,
		},
		"NestedMap": map[string]any{
			"user":  "stones",
			"count": int64(42),
			"tags":  []any{"a", "b", "c"},
			"meta":  map[string]any{"created": int64(1700000000), "score": 0.75},
		},
	}
}

// benchmarkCodecs returns the codecs that can encode dynamic values
func benchmarkCodecs() map[string]Codec[any] {
	return map[string]Codec[any]{
		"CBOR":   NewCBORCodec[any](),
		"Binary": NewBinaryCodec(),
		"JSON":   NewJSONCodec[any](),
	}
}

// BenchmarkEncode benchmarks encoding for all dynamic codecs with various values
func BenchmarkEncode(b *testing.B) {
	for name, c := range benchmarkCodecs() {
		for valueName, value := range benchmarkValues() {
			b.Run(name+"_"+valueName, func(b *testing.B) {
				for i := 0; i < b.N; i++ {
					if _, err := c.Encode(value); err != nil {
						b.Fatalf("Failed to encode: %v", err)
					}
				}
			})
		}
	}
}

// BenchmarkDecode benchmarks decoding for all dynamic codecs with various values
func BenchmarkDecode(b *testing.B) {
	for name, c := range benchmarkCodecs() {
		for valueName, value := range benchmarkValues() {
			data, err := c.Encode(value)
			if err != nil {
				b.Fatalf("Failed to encode %s with %s: %v", valueName, name, err)
			}
			b.Run(name+"_"+valueName, func(b *testing.B) {
				for i := 0; i < b.N; i++ {
					if _, err := c.Decode(data); err != nil {
						b.Fatalf("Failed to decode: %v", err)
					}
				}
			})
		}
	}
}

// BenchmarkSize measures and reports the encoded size for each value
func BenchmarkSize(b *testing.B) {
	for name, c := range benchmarkCodecs() {
		for valueName, value := range benchmarkValues() {
			b.Run(name+"_"+valueName, func(b *testing.B) {
				data, err := c.Encode(value)
				if err != nil {
					b.Fatalf("Failed to encode: %v", err)
				}

				// Report the size as a custom metric
				b.ReportMetric(float64(len(data)), "bytes")

				for i := 0; i < b.N; i++ {
					_ = data
				}
			})
		}
	}
}
