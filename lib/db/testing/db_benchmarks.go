package testing

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/ValentinKolb/stones/lib/db"
)

// RunKVDBBenchmarks runs all benchmarks for a db.Engine implementation
func RunKVDBBenchmarks(b *testing.B, name string, factory EngineFactory) {

	b.Run("Put", func(b *testing.B) {
		benchmarkPut(b, factory)
	})

	b.Run("PutExisting", func(b *testing.B) {
		benchmarkPutExisting(b, factory)
	})

	b.Run("PutLargeValue", func(b *testing.B) {
		benchmarkPutLargeValue(b, factory)
	})

	b.Run("Get", func(b *testing.B) {
		benchmarkGet(b, factory)
	})

	b.Run("Get(not)", func(b *testing.B) {
		benchmarkGetNot(b, factory)
	})

	b.Run("Delete", func(b *testing.B) {
		benchmarkDelete(b, factory)
	})

	b.Run("Batch", func(b *testing.B) {
		benchmarkBatch(b, factory)
	})

	b.Run("Iterate", func(b *testing.B) {
		benchmarkIterate(b, factory)
	})

	b.Run("MixedUsage", func(b *testing.B) {
		benchmarkMixedUsage(b, factory)
	})
}

// --------------------------------------------------------------------------
// Benchmark functions
// --------------------------------------------------------------------------

// fill writes n entries with 64 byte values
func fill(b *testing.B, database db.KVDB, n int) {
	b.Helper()
	batch := database.NewBatch()
	defer batch.Close()
	value := make([]byte, 64)
	for i := 0; i < n; i++ {
		if err := batch.Put([]byte(fmt.Sprintf("key-%d", i)), value); err != nil {
			b.Fatalf("Failed to fill: %v", err)
		}
	}
	if err := batch.Commit(); err != nil {
		b.Fatalf("Failed to fill: %v", err)
	}
}

// Benchmark for Put operation
func benchmarkPut(b *testing.B, factory EngineFactory) {
	_, _, database := openFresh(b, factory)
	value := []byte("benchmark-value")

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		r := rand.New(rand.NewSource(rand.Int63()))
		for pb.Next() {
			key := []byte(fmt.Sprintf("key-%d", r.Int63()))
			if err := database.Put(key, value); err != nil {
				b.Errorf("Put failed: %v", err)
				return
			}
		}
	})
}

// Benchmark for Put operation with existing keys
func benchmarkPutExisting(b *testing.B, factory EngineFactory) {
	_, _, database := openFresh(b, factory)
	numKeys := 1000
	fill(b, database, numKeys)
	value := []byte("updated-value")

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := database.Put([]byte(fmt.Sprintf("key-%d", i%numKeys)), value); err != nil {
			b.Fatalf("Put failed: %v", err)
		}
	}
}

// Benchmark for Put operation with 64KB values
func benchmarkPutLargeValue(b *testing.B, factory EngineFactory) {
	_, _, database := openFresh(b, factory)
	value := make([]byte, 64*1024)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := database.Put([]byte(fmt.Sprintf("large-%d", i)), value); err != nil {
			b.Fatalf("Put failed: %v", err)
		}
	}
}

// Benchmark for Get operation
func benchmarkGet(b *testing.B, factory EngineFactory) {
	_, _, database := openFresh(b, factory)
	numKeys := 10_000
	fill(b, database, numKeys)

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		r := rand.New(rand.NewSource(rand.Int63()))
		for pb.Next() {
			if _, _, err := database.Get([]byte(fmt.Sprintf("key-%d", r.Intn(numKeys)))); err != nil {
				b.Errorf("Get failed: %v", err)
				return
			}
		}
	})
}

// Benchmark for Get operation on missing keys
func benchmarkGetNot(b *testing.B, factory EngineFactory) {
	_, _, database := openFresh(b, factory)
	fill(b, database, 1000)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, _, err := database.Get([]byte(fmt.Sprintf("missing-%d", i))); err != nil {
			b.Fatalf("Get failed: %v", err)
		}
	}
}

// Benchmark for Delete operation
func benchmarkDelete(b *testing.B, factory EngineFactory) {
	_, _, database := openFresh(b, factory)
	fill(b, database, b.N)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := database.Delete([]byte(fmt.Sprintf("key-%d", i))); err != nil {
			b.Fatalf("Delete failed: %v", err)
		}
	}
}

// Benchmark for committing batches of 100 writes
func benchmarkBatch(b *testing.B, factory EngineFactory) {
	_, _, database := openFresh(b, factory)
	value := make([]byte, 64)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		batch := database.NewBatch()
		for j := 0; j < 100; j++ {
			if err := batch.Put([]byte(fmt.Sprintf("batch-%d-%d", i, j)), value); err != nil {
				b.Fatalf("Batch put failed: %v", err)
			}
		}
		if err := batch.Commit(); err != nil {
			b.Fatalf("Batch commit failed: %v", err)
		}
		_ = batch.Close()
	}
}

// Benchmark for a full scan over 10k entries
func benchmarkIterate(b *testing.B, factory EngineFactory) {
	_, _, database := openFresh(b, factory)
	fill(b, database, 10_000)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		it, err := database.NewIterator(db.IterOptions{})
		if err != nil {
			b.Fatalf("Failed to create iterator: %v", err)
		}
		for it.Next() {
			_ = it.Value()
		}
		if err := it.Error(); err != nil {
			b.Fatalf("Iteration failed: %v", err)
		}
		_ = it.Close()
	}
}

// Benchmark for a mix of 70% reads, 20% writes and 10% deletes
func benchmarkMixedUsage(b *testing.B, factory EngineFactory) {
	_, _, database := openFresh(b, factory)
	numKeys := 1000
	fill(b, database, numKeys)
	value := []byte("mixed-value")

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		r := rand.New(rand.NewSource(rand.Int63()))
		for pb.Next() {
			key := []byte(fmt.Sprintf("key-%d", r.Intn(numKeys)))
			var err error
			switch op := r.Intn(10); {
			case op < 7:
				_, _, err = database.Get(key)
			case op < 9:
				err = database.Put(key, value)
			default:
				err = database.Delete(key)
			}
			if err != nil {
				b.Errorf("Operation failed: %v", err)
				return
			}
		}
	})
}
