package testing

import (
	"bytes"
	"errors"
	"fmt"
	"sort"
	"sync"
	"testing"

	"github.com/ValentinKolb/stones/lib/db"
)

// EngineFactory returns the engine under test and a fresh, unused database path.
type EngineFactory func(t testing.TB) (engine db.Engine, path string)

// RunKVDBTests runs a comprehensive test suite for a db.Engine implementation.
func RunKVDBTests(t *testing.T, name string, factory EngineFactory) {
	t.Run(name, func(t *testing.T) {
		t.Run("Put&Get", func(t *testing.T) {
			testPutGet(t, factory)
		})

		t.Run("Delete", func(t *testing.T) {
			testDelete(t, factory)
		})

		t.Run("EmptyValue", func(t *testing.T) {
			testEmptyValue(t, factory)
		})

		t.Run("EmptyKey", func(t *testing.T) {
			testEmptyKey(t, factory)
		})

		t.Run("Batch", func(t *testing.T) {
			testBatch(t, factory)
		})

		t.Run("BatchDone", func(t *testing.T) {
			testBatchDone(t, factory)
		})

		t.Run("Iterator", func(t *testing.T) {
			testIterator(t, factory)
		})

		t.Run("IteratorEmpty", func(t *testing.T) {
			testIteratorEmpty(t, factory)
		})

		t.Run("Reopen", func(t *testing.T) {
			testReopen(t, factory)
		})

		t.Run("OpenMissing", func(t *testing.T) {
			testOpenMissing(t, factory)
		})

		t.Run("Destroy", func(t *testing.T) {
			testDestroy(t, factory)
		})

		t.Run("Closed", func(t *testing.T) {
			testClosed(t, factory)
		})

		t.Run("RealisticUsage", func(t *testing.T) {
			testRealisticUsage(t, factory)
		})
	})
}

// --------------------------------------------------------------------------
// Helper functions
// --------------------------------------------------------------------------

// openDB opens a database and fails the test on error
func openDB(t testing.TB, engine db.Engine, path string, create bool) db.KVDB {
	t.Helper()
	database, err := engine.Open(path, create)
	if err != nil {
		t.Fatalf("Failed to open %s database at %s: %v", engine.Name(), path, err)
	}
	return database
}

// openFresh creates a new database and registers cleanup
func openFresh(t testing.TB, factory EngineFactory) (db.Engine, string, db.KVDB) {
	t.Helper()
	engine, path := factory(t)
	database := openDB(t, engine, path, true)
	t.Cleanup(func() {
		_ = database.Close()
		_ = engine.Destroy(path)
	})
	return engine, path, database
}

// collect reads all entries of an iterator
func collect(t testing.TB, database db.KVDB, opts db.IterOptions) (keys, values [][]byte) {
	t.Helper()
	it, err := database.NewIterator(opts)
	if err != nil {
		t.Fatalf("Failed to create iterator: %v", err)
	}
	defer it.Close()

	for it.Next() {
		keys = append(keys, it.Key())
		if !opts.KeysOnly {
			values = append(values, it.Value())
		}
	}
	if err := it.Error(); err != nil {
		t.Fatalf("Iterator failed: %v", err)
	}
	return keys, values
}

func mustPut(t testing.TB, database db.KVDB, key, value string) {
	t.Helper()
	if err := database.Put([]byte(key), []byte(value)); err != nil {
		t.Fatalf("Failed to put %s: %v", key, err)
	}
}

func expectValue(t testing.TB, database db.KVDB, key, expected string) {
	t.Helper()
	value, loaded, err := database.Get([]byte(key))
	if err != nil {
		t.Fatalf("Failed to get %s: %v", key, err)
	}
	if !loaded {
		t.Errorf("Expected key %s to exist", key)
		return
	}
	if !bytes.Equal(value, []byte(expected)) {
		t.Errorf("Expected value %s for key %s, got %s", expected, key, value)
	}
}

func expectMissing(t testing.TB, database db.KVDB, key string) {
	t.Helper()
	_, loaded, err := database.Get([]byte(key))
	if err != nil {
		t.Fatalf("Failed to get %s: %v", key, err)
	}
	if loaded {
		t.Errorf("Expected key %s to be missing", key)
	}
}

// --------------------------------------------------------------------------
// Test functions
// --------------------------------------------------------------------------

func testPutGet(t *testing.T, factory EngineFactory) {
	_, _, database := openFresh(t, factory)

	testKey := "test-key"

	mustPut(t, database, testKey, "test-value1")
	expectValue(t, database, testKey, "test-value1")

	mustPut(t, database, testKey, "test-value2")
	expectValue(t, database, testKey, "test-value2")

	expectMissing(t, database, "nonexistent-key")

	retrievedValue, _, _ := database.Get([]byte(testKey))
	retrievedValue[0] = 'X'

	originalValue, _, _ := database.Get([]byte(testKey))
	if bytes.Equal(retrievedValue, originalValue) {
		t.Errorf("Get should return a copy, not a reference to the stored value")
	}

	input := []byte("input-value")
	if err := database.Put([]byte("input-key"), input); err != nil {
		t.Fatalf("Failed to put: %v", err)
	}
	input[0] = 'X'
	expectValue(t, database, "input-key", "input-value")
}

func testDelete(t *testing.T, factory EngineFactory) {
	_, _, database := openFresh(t, factory)

	mustPut(t, database, "delete-key", "to-be-deleted")
	mustPut(t, database, "other-key", "stays")

	if err := database.Delete([]byte("delete-key")); err != nil {
		t.Fatalf("Failed to delete: %v", err)
	}
	expectMissing(t, database, "delete-key")
	expectValue(t, database, "other-key", "stays")

	// Delete non-existent key should not error
	if err := database.Delete([]byte("nonexistent-key")); err != nil {
		t.Errorf("Deleting a missing key should not error: %v", err)
	}
}

func testEmptyValue(t *testing.T, factory EngineFactory) {
	_, _, database := openFresh(t, factory)

	if err := database.Put([]byte("empty"), []byte{}); err != nil {
		t.Fatalf("Failed to put empty value: %v", err)
	}

	value, loaded, err := database.Get([]byte("empty"))
	if err != nil {
		t.Fatalf("Failed to get empty value: %v", err)
	}
	if !loaded {
		t.Errorf("Expected an empty value to be found")
	}
	if len(value) != 0 {
		t.Errorf("Expected empty value, got %q", value)
	}
}

func testEmptyKey(t *testing.T, factory EngineFactory) {
	_, _, database := openFresh(t, factory)

	mustPut(t, database, "a", "after")
	mustPut(t, database, "", "empty-key")
	expectValue(t, database, "", "empty-key")

	keys, values := collect(t, database, db.IterOptions{})
	if len(keys) != 2 || len(keys[0]) != 0 || string(keys[1]) != "a" {
		t.Fatalf("Expected keys [\"\" a], got %q", keys)
	}
	if string(values[0]) != "empty-key" {
		t.Errorf("Expected value empty-key for the empty key, got %q", values[0])
	}

	if err := database.Delete([]byte{}); err != nil {
		t.Fatalf("Failed to delete empty key: %v", err)
	}
	expectMissing(t, database, "")
	expectValue(t, database, "a", "after")

	b := database.NewBatch()
	defer b.Close()
	if err := b.Put([]byte{}, []byte("batched")); err != nil {
		t.Fatalf("Failed to add empty key to batch: %v", err)
	}
	if err := b.Put([]byte("b"), []byte("also")); err != nil {
		t.Fatalf("Failed to add to batch: %v", err)
	}
	if err := b.Commit(); err != nil {
		t.Fatalf("Failed to commit batch with empty key: %v", err)
	}
	expectValue(t, database, "", "batched")
	expectValue(t, database, "b", "also")

	keys, _ = collect(t, database, db.IterOptions{KeysOnly: true})
	if len(keys) != 3 || len(keys[0]) != 0 {
		t.Errorf("Expected the empty key first among 3 keys, got %q", keys)
	}
}

func testBatch(t *testing.T, factory EngineFactory) {
	_, _, database := openFresh(t, factory)

	mustPut(t, database, "key2", "before")

	batch := database.NewBatch()
	defer batch.Close()

	for i := 1; i <= 3; i++ {
		if err := batch.Put([]byte(fmt.Sprintf("key%d", i)), []byte(fmt.Sprintf("value%d", i))); err != nil {
			t.Fatalf("Failed to add put to batch: %v", err)
		}
	}
	// later write to the same key wins
	if err := batch.Put([]byte("key1"), []byte("value1-final")); err != nil {
		t.Fatalf("Failed to add put to batch: %v", err)
	}
	if err := batch.Delete([]byte("key3")); err != nil {
		t.Fatalf("Failed to add delete to batch: %v", err)
	}

	// nothing is visible before commit
	expectMissing(t, database, "key1")
	expectValue(t, database, "key2", "before")

	if err := batch.Commit(); err != nil {
		t.Fatalf("Failed to commit batch: %v", err)
	}

	expectValue(t, database, "key1", "value1-final")
	expectValue(t, database, "key2", "value2")
	expectMissing(t, database, "key3")

	// a closed, uncommitted batch leaves no trace
	discarded := database.NewBatch()
	if err := discarded.Put([]byte("discarded"), []byte("value")); err != nil {
		t.Fatalf("Failed to add put to batch: %v", err)
	}
	if err := discarded.Close(); err != nil {
		t.Fatalf("Failed to close batch: %v", err)
	}
	expectMissing(t, database, "discarded")
}

func testBatchDone(t *testing.T, factory EngineFactory) {
	_, _, database := openFresh(t, factory)

	batch := database.NewBatch()
	if err := batch.Put([]byte("key"), []byte("value")); err != nil {
		t.Fatalf("Failed to add put to batch: %v", err)
	}
	if err := batch.Commit(); err != nil {
		t.Fatalf("Failed to commit batch: %v", err)
	}

	if err := batch.Put([]byte("key2"), []byte("value2")); !errors.Is(err, db.ErrBatchDone) {
		t.Errorf("Expected ErrBatchDone for put after commit, got %v", err)
	}
	if err := batch.Delete([]byte("key2")); !errors.Is(err, db.ErrBatchDone) {
		t.Errorf("Expected ErrBatchDone for delete after commit, got %v", err)
	}
	if err := batch.Commit(); !errors.Is(err, db.ErrBatchDone) {
		t.Errorf("Expected ErrBatchDone for second commit, got %v", err)
	}
	if err := batch.Close(); err != nil {
		t.Errorf("Close after commit should not error: %v", err)
	}
	if err := batch.Close(); err != nil {
		t.Errorf("Double close should not error: %v", err)
	}
}

func testIterator(t *testing.T, factory EngineFactory) {
	_, _, database := openFresh(t, factory)

	data := map[string]string{
		"d": "value-d",
		"a": "value-a",
		"c": "value-c",
		"b": "value-b",
		"e": "value-e",
	}
	for k, v := range data {
		mustPut(t, database, k, v)
	}

	keys, values := collect(t, database, db.IterOptions{})
	if len(keys) != len(data) {
		t.Fatalf("Expected %d entries, got %d", len(data), len(keys))
	}

	sorted := sort.SliceIsSorted(keys, func(i, j int) bool {
		return bytes.Compare(keys[i], keys[j]) < 0
	})
	if !sorted {
		t.Errorf("Expected keys in ascending order, got %q", keys)
	}
	for i, key := range keys {
		if expected := data[string(key)]; expected != string(values[i]) {
			t.Errorf("Expected value %s for key %s, got %s", expected, key, values[i])
		}
	}

	// keys only iteration yields the same keys
	keysOnly, _ := collect(t, database, db.IterOptions{KeysOnly: true})
	if len(keysOnly) != len(keys) {
		t.Fatalf("Expected %d keys, got %d", len(keys), len(keysOnly))
	}
	for i := range keys {
		if !bytes.Equal(keys[i], keysOnly[i]) {
			t.Errorf("Key %d differs between iterations: %s vs %s", i, keys[i], keysOnly[i])
		}
	}

	// an exhausted iterator stays exhausted
	it, err := database.NewIterator(db.IterOptions{})
	if err != nil {
		t.Fatalf("Failed to create iterator: %v", err)
	}
	defer it.Close()
	for it.Next() {
	}
	if it.Next() {
		t.Errorf("Expected exhausted iterator to stay exhausted")
	}
}

func testIteratorEmpty(t *testing.T, factory EngineFactory) {
	_, _, database := openFresh(t, factory)

	keys, _ := collect(t, database, db.IterOptions{})
	if len(keys) != 0 {
		t.Errorf("Expected no entries in a fresh database, got %q", keys)
	}
}

func testReopen(t *testing.T, factory EngineFactory) {
	engine, path, database := openFresh(t, factory)

	mustPut(t, database, "persisted", "value")
	if err := database.Close(); err != nil {
		t.Fatalf("Failed to close: %v", err)
	}

	reopened := openDB(t, engine, path, false)
	defer reopened.Close()
	expectValue(t, reopened, "persisted", "value")

	if info := reopened.GetInfo(); info.DbType != engine.Name() || info.Path != path {
		t.Errorf("Unexpected database info %+v", info)
	}
}

func testOpenMissing(t *testing.T, factory EngineFactory) {
	engine, path := factory(t)

	if _, err := engine.Open(path, false); !errors.Is(err, db.ErrNotExist) {
		t.Errorf("Expected ErrNotExist when opening a missing database, got %v", err)
	}
}

func testDestroy(t *testing.T, factory EngineFactory) {
	engine, path, database := openFresh(t, factory)

	mustPut(t, database, "key", "value")
	if err := database.Close(); err != nil {
		t.Fatalf("Failed to close: %v", err)
	}
	if err := engine.Destroy(path); err != nil {
		t.Fatalf("Failed to destroy: %v", err)
	}

	if _, err := engine.Open(path, false); !errors.Is(err, db.ErrNotExist) {
		t.Errorf("Expected ErrNotExist after destroy, got %v", err)
	}

	recreated := openDB(t, engine, path, true)
	defer recreated.Close()
	expectMissing(t, recreated, "key")

	// destroying twice is not an error
	if err := recreated.Close(); err != nil {
		t.Fatalf("Failed to close: %v", err)
	}
	if err := engine.Destroy(path); err != nil {
		t.Fatalf("Failed to destroy: %v", err)
	}
	if err := engine.Destroy(path); err != nil {
		t.Errorf("Destroying a missing database should not error: %v", err)
	}
}

func testClosed(t *testing.T, factory EngineFactory) {
	_, _, database := openFresh(t, factory)

	if err := database.Close(); err != nil {
		t.Fatalf("Failed to close: %v", err)
	}

	if _, _, err := database.Get([]byte("key")); !errors.Is(err, db.ErrClosed) {
		t.Errorf("Expected ErrClosed for get, got %v", err)
	}
	if err := database.Put([]byte("key"), []byte("value")); !errors.Is(err, db.ErrClosed) {
		t.Errorf("Expected ErrClosed for put, got %v", err)
	}
	if err := database.Delete([]byte("key")); !errors.Is(err, db.ErrClosed) {
		t.Errorf("Expected ErrClosed for delete, got %v", err)
	}
	if _, err := database.NewIterator(db.IterOptions{}); !errors.Is(err, db.ErrClosed) {
		t.Errorf("Expected ErrClosed for iterator, got %v", err)
	}
	if err := database.Close(); err != nil {
		t.Errorf("Double close should not error: %v", err)
	}
}

func testRealisticUsage(t *testing.T, factory EngineFactory) {
	_, _, database := openFresh(t, factory)

	numWorkers := 8
	opsPerWorker := 250

	var wg sync.WaitGroup
	wg.Add(numWorkers)
	errs := make(chan error, numWorkers)

	for w := 0; w < numWorkers; w++ {
		go func(workerId int) {
			defer wg.Done()

			for i := 0; i < opsPerWorker; i++ {
				key := []byte(fmt.Sprintf("worker-%d-key-%04d", workerId, i))
				value := []byte(fmt.Sprintf("value-%d-%d", workerId, i))

				var err error
				switch i % 10 {
				case 0, 1, 2, 3, 4, 5, 6:
					err = database.Put(key, value)
				case 7, 8:
					_, _, err = database.Get(key)
				case 9:
					// delete a key this worker wrote before
					err = database.Delete([]byte(fmt.Sprintf("worker-%d-key-%04d", workerId, i-9)))
				}
				if err != nil {
					errs <- err
					return
				}
			}
		}(w)
	}

	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("Parallel operation failed: %v", err)
	}

	expected := make(map[string]string)
	for w := 0; w < numWorkers; w++ {
		for i := 0; i < opsPerWorker; i++ {
			if i%10 <= 6 {
				expected[fmt.Sprintf("worker-%d-key-%04d", w, i)] = fmt.Sprintf("value-%d-%d", w, i)
			}
		}
		for i := 9; i < opsPerWorker; i += 10 {
			delete(expected, fmt.Sprintf("worker-%d-key-%04d", w, i-9))
		}
	}

	keys, values := collect(t, database, db.IterOptions{})
	if len(keys) != len(expected) {
		t.Fatalf("Expected %d entries after parallel usage, got %d", len(expected), len(keys))
	}
	for i, key := range keys {
		if expected[string(key)] != string(values[i]) {
			t.Errorf("Value mismatch for key %s: expected %s, got %s", key, expected[string(key)], values[i])
		}
	}
}
