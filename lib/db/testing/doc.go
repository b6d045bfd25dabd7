// Package testing provides standardised tests and benchmarks for
// database engines that satisfy the db.Engine interface.
//
// The package contains:
//   - testing: A comprehensive test suite for validating conformance to the KVDB interface contract
//     (copy semantics, batches, ordered iteration, reopen, destroy, closed handles)
//   - benchmark: Performance tests for measuring throughput of common database operations
//
// This package is particularly useful for:
//   - Applications that need to select the most appropriate engine
//     based on performance characteristics
//   - Engine developers implementing the db.Engine interface
//
// Example usage:
//
//	// Creating a factory function for your implementation
//	factory := func(t testing.TB) (db.Engine, string) {
//		return NewMyEngine(), filepath.Join(t.TempDir(), "test"+ext)
//	}
//
//	// Running the standard test suite
//	dbtesting.RunKVDBTests(t, "MyEngine", factory)
//
//	// Running performance benchmarks
//	dbtesting.RunKVDBBenchmarks(b, "MyEngine", factory)
package testing
