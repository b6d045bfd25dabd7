// Package db provides a standardized interface for ordered, byte-keyed database engines.
// It defines the KVDB interface that the stones store is built on and the Engine
// interface used to open and destroy named databases, abstracting the storage engine
// behind a small contract.
//
// The package focuses on:
//   - A unified interface for point reads and writes, atomic batches and ordered iteration
//   - Engine lifecycle: open (optionally creating), close and irreversible destruction
//   - Copy semantics: every slice handed out by an engine belongs to the caller
//
// Key Components:
//
//   - KVDB Interface: The opened database. It provides methods for basic operations
//     (Get, Put, Delete), atomic batches (NewBatch) and full ordered scans (NewIterator).
//
//   - Batch Interface: An atomic unit of writes. Writes are applied in order and only
//     become visible on Commit.
//
//   - Iterator Interface: A lazy cursor over all entries in the engine's native order.
//     IterOptions.KeysOnly lets engines skip loading values.
//
//   - Engine Interface: Opens (or creates) and destroys databases at a path derived from
//     a store name and the engine's extension.
//
//   - Implementation Identifiers: The Implementation type provides string constants
//     for the available engines (pebble, leveldb, bolt, memory).
//
// Related Packages:
//
// The engines package (github.com/ValentinKolb/stones/lib/db/engines) resolves an
// Implementation to an Engine. The engines/pebble, engines/level, engines/bolt and
// engines/memory packages provide the implementations.
//
// The testing package (github.com/ValentinKolb/stones/lib/db/testing) provides
// standardized tests and benchmarks for engines that satisfy the db.Engine interface.
//   - RunKVDBTests: Runs a standardized test suite to validate implementations
//   - RunKVDBBenchmarks: Provides performance benchmarks for comparing implementations
package db
