package db

import "errors"

// --------------------------------------------------------------------------
// Helper Types
// --------------------------------------------------------------------------

type Implementation string

const (
	ImplPebble  Implementation = "pebble"
	ImplLevelDB Implementation = "leveldb"
	ImplBolt    Implementation = "bolt"
	ImplMemory  Implementation = "memory"
)

var (
	ErrClosed    = errors.New("db: database is closed")
	ErrBatchDone = errors.New("db: batch already committed or closed")
	ErrNotExist  = errors.New("db: database does not exist")
)

type DatabaseInfo struct {
	DbType     Implementation `json:"db_type"`
	Path       string         `json:"path"`
	Persistent bool           `json:"persistent"`
}

// IterOptions configures a new Iterator.
type IterOptions struct {
	// KeysOnly signals that Value() will not be called, engines may skip loading values.
	KeysOnly bool
}

// --------------------------------------------------------------------------
// Database Interface
// --------------------------------------------------------------------------

// KVDB defines an interface for an opened, ordered, byte-keyed database.
// Keys are unique. All returned slices are copies and may be modified by the caller.
// Implementations must be safe for concurrent reads; writes are atomic per call
// and per committed Batch.
type KVDB interface {

	// --------------------------------------------------------------------------
	// Write Operations
	// --------------------------------------------------------------------------

	// Put inserts or updates the value for key.
	Put(key, value []byte) (err error)

	// Delete removes the entry for key. Deleting a missing key is not an error.
	Delete(key []byte) (err error)

	// NewBatch creates an atomic batch of writes.
	NewBatch() (batch Batch)

	// --------------------------------------------------------------------------
	// Query Operations
	// --------------------------------------------------------------------------

	// Get retrieves the value for an exact key.
	// The boolean return value indicates whether a value for the key was found.
	Get(key []byte) (value []byte, loaded bool, err error)

	// NewIterator returns an iterator over all entries in ascending key order.
	// Each call returns a fresh iterator positioned before the first entry.
	NewIterator(opts IterOptions) (it Iterator, err error)

	// GetInfo returns information about the database.
	GetInfo() (info DatabaseInfo)

	// Close releases the database handle.
	Close() (err error)
}

// Batch represents an atomic batch of writes.
// Writes are applied in order, a later write to the same key wins.
// Nothing is visible before Commit and after Commit the batch can not be reused.
type Batch interface {
	Put(key, value []byte) (err error)
	Delete(key []byte) (err error)
	// Commit applies all writes atomically.
	Commit() (err error)
	// Close discards uncommitted writes. It is safe to call Close after Commit and more than once.
	Close() (err error)
}

// Iterator provides sequential access over the entries of a database.
// Iterators must be closed after use.
type Iterator interface {
	// Next advances to the next entry and reports whether there is one.
	Next() bool
	// Key returns a copy of the current key.
	Key() []byte
	// Value returns a copy of the current value. Not available with IterOptions.KeysOnly.
	Value() []byte
	// Error returns the first error the iteration encountered.
	Error() error
	Close() error
}

// --------------------------------------------------------------------------
// Engine Interface
// --------------------------------------------------------------------------

// Engine opens and removes named databases of one implementation.
type Engine interface {
	// Name returns the implementation identifier.
	Name() Implementation

	// Extension returns the suffix appended to a store name to derive its path (e.g. ".lvl").
	Extension() string

	// Open opens the database at path. If createIfMissing is false and nothing
	// exists at path, an error wrapping ErrNotExist is returned.
	Open(path string, createIfMissing bool) (database KVDB, err error)

	// Destroy irrecoverably removes all data at path. The database must be closed.
	// Destroying a missing database is not an error.
	Destroy(path string) (err error)
}
