// Package memory implements a non-persistent db.Engine on top of google/btree.
//
// Every path names a collection held in a registry of the engine. A collection
// survives closing its handle and is only removed by Destroy, so reopening a path
// sees the previous data for as long as the process lives. Like the file based
// engines, a collection can be held by a single handle at a time, a second Open
// fails with ErrLocked. Handles of a destroyed collection report db.ErrClosed.
//
// Iterators work on a copy-on-write snapshot of the tree taken when the iterator
// is created and never observe later writes.
package memory
