package memory

import (
	"bytes"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/ValentinKolb/stones/lib/db"
	"github.com/google/btree"
	"github.com/lni/dragonboat/v4/logger"
	"github.com/puzpuzpuz/xsync/v3"
)

var log = logger.GetLogger("engine")

const (
	extension = ".mem"
	degree    = 32
)

// ErrLocked is returned when a collection is already opened by another handle
var ErrLocked = errors.New("memory: collection is locked by another handle")

// --------------------------------------------------------------------------
// Collections
// --------------------------------------------------------------------------

type item struct {
	key   []byte
	value []byte
}

func (i *item) Less(than btree.Item) bool {
	return bytes.Compare(i.key, than.(*item).key) < 0
}

// collection is the data behind one path. It outlives its handles until destroyed.
type collection struct {
	mu        sync.RWMutex
	tree      *btree.BTree
	locked    atomic.Bool
	destroyed atomic.Bool
}

// --------------------------------------------------------------------------
// Engine
// --------------------------------------------------------------------------

type engineImpl struct {
	collections *xsync.MapOf[string, *collection]
}

// shared is the process wide registry used by Engine
var shared = NewEngine()

// Engine returns the memory engine backed by the process wide registry.
// Collections opened through it are visible to every caller in the process.
func Engine() db.Engine {
	return shared
}

// NewEngine creates a memory engine with its own, private registry of collections.
// Data never touches the disk and is lost when the process exits.
// Like the file based engines, a collection can only be opened by one handle at a time.
func NewEngine() db.Engine {
	return &engineImpl{
		collections: xsync.NewMapOf[string, *collection](),
	}
}

func (e *engineImpl) Name() db.Implementation {
	return db.ImplMemory
}

func (e *engineImpl) Extension() string {
	return extension
}

func (e *engineImpl) Open(path string, createIfMissing bool) (db.KVDB, error) {
	var c *collection
	if createIfMissing {
		c, _ = e.collections.LoadOrCompute(path, func() *collection {
			return &collection{tree: btree.New(degree)}
		})
	} else {
		var ok bool
		if c, ok = e.collections.Load(path); !ok {
			return nil, fmt.Errorf("open memory collection %s: %w", path, db.ErrNotExist)
		}
	}

	if !c.locked.CompareAndSwap(false, true) {
		return nil, fmt.Errorf("open memory collection %s: %w", path, ErrLocked)
	}
	log.Debugf("opened memory collection %s", path)
	return &kvStore{c: c, path: path}, nil
}

func (e *engineImpl) Destroy(path string) error {
	if c, ok := e.collections.LoadAndDelete(path); ok {
		c.destroyed.Store(true)
		log.Debugf("destroyed memory collection %s", path)
	}
	return nil
}

// --------------------------------------------------------------------------
// Database
// --------------------------------------------------------------------------

type kvStore struct {
	c      *collection
	path   string
	closed atomic.Bool
}

// usable reports whether the handle may still access its collection
func (s *kvStore) usable() bool {
	return !s.closed.Load() && !s.c.destroyed.Load()
}

func (s *kvStore) Get(key []byte) ([]byte, bool, error) {
	if !s.usable() {
		return nil, false, db.ErrClosed
	}

	s.c.mu.RLock()
	defer s.c.mu.RUnlock()

	found := s.c.tree.Get(&item{key: key})
	if found == nil {
		return nil, false, nil
	}
	return bytes.Clone(found.(*item).value), true, nil
}

func (s *kvStore) Put(key, value []byte) error {
	if !s.usable() {
		return db.ErrClosed
	}

	s.c.mu.Lock()
	defer s.c.mu.Unlock()

	s.c.tree.ReplaceOrInsert(&item{key: bytes.Clone(key), value: cloneValue(value)})
	return nil
}

func (s *kvStore) Delete(key []byte) error {
	if !s.usable() {
		return db.ErrClosed
	}

	s.c.mu.Lock()
	defer s.c.mu.Unlock()

	s.c.tree.Delete(&item{key: key})
	return nil
}

func (s *kvStore) GetInfo() db.DatabaseInfo {
	return db.DatabaseInfo{
		DbType:     db.ImplMemory,
		Path:       s.path,
		Persistent: false,
	}
}

func (s *kvStore) Close() error {
	if s.closed.CompareAndSwap(false, true) {
		s.c.locked.Store(false)
	}
	return nil
}

// cloneValue copies v, keeping empty values non-nil
func cloneValue(v []byte) []byte {
	return append(make([]byte, 0, len(v)), v...)
}

// --------------------------------------------------------------------------
// Batch
// --------------------------------------------------------------------------

type batch struct {
	store *kvStore
	ops   []*item // nil value marks a delete
	done  atomic.Bool
}

func (s *kvStore) NewBatch() db.Batch {
	return &batch{store: s}
}

func (b *batch) Put(key, value []byte) error {
	if b.done.Load() {
		return db.ErrBatchDone
	}
	b.ops = append(b.ops, &item{key: bytes.Clone(key), value: cloneValue(value)})
	return nil
}

func (b *batch) Delete(key []byte) error {
	if b.done.Load() {
		return db.ErrBatchDone
	}
	b.ops = append(b.ops, &item{key: bytes.Clone(key)})
	return nil
}

func (b *batch) Commit() error {
	if b.done.Load() {
		return db.ErrBatchDone
	}
	if !b.store.usable() {
		return db.ErrClosed
	}

	c := b.store.c
	c.mu.Lock()
	for _, op := range b.ops {
		if op.value == nil {
			c.tree.Delete(op)
		} else {
			c.tree.ReplaceOrInsert(op)
		}
	}
	c.mu.Unlock()

	b.done.Store(true)
	b.ops = nil
	return nil
}

func (b *batch) Close() error {
	if b.done.CompareAndSwap(false, true) {
		b.ops = nil
	}
	return nil
}

// --------------------------------------------------------------------------
// Iterator
// --------------------------------------------------------------------------

// iterator walks a copy-on-write snapshot of the tree taken at creation
type iterator struct {
	snapshot *btree.BTree
	current  *item
	started  bool
	done     bool
}

func (s *kvStore) NewIterator(_ db.IterOptions) (db.Iterator, error) {
	if !s.usable() {
		return nil, db.ErrClosed
	}

	// Clone modifies the copy-on-write state of the source tree
	s.c.mu.Lock()
	snapshot := s.c.tree.Clone()
	s.c.mu.Unlock()

	return &iterator{snapshot: snapshot}, nil
}

func (it *iterator) Next() bool {
	if it.done {
		return false
	}

	var next *item
	visit := func(i btree.Item) bool {
		candidate := i.(*item)
		if it.started && bytes.Equal(candidate.key, it.current.key) {
			return true
		}
		next = candidate
		return false
	}
	if !it.started {
		it.snapshot.Ascend(visit)
	} else {
		it.snapshot.AscendGreaterOrEqual(it.current, visit)
	}
	it.started = true

	if next == nil {
		it.done = true
		it.current = nil
		return false
	}
	it.current = next
	return true
}

func (it *iterator) Key() []byte {
	return bytes.Clone(it.current.key)
}

func (it *iterator) Value() []byte {
	return cloneValue(it.current.value)
}

func (it *iterator) Error() error {
	return nil
}

func (it *iterator) Close() error {
	it.done = true
	it.snapshot = nil
	return nil
}
