package pebble

import (
	"errors"
	"fmt"
	"os"
	"sync"
	"sync/atomic"

	"github.com/ValentinKolb/stones/lib/db"
	"github.com/cockroachdb/pebble"
	"github.com/lni/dragonboat/v4/logger"
)

var log = logger.GetLogger("engine")

const (
	extension           = ".pebble"
	defaultCacheSize    = 64 << 20 // 64MB
	defaultMemTableSize = 32 << 20 // 32MB
)

// Options configures databases opened by the pebble engine
type Options struct {
	CacheSize int64 // Block cache size in bytes
	// Sync forces an fsync for every write and batch commit
	Sync bool
}

// DefaultOptions returns the default pebble engine options
func DefaultOptions() *Options {
	return &Options{
		CacheSize: defaultCacheSize,
		Sync:      true,
	}
}

// --------------------------------------------------------------------------
// Engine
// --------------------------------------------------------------------------

type engineImpl struct {
	opts *Options
}

// NewEngine creates a db.Engine backed by CockroachDB's pebble LSM tree.
// A nil opts uses DefaultOptions.
func NewEngine(opts *Options) db.Engine {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &engineImpl{opts: opts}
}

func (e *engineImpl) Name() db.Implementation {
	return db.ImplPebble
}

func (e *engineImpl) Extension() string {
	return extension
}

func (e *engineImpl) Open(path string, createIfMissing bool) (db.KVDB, error) {
	if !createIfMissing {
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("open pebble db %s: %w", path, db.ErrNotExist)
		}
	}

	cache := pebble.NewCache(e.opts.CacheSize)
	defer cache.Unref()

	pdb, err := pebble.Open(path, &pebble.Options{
		Cache:        cache,
		MemTableSize: defaultMemTableSize,
	})
	if err != nil {
		return nil, fmt.Errorf("open pebble db %s: %w", path, err)
	}
	log.Debugf("opened pebble db %s", path)

	writeOpts := pebble.NoSync
	if e.opts.Sync {
		writeOpts = pebble.Sync
	}
	return &kvStore{db: pdb, path: path, writeOpts: writeOpts}, nil
}

func (e *engineImpl) Destroy(path string) error {
	if err := os.RemoveAll(path); err != nil {
		return fmt.Errorf("destroy pebble db %s: %w", path, err)
	}
	log.Debugf("destroyed pebble db %s", path)
	return nil
}

// --------------------------------------------------------------------------
// Database
// --------------------------------------------------------------------------

type kvStore struct {
	db        *pebble.DB
	path      string
	writeOpts *pebble.WriteOptions
	closed    bool
	mu        sync.RWMutex
}

func (p *kvStore) Get(key []byte) ([]byte, bool, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return nil, false, db.ErrClosed
	}

	value, closer, err := p.db.Get(key)
	if errors.Is(err, pebble.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	defer closer.Close()

	result := make([]byte, len(value))
	copy(result, value)
	return result, true, nil
}

func (p *kvStore) Put(key, value []byte) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return db.ErrClosed
	}
	return p.db.Set(key, value, p.writeOpts)
}

func (p *kvStore) Delete(key []byte) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return db.ErrClosed
	}
	return p.db.Delete(key, p.writeOpts)
}

func (p *kvStore) GetInfo() db.DatabaseInfo {
	return db.DatabaseInfo{
		DbType:     db.ImplPebble,
		Path:       p.path,
		Persistent: true,
	}
}

func (p *kvStore) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}
	p.closed = true
	return p.db.Close()
}

// --------------------------------------------------------------------------
// Batch
// --------------------------------------------------------------------------

type batch struct {
	store *kvStore
	batch *pebble.Batch
	done  atomic.Bool
}

func (p *kvStore) NewBatch() db.Batch {
	return &batch{
		store: p,
		batch: p.db.NewBatch(),
	}
}

func (b *batch) Put(key, value []byte) error {
	if b.done.Load() {
		return db.ErrBatchDone
	}
	return b.batch.Set(key, value, nil)
}

func (b *batch) Delete(key []byte) error {
	if b.done.Load() {
		return db.ErrBatchDone
	}
	return b.batch.Delete(key, nil)
}

func (b *batch) Commit() error {
	if b.done.Load() {
		return db.ErrBatchDone
	}

	b.store.mu.RLock()
	defer b.store.mu.RUnlock()
	if b.store.closed {
		return db.ErrClosed
	}

	if err := b.batch.Commit(b.store.writeOpts); err != nil {
		return err
	}
	b.done.Store(true)
	return b.batch.Close()
}

func (b *batch) Close() error {
	if !b.done.CompareAndSwap(false, true) {
		return nil
	}
	return b.batch.Close()
}

// --------------------------------------------------------------------------
// Iterator
// --------------------------------------------------------------------------

type iterator struct {
	iter    *pebble.Iterator
	started bool
	err     error
}

func (p *kvStore) NewIterator(_ db.IterOptions) (db.Iterator, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return nil, db.ErrClosed
	}

	iter, err := p.db.NewIter(&pebble.IterOptions{})
	if err != nil {
		return nil, fmt.Errorf("create pebble iterator: %w", err)
	}
	return &iterator{iter: iter}, nil
}

func (it *iterator) Next() bool {
	// position the iterator at the first key on the first call
	if !it.started {
		it.started = true
		return it.iter.First()
	}
	if !it.iter.Valid() {
		return false
	}
	return it.iter.Next()
}

func (it *iterator) Key() []byte {
	key := it.iter.Key()
	result := make([]byte, len(key))
	copy(result, key)
	return result
}

func (it *iterator) Value() []byte {
	val, err := it.iter.ValueAndErr()
	if err != nil {
		it.err = err
		return nil
	}

	result := make([]byte, len(val))
	copy(result, val)
	return result
}

func (it *iterator) Error() error {
	if it.err != nil {
		return it.err
	}
	return it.iter.Error()
}

func (it *iterator) Close() error {
	return it.iter.Close()
}
