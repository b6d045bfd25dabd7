package level

import (
	"errors"
	"fmt"
	"os"
	"sync"
	"sync/atomic"

	"github.com/ValentinKolb/stones/lib/db"
	"github.com/lni/dragonboat/v4/logger"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/iterator"
	"github.com/syndtr/goleveldb/leveldb/opt"
)

var log = logger.GetLogger("engine")

const extension = ".lvl"

// Options configures databases opened by the leveldb engine
type Options struct {
	// Sync forces an fsync for every write and batch commit
	Sync bool
	// BlockCacheCapacity in bytes (0 = goleveldb default of 8MB)
	BlockCacheCapacity int
}

// DefaultOptions returns the default leveldb engine options
func DefaultOptions() *Options {
	return &Options{
		Sync: true,
	}
}

// --------------------------------------------------------------------------
// Engine
// --------------------------------------------------------------------------

type engineImpl struct {
	opts *Options
}

// NewEngine creates a db.Engine backed by goleveldb, a pure Go LevelDB port.
// A nil opts uses DefaultOptions.
func NewEngine(opts *Options) db.Engine {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &engineImpl{opts: opts}
}

func (e *engineImpl) Name() db.Implementation {
	return db.ImplLevelDB
}

func (e *engineImpl) Extension() string {
	return extension
}

func (e *engineImpl) Open(path string, createIfMissing bool) (db.KVDB, error) {
	if !createIfMissing {
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("open leveldb %s: %w", path, db.ErrNotExist)
		}
	}

	ldb, err := leveldb.OpenFile(path, &opt.Options{
		ErrorIfMissing:     !createIfMissing,
		BlockCacheCapacity: e.opts.BlockCacheCapacity,
	})
	if err != nil {
		return nil, fmt.Errorf("open leveldb %s: %w", path, err)
	}
	log.Debugf("opened leveldb %s", path)

	return &kvStore{
		db:        ldb,
		path:      path,
		writeOpts: &opt.WriteOptions{Sync: e.opts.Sync},
	}, nil
}

func (e *engineImpl) Destroy(path string) error {
	if err := os.RemoveAll(path); err != nil {
		return fmt.Errorf("destroy leveldb %s: %w", path, err)
	}
	log.Debugf("destroyed leveldb %s", path)
	return nil
}

// --------------------------------------------------------------------------
// Database
// --------------------------------------------------------------------------

type kvStore struct {
	db        *leveldb.DB
	path      string
	writeOpts *opt.WriteOptions
	closed    bool
	mu        sync.RWMutex
}

func (s *kvStore) Get(key []byte) ([]byte, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, false, db.ErrClosed
	}

	// goleveldb already returns a copy
	value, err := s.db.Get(key, nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	if value == nil {
		value = []byte{}
	}
	return value, true, nil
}

func (s *kvStore) Put(key, value []byte) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return db.ErrClosed
	}
	return s.db.Put(key, value, s.writeOpts)
}

func (s *kvStore) Delete(key []byte) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return db.ErrClosed
	}
	return s.db.Delete(key, s.writeOpts)
}

func (s *kvStore) GetInfo() db.DatabaseInfo {
	return db.DatabaseInfo{
		DbType:     db.ImplLevelDB,
		Path:       s.path,
		Persistent: true,
	}
}

func (s *kvStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}

// --------------------------------------------------------------------------
// Batch
// --------------------------------------------------------------------------

type batch struct {
	store *kvStore
	batch *leveldb.Batch
	done  atomic.Bool
}

func (s *kvStore) NewBatch() db.Batch {
	return &batch{
		store: s,
		batch: new(leveldb.Batch),
	}
}

func (b *batch) Put(key, value []byte) error {
	if b.done.Load() {
		return db.ErrBatchDone
	}
	b.batch.Put(key, value)
	return nil
}

func (b *batch) Delete(key []byte) error {
	if b.done.Load() {
		return db.ErrBatchDone
	}
	b.batch.Delete(key)
	return nil
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

	if err := b.store.db.Write(b.batch, b.store.writeOpts); err != nil {
		return err
	}
	b.done.Store(true)
	b.batch.Reset()
	return nil
}

func (b *batch) Close() error {
	if b.done.CompareAndSwap(false, true) {
		b.batch.Reset()
	}
	return nil
}

// --------------------------------------------------------------------------
// Iterator
// --------------------------------------------------------------------------

type iter struct {
	it iterator.Iterator
}

func (s *kvStore) NewIterator(_ db.IterOptions) (db.Iterator, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, db.ErrClosed
	}
	return &iter{it: s.db.NewIterator(nil, nil)}, nil
}

func (i *iter) Next() bool {
	return i.it.Next()
}

// Key and Value copy since goleveldb reuses the iterator buffers
func (i *iter) Key() []byte {
	key := i.it.Key()
	result := make([]byte, len(key))
	copy(result, key)
	return result
}

func (i *iter) Value() []byte {
	value := i.it.Value()
	result := make([]byte, len(value))
	copy(result, value)
	return result
}

func (i *iter) Error() error {
	return i.it.Error()
}

func (i *iter) Close() error {
	i.it.Release()
	return nil
}
