package bolt

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ValentinKolb/stones/lib/db"
	"github.com/lni/dragonboat/v4/logger"
	bolt "go.etcd.io/bbolt"
)

var log = logger.GetLogger("engine")

const extension = ".bolt"

// all entries live in a single bucket
var bucketName = []byte("stones")

// keyPrefix is put in front of every stored key, bbolt rejects empty keys
const keyPrefix byte = 's'

// physicalKey returns the bucket key for key
func physicalKey(key []byte) []byte {
	pk := make([]byte, 0, len(key)+1)
	pk = append(pk, keyPrefix)
	return append(pk, key...)
}

// Options configures databases opened by the bolt engine
type Options struct {
	// LockTimeout bounds the wait for the file lock held by another handle (0 = wait forever)
	LockTimeout time.Duration
	// NoSync skips the fsync after each commit
	NoSync bool
}

// DefaultOptions returns the default bolt engine options
func DefaultOptions() *Options {
	return &Options{
		LockTimeout: time.Second,
	}
}

// --------------------------------------------------------------------------
// Engine
// --------------------------------------------------------------------------

type engineImpl struct {
	opts *Options
}

// NewEngine creates a db.Engine backed by bbolt, a single file B+tree.
// A nil opts uses DefaultOptions.
func NewEngine(opts *Options) db.Engine {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &engineImpl{opts: opts}
}

func (e *engineImpl) Name() db.Implementation {
	return db.ImplBolt
}

func (e *engineImpl) Extension() string {
	return extension
}

func (e *engineImpl) Open(path string, createIfMissing bool) (db.KVDB, error) {
	if !createIfMissing {
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("open bolt db %s: %w", path, db.ErrNotExist)
		}
	}

	bdb, err := bolt.Open(path, 0600, &bolt.Options{
		Timeout: e.opts.LockTimeout,
		NoSync:  e.opts.NoSync,
	})
	if err != nil {
		return nil, fmt.Errorf("open bolt db %s: %w", path, err)
	}

	err = bdb.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketName)
		return err
	})
	if err != nil {
		_ = bdb.Close()
		return nil, fmt.Errorf("creating bucket: %w", err)
	}
	log.Debugf("opened bolt db %s", path)

	return &kvStore{db: bdb, path: path}, nil
}

func (e *engineImpl) Destroy(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("destroy bolt db %s: %w", path, err)
	}
	log.Debugf("destroyed bolt db %s", path)
	return nil
}

// --------------------------------------------------------------------------
// Database
// --------------------------------------------------------------------------

type kvStore struct {
	db     *bolt.DB
	path   string
	closed bool
	mu     sync.RWMutex
}

// seek positions c at key and reports whether key exists.
// Presence is decided by the cursor, bbolt may return nil for empty values.
func seek(c *bolt.Cursor, key []byte) (value []byte, found bool) {
	k, v := c.Seek(key)
	if k == nil || !bytes.Equal(k, key) {
		return nil, false
	}
	return v, true
}

func (s *kvStore) Get(key []byte) ([]byte, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, false, db.ErrClosed
	}

	var (
		val   []byte
		found bool
	)
	err := s.db.View(func(tx *bolt.Tx) error {
		v, ok := seek(tx.Bucket(bucketName).Cursor(), physicalKey(key))
		if ok {
			val = make([]byte, len(v))
			copy(val, v)
			found = true
		}
		return nil
	})
	return val, found, err
}

func (s *kvStore) Put(key, value []byte) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return db.ErrClosed
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketName).Put(physicalKey(key), value)
	})
}

func (s *kvStore) Delete(key []byte) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return db.ErrClosed
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketName).Delete(physicalKey(key))
	})
}

func (s *kvStore) GetInfo() db.DatabaseInfo {
	return db.DatabaseInfo{
		DbType:     db.ImplBolt,
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

type op struct {
	key    []byte
	value  []byte
	delete bool
}

// batch buffers writes and applies them in a single update transaction
type batch struct {
	store *kvStore
	ops   []op
	done  atomic.Bool
}

func (s *kvStore) NewBatch() db.Batch {
	return &batch{store: s}
}

func (b *batch) Put(key, value []byte) error {
	if b.done.Load() {
		return db.ErrBatchDone
	}
	b.ops = append(b.ops, op{key: physicalKey(key), value: bytes.Clone(value)})
	return nil
}

func (b *batch) Delete(key []byte) error {
	if b.done.Load() {
		return db.ErrBatchDone
	}
	b.ops = append(b.ops, op{key: physicalKey(key), delete: true})
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

	err := b.store.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(bucketName)
		for _, o := range b.ops {
			var err error
			if o.delete {
				err = bucket.Delete(o.key)
			} else {
				err = bucket.Put(o.key, o.value)
			}
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
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

// iterator walks the bucket with one short read transaction per step,
// so no transaction stays open between calls and writers are never blocked.
type iterator struct {
	store    *kvStore
	keysOnly bool
	started  bool
	done     bool
	key      []byte
	value    []byte
	err      error
}

func (s *kvStore) NewIterator(opts db.IterOptions) (db.Iterator, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, db.ErrClosed
	}
	return &iterator{store: s, keysOnly: opts.KeysOnly}, nil
}

func (it *iterator) Next() bool {
	if it.done {
		return false
	}

	it.store.mu.RLock()
	defer it.store.mu.RUnlock()
	if it.store.closed {
		it.err = db.ErrClosed
		it.done = true
		return false
	}

	var (
		k, v  []byte
		found bool
	)
	it.err = it.store.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(bucketName).Cursor()
		var pk []byte
		if !it.started {
			pk, v = c.First()
		} else {
			current := physicalKey(it.key)
			pk, v = c.Seek(current)
			// skip the current key if it still exists
			if pk != nil && bytes.Equal(pk, current) {
				pk, v = c.Next()
			}
		}
		if pk == nil {
			return nil
		}
		// copy out of the transaction without the prefix
		found = true
		k = append(make([]byte, 0, len(pk)-1), pk[1:]...)
		if it.keysOnly {
			v = nil
		} else {
			v = append(make([]byte, 0, len(v)), v...)
		}
		return nil
	})
	it.started = true

	if it.err != nil || !found {
		it.done = true
		it.key, it.value = nil, nil
		return false
	}
	it.key, it.value = k, v
	return true
}

func (it *iterator) Key() []byte {
	return bytes.Clone(it.key)
}

func (it *iterator) Value() []byte {
	return append(make([]byte, 0, len(it.value)), it.value...)
}

func (it *iterator) Error() error {
	return it.err
}

func (it *iterator) Close() error {
	it.done = true
	return nil
}
