package store

import (
	"errors"
	"fmt"
	"iter"
	"sort"
	"sync"

	"github.com/ValentinKolb/stones/lib/codec"
	"github.com/ValentinKolb/stones/lib/db"
	"github.com/ValentinKolb/stones/lib/db/engines/pebble"
	"github.com/lni/dragonboat/v4/logger"
)

var log = logger.GetLogger("store")

// Options configures how a store is opened
type Options struct {
	// Engine that holds the data of the store
	Engine db.Engine
}

// DefaultOptions returns options using the pebble engine with its default settings
func DefaultOptions() *Options {
	return &Options{
		Engine: pebble.NewEngine(nil),
	}
}

// Store is a dictionary-like view on one collection of an ordered, byte-keyed engine.
// It owns exactly one engine handle. The store only guards that handle, concurrent
// calls get whatever guarantees the engine gives.
type Store[V any] struct {
	name   string
	path   string
	engine db.Engine
	codec  codec.Codec[V]

	mu     sync.Mutex
	handle db.KVDB // nil once closed or destroyed
}

var _ IStore[any] = (*Store[any])(nil)

// Open opens the store called name, creating it if it does not exist. The engine
// appends its extension to name to get the path of the collection.
// Initial items are written in one atomic batch right after opening.
// A nil opts uses DefaultOptions.
func Open[V any](name string, c codec.Codec[V], opts *Options, initial ...Item[V]) (*Store[V], error) {
	if opts == nil {
		opts = DefaultOptions()
	}
	if c == nil {
		return nil, NewError(RetCInvalidOperation, "no codec configured")
	}
	if opts.Engine == nil {
		return nil, wrapError(RetCEngineUnavailable, nil, "no engine configured for store %s", name)
	}

	s := &Store[V]{
		name:   name,
		path:   name + opts.Engine.Extension(),
		engine: opts.Engine,
		codec:  c,
	}

	handle, err := s.engine.Open(s.path, true)
	if err != nil {
		return nil, wrapError(RetCEngineUnavailable, err, "open %s with engine %s", s.path, s.engine.Name())
	}
	s.handle = handle
	countOp(s.engine.Name(), opOpen)

	if len(initial) > 0 {
		if err := s.Update(initial); err != nil {
			_ = s.Close()
			return nil, err
		}
	}

	log.Debugf("opened store %s (engine %s, codec %s)", s.path, s.engine.Name(), c.Name())
	return s, nil
}

// Pairs converts a map into items sorted by key
func Pairs[V any](m map[string]V) []Item[V] {
	items := make([]Item[V], 0, len(m))
	for k, v := range m {
		items = append(items, Item[V]{Key: []byte(k), Value: v})
	}
	sort.Slice(items, func(i, j int) bool {
		return string(items[i].Key) < string(items[j].Key)
	})
	return items
}

// --------------------------------------------------------------------------
// Accessors
// --------------------------------------------------------------------------

// Name returns the name the store was opened with
func (s *Store[V]) Name() string {
	return s.name
}

// Path returns the path of the collection, the name plus the engine extension
func (s *Store[V]) Path() string {
	return s.path
}

// ValueType returns whether the store holds raw bytes or encoded values
func (s *Store[V]) ValueType() ValueType {
	return valueTypeOf(s.codec.Name())
}

// Codec returns the codec of the store
func (s *Store[V]) Codec() codec.Codec[V] {
	return s.codec
}

// String describes the store by path, engine, codec and number of keys.
// Values are never read.
func (s *Store[V]) String() string {
	size := "closed"
	if n, err := s.Len(); err == nil {
		size = fmt.Sprint(n)
	} else if !errors.Is(err, ErrStoreClosed) {
		size = "unknown"
	}
	return fmt.Sprintf("Store(%s, engine=%s, codec=%s, keys=%s)", s.path, s.engine.Name(), s.codec.Name(), size)
}

// --------------------------------------------------------------------------
// Interface Methods (docu see store/interface.go)
// --------------------------------------------------------------------------

func (s *Store[V]) GetOr(key []byte, def V) (V, error) {
	countOp(s.engine.Name(), opGet)
	raw, found, err := s.read(key)
	if err != nil || !found {
		return def, err
	}
	return s.decode(raw)
}

func (s *Store[V]) Get(key []byte) (V, error) {
	countOp(s.engine.Name(), opGet)
	raw, found, err := s.read(key)
	if err != nil {
		var zero V
		return zero, err
	}
	if !found {
		var zero V
		return zero, wrapError(RetCKeyNotFound, nil, "key %q not found", key)
	}
	return s.decode(raw)
}

func (s *Store[V]) Put(key []byte, value V, overwrite bool) error {
	if !overwrite {
		_, found, err := s.read(key)
		if err != nil {
			return err
		}
		if found {
			return nil
		}
	}
	return s.write(key, value)
}

func (s *Store[V]) Set(key []byte, value V) error {
	return s.write(key, value)
}

func (s *Store[V]) Delete(key []byte) error {
	h, err := s.current()
	if err != nil {
		return err
	}
	countOp(s.engine.Name(), opDelete)
	if err := h.Delete(key); err != nil {
		return s.engineError(err, "delete %q", key)
	}
	return nil
}

func (s *Store[V]) Has(key []byte) (bool, error) {
	countOp(s.engine.Name(), opHas)
	_, found, err := s.read(key)
	return found, err
}

func (s *Store[V]) Len() (int, error) {
	countOp(s.engine.Name(), opLen)
	n := 0
	for _, err := range s.IterKeys() {
		if err != nil {
			return 0, err
		}
		n++
	}
	return n, nil
}

func (s *Store[V]) IterKeys() iter.Seq2[[]byte, error] {
	return func(yield func([]byte, error) bool) {
		_ = s.scan(true, func(key, _ []byte) error {
			if !yield(key, nil) {
				return errStop
			}
			return nil
		}, func(err error) {
			yield(nil, err)
		})
	}
}

func (s *Store[V]) Keys() ([][]byte, error) {
	keys := make([][]byte, 0)
	for key, err := range s.IterKeys() {
		if err != nil {
			return nil, err
		}
		keys = append(keys, key)
	}
	return keys, nil
}

func (s *Store[V]) Values() ([]V, error) {
	values := make([]V, 0)
	err := s.scan(false, func(_, raw []byte) error {
		value, err := s.decode(raw)
		if err != nil {
			return err
		}
		values = append(values, value)
		return nil
	}, nil)
	if err != nil {
		return nil, err
	}
	return values, nil
}

func (s *Store[V]) Items() ([]Item[V], error) {
	items := make([]Item[V], 0)
	err := s.scan(false, func(key, raw []byte) error {
		value, err := s.decode(raw)
		if err != nil {
			return err
		}
		items = append(items, Item[V]{Key: key, Value: value})
		return nil
	}, nil)
	if err != nil {
		return nil, err
	}
	return items, nil
}

// ItemsMap returns all decoded values keyed by their key as string
func (s *Store[V]) ItemsMap() (map[string]V, error) {
	items, err := s.Items()
	if err != nil {
		return nil, err
	}
	m := make(map[string]V, len(items))
	for _, item := range items {
		m[string(item.Key)] = item.Value
	}
	return m, nil
}

func (s *Store[V]) Update(items []Item[V], extra ...Item[V]) error {
	h, err := s.current()
	if err != nil {
		return err
	}
	countOp(s.engine.Name(), opUpdate)

	batch := h.NewBatch()
	defer batch.Close()

	n := 0
	for _, source := range [][]Item[V]{items, extra} {
		for _, item := range source {
			raw, err := s.encode(item.Value)
			if err != nil {
				return err
			}
			if err := batch.Put(item.Key, raw); err != nil {
				return s.engineError(err, "batch put %q", item.Key)
			}
			n++
		}
	}

	if err := batch.Commit(); err != nil {
		return s.engineError(err, "commit batch of %d items", n)
	}
	observeBatch(s.engine.Name(), n)
	return nil
}

func (s *Store[V]) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.handle == nil {
		return ErrStoreClosed
	}
	countOp(s.engine.Name(), opClear)

	if err := s.handle.Close(); err != nil {
		return s.engineError(err, "close %s", s.path)
	}
	s.handle = nil

	if err := s.engine.Destroy(s.path); err != nil {
		return s.engineError(err, "destroy %s", s.path)
	}
	handle, err := s.engine.Open(s.path, true)
	if err != nil {
		return wrapError(RetCEngineUnavailable, err, "reopen %s with engine %s", s.path, s.engine.Name())
	}
	s.handle = handle

	log.Debugf("cleared store %s", s.path)
	return nil
}

func (s *Store[V]) Destroy(confirmed bool) error {
	if !confirmed {
		log.Warningf("not destroying store %s without confirmation", s.path)
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.handle == nil {
		return ErrStoreClosed
	}
	countOp(s.engine.Name(), opDestroy)

	err := s.handle.Close()
	s.handle = nil
	if err != nil {
		return s.engineError(err, "close %s", s.path)
	}
	if err := s.engine.Destroy(s.path); err != nil {
		return s.engineError(err, "destroy %s", s.path)
	}

	log.Infof("destroyed store %s", s.path)
	return nil
}

func (s *Store[V]) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.handle == nil {
		return ErrStoreClosed
	}
	countOp(s.engine.Name(), opClose)

	err := s.handle.Close()
	s.handle = nil
	if err != nil {
		return s.engineError(err, "close %s", s.path)
	}

	log.Debugf("closed store %s", s.path)
	return nil
}

func (s *Store[V]) Info() (db.DatabaseInfo, error) {
	h, err := s.current()
	if err != nil {
		return db.DatabaseInfo{}, err
	}
	return h.GetInfo(), nil
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

// errStop ends a scan early without an error
var errStop = errors.New("stop")

// current returns the engine handle or ErrStoreClosed
func (s *Store[V]) current() (db.KVDB, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.handle == nil {
		return nil, ErrStoreClosed
	}
	return s.handle, nil
}

// read loads the raw value of key. Empty values count as missing.
func (s *Store[V]) read(key []byte) ([]byte, bool, error) {
	h, err := s.current()
	if err != nil {
		return nil, false, err
	}

	raw, loaded, err := h.Get(key)
	if err != nil {
		return nil, false, s.engineError(err, "get %q", key)
	}
	return raw, loaded && len(raw) > 0, nil
}

// write encodes value and stores it under key
func (s *Store[V]) write(key []byte, value V) error {
	h, err := s.current()
	if err != nil {
		return err
	}
	raw, err := s.encode(value)
	if err != nil {
		return err
	}
	countOp(s.engine.Name(), opPut)

	if err := h.Put(key, raw); err != nil {
		return s.engineError(err, "put %q", key)
	}
	return nil
}

// scan calls fn for every entry in key order. Errors of the engine are passed to
// onErr if set, errors returned by fn end the scan and are returned.
func (s *Store[V]) scan(keysOnly bool, fn func(key, value []byte) error, onErr func(error)) error {
	fail := func(err error) error {
		if onErr != nil {
			onErr(err)
		}
		return err
	}

	h, err := s.current()
	if err != nil {
		return fail(err)
	}
	countOp(s.engine.Name(), opIterate)

	it, err := h.NewIterator(db.IterOptions{KeysOnly: keysOnly})
	if err != nil {
		return fail(s.engineError(err, "iterate %s", s.path))
	}
	defer it.Close()

	for it.Next() {
		var value []byte
		if !keysOnly {
			value = it.Value()
		}
		if err := fn(it.Key(), value); err != nil {
			if errors.Is(err, errStop) {
				return nil
			}
			return err
		}
	}
	if err := it.Error(); err != nil {
		return fail(s.engineError(err, "iterate %s", s.path))
	}
	return nil
}

func (s *Store[V]) encode(value V) ([]byte, error) {
	raw, err := s.codec.Encode(value)
	if err != nil {
		return nil, wrapError(RetCEncodeError, err, "encode with codec %s", s.codec.Name())
	}
	return raw, nil
}

func (s *Store[V]) decode(raw []byte) (V, error) {
	value, err := s.codec.Decode(raw)
	if err != nil {
		countDecodeError(s.engine.Name())
		var zero V
		return zero, wrapError(RetCDecodeError, err, "decode with codec %s", s.codec.Name())
	}
	return value, nil
}

// engineError wraps an engine error. A closed engine handle maps to ErrStoreClosed.
func (s *Store[V]) engineError(err error, format string, args ...any) *Error {
	if errors.Is(err, db.ErrClosed) {
		return wrapError(RetCStoreClosed, err, format, args...)
	}
	return wrapError(RetCInternalError, err, format, args...)
}
