package util

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/ValentinKolb/stones/lib/codec"
	"github.com/ValentinKolb/stones/lib/common"
	"github.com/ValentinKolb/stones/lib/db"
	"github.com/ValentinKolb/stones/lib/db/engines"
	"github.com/ValentinKolb/stones/lib/store"
)

// Entry is a key-value pair rendered as text
type Entry struct {
	Key   string
	Value string
}

// TextStore is a store whose keys and values are exchanged as command line text.
// Raw stores keep text unchanged, structured stores parse it as JSON.
type TextStore interface {
	Set(key, value string) error
	Put(key, value string, overwrite bool) error
	Get(key string) (string, error)
	GetOr(key, def string) (string, error)
	Delete(key string) error
	Has(key string) (bool, error)
	Len() (int, error)
	Keys() ([]string, error)
	Items() ([]Entry, error)
	// Load writes all entries of a JSON object in one batch
	Load(entries map[string]json.RawMessage) error
	Clear() error
	Destroy(confirmed bool) error
	Close() error
	Info() (db.DatabaseInfo, error)
}

// OpenStore opens the store described by config
func OpenStore(config *common.StoreConfig) (TextStore, error) {
	impl, err := engines.Parse(config.Engine)
	if err != nil {
		return nil, err
	}
	engine, err := engines.Get(impl)
	if err != nil {
		return nil, err
	}
	c, err := codec.Parse(config.Codec)
	if err != nil {
		return nil, err
	}

	if config.DataDir != "" && impl != db.ImplMemory {
		if err := os.MkdirAll(config.DataDir, 0755); err != nil {
			return nil, fmt.Errorf("create data directory: %w", err)
		}
	}
	opts := &store.Options{Engine: engine}

	switch c {
	case codec.ImplRaw:
		s, err := store.Open(config.StoreName(), codec.NewRawCodec(), opts)
		if err != nil {
			return nil, err
		}
		return &textStore[[]byte]{
			s:         s,
			parse:     func(v string) ([]byte, error) { return []byte(v), nil },
			parseJSON: rawFromJSON,
			format:    func(v []byte) (string, error) { return string(v), nil },
		}, nil
	case codec.ImplCBOR, codec.ImplBinary, codec.ImplJSON:
		cd, err := codec.New[any](c)
		if err != nil {
			return nil, err
		}
		s, err := store.Open(config.StoreName(), cd, opts)
		if err != nil {
			return nil, err
		}
		return &textStore[any]{
			s:         s,
			parse:     parseValue,
			parseJSON: anyFromJSON,
			format:    formatValue,
		}, nil
	default:
		return nil, fmt.Errorf("codec %s needs a concrete value type and can not be used from the command line", c)
	}
}

// --------------------------------------------------------------------------
// Implementation
// --------------------------------------------------------------------------

type textStore[V any] struct {
	s         *store.Store[V]
	parse     func(string) (V, error)
	parseJSON func(json.RawMessage) (V, error)
	format    func(V) (string, error)
}

func (t *textStore[V]) Set(key, value string) error {
	v, err := t.parse(value)
	if err != nil {
		return err
	}
	return t.s.Set([]byte(key), v)
}

func (t *textStore[V]) Put(key, value string, overwrite bool) error {
	v, err := t.parse(value)
	if err != nil {
		return err
	}
	return t.s.Put([]byte(key), v, overwrite)
}

func (t *textStore[V]) Get(key string) (string, error) {
	v, err := t.s.Get([]byte(key))
	if err != nil {
		return "", err
	}
	return t.format(v)
}

func (t *textStore[V]) GetOr(key, def string) (string, error) {
	d, err := t.parse(def)
	if err != nil {
		return "", err
	}
	v, err := t.s.GetOr([]byte(key), d)
	if err != nil {
		return "", err
	}
	return t.format(v)
}

func (t *textStore[V]) Delete(key string) error {
	return t.s.Delete([]byte(key))
}

func (t *textStore[V]) Has(key string) (bool, error) {
	return t.s.Has([]byte(key))
}

func (t *textStore[V]) Len() (int, error) {
	return t.s.Len()
}

func (t *textStore[V]) Keys() ([]string, error) {
	keys := make([]string, 0)
	for key, err := range t.s.IterKeys() {
		if err != nil {
			return nil, err
		}
		keys = append(keys, string(key))
	}
	return keys, nil
}

func (t *textStore[V]) Items() ([]Entry, error) {
	items, err := t.s.Items()
	if err != nil {
		return nil, err
	}
	entries := make([]Entry, 0, len(items))
	for _, item := range items {
		value, err := t.format(item.Value)
		if err != nil {
			return nil, err
		}
		entries = append(entries, Entry{Key: string(item.Key), Value: value})
	}
	return entries, nil
}

func (t *textStore[V]) Load(entries map[string]json.RawMessage) error {
	values := make(map[string]V, len(entries))
	for k, raw := range entries {
		v, err := t.parseJSON(raw)
		if err != nil {
			return fmt.Errorf("value of %q: %w", k, err)
		}
		values[k] = v
	}
	return t.s.Update(store.Pairs(values))
}

func (t *textStore[V]) Clear() error {
	return t.s.Clear()
}

func (t *textStore[V]) Destroy(confirmed bool) error {
	return t.s.Destroy(confirmed)
}

func (t *textStore[V]) Close() error {
	return t.s.Close()
}

func (t *textStore[V]) Info() (db.DatabaseInfo, error) {
	return t.s.Info()
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

// parseValue reads text as JSON, anything that is not valid JSON is kept as a string
func parseValue(text string) (any, error) {
	var v any
	if err := json.Unmarshal([]byte(text), &v); err != nil {
		return text, nil
	}
	return v, nil
}

// formatValue prints strings and bytes unchanged and everything else as JSON
func formatValue(v any) (string, error) {
	switch v := v.(type) {
	case string:
		return v, nil
	case []byte:
		return string(v), nil
	}
	out, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

func anyFromJSON(raw json.RawMessage) (any, error) {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, err
	}
	return v, nil
}

// rawFromJSON stores JSON strings as their content and all other JSON values as their text
func rawFromJSON(raw json.RawMessage) ([]byte, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return []byte(s), nil
	}
	return []byte(raw), nil
}
