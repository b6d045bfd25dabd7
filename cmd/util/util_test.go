package util

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/ValentinKolb/stones/lib/common"
	"github.com/ValentinKolb/stones/lib/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrapString(t *testing.T) {
	text := strings.Repeat("word ", 30)
	for _, line := range strings.Split(WrapString(text), "\n") {
		assert.LessOrEqual(t, len(line), Wrap)
	}
	assert.Equal(t, "short text", WrapString("  short   text "))
}

func openTextStore(t *testing.T, codecName string) TextStore {
	t.Helper()
	s, err := OpenStore(&common.StoreConfig{
		Name:   t.Name(),
		Engine: "memory",
		Codec:  codecName,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = s.Destroy(true)
	})
	return s
}

func TestRawTextStore(t *testing.T) {
	s := openTextStore(t, "raw")

	require.NoError(t, s.Set("greeting", `{"not":"parsed"}`))
	v, err := s.Get("greeting")
	require.NoError(t, err)
	assert.Equal(t, `{"not":"parsed"}`, v)

	v, err = s.GetOr("missing", "fallback")
	require.NoError(t, err)
	assert.Equal(t, "fallback", v)

	require.NoError(t, s.Load(map[string]json.RawMessage{
		"a": json.RawMessage(`"text"`),
		"b": json.RawMessage(`42`),
	}))
	items, err := s.Items()
	require.NoError(t, err)
	assert.Equal(t, []Entry{
		{Key: "a", Value: "text"},
		{Key: "b", Value: "42"},
		{Key: "greeting", Value: `{"not":"parsed"}`},
	}, items)
}

func TestStructuredTextStore(t *testing.T) {
	for _, codecName := range []string{"cbor", "binary", "json"} {
		t.Run(codecName, func(t *testing.T) {
			s := openTextStore(t, codecName)

			require.NoError(t, s.Set("n", "42"))
			require.NoError(t, s.Set("obj", `{"b":[1,2],"a":true}`))
			require.NoError(t, s.Set("word", "hello"))

			v, err := s.Get("n")
			require.NoError(t, err)
			assert.Equal(t, "42", v)

			v, err = s.Get("obj")
			require.NoError(t, err)
			assert.Equal(t, `{"a":true,"b":[1,2]}`, v)

			v, err = s.Get("word")
			require.NoError(t, err)
			assert.Equal(t, "hello", v)

			require.NoError(t, s.Put("word", "other", false))
			v, err = s.Get("word")
			require.NoError(t, err)
			assert.Equal(t, "hello", v)

			keys, err := s.Keys()
			require.NoError(t, err)
			assert.Equal(t, []string{"n", "obj", "word"}, keys)

			n, err := s.Len()
			require.NoError(t, err)
			assert.Equal(t, 3, n)

			require.NoError(t, s.Clear())
			found, err := s.Has("n")
			require.NoError(t, err)
			assert.False(t, found)

			_, err = s.Get("n")
			assert.ErrorIs(t, err, store.ErrKeyNotFound)
		})
	}
}

func TestOpenStoreErrors(t *testing.T) {
	tests := []struct {
		name   string
		config common.StoreConfig
	}{
		{name: "unknown_engine", config: common.StoreConfig{Name: "x", Engine: "redis", Codec: "raw"}},
		{name: "unknown_codec", config: common.StoreConfig{Name: "x", Engine: "memory", Codec: "yaml"}},
		{name: "gob", config: common.StoreConfig{Name: "x", Engine: "memory", Codec: "gob"}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := OpenStore(&tc.config)
			assert.Error(t, err)
		})
	}
}

func TestParseValue(t *testing.T) {
	v, err := parseValue("3.5")
	require.NoError(t, err)
	assert.Equal(t, 3.5, v)

	v, err = parseValue("not json")
	require.NoError(t, err)
	assert.Equal(t, "not json", v)

	out, err := formatValue(map[string]any{"k": []any{1.0, "x"}})
	require.NoError(t, err)
	assert.Equal(t, `{"k":[1,"x"]}`, out)
}
