package pebble

import (
	"path/filepath"
	"testing"

	"github.com/ValentinKolb/stones/lib/db"
	dbtesting "github.com/ValentinKolb/stones/lib/db/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func factory(opts *Options) dbtesting.EngineFactory {
	return func(t testing.TB) (db.Engine, string) {
		return NewEngine(opts), filepath.Join(t.TempDir(), "test"+extension)
	}
}

func Test(t *testing.T) {
	dbtesting.RunKVDBTests(t, "PebbleDB", factory(nil))
}

func TestNoSync(t *testing.T) {
	dbtesting.RunKVDBTests(t, "PebbleDB(NoSync)", factory(&Options{CacheSize: 1 << 20, Sync: false}))
}

func Benchmark(b *testing.B) {
	dbtesting.RunKVDBBenchmarks(b, "PebbleDB", factory(&Options{CacheSize: defaultCacheSize, Sync: false}))
}

func TestEngine(t *testing.T) {
	tests := []struct {
		name string
		fn   func(t *testing.T, engine db.Engine, path string)
	}{
		{
			name: "identity",
			fn:   testIdentity,
		},
		{
			name: "creates_directory",
			fn:   testCreatesDirectory,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tc.fn(t, NewEngine(nil), filepath.Join(t.TempDir(), "store"+extension))
		})
	}
}

func testIdentity(t *testing.T, engine db.Engine, _ string) {
	assert.Equal(t, db.ImplPebble, engine.Name())
	assert.Equal(t, ".pebble", engine.Extension())
}

func testCreatesDirectory(t *testing.T, engine db.Engine, path string) {
	assert.NoDirExists(t, path)

	database, err := engine.Open(path, true)
	require.NoError(t, err)
	assert.DirExists(t, path)
	assert.Equal(t, db.DatabaseInfo{DbType: db.ImplPebble, Path: path, Persistent: true}, database.GetInfo())
	require.NoError(t, database.Close())

	require.NoError(t, engine.Destroy(path))
	assert.NoDirExists(t, path)
}
