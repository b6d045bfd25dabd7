package level

import (
	"path/filepath"
	"testing"

	"github.com/ValentinKolb/stones/lib/db"
	dbtesting "github.com/ValentinKolb/stones/lib/db/testing"
	"github.com/stretchr/testify/assert"
)

func factory(opts *Options) dbtesting.EngineFactory {
	return func(t testing.TB) (db.Engine, string) {
		return NewEngine(opts), filepath.Join(t.TempDir(), "test"+extension)
	}
}

func Test(t *testing.T) {
	dbtesting.RunKVDBTests(t, "LevelDB", factory(nil))
}

func Benchmark(b *testing.B) {
	dbtesting.RunKVDBBenchmarks(b, "LevelDB", factory(&Options{Sync: false}))
}

func TestIdentity(t *testing.T) {
	engine := NewEngine(nil)
	assert.Equal(t, db.ImplLevelDB, engine.Name())
	assert.Equal(t, ".lvl", engine.Extension())
}
