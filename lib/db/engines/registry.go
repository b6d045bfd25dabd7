package engines

import (
	"fmt"
	"strings"

	"github.com/ValentinKolb/stones/lib/db"
	"github.com/ValentinKolb/stones/lib/db/engines/bolt"
	"github.com/ValentinKolb/stones/lib/db/engines/level"
	"github.com/ValentinKolb/stones/lib/db/engines/memory"
	"github.com/ValentinKolb/stones/lib/db/engines/pebble"
)

// Default is the engine used when none is configured
const Default = db.ImplPebble

// Available returns all engine implementations in their preferred order
func Available() []db.Implementation {
	return []db.Implementation{db.ImplPebble, db.ImplLevelDB, db.ImplBolt, db.ImplMemory}
}

// Parse converts a (case-insensitive) name into an engine implementation.
// An empty name yields Default.
func Parse(name string) (db.Implementation, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return Default, nil
	}
	for _, impl := range Available() {
		if string(impl) == name {
			return impl, nil
		}
	}
	// "level" and the file suffix "lvl" are accepted as aliases
	if name == "level" || name == "lvl" {
		return db.ImplLevelDB, nil
	}
	return "", fmt.Errorf("unknown engine %q (available: %v)", name, Available())
}

// Get returns an engine with default options for impl.
// The memory engine shares one process wide registry of collections.
func Get(impl db.Implementation) (db.Engine, error) {
	switch impl {
	case db.ImplPebble:
		return pebble.NewEngine(nil), nil
	case db.ImplLevelDB:
		return level.NewEngine(nil), nil
	case db.ImplBolt:
		return bolt.NewEngine(nil), nil
	case db.ImplMemory:
		return memory.Engine(), nil
	default:
		return nil, fmt.Errorf("unknown engine %q", impl)
	}
}
