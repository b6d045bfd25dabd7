package store

import (
	"fmt"

	"github.com/ValentinKolb/stones/lib/db"
	"github.com/VictoriaMetrics/metrics"
)

// --------------------------------------------------------------------------
// Metrics
// --------------------------------------------------------------------------

// Operation names used as the op label
const (
	opOpen    = "open"
	opGet     = "get"
	opPut     = "put"
	opDelete  = "delete"
	opHas     = "has"
	opLen     = "len"
	opIterate = "iterate"
	opUpdate  = "update"
	opClear   = "clear"
	opDestroy = "destroy"
	opClose   = "close"
)

// countOp increments the operation counter of engine
func countOp(engine db.Implementation, op string) {
	metrics.GetOrCreateCounter(fmt.Sprintf(`stones_store_ops_total{op=%q,engine=%q}`, op, engine)).Inc()
}

// countDecodeError increments the decode error counter of engine
func countDecodeError(engine db.Implementation) {
	metrics.GetOrCreateCounter(fmt.Sprintf(`stones_store_decode_errors_total{engine=%q}`, engine)).Inc()
}

// observeBatch records the number of writes in a committed batch
func observeBatch(engine db.Implementation, n int) {
	metrics.GetOrCreateHistogram(fmt.Sprintf(`stones_store_batch_items{engine=%q}`, engine)).Update(float64(n))
}
