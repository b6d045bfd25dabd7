// Package store provides a dictionary-like facade over an ordered, byte-keyed
// database. It lets application code use a persistent collection like an in-memory
// map: lookups with and without a default, membership tests, iteration, bulk
// population in one batch and clearing, while values pass through a codec on
// their way to and from the engine.
//
// Key Components:
//
//   - IStore Interface: The map-like API of a store. Store[V] is the implementation,
//     generic over the value type V which is fixed when the store is opened.
//
//   - Codec: Every value is encoded before it is written and decoded after it is read.
//     Stores opened with the raw codec (V = []byte) write values unchanged and report
//     ValueTypeRaw, all others report ValueTypeEncoded.
//
//   - Engine: The db.Engine given in Options opens the collection at name plus the
//     engine extension (e.g. "users" becomes "users.pebble"). The default is pebble.
//
//   - Error System: All methods return a *Error carrying a RetCode. The sentinels
//     ErrEngineUnavailable, ErrKeyNotFound, ErrDecode, ErrEncode and ErrStoreClosed
//     can be matched with errors.Is, the engine error stays reachable through Unwrap.
//
// Write Policies:
//
//	Set always overwrites. Put(key, value, false) only writes if the key has no value
//	yet and is a silent no-op otherwise. Update writes all items in one atomic batch,
//	the extra items are written last and win on duplicate keys.
//
// Empty Values:
//
//	An entry with an empty stored value is treated as missing by Get, GetOr, Has and
//	the Put guard. It still counts as a key for Len, IterKeys and Keys.
//
// Lifecycle:
//
//	Clear closes the handle, destroys the collection and reopens an empty one under
//	the same name. Destroy(true) closes the handle and deletes the collection,
//	Destroy(false) only logs a warning. After Close or Destroy(true) every method
//	returns ErrStoreClosed, reopen the store with Open to use it again.
//
// Usage Example:
//
//	c := codec.NewCBORCodec[any]()
//	s, err := store.Open("users", c, nil, store.Pairs(map[string]any{"alice": 1})...)
//	if err != nil {
//		return err
//	}
//	defer s.Close()
//
//	_ = s.Put([]byte("bob"), 2, false)
//	v, err := s.Get([]byte("alice")) // int64(1)
//
//	for key, err := range s.IterKeys() {
//		...
//	}
package store
