package store

import (
	"fmt"
	"iter"

	"github.com/ValentinKolb/stones/lib/codec"
	"github.com/ValentinKolb/stones/lib/db"
)

// --------------------------------------------------------------------------
// Interface Definition
// --------------------------------------------------------------------------

// IStore is the dictionary-like interface of a store with values of type V.
// Keys are arbitrary byte sequences. Values pass through the codec of the store.
// All methods return a *Error (nil on success). Once a store is closed or destroyed,
// every method returns an error matching ErrStoreClosed.
type IStore[V any] interface {
	// GetOr returns the value for key, or def if the key is missing.
	GetOr(key []byte, def V) (value V, err error)
	// Get returns the value for key. A missing key yields ErrKeyNotFound.
	Get(key []byte) (value V, err error)
	// Put writes the value for key. If overwrite is false and the key already has
	// a value, the call is a silent no-op (first write wins).
	Put(key []byte, value V, overwrite bool) (err error)
	// Set writes the value for key, replacing any existing value.
	Set(key []byte, value V) (err error)
	// Delete removes key. Deleting a missing key is not an error.
	Delete(key []byte) (err error)
	// Has reports whether key has a value.
	Has(key []byte) (ok bool, err error)
	// Len returns the number of keys in the store.
	Len() (n int, err error)
	// IterKeys returns a lazy sequence of all keys in engine order. It can be ranged
	// over more than once, every range starts a fresh scan. Values are not decoded.
	IterKeys() iter.Seq2[[]byte, error]
	// Keys returns all keys in engine order.
	Keys() (keys [][]byte, err error)
	// Values returns all decoded values in key order.
	Values() (values []V, err error)
	// Items returns all decoded key-value pairs in key order.
	Items() (items []Item[V], err error)
	// Update writes items followed by extra in one atomic batch, overwriting existing
	// values. On duplicate keys the later write wins, so extra takes precedence.
	Update(items []Item[V], extra ...Item[V]) (err error)
	// Clear removes the whole collection and reopens an empty one under the same name.
	Clear() (err error)
	// Destroy closes the store and irrecoverably deletes its data, but only if
	// confirmed is true. Otherwise it is a no-op and the store stays open.
	Destroy(confirmed bool) (err error)
	// Close releases the engine handle. Closing twice returns ErrStoreClosed.
	Close() (err error)
	// Info returns metadata about the database underlying the store.
	Info() (info db.DatabaseInfo, err error)
}

// Item is a single key-value pair.
type Item[V any] struct {
	Key   []byte
	Value V
}

// ValueType describes what a store holds, fixed when the store is opened.
type ValueType int

const (
	// ValueTypeRaw stores hold byte slices that are written unchanged
	ValueTypeRaw ValueType = iota
	// ValueTypeEncoded stores hold structured values passed through a codec
	ValueTypeEncoded
)

func (t ValueType) String() string {
	switch t {
	case ValueTypeRaw:
		return "raw"
	case ValueTypeEncoded:
		return "encoded"
	default:
		return "unknown"
	}
}

// valueTypeOf derives the value type from the codec of a store
func valueTypeOf(name codec.Implementation) ValueType {
	if name == codec.ImplRaw {
		return ValueTypeRaw
	}
	return ValueTypeEncoded
}

// --------------------------------------------------------------------------
// Custom Error Type
// --------------------------------------------------------------------------

// Error is a custom error type that wraps a return code (of type RetCode),
// an error message and the underlying cause, if any.
// Two errors are considered equal by errors.Is when their codes match.
type Error struct {
	Code RetCode // The return code
	Msg  string  // The error message.
	Err  error   // The cause, may be nil.
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("StoreError (code %s): %s: %v", e.Code, e.Msg, e.Err)
	}
	return fmt.Sprintf("StoreError (code %s): %s", e.Code, e.Msg)
}

// Unwrap returns the cause of the error.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is an *Error with the same code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

// NewError creates a new Error with the given code and message.
func NewError(code RetCode, msg string) *Error {
	return &Error{
		Code: code,
		Msg:  msg,
	}
}

// wrapError creates a new Error with the given code and message around cause.
func wrapError(code RetCode, cause error, format string, args ...any) *Error {
	return &Error{
		Code: code,
		Msg:  fmt.Sprintf(format, args...),
		Err:  cause,
	}
}

// Sentinel errors for errors.Is, one per return code
var (
	ErrEngineUnavailable = NewError(RetCEngineUnavailable, "engine unavailable")
	ErrKeyNotFound       = NewError(RetCKeyNotFound, "key not found")
	ErrDecode            = NewError(RetCDecodeError, "decode failed")
	ErrEncode            = NewError(RetCEncodeError, "encode failed")
	ErrStoreClosed       = NewError(RetCStoreClosed, "store is closed")
)

// --------------------------------------------------------------------------
// Return Codes
// --------------------------------------------------------------------------

type RetCode uint64

const (
	RetCSuccess           RetCode = iota // 0: Command executed successfully.
	RetCInternalError                    // 1: Command failed inside the engine.
	RetCInvalidOperation                 // 2: Invalid operation or argument.
	RetCEngineUnavailable                // 3: The engine could not be opened.
	RetCKeyNotFound                      // 4: The key has no value.
	RetCDecodeError                      // 5: Stored bytes could not be decoded.
	RetCEncodeError                      // 6: A value could not be encoded.
	RetCStoreClosed                      // 7: The store was closed or destroyed.
)

func (c RetCode) String() string {
	switch c {
	case RetCSuccess:
		return "Success"
	case RetCInternalError:
		return "InternalError"
	case RetCInvalidOperation:
		return "InvalidOperation"
	case RetCEngineUnavailable:
		return "EngineUnavailable"
	case RetCKeyNotFound:
		return "KeyNotFound"
	case RetCDecodeError:
		return "DecodeError"
	case RetCEncodeError:
		return "EncodeError"
	case RetCStoreClosed:
		return "StoreClosed"
	default:
		return "Unknown"
	}
}
