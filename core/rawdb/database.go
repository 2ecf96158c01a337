// Package rawdb provides the low-level database interfaces and accessor
// functions for the distributor's persisted state: the bucket registry and
// the released-amount ledger.
//
// The schema is prefix-based: each record type uses a distinct single-byte
// key prefix to avoid collisions, and every record is directly addressable
// by key.
package rawdb

import "errors"

var (
	ErrNotFound = errors.New("not found")
)

// KeyValueReader wraps the Has and Get methods of a backing data store.
type KeyValueReader interface {
	Has(key []byte) (bool, error)
	Get(key []byte) ([]byte, error)
}

// KeyValueWriter wraps the Put and Delete methods of a backing data store.
type KeyValueWriter interface {
	Put(key, value []byte) error
	Delete(key []byte) error
}

// KeyValueStore combines read and write access to a backing data store.
type KeyValueStore interface {
	KeyValueReader
	KeyValueWriter
	Close() error
}

// Iterator iterates over a database's key/value pairs in ascending key order.
type Iterator interface {
	Next() bool
	Key() []byte
	Value() []byte
	Release()
}

// Batch is a write-only database that commits changes atomically.
type Batch interface {
	KeyValueWriter
	ValueSize() int
	Write() error
	Reset()
}

// Database is the full database interface combining all capabilities.
type Database interface {
	KeyValueStore
	NewBatch() Batch
	NewIterator(prefix []byte) Iterator
}
