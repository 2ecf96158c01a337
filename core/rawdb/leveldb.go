// LevelDB-backed implementation of the Database interface. This is the
// durable store the daemon runs on; MemoryDB covers tests and dev mode.
package rawdb

import (
	"fmt"

	"github.com/syndtr/goleveldb/leveldb"
	ldberrors "github.com/syndtr/goleveldb/leveldb/errors"
	"github.com/syndtr/goleveldb/leveldb/filter"
	ldbiterator "github.com/syndtr/goleveldb/leveldb/iterator"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/util"
)

// LevelDB wraps a goleveldb instance behind the Database interface.
type LevelDB struct {
	db *leveldb.DB
}

// NewLevelDB opens or creates a LevelDB database at path. A corrupted
// database is recovered in place before giving up.
func NewLevelDB(path string) (*LevelDB, error) {
	opts := &opt.Options{
		Filter: filter.NewBloomFilter(10),
	}
	db, err := leveldb.OpenFile(path, opts)
	if _, corrupted := err.(*ldberrors.ErrCorrupted); corrupted {
		db, err = leveldb.RecoverFile(path, nil)
	}
	if err != nil {
		return nil, fmt.Errorf("rawdb: open leveldb %s: %w", path, err)
	}
	return &LevelDB{db: db}, nil
}

func (l *LevelDB) Has(key []byte) (bool, error) {
	return l.db.Has(key, nil)
}

func (l *LevelDB) Get(key []byte) ([]byte, error) {
	val, err := l.db.Get(key, nil)
	if err == leveldb.ErrNotFound {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return val, nil
}

func (l *LevelDB) Put(key, value []byte) error {
	return l.db.Put(key, value, nil)
}

func (l *LevelDB) Delete(key []byte) error {
	return l.db.Delete(key, nil)
}

func (l *LevelDB) Close() error {
	return l.db.Close()
}

// NewBatch creates a write batch that commits atomically.
func (l *LevelDB) NewBatch() Batch {
	return &ldbBatch{db: l.db, b: new(leveldb.Batch)}
}

// NewIterator returns an iterator over all keys with the given prefix.
func (l *LevelDB) NewIterator(prefix []byte) Iterator {
	return &ldbIterator{it: l.db.NewIterator(util.BytesPrefix(prefix), nil)}
}

type ldbBatch struct {
	db   *leveldb.DB
	b    *leveldb.Batch
	size int
}

func (b *ldbBatch) Put(key, value []byte) error {
	b.b.Put(key, value)
	b.size += len(key) + len(value)
	return nil
}

func (b *ldbBatch) Delete(key []byte) error {
	b.b.Delete(key)
	b.size += len(key)
	return nil
}

func (b *ldbBatch) ValueSize() int { return b.size }

func (b *ldbBatch) Write() error {
	return b.db.Write(b.b, nil)
}

func (b *ldbBatch) Reset() {
	b.b.Reset()
	b.size = 0
}

type ldbIterator struct {
	it ldbiterator.Iterator
}

func (it *ldbIterator) Next() bool    { return it.it.Next() }
func (it *ldbIterator) Key() []byte   { return it.it.Key() }
func (it *ldbIterator) Value() []byte { return it.it.Value() }
func (it *ldbIterator) Release()      { it.it.Release() }
