package rawdb

import (
	"fmt"

	"github.com/holiman/uint256"

	"github.com/merklevest/merklevest/types"
)

// --- Bucket registry accessors ---

// WriteBucket stores a bucket's encoded schedule data under its id.
func WriteBucket(db KeyValueWriter, id types.Hash, data []byte) error {
	return db.Put(bucketKey(id), data)
}

// ReadBucket retrieves a bucket's encoded schedule data.
func ReadBucket(db KeyValueReader, id types.Hash) ([]byte, error) {
	return db.Get(bucketKey(id))
}

// HasBucket checks whether a bucket exists.
func HasBucket(db KeyValueReader, id types.Hash) bool {
	ok, _ := db.Has(bucketKey(id))
	return ok
}

// --- Released-amount ledger accessors ---

// WriteReleased stores the cumulative released amount for a beneficiary of
// a bucket as a 32-byte big-endian value.
func WriteReleased(db KeyValueWriter, id types.Hash, beneficiary types.Address, amount *uint256.Int) error {
	enc := amount.Bytes32()
	return db.Put(releasedKey(id, beneficiary), enc[:])
}

// ReadReleased retrieves the cumulative released amount for a beneficiary.
// An absent entry is zero.
func ReadReleased(db KeyValueReader, id types.Hash, beneficiary types.Address) (*uint256.Int, error) {
	data, err := db.Get(releasedKey(id, beneficiary))
	if err == ErrNotFound {
		return new(uint256.Int), nil
	}
	if err != nil {
		return nil, err
	}
	if len(data) != 32 {
		return nil, fmt.Errorf("rawdb: released entry has %d bytes, want 32", len(data))
	}
	amount := new(uint256.Int)
	amount.SetBytes32(data)
	return amount, nil
}

// DeleteReleased removes a ledger entry. Used only to roll back a failed
// claim that created the entry.
func DeleteReleased(db KeyValueWriter, id types.Hash, beneficiary types.Address) error {
	return db.Delete(releasedKey(id, beneficiary))
}

// ReleasedEntry is one row of a bucket's released-amount ledger.
type ReleasedEntry struct {
	Beneficiary types.Address
	Amount      *uint256.Int
}

// ReadBucketLedger returns every released-amount entry recorded for the
// given bucket, in ascending beneficiary order.
func ReadBucketLedger(db Database, id types.Hash) ([]ReleasedEntry, error) {
	it := db.NewIterator(releasedBucketPrefix(id))
	defer it.Release()

	var entries []ReleasedEntry
	for it.Next() {
		key := it.Key()
		if len(key) != 1+types.HashLength+types.AddressLength {
			return nil, fmt.Errorf("rawdb: malformed ledger key of %d bytes", len(key))
		}
		val := it.Value()
		if len(val) != 32 {
			return nil, fmt.Errorf("rawdb: released entry has %d bytes, want 32", len(val))
		}
		amount := new(uint256.Int)
		amount.SetBytes32(val)
		entries = append(entries, ReleasedEntry{
			Beneficiary: types.BytesToAddress(key[1+types.HashLength:]),
			Amount:      amount,
		})
	}
	return entries, nil
}

// --- Emergency gate accessors ---

// WriteHalted records the one-way transition into the halted state.
func WriteHalted(db KeyValueWriter) error {
	return db.Put(haltedKey, []byte{1})
}

// ReadHalted reports whether the distributor has been halted.
func ReadHalted(db KeyValueReader) bool {
	ok, _ := db.Has(haltedKey)
	return ok
}
