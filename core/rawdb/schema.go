package rawdb

import "github.com/merklevest/merklevest/types"

// Key prefixes for the database schema. Prefix-based keys keep every
// record directly addressable and allow prefix iteration over the
// released-amount ledger of a single bucket.
var (
	// Bucket registry
	bucketPrefix = []byte("v") // v + bucket id (32 bytes) -> encoded bucket

	// Released-amount ledger
	releasedPrefix = []byte("r") // r + bucket id (32 bytes) + address (20 bytes) -> amount (32 bytes BE)

	// Emergency gate
	haltedKey = []byte("halted") // -> 0x01 once the distributor is halted
)

// bucketKey = bucketPrefix + id
func bucketKey(id types.Hash) []byte {
	return append(bucketPrefix, id[:]...)
}

// releasedKey = releasedPrefix + id + beneficiary
func releasedKey(id types.Hash, beneficiary types.Address) []byte {
	return append(append(releasedPrefix, id[:]...), beneficiary[:]...)
}

// releasedBucketPrefix is the iteration prefix covering every ledger entry
// of one bucket.
func releasedBucketPrefix(id types.Hash) []byte {
	return append(append([]byte{}, releasedPrefix...), id[:]...)
}
