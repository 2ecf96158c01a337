// Package merkle implements the commitment scheme used by the merklevest
// distributor: a binary Merkle tree over (beneficiary, allocation) leaves
// with sorted-pair node combination.
//
// Leaves and internal nodes hash different preimage widths (52 bytes for a
// leaf, 64 bytes for a node), so a leaf digest can never be confused with
// an internal node digest across tree levels.
//
// Node combination always hashes the lexicographically smaller digest
// first, so proofs carry no left/right direction bits.
package merkle

import (
	"bytes"

	"github.com/holiman/uint256"

	"github.com/merklevest/merklevest/crypto"
	"github.com/merklevest/merklevest/types"
)

// LeafHash computes the leaf digest committing to a single beneficiary and
// its total allocation: keccak256(address || amount), with the amount
// encoded as a 32-byte big-endian value.
func LeafHash(beneficiary types.Address, amount *uint256.Int) types.Hash {
	enc := amount.Bytes32()
	return crypto.Keccak256Hash(beneficiary[:], enc[:])
}

// hashPair combines two digests into their parent, smaller digest first.
func hashPair(a, b types.Hash) types.Hash {
	if bytes.Compare(a[:], b[:]) > 0 {
		a, b = b, a
	}
	return crypto.Keccak256Hash(a[:], b[:])
}

// VerifyProof recomputes the root from leaf and the ordered sibling path
// and reports whether it matches root. An empty proof is valid and
// succeeds iff the leaf itself equals the root, which is the degenerate
// case of a single-leaf commitment.
func VerifyProof(root types.Hash, proof []types.Hash, leaf types.Hash) bool {
	computed := leaf
	for _, sibling := range proof {
		computed = hashPair(computed, sibling)
	}
	return computed == root
}
