package merkle

import (
	"errors"

	"github.com/merklevest/merklevest/types"
)

// Tree errors.
var (
	ErrEmptyTree = errors.New("merkle: tree has no leaves")
	ErrBadIndex  = errors.New("merkle: leaf index out of range")
)

// Tree is a fully materialized commitment tree. It is built once from a
// fixed leaf set and then queried for the root and per-leaf proofs. The
// publisher batch job and the tests are the only producers of trees; the
// distributor itself only ever verifies.
type Tree struct {
	// levels[0] is the leaf layer; levels[len-1] has a single root node.
	levels [][]types.Hash
}

// NewTree builds a tree over the given leaf digests. An odd node at any
// level is promoted unchanged to the next level rather than paired with
// itself, so no digest is ever combined with its own copy.
func NewTree(leaves []types.Hash) (*Tree, error) {
	if len(leaves) == 0 {
		return nil, ErrEmptyTree
	}

	levels := [][]types.Hash{append([]types.Hash(nil), leaves...)}
	for level := levels[0]; len(level) > 1; {
		next := make([]types.Hash, 0, (len(level)+1)/2)
		for i := 0; i < len(level); i += 2 {
			if i+1 == len(level) {
				next = append(next, level[i])
				continue
			}
			next = append(next, hashPair(level[i], level[i+1]))
		}
		levels = append(levels, next)
		level = next
	}
	return &Tree{levels: levels}, nil
}

// Root returns the root digest committing to the full leaf set.
func (t *Tree) Root() types.Hash {
	top := t.levels[len(t.levels)-1]
	return top[0]
}

// NumLeaves returns the number of leaves the tree commits to.
func (t *Tree) NumLeaves() int {
	return len(t.levels[0])
}

// Proof returns the ordered sibling path for the leaf at index. The path
// is empty for a single-leaf tree.
func (t *Tree) Proof(index int) ([]types.Hash, error) {
	if index < 0 || index >= len(t.levels[0]) {
		return nil, ErrBadIndex
	}

	var proof []types.Hash
	for _, level := range t.levels[:len(t.levels)-1] {
		sibling := index ^ 1
		if sibling < len(level) {
			proof = append(proof, level[sibling])
		}
		// A promoted odd node has no sibling at this level.
		index /= 2
	}
	return proof, nil
}
