package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/holiman/uint256"

	"github.com/merklevest/merklevest/merkle"
	"github.com/merklevest/merklevest/types"
)

// Allocation is one input row: a beneficiary and its total allocation.
// Amounts accept decimal or 0x-prefixed hex.
type Allocation struct {
	Beneficiary types.Address `json:"beneficiary"`
	Amount      *quantity     `json:"amount"`
}

// quantity wraps uint256.Int with decimal-or-hex JSON decoding.
type quantity struct {
	uint256.Int
}

func (q *quantity) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("amount must be a string, got %s", string(data))
	}
	var (
		v   *uint256.Int
		err error
	)
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		v, err = uint256.FromHex(s)
	} else {
		v, err = uint256.FromDecimal(s)
	}
	if err != nil {
		return fmt.Errorf("invalid amount %q: %v", s, err)
	}
	q.Int = *v
	return nil
}

func (q *quantity) MarshalJSON() ([]byte, error) {
	return json.Marshal(q.Hex())
}

// ProofEntry is one beneficiary's published claim material.
type ProofEntry struct {
	Amount *quantity `json:"amount"`
	Proof  []string  `json:"proof"`
}

// Artifact is the published proofs file: everything a claimant needs plus
// the root and true leaf sum for the bucket creation call.
type Artifact struct {
	MerkleRoot     string                `json:"merkleRoot"`
	TotalAllocated *quantity             `json:"totalAllocated"`
	NumLeaves      int                   `json:"numLeaves"`
	Proofs         map[string]ProofEntry `json:"proofs"`
}

// BuildArtifact computes the commitment tree over the allocations and
// collects a proof per beneficiary. Duplicate beneficiaries are rejected:
// the released-amount ledger is keyed by address, so a second leaf for the
// same address could never be claimed independently.
func BuildArtifact(allocs []Allocation) (*Artifact, error) {
	if len(allocs) == 0 {
		return nil, fmt.Errorf("no allocations")
	}

	leaves := make([]types.Hash, len(allocs))
	seen := make(map[types.Address]struct{}, len(allocs))
	total := new(uint256.Int)
	for i, a := range allocs {
		if a.Amount == nil {
			return nil, fmt.Errorf("allocation %d (%s): missing amount", i, a.Beneficiary)
		}
		if _, dup := seen[a.Beneficiary]; dup {
			return nil, fmt.Errorf("duplicate beneficiary %s", a.Beneficiary)
		}
		seen[a.Beneficiary] = struct{}{}
		leaves[i] = merkle.LeafHash(a.Beneficiary, &a.Amount.Int)
		total.Add(total, &a.Amount.Int)
	}

	tree, err := merkle.NewTree(leaves)
	if err != nil {
		return nil, err
	}

	artifact := &Artifact{
		MerkleRoot:     tree.Root().Hex(),
		TotalAllocated: &quantity{*total},
		NumLeaves:      len(allocs),
		Proofs:         make(map[string]ProofEntry, len(allocs)),
	}
	for i, a := range allocs {
		proof, err := tree.Proof(i)
		if err != nil {
			return nil, err
		}
		hexProof := make([]string, len(proof))
		for j, h := range proof {
			hexProof[j] = h.Hex()
		}
		artifact.Proofs[a.Beneficiary.Hex()] = ProofEntry{
			Amount: a.Amount,
			Proof:  hexProof,
		}
	}
	return artifact, nil
}
