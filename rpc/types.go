// Package rpc provides JSON-RPC 2.0 types and the vest_ namespace API for
// the merklevest distributor daemon.
package rpc

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/holiman/uint256"

	"github.com/merklevest/merklevest/core"
	"github.com/merklevest/merklevest/types"
)

// Request is a JSON-RPC 2.0 request.
type Request struct {
	JSONRPC string            `json:"jsonrpc"`
	Method  string            `json:"method"`
	Params  []json.RawMessage `json:"params"`
	ID      json.RawMessage   `json:"id"`
}

// Response is a JSON-RPC 2.0 response.
type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	Result  interface{}     `json:"result,omitempty"`
	Error   *RPCError       `json:"error,omitempty"`
	ID      json.RawMessage `json:"id"`
}

// RPCError is a JSON-RPC 2.0 error.
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Standard JSON-RPC 2.0 error codes.
const (
	ErrCodeParse          = -32700
	ErrCodeInvalidRequest = -32600
	ErrCodeMethodNotFound = -32601
	ErrCodeInvalidParams  = -32602
	ErrCodeInternal       = -32603
)

// Application error codes in the implementation-defined server range.
const (
	ErrCodeNotOwner          = -32001
	ErrCodeBucketNotFound    = -32002
	ErrCodeInvalidProof      = -32003
	ErrCodeNothingToRelease  = -32004
	ErrCodeHalted            = -32005
	ErrCodeNotHalted         = -32006
	ErrCodeNothingToWithdraw = -32007
	ErrCodeBucketExists      = -32008
	ErrCodeInvalidBucket     = -32009
	ErrCodeAdminDisabled     = -32010
)

// errorCode maps a distributor error to its JSON-RPC application code.
func errorCode(err error) int {
	switch {
	case errors.Is(err, core.ErrNotOwner):
		return ErrCodeNotOwner
	case errors.Is(err, core.ErrBucketNotFound):
		return ErrCodeBucketNotFound
	case errors.Is(err, core.ErrInvalidProof):
		return ErrCodeInvalidProof
	case errors.Is(err, core.ErrNothingToRelease):
		return ErrCodeNothingToRelease
	case errors.Is(err, core.ErrHalted):
		return ErrCodeHalted
	case errors.Is(err, core.ErrNotHalted):
		return ErrCodeNotHalted
	case errors.Is(err, core.ErrNothingToWithdraw):
		return ErrCodeNothingToWithdraw
	case errors.Is(err, core.ErrBucketExists):
		return ErrCodeBucketExists
	case errors.Is(err, core.ErrEmptyRoot),
		errors.Is(err, core.ErrEmptyProofsLocation),
		errors.Is(err, core.ErrInvalidFraction),
		errors.Is(err, core.ErrInvalidTimestamp),
		errors.Is(err, core.ErrArrayLengthMismatch):
		return ErrCodeInvalidBucket
	default:
		return ErrCodeInternal
	}
}

// RPCBucket is the JSON representation of a vesting bucket.
type RPCBucket struct {
	ID                 string `json:"id"`
	Root               string `json:"merkleRoot"`
	TotalAllocated     string `json:"totalAllocated"`
	ImmediateUnlockBps string `json:"immediateUnlockBps"`
	Start              string `json:"startTimestamp"`
	Cliff              string `json:"cliffTimestamp"`
	VestingDuration    string `json:"vestingDuration"`
	ProofsLocation     string `json:"proofsLocation"`
}

// RPCClaimResult is the JSON result of vest_claim.
type RPCClaimResult struct {
	Paid string `json:"paid"`
}

// RPCLedgerEntry is one released-amount record of vest_getBucketLedger.
type RPCLedgerEntry struct {
	Beneficiary string `json:"beneficiary"`
	Released    string `json:"released"`
}

// FormatBucket converts a bucket to its JSON-RPC representation.
func FormatBucket(b *core.VestingBucket) *RPCBucket {
	return &RPCBucket{
		ID:                 b.ID.Hex(),
		Root:               b.Root.Hex(),
		TotalAllocated:     encodeUint256(b.TotalAllocated),
		ImmediateUnlockBps: encodeUint64(b.ImmediateUnlockBps),
		Start:              encodeUint64(b.Start),
		Cliff:              encodeUint64(b.Cliff),
		VestingDuration:    encodeUint64(b.VestingDuration),
		ProofsLocation:     b.ProofsLocation,
	}
}

func encodeUint64(n uint64) string {
	return "0x" + strconv.FormatUint(n, 16)
}

func encodeUint256(n *uint256.Int) string {
	if n == nil {
		return "0x0"
	}
	return n.Hex()
}

func decodeHash(raw json.RawMessage) (types.Hash, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return types.Hash{}, fmt.Errorf("invalid hash: %s", string(raw))
	}
	var h types.Hash
	if err := h.UnmarshalText([]byte(s)); err != nil {
		return types.Hash{}, err
	}
	return h, nil
}

func decodeAddress(raw json.RawMessage) (types.Address, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return types.Address{}, fmt.Errorf("invalid address: %s", string(raw))
	}
	var a types.Address
	if err := a.UnmarshalText([]byte(s)); err != nil {
		return types.Address{}, err
	}
	return a, nil
}

func decodeUint256(raw json.RawMessage) (*uint256.Int, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("invalid quantity: %s", string(raw))
	}
	return uint256.FromHex(s)
}

func decodeUint64(raw json.RawMessage) (uint64, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		// Bare JSON number is accepted too.
		var n uint64
		if err := json.Unmarshal(raw, &n); err != nil {
			return 0, fmt.Errorf("invalid quantity: %s", string(raw))
		}
		return n, nil
	}
	return strconv.ParseUint(s, 0, 64)
}

func decodeProof(raw json.RawMessage) ([]types.Hash, error) {
	var strs []string
	if err := json.Unmarshal(raw, &strs); err != nil {
		return nil, fmt.Errorf("invalid proof: %s", string(raw))
	}
	proof := make([]types.Hash, len(strs))
	for i, s := range strs {
		if err := proof[i].UnmarshalText([]byte(s)); err != nil {
			return nil, fmt.Errorf("invalid proof element %d: %v", i, err)
		}
	}
	return proof, nil
}
