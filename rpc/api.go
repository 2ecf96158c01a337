package rpc

import (
	"encoding/json"
	"fmt"

	"github.com/holiman/uint256"

	"github.com/merklevest/merklevest/core"
	"github.com/merklevest/merklevest/types"
)

// VestAPI implements the vest_ namespace JSON-RPC methods over a
// distributor. Read methods and vest_claim are public; administrative
// methods execute as the configured operator address and are rejected
// outright when no operator is configured.
type VestAPI struct {
	dist     *core.Distributor
	operator types.Address
}

// NewVestAPI creates the API service. operator is the address used as the
// caller of administrative methods; pass the zero address to disable them.
func NewVestAPI(dist *core.Distributor, operator types.Address) *VestAPI {
	return &VestAPI{dist: dist, operator: operator}
}

// HandleRequest dispatches a JSON-RPC request to the appropriate method.
func (api *VestAPI) HandleRequest(req *Request) *Response {
	switch req.Method {
	case "vest_claim":
		return api.claim(req)
	case "vest_releasable":
		return api.releasable(req)
	case "vest_getBucket":
		return api.getBucket(req)
	case "vest_getReleased":
		return api.getReleased(req)
	case "vest_getBucketLedger":
		return api.getBucketLedger(req)
	case "vest_halted":
		return api.halted(req)
	case "vest_createBucket":
		return api.createBucket(req)
	case "vest_setInitialReleased":
		return api.setInitialReleased(req)
	case "vest_halt":
		return api.halt(req)
	case "vest_sweep":
		return api.sweep(req)
	default:
		return errorResponse(req.ID, ErrCodeMethodNotFound, fmt.Sprintf("method %q not found", req.Method))
	}
}

func successResponse(id json.RawMessage, result interface{}) *Response {
	return &Response{JSONRPC: "2.0", Result: result, ID: id}
}

func errorResponse(id json.RawMessage, code int, message string) *Response {
	return &Response{
		JSONRPC: "2.0",
		Error:   &RPCError{Code: code, Message: message},
		ID:      id,
	}
}

func coreError(id json.RawMessage, err error) *Response {
	return errorResponse(id, errorCode(err), err.Error())
}

// claim handles vest_claim(beneficiary, bucketID, totalAllocation, proof).
func (api *VestAPI) claim(req *Request) *Response {
	if len(req.Params) < 4 {
		return errorResponse(req.ID, ErrCodeInvalidParams,
			"need beneficiary, bucket id, total allocation and proof")
	}
	beneficiary, err := decodeAddress(req.Params[0])
	if err != nil {
		return errorResponse(req.ID, ErrCodeInvalidParams, err.Error())
	}
	bucketID, err := decodeHash(req.Params[1])
	if err != nil {
		return errorResponse(req.ID, ErrCodeInvalidParams, err.Error())
	}
	total, err := decodeUint256(req.Params[2])
	if err != nil {
		return errorResponse(req.ID, ErrCodeInvalidParams, err.Error())
	}
	proof, err := decodeProof(req.Params[3])
	if err != nil {
		return errorResponse(req.ID, ErrCodeInvalidParams, err.Error())
	}

	paid, err := api.dist.Claim(beneficiary, bucketID, total, proof)
	if err != nil {
		return coreError(req.ID, err)
	}
	return successResponse(req.ID, &RPCClaimResult{Paid: encodeUint256(paid)})
}

// releasable handles vest_releasable(bucketID, beneficiary, totalAllocation).
func (api *VestAPI) releasable(req *Request) *Response {
	if len(req.Params) < 3 {
		return errorResponse(req.ID, ErrCodeInvalidParams,
			"need bucket id, beneficiary and total allocation")
	}
	bucketID, err := decodeHash(req.Params[0])
	if err != nil {
		return errorResponse(req.ID, ErrCodeInvalidParams, err.Error())
	}
	beneficiary, err := decodeAddress(req.Params[1])
	if err != nil {
		return errorResponse(req.ID, ErrCodeInvalidParams, err.Error())
	}
	total, err := decodeUint256(req.Params[2])
	if err != nil {
		return errorResponse(req.ID, ErrCodeInvalidParams, err.Error())
	}

	amount, err := api.dist.Releasable(bucketID, beneficiary, total)
	if err != nil {
		return coreError(req.ID, err)
	}
	return successResponse(req.ID, encodeUint256(amount))
}

// getBucket handles vest_getBucket(bucketID). Returns null for an unknown
// bucket, matching the convention of other nullable lookups.
func (api *VestAPI) getBucket(req *Request) *Response {
	if len(req.Params) < 1 {
		return errorResponse(req.ID, ErrCodeInvalidParams, "missing bucket id")
	}
	bucketID, err := decodeHash(req.Params[0])
	if err != nil {
		return errorResponse(req.ID, ErrCodeInvalidParams, err.Error())
	}

	bucket, err := api.dist.Bucket(bucketID)
	if err == core.ErrBucketNotFound {
		return successResponse(req.ID, nil)
	}
	if err != nil {
		return coreError(req.ID, err)
	}
	return successResponse(req.ID, FormatBucket(bucket))
}

// getReleased handles vest_getReleased(bucketID, beneficiary).
func (api *VestAPI) getReleased(req *Request) *Response {
	if len(req.Params) < 2 {
		return errorResponse(req.ID, ErrCodeInvalidParams, "need bucket id and beneficiary")
	}
	bucketID, err := decodeHash(req.Params[0])
	if err != nil {
		return errorResponse(req.ID, ErrCodeInvalidParams, err.Error())
	}
	beneficiary, err := decodeAddress(req.Params[1])
	if err != nil {
		return errorResponse(req.ID, ErrCodeInvalidParams, err.Error())
	}

	released, err := api.dist.Released(bucketID, beneficiary)
	if err != nil {
		return coreError(req.ID, err)
	}
	return successResponse(req.ID, encodeUint256(released))
}

// getBucketLedger handles vest_getBucketLedger(bucketID).
func (api *VestAPI) getBucketLedger(req *Request) *Response {
	if len(req.Params) < 1 {
		return errorResponse(req.ID, ErrCodeInvalidParams, "missing bucket id")
	}
	bucketID, err := decodeHash(req.Params[0])
	if err != nil {
		return errorResponse(req.ID, ErrCodeInvalidParams, err.Error())
	}

	entries, err := api.dist.BucketLedger(bucketID)
	if err != nil {
		return coreError(req.ID, err)
	}
	out := make([]RPCLedgerEntry, len(entries))
	for i, e := range entries {
		out[i] = RPCLedgerEntry{
			Beneficiary: e.Beneficiary.Hex(),
			Released:    encodeUint256(e.Amount),
		}
	}
	return successResponse(req.ID, out)
}

// halted handles vest_halted().
func (api *VestAPI) halted(req *Request) *Response {
	return successResponse(req.ID, api.dist.Halted())
}

// adminCaller returns the operator address, or an error response when
// administrative methods are disabled.
func (api *VestAPI) adminCaller(id json.RawMessage) (types.Address, *Response) {
	if api.operator.IsZero() {
		return types.Address{}, errorResponse(id, ErrCodeAdminDisabled,
			"administrative methods are disabled on this endpoint")
	}
	return api.operator, nil
}

// createBucket handles vest_createBucket(bucketObject).
func (api *VestAPI) createBucket(req *Request) *Response {
	caller, errResp := api.adminCaller(req.ID)
	if errResp != nil {
		return errResp
	}
	if len(req.Params) < 1 {
		return errorResponse(req.ID, ErrCodeInvalidParams, "missing bucket parameters")
	}

	var raw struct {
		ID                 json.RawMessage `json:"id"`
		Root               json.RawMessage `json:"merkleRoot"`
		TotalAllocated     json.RawMessage `json:"totalAllocated"`
		ImmediateUnlockBps json.RawMessage `json:"immediateUnlockBps"`
		Start              json.RawMessage `json:"startTimestamp"`
		CliffDuration      json.RawMessage `json:"cliffDuration"`
		VestingDuration    json.RawMessage `json:"vestingDuration"`
		ProofsLocation     string          `json:"proofsLocation"`
	}
	if err := json.Unmarshal(req.Params[0], &raw); err != nil {
		return errorResponse(req.ID, ErrCodeInvalidParams, err.Error())
	}

	var (
		p   core.BucketParams
		err error
	)
	if p.ID, err = decodeHash(raw.ID); err != nil {
		return errorResponse(req.ID, ErrCodeInvalidParams, err.Error())
	}
	if p.Root, err = decodeHash(raw.Root); err != nil {
		return errorResponse(req.ID, ErrCodeInvalidParams, err.Error())
	}
	if p.TotalAllocated, err = decodeUint256(raw.TotalAllocated); err != nil {
		return errorResponse(req.ID, ErrCodeInvalidParams, err.Error())
	}
	if p.ImmediateUnlockBps, err = decodeUint64(raw.ImmediateUnlockBps); err != nil {
		return errorResponse(req.ID, ErrCodeInvalidParams, err.Error())
	}
	if p.Start, err = decodeUint64(raw.Start); err != nil {
		return errorResponse(req.ID, ErrCodeInvalidParams, err.Error())
	}
	if p.CliffDuration, err = decodeUint64(raw.CliffDuration); err != nil {
		return errorResponse(req.ID, ErrCodeInvalidParams, err.Error())
	}
	if p.VestingDuration, err = decodeUint64(raw.VestingDuration); err != nil {
		return errorResponse(req.ID, ErrCodeInvalidParams, err.Error())
	}
	p.ProofsLocation = raw.ProofsLocation

	if err := api.dist.CreateBucket(caller, p); err != nil {
		return coreError(req.ID, err)
	}
	return successResponse(req.ID, p.ID.Hex())
}

// setInitialReleased handles
// vest_setInitialReleased(bucketID, beneficiaries, amounts).
func (api *VestAPI) setInitialReleased(req *Request) *Response {
	caller, errResp := api.adminCaller(req.ID)
	if errResp != nil {
		return errResp
	}
	if len(req.Params) < 3 {
		return errorResponse(req.ID, ErrCodeInvalidParams,
			"need bucket id, beneficiaries and amounts")
	}
	bucketID, err := decodeHash(req.Params[0])
	if err != nil {
		return errorResponse(req.ID, ErrCodeInvalidParams, err.Error())
	}

	var addrStrs, amountStrs []json.RawMessage
	if err := json.Unmarshal(req.Params[1], &addrStrs); err != nil {
		return errorResponse(req.ID, ErrCodeInvalidParams, err.Error())
	}
	if err := json.Unmarshal(req.Params[2], &amountStrs); err != nil {
		return errorResponse(req.ID, ErrCodeInvalidParams, err.Error())
	}

	beneficiaries := make([]types.Address, len(addrStrs))
	for i, raw := range addrStrs {
		if beneficiaries[i], err = decodeAddress(raw); err != nil {
			return errorResponse(req.ID, ErrCodeInvalidParams, err.Error())
		}
	}
	amounts := make([]*uint256.Int, len(amountStrs))
	for i, raw := range amountStrs {
		if amounts[i], err = decodeUint256(raw); err != nil {
			return errorResponse(req.ID, ErrCodeInvalidParams, err.Error())
		}
	}

	if err := api.dist.SetInitialReleased(caller, bucketID, beneficiaries, amounts); err != nil {
		return coreError(req.ID, err)
	}
	return successResponse(req.ID, len(beneficiaries))
}

// halt handles vest_halt().
func (api *VestAPI) halt(req *Request) *Response {
	caller, errResp := api.adminCaller(req.ID)
	if errResp != nil {
		return errResp
	}
	if err := api.dist.Halt(caller); err != nil {
		return coreError(req.ID, err)
	}
	return successResponse(req.ID, true)
}

// sweep handles vest_sweep().
func (api *VestAPI) sweep(req *Request) *Response {
	caller, errResp := api.adminCaller(req.ID)
	if errResp != nil {
		return errResp
	}
	swept, err := api.dist.Sweep(caller)
	if err != nil {
		return coreError(req.ID, err)
	}
	return successResponse(req.ID, encodeUint256(swept))
}
