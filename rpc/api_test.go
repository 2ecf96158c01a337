package rpc

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/holiman/uint256"

	"github.com/merklevest/merklevest/core"
	"github.com/merklevest/merklevest/core/rawdb"
	"github.com/merklevest/merklevest/merkle"
	"github.com/merklevest/merklevest/metrics"
	"github.com/merklevest/merklevest/types"
)

var (
	testOperator    = types.HexToAddress("0x00000000000000000000000000000000000000aa")
	testBeneficiary = types.HexToAddress("0x0000000000000000000000000000000000000001")
	testBucketID    = types.HexToHash("0x0101")
)

const (
	testNow        = uint64(1_000_000)
	testStart      = testNow + 3600
	testAllocation = uint64(1000)
)

// newTestAPI builds a distributor with one active single-leaf bucket whose
// immediate unlock is already claimable, and the API over it.
func newTestAPI(t *testing.T, operator types.Address) (*VestAPI, *core.Distributor) {
	t.Helper()

	now := testStart // past the bucket start so claims pay
	dist, err := core.NewDistributor(rawdb.NewMemoryDB(),
		core.NewMemoryLedger(uint256.NewInt(10_000)),
		core.Config{
			Owner:   testOperator,
			Now:     func() uint64 { return now },
			Metrics: metrics.NewRegistry(),
		})
	if err != nil {
		t.Fatalf("NewDistributor: %v", err)
	}

	leaf := merkle.LeafHash(testBeneficiary, uint256.NewInt(testAllocation))
	tree, err := merkle.NewTree([]types.Hash{leaf})
	if err != nil {
		t.Fatalf("NewTree: %v", err)
	}

	// Creation requires start > now; rewind, create, then advance.
	now = testNow
	err = dist.CreateBucket(testOperator, core.BucketParams{
		ID:                 testBucketID,
		Root:               tree.Root(),
		TotalAllocated:     uint256.NewInt(testAllocation),
		ImmediateUnlockBps: 1000,
		Start:              testStart,
		CliffDuration:      30 * 86400,
		VestingDuration:    365 * 86400,
		ProofsLocation:     "ipfs://QmTestProofs",
	})
	if err != nil {
		t.Fatalf("CreateBucket: %v", err)
	}
	now = testStart

	return NewVestAPI(dist, operator), dist
}

func callRPC(t *testing.T, api *VestAPI, method string, params ...interface{}) *Response {
	t.Helper()
	raws := make([]json.RawMessage, len(params))
	for i, p := range params {
		data, err := json.Marshal(p)
		if err != nil {
			t.Fatalf("marshal param %d: %v", i, err)
		}
		raws[i] = data
	}
	return api.HandleRequest(&Request{
		JSONRPC: "2.0",
		Method:  method,
		Params:  raws,
		ID:      json.RawMessage(`1`),
	})
}

func TestAPIDispatchUnknownMethod(t *testing.T) {
	api, _ := newTestAPI(t, testOperator)
	resp := callRPC(t, api, "vest_doesNotExist")
	if resp.Error == nil || resp.Error.Code != ErrCodeMethodNotFound {
		t.Fatalf("got %+v, want method-not-found", resp.Error)
	}
}

func TestAPIResponseEnvelope(t *testing.T) {
	api, _ := newTestAPI(t, testOperator)
	resp := callRPC(t, api, "vest_halted")
	if resp.JSONRPC != "2.0" {
		t.Fatalf("jsonrpc = %q, want 2.0", resp.JSONRPC)
	}
	if string(resp.ID) != "1" {
		t.Fatalf("id = %s, want 1", resp.ID)
	}
}

func TestAPIMissingParams(t *testing.T) {
	api, _ := newTestAPI(t, testOperator)
	for _, method := range []string{
		"vest_claim",
		"vest_releasable",
		"vest_getBucket",
		"vest_getReleased",
		"vest_getBucketLedger",
		"vest_createBucket",
		"vest_setInitialReleased",
	} {
		resp := api.HandleRequest(&Request{
			JSONRPC: "2.0", Method: method, ID: json.RawMessage(`1`),
		})
		if resp.Error == nil || resp.Error.Code != ErrCodeInvalidParams {
			t.Fatalf("%s with no params: got %+v, want invalid-params", method, resp.Error)
		}
	}
}

func TestAPIClaim(t *testing.T) {
	api, dist := newTestAPI(t, testOperator)

	resp := callRPC(t, api, "vest_claim",
		testBeneficiary.Hex(), testBucketID.Hex(),
		uint256.NewInt(testAllocation).Hex(), []string{})
	if resp.Error != nil {
		t.Fatalf("vest_claim: %+v", resp.Error)
	}
	result, ok := resp.Result.(*RPCClaimResult)
	if !ok {
		t.Fatalf("unexpected result type %T", resp.Result)
	}
	if result.Paid != "0x64" { // 100
		t.Fatalf("paid = %s, want 0x64", result.Paid)
	}

	released, err := dist.Released(testBucketID, testBeneficiary)
	if err != nil {
		t.Fatalf("Released: %v", err)
	}
	if !released.Eq(uint256.NewInt(100)) {
		t.Fatalf("released = %s, want 100", released)
	}

	// An immediate repeat maps to the nothing-to-release code.
	resp = callRPC(t, api, "vest_claim",
		testBeneficiary.Hex(), testBucketID.Hex(),
		uint256.NewInt(testAllocation).Hex(), []string{})
	if resp.Error == nil || resp.Error.Code != ErrCodeNothingToRelease {
		t.Fatalf("repeat claim: got %+v, want code %d", resp.Error, ErrCodeNothingToRelease)
	}
}

func TestAPIClaimInvalidProofCode(t *testing.T) {
	api, _ := newTestAPI(t, testOperator)
	resp := callRPC(t, api, "vest_claim",
		testBeneficiary.Hex(), testBucketID.Hex(),
		uint256.NewInt(testAllocation+1).Hex(), []string{})
	if resp.Error == nil || resp.Error.Code != ErrCodeInvalidProof {
		t.Fatalf("got %+v, want code %d", resp.Error, ErrCodeInvalidProof)
	}
}

func TestAPIReleasable(t *testing.T) {
	api, _ := newTestAPI(t, testOperator)
	resp := callRPC(t, api, "vest_releasable",
		testBucketID.Hex(), testBeneficiary.Hex(),
		uint256.NewInt(testAllocation).Hex())
	if resp.Error != nil {
		t.Fatalf("vest_releasable: %+v", resp.Error)
	}
	if resp.Result != "0x64" {
		t.Fatalf("releasable = %v, want 0x64", resp.Result)
	}
}

func TestAPIGetBucket(t *testing.T) {
	api, _ := newTestAPI(t, testOperator)

	resp := callRPC(t, api, "vest_getBucket", testBucketID.Hex())
	if resp.Error != nil {
		t.Fatalf("vest_getBucket: %+v", resp.Error)
	}
	bucket, ok := resp.Result.(*RPCBucket)
	if !ok {
		t.Fatalf("unexpected result type %T", resp.Result)
	}
	if bucket.ID != testBucketID.Hex() {
		t.Fatalf("bucket id = %s", bucket.ID)
	}
	if bucket.ProofsLocation != "ipfs://QmTestProofs" {
		t.Fatalf("location = %s", bucket.ProofsLocation)
	}

	// Unknown bucket returns null, not an error.
	resp = callRPC(t, api, "vest_getBucket", types.HexToHash("0x0909").Hex())
	if resp.Error != nil || resp.Result != nil {
		t.Fatalf("unknown bucket: result=%v err=%+v, want null result", resp.Result, resp.Error)
	}
}

func TestAPICreateBucket(t *testing.T) {
	api, dist := newTestAPI(t, testOperator)

	id := types.HexToHash("0x0202")
	params := map[string]interface{}{
		"id":                 id.Hex(),
		"merkleRoot":         types.HexToHash("0xbeef").Hex(),
		"totalAllocated":     "0x3e8",
		"immediateUnlockBps": "0x0",
		"startTimestamp":     fmt.Sprintf("0x%x", testStart+7200),
		"cliffDuration":      "0x0",
		"vestingDuration":    "0x100",
		"proofsLocation":     "https://proofs.example.org/2.json",
	}
	resp := callRPC(t, api, "vest_createBucket", params)
	if resp.Error != nil {
		t.Fatalf("vest_createBucket: %+v", resp.Error)
	}
	if _, err := dist.Bucket(id); err != nil {
		t.Fatalf("bucket not persisted: %v", err)
	}

	// Duplicate maps to the bucket-exists code.
	resp = callRPC(t, api, "vest_createBucket", params)
	if resp.Error == nil || resp.Error.Code != ErrCodeBucketExists {
		t.Fatalf("duplicate: got %+v, want code %d", resp.Error, ErrCodeBucketExists)
	}

	// A validation failure maps to the invalid-bucket code.
	params["id"] = types.HexToHash("0x0303").Hex()
	params["immediateUnlockBps"] = "0x2711" // 10001
	resp = callRPC(t, api, "vest_createBucket", params)
	if resp.Error == nil || resp.Error.Code != ErrCodeInvalidBucket {
		t.Fatalf("bad fraction: got %+v, want code %d", resp.Error, ErrCodeInvalidBucket)
	}
}

func TestAPISetInitialReleased(t *testing.T) {
	api, dist := newTestAPI(t, testOperator)

	resp := callRPC(t, api, "vest_setInitialReleased",
		testBucketID.Hex(),
		[]string{testBeneficiary.Hex()},
		[]string{"0x1f4"}) // 500
	if resp.Error != nil {
		t.Fatalf("vest_setInitialReleased: %+v", resp.Error)
	}
	released, err := dist.Released(testBucketID, testBeneficiary)
	if err != nil {
		t.Fatalf("Released: %v", err)
	}
	if !released.Eq(uint256.NewInt(500)) {
		t.Fatalf("released = %s, want 500", released)
	}

	// Mismatched arrays map to the invalid-bucket code.
	resp = callRPC(t, api, "vest_setInitialReleased",
		testBucketID.Hex(), []string{testBeneficiary.Hex()}, []string{})
	if resp.Error == nil || resp.Error.Code != ErrCodeInvalidBucket {
		t.Fatalf("length mismatch: got %+v, want code %d", resp.Error, ErrCodeInvalidBucket)
	}
}

func TestAPIHaltAndSweep(t *testing.T) {
	api, dist := newTestAPI(t, testOperator)

	resp := callRPC(t, api, "vest_sweep")
	if resp.Error == nil || resp.Error.Code != ErrCodeNotHalted {
		t.Fatalf("sweep before halt: got %+v, want code %d", resp.Error, ErrCodeNotHalted)
	}

	if resp = callRPC(t, api, "vest_halt"); resp.Error != nil {
		t.Fatalf("vest_halt: %+v", resp.Error)
	}
	if !dist.Halted() {
		t.Fatal("distributor not halted")
	}
	resp = callRPC(t, api, "vest_halted")
	if halted, ok := resp.Result.(bool); !ok || !halted {
		t.Fatalf("vest_halted = %v, want true", resp.Result)
	}

	resp = callRPC(t, api, "vest_sweep")
	if resp.Error != nil {
		t.Fatalf("vest_sweep: %+v", resp.Error)
	}
	if resp.Result != "0x2710" { // 10000
		t.Fatalf("swept = %v, want 0x2710", resp.Result)
	}
}

func TestAPIAdminDisabled(t *testing.T) {
	api, _ := newTestAPI(t, types.Address{})

	for _, method := range []string{"vest_halt", "vest_sweep", "vest_createBucket", "vest_setInitialReleased"} {
		resp := callRPC(t, api, method)
		if resp.Error == nil || resp.Error.Code != ErrCodeAdminDisabled {
			t.Fatalf("%s: got %+v, want code %d", method, resp.Error, ErrCodeAdminDisabled)
		}
	}

	// Reads remain available.
	if resp := callRPC(t, api, "vest_halted"); resp.Error != nil {
		t.Fatalf("vest_halted: %+v", resp.Error)
	}
}
