package geth

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	gethcommon "github.com/ethereum/go-ethereum/common"
	gethtypes "github.com/ethereum/go-ethereum/core/types"
	gethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/holiman/uint256"

	"github.com/merklevest/merklevest/log"
	"github.com/merklevest/merklevest/types"
)

// erc20ABI is the minimal ERC-20 fragment the ledger needs.
const erc20ABI = `[
	{"name":"balanceOf","type":"function","stateMutability":"view",
	 "inputs":[{"name":"account","type":"address"}],
	 "outputs":[{"name":"","type":"uint256"}]},
	{"name":"transfer","type":"function","stateMutability":"nonpayable",
	 "inputs":[{"name":"to","type":"address"},{"name":"amount","type":"uint256"}],
	 "outputs":[{"name":"","type":"bool"}]}
]`

const (
	// transferGasLimit caps an ERC-20 transfer. Estimation is skipped: the
	// call shape is fixed and the cap is generous for any standard token.
	transferGasLimit = 120_000

	receiptPollInterval = 2 * time.Second
)

// Config carries the ERC-20 ledger's construction parameters.
type Config struct {
	// Endpoint is the JSON-RPC URL of the Ethereum node.
	Endpoint string

	// Token is the ERC-20 contract address.
	Token types.Address

	// Key signs outgoing transfers. Its derived address is the treasury
	// account whose balance funds the payouts.
	Key *ecdsa.PrivateKey

	// Timeout bounds each node interaction, including waiting for a
	// transfer receipt. Zero means 2 minutes.
	Timeout time.Duration
}

// ERC20Ledger implements core.TokenLedger against an ERC-20 contract on an
// Ethereum node. Transfers are signed legacy transactions from the treasury
// key, confirmed by polling for the inclusion receipt.
type ERC20Ledger struct {
	client  *ethclient.Client
	erc20   abi.ABI
	token   gethcommon.Address
	key     *ecdsa.PrivateKey
	holder  gethcommon.Address
	signer  gethtypes.Signer
	timeout time.Duration
	log     *log.Logger
}

// NewERC20Ledger dials the node and prepares the ledger. The chain ID is
// fetched once at construction and pinned for the ledger's lifetime.
func NewERC20Ledger(cfg Config) (*ERC20Ledger, error) {
	if cfg.Key == nil {
		return nil, fmt.Errorf("geth: erc20 ledger requires a signing key")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 2 * time.Minute
	}

	parsed, err := abi.JSON(strings.NewReader(erc20ABI))
	if err != nil {
		return nil, fmt.Errorf("geth: parse erc20 abi: %w", err)
	}

	client, err := ethclient.Dial(cfg.Endpoint)
	if err != nil {
		return nil, fmt.Errorf("geth: dial %s: %w", cfg.Endpoint, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout)
	defer cancel()
	chainID, err := client.ChainID(ctx)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("geth: fetch chain id: %w", err)
	}

	l := &ERC20Ledger{
		client:  client,
		erc20:   parsed,
		token:   ToGethAddress(cfg.Token),
		key:     cfg.Key,
		holder:  gethcrypto.PubkeyToAddress(cfg.Key.PublicKey),
		signer:  gethtypes.LatestSignerForChainID(chainID),
		timeout: cfg.Timeout,
		log:     log.Default().Module("geth"),
	}
	l.log.Info("erc20 ledger ready",
		"endpoint", cfg.Endpoint, "token", cfg.Token,
		"treasury", FromGethAddress(l.holder), "chainid", chainID)
	return l, nil
}

// Close releases the underlying RPC client.
func (l *ERC20Ledger) Close() {
	l.client.Close()
}

// Treasury returns the address holding the distributable token balance.
func (l *ERC20Ledger) Treasury() types.Address {
	return FromGethAddress(l.holder)
}

// Balance returns the treasury's current token balance via eth_call.
func (l *ERC20Ledger) Balance() (*uint256.Int, error) {
	input, err := l.erc20.Pack("balanceOf", l.holder)
	if err != nil {
		return nil, fmt.Errorf("geth: pack balanceOf: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), l.timeout)
	defer cancel()

	output, err := l.client.CallContract(ctx, ethereum.CallMsg{
		To:   &l.token,
		Data: input,
	}, nil)
	if err != nil {
		return nil, fmt.Errorf("geth: balanceOf call: %w", err)
	}

	results, err := l.erc20.Unpack("balanceOf", output)
	if err != nil {
		return nil, fmt.Errorf("geth: unpack balanceOf: %w", err)
	}
	balance, ok := results[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("geth: balanceOf returned %T, want *big.Int", results[0])
	}
	return ToUint256(balance), nil
}

// Transfer sends amount tokens from the treasury to the given address and
// waits for the transaction to be mined. A reverted execution is an error.
func (l *ERC20Ledger) Transfer(to types.Address, amount *uint256.Int) error {
	input, err := l.erc20.Pack("transfer", ToGethAddress(to), FromUint256(amount))
	if err != nil {
		return fmt.Errorf("geth: pack transfer: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), l.timeout)
	defer cancel()

	nonce, err := l.client.PendingNonceAt(ctx, l.holder)
	if err != nil {
		return fmt.Errorf("geth: fetch nonce: %w", err)
	}
	gasPrice, err := l.client.SuggestGasPrice(ctx)
	if err != nil {
		return fmt.Errorf("geth: suggest gas price: %w", err)
	}

	tx := gethtypes.NewTransaction(nonce, l.token, new(big.Int), transferGasLimit, gasPrice, input)
	signed, err := gethtypes.SignTx(tx, l.signer, l.key)
	if err != nil {
		return fmt.Errorf("geth: sign transfer: %w", err)
	}
	if err := l.client.SendTransaction(ctx, signed); err != nil {
		return fmt.Errorf("geth: send transfer: %w", err)
	}

	l.log.Debug("transfer submitted",
		"tx", FromGethHash(signed.Hash()), "to", to, "amount", amount)

	receipt, err := l.waitMined(ctx, signed.Hash())
	if err != nil {
		return err
	}
	if receipt.Status != gethtypes.ReceiptStatusSuccessful {
		return fmt.Errorf("geth: transfer %s reverted", FromGethHash(signed.Hash()))
	}

	l.log.Info("transfer confirmed",
		"tx", FromGethHash(signed.Hash()), "to", to,
		"amount", amount, "block", receipt.BlockNumber)
	return nil
}

// waitMined polls for the transaction receipt until the context expires.
func (l *ERC20Ledger) waitMined(ctx context.Context, txHash gethcommon.Hash) (*gethtypes.Receipt, error) {
	ticker := time.NewTicker(receiptPollInterval)
	defer ticker.Stop()

	for {
		receipt, err := l.client.TransactionReceipt(ctx, txHash)
		if err == nil {
			return receipt, nil
		}
		if err != ethereum.NotFound {
			return nil, fmt.Errorf("geth: fetch receipt: %w", err)
		}
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("geth: transfer %s not mined: %w", FromGethHash(txHash), ctx.Err())
		case <-ticker.C:
		}
	}
}
