// Package chain submits mint transactions through a server-held signing key.
package chain

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/mintaka-labs/warden/core"
	"github.com/mintaka-labs/warden/ports"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

const batchMintABI = `[{"type":"function","name":"batchMint","stateMutability":"nonpayable","inputs":[{"name":"recipients","type":"address[]"},{"name":"amounts","type":"uint256[]"}],"outputs":[]}]`

// HotWallet signs and submits batch mint calls with a single private key.
// Transaction construction is serialized: the pending nonce is read, the
// transaction signed and submitted under one lock, so concurrent callers
// cannot collide on the account nonce.
type HotWallet struct {
	client   *ethclient.Client
	key      *ecdsa.PrivateKey
	from     common.Address
	chainID  *big.Int
	contract common.Address
	mintABI  abi.ABI
	decimals int32
	log      zerolog.Logger

	mu sync.Mutex
}

// NewHotWallet dials the RPC endpoint and prepares the minting contract
// binding. tokenDecimals converts human token units into base units.
func NewHotWallet(ctx context.Context, rpcURL, privateKeyHex, contractAddress string, tokenDecimals int32, log zerolog.Logger) (*HotWallet, error) {
	client, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, fmt.Errorf("failed to dial rpc: %w", core.ErrProviderUnavailable)
	}

	key, err := crypto.HexToECDSA(strings.TrimPrefix(privateKeyHex, "0x"))
	if err != nil {
		return nil, fmt.Errorf("invalid minter key: %w", err)
	}

	chainID, err := client.ChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read chain id: %w", core.ErrProviderUnavailable)
	}

	mintABI, err := abi.JSON(strings.NewReader(batchMintABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse contract abi: %w", err)
	}

	return &HotWallet{
		client:   client,
		key:      key,
		from:     crypto.PubkeyToAddress(key.PublicKey),
		chainID:  chainID,
		contract: common.HexToAddress(contractAddress),
		mintABI:  mintABI,
		decimals: tokenDecimals,
		log:      log.With().Str("component", "hot_wallet").Logger(),
	}, nil
}

// BatchMint issues amounts[i] to recipients[i] in one batchMint call.
func (w *HotWallet) BatchMint(ctx context.Context, recipients []string, amounts []decimal.Decimal) (string, error) {
	if len(recipients) != len(amounts) {
		return "", fmt.Errorf("recipients and amounts length mismatch")
	}

	addrs := make([]common.Address, len(recipients))
	for i, r := range recipients {
		if !common.IsHexAddress(r) {
			return "", fmt.Errorf("invalid recipient address %q", r)
		}
		addrs[i] = common.HexToAddress(r)
	}

	wei := make([]*big.Int, len(amounts))
	for i, a := range amounts {
		wei[i] = a.Shift(w.decimals).BigInt()
	}

	data, err := w.mintABI.Pack("batchMint", addrs, wei)
	if err != nil {
		return "", fmt.Errorf("failed to encode call: %w", err)
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	nonce, err := w.client.PendingNonceAt(ctx, w.from)
	if err != nil {
		return "", fmt.Errorf("failed to read account nonce: %w", core.ErrProviderUnavailable)
	}

	gasPrice, err := w.client.SuggestGasPrice(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to suggest gas price: %w", core.ErrProviderUnavailable)
	}

	gasLimit, err := w.client.EstimateGas(ctx, ethereum.CallMsg{
		From: w.from,
		To:   &w.contract,
		Data: data,
	})
	if err != nil {
		return "", fmt.Errorf("failed to estimate gas: %w", err)
	}

	tx := types.NewTransaction(nonce, w.contract, big.NewInt(0), gasLimit, gasPrice, data)

	signed, err := types.SignTx(tx, types.LatestSignerForChainID(w.chainID), w.key)
	if err != nil {
		return "", fmt.Errorf("failed to sign transaction: %w", err)
	}

	if err := w.client.SendTransaction(ctx, signed); err != nil {
		return "", fmt.Errorf("failed to submit transaction: %w", core.ErrProviderUnavailable)
	}

	w.log.Info().
		Str("tx", signed.Hash().Hex()).
		Int("recipients", len(addrs)).
		Uint64("nonce", nonce).
		Msg("batch mint submitted")

	return signed.Hash().Hex(), nil
}

var _ ports.ChainClient = (*HotWallet)(nil)
