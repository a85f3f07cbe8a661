package ports

import (
	"context"

	"github.com/shopspring/decimal"
)

// ChainClient submits aggregated mint transactions through a server-held
// signing key. Implementations must serialize nonce acquisition so only one
// transaction is built against the key at a time.
type ChainClient interface {
	// BatchMint issues amounts[i] token units to recipients[i] in a single
	// on-chain call and returns the transaction hash.
	BatchMint(ctx context.Context, recipients []string, amounts []decimal.Decimal) (txHash string, err error)
}
