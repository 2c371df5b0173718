package port

import (
	"context"
	"math/big"

	"github.com/shopspring/decimal"
)

// QuoteClient queries an AMM router for expected swap output.
type QuoteClient interface {
	// Quote returns one amount per path element: the first echoes amountIn, the last is the output.
	// It fails with entity.ErrNoLiquidityPath when the call reverts or the result is short.
	Quote(ctx context.Context, amountIn *big.Int, path []string) ([]*big.Int, error)
}

// TokenValuer prices a raw token balance in the reference stablecoin.
type TokenValuer interface {
	ValueOf(ctx context.Context, tokenAddress string, rawBalance *big.Int, decimals uint8) decimal.Decimal
}
