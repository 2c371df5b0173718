package port

import (
	"context"

	"duel_portfolio/internal/domain/entity"
)

// BalanceSource lists every ERC-20 balance held by an address.
type BalanceSource interface {
	FetchBalances(ctx context.Context, address string) ([]entity.TokenBalance, error)
}

// PortfolioProvider returns the valuation of a wallet.
type PortfolioProvider interface {
	GetPortfolio(ctx context.Context, address string) (entity.Portfolio, error)
}

// PortfolioStore keeps cache entries keyed by address.
type PortfolioStore interface {
	Get(ctx context.Context, key string) (entity.CacheEntry, bool, error)
	Set(ctx context.Context, key string, entry entity.CacheEntry) error
	Flush(ctx context.Context) error
	Len(ctx context.Context) int
}
