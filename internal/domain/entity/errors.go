package entity

import "errors"

var (
	// ErrUpstreamUnavailable means the indexer or the chain RPC endpoint could not be reached in time.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
	// ErrNoLiquidityPath means a router quote reverted or returned fewer amounts than the path.
	ErrNoLiquidityPath = errors.New("no liquidity path")
	// ErrInvalidPath is returned for router paths shorter than two tokens.
	ErrInvalidPath = errors.New("invalid swap path")
	// ErrPortfolioFetchFailed means the set of balances could not be established.
	ErrPortfolioFetchFailed = errors.New("portfolio fetch failed")
	// ErrLiveStatsUnavailable means the duel or one of its portfolios could not be read.
	ErrLiveStatsUnavailable = errors.New("live stats unavailable")
)
