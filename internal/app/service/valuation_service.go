package service

import (
	"context"
	"math/big"
	"strings"

	"duel_portfolio/internal/app/port"
	"duel_portfolio/internal/pkg/metrics"
	"duel_portfolio/internal/pkg/utils"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const nativeTokenLiteral = "native"

// ValuationService prices raw token balances through router quotes. It implements port.TokenValuer.
type ValuationService struct {
	quotes         port.QuoteClient
	wrappedNative  string
	stablecoin     string
	stableDecimals uint8
	logger         *zap.Logger
}

// NewValuationService creates a ValuationService quoting into stablecoin.
func NewValuationService(
	quotes port.QuoteClient,
	wrappedNative string,
	stablecoin string,
	stableDecimals uint8,
	logger *zap.Logger,
) *ValuationService {
	return &ValuationService{
		quotes:         quotes,
		wrappedNative:  wrappedNative,
		stablecoin:     stablecoin,
		stableDecimals: stableDecimals,
		logger:         logger.Named("ValuationService"),
	}
}

// IsNative reports whether address denotes the chain's native asset or its wrapped form.
func (s *ValuationService) IsNative(address string) bool {
	a := strings.TrimSpace(address)
	return a == "" || strings.EqualFold(a, nativeTokenLiteral) || utils.SameAddress(a, s.wrappedNative)
}

// ValueOf returns the stablecoin value of rawBalance. It never fails: an unpriceable token is worth zero.
// decimals is unused because the router output is already denominated in the stablecoin.
func (s *ValuationService) ValueOf(ctx context.Context, tokenAddress string, rawBalance *big.Int, decimals uint8) decimal.Decimal {
	if rawBalance == nil || rawBalance.Sign() == 0 {
		metrics.TokenQuotes.WithLabelValues(metrics.OutcomeZero).Inc()
		return decimal.Zero
	}

	if utils.SameAddress(tokenAddress, s.stablecoin) {
		metrics.TokenQuotes.WithLabelValues(metrics.OutcomeStablecoin).Inc()
		return utils.ToDecimal(rawBalance, s.stableDecimals)
	}

	effIn := tokenAddress
	if s.IsNative(tokenAddress) {
		effIn = s.wrappedNative
	}

	amounts, err := s.quotes.Quote(ctx, rawBalance, []string{effIn, s.stablecoin})
	if err == nil && len(amounts) >= 2 {
		metrics.TokenQuotes.WithLabelValues(metrics.OutcomeDirect).Inc()
		return utils.ToDecimal(amounts[len(amounts)-1], s.stableDecimals)
	}
	s.logger.Debug("Direct quote failed, trying via wrapped native",
		zap.String("token", tokenAddress),
		zap.Error(err))

	// A native token cannot be routed by name, so the hop goes through its wrapped address twice.
	amounts, err = s.quotes.Quote(ctx, rawBalance, []string{effIn, s.wrappedNative, s.stablecoin})
	if err == nil && len(amounts) >= 3 {
		metrics.TokenQuotes.WithLabelValues(metrics.OutcomeFallback).Inc()
		return utils.ToDecimal(amounts[len(amounts)-1], s.stableDecimals)
	}

	metrics.TokenQuotes.WithLabelValues(metrics.OutcomeFailed).Inc()
	s.logger.Warn("No liquidity path for token, valuing at 0",
		zap.String("token", tokenAddress),
		zap.String("rawBalance", rawBalance.String()),
		zap.Error(err))
	return decimal.Zero
}
