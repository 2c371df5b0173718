package service

import (
	"context"
	"fmt"
	"time"

	"duel_portfolio/internal/app/port"
	"duel_portfolio/internal/domain/entity"
	"duel_portfolio/internal/pkg/metrics"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// DefaultMaxConcurrentValuations bounds the per-portfolio quote fan-out.
const DefaultMaxConcurrentValuations = 16

// PortfolioService builds a wallet portfolio from its balances. It implements port.PortfolioProvider.
type PortfolioService struct {
	balances      port.BalanceSource
	valuer        port.TokenValuer
	clock         port.Clock
	maxConcurrent int
	logger        *zap.Logger
}

// NewPortfolioService creates a PortfolioService. maxConcurrent of 0 selects the default, a negative value removes the limit.
func NewPortfolioService(
	balances port.BalanceSource,
	valuer port.TokenValuer,
	clock port.Clock,
	maxConcurrent int,
	logger *zap.Logger,
) *PortfolioService {
	if maxConcurrent == 0 {
		maxConcurrent = DefaultMaxConcurrentValuations
	}
	if clock == nil {
		clock = port.SystemClock{}
	}
	return &PortfolioService{
		balances:      balances,
		valuer:        valuer,
		clock:         clock,
		maxConcurrent: maxConcurrent,
		logger:        logger.Named("PortfolioService"),
	}
}

// GetPortfolio fetches every balance of address and values each one.
func (s *PortfolioService) GetPortfolio(ctx context.Context, address string) (entity.Portfolio, error) {
	start := time.Now()

	balances, err := s.balances.FetchBalances(ctx, address)
	if err != nil {
		metrics.PortfolioFetchDuration.WithLabelValues("error").Observe(time.Since(start).Seconds())
		s.logger.Error("Failed to fetch balances", zap.String("address", address), zap.Error(err))
		return entity.Portfolio{}, fmt.Errorf("%w: %s: %w", entity.ErrPortfolioFetchFailed, address, err)
	}

	valued := make([]entity.ValuedToken, len(balances))
	g, gctx := errgroup.WithContext(ctx)
	if s.maxConcurrent > 0 {
		g.SetLimit(s.maxConcurrent)
	}
	for i, b := range balances {
		g.Go(func() error {
			valued[i] = entity.ValuedToken{
				TokenBalance: b,
				ValueUSD:     s.valuer.ValueOf(gctx, b.ContractAddress, b.RawBalance, b.Decimals),
			}
			return nil
		})
	}
	_ = g.Wait() // valuations never fail

	total := decimal.Zero
	for _, v := range valued {
		total = total.Add(v.ValueUSD)
	}

	tokens := lo.Filter(valued, func(v entity.ValuedToken, _ int) bool {
		return v.ValueUSD.IsPositive()
	})

	portfolio := entity.Portfolio{
		Address:    address,
		TotalValue: total.Round(2),
		Tokens:     tokens,
		Timestamp:  s.clock.Now().Unix(),
	}

	metrics.PortfolioFetchDuration.WithLabelValues("ok").Observe(time.Since(start).Seconds())
	s.logger.Info("Portfolio built",
		zap.String("address", address),
		zap.Int("balances", len(balances)),
		zap.Int("valuedTokens", len(tokens)),
		zap.String("totalValue", portfolio.TotalValue.StringFixed(2)))
	return portfolio, nil
}
