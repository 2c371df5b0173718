package service

import (
	"context"
	"fmt"

	"duel_portfolio/internal/app/port"
	"duel_portfolio/internal/domain/entity"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var hundred = decimal.NewFromInt(100)

// LiveStatsService derives the standing of both sides of an active duel.
type LiveStatsService struct {
	duels      port.DuelLookup
	portfolios port.PortfolioProvider
	clock      port.Clock
	logger     *zap.Logger
}

// NewLiveStatsService creates a LiveStatsService. portfolios is normally the PortfolioCache.
func NewLiveStatsService(
	duels port.DuelLookup,
	portfolios port.PortfolioProvider,
	clock port.Clock,
	logger *zap.Logger,
) *LiveStatsService {
	if clock == nil {
		clock = port.SystemClock{}
	}
	return &LiveStatsService{
		duels:      duels,
		portfolios: portfolios,
		clock:      clock,
		logger:     logger.Named("LiveStatsService"),
	}
}

// GetLiveStats returns nil without error when the duel is missing or not active.
func (s *LiveStatsService) GetLiveStats(ctx context.Context, duelID uint64) (*entity.LiveStats, error) {
	duel, err := s.duels.GetDuel(ctx, duelID)
	if err != nil {
		return nil, fmt.Errorf("%w: duel %d: %w", entity.ErrLiveStatsUnavailable, duelID, err)
	}
	if duel == nil || duel.Status != entity.DuelStatusActive {
		return nil, nil
	}

	initial, err := decimal.NewFromString(duel.WagerAmount)
	if err != nil {
		return nil, fmt.Errorf("%w: duel %d has unparsable wager %q: %w", entity.ErrLiveStatsUnavailable, duelID, duel.WagerAmount, err)
	}

	creatorValue, opponentValue := decimal.Zero, decimal.Zero
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		p, err := s.portfolios.GetPortfolio(gctx, duel.Creator)
		if err != nil {
			return fmt.Errorf("creator %s: %w", duel.Creator, err)
		}
		creatorValue = p.TotalValue
		return nil
	})
	if duel.HasOpponent() {
		g.Go(func() error {
			p, err := s.portfolios.GetPortfolio(gctx, duel.Opponent)
			if err != nil {
				return fmt.Errorf("opponent %s: %w", duel.Opponent, err)
			}
			opponentValue = p.TotalValue
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		s.logger.Warn("Failed to load duel portfolios", zap.Uint64("duelId", duelID), zap.Error(err))
		return nil, fmt.Errorf("%w: duel %d: %w", entity.ErrLiveStatsUnavailable, duelID, err)
	}

	stats := &entity.LiveStats{
		Creator:          sideStats(creatorValue, initial),
		LastUpdateMillis: s.clock.Now().UnixMilli(),
	}
	// An empty seat has staked nothing, so it reports flat rather than a full loss.
	if duel.HasOpponent() {
		stats.Opponent = sideStats(opponentValue, initial)
	} else {
		stats.Opponent = entity.SideStats{CurrentValue: decimal.Zero, PnLPercent: decimal.Zero}
	}
	return stats, nil
}

// sideStats computes the percentage gain of current over initial, zero when initial is zero.
func sideStats(current, initial decimal.Decimal) entity.SideStats {
	pnl := decimal.Zero
	if !initial.IsZero() {
		pnl = current.Sub(initial).Div(initial).Mul(hundred)
	}
	return entity.SideStats{CurrentValue: current, PnLPercent: pnl}
}
