package service

import (
	"context"
	"sync/atomic"
	"time"

	"duel_portfolio/internal/app/port"
	"duel_portfolio/internal/domain/entity"
	"duel_portfolio/internal/pkg/metrics"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// DefaultCacheDuration is how long a stored portfolio counts as fresh.
const DefaultCacheDuration = 60 * time.Second

// CacheStats is a point-in-time view of cache activity.
type CacheStats struct {
	Entries int    `json:"entries"`
	Hits    uint64 `json:"hits"`
	Misses  uint64 `json:"misses"`
}

// PortfolioCache serves portfolios from a store while they are fresh. It implements port.PortfolioProvider.
type PortfolioCache struct {
	fetcher port.PortfolioProvider
	store   port.PortfolioStore
	clock   port.Clock
	ttl     time.Duration
	logger  *zap.Logger

	group  singleflight.Group
	hits   atomic.Uint64
	misses atomic.Uint64
}

// NewPortfolioCache wraps fetcher with a TTL cache kept in store.
func NewPortfolioCache(
	fetcher port.PortfolioProvider,
	store port.PortfolioStore,
	clock port.Clock,
	ttl time.Duration,
	logger *zap.Logger,
) *PortfolioCache {
	if ttl <= 0 {
		ttl = DefaultCacheDuration
	}
	if clock == nil {
		clock = port.SystemClock{}
	}
	return &PortfolioCache{
		fetcher: fetcher,
		store:   store,
		clock:   clock,
		ttl:     ttl,
		logger:  logger.Named("PortfolioCache"),
	}
}

// GetPortfolio implements port.PortfolioProvider.
func (c *PortfolioCache) GetPortfolio(ctx context.Context, address string) (entity.Portfolio, error) {
	return c.GetOrFetch(ctx, address)
}

// GetOrFetch returns the stored portfolio when fresh, otherwise fetches, stores and returns a new one.
func (c *PortfolioCache) GetOrFetch(ctx context.Context, address string) (entity.Portfolio, error) {
	if p, ok := c.lookup(ctx, address); ok {
		c.hits.Add(1)
		metrics.CacheRequests.WithLabelValues("hit").Inc()
		return p, nil
	}
	c.misses.Add(1)
	metrics.CacheRequests.WithLabelValues("miss").Inc()

	// The shared fetch must outlive any single caller; downstream timeouts still bound it.
	fetchCtx := context.WithoutCancel(ctx)
	ch := c.group.DoChan(address, func() (interface{}, error) {
		// Another caller may have filled the entry while we waited.
		if p, ok := c.lookup(fetchCtx, address); ok {
			return p, nil
		}
		p, err := c.fetcher.GetPortfolio(fetchCtx, address)
		if err != nil {
			return entity.Portfolio{}, err
		}
		entry := entity.CacheEntry{Data: p, FetchedAtMillis: c.clock.Now().UnixMilli()}
		if err := c.store.Set(fetchCtx, address, entry); err != nil {
			c.logger.Warn("Failed to store portfolio", zap.String("address", address), zap.Error(err))
		}
		return p, nil
	})

	select {
	case <-ctx.Done():
		return entity.Portfolio{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return entity.Portfolio{}, res.Err
		}
		if res.Shared {
			c.logger.Debug("Collapsed concurrent portfolio fetch", zap.String("address", address))
		}
		return res.Val.(entity.Portfolio), nil
	}
}

func (c *PortfolioCache) lookup(ctx context.Context, address string) (entity.Portfolio, bool) {
	entry, ok, err := c.store.Get(ctx, address)
	if err != nil {
		c.logger.Warn("Portfolio store read failed, treating as miss", zap.String("address", address), zap.Error(err))
		return entity.Portfolio{}, false
	}
	if !ok {
		return entity.Portfolio{}, false
	}
	age := c.clock.Now().UnixMilli() - entry.FetchedAtMillis
	if age < c.ttl.Milliseconds() {
		return entry.Data, true
	}
	return entity.Portfolio{}, false
}

// Clear drops every stored portfolio.
func (c *PortfolioCache) Clear(ctx context.Context) error {
	if err := c.store.Flush(ctx); err != nil {
		return err
	}
	c.logger.Info("Portfolio cache cleared")
	return nil
}

// Stats reports the entry count and lookup counters.
func (c *PortfolioCache) Stats(ctx context.Context) CacheStats {
	return CacheStats{
		Entries: c.store.Len(ctx),
		Hits:    c.hits.Load(),
		Misses:  c.misses.Load(),
	}
}
