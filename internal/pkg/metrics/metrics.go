package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "duel_portfolio"

var (
	// CacheRequests counts portfolio cache lookups by result (hit, miss).
	CacheRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "portfolio_cache_requests_total",
		Help:      "Portfolio cache lookups partitioned by result.",
	}, []string{"result"})

	// TokenQuotes counts token valuations by outcome.
	TokenQuotes = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "token_quote_total",
		Help:      "Token valuations partitioned by outcome.",
	}, []string{"outcome"})

	// PortfolioFetchDuration observes full aggregator runs.
	PortfolioFetchDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "portfolio_fetch_duration_seconds",
		Help:      "Time spent building a portfolio on cache miss.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"status"})

	// HTTPRequests counts API requests by route and status code.
	HTTPRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "HTTP requests partitioned by route and status.",
	}, []string{"path", "status"})

	registerOnce sync.Once
)

// Quote outcomes.
const (
	OutcomeZero       = "zero"
	OutcomeStablecoin = "stablecoin"
	OutcomeDirect     = "direct"
	OutcomeFallback   = "fallback"
	OutcomeFailed     = "failed"
)

// MustRegisterMetrics registers all collectors with the default registry. Safe to call twice.
func MustRegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(CacheRequests, TokenQuotes, PortfolioFetchDuration, HTTPRequests)
	})
}
