package client

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"time"

	"duel_portfolio/internal/domain/entity"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/ethclient"
	"go.uber.org/zap"
)

const defaultProviderConnectionTimeout = 10 * time.Second

// ContractCaller is the read-only slice of ethclient the chain readers need.
type ContractCaller interface {
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
}

// EVMClientProvider dials the chain endpoint on first use and reuses the connection afterwards.
// The primary RPC URL is tried first, then each fallback in order.
type EVMClientProvider struct {
	rpcURLs           []string
	connectionTimeout time.Duration
	logger            *zap.Logger

	mu     sync.Mutex
	client *ethclient.Client
}

// NewEVMClientProvider creates a new EVMClientProvider.
func NewEVMClientProvider(primaryURL string, fallbackURLs []string, connectionTimeout time.Duration, logger *zap.Logger) *EVMClientProvider {
	if connectionTimeout <= 0 {
		connectionTimeout = defaultProviderConnectionTimeout
	}
	urls := make([]string, 0, len(fallbackURLs)+1)
	if primaryURL != "" {
		urls = append(urls, primaryURL)
	}
	urls = append(urls, fallbackURLs...)
	return &EVMClientProvider{
		rpcURLs:           urls,
		connectionTimeout: connectionTimeout,
		logger:            logger.Named("EVMClientProvider"),
	}
}

// GetClient returns the cached client, dialing it if needed.
func (p *EVMClientProvider) GetClient() (*ethclient.Client, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.client != nil {
		return p.client, nil
	}
	if len(p.rpcURLs) == 0 {
		return nil, fmt.Errorf("%w: no RPC URL configured", entity.ErrUpstreamUnavailable)
	}

	var lastErr error
	for _, rpcURL := range p.rpcURLs {
		ctx, cancel := context.WithTimeout(context.Background(), p.connectionTimeout)
		c, err := ethclient.DialContext(ctx, rpcURL)
		cancel()
		if err == nil {
			p.logger.Info("Connected to RPC endpoint", zap.String("rpc", rpcURL))
			p.client = c
			return c, nil
		}
		p.logger.Warn("Failed to connect to RPC endpoint", zap.String("rpc", rpcURL), zap.Error(err))
		lastErr = fmt.Errorf("failed to connect to RPC %s: %w", rpcURL, err)
	}
	return nil, fmt.Errorf("%w: all RPC connection attempts failed: %w", entity.ErrUpstreamUnavailable, lastErr)
}

// CallContract implements ContractCaller on top of the cached client.
func (p *EVMClientProvider) CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error) {
	c, err := p.GetClient()
	if err != nil {
		return nil, err
	}
	return c.CallContract(ctx, msg, blockNumber)
}

// Close drops the cached connection.
func (p *EVMClientProvider) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.client != nil {
		p.client.Close()
		p.client = nil
	}
}

// isDeadline reports whether err came from an expired or cancelled call context.
func isDeadline(ctx context.Context, err error) bool {
	return errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) || ctx.Err() != nil
}
