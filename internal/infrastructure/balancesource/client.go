package balancesource

import (
	"context"
	"fmt"
	"math/big"
	"net/url"
	"strconv"
	"strings"
	"time"

	"duel_portfolio/internal/domain/entity"
	"duel_portfolio/internal/pkg/utils"

	jsoniter "github.com/json-iterator/go"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// DefaultTimeout bounds a balance request when the caller's context has no deadline.
const DefaultTimeout = 20 * time.Second

// Client fetches ERC-20 balances from the indexing API. It implements port.BalanceSource.
type Client struct {
	client      *fasthttp.Client
	baseURL     string
	bearerToken string
	timeout     time.Duration
	logger      *zap.Logger
}

// NewClient creates a new balance source client.
func NewClient(baseURL, bearerToken string, timeout time.Duration, logger *zap.Logger) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		client:      &fasthttp.Client{Name: "duel-portfolio"},
		baseURL:     strings.TrimRight(baseURL, "/"),
		bearerToken: bearerToken,
		timeout:     timeout,
		logger:      logger.Named("BalanceSourceClient"),
	}
}

// FetchBalances returns every ERC-20 balance the indexer tracks for address, in the indexer's order.
func (c *Client) FetchBalances(ctx context.Context, address string) ([]entity.TokenBalance, error) {
	requestURL := fmt.Sprintf("%s/address/%s/balance/erc20", c.baseURL, url.PathEscape(address))
	c.logger.Debug("Requesting ERC20 balances", zap.String("url", requestURL))

	req := fasthttp.AcquireRequest()
	defer fasthttp.ReleaseRequest(req)
	req.SetRequestURI(requestURL)
	req.Header.SetMethod(fasthttp.MethodGet)
	req.Header.Set("Accept", "application/json")
	if c.bearerToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.bearerToken)
	}

	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseResponse(resp)

	deadline := time.Now().Add(c.timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := c.client.DoDeadline(req, resp, deadline); err != nil {
		c.logger.Error("Failed to execute balance request", zap.String("url", requestURL), zap.Error(err))
		return nil, fmt.Errorf("%w: balance request to %s: %w", entity.ErrUpstreamUnavailable, requestURL, err)
	}

	rawBody := resp.Body()
	if status := resp.StatusCode(); status < 200 || status >= 300 {
		c.logger.Error("Balance API request failed",
			zap.String("url", requestURL),
			zap.Int("statusCode", status),
			zap.ByteString("responseBody", rawBody))
		return nil, fmt.Errorf("%w: balance API returned status %d", entity.ErrUpstreamUnavailable, status)
	}

	var body balanceResponse
	if err := json.Unmarshal(rawBody, &body); err != nil {
		c.logger.Error("Failed to unmarshal balance response", zap.String("url", requestURL), zap.Error(err))
		return nil, fmt.Errorf("%w: decode balance response: %w", entity.ErrUpstreamUnavailable, err)
	}

	balances := make([]entity.TokenBalance, 0, len(body.ERC20TokenBalances))
	for _, item := range body.ERC20TokenBalances {
		balances = append(balances, c.toTokenBalance(item))
	}

	c.logger.Debug("Fetched ERC20 balances", zap.String("address", address), zap.Int("count", len(balances)))
	return balances, nil
}

func (c *Client) toTokenBalance(item erc20Balance) entity.TokenBalance {
	decimals := entity.DefaultTokenDecimals
	if d, err := strconv.ParseUint(strings.TrimSpace(string(item.Contract.Decimals)), 10, 8); err == nil {
		decimals = uint8(d)
	}

	raw, err := utils.ParseBigInt(string(item.RawBalance))
	if err != nil {
		c.logger.Warn("Unparsable raw balance, treating as zero",
			zap.String("token", item.Contract.Address),
			zap.String("rawBalance", string(item.RawBalance)),
			zap.Error(err))
		raw = new(big.Int)
	}

	return entity.TokenBalance{
		ContractAddress: item.Contract.Address,
		Symbol:          item.Contract.Symbol,
		Name:            item.Contract.Name,
		Decimals:        decimals,
		RawBalance:      raw,
	}
}
