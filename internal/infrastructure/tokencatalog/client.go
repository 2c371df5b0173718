package tokencatalog

import (
	"context"
	"fmt"
	"strings"
	"time"

	"duel_portfolio/internal/domain/entity"

	jsoniter "github.com/json-iterator/go"
	"github.com/patrickmn/go-cache"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const (
	// DefaultTimeout bounds a catalog request when the caller's context has no deadline.
	DefaultTimeout = 20 * time.Second
	// DefaultCacheTTL is how long a fetched catalog is served before refetching.
	DefaultCacheTTL = 5 * time.Minute

	catalogCacheKey = "erc20"
)

type catalogResponse struct {
	Items []catalogItem `json:"items"`
}

// catalogItem accepts both the older "address" and the newer "address_hash" explorer field.
type catalogItem struct {
	Address     string `json:"address"`
	AddressHash string `json:"address_hash"`
	Name        string `json:"name"`
	Symbol      string `json:"symbol"`
	Decimals    string `json:"decimals"`
	Type        string `json:"type"`
	IconURL     string `json:"icon_url"`
}

// Client lists ERC-20 tokens known to the block explorer. It implements port.TokenCatalog.
type Client struct {
	client  *fasthttp.Client
	baseURL string
	timeout time.Duration
	cache   *cache.Cache
	logger  *zap.Logger
}

// NewClient creates a new token catalog client.
func NewClient(baseURL string, timeout, cacheTTL time.Duration, logger *zap.Logger) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if cacheTTL <= 0 {
		cacheTTL = DefaultCacheTTL
	}
	return &Client{
		client:  &fasthttp.Client{Name: "duel-portfolio"},
		baseURL: strings.TrimRight(baseURL, "/"),
		timeout: timeout,
		cache:   cache.New(cacheTTL, 2*cacheTTL),
		logger:  logger.Named("TokenCatalogClient"),
	}
}

// GetSupportedTokens returns the explorer's ERC-20 list, served from cache while fresh.
func (c *Client) GetSupportedTokens(ctx context.Context) ([]entity.TokenInfo, error) {
	if cached, found := c.cache.Get(catalogCacheKey); found {
		return cached.([]entity.TokenInfo), nil
	}

	requestURL := c.baseURL + "/tokens?type=ERC-20"
	c.logger.Debug("Requesting token catalog", zap.String("url", requestURL))

	req := fasthttp.AcquireRequest()
	defer fasthttp.ReleaseRequest(req)
	req.SetRequestURI(requestURL)
	req.Header.SetMethod(fasthttp.MethodGet)
	req.Header.SetContentTypeBytes([]byte("application/json"))

	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseResponse(resp)

	deadline, ok := ctx.Deadline()
	if ok {
		if err := c.client.DoDeadline(req, resp, deadline); err != nil {
			c.logger.Error("Failed to execute token catalog request", zap.String("url", requestURL), zap.Error(err))
			return nil, fmt.Errorf("%w: token catalog request: %w", entity.ErrUpstreamUnavailable, err)
		}
	} else {
		if err := c.client.DoTimeout(req, resp, c.timeout); err != nil {
			c.logger.Error("Failed to execute token catalog request (with default timeout)", zap.String("url", requestURL), zap.Error(err))
			return nil, fmt.Errorf("%w: token catalog request: %w", entity.ErrUpstreamUnavailable, err)
		}
	}

	if status := resp.StatusCode(); status != fasthttp.StatusOK {
		c.logger.Error("Token catalog request failed",
			zap.String("url", requestURL),
			zap.Int("statusCode", status),
			zap.ByteString("responseBody", resp.Body()))
		return nil, fmt.Errorf("%w: token catalog returned status %d", entity.ErrUpstreamUnavailable, status)
	}

	var body catalogResponse
	if err := json.Unmarshal(resp.Body(), &body); err != nil {
		c.logger.Error("Failed to unmarshal token catalog", zap.Error(err))
		return nil, fmt.Errorf("%w: decode token catalog: %w", entity.ErrUpstreamUnavailable, err)
	}

	tokens := make([]entity.TokenInfo, 0, len(body.Items))
	for _, item := range body.Items {
		address := item.Address
		if address == "" {
			address = item.AddressHash
		}
		tokens = append(tokens, entity.TokenInfo{
			Address:  address,
			Name:     item.Name,
			Symbol:   item.Symbol,
			Decimals: item.Decimals,
			Type:     item.Type,
			IconURL:  item.IconURL,
		})
	}

	c.cache.SetDefault(catalogCacheKey, tokens)
	c.logger.Info("Token catalog loaded", zap.Int("count", len(tokens)))
	return tokens, nil
}

// Invalidate drops the cached catalog.
func (c *Client) Invalidate() {
	c.cache.Delete(catalogCacheKey)
}
