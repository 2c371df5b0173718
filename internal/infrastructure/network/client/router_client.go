package client

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"time"

	"duel_portfolio/internal/domain/entity"
	"duel_portfolio/internal/pkg/utils"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/rpc"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Router ABI minimal part for getAmountsOut
const routerABI = `[{"inputs":[{"internalType":"uint256","name":"amountIn","type":"uint256"},{"internalType":"address[]","name":"path","type":"address[]"}],"name":"getAmountsOut","outputs":[{"internalType":"uint256[]","name":"amounts","type":"uint256[]"}],"stateMutability":"view","type":"function"}]`

var (
	parsedRouterABI  abi.ABI
	parsedRouterOnce sync.Once
)

func initParsedRouterABI() {
	parsedRouterOnce.Do(func() {
		var err error
		parsedRouterABI, err = abi.JSON(strings.NewReader(routerABI))
		if err != nil {
			panic(fmt.Sprintf("failed to parse router ABI: %v", err))
		}
	})
}

// RouterClient quotes swaps against a UniswapV2-style router. It implements port.QuoteClient.
type RouterClient struct {
	caller         ContractCaller
	router         common.Address
	rpcCallTimeout time.Duration
	limiter        *rate.Limiter
	logger         *zap.Logger
}

// NewRouterClient creates a router client bound to routerAddress.
func NewRouterClient(caller ContractCaller, routerAddress string, rpcCallTimeout time.Duration, limiter *rate.Limiter, logger *zap.Logger) *RouterClient {
	initParsedRouterABI()
	return &RouterClient{
		caller:         caller,
		router:         common.HexToAddress(routerAddress),
		rpcCallTimeout: rpcCallTimeout,
		limiter:        limiter,
		logger:         logger.Named("RouterClient"),
	}
}

// Quote calls getAmountsOut(amountIn, path) and returns one amount per path element.
func (c *RouterClient) Quote(ctx context.Context, amountIn *big.Int, path []string) ([]*big.Int, error) {
	if len(path) < 2 {
		return nil, fmt.Errorf("%w: need at least 2 tokens, got %d", entity.ErrInvalidPath, len(path))
	}
	if amountIn == nil || amountIn.Sign() < 0 {
		return nil, fmt.Errorf("%w: amountIn must be a non-negative integer", entity.ErrInvalidPath)
	}

	hops := make([]common.Address, len(path))
	for i, p := range path {
		if !utils.IsHexAddress(p) {
			return nil, fmt.Errorf("%w: %q is not a hex address", entity.ErrInvalidPath, p)
		}
		hops[i] = common.HexToAddress(p)
	}

	callData, err := parsedRouterABI.Pack("getAmountsOut", amountIn, hops)
	if err != nil {
		return nil, fmt.Errorf("%w: pack getAmountsOut: %w", entity.ErrInvalidPath, err)
	}

	if c.rpcCallTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.rpcCallTimeout)
		defer cancel()
	}
	if err := waitLimiter(ctx, c.limiter); err != nil {
		return nil, err
	}

	router := c.router
	out, err := c.caller.CallContract(ctx, ethereum.CallMsg{To: &router, Data: callData}, nil)
	if err != nil {
		if isRevert(ctx, err) {
			return nil, fmt.Errorf("%w: getAmountsOut reverted: %w", entity.ErrNoLiquidityPath, err)
		}
		return nil, upstreamError(ctx, "getAmountsOut", err)
	}

	unpacked, err := parsedRouterABI.Unpack("getAmountsOut", out)
	if err != nil || len(unpacked) == 0 {
		return nil, fmt.Errorf("%w: malformed getAmountsOut result (%d bytes): %v", entity.ErrNoLiquidityPath, len(out), err)
	}
	amounts, ok := unpacked[0].([]*big.Int)
	if !ok {
		return nil, fmt.Errorf("%w: unexpected getAmountsOut type %T", entity.ErrNoLiquidityPath, unpacked[0])
	}
	if len(amounts) < len(path) {
		return nil, fmt.Errorf("%w: got %d amounts for a %d-token path", entity.ErrNoLiquidityPath, len(amounts), len(path))
	}

	c.logger.Debug("Quote succeeded",
		zap.Strings("path", path),
		zap.String("amountIn", amountIn.String()),
		zap.String("amountOut", amounts[len(amounts)-1].String()))
	return amounts, nil
}

// isRevert reports whether the node answered the call with an error, as opposed to the call never completing.
func isRevert(ctx context.Context, err error) bool {
	if isDeadline(ctx, err) || errors.Is(err, entity.ErrUpstreamUnavailable) {
		return false
	}
	var rpcErr rpc.Error
	return errors.As(err, &rpcErr) || strings.Contains(err.Error(), "execution reverted")
}

func upstreamError(ctx context.Context, method string, err error) error {
	if errors.Is(err, entity.ErrUpstreamUnavailable) {
		return err
	}
	if isDeadline(ctx, err) {
		return fmt.Errorf("%w: %s timed out: %w", entity.ErrUpstreamUnavailable, method, err)
	}
	return fmt.Errorf("%w: %s call failed: %w", entity.ErrUpstreamUnavailable, method, err)
}
