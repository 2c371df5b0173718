package client

import (
	"context"
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
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const duelABI = `[{"inputs":[{"internalType":"uint256","name":"duelId","type":"uint256"}],"name":"getDuel","outputs":[{"components":[` +
	`{"internalType":"uint256","name":"id","type":"uint256"},` +
	`{"internalType":"address","name":"creator","type":"address"},` +
	`{"internalType":"address","name":"opponent","type":"address"},` +
	`{"internalType":"address","name":"tokenAddress","type":"address"},` +
	`{"internalType":"uint256","name":"wagerAmount","type":"uint256"},` +
	`{"internalType":"uint256","name":"duration","type":"uint256"},` +
	`{"internalType":"uint256","name":"startTime","type":"uint256"},` +
	`{"internalType":"uint256","name":"endTime","type":"uint256"},` +
	`{"internalType":"bool","name":"resolved","type":"bool"},` +
	`{"internalType":"address","name":"winner","type":"address"},` +
	`{"internalType":"uint8","name":"status","type":"uint8"}` +
	`],"internalType":"struct Duel.DuelInfo","name":"","type":"tuple"}],"stateMutability":"view","type":"function"}]`

// ERC20 ABI minimal part for decimals
const erc20ABI = `[{"constant":true,"inputs":[],"name":"decimals","outputs":[{"name":"","type":"uint8"}],"payable":false,"stateMutability":"view","type":"function"}]`

var (
	parsedDuelABI  abi.ABI
	parsedERC20ABI abi.ABI
	parsedDuelOnce sync.Once
)

func initParsedDuelABI() {
	parsedDuelOnce.Do(func() {
		var err error
		parsedDuelABI, err = abi.JSON(strings.NewReader(duelABI))
		if err != nil {
			panic(fmt.Sprintf("failed to parse duel ABI: %v", err))
		}
		parsedERC20ABI, err = abi.JSON(strings.NewReader(erc20ABI))
		if err != nil {
			panic(fmt.Sprintf("failed to parse ERC20 ABI: %v", err))
		}
	})
}

// duelInfo matches the DuelInfo tuple field for field.
type duelInfo struct {
	Id           *big.Int
	Creator      common.Address
	Opponent     common.Address
	TokenAddress common.Address
	WagerAmount  *big.Int
	Duration     *big.Int
	StartTime    *big.Int
	EndTime      *big.Int
	Resolved     bool
	Winner       common.Address
	Status       uint8
}

// DuelContract reads duels from the deployed duel contract. It implements port.DuelLookup.
type DuelContract struct {
	caller         ContractCaller
	address        common.Address
	rpcCallTimeout time.Duration
	limiter        *rate.Limiter
	logger         *zap.Logger

	decimalsMu sync.RWMutex
	decimals   map[common.Address]uint8
}

// NewDuelContract creates a reader bound to contractAddress.
func NewDuelContract(caller ContractCaller, contractAddress string, rpcCallTimeout time.Duration, limiter *rate.Limiter, logger *zap.Logger) *DuelContract {
	initParsedDuelABI()
	return &DuelContract{
		caller:         caller,
		address:        common.HexToAddress(contractAddress),
		rpcCallTimeout: rpcCallTimeout,
		limiter:        limiter,
		logger:         logger.Named("DuelContract"),
		decimals:       make(map[common.Address]uint8),
	}
}

// GetDuel returns the duel snapshot, or nil when the id is unknown to the contract.
func (d *DuelContract) GetDuel(ctx context.Context, duelID uint64) (*entity.DuelSnapshot, error) {
	out, err := d.call(ctx, d.address, parsedDuelABI, "getDuel", new(big.Int).SetUint64(duelID))
	if err != nil {
		if isRevert(ctx, err) {
			d.logger.Debug("getDuel reverted, treating duel as absent", zap.Uint64("duelId", duelID), zap.Error(err))
			return nil, nil
		}
		return nil, upstreamError(ctx, "getDuel", err)
	}

	unpacked, err := parsedDuelABI.Unpack("getDuel", out)
	if err != nil || len(unpacked) == 0 {
		return nil, fmt.Errorf("%w: malformed getDuel result: %v", entity.ErrUpstreamUnavailable, err)
	}
	info := *abi.ConvertType(unpacked[0], new(duelInfo)).(*duelInfo)

	if info.Creator == (common.Address{}) {
		return nil, nil
	}

	tokenDecimals := d.tokenDecimals(ctx, info.TokenAddress)

	snapshot := &entity.DuelSnapshot{
		ID:           bigToUint64(info.Id),
		Creator:      info.Creator.Hex(),
		Opponent:     info.Opponent.Hex(),
		TokenAddress: info.TokenAddress.Hex(),
		WagerAmount:  utils.FormatBigInt(info.WagerAmount, tokenDecimals),
		Duration:     bigToInt64(info.Duration),
		StartTime:    bigToInt64(info.StartTime),
		EndTime:      bigToInt64(info.EndTime),
		Resolved:     info.Resolved,
		Winner:       info.Winner.Hex(),
		Status:       entity.DuelStatusFromCode(info.Status),
	}
	d.logger.Debug("Loaded duel",
		zap.Uint64("duelId", duelID),
		zap.String("status", string(snapshot.Status)),
		zap.String("wager", snapshot.WagerAmount))
	return snapshot, nil
}

// tokenDecimals reads and memoises decimals(); it degrades to 18 rather than failing the duel read.
func (d *DuelContract) tokenDecimals(ctx context.Context, token common.Address) uint8 {
	if token == (common.Address{}) {
		return entity.DefaultTokenDecimals
	}

	d.decimalsMu.RLock()
	dec, ok := d.decimals[token]
	d.decimalsMu.RUnlock()
	if ok {
		return dec
	}

	out, err := d.call(ctx, token, parsedERC20ABI, "decimals")
	if err == nil {
		var unpacked []interface{}
		unpacked, err = parsedERC20ABI.Unpack("decimals", out)
		if err == nil && len(unpacked) == 1 {
			if v, isUint8 := unpacked[0].(uint8); isUint8 {
				d.decimalsMu.Lock()
				d.decimals[token] = v
				d.decimalsMu.Unlock()
				return v
			}
		}
	}
	d.logger.Warn("Failed to read token decimals, assuming 18", zap.String("token", token.Hex()), zap.Error(err))
	return entity.DefaultTokenDecimals
}

func (d *DuelContract) call(ctx context.Context, to common.Address, contractABI abi.ABI, method string, args ...interface{}) ([]byte, error) {
	data, err := contractABI.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("pack %s: %w", method, err)
	}
	if d.rpcCallTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.rpcCallTimeout)
		defer cancel()
	}
	if err := waitLimiter(ctx, d.limiter); err != nil {
		return nil, err
	}
	return d.caller.CallContract(ctx, ethereum.CallMsg{To: &to, Data: data}, nil)
}

func bigToUint64(v *big.Int) uint64 {
	if v == nil || !v.IsUint64() {
		return 0
	}
	return v.Uint64()
}

func bigToInt64(v *big.Int) int64 {
	if v == nil || !v.IsInt64() {
		return 0
	}
	return v.Int64()
}
