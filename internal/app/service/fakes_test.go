package service

import (
	"context"
	"errors"
	"math/big"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"duel_portfolio/internal/domain/entity"

	"github.com/shopspring/decimal"
)

const (
	testWrapped = "0xF22eF0085f6511f70b01a68F360dCc56261F768a"
	testStable  = "0xDa4FDE38bE7a2b959BF46E032ECfA21e64019b76"
	testTokenA  = "0x00000000000000000000000000000000000000aA"
	testTokenB  = "0x00000000000000000000000000000000000000bB"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.UnixMilli(1_700_000_000_000)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// fakeQuotes answers quotes keyed by the lower-cased path joined with ">".
type fakeQuotes struct {
	mu       sync.Mutex
	calls    int
	paths    [][]string
	response map[string][]*big.Int
}

func newFakeQuotes() *fakeQuotes {
	return &fakeQuotes{response: make(map[string][]*big.Int)}
}

func pathKey(path ...string) string {
	return strings.ToLower(strings.Join(path, ">"))
}

func (q *fakeQuotes) set(out []int64, path ...string) {
	amounts := make([]*big.Int, len(out))
	for i, v := range out {
		amounts[i] = big.NewInt(v)
	}
	q.response[pathKey(path...)] = amounts
}

func (q *fakeQuotes) Quote(_ context.Context, _ *big.Int, path []string) ([]*big.Int, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.calls++
	q.paths = append(q.paths, path)
	if amounts, ok := q.response[pathKey(path...)]; ok {
		return amounts, nil
	}
	return nil, entity.ErrNoLiquidityPath
}

type fakeBalances struct {
	calls    atomic.Int32
	balances []entity.TokenBalance
	err      error
}

func (b *fakeBalances) FetchBalances(context.Context, string) ([]entity.TokenBalance, error) {
	b.calls.Add(1)
	return b.balances, b.err
}

// fakeValuer returns a fixed value per contract address.
type fakeValuer map[string]decimal.Decimal

func (v fakeValuer) ValueOf(_ context.Context, token string, _ *big.Int, _ uint8) decimal.Decimal {
	return v[token]
}

type fakeProvider struct {
	mu     sync.Mutex
	calls  map[string]int
	values map[string]decimal.Decimal
	err    error
	delay  time.Duration
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{calls: make(map[string]int), values: make(map[string]decimal.Decimal)}
}

func (p *fakeProvider) GetPortfolio(_ context.Context, address string) (entity.Portfolio, error) {
	if p.delay > 0 {
		time.Sleep(p.delay)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls[address]++
	if p.err != nil {
		return entity.Portfolio{}, p.err
	}
	return entity.Portfolio{
		Address:    address,
		TotalValue: p.values[address],
		Tokens:     []entity.ValuedToken{},
		Timestamp:  int64(p.calls[address]),
	}, nil
}

func (p *fakeProvider) callCount(address string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls[address]
}

type mapStore struct {
	mu      sync.Mutex
	entries map[string]entity.CacheEntry
	getErr  error
}

func newMapStore() *mapStore {
	return &mapStore{entries: make(map[string]entity.CacheEntry)}
}

func (s *mapStore) Get(_ context.Context, key string) (entity.CacheEntry, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.getErr != nil {
		return entity.CacheEntry{}, false, s.getErr
	}
	e, ok := s.entries[key]
	return e, ok, nil
}

func (s *mapStore) Set(_ context.Context, key string, entry entity.CacheEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = entry
	return nil
}

func (s *mapStore) Flush(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = make(map[string]entity.CacheEntry)
	return nil
}

func (s *mapStore) Len(context.Context) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

type fakeDuels struct {
	duel  *entity.DuelSnapshot
	err   error
	calls int
}

func (d *fakeDuels) GetDuel(context.Context, uint64) (*entity.DuelSnapshot, error) {
	d.calls++
	return d.duel, d.err
}

var errBoom = errors.New("boom")
