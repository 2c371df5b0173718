package service

import (
	"context"
	"math/big"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

func newTestValuation(q *fakeQuotes) *ValuationService {
	return NewValuationService(q, testWrapped, testStable, 6, zap.NewNop())
}

func TestValueOfZeroBalanceSkipsRouter(t *testing.T) {
	q := newFakeQuotes()
	s := newTestValuation(q)

	for _, raw := range []*big.Int{nil, big.NewInt(0)} {
		if v := s.ValueOf(context.Background(), testTokenA, raw, 18); !v.IsZero() {
			t.Errorf("expected 0, got %s", v)
		}
	}
	if q.calls != 0 {
		t.Errorf("expected no quote calls, got %d", q.calls)
	}
}

func TestValueOfStablecoinAtFaceValue(t *testing.T) {
	q := newFakeQuotes()
	s := newTestValuation(q)

	for _, addr := range []string{testStable, strings.ToLower(testStable), "0x" + strings.ToUpper(testStable[2:])} {
		v := s.ValueOf(context.Background(), addr, big.NewInt(1_234_567), 18)
		if !v.Equal(decimal.RequireFromString("1.234567")) {
			t.Errorf("%s: expected 1.234567, got %s", addr, v)
		}
	}
	if q.calls != 0 {
		t.Errorf("expected no quote calls, got %d", q.calls)
	}
}

func TestValueOfDirectPath(t *testing.T) {
	q := newFakeQuotes()
	q.set([]int64{1_000_000, 2_500_000}, testTokenA, testStable)
	s := newTestValuation(q)

	v := s.ValueOf(context.Background(), testTokenA, big.NewInt(1_000_000), 6)
	if !v.Equal(decimal.RequireFromString("2.5")) {
		t.Fatalf("expected 2.5, got %s", v)
	}
	if q.calls != 1 {
		t.Errorf("expected a single quote, got %d", q.calls)
	}
}

func TestValueOfFallbackPath(t *testing.T) {
	q := newFakeQuotes()
	q.set([]int64{1_000, 50, 7_000_000}, testTokenA, testWrapped, testStable)
	s := newTestValuation(q)

	v := s.ValueOf(context.Background(), testTokenA, big.NewInt(1_000), 18)
	if !v.Equal(decimal.NewFromInt(7)) {
		t.Fatalf("expected 7, got %s", v)
	}
	if q.calls != 2 {
		t.Errorf("expected 2 quotes, got %d", q.calls)
	}
	if len(q.paths[1]) != 3 || q.paths[1][1] != testWrapped {
		t.Errorf("unexpected fallback path %v", q.paths[1])
	}
}

func TestValueOfFallbackNeedsThreeAmounts(t *testing.T) {
	q := newFakeQuotes()
	q.set([]int64{1_000, 7_000_000}, testTokenA, testWrapped, testStable)
	s := newTestValuation(q)

	if v := s.ValueOf(context.Background(), testTokenA, big.NewInt(1_000), 18); !v.IsZero() {
		t.Fatalf("expected 0 for short fallback result, got %s", v)
	}
}

func TestValueOfNoRouteIsZero(t *testing.T) {
	q := newFakeQuotes()
	s := newTestValuation(q)

	if v := s.ValueOf(context.Background(), testTokenA, big.NewInt(1_000), 18); !v.IsZero() {
		t.Fatalf("expected 0, got %s", v)
	}
	if q.calls != 2 {
		t.Errorf("expected both paths to be tried, got %d", q.calls)
	}
}

func TestValueOfNativeUsesWrapped(t *testing.T) {
	q := newFakeQuotes()
	q.set([]int64{10, 3_000_000}, testWrapped, testStable)
	s := newTestValuation(q)

	for _, addr := range []string{"native", "NATIVE", "", strings.ToLower(testWrapped)} {
		v := s.ValueOf(context.Background(), addr, big.NewInt(10), 18)
		if !v.Equal(decimal.NewFromInt(3)) {
			t.Errorf("%q: expected 3, got %s", addr, v)
		}
	}
}

func TestIsNative(t *testing.T) {
	s := newTestValuation(newFakeQuotes())
	cases := map[string]bool{
		"native":    true,
		"Native":    true,
		"":          true,
		testWrapped: true,
		testTokenA:  false,
		testStable:  false,
	}
	for addr, want := range cases {
		if got := s.IsNative(addr); got != want {
			t.Errorf("IsNative(%q) = %v, want %v", addr, got, want)
		}
	}
}
