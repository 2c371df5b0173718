package restapi

import (
	"context"
	"encoding/json"
	"errors"
	"math/big"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"duel_portfolio/internal/app/service"
	"duel_portfolio/internal/domain/entity"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	walletAddr  = "0x1111111111111111111111111111111111111111"
	adminSecret = "test-secret"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubPortfolios struct {
	portfolio entity.Portfolio
	err       error
}

func (s *stubPortfolios) GetPortfolio(_ context.Context, address string) (entity.Portfolio, error) {
	if s.err != nil {
		return entity.Portfolio{}, s.err
	}
	p := s.portfolio
	p.Address = address
	return p, nil
}

type stubCatalog struct {
	tokens      []entity.TokenInfo
	err         error
	invalidated int
}

func (s *stubCatalog) Invalidate() { s.invalidated++ }

func (s *stubCatalog) GetSupportedTokens(context.Context) ([]entity.TokenInfo, error) {
	return s.tokens, s.err
}

// stubLiveStats returns the queued results in order, repeating the last one.
type stubLiveStats struct {
	mu      sync.Mutex
	results []*entity.LiveStats
	err     error
}

func (s *stubLiveStats) GetLiveStats(context.Context, uint64) (*entity.LiveStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	if len(s.results) == 0 {
		return nil, nil
	}
	r := s.results[0]
	if len(s.results) > 1 {
		s.results = s.results[1:]
	}
	return r, nil
}

type stubCacheAdmin struct {
	cleared int
}

func (s *stubCacheAdmin) Clear(context.Context) error {
	s.cleared++
	return nil
}

func (s *stubCacheAdmin) Stats(context.Context) service.CacheStats {
	return service.CacheStats{Entries: 3, Hits: 5, Misses: 2}
}

type testDeps struct {
	portfolios *stubPortfolios
	catalog    *stubCatalog
	stats      *stubLiveStats
	admin      *stubCacheAdmin
}

func newTestRouter(secret string) (*gin.Engine, *testDeps) {
	deps := &testDeps{
		portfolios: &stubPortfolios{portfolio: entity.Portfolio{
			TotalValue: decimal.RequireFromString("2.50"),
			Tokens: []entity.ValuedToken{{
				TokenBalance: entity.TokenBalance{
					ContractAddress: "0xaaa", Name: "Token A", Symbol: "A", Decimals: 6,
					RawBalance: big.NewInt(1_500_000),
				},
				ValueUSD: decimal.RequireFromString("2.5"),
			}},
			Timestamp: 1700000000,
		}},
		catalog: &stubCatalog{tokens: []entity.TokenInfo{{Address: "0xaaa", Symbol: "A", Decimals: "6", Type: "ERC-20"}}},
		stats:   &stubLiveStats{},
		admin:   &stubCacheAdmin{},
	}
	logger := zap.NewNop()
	router := SetupRouter(RouterOptions{
		Portfolio:      NewPortfolioHandler(deps.portfolios, logger),
		Swap:           NewSwapHandler(deps.catalog, logger),
		Duel:           NewDuelHandler(deps.stats, 10*time.Millisecond, logger),
		Admin:          NewAdminHandler(deps.admin, deps.catalog, logger),
		AdminJWTSecret: secret,
	}, logger)
	return router, deps
}

func doRequest(t *testing.T, router http.Handler, method, path string, header http.Header) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	for k, v := range header {
		req.Header[k] = v
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var body map[string]interface{}
	if strings.Contains(w.Header().Get("Content-Type"), "application/json") {
		if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
			t.Fatalf("response is not JSON: %v (%s)", err, w.Body.String())
		}
	}
	return w, body
}

func TestGetPortfolioEndpoint(t *testing.T) {
	router, _ := newTestRouter("")
	w, body := doRequest(t, router, http.MethodGet, "/api/portfolio/"+walletAddr, nil)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if body["success"] != true {
		t.Errorf("expected success, got %v", body)
	}
	data := body["data"].(map[string]interface{})
	if data["address"] != walletAddr || data["totalValue"] != 2.5 {
		t.Errorf("unexpected portfolio %v", data)
	}
	tokens := data["tokens"].([]interface{})
	if len(tokens) != 1 {
		t.Fatalf("expected 1 token, got %d", len(tokens))
	}
	tok := tokens[0].(map[string]interface{})
	if tok["raw_balance"] != "1500000" || tok["balance"] != "1.5" || tok["value_usd"] != 2.5 {
		t.Errorf("unexpected token %v", tok)
	}
	contract := tok["contract"].(map[string]interface{})
	if contract["symbol"] != "A" || contract["decimals"] != float64(6) {
		t.Errorf("unexpected contract %v", contract)
	}
	if w.Header().Get(RequestIDHeader) == "" {
		t.Errorf("expected a request id header")
	}
}

func TestGetPortfolioEndpointErrors(t *testing.T) {
	router, deps := newTestRouter("")

	w, body := doRequest(t, router, http.MethodGet, "/api/portfolio/not-an-address", nil)
	if w.Code != http.StatusBadRequest || body["success"] != false {
		t.Errorf("expected 400, got %d %v", w.Code, body)
	}

	deps.portfolios.err = errors.Join(entity.ErrPortfolioFetchFailed, entity.ErrUpstreamUnavailable)
	w, body = doRequest(t, router, http.MethodGet, "/api/portfolio/"+walletAddr, nil)
	if w.Code != http.StatusBadGateway {
		t.Errorf("expected 502, got %d", w.Code)
	}
	if msg, _ := body["error"].(string); !strings.Contains(msg, "portfolio fetch failed") {
		t.Errorf("expected the cause in the error, got %q", msg)
	}
}

func TestRequestIDIsPropagated(t *testing.T) {
	router, _ := newTestRouter("")
	w, _ := doRequest(t, router, http.MethodGet, "/health", http.Header{RequestIDHeader: {"abc-123"}})
	if got := w.Header().Get(RequestIDHeader); got != "abc-123" {
		t.Errorf("expected request id to be echoed, got %q", got)
	}
}

func TestSwapTokensEndpoint(t *testing.T) {
	router, deps := newTestRouter("")
	w, body := doRequest(t, router, http.MethodGet, "/api/swap/tokens", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	data := body["data"].([]interface{})
	if len(data) != 1 || data[0].(map[string]interface{})["symbol"] != "A" {
		t.Errorf("unexpected token list %v", data)
	}

	deps.catalog.err = entity.ErrUpstreamUnavailable
	if w, _ := doRequest(t, router, http.MethodGet, "/api/swap/tokens", nil); w.Code != http.StatusBadGateway {
		t.Errorf("expected 502, got %d", w.Code)
	}
}

func TestLiveStatsEndpoint(t *testing.T) {
	router, deps := newTestRouter("")

	w, body := doRequest(t, router, http.MethodGet, "/api/duels/7/live-stats", nil)
	if w.Code != http.StatusOK || body["data"] != nil {
		t.Errorf("expected null data for inactive duel, got %d %v", w.Code, body)
	}

	deps.stats.results = []*entity.LiveStats{{
		Creator:          entity.SideStats{CurrentValue: decimal.NewFromInt(120), PnLPercent: decimal.NewFromInt(20)},
		Opponent:         entity.SideStats{CurrentValue: decimal.Zero, PnLPercent: decimal.Zero},
		LastUpdateMillis: 1700000000123,
	}}
	w, body = doRequest(t, router, http.MethodGet, "/api/duels/7/live-stats", nil)
	data := body["data"].(map[string]interface{})
	creator := data["creator"].(map[string]interface{})
	if creator["currentValue"] != float64(120) || creator["pnlPercent"] != float64(20) {
		t.Errorf("unexpected creator %v", creator)
	}
	if data["lastUpdate"] != float64(1700000000123) {
		t.Errorf("unexpected lastUpdate %v", data["lastUpdate"])
	}

	if w, _ := doRequest(t, router, http.MethodGet, "/api/duels/abc/live-stats", nil); w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for bad id, got %d", w.Code)
	}

	deps.stats.err = entity.ErrLiveStatsUnavailable
	if w, _ := doRequest(t, router, http.MethodGet, "/api/duels/7/live-stats", nil); w.Code != http.StatusBadGateway {
		t.Errorf("expected 502, got %d", w.Code)
	}
}

func TestLiveStatsWebSocket(t *testing.T) {
	router, deps := newTestRouter("")
	active := &entity.LiveStats{
		Creator:          entity.SideStats{CurrentValue: decimal.NewFromInt(50), PnLPercent: decimal.NewFromInt(-50)},
		LastUpdateMillis: 1,
	}
	deps.stats.results = []*entity.LiveStats{active, active, nil}

	srv := httptest.NewServer(router)
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/duels/7/live-stats/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	for i := 0; i < 2; i++ {
		var msg struct {
			Success bool         `json:"success"`
			Data    LiveStatsDTO `json:"data"`
		}
		if err := conn.ReadJSON(&msg); err != nil {
			t.Fatalf("read update %d: %v", i, err)
		}
		if !msg.Success || msg.Data.Creator.PnLPercent != -50 {
			t.Errorf("unexpected update %+v", msg)
		}
	}

	_, _, err = conn.ReadMessage()
	if !websocket.IsCloseError(err, websocket.CloseNormalClosure) {
		t.Errorf("expected normal closure once stats go null, got %v", err)
	}
}

func signToken(t *testing.T, method jwt.SigningMethod, key interface{}) string {
	t.Helper()
	token := jwt.NewWithClaims(method, jwt.RegisteredClaims{
		Subject:   "ops",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	signed, err := token.SignedString(key)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func TestAdminRoutes(t *testing.T) {
	disabled, _ := newTestRouter("")
	if w, _ := doRequest(t, disabled, http.MethodDelete, "/api/admin/cache", nil); w.Code != http.StatusNotFound {
		t.Errorf("expected 404 when admin is disabled, got %d", w.Code)
	}

	router, deps := newTestRouter(adminSecret)
	if w, _ := doRequest(t, router, http.MethodDelete, "/api/admin/cache", nil); w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 without token, got %d", w.Code)
	}

	wrongKey := signToken(t, jwt.SigningMethodHS256, []byte("other"))
	if w, _ := doRequest(t, router, http.MethodDelete, "/api/admin/cache", http.Header{"Authorization": {"Bearer " + wrongKey}}); w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 for wrong key, got %d", w.Code)
	}

	wrongAlg := signToken(t, jwt.SigningMethodHS512, []byte(adminSecret))
	if w, _ := doRequest(t, router, http.MethodDelete, "/api/admin/cache", http.Header{"Authorization": {"Bearer " + wrongAlg}}); w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 for HS512 token, got %d", w.Code)
	}

	good := http.Header{"Authorization": {"Bearer " + signToken(t, jwt.SigningMethodHS256, []byte(adminSecret))}}
	w, _ := doRequest(t, router, http.MethodDelete, "/api/admin/cache", good)
	if w.Code != http.StatusOK || deps.admin.cleared != 1 {
		t.Errorf("expected cache clear, got %d (cleared %d)", w.Code, deps.admin.cleared)
	}
	if deps.catalog.invalidated != 1 {
		t.Errorf("expected the token catalog to be invalidated once, got %d", deps.catalog.invalidated)
	}

	w, body := doRequest(t, router, http.MethodGet, "/api/admin/cache/stats", good)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	stats := body["data"].(map[string]interface{})
	if stats["entries"] != float64(3) || stats["hits"] != float64(5) {
		t.Errorf("unexpected stats %v", stats)
	}
}

func TestHealthAndMetrics(t *testing.T) {
	router, _ := newTestRouter("")
	if w, body := doRequest(t, router, http.MethodGet, "/health", nil); w.Code != http.StatusOK || body["status"] != "ok" {
		t.Errorf("unexpected health response %d %v", w.Code, body)
	}

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("expected metrics endpoint, got %d", w.Code)
	}
}
