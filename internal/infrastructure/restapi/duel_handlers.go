package restapi

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"duel_portfolio/internal/app/port"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	// DefaultPushInterval is how often a live-stats socket receives an update.
	DefaultPushInterval = 5 * time.Second

	writeWait      = 10 * time.Second
	maxMessageSize = 512
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // CORS is enforced on the HTTP routes
	},
}

// DuelHandler serves live duel statistics.
type DuelHandler struct {
	stats        port.LiveStatsProvider
	pushInterval time.Duration
	logger       *zap.Logger
}

// NewDuelHandler creates a DuelHandler. A non-positive pushInterval selects DefaultPushInterval.
func NewDuelHandler(stats port.LiveStatsProvider, pushInterval time.Duration, logger *zap.Logger) *DuelHandler {
	if pushInterval <= 0 {
		pushInterval = DefaultPushInterval
	}
	return &DuelHandler{stats: stats, pushInterval: pushInterval, logger: logger.Named("DuelHandler")}
}

func parseDuelID(c *gin.Context) (uint64, bool) {
	raw := c.Param("id")
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		respondError(c, http.StatusBadRequest, fmt.Errorf("invalid duel id %q", raw))
		return 0, false
	}
	return id, true
}

// GetLiveStats handles GET /api/duels/:id/live-stats.
func (h *DuelHandler) GetLiveStats(c *gin.Context) {
	id, ok := parseDuelID(c)
	if !ok {
		return
	}
	stats, err := h.stats.GetLiveStats(c.Request.Context(), id)
	if err != nil {
		h.logger.Error("Failed to get live stats", zap.Uint64("duelId", id), zap.Error(err))
		respondError(c, statusFor(err), err)
		return
	}
	respondOK(c, newLiveStatsDTO(stats))
}

// StreamLiveStats handles GET /api/duels/:id/live-stats/ws. It pushes stats until the duel stops being active.
func (h *DuelHandler) StreamLiveStats(c *gin.Context) {
	id, ok := parseDuelID(c)
	if !ok {
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("Failed to upgrade WebSocket connection", zap.Uint64("duelId", id), zap.Error(err))
		return
	}
	defer conn.Close()
	h.logger.Debug("Live stats subscriber connected", zap.Uint64("duelId", id))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go h.readPump(conn, cancel)

	ticker := time.NewTicker(h.pushInterval)
	defer ticker.Stop()

	for {
		if done := h.push(ctx, conn, id); done {
			return
		}
		select {
		case <-ctx.Done():
			h.logger.Debug("Live stats subscriber left", zap.Uint64("duelId", id))
			return
		case <-ticker.C:
		}
	}
}

// push sends one update and reports whether the stream is finished.
func (h *DuelHandler) push(ctx context.Context, conn *websocket.Conn, id uint64) bool {
	stats, err := h.stats.GetLiveStats(ctx, id)
	if ctx.Err() != nil {
		return true
	}

	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err != nil {
		h.logger.Warn("Live stats refresh failed", zap.Uint64("duelId", id), zap.Error(err))
		if werr := conn.WriteJSON(APIResponse{Success: false, Error: err.Error()}); werr != nil {
			return true
		}
		return false
	}
	if stats == nil {
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "duel not active")
		_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
		return true
	}
	if err := conn.WriteJSON(APIResponse{Success: true, Data: newLiveStatsDTO(stats)}); err != nil {
		h.logger.Debug("Failed to write live stats", zap.Uint64("duelId", id), zap.Error(err))
		return true
	}
	return false
}

// readPump drains client frames so control messages are processed, and cancels on disconnect.
func (h *DuelHandler) readPump(conn *websocket.Conn, cancel context.CancelFunc) {
	defer cancel()
	conn.SetReadLimit(maxMessageSize)
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
