package restapi

import (
	"duel_portfolio/internal/app/port"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// SwapHandler serves the token list of the swap screen.
type SwapHandler struct {
	catalog port.TokenCatalog
	logger  *zap.Logger
}

// NewSwapHandler creates a SwapHandler.
func NewSwapHandler(catalog port.TokenCatalog, logger *zap.Logger) *SwapHandler {
	return &SwapHandler{catalog: catalog, logger: logger.Named("SwapHandler")}
}

// GetTokens handles GET /api/swap/tokens.
func (h *SwapHandler) GetTokens(c *gin.Context) {
	tokens, err := h.catalog.GetSupportedTokens(c.Request.Context())
	if err != nil {
		h.logger.Error("Failed to get supported tokens", zap.Error(err))
		respondError(c, statusFor(err), err)
		return
	}
	respondOK(c, tokens)
}
