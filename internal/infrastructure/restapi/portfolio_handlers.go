package restapi

import (
	"fmt"
	"net/http"

	"duel_portfolio/internal/app/port"
	"duel_portfolio/internal/pkg/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// PortfolioHandler serves wallet valuations.
type PortfolioHandler struct {
	portfolios port.PortfolioProvider
	logger     *zap.Logger
}

// NewPortfolioHandler creates a PortfolioHandler. portfolios is normally the PortfolioCache.
func NewPortfolioHandler(portfolios port.PortfolioProvider, logger *zap.Logger) *PortfolioHandler {
	return &PortfolioHandler{portfolios: portfolios, logger: logger.Named("PortfolioHandler")}
}

// GetPortfolio handles GET /api/portfolio/:address.
func (h *PortfolioHandler) GetPortfolio(c *gin.Context) {
	address := c.Param("address")
	if !utils.IsHexAddress(address) {
		respondError(c, http.StatusBadRequest, fmt.Errorf("invalid address %q", address))
		return
	}

	portfolio, err := h.portfolios.GetPortfolio(c.Request.Context(), address)
	if err != nil {
		h.logger.Error("Failed to get portfolio", zap.String("address", address), zap.Error(err))
		respondError(c, statusFor(err), err)
		return
	}
	respondOK(c, newPortfolioDTO(portfolio))
}
