package restapi

import (
	"errors"
	"net/http"

	"duel_portfolio/internal/domain/entity"

	"github.com/gin-gonic/gin"
)

// statusFor maps domain error kinds to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, entity.ErrInvalidPath):
		return http.StatusBadRequest
	case errors.Is(err, entity.ErrPortfolioFetchFailed),
		errors.Is(err, entity.ErrLiveStatsUnavailable),
		errors.Is(err, entity.ErrUpstreamUnavailable):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func respondError(c *gin.Context, status int, err error) {
	_ = c.Error(err)
	c.AbortWithStatusJSON(status, APIResponse{Success: false, Error: err.Error()})
}

func respondOK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, APIResponse{Success: true, Data: data})
}
