package restapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"duel_portfolio/internal/app/service"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

// CacheAdmin is the administrative surface of the portfolio cache.
type CacheAdmin interface {
	Clear(ctx context.Context) error
	Stats(ctx context.Context) service.CacheStats
}

// CatalogInvalidator drops a cached token catalog so the next read refetches it.
type CatalogInvalidator interface {
	Invalidate()
}

// AdminHandler serves cache administration.
type AdminHandler struct {
	cache   CacheAdmin
	catalog CatalogInvalidator
	logger  *zap.Logger
}

// NewAdminHandler creates an AdminHandler. catalog may be nil.
func NewAdminHandler(cache CacheAdmin, catalog CatalogInvalidator, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{cache: cache, catalog: catalog, logger: logger.Named("AdminHandler")}
}

// ClearCache handles DELETE /api/admin/cache.
func (h *AdminHandler) ClearCache(c *gin.Context) {
	if err := h.cache.Clear(c.Request.Context()); err != nil {
		h.logger.Error("Failed to clear portfolio cache", zap.Error(err))
		respondError(c, http.StatusInternalServerError, err)
		return
	}
	if h.catalog != nil {
		h.catalog.Invalidate()
	}
	h.logger.Info("Portfolio cache cleared by admin", zap.String("subject", c.GetString(ctxKeySubject)))
	respondOK(c, gin.H{"cleared": true})
}

// CacheStats handles GET /api/admin/cache/stats.
func (h *AdminHandler) CacheStats(c *gin.Context) {
	respondOK(c, h.cache.Stats(c.Request.Context()))
}

const ctxKeySubject = "adminSubject"

var errMissingToken = errors.New("missing bearer token")

// JWTAuthMiddleware accepts only requests carrying an HS256 token signed with secret.
func JWTAuthMiddleware(secret []byte) gin.HandlerFunc {
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		raw, found := strings.CutPrefix(header, "Bearer ")
		if !found || raw == "" {
			respondError(c, http.StatusUnauthorized, errMissingToken)
			return
		}

		token, err := parser.Parse(raw, func(t *jwt.Token) (interface{}, error) {
			return secret, nil
		})
		if err != nil {
			respondError(c, http.StatusUnauthorized, fmt.Errorf("invalid token: %w", err))
			return
		}
		if !token.Valid {
			respondError(c, http.StatusUnauthorized, errors.New("invalid token"))
			return
		}
		if sub, err := token.Claims.GetSubject(); err == nil {
			c.Set(ctxKeySubject, sub)
		}
		c.Next()
	}
}
