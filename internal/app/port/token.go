package port

import (
	"context"

	"duel_portfolio/internal/domain/entity"
)

// TokenCatalog lists the tokens the swap screen offers.
type TokenCatalog interface {
	GetSupportedTokens(ctx context.Context) ([]entity.TokenInfo, error)
}
