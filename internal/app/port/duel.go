package port

import (
	"context"

	"duel_portfolio/internal/domain/entity"
)

// DuelLookup reads duel state. A nil snapshot with a nil error means the duel does not exist.
type DuelLookup interface {
	GetDuel(ctx context.Context, duelID uint64) (*entity.DuelSnapshot, error)
}

// LiveStatsProvider reports the live standing of a duel. A nil result means no stats apply.
type LiveStatsProvider interface {
	GetLiveStats(ctx context.Context, duelID uint64) (*entity.LiveStats, error)
}
