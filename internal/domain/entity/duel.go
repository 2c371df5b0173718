package entity

import (
	"strings"

	"github.com/shopspring/decimal"
)

// DuelStatus mirrors the status enum of the duel contract.
type DuelStatus string

const (
	DuelStatusOpen      DuelStatus = "OPEN"
	DuelStatusActive    DuelStatus = "ACTIVE"
	DuelStatusResolved  DuelStatus = "RESOLVED"
	DuelStatusCancelled DuelStatus = "CANCELLED"
)

// DuelStatusFromCode maps the on-chain uint8 status to a DuelStatus.
func DuelStatusFromCode(code uint8) DuelStatus {
	switch code {
	case 0:
		return DuelStatusOpen
	case 1:
		return DuelStatusActive
	case 2:
		return DuelStatusResolved
	default:
		return DuelStatusCancelled
	}
}

// UnjoinedAddressPrefix marks an opponent slot nobody has taken yet.
const UnjoinedAddressPrefix = "0x000"

// DuelSnapshot is a read-only copy of a duel as reported by the contract.
// WagerAmount is a decimal string in whole token units.
type DuelSnapshot struct {
	ID           uint64
	Creator      string
	Opponent     string
	TokenAddress string
	WagerAmount  string
	Duration     int64
	StartTime    int64
	EndTime      int64
	Resolved     bool
	Winner       string
	Status       DuelStatus
}

// HasOpponent reports whether somebody joined the duel.
func (d DuelSnapshot) HasOpponent() bool {
	return d.Opponent != "" && !strings.HasPrefix(d.Opponent, UnjoinedAddressPrefix)
}

// SideStats is the live standing of one duel participant.
type SideStats struct {
	CurrentValue decimal.Decimal
	PnLPercent   decimal.Decimal
}

// LiveStats is derived on every request and never persisted.
type LiveStats struct {
	Creator          SideStats
	Opponent         SideStats
	LastUpdateMillis int64
}
