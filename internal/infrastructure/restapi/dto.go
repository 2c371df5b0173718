package restapi

import (
	"duel_portfolio/internal/domain/entity"
	"duel_portfolio/internal/pkg/utils"
)

// APIResponse is the envelope every JSON endpoint returns.
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data"`
	Error   string      `json:"error,omitempty"`
}

// ContractDTO describes a token contract inside a portfolio entry.
type ContractDTO struct {
	Address  string `json:"address"`
	Name     string `json:"name"`
	Symbol   string `json:"symbol"`
	Decimals uint8  `json:"decimals"`
}

// TokenDTO is one valued holding.
type TokenDTO struct {
	Contract   ContractDTO `json:"contract"`
	RawBalance string      `json:"raw_balance"`
	Balance    string      `json:"balance"`
	ValueUSD   float64     `json:"value_usd"`
}

// PortfolioDTO is the wire form of entity.Portfolio.
type PortfolioDTO struct {
	Address    string     `json:"address"`
	TotalValue float64    `json:"totalValue"`
	Tokens     []TokenDTO `json:"tokens"`
	Timestamp  int64      `json:"timestamp"`
}

// SideDTO is the wire form of entity.SideStats.
type SideDTO struct {
	CurrentValue float64 `json:"currentValue"`
	PnLPercent   float64 `json:"pnlPercent"`
}

// LiveStatsDTO is the wire form of entity.LiveStats.
type LiveStatsDTO struct {
	Creator    SideDTO `json:"creator"`
	Opponent   SideDTO `json:"opponent"`
	LastUpdate int64   `json:"lastUpdate"`
}

func newPortfolioDTO(p entity.Portfolio) PortfolioDTO {
	tokens := make([]TokenDTO, 0, len(p.Tokens))
	for _, t := range p.Tokens {
		raw := "0"
		if t.RawBalance != nil {
			raw = t.RawBalance.String()
		}
		tokens = append(tokens, TokenDTO{
			Contract: ContractDTO{
				Address:  t.ContractAddress,
				Name:     t.Name,
				Symbol:   t.Symbol,
				Decimals: t.Decimals,
			},
			RawBalance: raw,
			Balance:    utils.FormatBigInt(t.RawBalance, t.Decimals),
			ValueUSD:   t.ValueUSD.InexactFloat64(),
		})
	}
	return PortfolioDTO{
		Address:    p.Address,
		TotalValue: p.TotalValue.InexactFloat64(),
		Tokens:     tokens,
		Timestamp:  p.Timestamp,
	}
}

func newSideDTO(s entity.SideStats) SideDTO {
	return SideDTO{
		CurrentValue: s.CurrentValue.InexactFloat64(),
		PnLPercent:   s.PnLPercent.InexactFloat64(),
	}
}

// newLiveStatsDTO returns nil for nil stats so the envelope carries a JSON null.
func newLiveStatsDTO(s *entity.LiveStats) *LiveStatsDTO {
	if s == nil {
		return nil
	}
	return &LiveStatsDTO{
		Creator:    newSideDTO(s.Creator),
		Opponent:   newSideDTO(s.Opponent),
		LastUpdate: s.LastUpdateMillis,
	}
}
