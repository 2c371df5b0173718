package entity

import "github.com/shopspring/decimal"

// Portfolio is the valuation of a single wallet at a point in time.
// TotalValue covers every valued token, including the zero-valued ones left out of Tokens.
type Portfolio struct {
	Address    string          `json:"address"`
	TotalValue decimal.Decimal `json:"totalValue"`
	Tokens     []ValuedToken   `json:"tokens"`
	Timestamp  int64           `json:"timestamp"` // unix seconds
}

// CacheEntry is a stored portfolio together with the moment it was fetched.
type CacheEntry struct {
	Data            Portfolio `json:"data"`
	FetchedAtMillis int64     `json:"fetchedAtMillis"`
}
