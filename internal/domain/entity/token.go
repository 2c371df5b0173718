package entity

import (
	"math/big"

	"github.com/shopspring/decimal"
)

// DefaultTokenDecimals is used when the indexer does not report decimals for a contract.
const DefaultTokenDecimals uint8 = 18

// TokenInfo holds the details of a token listed by the explorer catalog.
type TokenInfo struct {
	Address  string `json:"address"`
	Name     string `json:"name"`
	Symbol   string `json:"symbol"`
	Decimals string `json:"decimals"`
	Type     string `json:"type"`
	IconURL  string `json:"icon_url,omitempty"`
}

// TokenBalance is one ERC-20 holding discovered for a wallet.
// RawBalance is expressed in the token's smallest unit and is never mutated after fetch.
type TokenBalance struct {
	ContractAddress string
	Symbol          string
	Name            string
	Decimals        uint8
	RawBalance      *big.Int
}

// ValuedToken is a TokenBalance priced in the reference stablecoin.
type ValuedToken struct {
	TokenBalance
	ValueUSD decimal.Decimal
}
