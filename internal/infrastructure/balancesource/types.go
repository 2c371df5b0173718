package balancesource

import (
	"bytes"
	"strconv"
)

// balanceResponse is the body of GET /address/{address}/balance/erc20.
type balanceResponse struct {
	ERC20TokenBalances []erc20Balance `json:"erc20TokenBalances"`
}

type erc20Balance struct {
	Contract   contractInfo `json:"contract"`
	Balance    flexString   `json:"balance"`
	RawBalance flexString   `json:"raw_balance"`
}

type contractInfo struct {
	Address  string     `json:"address"`
	Name     string     `json:"name"`
	Symbol   string     `json:"symbol"`
	Decimals flexString `json:"decimals"`
}

// flexString accepts a JSON string, number or null and keeps the literal text.
// The indexer is not consistent about quoting large integers.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if data[0] == '"' {
		s, err := strconv.Unquote(string(data))
		if err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	*f = flexString(data)
	return nil
}
