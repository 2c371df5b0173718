package utils

import (
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// SameAddress compares two addresses case-insensitively.
func SameAddress(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

// IsHexAddress reports whether s is a 20-byte hex address with 0x prefix.
func IsHexAddress(s string) bool {
	return strings.HasPrefix(s, "0x") && common.IsHexAddress(s)
}
