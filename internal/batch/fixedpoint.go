package batch

import (
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"
)

// NativeDecimals is the decimal count of the chain's native currency.
const NativeDecimals = 18

// ToFixedPoint converts a decimal token amount to an integer count of the
// token's smallest unit. It fails if the amount has more fractional digits
// than the token supports: truncating money silently is never acceptable.
func ToFixedPoint(amount decimal.Decimal, decimals int) (*big.Int, error) {
	if decimals < 0 {
		return nil, fmt.Errorf("negative decimals: %d", decimals)
	}
	scaled := amount.Shift(int32(decimals))
	if !scaled.IsInteger() {
		return nil, fmt.Errorf("amount %s has more than %d decimal places", amount, decimals)
	}
	return scaled.BigInt(), nil
}
