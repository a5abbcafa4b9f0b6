package tokenmath

import "github.com/shopspring/decimal"

// All ledger amounts are fixed-point integers: raw base units of a token with
// a known decimal-place count (stablecoin 6, bond token 18). Cross-token
// conversions must rescale by the decimal difference before dividing, and the
// division floors so no fractional base unit is ever created.

// Pow10 returns 10^n as a decimal.
func Pow10(n int32) decimal.Decimal {
	return decimal.New(1, n)
}

// TokensForAmount converts a stablecoin amount into bond token base units at
// the given price. Both amount and price are raw stablecoin units; the result
// is raw units of a token with tokenDecimals places:
//
//	tokens = amount * 10^tokenDecimals / price  (floored)
//
// The stablecoin scale cancels out of the division, so only the target scale
// appears. The remainder is dropped, never allocated.
func TokensForAmount(amount, price decimal.Decimal, tokenDecimals int32) decimal.Decimal {
	if price.Sign() <= 0 {
		return decimal.Zero
	}
	q, _ := amount.Mul(Pow10(tokenDecimals)).QuoRem(price, 0)
	return q
}

// IsIntegral reports whether d is a whole number of base units.
func IsIntegral(d decimal.Decimal) bool {
	return d.Equal(d.Truncate(0))
}
