package tokenmath

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func usdc(units int64) decimal.Decimal {
	return decimal.NewFromInt(units).Mul(Pow10(6))
}

func TestTokensForAmountRescalesDecimals(t *testing.T) {
	// 100,000 USDC at 90 USDC per bond token: 1111.111... tokens, floored at
	// 18 decimal places.
	got := TokensForAmount(usdc(100_000), usdc(90), 18)

	want, err := decimal.NewFromString("1111111111111111111111")
	require.NoError(t, err)
	require.True(t, got.Equal(want), "got %s", got)
}

func TestTokensForAmountExactDivision(t *testing.T) {
	got := TokensForAmount(usdc(40_000), usdc(100), 18)
	require.True(t, got.Equal(decimal.NewFromInt(400).Mul(Pow10(18))))
}

func TestTokensForAmountFloorsRemainder(t *testing.T) {
	// 10 units / 3 at 0 decimal places floors to 3.
	got := TokensForAmount(decimal.NewFromInt(10), decimal.NewFromInt(3), 0)
	require.True(t, got.Equal(decimal.NewFromInt(3)))
}

func TestTokensForAmountZeroPrice(t *testing.T) {
	require.True(t, TokensForAmount(usdc(1), decimal.Zero, 18).IsZero())
}

func TestIsIntegral(t *testing.T) {
	require.True(t, IsIntegral(decimal.NewFromInt(42)))
	require.True(t, IsIntegral(usdc(15_000)))
	half, _ := decimal.NewFromString("0.5")
	require.False(t, IsIntegral(half))
}
