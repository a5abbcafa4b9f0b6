package funding

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"bondfund/pkg/errutil"
)

// Concurrent contributions must serialize on the campaign row: no pair of
// racing calls may jointly push total_invested past the target.
func TestConcurrentInvestRespectsTarget(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	investors := []string{"0x1", "0x2", "0x3", "0x4", "0x5"}
	for _, addr := range investors {
		f.fund(t, addr, usdc(30_000))
	}

	var g errgroup.Group
	results := make([]error, len(investors))
	for i, addr := range investors {
		i, addr := i, addr
		g.Go(func() error {
			_, err := f.svc.Invest(ctx, &InvestRequest{Address: addr, Amount: usdc(30_000)})
			results[i] = err
			return nil
		})
	}
	require.NoError(t, g.Wait())

	var accepted, rejected int
	for _, err := range results {
		if err == nil {
			accepted++
			continue
		}
		rejected++
		require.Equal(t, ReasonExceedsTarget, errutil.ReasonOf(err))
	}

	// 100k target, 30k each: exactly three fit
	require.Equal(t, 3, accepted)
	require.Equal(t, 2, rejected)

	campaign := f.campaign(t)
	require.Equal(t, usdc(90_000).String(), campaign.TotalInvested.String())
	require.True(t, campaign.TotalInvested.LessThanOrEqual(campaign.TargetAmount))
}

// Racing claims for the same investor must pay out at most once.
func TestConcurrentClaimPaysOnce(t *testing.T) {
	f := pricedFixture(t)
	ctx := context.Background()

	var g errgroup.Group
	results := make([]error, 4)
	for i := range results {
		i := i
		g.Go(func() error {
			_, err := f.svc.ClaimBondTokens(ctx, "0xX")
			results[i] = err
			return nil
		})
	}
	require.NoError(t, g.Wait())

	var succeeded int
	for _, err := range results {
		if err == nil {
			succeeded++
			continue
		}
		require.Equal(t, ReasonNothingToClaim, errutil.ReasonOf(err))
	}
	require.Equal(t, 1, succeeded)

	bal, err := f.tokens.BalanceOf(ctx, "BT", "0xX")
	require.NoError(t, err)
	require.Equal(t, "444444444444444444444", bal.String())
}
