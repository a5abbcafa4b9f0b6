package funding

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"bondfund/pkg/errutil"
)

func TestPricingComputesTotalBondTokens(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.fund(t, "0xX", usdc(100_000))
	f.invest(t, "0xX", usdc(100_000)) // target reached, campaign closed

	campaign, err := f.svc.SetBondPriceAndInitiateMinting(ctx, admin, usdc(90))
	require.NoError(t, err)

	// 100,000 USDC at 90 USDC per bond token, rescaled to 18 decimals and
	// floored: 1111.111... BT
	require.Equal(t, "1111111111111111111111", campaign.TotalBondTokens.String())
	require.True(t, campaign.BondPrice.Valid)
	require.Equal(t, usdc(90).String(), campaign.BondPrice.Decimal.String())

	summary, err := f.svc.GetCampaignSummary(ctx)
	require.NoError(t, err)
	require.True(t, summary.DistributionReady)
	require.False(t, summary.Open)
}

func TestPricingIsOneShot(t *testing.T) {
	f := newFixture(t, func(c *Campaign) {
		c.FundingDeadline = time.Now().Add(-time.Hour)
	})
	ctx := context.Background()

	_, err := f.svc.SetBondPriceAndInitiateMinting(ctx, admin, usdc(90))
	require.NoError(t, err)

	_, err = f.svc.SetBondPriceAndInitiateMinting(ctx, admin, usdc(80))
	require.Error(t, err)
	require.Equal(t, ReasonAlreadyPriced, errutil.ReasonOf(err))

	// price is immutable after the failed second attempt
	require.Equal(t, usdc(90).String(), f.campaign(t).BondPrice.Decimal.String())
}

func TestPricingRequiresAdminRole(t *testing.T) {
	f := newFixture(t, func(c *Campaign) {
		c.FundingDeadline = time.Now().Add(-time.Hour)
	})

	_, err := f.svc.SetBondPriceAndInitiateMinting(context.Background(), "0xrandom", usdc(90))
	require.Error(t, err)
	require.Equal(t, ReasonUnauthorized, errutil.ReasonOf(err))
}

func TestPricingRejectsInvalidPrice(t *testing.T) {
	f := newFixture(t, func(c *Campaign) {
		c.FundingDeadline = time.Now().Add(-time.Hour)
	})

	for _, price := range []string{"0", "-90", "0.5"} {
		v, err := decimal.NewFromString(price)
		require.NoError(t, err)

		_, err = f.svc.SetBondPriceAndInitiateMinting(context.Background(), admin, v)
		require.Error(t, err, price)
		require.Equal(t, ReasonInvalidPrice, errutil.ReasonOf(err), price)
	}
}

func TestPricingWhileStillOpen(t *testing.T) {
	f := newFixture(t)

	f.fund(t, "0xX", usdc(1_000))
	f.invest(t, "0xX", usdc(1_000))

	_, err := f.svc.SetBondPriceAndInitiateMinting(context.Background(), admin, usdc(90))
	require.Error(t, err)
	require.Equal(t, ReasonCampaignStillOpen, errutil.ReasonOf(err))
}

func TestInvestAfterPricing(t *testing.T) {
	f := newFixture(t, func(c *Campaign) {
		c.FundingDeadline = time.Now().Add(-time.Hour)
	})

	_, err := f.svc.SetBondPriceAndInitiateMinting(context.Background(), admin, usdc(90))
	require.NoError(t, err)

	f.fund(t, "0xlate", usdc(100))
	_, err = f.svc.Invest(context.Background(), &InvestRequest{Address: "0xlate", Amount: usdc(100)})
	require.Error(t, err)
	require.Equal(t, ReasonCampaignClosed, errutil.ReasonOf(err))
}
