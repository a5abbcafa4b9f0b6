package funding

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"bondfund/pkg/tokenmath"
)

// SetBondPriceAndInitiateMinting fixes the stablecoin-to-bond exchange rate.
// One-shot: it fails with ALREADY_PRICED forever after the first success. The
// total bond supply is authorized here; actual minting happens claim by claim.
func (s *Service) SetBondPriceAndInitiateMinting(ctx context.Context, caller string, price decimal.Decimal) (*Campaign, error) {
	if err := s.requireAdmin(caller); err != nil {
		return nil, err
	}

	if !validPositiveAmount(price) {
		return nil, errInvalidPrice()
	}

	var priced *Campaign
	if err := s.db.Transaction(func(tx *gorm.DB) error {
		campaign, err := s.lockCampaign(ctx, tx)
		if err != nil {
			return err
		}

		if campaign.BondPrice.Valid {
			return errAlreadyPriced()
		}

		if !campaign.ClosedToInvestment(now()) {
			return errCampaignStillOpen()
		}

		// totalInvested is raw stablecoin units and price is raw stablecoin
		// units per whole bond token, so the quotient needs rescaling by the
		// bond token's full decimal width
		totalBondTokens := tokenmath.TokensForAmount(campaign.TotalInvested, price, campaign.BondDecimals)

		if err := s.campaigns.WithTrx(tx).Update(ctx, campaign.ID, map[string]any{
			"bond_price":        price,
			"total_bond_tokens": totalBondTokens,
			"updated_at":        time.Now(),
		}); err != nil {
			return err
		}

		if totalBondTokens.Sign() > 0 {
			if err := s.tokens.WithTrx(tx).AuthorizeMint(ctx,
				campaign.BondSymbol,
				campaign.CustodyAddress,
				totalBondTokens,
			); err != nil {
				return err
			}
		}

		campaign.BondPrice = decimal.NewNullDecimal(price)
		campaign.TotalBondTokens = totalBondTokens
		priced = campaign

		return nil
	}); err != nil {
		return nil, err
	}

	zap.L().With(traceFields(ctx)...).Info("campaign priced",
		zap.String("caller", caller),
		zap.String("bond_price", price.String()),
		zap.String("total_bond_tokens", priced.TotalBondTokens.String()),
	)

	return priced, nil
}
