package funding

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"bondfund/pkg/db/option"
	"bondfund/pkg/tokenmath"
)

// entitlement is computed independently per investor from their own cumulative
// amount and the fixed price, not as a share of total_bond_tokens. The summed
// rounding remainder stays unminted.
func entitlement(campaign *Campaign, investor *Investor) decimal.Decimal {
	if !campaign.BondPrice.Valid {
		return decimal.Zero
	}
	return tokenmath.TokensForAmount(investor.InvestedAmount, campaign.BondPrice.Decimal, campaign.BondDecimals)
}

// GetClaimableTokens returns the still-claimable bond amount; zero for unknown
// addresses and before pricing.
func (s *Service) GetClaimableTokens(ctx context.Context, address string) (decimal.Decimal, error) {
	campaign, err := s.getCampaign(ctx)
	if err != nil {
		return decimal.Zero, err
	}
	if !campaign.DistributionReady() {
		return decimal.Zero, nil
	}

	investor, err := s.investors.FindOne(ctx, &Investor{CampaignID: campaign.ID, Address: address})
	if err != nil {
		return decimal.Zero, err
	}
	if investor == nil {
		return decimal.Zero, nil
	}

	return entitlement(campaign, investor).Sub(investor.ClaimedBondTokens), nil
}

// ClaimBondTokens pays out the caller's full remaining entitlement in one
// call. A repeat call fails with NOTHING_TO_CLAIM instead of quietly moving
// zero, so callers can tell "already claimed" from a transient failure.
func (s *Service) ClaimBondTokens(ctx context.Context, address string) (*Claim, error) {
	if address == "" {
		return nil, errUnauthorized()
	}

	code, err := s.seq.NextClaimCode(ctx, address)
	if err != nil {
		zap.L().Error("failed to generate claim code", zap.Error(err))
		return nil, err
	}

	var claim *Claim
	if err := s.db.Transaction(func(tx *gorm.DB) error {
		campaign, err := s.lockCampaign(ctx, tx)
		if err != nil {
			return err
		}

		if !campaign.DistributionReady() {
			return errDistributionNotReady()
		}

		investor, err := s.investors.WithTrx(tx).FindOne(ctx, &Investor{
			CampaignID: campaign.ID,
			Address:    address,
		}, option.WithLockingUpdate())
		if err != nil {
			return err
		}
		if investor == nil {
			return errNothingToClaim()
		}

		owed := entitlement(campaign, investor)
		claimable := owed.Sub(investor.ClaimedBondTokens)
		if claimable.Sign() <= 0 {
			return errNothingToClaim()
		}

		if err := s.tokens.WithTrx(tx).MintTo(ctx,
			campaign.BondSymbol,
			campaign.CustodyAddress,
			address,
			claimable,
		); err != nil {
			return err
		}

		if err := s.investors.WithTrx(tx).Update(ctx, investor.ID, map[string]any{
			"claimed_bond_tokens": owed,
			"updated_at":          time.Now(),
		}); err != nil {
			return err
		}

		claim = &Claim{
			ID:         s.node.Generate().String(),
			Code:       code,
			CampaignID: campaign.ID,
			Address:    address,
			Amount:     claimable,
		}

		return s.claims.WithTrx(tx).Create(ctx, claim)
	}); err != nil {
		return nil, err
	}

	zap.L().With(traceFields(ctx)...).Info("claim paid out",
		zap.String("code", claim.Code),
		zap.String("address", claim.Address),
		zap.String("amount", claim.Amount.String()),
	)

	return claim, nil
}
