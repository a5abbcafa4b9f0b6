package funding

import (
	"context"
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"bondfund/pkg/db/option"
)

type InvestRequest struct {
	Address string
	Amount  decimal.Decimal
}

type contributionMetadata struct {
	NewInvestor   bool     `json:"new_investor"`
	BadgesAwarded []string `json:"badges_awarded,omitempty"`
}

// Invest accepts a stablecoin deposit. The whole flow runs in one transaction
// under the campaign row lock: the custody pull, the investor upsert, the
// order assignment, tier badges and the contribution record commit together or
// not at all.
func (s *Service) Invest(ctx context.Context, req *InvestRequest) (*Contribution, error) {
	if req.Address == "" {
		return nil, errUnauthorized()
	}
	if !validPositiveAmount(req.Amount) {
		return nil, errInvalidAmount()
	}

	code, err := s.seq.NextContributionCode(ctx, req.Address)
	if err != nil {
		zap.L().Error("failed to generate contribution code", zap.Error(err))
		return nil, err
	}

	var contribution *Contribution
	if err := s.db.Transaction(func(tx *gorm.DB) error {
		campaign, err := s.lockCampaign(ctx, tx)
		if err != nil {
			return err
		}

		if !campaign.Open(now()) {
			return errCampaignClosed()
		}

		if campaign.TotalInvested.Add(req.Amount).GreaterThan(campaign.TargetAmount) {
			return errExceedsTarget()
		}

		investorTx := s.investors.WithTrx(tx)
		investor, err := investorTx.FindOne(ctx, &Investor{
			CampaignID: campaign.ID,
			Address:    req.Address,
		}, option.WithLockingUpdate())
		if err != nil {
			return err
		}

		newInvestor := investor == nil
		if newInvestor && req.Amount.LessThan(campaign.MinimumInvestment) {
			return errBelowMinimum()
		}

		// pull the stablecoin before committing any ledger state; a failed
		// pull must leave nothing behind
		if err := s.tokens.WithTrx(tx).TransferFrom(ctx,
			campaign.StablecoinSymbol,
			campaign.CustodyAddress,
			req.Address,
			campaign.CustodyAddress,
			req.Amount,
		); err != nil {
			return errTransferFailed(err)
		}

		if newInvestor {
			investor = &Investor{
				ID:                s.node.Generate().String(),
				CampaignID:        campaign.ID,
				Address:           req.Address,
				InvestedAmount:    req.Amount,
				InvestmentOrder:   campaign.NextInvestmentOrder + 1,
				ClaimedBondTokens: decimal.Zero,
			}
			if err := investorTx.Create(ctx, investor); err != nil {
				return err
			}
		} else {
			investor.InvestedAmount = investor.InvestedAmount.Add(req.Amount)
			if err := investorTx.Update(ctx, investor.ID, map[string]any{
				"invested_amount": investor.InvestedAmount,
				"updated_at":      time.Now(),
			}); err != nil {
				return err
			}
		}

		campaignUpdate := map[string]any{
			"total_invested": campaign.TotalInvested.Add(req.Amount),
			"updated_at":     time.Now(),
		}
		if newInvestor {
			campaignUpdate["next_investment_order"] = investor.InvestmentOrder
		}
		if err := s.campaigns.WithTrx(tx).Update(ctx, campaign.ID, campaignUpdate); err != nil {
			return err
		}

		awarded, err := s.assignTiers(ctx, tx, campaign, investor)
		if err != nil {
			return err
		}

		meta, _ := json.Marshal(contributionMetadata{
			NewInvestor:   newInvestor,
			BadgesAwarded: awarded,
		})

		contribution = &Contribution{
			ID:              s.node.Generate().String(),
			Code:            code,
			CampaignID:      campaign.ID,
			Address:         req.Address,
			Amount:          req.Amount,
			InvestmentOrder: investor.InvestmentOrder,
			Metadata:        datatypes.JSON(meta),
		}

		return s.contributions.WithTrx(tx).Create(ctx, contribution)
	}); err != nil {
		return nil, err
	}

	zap.L().With(traceFields(ctx)...).Info("contribution accepted",
		zap.String("code", contribution.Code),
		zap.String("address", contribution.Address),
		zap.String("amount", contribution.Amount.String()),
		zap.Uint64("order", contribution.InvestmentOrder),
	)

	return contribution, nil
}

// assignTiers awards OG and Whale badges inside the contribution transaction.
// OG depends only on investment order, Whale only on cumulative amount; both
// are minted at most once per investor.
func (s *Service) assignTiers(ctx context.Context, tx *gorm.DB, campaign *Campaign, investor *Investor) ([]string, error) {
	var awarded []string

	if investor.InvestmentOrder <= campaign.OGWindow {
		minted, err := s.mintBadge(ctx, tx, campaign.ID, investor.Address, TierOG)
		if err != nil {
			return nil, err
		}
		if minted {
			awarded = append(awarded, string(TierOG))
		}
	}

	if investor.InvestedAmount.GreaterThanOrEqual(campaign.WhaleThreshold) {
		minted, err := s.mintBadge(ctx, tx, campaign.ID, investor.Address, TierWhale)
		if err != nil {
			return nil, err
		}
		if minted {
			awarded = append(awarded, string(TierWhale))
		}
	}

	return awarded, nil
}

func (s *Service) mintBadge(ctx context.Context, tx *gorm.DB, campaignID, address string, tier Tier) (bool, error) {
	badgeTx := s.badges.WithTrx(tx)

	existing, err := badgeTx.FindOne(ctx, &TierBadge{
		CampaignID: campaignID,
		Address:    address,
		Tier:       tier,
	})
	if err != nil {
		return false, err
	}
	if existing != nil {
		return false, nil
	}

	if err := badgeTx.Create(ctx, &TierBadge{
		ID:         s.node.Generate().String(),
		CampaignID: campaignID,
		Address:    address,
		Tier:       tier,
	}); err != nil {
		return false, err
	}

	return true, nil
}
