package funding

import (
	"context"

	"bondfund/pkg/db/option"
	"bondfund/pkg/db/pagination"
)

type CampaignSummary struct {
	Name              string `json:"name"`
	StablecoinSymbol  string `json:"stablecoin_symbol"`
	BondSymbol        string `json:"bond_symbol"`
	MinimumInvestment string `json:"minimum_investment"`
	TargetAmount      string `json:"target_amount"`
	TotalInvested     string `json:"total_invested"`
	FundingDeadline   string `json:"funding_deadline"`
	WhaleThreshold    string `json:"whale_threshold"`
	OGWindow          uint64 `json:"og_window"`
	Open              bool   `json:"open"`
	DistributionReady bool   `json:"distribution_ready"`
	BondPrice         string `json:"bond_price,omitempty"`
	TotalBondTokens   string `json:"total_bond_tokens,omitempty"`
	InvestorCount     int64  `json:"investor_count"`
}

func (s *Service) GetCampaignSummary(ctx context.Context) (*CampaignSummary, error) {
	campaign, err := s.getCampaign(ctx)
	if err != nil {
		return nil, err
	}

	count, err := s.investors.Count(ctx, &Investor{CampaignID: campaign.ID})
	if err != nil {
		return nil, err
	}

	summary := &CampaignSummary{
		Name:              campaign.Name,
		StablecoinSymbol:  campaign.StablecoinSymbol,
		BondSymbol:        campaign.BondSymbol,
		MinimumInvestment: campaign.MinimumInvestment.String(),
		TargetAmount:      campaign.TargetAmount.String(),
		TotalInvested:     campaign.TotalInvested.String(),
		FundingDeadline:   campaign.FundingDeadline.UTC().Format("2006-01-02T15:04:05Z07:00"),
		WhaleThreshold:    campaign.WhaleThreshold.String(),
		OGWindow:          campaign.OGWindow,
		Open:              campaign.Open(now()),
		DistributionReady: campaign.DistributionReady(),
		InvestorCount:     count,
	}

	if campaign.BondPrice.Valid {
		summary.BondPrice = campaign.BondPrice.Decimal.String()
		summary.TotalBondTokens = campaign.TotalBondTokens.String()
	}

	return summary, nil
}

type InvestorDetail struct {
	Address           string   `json:"address"`
	InvestedAmount    string   `json:"invested_amount"`
	InvestmentOrder   uint64   `json:"investment_order"`
	ClaimedBondTokens string   `json:"claimed_bond_tokens"`
	ClaimableTokens   string   `json:"claimable_tokens"`
	Badges            []string `json:"badges"`
}

// GetInvestorDetail resolves an address to its ledger view. Unknown addresses
// come back as an all-zero detail rather than an error.
func (s *Service) GetInvestorDetail(ctx context.Context, address string) (*InvestorDetail, error) {
	campaign, err := s.getCampaign(ctx)
	if err != nil {
		return nil, err
	}

	detail := &InvestorDetail{
		Address:           address,
		InvestedAmount:    "0",
		ClaimedBondTokens: "0",
		ClaimableTokens:   "0",
		Badges:            []string{},
	}

	investor, err := s.investors.FindOne(ctx, &Investor{CampaignID: campaign.ID, Address: address})
	if err != nil {
		return nil, err
	}
	if investor == nil {
		return detail, nil
	}

	detail.InvestedAmount = investor.InvestedAmount.String()
	detail.InvestmentOrder = investor.InvestmentOrder
	detail.ClaimedBondTokens = investor.ClaimedBondTokens.String()
	if campaign.DistributionReady() {
		detail.ClaimableTokens = entitlement(campaign, investor).Sub(investor.ClaimedBondTokens).String()
	}

	badges, err := s.badges.Find(ctx, &TierBadge{CampaignID: campaign.ID, Address: address})
	if err != nil {
		return nil, err
	}
	for _, b := range badges {
		detail.Badges = append(detail.Badges, string(b.Tier))
	}

	return detail, nil
}

type InvestorPage struct {
	Investors []*InvestorDetail    `json:"investors"`
	PageInfo  *pagination.PageInfo `json:"page_info"`
}

// ListInvestors pages through investor records in investment order.
func (s *Service) ListInvestors(ctx context.Context, page pagination.Pagination) (*InvestorPage, error) {
	campaign, err := s.getCampaign(ctx)
	if err != nil {
		return nil, err
	}

	if page.Limit <= 0 {
		page.Limit = 10
	}

	opts := []option.QueryOption{
		option.WithSortBy(option.QuerySortBy{
			SortBy:  "investment_order",
			OrderBy: "asc",
			Allow:   map[string]bool{"investment_order": true},
		}),
		option.WithLimit(page.Limit + 1),
	}

	if page.Cursor != "" {
		cursor, err := pagination.DecodeCursor(page.Cursor)
		if err != nil {
			return nil, err
		}
		opts = append(opts, option.ApplyOperator(option.Condition{
			Field:    "id",
			Operator: option.GT,
			Value:    cursor.ID,
		}))
	}

	investors, err := s.investors.Find(ctx, &Investor{CampaignID: campaign.ID}, opts...)
	if err != nil {
		return nil, err
	}

	pageInfo := pagination.BuildCursorPageInfo(investors, int32(page.Limit), func(inv *Investor) string {
		cursor, _ := pagination.EncodeCursor(pagination.Cursor{ID: inv.ID})
		return cursor
	})

	if len(investors) > page.Limit {
		investors = investors[:page.Limit]
	}

	details := make([]*InvestorDetail, 0, len(investors))
	for _, inv := range investors {
		details = append(details, &InvestorDetail{
			Address:           inv.Address,
			InvestedAmount:    inv.InvestedAmount.String(),
			InvestmentOrder:   inv.InvestmentOrder,
			ClaimedBondTokens: inv.ClaimedBondTokens.String(),
			ClaimableTokens:   "0",
			Badges:            []string{},
		})
	}

	return &InvestorPage{Investors: details, PageInfo: pageInfo}, nil
}

// InvestorCount is the number of distinct addresses with at least one accepted
// contribution.
func (s *Service) InvestorCount(ctx context.Context) (int64, error) {
	campaign, err := s.getCampaign(ctx)
	if err != nil {
		return 0, err
	}
	return s.investors.Count(ctx, &Investor{CampaignID: campaign.ID})
}

// BadgesOf returns the tier badges held by an address.
func (s *Service) BadgesOf(ctx context.Context, address string) ([]Tier, error) {
	campaign, err := s.getCampaign(ctx)
	if err != nil {
		return nil, err
	}

	badges, err := s.badges.Find(ctx, &TierBadge{CampaignID: campaign.ID, Address: address})
	if err != nil {
		return nil, err
	}

	tiers := make([]Tier, 0, len(badges))
	for _, b := range badges {
		tiers = append(tiers, b.Tier)
	}
	return tiers, nil
}
