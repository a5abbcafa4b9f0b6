package funding

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"bondfund/pkg/config"
	"bondfund/pkg/rbac"
	"bondfund/services/token"
)

// Bootstrap migrates the schema and seeds the singleton campaign from
// configuration on first start. Reruns are no-ops: an existing campaign row is
// never rewritten.
func (s *Service) Bootstrap(ctx context.Context, cfg *config.Config) error {
	if err := s.db.WithContext(ctx).AutoMigrate(
		&token.Token{}, &token.Balance{}, &token.Allowance{},
		&token.Transfer{}, &token.MintAuthorization{},
		&Campaign{}, &Investor{}, &TierBadge{}, &Contribution{}, &Claim{},
	); err != nil {
		return fmt.Errorf("migrate schema: %w", err)
	}

	c := cfg.Campaign
	if c.Name == "" || c.AdminAddress == "" || c.CustodyAddress == "" {
		return fmt.Errorf("campaign configuration is incomplete")
	}

	if err := s.tokens.EnsureToken(ctx, c.StablecoinSymbol, c.StablecoinSymbol, c.StablecoinDecimals); err != nil {
		return fmt.Errorf("ensure stablecoin: %w", err)
	}
	if err := s.tokens.EnsureToken(ctx, c.BondSymbol, c.Name, c.BondDecimals); err != nil {
		return fmt.Errorf("ensure bond token: %w", err)
	}

	hasAdmin, err := s.roles.HasRole(c.AdminAddress, rbac.RoleCampaignAdmin)
	if err != nil {
		return fmt.Errorf("check admin role: %w", err)
	}
	if !hasAdmin {
		if err := s.roles.GrantRole(c.AdminAddress, rbac.RoleCampaignAdmin); err != nil {
			return fmt.Errorf("grant admin role: %w", err)
		}
	}

	// custody mints the bond token during claims
	minterRole := rbac.MinterRole(c.BondSymbol)
	hasMinter, err := s.roles.HasRole(c.CustodyAddress, minterRole)
	if err != nil {
		return fmt.Errorf("check minter role: %w", err)
	}
	if !hasMinter {
		if err := s.roles.GrantRole(c.CustodyAddress, minterRole); err != nil {
			return fmt.Errorf("grant minter role: %w", err)
		}
	}

	existing, err := s.campaigns.FindOne(ctx, &Campaign{})
	if err != nil {
		return err
	}
	if existing != nil {
		zap.L().Info("campaign already bootstrapped", zap.String("name", existing.Name))
		return nil
	}

	minimum, err := decimal.NewFromString(c.MinimumInvestment)
	if err != nil {
		return fmt.Errorf("parse minimum investment: %w", err)
	}
	target, err := decimal.NewFromString(c.TargetAmount)
	if err != nil {
		return fmt.Errorf("parse target amount: %w", err)
	}
	whale, err := decimal.NewFromString(c.WhaleThreshold)
	if err != nil {
		return fmt.Errorf("parse whale threshold: %w", err)
	}

	campaign := &Campaign{
		ID:                s.node.Generate().String(),
		Name:              c.Name,
		StablecoinSymbol:  c.StablecoinSymbol,
		BondSymbol:        c.BondSymbol,
		BondDecimals:      c.BondDecimals,
		CustodyAddress:    c.CustodyAddress,
		MinimumInvestment: minimum,
		TargetAmount:      target,
		WhaleThreshold:    whale,
		FundingDeadline:   c.FundingDeadline,
		OGWindow:          c.OGWindow,
		TotalInvested:     decimal.Zero,
		TotalBondTokens:   decimal.Zero,
	}

	if err := s.campaigns.Create(ctx, campaign); err != nil {
		return fmt.Errorf("create campaign: %w", err)
	}

	zap.L().Info("campaign bootstrapped",
		zap.String("name", campaign.Name),
		zap.String("target_amount", campaign.TargetAmount.String()),
		zap.Time("funding_deadline", campaign.FundingDeadline),
	)

	return nil
}
