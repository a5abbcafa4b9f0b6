package funding

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// Campaign is the singleton funding state. Amount columns are raw stablecoin
// base units (6 decimals by convention); bond token columns are raw 18-decimal
// units. All amount columns are varchar(78) decimal strings, see token models.
type Campaign struct {
	ID               string `gorm:"column:id;primaryKey"`
	Name             string `gorm:"column:name;type:varchar(128);not null"`
	StablecoinSymbol string `gorm:"column:stablecoin_symbol;type:varchar(16);not null"`
	BondSymbol       string `gorm:"column:bond_symbol;type:varchar(16);not null"`
	BondDecimals     int32  `gorm:"column:bond_decimals;not null"`
	CustodyAddress   string `gorm:"column:custody_address;not null"`

	MinimumInvestment decimal.Decimal `gorm:"column:minimum_investment;type:varchar(78);not null"`
	TargetAmount      decimal.Decimal `gorm:"column:target_amount;type:varchar(78);not null"`
	WhaleThreshold    decimal.Decimal `gorm:"column:whale_threshold;type:varchar(78);not null"`
	FundingDeadline   time.Time       `gorm:"column:funding_deadline;not null"`
	OGWindow          uint64          `gorm:"column:og_window;not null"`

	TotalInvested decimal.Decimal `gorm:"column:total_invested;type:varchar(78);not null"`
	// NextInvestmentOrder is the counter behind first-come investor ordering.
	// It only moves under the campaign row lock, so order assignment is
	// serialized with the rest of the contribution.
	NextInvestmentOrder uint64 `gorm:"column:next_investment_order;not null"`

	BondPrice       decimal.NullDecimal `gorm:"column:bond_price;type:varchar(78)"`
	TotalBondTokens decimal.Decimal     `gorm:"column:total_bond_tokens;type:varchar(78);not null"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// Open reports whether the campaign still accepts contributions.
func (c *Campaign) Open(now time.Time) bool {
	return !c.BondPrice.Valid &&
		now.Before(c.FundingDeadline) &&
		c.TotalInvested.LessThan(c.TargetAmount)
}

// ClosedToInvestment reports whether either closing condition holds, which is
// the precondition for pricing.
func (c *Campaign) ClosedToInvestment(now time.Time) bool {
	return !now.Before(c.FundingDeadline) || c.TotalInvested.GreaterThanOrEqual(c.TargetAmount)
}

func (c *Campaign) DistributionReady() bool {
	return c.BondPrice.Valid
}

// Investor rows are created lazily on the first accepted contribution and are
// append-only; invested_amount and claimed_bond_tokens only ever grow.
type Investor struct {
	ID                string          `gorm:"column:id;primaryKey"`
	CampaignID        string          `gorm:"column:campaign_id;uniqueIndex:idx_campaign_investor;not null"`
	Address           string          `gorm:"column:address;uniqueIndex:idx_campaign_investor;not null"`
	InvestedAmount    decimal.Decimal `gorm:"column:invested_amount;type:varchar(78);not null"`
	InvestmentOrder   uint64          `gorm:"column:investment_order;not null"`
	ClaimedBondTokens decimal.Decimal `gorm:"column:claimed_bond_tokens;type:varchar(78);not null"`
	CreatedAt         time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

type Tier string

const (
	TierOG    Tier = "OG"
	TierWhale Tier = "WHALE"
)

// TierBadge is set membership, not a transferable asset. The unique index
// makes double-minting a constraint violation on top of the idempotence check.
type TierBadge struct {
	ID         string    `gorm:"column:id;primaryKey"`
	CampaignID string    `gorm:"column:campaign_id;uniqueIndex:idx_badge_holder;not null"`
	Address    string    `gorm:"column:address;uniqueIndex:idx_badge_holder;not null"`
	Tier       Tier      `gorm:"column:tier;type:varchar(16);uniqueIndex:idx_badge_holder;not null"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
}

// Contribution is the append-only record of every accepted deposit.
type Contribution struct {
	ID              string          `gorm:"column:id;primaryKey"`
	Code            string          `gorm:"column:code;uniqueIndex;not null"`
	CampaignID      string          `gorm:"column:campaign_id;index;not null"`
	Address         string          `gorm:"column:address;index;not null"`
	Amount          decimal.Decimal `gorm:"column:amount;type:varchar(78);not null"`
	InvestmentOrder uint64          `gorm:"column:investment_order;not null"`
	Metadata        datatypes.JSON  `gorm:"column:metadata"`
	CreatedAt       time.Time       `gorm:"column:created_at;autoCreateTime"`
}

// Claim records a completed bond token payout.
type Claim struct {
	ID         string          `gorm:"column:id;primaryKey"`
	Code       string          `gorm:"column:code;uniqueIndex;not null"`
	CampaignID string          `gorm:"column:campaign_id;index;not null"`
	Address    string          `gorm:"column:address;index;not null"`
	Amount     decimal.Decimal `gorm:"column:amount;type:varchar(78);not null"`
	CreatedAt  time.Time       `gorm:"column:created_at;autoCreateTime"`
}
