package funding

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"go.uber.org/fx"
	"gorm.io/gorm"

	"bondfund/pkg/db/option"
	"bondfund/pkg/rbac"
	"bondfund/pkg/repository"
	"bondfund/pkg/sequence"
	"bondfund/services/token"
)

// TokenLedger is the slice of the token ledger the campaign consumes: custody
// pulls of stablecoin and claim-driven bond minting. It never redefines token
// semantics.
type TokenLedger interface {
	WithTrx(tx *gorm.DB) TokenLedger
	EnsureToken(ctx context.Context, symbol, name string, decimals int32) error
	TransferFrom(ctx context.Context, symbol, spender, from, to string, amount decimal.Decimal) error
	MintTo(ctx context.Context, symbol, minter, to string, amount decimal.Decimal) error
	AuthorizeMint(ctx context.Context, symbol, minter string, amount decimal.Decimal) error
	BalanceOf(ctx context.Context, symbol, address string) (decimal.Decimal, error)
}

type tokenLedger struct {
	svc *token.Service
}

func NewTokenLedger(svc *token.Service) TokenLedger {
	return tokenLedger{svc: svc}
}

func (l tokenLedger) WithTrx(tx *gorm.DB) TokenLedger {
	return tokenLedger{svc: l.svc.WithTrx(tx)}
}

func (l tokenLedger) EnsureToken(ctx context.Context, symbol, name string, decimals int32) error {
	return l.svc.EnsureToken(ctx, symbol, name, decimals)
}

func (l tokenLedger) TransferFrom(ctx context.Context, symbol, spender, from, to string, amount decimal.Decimal) error {
	return l.svc.TransferFrom(ctx, symbol, spender, from, to, amount)
}

func (l tokenLedger) MintTo(ctx context.Context, symbol, minter, to string, amount decimal.Decimal) error {
	return l.svc.MintTo(ctx, symbol, minter, to, amount)
}

func (l tokenLedger) AuthorizeMint(ctx context.Context, symbol, minter string, amount decimal.Decimal) error {
	return l.svc.AuthorizeMint(ctx, symbol, minter, amount)
}

func (l tokenLedger) BalanceOf(ctx context.Context, symbol, address string) (decimal.Decimal, error) {
	return l.svc.BalanceOf(ctx, symbol, address)
}

type Service struct {
	db     *gorm.DB
	node   *snowflake.Node
	seq    sequence.Generator
	tokens TokenLedger
	roles  rbac.Registry

	campaigns     repository.Repository[Campaign]
	investors     repository.Repository[Investor]
	badges        repository.Repository[TierBadge]
	contributions repository.Repository[Contribution]
	claims        repository.Repository[Claim]
}

type ServiceParams struct {
	fx.In
	DB     *gorm.DB
	Node   *snowflake.Node
	Seq    sequence.Generator
	Tokens TokenLedger
	Roles  rbac.Registry
}

func NewService(p ServiceParams) *Service {
	return &Service{
		db:     p.DB,
		node:   p.Node,
		seq:    p.Seq,
		tokens: p.Tokens,
		roles:  p.Roles,

		campaigns:     repository.ProvideStore[Campaign](p.DB),
		investors:     repository.ProvideStore[Investor](p.DB),
		badges:        repository.ProvideStore[TierBadge](p.DB),
		contributions: repository.ProvideStore[Contribution](p.DB),
		claims:        repository.ProvideStore[Claim](p.DB),
	}
}

// lockCampaign loads the singleton campaign row under a row lock. Every
// mutation starts here, so invest, pricing and claims are strictly serialized
// against each other.
func (s *Service) lockCampaign(ctx context.Context, tx *gorm.DB) (*Campaign, error) {
	campaign, err := s.campaigns.WithTrx(tx).FindOne(ctx, &Campaign{}, option.WithLockingUpdate())
	if err != nil {
		return nil, err
	}
	if campaign == nil {
		return nil, errCampaignNotFound()
	}
	return campaign, nil
}

func (s *Service) getCampaign(ctx context.Context) (*Campaign, error) {
	campaign, err := s.campaigns.FindOne(ctx, &Campaign{})
	if err != nil {
		return nil, err
	}
	if campaign == nil {
		return nil, errCampaignNotFound()
	}
	return campaign, nil
}

func validPositiveAmount(amount decimal.Decimal) bool {
	return amount.Sign() > 0 && amount.Equal(amount.Truncate(0))
}

func now() time.Time {
	return time.Now().UTC()
}
