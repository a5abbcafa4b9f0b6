package token

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"bondfund/pkg/db/option"
	"bondfund/pkg/errutil"
	"bondfund/pkg/rbac"
	"bondfund/pkg/repository"
	"bondfund/pkg/tokenmath"
)

// Reason codes carried on token ledger errors.
const (
	ReasonUnknownToken          = "UNKNOWN_TOKEN"
	ReasonInvalidAmount         = "INVALID_AMOUNT"
	ReasonInsufficientFunds     = "INSUFFICIENT_FUNDS"
	ReasonInsufficientAllowance = "INSUFFICIENT_ALLOWANCE"
	ReasonMintNotAuthorized     = "MINT_NOT_AUTHORIZED"
)

type Service struct {
	db    *gorm.DB
	node  *snowflake.Node
	roles rbac.Registry
	inTx  bool

	tokens     repository.Repository[Token]
	balances   repository.Repository[Balance]
	allowances repository.Repository[Allowance]
	transfers  repository.Repository[Transfer]
	mints      repository.Repository[MintAuthorization]
}

type ServiceParams struct {
	fx.In
	DB    *gorm.DB
	Node  *snowflake.Node
	Roles rbac.Registry
}

func NewService(p ServiceParams) *Service {
	return &Service{
		db:    p.DB,
		node:  p.Node,
		roles: p.Roles,

		tokens:     repository.ProvideStore[Token](p.DB),
		balances:   repository.ProvideStore[Balance](p.DB),
		allowances: repository.ProvideStore[Allowance](p.DB),
		transfers:  repository.ProvideStore[Transfer](p.DB),
		mints:      repository.ProvideStore[MintAuthorization](p.DB),
	}
}

// WithTrx binds the ledger to an open transaction so token movements commit
// or roll back together with the caller's state.
func (s *Service) WithTrx(tx *gorm.DB) *Service {
	if tx == nil {
		return s
	}
	return &Service{
		db:    tx,
		node:  s.node,
		roles: s.roles,
		inTx:  true,

		tokens:     s.tokens.WithTrx(tx),
		balances:   s.balances.WithTrx(tx),
		allowances: s.allowances.WithTrx(tx),
		transfers:  s.transfers.WithTrx(tx),
		mints:      s.mints.WithTrx(tx),
	}
}

// transact runs fn against a transaction-bound copy of the service. Multi-row
// flows called on an unbound service get their own transaction here, so a
// failure partway through never leaves a partial movement behind.
func (s *Service) transact(fn func(svc *Service) error) error {
	if s.inTx {
		return fn(s)
	}
	return s.db.Transaction(func(tx *gorm.DB) error {
		return fn(s.WithTrx(tx))
	})
}

// EnsureToken creates the token definition if it does not exist yet.
func (s *Service) EnsureToken(ctx context.Context, symbol, name string, decimals int32) error {
	existing, err := s.tokens.FindOne(ctx, &Token{Symbol: symbol})
	if err != nil {
		return err
	}
	if existing != nil {
		return nil
	}

	return s.tokens.Create(ctx, &Token{
		Symbol:   symbol,
		Name:     name,
		Decimals: decimals,
	})
}

func (s *Service) GetToken(ctx context.Context, symbol string) (*Token, error) {
	t, err := s.tokens.FindOne(ctx, &Token{Symbol: symbol})
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, errutil.NotFound("unknown token", errutil.WithReason(ReasonUnknownToken))
	}
	return t, nil
}

// BalanceOf returns the held amount in raw base units; unknown holders have a
// zero balance.
func (s *Service) BalanceOf(ctx context.Context, symbol, address string) (decimal.Decimal, error) {
	bal, err := s.balances.FindOne(ctx, &Balance{Symbol: symbol, Address: address})
	if err != nil {
		return decimal.Zero, err
	}
	if bal == nil {
		return decimal.Zero, nil
	}
	return bal.Amount, nil
}

// Approve sets (not adds) the spender allowance, mirroring ERC-20 approve.
func (s *Service) Approve(ctx context.Context, symbol, owner, spender string, amount decimal.Decimal) error {
	if err := validAmount(amount, true); err != nil {
		return err
	}

	existing, err := s.allowances.FindOne(ctx, &Allowance{Symbol: symbol, Owner: owner, Spender: spender})
	if err != nil {
		return err
	}

	if existing == nil {
		return s.allowances.Create(ctx, &Allowance{
			ID:      s.node.Generate().String(),
			Symbol:  symbol,
			Owner:   owner,
			Spender: spender,
			Amount:  amount,
		})
	}

	return s.allowances.Update(ctx, existing.ID, map[string]any{
		"amount":     amount,
		"updated_at": time.Now(),
	})
}

func (s *Service) AllowanceOf(ctx context.Context, symbol, owner, spender string) (decimal.Decimal, error) {
	a, err := s.allowances.FindOne(ctx, &Allowance{Symbol: symbol, Owner: owner, Spender: spender})
	if err != nil {
		return decimal.Zero, err
	}
	if a == nil {
		return decimal.Zero, nil
	}
	return a.Amount, nil
}

// Transfer moves amount from one holder to another and records the movement.
func (s *Service) Transfer(ctx context.Context, symbol, from, to string, amount decimal.Decimal) error {
	if err := validAmount(amount, false); err != nil {
		return err
	}

	return s.transact(func(svc *Service) error {
		return svc.transfer(ctx, symbol, from, to, amount)
	})
}

func (s *Service) transfer(ctx context.Context, symbol, from, to string, amount decimal.Decimal) error {
	bal, err := s.balances.FindOne(ctx, &Balance{Symbol: symbol, Address: from}, option.WithLockingUpdate())
	if err != nil {
		return err
	}
	if bal == nil || bal.Amount.LessThan(amount) {
		return errutil.UnprocessableEntity("insufficient balance", errutil.WithReason(ReasonInsufficientFunds))
	}

	if err := s.balances.Update(ctx, bal.ID, map[string]any{
		"amount":     bal.Amount.Sub(amount),
		"updated_at": time.Now(),
	}); err != nil {
		return err
	}

	if err := s.creditBalance(ctx, symbol, to, amount); err != nil {
		return err
	}

	return s.recordTransfer(ctx, symbol, from, to, TransferKindTransfer, amount)
}

// TransferFrom moves amount out of the owner's balance on behalf of spender,
// consuming allowance first. The allowance debit and the balance movement
// share one transaction; a failed pull restores the allowance.
func (s *Service) TransferFrom(ctx context.Context, symbol, spender, from, to string, amount decimal.Decimal) error {
	if err := validAmount(amount, false); err != nil {
		return err
	}

	return s.transact(func(svc *Service) error {
		allowance, err := svc.allowances.FindOne(ctx,
			&Allowance{Symbol: symbol, Owner: from, Spender: spender},
			option.WithLockingUpdate(),
		)
		if err != nil {
			return err
		}
		if allowance == nil || allowance.Amount.LessThan(amount) {
			return errutil.UnprocessableEntity("insufficient allowance", errutil.WithReason(ReasonInsufficientAllowance))
		}

		if err := svc.allowances.Update(ctx, allowance.ID, map[string]any{
			"amount":     allowance.Amount.Sub(amount),
			"updated_at": time.Now(),
		}); err != nil {
			return err
		}

		return svc.transfer(ctx, symbol, from, to, amount)
	})
}

// AuthorizeMint raises the minter's remaining mint capacity for a token.
func (s *Service) AuthorizeMint(ctx context.Context, symbol, minter string, amount decimal.Decimal) error {
	if err := validAmount(amount, false); err != nil {
		return err
	}

	return s.transact(func(svc *Service) error {
		existing, err := svc.mints.FindOne(ctx, &MintAuthorization{Symbol: symbol, Minter: minter}, option.WithLockingUpdate())
		if err != nil {
			return err
		}

		if existing == nil {
			return svc.mints.Create(ctx, &MintAuthorization{
				ID:        svc.node.Generate().String(),
				Symbol:    symbol,
				Minter:    minter,
				Remaining: amount,
			})
		}

		return svc.mints.Update(ctx, existing.ID, map[string]any{
			"remaining":  existing.Remaining.Add(amount),
			"updated_at": time.Now(),
		})
	})
}

// MintTo creates new supply for the recipient. The minter must hold the
// token's minter role and still have authorized capacity; the capacity
// draw-down, the credit and the movement record commit together.
func (s *Service) MintTo(ctx context.Context, symbol, minter, to string, amount decimal.Decimal) error {
	if err := validAmount(amount, false); err != nil {
		return err
	}

	hasRole, err := s.roles.HasRole(minter, rbac.MinterRole(symbol))
	if err != nil {
		return err
	}
	if !hasRole {
		zap.L().Warn("mint rejected, minter role missing",
			zap.String("symbol", symbol),
			zap.String("minter", minter),
		)
		return errutil.Forbidden("mint not authorized", errutil.WithReason(ReasonMintNotAuthorized))
	}

	return s.transact(func(svc *Service) error {
		auth, err := svc.mints.FindOne(ctx, &MintAuthorization{Symbol: symbol, Minter: minter}, option.WithLockingUpdate())
		if err != nil {
			return err
		}
		if auth == nil || auth.Remaining.LessThan(amount) {
			zap.L().Warn("mint rejected, capacity exhausted",
				zap.String("symbol", symbol),
				zap.String("minter", minter),
				zap.String("amount", amount.String()),
			)
			return errutil.Forbidden("mint not authorized", errutil.WithReason(ReasonMintNotAuthorized))
		}

		if err := svc.mints.Update(ctx, auth.ID, map[string]any{
			"remaining":  auth.Remaining.Sub(amount),
			"updated_at": time.Now(),
		}); err != nil {
			return err
		}

		if err := svc.creditBalance(ctx, symbol, to, amount); err != nil {
			return err
		}

		return svc.recordTransfer(ctx, symbol, "", to, TransferKindMint, amount)
	})
}

func (s *Service) creditBalance(ctx context.Context, symbol, address string, amount decimal.Decimal) error {
	bal, err := s.balances.FindOne(ctx, &Balance{Symbol: symbol, Address: address}, option.WithLockingUpdate())
	if err != nil {
		return err
	}

	if bal == nil {
		return s.balances.Create(ctx, &Balance{
			ID:      s.node.Generate().String(),
			Symbol:  symbol,
			Address: address,
			Amount:  amount,
		})
	}

	return s.balances.Update(ctx, bal.ID, map[string]any{
		"amount":     bal.Amount.Add(amount),
		"updated_at": time.Now(),
	})
}

func (s *Service) recordTransfer(ctx context.Context, symbol, from, to string, kind TransferKind, amount decimal.Decimal) error {
	return s.transfers.Create(ctx, &Transfer{
		ID:          s.node.Generate().String(),
		ReferenceID: uuid.NewString(),
		Symbol:      symbol,
		FromAddress: from,
		ToAddress:   to,
		Kind:        kind,
		Amount:      amount,
	})
}

func validAmount(amount decimal.Decimal, allowZero bool) error {
	if amount.Sign() < 0 || (!allowZero && amount.Sign() == 0) {
		return errutil.BadRequest("amount must be positive", errutil.WithReason(ReasonInvalidAmount))
	}
	if !tokenmath.IsIntegral(amount) {
		return errutil.BadRequest("amount must be whole base units", errutil.WithReason(ReasonInvalidAmount))
	}
	return nil
}
