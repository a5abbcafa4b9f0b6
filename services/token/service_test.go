package token

import (
	"context"
	"sync"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"bondfund/pkg/errutil"
	"bondfund/pkg/rbac"
	"bondfund/services/testutil"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

type stubRegistry struct {
	mu    sync.Mutex
	roles map[string]map[string]bool
}

func newStubRegistry() *stubRegistry {
	return &stubRegistry{roles: make(map[string]map[string]bool)}
}

func (r *stubRegistry) HasRole(address, role string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.roles[address][role], nil
}

func (r *stubRegistry) GrantRole(address, role string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.roles[address] == nil {
		r.roles[address] = make(map[string]bool)
	}
	r.roles[address][role] = true
	return nil
}

func (r *stubRegistry) RevokeRole(address, role string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.roles[address], role)
	return nil
}

func (r *stubRegistry) RolesOf(address string) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for role := range r.roles[address] {
		out = append(out, role)
	}
	return out, nil
}

func newTestService(t *testing.T) (*Service, *stubRegistry) {
	t.Helper()

	db := testutil.NewTestDB(t,
		&Token{}, &Balance{}, &Allowance{}, &Transfer{}, &MintAuthorization{},
	)
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	roles := newStubRegistry()
	require.NoError(t, roles.GrantRole("minter", rbac.MinterRole("USDC")))
	require.NoError(t, roles.GrantRole("minter", rbac.MinterRole("BT")))

	return NewService(ServiceParams{DB: db, Node: node, Roles: roles}), roles
}

func d(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	v, err := decimal.NewFromString(s)
	require.NoError(t, err)
	return v
}

func TestEnsureTokenIdempotent(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.EnsureToken(ctx, "USDC", "USD Coin", 6))
	require.NoError(t, svc.EnsureToken(ctx, "USDC", "USD Coin", 6))

	tok, err := svc.GetToken(ctx, "USDC")
	require.NoError(t, err)
	require.Equal(t, int32(6), tok.Decimals)
}

func TestGetTokenUnknown(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.GetToken(context.Background(), "NOPE")
	require.Error(t, err)
	require.Equal(t, ReasonUnknownToken, errutil.ReasonOf(err))
}

func TestMintRequiresAuthorization(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	err := svc.MintTo(ctx, "USDC", "minter", "alice", d(t, "100"))
	require.Error(t, err)
	require.Equal(t, ReasonMintNotAuthorized, errutil.ReasonOf(err))
}

func TestMintDrawsDownAuthorization(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.AuthorizeMint(ctx, "USDC", "minter", d(t, "1000")))
	require.NoError(t, svc.MintTo(ctx, "USDC", "minter", "alice", d(t, "600")))

	bal, err := svc.BalanceOf(ctx, "USDC", "alice")
	require.NoError(t, err)
	require.Equal(t, "600", bal.String())

	// remaining capacity is 400, so another 600 must be refused
	err = svc.MintTo(ctx, "USDC", "minter", "alice", d(t, "600"))
	require.Error(t, err)
	require.Equal(t, ReasonMintNotAuthorized, errutil.ReasonOf(err))

	require.NoError(t, svc.MintTo(ctx, "USDC", "minter", "alice", d(t, "400")))

	bal, err = svc.BalanceOf(ctx, "USDC", "alice")
	require.NoError(t, err)
	require.Equal(t, "1000", bal.String())
}

func TestMintPreservesWidePrecision(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	// 1111.111... bond tokens at 18 decimals does not fit in an int64
	amount := d(t, "1111111111111111111111")

	require.NoError(t, svc.AuthorizeMint(ctx, "BT", "minter", amount))
	require.NoError(t, svc.MintTo(ctx, "BT", "minter", "alice", amount))

	bal, err := svc.BalanceOf(ctx, "BT", "alice")
	require.NoError(t, err)
	require.Equal(t, "1111111111111111111111", bal.String())
}

func TestTransfer(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.AuthorizeMint(ctx, "USDC", "minter", d(t, "500")))
	require.NoError(t, svc.MintTo(ctx, "USDC", "minter", "alice", d(t, "500")))

	require.NoError(t, svc.Transfer(ctx, "USDC", "alice", "bob", d(t, "200")))

	aliceBal, err := svc.BalanceOf(ctx, "USDC", "alice")
	require.NoError(t, err)
	require.Equal(t, "300", aliceBal.String())

	bobBal, err := svc.BalanceOf(ctx, "USDC", "bob")
	require.NoError(t, err)
	require.Equal(t, "200", bobBal.String())
}

func TestTransferInsufficientFunds(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	err := svc.Transfer(ctx, "USDC", "alice", "bob", d(t, "1"))
	require.Error(t, err)
	require.Equal(t, ReasonInsufficientFunds, errutil.ReasonOf(err))
}

func TestTransferRejectsInvalidAmount(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	for _, amount := range []string{"0", "-5", "1.5"} {
		err := svc.Transfer(ctx, "USDC", "alice", "bob", d(t, amount))
		require.Error(t, err, amount)
		require.Equal(t, ReasonInvalidAmount, errutil.ReasonOf(err), amount)
	}
}

func TestTransferFromConsumesAllowance(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.AuthorizeMint(ctx, "USDC", "minter", d(t, "1000")))
	require.NoError(t, svc.MintTo(ctx, "USDC", "minter", "alice", d(t, "1000")))
	require.NoError(t, svc.Approve(ctx, "USDC", "alice", "custodian", d(t, "700")))

	require.NoError(t, svc.TransferFrom(ctx, "USDC", "custodian", "alice", "vault", d(t, "400")))

	remaining, err := svc.AllowanceOf(ctx, "USDC", "alice", "custodian")
	require.NoError(t, err)
	require.Equal(t, "300", remaining.String())

	vaultBal, err := svc.BalanceOf(ctx, "USDC", "vault")
	require.NoError(t, err)
	require.Equal(t, "400", vaultBal.String())

	err = svc.TransferFrom(ctx, "USDC", "custodian", "alice", "vault", d(t, "301"))
	require.Error(t, err)
	require.Equal(t, ReasonInsufficientAllowance, errutil.ReasonOf(err))
}

func TestTransferFromFailedPullKeepsAllowance(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.AuthorizeMint(ctx, "USDC", "minter", d(t, "100")))
	require.NoError(t, svc.MintTo(ctx, "USDC", "minter", "alice", d(t, "100")))
	require.NoError(t, svc.Approve(ctx, "USDC", "alice", "custodian", d(t, "500")))

	// approved beyond the held balance; the pull fails on funds
	err := svc.TransferFrom(ctx, "USDC", "custodian", "alice", "vault", d(t, "300"))
	require.Error(t, err)
	require.Equal(t, ReasonInsufficientFunds, errutil.ReasonOf(err))

	// the whole movement rolled back, allowance included
	remaining, err := svc.AllowanceOf(ctx, "USDC", "alice", "custodian")
	require.NoError(t, err)
	require.Equal(t, "500", remaining.String())

	aliceBal, err := svc.BalanceOf(ctx, "USDC", "alice")
	require.NoError(t, err)
	require.Equal(t, "100", aliceBal.String())

	vaultBal, err := svc.BalanceOf(ctx, "USDC", "vault")
	require.NoError(t, err)
	require.True(t, vaultBal.IsZero())
}

func TestMintRequiresMinterRole(t *testing.T) {
	svc, roles := newTestService(t)
	ctx := context.Background()

	// capacity alone is not enough; the minter role gates the mint
	require.NoError(t, svc.AuthorizeMint(ctx, "USDC", "outsider", d(t, "1000")))

	err := svc.MintTo(ctx, "USDC", "outsider", "alice", d(t, "100"))
	require.Error(t, err)
	require.Equal(t, ReasonMintNotAuthorized, errutil.ReasonOf(err))

	bal, err := svc.BalanceOf(ctx, "USDC", "alice")
	require.NoError(t, err)
	require.True(t, bal.IsZero())

	require.NoError(t, roles.GrantRole("outsider", rbac.MinterRole("USDC")))
	require.NoError(t, svc.MintTo(ctx, "USDC", "outsider", "alice", d(t, "100")))

	bal, err = svc.BalanceOf(ctx, "USDC", "alice")
	require.NoError(t, err)
	require.Equal(t, "100", bal.String())
}

func TestApproveReplacesAllowance(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.Approve(ctx, "USDC", "alice", "custodian", d(t, "100")))
	require.NoError(t, svc.Approve(ctx, "USDC", "alice", "custodian", d(t, "40")))

	remaining, err := svc.AllowanceOf(ctx, "USDC", "alice", "custodian")
	require.NoError(t, err)
	require.Equal(t, "40", remaining.String())
}
