package funding

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"bondfund/pkg/errutil"
	"bondfund/pkg/rbac"
)

func TestRoleManagementRequiresAdmin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	err := f.svc.GrantRole(ctx, "0xrandom", "0xnew", rbac.RoleCampaignAdmin)
	require.Error(t, err)
	require.Equal(t, ReasonUnauthorized, errutil.ReasonOf(err))

	err = f.svc.RevokeRole(ctx, "", admin, rbac.RoleCampaignAdmin)
	require.Error(t, err)
	require.Equal(t, ReasonUnauthorized, errutil.ReasonOf(err))
}

func TestGrantAndRevokeRole(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.svc.GrantRole(ctx, admin, "0xoperator", rbac.RoleCampaignAdmin))

	ok, err := f.svc.HasRole(ctx, "0xoperator", rbac.RoleCampaignAdmin)
	require.NoError(t, err)
	require.True(t, ok)

	roles, err := f.svc.RolesOf(ctx, "0xoperator")
	require.NoError(t, err)
	require.Contains(t, roles, rbac.RoleCampaignAdmin)

	require.NoError(t, f.svc.RevokeRole(ctx, admin, "0xoperator", rbac.RoleCampaignAdmin))

	ok, err = f.svc.HasRole(ctx, "0xoperator", rbac.RoleCampaignAdmin)
	require.NoError(t, err)
	require.False(t, ok)
}
