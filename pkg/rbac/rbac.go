package rbac

import (
	"fmt"
	"os"
	"strings"

	"github.com/casbin/casbin/v2"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"bondfund/pkg/config"
)

// Role names understood by the campaign core.
const (
	RoleCampaignAdmin = "campaign.admin"
)

// MinterRole returns the role that authorises minting a given token.
func MinterRole(symbol string) string {
	return fmt.Sprintf("token.minter.%s", strings.ToLower(symbol))
}

var Module = fx.Module("rbac",
	fx.Provide(NewEnforcerRegistry),
)

// Registry is the role registry consumed by the services: membership checks on
// every gated mutation, grant/revoke for operators.
type Registry interface {
	HasRole(address, role string) (bool, error)
	GrantRole(address, role string) error
	RevokeRole(address, role string) error
	RolesOf(address string) ([]string, error)
}

type EnforcerRegistry struct {
	enforcer *casbin.Enforcer
}

type Params struct {
	fx.In
	Config *config.Config
}

func NewEnforcerRegistry(p Params) Registry {
	e, err := casbin.NewEnforcer(p.Config.AccessControl.Model, p.Config.AccessControl.Policy)
	if err != nil {
		zap.L().Error("[RBAC] failed to build enforcer", zap.Error(err))
		os.Exit(1)
	}

	return &EnforcerRegistry{enforcer: e}
}

func (r *EnforcerRegistry) HasRole(address, role string) (bool, error) {
	return r.enforcer.HasRoleForUser(address, role)
}

func (r *EnforcerRegistry) GrantRole(address, role string) error {
	if _, err := r.enforcer.AddRoleForUser(address, role); err != nil {
		return err
	}
	return r.enforcer.SavePolicy()
}

func (r *EnforcerRegistry) RevokeRole(address, role string) error {
	if _, err := r.enforcer.DeleteRoleForUser(address, role); err != nil {
		return err
	}
	return r.enforcer.SavePolicy()
}

func (r *EnforcerRegistry) RolesOf(address string) ([]string, error) {
	return r.enforcer.GetRolesForUser(address)
}
