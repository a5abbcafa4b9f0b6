package funding

import (
	"context"

	"go.uber.org/zap"

	"bondfund/pkg/rbac"
)

// GrantRole adds a role binding. Only campaign admins may manage roles.
func (s *Service) GrantRole(ctx context.Context, caller, address, role string) error {
	if err := s.requireAdmin(caller); err != nil {
		return err
	}

	if err := s.roles.GrantRole(address, role); err != nil {
		return err
	}

	zap.L().Info("role granted",
		zap.String("caller", caller),
		zap.String("address", address),
		zap.String("role", role),
	)
	return nil
}

func (s *Service) RevokeRole(ctx context.Context, caller, address, role string) error {
	if err := s.requireAdmin(caller); err != nil {
		return err
	}

	if err := s.roles.RevokeRole(address, role); err != nil {
		return err
	}

	zap.L().Info("role revoked",
		zap.String("caller", caller),
		zap.String("address", address),
		zap.String("role", role),
	)
	return nil
}

func (s *Service) HasRole(ctx context.Context, address, role string) (bool, error) {
	return s.roles.HasRole(address, role)
}

func (s *Service) RolesOf(ctx context.Context, address string) ([]string, error) {
	return s.roles.RolesOf(address)
}

func (s *Service) requireAdmin(caller string) error {
	if caller == "" {
		return errUnauthorized()
	}
	ok, err := s.roles.HasRole(caller, rbac.RoleCampaignAdmin)
	if err != nil {
		return err
	}
	if !ok {
		return errUnauthorized()
	}
	return nil
}
