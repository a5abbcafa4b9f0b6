package secretmanager

import (
	"os"

	"github.com/hashicorp/vault-client-go"
	"go.uber.org/fx"
)

var Module = fx.Module("secretmanager",
	fx.Provide(ProvideVault),
)

// ProvideVault builds a Vault client from the standard VAULT_* environment.
// Deployments without VAULT_ADDR get a nil client and the config secret
// overlay stays off.
func ProvideVault() (*vault.Client, error) {
	if os.Getenv("VAULT_ADDR") == "" {
		return nil, nil
	}

	client, err := vault.New(
		vault.WithEnvironment(),
	)
	if err != nil {
		return nil, err
	}

	return client, nil
}
