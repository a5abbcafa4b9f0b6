package funding

import (
	"context"

	"go.uber.org/fx"

	"bondfund/pkg/config"
)

var Module = fx.Module("funding",
	fx.Provide(
		NewTokenLedger,
		NewService,
		NewHandler,
	),
	fx.Invoke(
		RegisterRoutes,
		runBootstrap,
	),
)

func runBootstrap(lc fx.Lifecycle, svc *Service, cfg *config.Config) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return svc.Bootstrap(ctx, cfg)
		},
	})
}
