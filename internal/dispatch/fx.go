package dispatch

import (
	"context"

	invitationdomain "github.com/salestrackpro/salestrack/internal/invitation/domain"
	"go.uber.org/fx"
)

var Module = fx.Module("dispatch",
	fx.Provide(
		New,
		func(d *Dispatcher) invitationdomain.Dispatcher { return d },
	),
	fx.Invoke(registerLifecycle),
)

func registerLifecycle(lc fx.Lifecycle, d *Dispatcher) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			d.Start()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			d.Stop()
			return nil
		},
	})
}
