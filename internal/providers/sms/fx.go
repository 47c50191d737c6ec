package sms

import "go.uber.org/fx"

var Module = fx.Module("providers.sms",
	fx.Provide(func(chain *Chain) Provider { return chain }),
	fx.Provide(NewChain),
)
