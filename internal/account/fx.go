package account

import (
	"github.com/salestrackpro/salestrack/internal/account/repository"
	"github.com/salestrackpro/salestrack/internal/account/service"
	"go.uber.org/fx"
)

var Module = fx.Module("account.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
