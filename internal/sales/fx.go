package sales

import (
	"github.com/salestrackpro/salestrack/internal/sales/repository"
	"github.com/salestrackpro/salestrack/internal/sales/service"
	"go.uber.org/fx"
)

var Module = fx.Module("sales.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
