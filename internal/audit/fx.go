package audit

import (
	"github.com/salestrackpro/salestrack/internal/audit/repository"
	"github.com/salestrackpro/salestrack/internal/audit/service"
	"go.uber.org/fx"
)

var Module = fx.Module("audit.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
