package invitation

import (
	"github.com/salestrackpro/salestrack/internal/invitation/repository"
	"github.com/salestrackpro/salestrack/internal/invitation/service"
	"go.uber.org/fx"
)

var Module = fx.Module("invitation.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
