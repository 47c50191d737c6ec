package contact

import (
	"github.com/salestrackpro/salestrack/internal/contact/repository"
	"github.com/salestrackpro/salestrack/internal/contact/service"
	"go.uber.org/fx"
)

var Module = fx.Module("contact.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
