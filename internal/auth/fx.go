package auth

import (
	"github.com/salestrackpro/salestrack/internal/auth/repository"
	"github.com/salestrackpro/salestrack/internal/auth/service"
	"github.com/salestrackpro/salestrack/internal/auth/session"
	"go.uber.org/fx"
)

var Module = fx.Module("auth.service",
	session.Module,
	fx.Provide(repository.ProvideSessionRepository),
	fx.Provide(service.New),
)
