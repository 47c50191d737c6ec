package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/salestrackpro/salestrack/internal/account"
	"github.com/salestrackpro/salestrack/internal/audit"
	"github.com/salestrackpro/salestrack/internal/auth"
	"github.com/salestrackpro/salestrack/internal/authorization"
	"github.com/salestrackpro/salestrack/internal/clock"
	"github.com/salestrackpro/salestrack/internal/config"
	"github.com/salestrackpro/salestrack/internal/contact"
	"github.com/salestrackpro/salestrack/internal/dispatch"
	"github.com/salestrackpro/salestrack/internal/invitation"
	"github.com/salestrackpro/salestrack/internal/logger"
	"github.com/salestrackpro/salestrack/internal/migration"
	"github.com/salestrackpro/salestrack/internal/observability"
	"github.com/salestrackpro/salestrack/internal/providers"
	"github.com/salestrackpro/salestrack/internal/sales"
	"github.com/salestrackpro/salestrack/internal/scheduler"
	"github.com/salestrackpro/salestrack/internal/server"
	"github.com/salestrackpro/salestrack/internal/verification"
	"github.com/salestrackpro/salestrack/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		config.Module,
		logger.Module,
		clock.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,

		authorization.Module,
		audit.Module,
		account.Module,
		auth.Module,
		invitation.Module,
		sales.Module,
		contact.Module,
		providers.Module,
		dispatch.Module,
		verification.Module,

		scheduler.Module,
		migration.Module,
		server.Module,
	)
	app.Run()
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}
