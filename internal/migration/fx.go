package migration

import (
	"github.com/salestrackpro/salestrack/internal/authorization"
	"github.com/salestrackpro/salestrack/internal/config"
	"github.com/salestrackpro/salestrack/internal/seed"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config, authz authorization.Service) error {
		if cfg.DBType == "postgres" {
			sqlDB, err := conn.DB()
			if err != nil {
				return err
			}
			if err := RunMigrations(sqlDB); err != nil {
				return err
			}
		} else {
			if err := AutoMigrate(conn); err != nil {
				return err
			}
		}

		return seed.EnsureRootAdmin(conn, cfg, authz)
	}),
)
