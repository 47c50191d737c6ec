// Package migration creates the database schema on startup so the
// service is usable out of the box for local and self-hosted installs.
// Postgres gets versioned SQL migrations; other dialects fall back to
// gorm AutoMigrate.
package migration

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	accountdomain "github.com/salestrackpro/salestrack/internal/account/domain"
	auditdomain "github.com/salestrackpro/salestrack/internal/audit/domain"
	authdomain "github.com/salestrackpro/salestrack/internal/auth/domain"
	contactdomain "github.com/salestrackpro/salestrack/internal/contact/domain"
	invitationdomain "github.com/salestrackpro/salestrack/internal/invitation/domain"
	salesdomain "github.com/salestrackpro/salestrack/internal/sales/domain"
	"gorm.io/gorm"
)

//go:embed migrations/*.sql
var embeddedMigrations embed.FS

const migrationsDir = "migrations"

func RunMigrations(db *sql.DB) error {
	if db == nil {
		return errors.New("migration database handle is required")
	}

	sub, err := fs.Sub(embeddedMigrations, migrationsDir)
	if err != nil {
		return fmt.Errorf("open migrations: %w", err)
	}

	source, err := iofs.New(sub, ".")
	if err != nil {
		return fmt.Errorf("create migration source: %w", err)
	}

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("create migration driver: %w", err)
	}

	migrator, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}

	upErr := migrator.Up()
	if upErr != nil && !errors.Is(upErr, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", upErr)
	}
	// Do not call migrator.Close here because it would close the shared *sql.DB.

	return nil
}

// AutoMigrate covers the non-postgres dialects.
func AutoMigrate(conn *gorm.DB) error {
	return conn.AutoMigrate(
		&accountdomain.Account{},
		&accountdomain.Profile{},
		&authdomain.Session{},
		&invitationdomain.Invitation{},
		&salesdomain.SalesModel{},
		&salesdomain.SaleRecord{},
		&contactdomain.ContactMessage{},
		&auditdomain.SecurityEvent{},
	)
}
