// Package seed bootstraps the root admin account on startup so a fresh
// install is immediately usable. The root capability is a flag set
// here, at provisioning time; nothing else in the system compares
// emails to decide who is root.
package seed

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	accountdomain "github.com/salestrackpro/salestrack/internal/account/domain"
	"github.com/salestrackpro/salestrack/internal/auth/password"
	"github.com/salestrackpro/salestrack/internal/authorization"
	"github.com/salestrackpro/salestrack/internal/config"
	"gorm.io/gorm"
)

// EnsureRootAdmin creates the root account named in cfg.Seed if it does
// not exist yet, and grants it the root role. No-op when unconfigured
// or when the account already exists.
func EnsureRootAdmin(db *gorm.DB, cfg config.Config, authz authorization.Service) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}

	email := strings.ToLower(strings.TrimSpace(cfg.Seed.RootEmail))
	if email == "" {
		return nil
	}
	if cfg.Seed.RootPassword == "" {
		return errors.New("root admin email set without a password")
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		return err
	}

	ctx := context.Background()
	var rootID snowflake.ID
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing accountdomain.Account
		err := tx.WithContext(ctx).
			Where("LOWER(email) = ?", email).
			First(&existing).Error
		if err == nil {
			rootID = existing.ID
			if existing.IsRoot {
				return nil
			}
			// Promote a pre-existing account named as root.
			existing.IsRoot = true
			existing.IsStaff = true
			existing.IsSuperuser = true
			existing.UpdatedAt = time.Now().UTC()
			return tx.WithContext(ctx).Save(&existing).Error
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		hashed, err := password.Hash(cfg.Seed.RootPassword)
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		account := accountdomain.Account{
			ID:           node.Generate(),
			Email:        email,
			PasswordHash: &hashed,
			FirstName:    "Root",
			LastName:     "Admin",
			IsActive:     true,
			IsStaff:      true,
			IsSuperuser:  true,
			IsRoot:       true,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if err := tx.WithContext(ctx).Create(&account).Error; err != nil {
			return err
		}

		profile := accountdomain.Profile{
			ID:                 node.Generate(),
			AccountID:          account.ID,
			CreatedBy:          &account.ID,
			LastPasswordChange: now,
			EmailVerified:      true,
			CreatedAt:          now,
			UpdatedAt:          now,
		}
		if err := tx.WithContext(ctx).Create(&profile).Error; err != nil {
			return err
		}

		rootID = account.ID
		return nil
	})
	if err != nil {
		return err
	}

	return authz.GrantRole(ctx, rootID, authorization.RoleRoot)
}
