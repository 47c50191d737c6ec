package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/salestrackpro/salestrack/internal/authctx"
	"github.com/salestrackpro/salestrack/pkg/db/pagination"
	"gorm.io/gorm"
)

type ListAccountFilter struct {
	Email string
	Staff *bool
}

// Repository persists accounts and profiles. Every method takes the db
// handle so callers can pass a transaction.
type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, account *Account, profile *Profile) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Account, error)
	FindByEmail(ctx context.Context, db *gorm.DB, email string) (*Account, error)
	FindProfile(ctx context.Context, db *gorm.DB, accountID snowflake.ID) (*Profile, error)
	List(ctx context.Context, db *gorm.DB, requester authctx.Identity, filter ListAccountFilter, page pagination.Pagination) ([]*Account, error)
	Update(ctx context.Context, db *gorm.DB, account *Account) error
	UpdateProfile(ctx context.Context, db *gorm.DB, profile *Profile) error
	Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) error
}
