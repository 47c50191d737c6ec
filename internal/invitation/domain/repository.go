package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/salestrackpro/salestrack/internal/authctx"
	"github.com/salestrackpro/salestrack/pkg/db/pagination"
	"gorm.io/gorm"
)

type ListInvitationFilter struct {
	Status string
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, invitation *Invitation) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Invitation, error)
	FindByToken(ctx context.Context, db *gorm.DB, token string) (*Invitation, error)
	FindValidByEmail(ctx context.Context, db *gorm.DB, email string, now time.Time) (*Invitation, error)
	List(ctx context.Context, db *gorm.DB, requester authctx.Identity, filter ListInvitationFilter, page pagination.Pagination) ([]*Invitation, error)
	Update(ctx context.Context, db *gorm.DB, invitation *Invitation) error
	MarkOverdueExpired(ctx context.Context, db *gorm.DB, now time.Time) (int64, error)
}
