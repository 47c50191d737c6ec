package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/salestrackpro/salestrack/pkg/db/pagination"
	"gorm.io/gorm"
)

type ListMessageFilter struct {
	Unread *bool
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, message *ContactMessage) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*ContactMessage, error)
	List(ctx context.Context, db *gorm.DB, filter ListMessageFilter, page pagination.Pagination) ([]*ContactMessage, error)
	Update(ctx context.Context, db *gorm.DB, message *ContactMessage) error
	Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) error
}
