package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/salestrackpro/salestrack/internal/contact/domain"
	"github.com/salestrackpro/salestrack/pkg/db/option"
	"github.com/salestrackpro/salestrack/pkg/db/pagination"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, message *domain.ContactMessage) error {
	return db.WithContext(ctx).Create(message).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.ContactMessage, error) {
	var message domain.ContactMessage
	err := db.WithContext(ctx).First(&message, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &message, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter domain.ListMessageFilter, page pagination.Pagination) ([]*domain.ContactMessage, error) {
	var messages []*domain.ContactMessage
	stmt := db.WithContext(ctx).Model(&domain.ContactMessage{})
	if filter.Unread != nil {
		stmt = stmt.Where("read = ?", !*filter.Unread)
	}
	stmt = option.ApplyPagination(page).Apply(stmt)
	err := stmt.
		Order("created_at desc, id desc").
		Find(&messages).Error
	if err != nil {
		return nil, err
	}
	return messages, nil
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, message *domain.ContactMessage) error {
	return db.WithContext(ctx).Save(message).Error
}

func (r *repo) Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) error {
	return db.WithContext(ctx).Delete(&domain.ContactMessage{}, "id = ?", id).Error
}
