package repository

import (
	"context"

	"github.com/salestrackpro/salestrack/internal/audit/domain"
	"github.com/salestrackpro/salestrack/pkg/db/option"
	"github.com/salestrackpro/salestrack/pkg/db/pagination"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, event *domain.SecurityEvent) error {
	return db.WithContext(ctx).Create(event).Error
}

func (r *repo) List(ctx context.Context, db *gorm.DB, eventType string, page pagination.Pagination) ([]*domain.SecurityEvent, error) {
	var events []*domain.SecurityEvent
	stmt := db.WithContext(ctx).Model(&domain.SecurityEvent{})
	if eventType != "" {
		stmt = stmt.Where("event_type = ?", eventType)
	}
	stmt = option.ApplyPagination(page).Apply(stmt)
	err := stmt.
		Order("created_at desc, id desc").
		Find(&events).Error
	if err != nil {
		return nil, err
	}
	return events, nil
}
