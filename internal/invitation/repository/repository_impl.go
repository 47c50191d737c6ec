package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/salestrackpro/salestrack/internal/authctx"
	"github.com/salestrackpro/salestrack/internal/invitation/domain"
	"github.com/salestrackpro/salestrack/internal/ownership"
	"github.com/salestrackpro/salestrack/pkg/db/option"
	"github.com/salestrackpro/salestrack/pkg/db/pagination"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, invitation *domain.Invitation) error {
	return db.WithContext(ctx).Create(invitation).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Invitation, error) {
	var invitation domain.Invitation
	err := db.WithContext(ctx).
		First(&invitation, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &invitation, nil
}

func (r *repo) FindByToken(ctx context.Context, db *gorm.DB, token string) (*domain.Invitation, error) {
	var invitation domain.Invitation
	err := db.WithContext(ctx).
		First(&invitation, "token = ?", token).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &invitation, nil
}

func (r *repo) FindValidByEmail(ctx context.Context, db *gorm.DB, email string, now time.Time) (*domain.Invitation, error) {
	var invitation domain.Invitation
	err := db.WithContext(ctx).
		Where("LOWER(contact_email) = ?", strings.ToLower(email)).
		Where("status IN ?", []string{domain.StatusPending, domain.StatusSent}).
		Where("expires_at > ?", now).
		Order("created_at desc").
		First(&invitation).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &invitation, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, requester authctx.Identity, filter domain.ListInvitationFilter, page pagination.Pagination) ([]*domain.Invitation, error) {
	var invitations []*domain.Invitation
	stmt := db.WithContext(ctx).Model(&domain.Invitation{})
	stmt = ownership.ScopeInvitations(stmt, requester)
	if filter.Status != "" {
		stmt = stmt.Where("status = ?", filter.Status)
	}
	stmt = option.ApplyPagination(page).Apply(stmt)
	err := stmt.
		Order("created_at desc, id desc").
		Find(&invitations).Error
	if err != nil {
		return nil, err
	}
	return invitations, nil
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, invitation *domain.Invitation) error {
	return db.WithContext(ctx).Save(invitation).Error
}

func (r *repo) MarkOverdueExpired(ctx context.Context, db *gorm.DB, now time.Time) (int64, error) {
	result := db.WithContext(ctx).
		Model(&domain.Invitation{}).
		Where("status IN ?", []string{domain.StatusPending, domain.StatusSent}).
		Where("expires_at <= ?", now).
		Updates(map[string]any{
			"status":     domain.StatusExpired,
			"updated_at": now,
		})
	return result.RowsAffected, result.Error
}
