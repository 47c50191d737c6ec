package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/salestrackpro/salestrack/internal/account/domain"
	"github.com/salestrackpro/salestrack/internal/authctx"
	"github.com/salestrackpro/salestrack/internal/ownership"
	"github.com/salestrackpro/salestrack/pkg/db/option"
	"github.com/salestrackpro/salestrack/pkg/db/pagination"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, account *domain.Account, profile *domain.Profile) error {
	if err := db.WithContext(ctx).Create(account).Error; err != nil {
		return err
	}
	return db.WithContext(ctx).Create(profile).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Account, error) {
	var account domain.Account
	err := db.WithContext(ctx).
		Preload("Profile").
		First(&account, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &account, nil
}

func (r *repo) FindByEmail(ctx context.Context, db *gorm.DB, email string) (*domain.Account, error) {
	var account domain.Account
	err := db.WithContext(ctx).
		Preload("Profile").
		First(&account, "LOWER(email) = ?", strings.ToLower(email)).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &account, nil
}

func (r *repo) FindProfile(ctx context.Context, db *gorm.DB, accountID snowflake.ID) (*domain.Profile, error) {
	var profile domain.Profile
	err := db.WithContext(ctx).
		First(&profile, "account_id = ?", accountID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, requester authctx.Identity, filter domain.ListAccountFilter, page pagination.Pagination) ([]*domain.Account, error) {
	var accounts []*domain.Account
	stmt := db.WithContext(ctx).Model(&domain.Account{})
	stmt = ownership.ScopeAccounts(stmt, requester)
	if filter.Email != "" {
		stmt = stmt.Where("LOWER(email) = ?", strings.ToLower(filter.Email))
	}
	if filter.Staff != nil {
		stmt = stmt.Where("is_staff = ?", *filter.Staff)
	}
	stmt = option.ApplyPagination(page).Apply(stmt)
	err := stmt.
		Preload("Profile").
		Order("created_at desc, id desc").
		Find(&accounts).Error
	if err != nil {
		return nil, err
	}
	return accounts, nil
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, account *domain.Account) error {
	return db.WithContext(ctx).Save(account).Error
}

func (r *repo) UpdateProfile(ctx context.Context, db *gorm.DB, profile *domain.Profile) error {
	return db.WithContext(ctx).Save(profile).Error
}

func (r *repo) Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) error {
	if err := db.WithContext(ctx).
		Where("account_id = ?", id).
		Delete(&domain.Profile{}).Error; err != nil {
		return err
	}
	return db.WithContext(ctx).Delete(&domain.Account{}, "id = ?", id).Error
}
