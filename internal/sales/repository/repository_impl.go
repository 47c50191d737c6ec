package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/salestrackpro/salestrack/internal/authctx"
	"github.com/salestrackpro/salestrack/internal/ownership"
	"github.com/salestrackpro/salestrack/internal/sales/domain"
	"github.com/salestrackpro/salestrack/pkg/db/option"
	"github.com/salestrackpro/salestrack/pkg/db/pagination"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) InsertModel(ctx context.Context, db *gorm.DB, model *domain.SalesModel) error {
	return db.WithContext(ctx).Create(model).Error
}

func (r *repo) FindModelByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.SalesModel, error) {
	var model domain.SalesModel
	err := db.WithContext(ctx).First(&model, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &model, nil
}

func (r *repo) ListModels(ctx context.Context, db *gorm.DB, requester authctx.Identity, page pagination.Pagination) ([]*domain.SalesModel, error) {
	var models []*domain.SalesModel
	stmt := db.WithContext(ctx).Model(&domain.SalesModel{})
	stmt = ownership.ScopeSalesModels(stmt, requester)
	stmt = option.ApplyPagination(page).Apply(stmt)
	err := stmt.
		Order("created_at desc, id desc").
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	return models, nil
}

func (r *repo) UpdateModel(ctx context.Context, db *gorm.DB, model *domain.SalesModel) error {
	return db.WithContext(ctx).Save(model).Error
}

func (r *repo) DeleteModel(ctx context.Context, db *gorm.DB, id snowflake.ID) error {
	if err := db.WithContext(ctx).
		Where("model_id = ?", id).
		Delete(&domain.SaleRecord{}).Error; err != nil {
		return err
	}
	return db.WithContext(ctx).Delete(&domain.SalesModel{}, "id = ?", id).Error
}

func (r *repo) CountModels(ctx context.Context, db *gorm.DB, requester authctx.Identity) (int64, error) {
	var count int64
	stmt := db.WithContext(ctx).Model(&domain.SalesModel{})
	stmt = ownership.ScopeSalesModels(stmt, requester)
	err := stmt.Count(&count).Error
	return count, err
}

func (r *repo) InsertSale(ctx context.Context, db *gorm.DB, sale *domain.SaleRecord) error {
	return db.WithContext(ctx).Create(sale).Error
}

func (r *repo) FindSaleByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.SaleRecord, error) {
	var sale domain.SaleRecord
	err := db.WithContext(ctx).First(&sale, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &sale, nil
}

func (r *repo) ListSalesByModel(ctx context.Context, db *gorm.DB, modelID snowflake.ID, page pagination.Pagination) ([]*domain.SaleRecord, error) {
	var sales []*domain.SaleRecord
	stmt := db.WithContext(ctx).
		Model(&domain.SaleRecord{}).
		Where("model_id = ?", modelID)
	stmt = option.ApplyPagination(page).Apply(stmt)
	err := stmt.
		Order("date desc, id desc").
		Find(&sales).Error
	if err != nil {
		return nil, err
	}
	return sales, nil
}

func (r *repo) AllSalesByModel(ctx context.Context, db *gorm.DB, modelID snowflake.ID) ([]domain.SaleRecord, error) {
	var sales []domain.SaleRecord
	err := db.WithContext(ctx).
		Where("model_id = ?", modelID).
		Order("date desc, id desc").
		Find(&sales).Error
	if err != nil {
		return nil, err
	}
	return sales, nil
}

func (r *repo) AllSalesVisible(ctx context.Context, db *gorm.DB, requester authctx.Identity) ([]domain.SaleRecord, error) {
	var sales []domain.SaleRecord
	stmt := db.WithContext(ctx).Model(&domain.SaleRecord{})
	stmt = ownership.ScopeSaleRecords(stmt, requester)
	err := stmt.Find(&sales).Error
	if err != nil {
		return nil, err
	}
	return sales, nil
}

func (r *repo) DeleteSale(ctx context.Context, db *gorm.DB, id snowflake.ID) error {
	return db.WithContext(ctx).Delete(&domain.SaleRecord{}, "id = ?", id).Error
}
