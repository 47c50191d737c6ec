package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/salestrackpro/salestrack/internal/authctx"
	"github.com/salestrackpro/salestrack/pkg/db/pagination"
	"gorm.io/gorm"
)

type Repository interface {
	InsertModel(ctx context.Context, db *gorm.DB, model *SalesModel) error
	FindModelByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*SalesModel, error)
	ListModels(ctx context.Context, db *gorm.DB, requester authctx.Identity, page pagination.Pagination) ([]*SalesModel, error)
	UpdateModel(ctx context.Context, db *gorm.DB, model *SalesModel) error
	DeleteModel(ctx context.Context, db *gorm.DB, id snowflake.ID) error
	CountModels(ctx context.Context, db *gorm.DB, requester authctx.Identity) (int64, error)

	InsertSale(ctx context.Context, db *gorm.DB, sale *SaleRecord) error
	FindSaleByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*SaleRecord, error)
	ListSalesByModel(ctx context.Context, db *gorm.DB, modelID snowflake.ID, page pagination.Pagination) ([]*SaleRecord, error)
	AllSalesByModel(ctx context.Context, db *gorm.DB, modelID snowflake.ID) ([]SaleRecord, error)
	AllSalesVisible(ctx context.Context, db *gorm.DB, requester authctx.Identity) ([]SaleRecord, error)
	DeleteSale(ctx context.Context, db *gorm.DB, id snowflake.ID) error
}
