package domain

import (
	"context"
	"errors"
	"io"

	"github.com/salestrackpro/salestrack/pkg/db/pagination"
	"github.com/shopspring/decimal"
)

type CreateModelRequest struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

type GetModelRequest struct {
	ID string
}

type ListModelRequest struct {
	PageToken string
	PageSize  int32
}

type ListModelResponse struct {
	pagination.PageInfo
	Models []SalesModel `json:"models"`
}

type UpdateModelRequest struct {
	ID        string  `json:"-"`
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
}

type DeleteModelRequest struct {
	ID string
}

type AttachPhotoRequest struct {
	ModelID     string
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

type RecordSaleRequest struct {
	ModelID string          `json:"model_id"`
	Date    string          `json:"date"`
	Amount  decimal.Decimal `json:"amount"`
}

type ListSaleRequest struct {
	ModelID   string
	PageToken string
	PageSize  int32
}

type ListSaleResponse struct {
	pagination.PageInfo
	Sales []SaleRecord `json:"sales"`
}

type DeleteSaleRequest struct {
	ID string
}

type StatsRequest struct {
	ModelID string
}

// Report is the rendered single-page summary for one model.
type Report struct {
	Filename    string
	ContentType string
	Data        []byte
}

// DashboardStats aggregates across every model visible to the caller.
type DashboardStats struct {
	ModelCount int64 `json:"model_count"`
	SaleCount  int64 `json:"sale_count"`
	Stats
}

type Service interface {
	CreateModel(context.Context, CreateModelRequest) (SalesModel, error)
	GetModel(context.Context, GetModelRequest) (SalesModel, error)
	ListModels(context.Context, ListModelRequest) (ListModelResponse, error)
	UpdateModel(context.Context, UpdateModelRequest) (SalesModel, error)
	DeleteModel(context.Context, DeleteModelRequest) error
	AttachPhoto(context.Context, AttachPhotoRequest) (SalesModel, error)

	RecordSale(context.Context, RecordSaleRequest) (SaleRecord, error)
	ListSales(context.Context, ListSaleRequest) (ListSaleResponse, error)
	DeleteSale(context.Context, DeleteSaleRequest) error

	ModelStats(context.Context, StatsRequest) (Stats, error)
	RenderReport(context.Context, StatsRequest) (Report, error)
	Dashboard(context.Context) (DashboardStats, error)
}

var (
	ErrInvalidName   = errors.New("invalid_name")
	ErrInvalidID     = errors.New("invalid_id")
	ErrInvalidDate   = errors.New("invalid_date")
	ErrInvalidAmount = errors.New("invalid_amount")
	ErrInvalidPhoto  = errors.New("invalid_photo")
	ErrPhotoTooLarge = errors.New("photo_too_large")
	ErrNotFound      = errors.New("not_found")
	ErrForbidden     = errors.New("forbidden")
)
