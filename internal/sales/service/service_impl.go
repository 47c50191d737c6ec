package service

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"github.com/salestrackpro/salestrack/internal/authctx"
	"github.com/salestrackpro/salestrack/internal/clock"
	"github.com/salestrackpro/salestrack/internal/config"
	"github.com/salestrackpro/salestrack/internal/ownership"
	"github.com/salestrackpro/salestrack/internal/providers/pdf"
	"github.com/salestrackpro/salestrack/internal/sales/domain"
	"github.com/salestrackpro/salestrack/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const maxPhotoBytes = 5 << 20

var allowedPhotoTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

type Params struct {
	fx.In

	DB     *gorm.DB
	Log    *zap.Logger
	GenID  *snowflake.Node
	Clock  clock.Clock
	Config config.Config
	Repo   domain.Repository
	PDF    pdf.Provider
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock
	cfg   config.Config
	repo  domain.Repository
	pdf   pdf.Provider
}

func New(p Params) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("sales.service"),
		genID: p.GenID,
		clock: p.Clock,
		cfg:   p.Config,
		repo:  p.Repo,
		pdf:   p.PDF,
	}
}

func (s *Service) CreateModel(ctx context.Context, req domain.CreateModelRequest) (domain.SalesModel, error) {
	identity, ok := authctx.IdentityFromContext(ctx)
	if !ok {
		return domain.SalesModel{}, domain.ErrForbidden
	}

	firstName := strings.TrimSpace(req.FirstName)
	if firstName == "" {
		return domain.SalesModel{}, domain.ErrInvalidName
	}

	now := s.clock.Now().UTC()
	creatorID := identity.AccountID
	// The owner is always the authenticated caller, never
	// client-supplied.
	model := domain.SalesModel{
		ID:        s.genID.Generate(),
		OwnerID:   identity.AccountID,
		CreatedBy: &creatorID,
		FirstName: firstName,
		LastName:  strings.TrimSpace(req.LastName),
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repo.InsertModel(ctx, s.db, &model); err != nil {
		return domain.SalesModel{}, err
	}

	return model, nil
}

func (s *Service) GetModel(ctx context.Context, req domain.GetModelRequest) (domain.SalesModel, error) {
	_, model, err := s.visibleModel(ctx, req.ID)
	if err != nil {
		return domain.SalesModel{}, err
	}
	return *model, nil
}

func (s *Service) ListModels(ctx context.Context, req domain.ListModelRequest) (domain.ListModelResponse, error) {
	identity, ok := authctx.IdentityFromContext(ctx)
	if !ok {
		return domain.ListModelResponse{}, domain.ErrForbidden
	}

	pageSize := req.PageSize
	if pageSize <= 0 {
		pageSize = 50
	}

	items, err := s.repo.ListModels(ctx, s.db, identity, pagination.Pagination{
		PageToken: req.PageToken,
		PageSize:  int(pageSize),
	})
	if err != nil {
		return domain.ListModelResponse{}, err
	}

	pageInfo := pagination.BuildCursorPageInfo(items, int(pageSize), func(model *domain.SalesModel) string {
		token, err := pagination.EncodeCursor(pagination.Cursor{
			ID:        model.ID.String(),
			CreatedAt: model.CreatedAt.Format(time.RFC3339),
		})
		if err != nil {
			return ""
		}
		return token
	})
	if pageInfo != nil && pageInfo.HasMore && len(items) > int(pageSize) {
		items = items[:pageSize]
	}

	models := make([]domain.SalesModel, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		models = append(models, *item)
	}

	resp := domain.ListModelResponse{Models: models}
	if pageInfo != nil {
		resp.PageInfo = *pageInfo
	}

	return resp, nil
}

func (s *Service) UpdateModel(ctx context.Context, req domain.UpdateModelRequest) (domain.SalesModel, error) {
	_, model, err := s.visibleModel(ctx, req.ID)
	if err != nil {
		return domain.SalesModel{}, err
	}

	if req.FirstName != nil {
		firstName := strings.TrimSpace(*req.FirstName)
		if firstName == "" {
			return domain.SalesModel{}, domain.ErrInvalidName
		}
		model.FirstName = firstName
	}
	if req.LastName != nil {
		model.LastName = strings.TrimSpace(*req.LastName)
	}
	model.UpdatedAt = s.clock.Now().UTC()

	if err := s.repo.UpdateModel(ctx, s.db, model); err != nil {
		return domain.SalesModel{}, err
	}
	return *model, nil
}

func (s *Service) DeleteModel(ctx context.Context, req domain.DeleteModelRequest) error {
	_, model, err := s.visibleModel(ctx, req.ID)
	if err != nil {
		return err
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return s.repo.DeleteModel(ctx, tx, model.ID)
	})
}

func (s *Service) AttachPhoto(ctx context.Context, req domain.AttachPhotoRequest) (domain.SalesModel, error) {
	_, model, err := s.visibleModel(ctx, req.ModelID)
	if err != nil {
		return domain.SalesModel{}, err
	}

	ext, ok := allowedPhotoTypes[req.ContentType]
	if !ok {
		return domain.SalesModel{}, domain.ErrInvalidPhoto
	}
	if req.Size > maxPhotoBytes {
		return domain.SalesModel{}, domain.ErrPhotoTooLarge
	}

	if err := os.MkdirAll(s.cfg.UploadDir, 0o755); err != nil {
		return domain.SalesModel{}, err
	}

	filename := uuid.NewString() + ext
	path := filepath.Join(s.cfg.UploadDir, filename)
	dst, err := os.Create(path)
	if err != nil {
		return domain.SalesModel{}, err
	}
	defer dst.Close()

	if _, err := io.Copy(dst, io.LimitReader(req.Body, maxPhotoBytes+1)); err != nil {
		os.Remove(path)
		return domain.SalesModel{}, err
	}

	if model.PhotoPath != nil {
		os.Remove(filepath.Join(s.cfg.UploadDir, *model.PhotoPath))
	}

	model.PhotoPath = &filename
	model.UpdatedAt = s.clock.Now().UTC()
	if err := s.repo.UpdateModel(ctx, s.db, model); err != nil {
		os.Remove(path)
		return domain.SalesModel{}, err
	}

	return *model, nil
}

func (s *Service) RecordSale(ctx context.Context, req domain.RecordSaleRequest) (domain.SaleRecord, error) {
	identity, model, err := s.visibleModel(ctx, req.ModelID)
	if err != nil {
		return domain.SaleRecord{}, err
	}

	// Recording a sale is restricted to the owner and its admin chain
	// even for rows the caller can read.
	allowed, err := ownership.CanAccess(s.db.WithContext(ctx), identity, model)
	if err != nil {
		return domain.SaleRecord{}, err
	}
	if !allowed {
		return domain.SaleRecord{}, domain.ErrNotFound
	}

	date, err := time.Parse("2006-01-02", strings.TrimSpace(req.Date))
	if err != nil {
		return domain.SaleRecord{}, domain.ErrInvalidDate
	}
	if req.Amount.IsNegative() || req.Amount.IsZero() {
		return domain.SaleRecord{}, domain.ErrInvalidAmount
	}

	sale := domain.SaleRecord{
		ID:        s.genID.Generate(),
		ModelID:   model.ID,
		Date:      date,
		Amount:    req.Amount.Round(2),
		CreatedAt: s.clock.Now().UTC(),
	}
	if err := s.repo.InsertSale(ctx, s.db, &sale); err != nil {
		return domain.SaleRecord{}, err
	}
	return sale, nil
}

func (s *Service) ListSales(ctx context.Context, req domain.ListSaleRequest) (domain.ListSaleResponse, error) {
	_, model, err := s.visibleModel(ctx, req.ModelID)
	if err != nil {
		return domain.ListSaleResponse{}, err
	}

	pageSize := req.PageSize
	if pageSize <= 0 {
		pageSize = 100
	}

	items, err := s.repo.ListSalesByModel(ctx, s.db, model.ID, pagination.Pagination{
		PageToken: req.PageToken,
		PageSize:  int(pageSize),
	})
	if err != nil {
		return domain.ListSaleResponse{}, err
	}

	pageInfo := pagination.BuildCursorPageInfo(items, int(pageSize), func(sale *domain.SaleRecord) string {
		token, err := pagination.EncodeCursor(pagination.Cursor{
			ID:        sale.ID.String(),
			CreatedAt: sale.CreatedAt.Format(time.RFC3339),
		})
		if err != nil {
			return ""
		}
		return token
	})
	if pageInfo != nil && pageInfo.HasMore && len(items) > int(pageSize) {
		items = items[:pageSize]
	}

	sales := make([]domain.SaleRecord, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		sales = append(sales, *item)
	}

	resp := domain.ListSaleResponse{Sales: sales}
	if pageInfo != nil {
		resp.PageInfo = *pageInfo
	}

	return resp, nil
}

func (s *Service) DeleteSale(ctx context.Context, req domain.DeleteSaleRequest) error {
	identity, ok := authctx.IdentityFromContext(ctx)
	if !ok {
		return domain.ErrForbidden
	}

	id, err := parseID(req.ID)
	if err != nil {
		return err
	}

	sale, err := s.repo.FindSaleByID(ctx, s.db, id)
	if err != nil {
		return err
	}
	if sale == nil {
		return domain.ErrNotFound
	}

	model, err := s.repo.FindModelByID(ctx, s.db, sale.ModelID)
	if err != nil {
		return err
	}
	if model == nil {
		return domain.ErrNotFound
	}
	allowed, err := ownership.CanAccess(s.db.WithContext(ctx), identity, model)
	if err != nil {
		return err
	}
	if !allowed {
		return domain.ErrNotFound
	}

	return s.repo.DeleteSale(ctx, s.db, id)
}

func (s *Service) ModelStats(ctx context.Context, req domain.StatsRequest) (domain.Stats, error) {
	_, model, err := s.visibleModel(ctx, req.ModelID)
	if err != nil {
		return domain.Stats{}, err
	}

	records, err := s.repo.AllSalesByModel(ctx, s.db, model.ID)
	if err != nil {
		return domain.Stats{}, err
	}
	return domain.ComputeStats(records), nil
}

func (s *Service) RenderReport(ctx context.Context, req domain.StatsRequest) (domain.Report, error) {
	_, model, err := s.visibleModel(ctx, req.ModelID)
	if err != nil {
		return domain.Report{}, err
	}

	records, err := s.repo.AllSalesByModel(ctx, s.db, model.ID)
	if err != nil {
		return domain.Report{}, err
	}
	stats := domain.ComputeStats(records)

	lines := make([]pdf.ReportLine, 0, len(records))
	for _, record := range records {
		lines = append(lines, pdf.ReportLine{
			Date:   record.Date.Format("2006-01-02"),
			Amount: "$" + record.Amount.StringFixed(2),
			Net:    "$" + record.Net().StringFixed(2),
			Fee:    "$" + record.Fee().StringFixed(2),
		})
	}

	now := s.clock.Now().UTC()
	reader, err := s.pdf.GenerateSalesReport(ctx, pdf.ReportData{
		ModelName:     model.FullName(),
		GeneratedAt:   now.Format("2006-01-02 15:04 UTC"),
		Gross:         "$" + stats.Gross.StringFixed(2),
		Net:           "$" + stats.Net.StringFixed(2),
		Fees:          "$" + stats.Fees.StringFixed(2),
		DaysWithSales: stats.DaysWithSales,
		Lines:         lines,
	})
	if err != nil {
		return domain.Report{}, err
	}

	data, err := io.ReadAll(reader)
	if err != nil {
		return domain.Report{}, err
	}

	return domain.Report{
		Filename:    fmt.Sprintf("sales-report-%s.pdf", slug.Make(model.FullName())),
		ContentType: "application/pdf",
		Data:        data,
	}, nil
}

func (s *Service) Dashboard(ctx context.Context) (domain.DashboardStats, error) {
	identity, ok := authctx.IdentityFromContext(ctx)
	if !ok {
		return domain.DashboardStats{}, domain.ErrForbidden
	}

	modelCount, err := s.repo.CountModels(ctx, s.db, identity)
	if err != nil {
		return domain.DashboardStats{}, err
	}

	records, err := s.repo.AllSalesVisible(ctx, s.db, identity)
	if err != nil {
		return domain.DashboardStats{}, err
	}

	return domain.DashboardStats{
		ModelCount: modelCount,
		SaleCount:  int64(len(records)),
		Stats:      domain.ComputeStats(records),
	}, nil
}

// visibleModel loads a model and applies the visibility scope:
// superusers see all, everyone else sees models owned by themselves or
// a direct report. Invisible rows read as not found.
func (s *Service) visibleModel(ctx context.Context, rawID string) (authctx.Identity, *domain.SalesModel, error) {
	identity, ok := authctx.IdentityFromContext(ctx)
	if !ok {
		return authctx.Identity{}, nil, domain.ErrForbidden
	}

	id, err := parseID(rawID)
	if err != nil {
		return identity, nil, err
	}

	model, err := s.repo.FindModelByID(ctx, s.db, id)
	if err != nil {
		return identity, nil, err
	}
	if model == nil {
		return identity, nil, domain.ErrNotFound
	}

	allowed, err := ownership.CanAccess(s.db.WithContext(ctx), identity, model)
	if err != nil {
		return identity, nil, err
	}
	if !allowed {
		return identity, nil, domain.ErrNotFound
	}

	return identity, model, nil
}

func parseID(value string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil || id == 0 {
		return 0, domain.ErrInvalidID
	}
	return id, nil
}
