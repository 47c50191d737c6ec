package service

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/salestrackpro/salestrack/internal/audit/domain"
	"github.com/salestrackpro/salestrack/internal/authctx"
	"github.com/salestrackpro/salestrack/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Repo  domain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	repo  domain.Repository
}

func New(p Params) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("audit.service"),
		genID: p.GenID,
		repo:  p.Repo,
	}
}

func (s *Service) Record(ctx context.Context, req domain.RecordEventRequest) {
	metadata := req.Metadata
	if metadata == nil {
		metadata = datatypes.JSONMap{}
	}
	event := domain.SecurityEvent{
		ID:        s.genID.Generate(),
		EventType: req.EventType,
		ActorID:   req.ActorID,
		Email:     req.Email,
		IPAddress: req.IPAddress,
		UserAgent: req.UserAgent,
		Metadata:  metadata,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.repo.Insert(ctx, s.db, &event); err != nil {
		s.log.Warn("failed to record security event",
			zap.String("event_type", req.EventType),
			zap.Error(err),
		)
	}
}

func (s *Service) List(ctx context.Context, req domain.ListEventRequest) (domain.ListEventResponse, error) {
	identity, ok := authctx.IdentityFromContext(ctx)
	if !ok || !identity.Root {
		return domain.ListEventResponse{}, domain.ErrForbidden
	}

	pageSize := req.PageSize
	if pageSize <= 0 {
		pageSize = 50
	}

	items, err := s.repo.List(ctx, s.db, req.EventType, pagination.Pagination{
		PageToken: req.PageToken,
		PageSize:  int(pageSize),
	})
	if err != nil {
		return domain.ListEventResponse{}, err
	}

	pageInfo := pagination.BuildCursorPageInfo(items, int(pageSize), func(event *domain.SecurityEvent) string {
		token, err := pagination.EncodeCursor(pagination.Cursor{
			ID:        event.ID.String(),
			CreatedAt: event.CreatedAt.Format(time.RFC3339),
		})
		if err != nil {
			return ""
		}
		return token
	})
	if pageInfo != nil && pageInfo.HasMore && len(items) > int(pageSize) {
		items = items[:pageSize]
	}

	events := make([]domain.SecurityEvent, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		events = append(events, *item)
	}

	resp := domain.ListEventResponse{Events: events}
	if pageInfo != nil {
		resp.PageInfo = *pageInfo
	}

	return resp, nil
}
