package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/salestrackpro/salestrack/pkg/db/pagination"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type RecordEventRequest struct {
	EventType string
	ActorID   *snowflake.ID
	Email     string
	IPAddress string
	UserAgent string
	Metadata  datatypes.JSONMap
}

type ListEventRequest struct {
	PageToken string
	PageSize  int32
	EventType string
}

type ListEventResponse struct {
	pagination.PageInfo
	Events []SecurityEvent `json:"events"`
}

// Service records and lists security events. Record never returns an
// error; failures are logged and swallowed.
type Service interface {
	Record(ctx context.Context, req RecordEventRequest)
	List(ctx context.Context, req ListEventRequest) (ListEventResponse, error)
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, event *SecurityEvent) error
	List(ctx context.Context, db *gorm.DB, eventType string, page pagination.Pagination) ([]*SecurityEvent, error)
}

var ErrForbidden = errors.New("forbidden")
