package domain

import (
	"context"
	"errors"

	invitationdomain "github.com/salestrackpro/salestrack/internal/invitation/domain"
	"github.com/salestrackpro/salestrack/pkg/db/pagination"
)

type CreateMessageRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Subject string `json:"subject"`
	Message string `json:"message"`
}

type ListMessageRequest struct {
	PageToken string
	PageSize  int32
	Unread    *bool
}

// MessageView decorates a stored message with the recency flag.
type MessageView struct {
	ContactMessage
	IsRecent bool `json:"is_recent"`
}

type ListMessageResponse struct {
	pagination.PageInfo
	Messages []MessageView `json:"messages"`
}

type MarkReadRequest struct {
	ID string
}

type DeleteMessageRequest struct {
	ID string
}

type InviteFromMessageRequest struct {
	ID string
}

type Service interface {
	Create(context.Context, CreateMessageRequest) (ContactMessage, error)
	List(context.Context, ListMessageRequest) (ListMessageResponse, error)
	MarkRead(context.Context, MarkReadRequest) (ContactMessage, error)
	Delete(context.Context, DeleteMessageRequest) error
	Invite(context.Context, InviteFromMessageRequest) (invitationdomain.Invitation, error)
}

var (
	ErrInvalidName    = errors.New("invalid_name")
	ErrInvalidEmail   = errors.New("invalid_email")
	ErrInvalidMessage = errors.New("invalid_message")
	ErrInvalidID      = errors.New("invalid_id")
	ErrNotFound       = errors.New("not_found")
	ErrForbidden      = errors.New("forbidden")
)
