package domain

import (
	"context"
	"errors"
	"time"

	account "github.com/salestrackpro/salestrack/internal/account/domain"
	"github.com/salestrackpro/salestrack/pkg/db/pagination"
)

type CreateInvitationRequest struct {
	ContactName    string `json:"contact_name"`
	ContactEmail   string `json:"contact_email"`
	ContactPhone   string `json:"contact_phone"`
	InvitationType string `json:"invitation_type"`
	Subject        string `json:"subject"`
	Message        string `json:"message"`
}

type ListInvitationRequest struct {
	PageToken string
	PageSize  int32
	Status    string
}

type ListInvitationResponse struct {
	pagination.PageInfo
	Invitations []Invitation `json:"invitations"`
}

type GetInvitationRequest struct {
	ID string
}

type SendInvitationRequest struct {
	ID string
}

type CancelInvitationRequest struct {
	ID string
}

// Summary is returned by Validate without exposing internal state.
type Summary struct {
	ContactName    string    `json:"contact_name"`
	ContactEmail   *string   `json:"contact_email,omitempty"`
	ContactPhone   *string   `json:"contact_phone,omitempty"`
	InvitationType string    `json:"invitation_type"`
	Subject        string    `json:"subject"`
	Message        string    `json:"message"`
	ExpiresAt      time.Time `json:"expires_at"`
}

type ConsumeInvitationRequest struct {
	Token     string
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	IPAddress string `json:"-"`
	UserAgent string `json:"-"`
}

type Service interface {
	Create(context.Context, CreateInvitationRequest) (Invitation, error)
	List(context.Context, ListInvitationRequest) (ListInvitationResponse, error)
	GetByID(context.Context, GetInvitationRequest) (Invitation, error)
	Send(context.Context, SendInvitationRequest) error
	Cancel(context.Context, CancelInvitationRequest) error
	Validate(ctx context.Context, token string) (Summary, error)
	Consume(context.Context, ConsumeInvitationRequest) (account.Account, error)
	ExpireOverdue(context.Context) (int64, error)
}

// Dispatcher delivers an invitation asynchronously. On delivery success
// the invitation transitions to sent; on exhausted retries it stays
// pending for a manual resend.
type Dispatcher interface {
	Enqueue(ctx context.Context, invitation Invitation)
}

var (
	ErrInvalidContact  = errors.New("invalid_contact")
	ErrInvalidType     = errors.New("invalid_type")
	ErrInvalidName     = errors.New("invalid_name")
	ErrInvalidID       = errors.New("invalid_id")
	ErrInvalidPassword = errors.New("invalid_password")
	ErrNotFound        = errors.New("not_found")
	ErrExpired         = errors.New("expired")
	ErrInvalidState    = errors.New("invalid_state")
	ErrEmailMismatch   = errors.New("email_mismatch")
	ErrEmailTaken      = errors.New("email_taken")
	ErrForbidden       = errors.New("forbidden")
)
