package domain

import (
	"context"
	"errors"
	"time"

	"github.com/salestrackpro/salestrack/pkg/db/pagination"
)

// Lockout policy applied by the auth flow.
const (
	MaxFailedLogins = 5
	LockoutDuration = 30 * time.Minute
)

type CreateAccountRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone"`
	Staff     bool   `json:"staff"`
}

type GetAccountRequest struct {
	ID string
}

type ListAccountRequest struct {
	PageToken string
	PageSize  int32
	Email     string
	Staff     *bool
}

type ListAccountResponse struct {
	pagination.PageInfo
	Accounts []Account `json:"accounts"`
}

type UpdateAccountRequest struct {
	ID        string  `json:"-"`
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
	IsActive  *bool   `json:"is_active"`
	Phone     *string `json:"phone"`
}

type DeleteAccountRequest struct {
	ID string
}

type Service interface {
	Create(context.Context, CreateAccountRequest) (Account, error)
	GetByID(context.Context, GetAccountRequest) (Account, error)
	List(context.Context, ListAccountRequest) (ListAccountResponse, error)
	Update(context.Context, UpdateAccountRequest) (Account, error)
	Delete(context.Context, DeleteAccountRequest) error

	// Email verification for the calling identity: a short-lived code is
	// mailed out, then confirmed to flip the profile's email_verified flag.
	RequestEmailVerification(ctx context.Context) error
	ConfirmEmailVerification(ctx context.Context, code string) (Account, error)
}

var (
	ErrInvalidEmail    = errors.New("invalid_email")
	ErrInvalidPassword = errors.New("invalid_password")
	ErrInvalidID       = errors.New("invalid_id")
	ErrInvalidCode     = errors.New("invalid_code")
	ErrEmailTaken      = errors.New("email_taken")
	ErrNotFound        = errors.New("not_found")
	ErrForbidden       = errors.New("forbidden")
	ErrAccountLocked   = errors.New("account_locked")
	ErrAccountInactive = errors.New("account_inactive")
)
