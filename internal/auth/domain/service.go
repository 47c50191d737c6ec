package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	account "github.com/salestrackpro/salestrack/internal/account/domain"
)

type LoginRequest struct {
	Email     string
	Password  string
	UserAgent string
	IPAddress string
}

type LoginResult struct {
	Account   *account.Account
	RawToken  string
	ExpiresAt time.Time
	SessionID snowflake.ID
}

type Service interface {
	Login(ctx context.Context, req LoginRequest) (*LoginResult, error)
	Logout(ctx context.Context, rawToken string) error
	Authenticate(ctx context.Context, rawToken string) (*account.Account, *Session, error)
	ChangePassword(ctx context.Context, accountID snowflake.ID, currentPassword, newPassword string) error
}
