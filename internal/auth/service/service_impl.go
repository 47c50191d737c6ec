package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"net/mail"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	accountdomain "github.com/salestrackpro/salestrack/internal/account/domain"
	auditdomain "github.com/salestrackpro/salestrack/internal/audit/domain"
	"github.com/salestrackpro/salestrack/internal/auth/domain"
	"github.com/salestrackpro/salestrack/internal/auth/password"
	"github.com/salestrackpro/salestrack/internal/clock"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	sessionTokenBytes = 32
	sessionTTL        = 7 * 24 * time.Hour

	minPasswordLength = 8
)

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	GenID    *snowflake.Node
	Clock    clock.Clock
	Accounts accountdomain.Repository
	Sessions domain.SessionRepository
	Audit    auditdomain.Service
}

type Service struct {
	db       *gorm.DB
	log      *zap.Logger
	genID    *snowflake.Node
	clock    clock.Clock
	accounts accountdomain.Repository
	sessions domain.SessionRepository
	audit    auditdomain.Service
}

func New(p Params) domain.Service {
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("auth.service"),
		genID:    p.GenID,
		clock:    p.Clock,
		accounts: p.Accounts,
		sessions: p.Sessions,
		audit:    p.Audit,
	}
}

func (s *Service) Login(ctx context.Context, req domain.LoginRequest) (*domain.LoginResult, error) {
	email, err := normalizeEmail(req.Email)
	if err != nil {
		return nil, domain.ErrInvalidCredentials
	}
	if strings.TrimSpace(req.Password) == "" {
		return nil, domain.ErrInvalidCredentials
	}

	account, err := s.accounts.FindByEmail(ctx, s.db, email)
	if err != nil {
		return nil, err
	}
	if account == nil || !account.IsActive {
		s.recordFailure(ctx, nil, email, req)
		return nil, domain.ErrInvalidCredentials
	}

	now := s.clock.Now().UTC()
	profile := account.Profile
	if profile != nil && profile.IsLocked(now) {
		return nil, domain.ErrAccountLocked
	}

	if account.PasswordHash == nil || !password.Verify(req.Password, *account.PasswordHash) {
		s.registerFailedLogin(ctx, account, now)
		s.recordFailure(ctx, &account.ID, email, req)
		return nil, domain.ErrInvalidCredentials
	}

	if profile != nil && (profile.FailedLoginAttempts > 0 || profile.LockedUntil != nil) {
		profile.FailedLoginAttempts = 0
		profile.LockedUntil = nil
		profile.UpdatedAt = now
		if err := s.accounts.UpdateProfile(ctx, s.db, profile); err != nil {
			return nil, err
		}
	}

	rawToken, err := newSessionToken()
	if err != nil {
		return nil, err
	}

	session := &domain.Session{
		ID:               s.genID.Generate(),
		AccountID:        account.ID,
		SessionTokenHash: hashToken(rawToken),
		UserAgent:        strings.TrimSpace(req.UserAgent),
		IPAddress:        strings.TrimSpace(req.IPAddress),
		ExpiresAt:        now.Add(sessionTTL),
		CreatedAt:        now,
		LastSeenAt:       now,
	}
	if err := s.sessions.CreateSession(ctx, s.db, session); err != nil {
		return nil, err
	}

	s.audit.Record(ctx, auditdomain.RecordEventRequest{
		EventType: auditdomain.EventLoginSuccess,
		ActorID:   &account.ID,
		Email:     account.Email,
		IPAddress: req.IPAddress,
		UserAgent: req.UserAgent,
	})

	return &domain.LoginResult{
		Account:   account,
		RawToken:  rawToken,
		ExpiresAt: session.ExpiresAt,
		SessionID: session.ID,
	}, nil
}

func (s *Service) Logout(ctx context.Context, rawToken string) error {
	token := strings.TrimSpace(rawToken)
	if token == "" {
		return domain.ErrInvalidSession
	}

	session, err := s.sessions.GetSessionByTokenHash(ctx, s.db, hashToken(token))
	if err != nil {
		if err == domain.ErrSessionNotFound {
			return domain.ErrInvalidSession
		}
		return err
	}

	return s.sessions.RevokeSession(ctx, s.db, session.ID, s.clock.Now().UTC())
}

func (s *Service) Authenticate(ctx context.Context, rawToken string) (*accountdomain.Account, *domain.Session, error) {
	token := strings.TrimSpace(rawToken)
	if token == "" {
		return nil, nil, domain.ErrInvalidSession
	}

	session, err := s.sessions.GetSessionByTokenHash(ctx, s.db, hashToken(token))
	if err != nil {
		if err == domain.ErrSessionNotFound {
			return nil, nil, domain.ErrInvalidSession
		}
		return nil, nil, err
	}

	now := s.clock.Now().UTC()
	if session.RevokedAt != nil {
		return nil, nil, domain.ErrSessionRevoked
	}
	if now.After(session.ExpiresAt) {
		return nil, nil, domain.ErrSessionExpired
	}

	account, err := s.accounts.FindByID(ctx, s.db, session.AccountID)
	if err != nil {
		return nil, nil, err
	}
	if account == nil || !account.IsActive {
		return nil, nil, domain.ErrInvalidSession
	}

	if err := s.sessions.UpdateLastSeen(ctx, s.db, session.ID, now); err != nil {
		return nil, nil, err
	}

	return account, session, nil
}

func (s *Service) ChangePassword(ctx context.Context, accountID snowflake.ID, currentPassword, newPassword string) error {
	if len(strings.TrimSpace(newPassword)) < minPasswordLength {
		return domain.ErrWeakPassword
	}

	account, err := s.accounts.FindByID(ctx, s.db, accountID)
	if err != nil {
		return err
	}
	if account == nil {
		return domain.ErrInvalidCredentials
	}
	if account.PasswordHash == nil || !password.Verify(currentPassword, *account.PasswordHash) {
		return domain.ErrInvalidCredentials
	}

	hashed, err := password.Hash(newPassword)
	if err != nil {
		return err
	}

	now := s.clock.Now().UTC()
	account.PasswordHash = &hashed
	account.UpdatedAt = now
	if err := s.accounts.Update(ctx, s.db, account); err != nil {
		return err
	}

	if account.Profile != nil {
		account.Profile.LastPasswordChange = now
		account.Profile.UpdatedAt = now
		if err := s.accounts.UpdateProfile(ctx, s.db, account.Profile); err != nil {
			return err
		}
	}

	s.audit.Record(ctx, auditdomain.RecordEventRequest{
		EventType: auditdomain.EventPasswordChanged,
		ActorID:   &account.ID,
		Email:     account.Email,
	})

	return nil
}

// registerFailedLogin bumps the failure counter and locks the account
// once the threshold is reached. The counter resets when the lock is
// applied so a later unlock starts clean.
func (s *Service) registerFailedLogin(ctx context.Context, account *accountdomain.Account, now time.Time) {
	profile := account.Profile
	if profile == nil {
		return
	}

	profile.FailedLoginAttempts++
	if profile.FailedLoginAttempts >= accountdomain.MaxFailedLogins {
		lockedUntil := now.Add(accountdomain.LockoutDuration)
		profile.LockedUntil = &lockedUntil
		profile.FailedLoginAttempts = 0

		s.audit.Record(ctx, auditdomain.RecordEventRequest{
			EventType: auditdomain.EventAccountLocked,
			ActorID:   &account.ID,
			Email:     account.Email,
			Metadata:  datatypes.JSONMap{"locked_until": lockedUntil.Format(time.RFC3339)},
		})
	}
	profile.UpdatedAt = now

	if err := s.accounts.UpdateProfile(ctx, s.db, profile); err != nil {
		s.log.Warn("failed to persist login failure counter",
			zap.String("account_id", account.ID.String()),
			zap.Error(err),
		)
	}
}

func (s *Service) recordFailure(ctx context.Context, actorID *snowflake.ID, email string, req domain.LoginRequest) {
	s.audit.Record(ctx, auditdomain.RecordEventRequest{
		EventType: auditdomain.EventLoginFailed,
		ActorID:   actorID,
		Email:     email,
		IPAddress: req.IPAddress,
		UserAgent: req.UserAgent,
	})
}

func normalizeEmail(raw string) (string, error) {
	addr, err := mail.ParseAddress(strings.TrimSpace(raw))
	if err != nil {
		return "", err
	}
	return strings.ToLower(strings.TrimSpace(addr.Address)), nil
}

func newSessionToken() (string, error) {
	buf := make([]byte, sessionTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

func hashToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
