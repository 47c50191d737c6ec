package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/salestrackpro/salestrack/internal/account/domain"
	auditdomain "github.com/salestrackpro/salestrack/internal/audit/domain"
	"github.com/salestrackpro/salestrack/internal/auth/password"
	"github.com/salestrackpro/salestrack/internal/authctx"
	"github.com/salestrackpro/salestrack/internal/authorization"
	"github.com/salestrackpro/salestrack/internal/clock"
	"github.com/salestrackpro/salestrack/internal/providers/email"
	"github.com/salestrackpro/salestrack/internal/verification"
	"github.com/salestrackpro/salestrack/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const minPasswordLength = 8

type Params struct {
	fx.In

	DB     *gorm.DB
	Log    *zap.Logger
	GenID  *snowflake.Node
	Clock  clock.Clock
	Repo   domain.Repository
	Authz  authorization.Service
	Audit  auditdomain.Service
	Verify verification.Service
	Email  email.Provider
}

type Service struct {
	db     *gorm.DB
	log    *zap.Logger
	genID  *snowflake.Node
	clock  clock.Clock
	repo   domain.Repository
	authz  authorization.Service
	audit  auditdomain.Service
	verify verification.Service
	email  email.Provider
}

func New(p Params) domain.Service {
	return &Service{
		db:     p.DB,
		log:    p.Log.Named("account.service"),
		genID:  p.GenID,
		clock:  p.Clock,
		repo:   p.Repo,
		authz:  p.Authz,
		audit:  p.Audit,
		verify: p.Verify,
		email:  p.Email,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateAccountRequest) (domain.Account, error) {
	identity, ok := authctx.IdentityFromContext(ctx)
	if !ok {
		return domain.Account{}, domain.ErrForbidden
	}
	if req.Staff && !identity.Root {
		return domain.Account{}, domain.ErrForbidden
	}

	email, err := normalizeEmail(req.Email)
	if err != nil {
		return domain.Account{}, domain.ErrInvalidEmail
	}
	if len(strings.TrimSpace(req.Password)) < minPasswordLength {
		return domain.Account{}, domain.ErrInvalidPassword
	}

	existing, err := s.repo.FindByEmail(ctx, s.db, email)
	if err != nil {
		return domain.Account{}, err
	}
	if existing != nil {
		return domain.Account{}, domain.ErrEmailTaken
	}

	hashed, err := password.Hash(req.Password)
	if err != nil {
		return domain.Account{}, err
	}

	now := s.clock.Now().UTC()
	creatorID := identity.AccountID
	account := domain.Account{
		ID:           s.genID.Generate(),
		Email:        email,
		PasswordHash: &hashed,
		FirstName:    strings.TrimSpace(req.FirstName),
		LastName:     strings.TrimSpace(req.LastName),
		IsActive:     true,
		IsStaff:      req.Staff,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	profile := domain.Profile{
		ID:                 s.genID.Generate(),
		AccountID:          account.ID,
		CreatedBy:          &creatorID,
		LastPasswordChange: now,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if phone := strings.TrimSpace(req.Phone); phone != "" {
		profile.Phone = &phone
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return s.repo.Insert(ctx, tx, &account, &profile)
	})
	if err != nil {
		return domain.Account{}, err
	}

	if req.Staff {
		if err := s.authz.GrantRole(ctx, account.ID, authorization.RoleAdmin); err != nil {
			s.log.Warn("failed to grant admin role",
				zap.String("account_id", account.ID.String()),
				zap.Error(err),
			)
		}
	}

	s.audit.Record(ctx, auditdomain.RecordEventRequest{
		EventType: auditdomain.EventAccountCreated,
		ActorID:   &identity.AccountID,
		Email:     account.Email,
	})

	account.Profile = &profile
	return account, nil
}

func (s *Service) GetByID(ctx context.Context, req domain.GetAccountRequest) (domain.Account, error) {
	identity, ok := authctx.IdentityFromContext(ctx)
	if !ok {
		return domain.Account{}, domain.ErrForbidden
	}

	id, err := parseID(req.ID)
	if err != nil {
		return domain.Account{}, err
	}

	account, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return domain.Account{}, err
	}
	if account == nil || !s.canSee(identity, account) {
		return domain.Account{}, domain.ErrNotFound
	}

	return *account, nil
}

func (s *Service) List(ctx context.Context, req domain.ListAccountRequest) (domain.ListAccountResponse, error) {
	identity, ok := authctx.IdentityFromContext(ctx)
	if !ok {
		return domain.ListAccountResponse{}, domain.ErrForbidden
	}

	pageSize := req.PageSize
	if pageSize <= 0 {
		pageSize = 50
	}

	items, err := s.repo.List(ctx, s.db, identity, domain.ListAccountFilter{
		Email: strings.TrimSpace(req.Email),
		Staff: req.Staff,
	}, pagination.Pagination{
		PageToken: req.PageToken,
		PageSize:  int(pageSize),
	})
	if err != nil {
		return domain.ListAccountResponse{}, err
	}

	pageInfo := pagination.BuildCursorPageInfo(items, int(pageSize), func(account *domain.Account) string {
		token, err := pagination.EncodeCursor(pagination.Cursor{
			ID:        account.ID.String(),
			CreatedAt: account.CreatedAt.Format(time.RFC3339),
		})
		if err != nil {
			return ""
		}
		return token
	})
	if pageInfo != nil && pageInfo.HasMore && len(items) > int(pageSize) {
		items = items[:pageSize]
	}

	accounts := make([]domain.Account, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		accounts = append(accounts, *item)
	}

	resp := domain.ListAccountResponse{Accounts: accounts}
	if pageInfo != nil {
		resp.PageInfo = *pageInfo
	}

	return resp, nil
}

func (s *Service) Update(ctx context.Context, req domain.UpdateAccountRequest) (domain.Account, error) {
	identity, ok := authctx.IdentityFromContext(ctx)
	if !ok {
		return domain.Account{}, domain.ErrForbidden
	}

	id, err := parseID(req.ID)
	if err != nil {
		return domain.Account{}, err
	}

	account, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return domain.Account{}, err
	}
	if account == nil || !s.canSee(identity, account) {
		return domain.Account{}, domain.ErrNotFound
	}
	if !s.canManage(identity, account) {
		return domain.Account{}, domain.ErrForbidden
	}

	now := s.clock.Now().UTC()
	if req.FirstName != nil {
		account.FirstName = strings.TrimSpace(*req.FirstName)
	}
	if req.LastName != nil {
		account.LastName = strings.TrimSpace(*req.LastName)
	}
	if req.IsActive != nil {
		// Nobody deactivates themselves.
		if account.ID == identity.AccountID && !*req.IsActive {
			return domain.Account{}, domain.ErrForbidden
		}
		account.IsActive = *req.IsActive
	}
	account.UpdatedAt = now

	if err := s.repo.Update(ctx, s.db, account); err != nil {
		return domain.Account{}, err
	}

	if req.Phone != nil && account.Profile != nil {
		phone := strings.TrimSpace(*req.Phone)
		if phone == "" {
			account.Profile.Phone = nil
		} else {
			account.Profile.Phone = &phone
		}
		account.Profile.UpdatedAt = now
		if err := s.repo.UpdateProfile(ctx, s.db, account.Profile); err != nil {
			return domain.Account{}, err
		}
	}

	return *account, nil
}

func (s *Service) Delete(ctx context.Context, req domain.DeleteAccountRequest) error {
	identity, ok := authctx.IdentityFromContext(ctx)
	if !ok {
		return domain.ErrForbidden
	}

	id, err := parseID(req.ID)
	if err != nil {
		return err
	}
	if id == identity.AccountID {
		return domain.ErrForbidden
	}

	account, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return err
	}
	if account == nil || !s.canSee(identity, account) {
		return domain.ErrNotFound
	}
	if !s.canManage(identity, account) {
		return domain.ErrForbidden
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return s.repo.Delete(ctx, tx, id)
	})
	if err != nil {
		return err
	}

	if err := s.authz.RevokeRoles(ctx, id); err != nil {
		s.log.Warn("failed to revoke roles",
			zap.String("account_id", id.String()),
			zap.Error(err),
		)
	}

	s.audit.Record(ctx, auditdomain.RecordEventRequest{
		EventType: auditdomain.EventAccountDeleted,
		ActorID:   &identity.AccountID,
		Email:     account.Email,
	})

	return nil
}

func (s *Service) RequestEmailVerification(ctx context.Context) error {
	identity, ok := authctx.IdentityFromContext(ctx)
	if !ok {
		return domain.ErrForbidden
	}

	account, err := s.repo.FindByID(ctx, s.db, identity.AccountID)
	if err != nil {
		return err
	}
	if account == nil {
		return domain.ErrNotFound
	}
	if account.Profile != nil && account.Profile.EmailVerified {
		return nil
	}

	code, err := s.verify.Issue(ctx, account.ID, verification.ChannelEmail)
	if err != nil {
		return err
	}

	subject := "Your verification code"
	text := fmt.Sprintf("Your verification code is %s. It expires in 10 minutes.", code)
	html := fmt.Sprintf("<p>Your verification code is <strong>%s</strong>.</p><p>It expires in 10 minutes.</p>", code)
	if err := s.email.Send(ctx, []string{account.Email}, subject, html, text); err != nil {
		return err
	}

	s.log.Info("verification email sent", zap.String("account_id", account.ID.String()))
	return nil
}

func (s *Service) ConfirmEmailVerification(ctx context.Context, code string) (domain.Account, error) {
	identity, ok := authctx.IdentityFromContext(ctx)
	if !ok {
		return domain.Account{}, domain.ErrForbidden
	}

	if err := s.verify.Check(ctx, identity.AccountID, verification.ChannelEmail, strings.TrimSpace(code)); err != nil {
		if errors.Is(err, verification.ErrCodeMismatch) || errors.Is(err, verification.ErrCodeExpired) {
			return domain.Account{}, domain.ErrInvalidCode
		}
		return domain.Account{}, err
	}

	account, err := s.repo.FindByID(ctx, s.db, identity.AccountID)
	if err != nil {
		return domain.Account{}, err
	}
	if account == nil || account.Profile == nil {
		return domain.Account{}, domain.ErrNotFound
	}

	account.Profile.EmailVerified = true
	account.Profile.UpdatedAt = s.clock.Now().UTC()
	if err := s.repo.UpdateProfile(ctx, s.db, account.Profile); err != nil {
		return domain.Account{}, err
	}

	s.audit.Record(ctx, auditdomain.RecordEventRequest{
		EventType: auditdomain.EventEmailVerified,
		ActorID:   &identity.AccountID,
		Email:     account.Email,
	})

	return *account, nil
}

// canSee applies the account visibility rule: superusers see all,
// everyone else sees themselves and their direct reports.
func (s *Service) canSee(identity authctx.Identity, account *domain.Account) bool {
	if identity.Superuser {
		return true
	}
	if account.ID == identity.AccountID {
		return true
	}
	return account.Profile != nil &&
		account.Profile.CreatedBy != nil &&
		*account.Profile.CreatedBy == identity.AccountID
}

// canManage applies the management rule: an admin manages only accounts
// it created; staff accounts are managed by the root capability alone.
// Accounts may always manage themselves.
func (s *Service) canManage(identity authctx.Identity, account *domain.Account) bool {
	if account.ID == identity.AccountID {
		return true
	}
	if account.IsStaff {
		return identity.Root
	}
	if identity.Superuser {
		return true
	}
	return account.Profile != nil &&
		account.Profile.CreatedBy != nil &&
		*account.Profile.CreatedBy == identity.AccountID
}

func parseID(value string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil || id == 0 {
		return 0, domain.ErrInvalidID
	}
	return id, nil
}

func normalizeEmail(raw string) (string, error) {
	addr, err := mail.ParseAddress(strings.TrimSpace(raw))
	if err != nil {
		return "", err
	}
	return strings.ToLower(strings.TrimSpace(addr.Address)), nil
}
