package service

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	accountdomain "github.com/salestrackpro/salestrack/internal/account/domain"
	auditdomain "github.com/salestrackpro/salestrack/internal/audit/domain"
	"github.com/salestrackpro/salestrack/internal/auth/password"
	"github.com/salestrackpro/salestrack/internal/authctx"
	"github.com/salestrackpro/salestrack/internal/authorization"
	"github.com/salestrackpro/salestrack/internal/clock"
	"github.com/salestrackpro/salestrack/internal/config"
	"github.com/salestrackpro/salestrack/internal/invitation/domain"
	"github.com/salestrackpro/salestrack/internal/invitation/validate"
	"github.com/salestrackpro/salestrack/pkg/db"
	"github.com/salestrackpro/salestrack/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	tokenBytes       = 32
	tokenInsertTries = 3

	minPasswordLength = 8
)

type Params struct {
	fx.In

	DB         *gorm.DB
	Log        *zap.Logger
	GenID      *snowflake.Node
	Clock      clock.Clock
	Config     config.Config
	Repo       domain.Repository
	Accounts   accountdomain.Repository
	Authz      authorization.Service
	Audit      auditdomain.Service
	Dispatcher domain.Dispatcher
}

type Service struct {
	db         *gorm.DB
	log        *zap.Logger
	genID      *snowflake.Node
	clock      clock.Clock
	cfg        config.Config
	repo       domain.Repository
	accounts   accountdomain.Repository
	authz      authorization.Service
	audit      auditdomain.Service
	dispatcher domain.Dispatcher
}

func New(p Params) domain.Service {
	return &Service{
		db:         p.DB,
		log:        p.Log.Named("invitation.service"),
		genID:      p.GenID,
		clock:      p.Clock,
		cfg:        p.Config,
		repo:       p.Repo,
		accounts:   p.Accounts,
		authz:      p.Authz,
		audit:      p.Audit,
		dispatcher: p.Dispatcher,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateInvitationRequest) (domain.Invitation, error) {
	identity, ok := authctx.IdentityFromContext(ctx)
	if !ok {
		return domain.Invitation{}, domain.ErrForbidden
	}

	name := strings.TrimSpace(req.ContactName)
	if name == "" {
		return domain.Invitation{}, domain.ErrInvalidName
	}

	now := s.clock.Now().UTC()
	invitation := domain.Invitation{
		ID:          s.genID.Generate(),
		ContactName: name,
		Subject:     strings.TrimSpace(req.Subject),
		Message:     strings.TrimSpace(req.Message),
		Status:      domain.StatusPending,
		ExpiresAt:   now.Add(domain.TTL),
		SentBy:      identity.AccountID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	switch req.InvitationType {
	case domain.TypeEmail:
		// Exactly one channel per invitation; a stray phone on an
		// email invitation is rejected, not dropped.
		if strings.TrimSpace(req.ContactPhone) != "" {
			return domain.Invitation{}, domain.ErrInvalidContact
		}
		email, err := validate.Email(req.ContactEmail, s.cfg.Email.AllowedInviteDomains)
		if err != nil {
			return domain.Invitation{}, err
		}
		// A still-valid invitation for the same address is reused
		// rather than duplicated.
		existing, err := s.repo.FindValidByEmail(ctx, s.db, email, now)
		if err != nil {
			return domain.Invitation{}, err
		}
		if existing != nil {
			return *existing, nil
		}
		invitation.InvitationType = domain.TypeEmail
		invitation.ContactEmail = &email

	case domain.TypeSMS:
		if strings.TrimSpace(req.ContactEmail) != "" {
			return domain.Invitation{}, domain.ErrInvalidContact
		}
		phone, err := validate.Phone(req.ContactPhone)
		if err != nil {
			return domain.Invitation{}, err
		}
		invitation.InvitationType = domain.TypeSMS
		invitation.ContactPhone = &phone

	default:
		return domain.Invitation{}, domain.ErrInvalidType
	}

	// Token uniqueness is enforced by the database constraint; a
	// collision regenerates and retries.
	var insertErr error
	for attempt := 0; attempt < tokenInsertTries; attempt++ {
		token, err := newToken()
		if err != nil {
			return domain.Invitation{}, err
		}
		invitation.Token = token
		insertErr = s.repo.Insert(ctx, s.db, &invitation)
		if insertErr == nil {
			return invitation, nil
		}
		if !db.IsDuplicateKeyErr(insertErr) {
			return domain.Invitation{}, insertErr
		}
	}
	return domain.Invitation{}, insertErr
}

func (s *Service) List(ctx context.Context, req domain.ListInvitationRequest) (domain.ListInvitationResponse, error) {
	identity, ok := authctx.IdentityFromContext(ctx)
	if !ok {
		return domain.ListInvitationResponse{}, domain.ErrForbidden
	}

	pageSize := req.PageSize
	if pageSize <= 0 {
		pageSize = 50
	}

	items, err := s.repo.List(ctx, s.db, identity, domain.ListInvitationFilter{
		Status: strings.TrimSpace(req.Status),
	}, pagination.Pagination{
		PageToken: req.PageToken,
		PageSize:  int(pageSize),
	})
	if err != nil {
		return domain.ListInvitationResponse{}, err
	}

	pageInfo := pagination.BuildCursorPageInfo(items, int(pageSize), func(invitation *domain.Invitation) string {
		token, err := pagination.EncodeCursor(pagination.Cursor{
			ID:        invitation.ID.String(),
			CreatedAt: invitation.CreatedAt.Format(time.RFC3339),
		})
		if err != nil {
			return ""
		}
		return token
	})
	if pageInfo != nil && pageInfo.HasMore && len(items) > int(pageSize) {
		items = items[:pageSize]
	}

	invitations := make([]domain.Invitation, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		invitations = append(invitations, *item)
	}

	resp := domain.ListInvitationResponse{Invitations: invitations}
	if pageInfo != nil {
		resp.PageInfo = *pageInfo
	}

	return resp, nil
}

func (s *Service) GetByID(ctx context.Context, req domain.GetInvitationRequest) (domain.Invitation, error) {
	_, invitation, err := s.visibleInvitation(ctx, req.ID)
	if err != nil {
		return domain.Invitation{}, err
	}
	return *invitation, nil
}

func (s *Service) Send(ctx context.Context, req domain.SendInvitationRequest) error {
	_, invitation, err := s.visibleInvitation(ctx, req.ID)
	if err != nil {
		return err
	}

	now := s.clock.Now().UTC()
	if !invitation.IsValid(now) {
		if invitation.IsExpired(now) {
			return domain.ErrExpired
		}
		return domain.ErrInvalidState
	}

	s.dispatcher.Enqueue(ctx, *invitation)
	return nil
}

func (s *Service) Cancel(ctx context.Context, req domain.CancelInvitationRequest) error {
	_, invitation, err := s.visibleInvitation(ctx, req.ID)
	if err != nil {
		return err
	}

	if invitation.Status != domain.StatusPending && invitation.Status != domain.StatusSent {
		return domain.ErrInvalidState
	}

	now := s.clock.Now().UTC()
	invitation.Status = domain.StatusCancelled
	invitation.UpdatedAt = now
	return s.repo.Update(ctx, s.db, invitation)
}

func (s *Service) Validate(ctx context.Context, token string) (domain.Summary, error) {
	invitation, err := s.repo.FindByToken(ctx, s.db, strings.TrimSpace(token))
	if err != nil {
		return domain.Summary{}, err
	}
	if invitation == nil {
		return domain.Summary{}, domain.ErrNotFound
	}

	now := s.clock.Now().UTC()
	if invitation.IsExpired(now) {
		return domain.Summary{}, domain.ErrExpired
	}
	if invitation.Status != domain.StatusPending && invitation.Status != domain.StatusSent {
		return domain.Summary{}, domain.ErrInvalidState
	}

	return domain.Summary{
		ContactName:    invitation.ContactName,
		ContactEmail:   invitation.ContactEmail,
		ContactPhone:   invitation.ContactPhone,
		InvitationType: invitation.InvitationType,
		Subject:        invitation.Subject,
		Message:        invitation.Message,
		ExpiresAt:      invitation.ExpiresAt,
	}, nil
}

func (s *Service) Consume(ctx context.Context, req domain.ConsumeInvitationRequest) (accountdomain.Account, error) {
	invitation, err := s.repo.FindByToken(ctx, s.db, strings.TrimSpace(req.Token))
	if err != nil {
		return accountdomain.Account{}, err
	}
	if invitation == nil {
		return accountdomain.Account{}, domain.ErrNotFound
	}

	now := s.clock.Now().UTC()
	if !invitation.IsValid(now) {
		return accountdomain.Account{}, domain.ErrInvalidState
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" {
		return accountdomain.Account{}, domain.ErrInvalidContact
	}
	if invitation.InvitationType == domain.TypeEmail {
		if invitation.ContactEmail == nil || !strings.EqualFold(email, *invitation.ContactEmail) {
			return accountdomain.Account{}, domain.ErrEmailMismatch
		}
	}
	if len(strings.TrimSpace(req.Password)) < minPasswordLength {
		return accountdomain.Account{}, domain.ErrInvalidPassword
	}

	existing, err := s.accounts.FindByEmail(ctx, s.db, email)
	if err != nil {
		return accountdomain.Account{}, err
	}
	if existing != nil {
		return accountdomain.Account{}, domain.ErrEmailTaken
	}

	hashed, err := password.Hash(req.Password)
	if err != nil {
		return accountdomain.Account{}, err
	}

	firstName := strings.TrimSpace(req.FirstName)
	lastName := strings.TrimSpace(req.LastName)
	if firstName == "" && lastName == "" {
		firstName = invitation.ContactName
	}

	// New signups become staff admins owning themselves. Everything
	// inside one transaction: the account exists iff the invitation is
	// marked used.
	account := accountdomain.Account{
		ID:           s.genID.Generate(),
		Email:        email,
		PasswordHash: &hashed,
		FirstName:    firstName,
		LastName:     lastName,
		IsActive:     true,
		IsStaff:      true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	profile := accountdomain.Profile{
		ID:                 s.genID.Generate(),
		AccountID:          account.ID,
		CreatedBy:          &account.ID,
		EmailVerified:      invitation.InvitationType == domain.TypeEmail,
		LastPasswordChange: now,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if invitation.ContactPhone != nil {
		profile.Phone = invitation.ContactPhone
		profile.PhoneVerified = invitation.InvitationType == domain.TypeSMS
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.accounts.Insert(ctx, tx, &account, &profile); err != nil {
			return err
		}

		invitation.Status = domain.StatusUsed
		invitation.UsedAt = &now
		invitation.UsedIP = strings.TrimSpace(req.IPAddress)
		invitation.UsedUserAgent = strings.TrimSpace(req.UserAgent)
		invitation.CreatedUserID = &account.ID
		invitation.OwnerID = &account.ID
		invitation.UpdatedAt = now
		return s.repo.Update(ctx, tx, invitation)
	})
	if err != nil {
		if db.IsDuplicateKeyErr(err) {
			return accountdomain.Account{}, domain.ErrEmailTaken
		}
		return accountdomain.Account{}, err
	}

	if err := s.authz.GrantRole(ctx, account.ID, authorization.RoleAdmin); err != nil {
		s.log.Warn("failed to grant admin role to invited account",
			zap.String("account_id", account.ID.String()),
			zap.Error(err),
		)
	}

	s.audit.Record(ctx, auditdomain.RecordEventRequest{
		EventType: auditdomain.EventInvitationUsed,
		ActorID:   &account.ID,
		Email:     email,
		IPAddress: req.IPAddress,
		UserAgent: req.UserAgent,
	})

	account.Profile = &profile
	return account, nil
}

func (s *Service) ExpireOverdue(ctx context.Context) (int64, error) {
	return s.repo.MarkOverdueExpired(ctx, s.db, s.clock.Now().UTC())
}

// visibleInvitation loads an invitation by id and applies the
// visibility rule: full access is a root capability, everyone else is
// limited to invitations they sent or own.
func (s *Service) visibleInvitation(ctx context.Context, rawID string) (authctx.Identity, *domain.Invitation, error) {
	identity, ok := authctx.IdentityFromContext(ctx)
	if !ok {
		return authctx.Identity{}, nil, domain.ErrForbidden
	}

	id, err := snowflake.ParseString(strings.TrimSpace(rawID))
	if err != nil || id == 0 {
		return identity, nil, domain.ErrInvalidID
	}

	invitation, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return identity, nil, err
	}
	if invitation == nil {
		return identity, nil, domain.ErrNotFound
	}
	if !identity.Root {
		visible := invitation.SentBy == identity.AccountID ||
			(invitation.OwnerID != nil && *invitation.OwnerID == identity.AccountID)
		if !visible {
			return identity, nil, domain.ErrNotFound
		}
	}

	return identity, invitation, nil
}

func newToken() (string, error) {
	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
