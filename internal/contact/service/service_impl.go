package service

import (
	"context"
	"net/mail"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/salestrackpro/salestrack/internal/authctx"
	"github.com/salestrackpro/salestrack/internal/clock"
	"github.com/salestrackpro/salestrack/internal/contact/domain"
	invitationdomain "github.com/salestrackpro/salestrack/internal/invitation/domain"
	"github.com/salestrackpro/salestrack/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB          *gorm.DB
	Log         *zap.Logger
	GenID       *snowflake.Node
	Clock       clock.Clock
	Repo        domain.Repository
	Invitations invitationdomain.Service
}

type Service struct {
	db          *gorm.DB
	log         *zap.Logger
	genID       *snowflake.Node
	clock       clock.Clock
	repo        domain.Repository
	invitations invitationdomain.Service
}

func New(p Params) domain.Service {
	return &Service{
		db:          p.DB,
		log:         p.Log.Named("contact.service"),
		genID:       p.GenID,
		clock:       p.Clock,
		repo:        p.Repo,
		invitations: p.Invitations,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateMessageRequest) (domain.ContactMessage, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return domain.ContactMessage{}, domain.ErrInvalidName
	}

	addr, err := mail.ParseAddress(strings.TrimSpace(req.Email))
	if err != nil {
		return domain.ContactMessage{}, domain.ErrInvalidEmail
	}

	body := strings.TrimSpace(req.Message)
	if body == "" {
		return domain.ContactMessage{}, domain.ErrInvalidMessage
	}

	now := s.clock.Now().UTC()
	message := domain.ContactMessage{
		ID:        s.genID.Generate(),
		Name:      name,
		Email:     strings.ToLower(addr.Address),
		Subject:   strings.TrimSpace(req.Subject),
		Message:   body,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repo.Insert(ctx, s.db, &message); err != nil {
		return domain.ContactMessage{}, err
	}
	return message, nil
}

func (s *Service) List(ctx context.Context, req domain.ListMessageRequest) (domain.ListMessageResponse, error) {
	identity, ok := authctx.IdentityFromContext(ctx)
	if !ok || !identity.Root {
		return domain.ListMessageResponse{}, domain.ErrForbidden
	}

	pageSize := req.PageSize
	if pageSize <= 0 {
		pageSize = 50
	}

	items, err := s.repo.List(ctx, s.db, domain.ListMessageFilter{
		Unread: req.Unread,
	}, pagination.Pagination{
		PageToken: req.PageToken,
		PageSize:  int(pageSize),
	})
	if err != nil {
		return domain.ListMessageResponse{}, err
	}

	pageInfo := pagination.BuildCursorPageInfo(items, int(pageSize), func(message *domain.ContactMessage) string {
		token, err := pagination.EncodeCursor(pagination.Cursor{
			ID:        message.ID.String(),
			CreatedAt: message.CreatedAt.Format(time.RFC3339),
		})
		if err != nil {
			return ""
		}
		return token
	})
	if pageInfo != nil && pageInfo.HasMore && len(items) > int(pageSize) {
		items = items[:pageSize]
	}

	now := s.clock.Now().UTC()
	messages := make([]domain.MessageView, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		messages = append(messages, domain.MessageView{
			ContactMessage: *item,
			IsRecent:       item.IsRecent(now),
		})
	}

	resp := domain.ListMessageResponse{Messages: messages}
	if pageInfo != nil {
		resp.PageInfo = *pageInfo
	}

	return resp, nil
}

func (s *Service) MarkRead(ctx context.Context, req domain.MarkReadRequest) (domain.ContactMessage, error) {
	message, err := s.rootMessage(ctx, req.ID)
	if err != nil {
		return domain.ContactMessage{}, err
	}

	if !message.Read {
		message.Read = true
		message.UpdatedAt = s.clock.Now().UTC()
		if err := s.repo.Update(ctx, s.db, message); err != nil {
			return domain.ContactMessage{}, err
		}
	}
	return *message, nil
}

func (s *Service) Delete(ctx context.Context, req domain.DeleteMessageRequest) error {
	message, err := s.rootMessage(ctx, req.ID)
	if err != nil {
		return err
	}
	return s.repo.Delete(ctx, s.db, message.ID)
}

// Invite turns a contact message into an email invitation, carrying the
// sender's name, address, subject and message over.
func (s *Service) Invite(ctx context.Context, req domain.InviteFromMessageRequest) (invitationdomain.Invitation, error) {
	message, err := s.rootMessage(ctx, req.ID)
	if err != nil {
		return invitationdomain.Invitation{}, err
	}

	invitation, err := s.invitations.Create(ctx, invitationdomain.CreateInvitationRequest{
		ContactName:    message.Name,
		ContactEmail:   message.Email,
		InvitationType: invitationdomain.TypeEmail,
		Subject:        message.Subject,
		Message:        message.Message,
	})
	if err != nil {
		return invitationdomain.Invitation{}, err
	}

	if !message.Read {
		message.Read = true
		message.UpdatedAt = s.clock.Now().UTC()
		if err := s.repo.Update(ctx, s.db, message); err != nil {
			s.log.Warn("failed to mark invited message read",
				zap.String("message_id", message.ID.String()),
				zap.Error(err),
			)
		}
	}

	return invitation, nil
}

func (s *Service) rootMessage(ctx context.Context, rawID string) (*domain.ContactMessage, error) {
	identity, ok := authctx.IdentityFromContext(ctx)
	if !ok || !identity.Root {
		return nil, domain.ErrForbidden
	}

	id, err := snowflake.ParseString(strings.TrimSpace(rawID))
	if err != nil || id == 0 {
		return nil, domain.ErrInvalidID
	}

	message, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if message == nil {
		return nil, domain.ErrNotFound
	}
	return message, nil
}
