package dispatch

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/salestrackpro/salestrack/internal/audit/domain"
	"github.com/salestrackpro/salestrack/internal/clock"
	"github.com/salestrackpro/salestrack/internal/config"
	invitationdomain "github.com/salestrackpro/salestrack/internal/invitation/domain"
	invitationrepo "github.com/salestrackpro/salestrack/internal/invitation/repository"
	"github.com/salestrackpro/salestrack/pkg/db"
	"go.uber.org/zap"
)

type fakeEmail struct {
	mu       sync.Mutex
	failures int
	sent     [][]string
}

func (f *fakeEmail) Send(ctx context.Context, to []string, subject, htmlBody, textBody string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failures > 0 {
		f.failures--
		return errors.New("smtp unavailable")
	}
	f.sent = append(f.sent, to)
	return nil
}

type fakeSMS struct {
	mu   sync.Mutex
	sent []string
}

func (f *fakeSMS) Name() string { return "fake" }

func (f *fakeSMS) Send(ctx context.Context, phone, message string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, phone)
	return nil
}

type fakeAudit struct {
	mu     sync.Mutex
	events []string
	reqs   []auditdomain.RecordEventRequest
}

func (f *fakeAudit) Record(ctx context.Context, req auditdomain.RecordEventRequest) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, req.EventType)
	f.reqs = append(f.reqs, req)
}

func (f *fakeAudit) List(ctx context.Context, req auditdomain.ListEventRequest) (auditdomain.ListEventResponse, error) {
	return auditdomain.ListEventResponse{}, nil
}

func newTestDispatcher(t *testing.T, emailProvider *fakeEmail, smsProvider *fakeSMS) (*Dispatcher, *fakeAudit, invitationdomain.Repository) {
	t.Helper()

	conn, err := db.NewTest()
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if err := conn.AutoMigrate(&invitationdomain.Invitation{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	holder := config.NewStaticNotificationConfigHolder(config.NotificationConfig{
		SMSProviders: []config.SMSProviderConfig{{Name: "textbelt", APIKey: "textbelt"}},
		Retry: config.RetryConfig{
			MaxAttempts: 3,
			BaseDelay:   time.Millisecond,
			Multiplier:  3,
		},
		HTTPTimeout: time.Second,
	})

	audit := &fakeAudit{}
	repo := invitationrepo.Provide()

	d := New(Params{
		DB:     conn,
		Log:    zap.NewNop(),
		Clock:  clock.NewFakeClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)),
		Config: config.Config{FrontendURL: "https://app.example.com"},
		Holder: holder,
		Email:  emailProvider,
		SMS:    smsProvider,
		Repo:   repo,
		Audit:  audit,
	})
	return d, audit, repo
}

func seedInvitation(t *testing.T, d *Dispatcher, repo invitationdomain.Repository, invitationType string) invitationdomain.Invitation {
	t.Helper()
	now := d.clock.Now()
	email := "jane.doe@gmail.com"
	phone := "+33612345678"
	invitation := invitationdomain.Invitation{
		ID:             snowflake.ID(1001),
		ContactName:    "Jane Doe",
		InvitationType: invitationType,
		Token:          "test-token-abc",
		Status:         invitationdomain.StatusPending,
		ExpiresAt:      now.Add(invitationdomain.TTL),
		SentBy:         snowflake.ID(42),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	switch invitationType {
	case invitationdomain.TypeEmail:
		invitation.ContactEmail = &email
	case invitationdomain.TypeSMS:
		invitation.ContactPhone = &phone
	}
	if err := repo.Insert(context.Background(), d.db, &invitation); err != nil {
		t.Fatalf("insert invitation: %v", err)
	}
	return invitation
}

func TestProcessMarksSentOnDelivery(t *testing.T) {
	emailProvider := &fakeEmail{}
	d, audit, repo := newTestDispatcher(t, emailProvider, &fakeSMS{})
	invitation := seedInvitation(t, d, repo, invitationdomain.TypeEmail)

	d.process(context.Background(), invitation)

	if len(emailProvider.sent) != 1 {
		t.Fatalf("expected 1 email, got %d", len(emailProvider.sent))
	}
	stored, err := repo.FindByID(context.Background(), d.db, invitation.ID)
	if err != nil || stored == nil {
		t.Fatalf("reload invitation: %v", err)
	}
	if stored.Status != invitationdomain.StatusSent {
		t.Fatalf("expected status sent, got %q", stored.Status)
	}
	if len(audit.events) != 1 || audit.events[0] != auditdomain.EventInvitationSent {
		t.Fatalf("expected invitation_sent audit event, got %v", audit.events)
	}
}

func TestProcessRetriesThenSucceeds(t *testing.T) {
	emailProvider := &fakeEmail{failures: 2}
	d, _, repo := newTestDispatcher(t, emailProvider, &fakeSMS{})
	invitation := seedInvitation(t, d, repo, invitationdomain.TypeEmail)

	d.process(context.Background(), invitation)

	if len(emailProvider.sent) != 1 {
		t.Fatalf("expected delivery on third attempt, got %d sends", len(emailProvider.sent))
	}
	stored, _ := repo.FindByID(context.Background(), d.db, invitation.ID)
	if stored.Status != invitationdomain.StatusSent {
		t.Fatalf("expected status sent, got %q", stored.Status)
	}
}

func TestProcessExhaustedRetriesLeavesPending(t *testing.T) {
	emailProvider := &fakeEmail{failures: 10}
	d, audit, repo := newTestDispatcher(t, emailProvider, &fakeSMS{})
	invitation := seedInvitation(t, d, repo, invitationdomain.TypeEmail)

	d.process(context.Background(), invitation)

	stored, _ := repo.FindByID(context.Background(), d.db, invitation.ID)
	if stored.Status != invitationdomain.StatusPending {
		t.Fatalf("expected invitation to stay pending, got %q", stored.Status)
	}
	if len(audit.events) != 1 || audit.events[0] != auditdomain.EventInvitationFailed {
		t.Fatalf("expected dispatch failure audit event, got %v", audit.events)
	}
}

func TestProcessSMSDelivery(t *testing.T) {
	smsProvider := &fakeSMS{}
	d, _, repo := newTestDispatcher(t, &fakeEmail{}, smsProvider)
	invitation := seedInvitation(t, d, repo, invitationdomain.TypeSMS)

	d.process(context.Background(), invitation)

	if len(smsProvider.sent) != 1 || smsProvider.sent[0] != "+33612345678" {
		t.Fatalf("expected sms to +33612345678, got %v", smsProvider.sent)
	}
}

func TestProcessDoesNotOverwriteTerminalStatus(t *testing.T) {
	emailProvider := &fakeEmail{}
	d, _, repo := newTestDispatcher(t, emailProvider, &fakeSMS{})
	invitation := seedInvitation(t, d, repo, invitationdomain.TypeEmail)

	stored, _ := repo.FindByID(context.Background(), d.db, invitation.ID)
	stored.Status = invitationdomain.StatusCancelled
	if err := repo.Update(context.Background(), d.db, stored); err != nil {
		t.Fatalf("update: %v", err)
	}

	d.process(context.Background(), invitation)

	stored, _ = repo.FindByID(context.Background(), d.db, invitation.ID)
	if stored.Status != invitationdomain.StatusCancelled {
		t.Fatalf("cancelled invitation must stay cancelled, got %q", stored.Status)
	}
}

func TestProcessResendAuditsRedelivery(t *testing.T) {
	emailProvider := &fakeEmail{}
	d, audit, repo := newTestDispatcher(t, emailProvider, &fakeSMS{})
	invitation := seedInvitation(t, d, repo, invitationdomain.TypeEmail)

	stored, _ := repo.FindByID(context.Background(), d.db, invitation.ID)
	stored.Status = invitationdomain.StatusSent
	if err := repo.Update(context.Background(), d.db, stored); err != nil {
		t.Fatalf("update: %v", err)
	}

	d.process(context.Background(), invitation)

	if len(emailProvider.sent) != 1 {
		t.Fatalf("expected redelivery, got %d sends", len(emailProvider.sent))
	}
	stored, _ = repo.FindByID(context.Background(), d.db, invitation.ID)
	if stored.Status != invitationdomain.StatusSent {
		t.Fatalf("resend must not change status, got %q", stored.Status)
	}
	if len(audit.reqs) != 1 || audit.reqs[0].EventType != auditdomain.EventInvitationSent {
		t.Fatalf("expected invitation_sent audit event, got %v", audit.events)
	}
	if resend, ok := audit.reqs[0].Metadata["resend"].(bool); !ok || !resend {
		t.Fatalf("expected resend metadata, got %v", audit.reqs[0].Metadata)
	}
}

func TestBackoffSchedule(t *testing.T) {
	retry := config.RetryConfig{MaxAttempts: 3, BaseDelay: 10 * time.Second, Multiplier: 3}
	want := []time.Duration{10 * time.Second, 30 * time.Second, 90 * time.Second}
	for i, expected := range want {
		if got := backoff(retry, i+1); got != expected {
			t.Fatalf("attempt %d: expected %v, got %v", i+1, expected, got)
		}
	}
}
