// Package dispatch delivers invitation notices asynchronously through
// the email and SMS providers. Delivery is best-effort: bounded retry
// with exponential backoff, and on exhaustion the invitation simply
// stays pending for a manual resend. Retry applies to transport only,
// never to data-consistency operations.
package dispatch

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	auditdomain "github.com/salestrackpro/salestrack/internal/audit/domain"
	"github.com/salestrackpro/salestrack/internal/clock"
	"github.com/salestrackpro/salestrack/internal/config"
	invitationdomain "github.com/salestrackpro/salestrack/internal/invitation/domain"
	"github.com/salestrackpro/salestrack/internal/providers/email"
	"github.com/salestrackpro/salestrack/internal/providers/sms"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const queueSize = 64

type Params struct {
	fx.In

	DB     *gorm.DB
	Log    *zap.Logger
	Clock  clock.Clock
	Config config.Config
	Holder *config.NotificationConfigHolder
	Email  email.Provider
	SMS    sms.Provider
	Repo   invitationdomain.Repository
	Audit  auditdomain.Service
}

type Dispatcher struct {
	db     *gorm.DB
	log    *zap.Logger
	clock  clock.Clock
	cfg    config.Config
	holder *config.NotificationConfigHolder
	email  email.Provider
	sms    sms.Provider
	repo   invitationdomain.Repository
	audit  auditdomain.Service

	jobs   chan invitationdomain.Invitation
	wg     sync.WaitGroup
	cancel context.CancelFunc
}

func New(p Params) *Dispatcher {
	return &Dispatcher{
		db:     p.DB,
		log:    p.Log.Named("dispatch"),
		clock:  p.Clock,
		cfg:    p.Config,
		holder: p.Holder,
		email:  p.Email,
		sms:    p.SMS,
		repo:   p.Repo,
		audit:  p.Audit,
		jobs:   make(chan invitationdomain.Invitation, queueSize),
	}
}

// Enqueue hands an invitation to the background worker. A full queue
// drops the job; the invitation stays pending and can be resent.
func (d *Dispatcher) Enqueue(ctx context.Context, invitation invitationdomain.Invitation) {
	select {
	case d.jobs <- invitation:
	default:
		d.log.Error("dispatch queue full, dropping invitation",
			zap.String("invitation_id", invitation.ID.String()),
		)
	}
}

// Start launches the worker goroutine.
func (d *Dispatcher) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	d.cancel = cancel
	d.wg.Add(1)
	go d.run(ctx)
}

// Stop drains the worker and waits for in-flight deliveries.
func (d *Dispatcher) Stop() {
	if d.cancel != nil {
		d.cancel()
	}
	d.wg.Wait()
}

func (d *Dispatcher) run(ctx context.Context) {
	defer d.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case invitation := <-d.jobs:
			d.process(ctx, invitation)
		}
	}
}

func (d *Dispatcher) process(ctx context.Context, invitation invitationdomain.Invitation) {
	retry := d.holder.Get().Retry

	// One immediate attempt, then MaxAttempts retries with backoff.
	var lastErr error
	for attempt := 0; attempt <= retry.MaxAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return
			case <-time.After(backoff(retry, attempt)):
			}
		}

		lastErr = d.deliver(ctx, invitation)
		if lastErr == nil {
			d.markSent(ctx, invitation)
			return
		}

		d.log.Warn("invitation delivery attempt failed",
			zap.String("invitation_id", invitation.ID.String()),
			zap.String("type", invitation.InvitationType),
			zap.Int("attempt", attempt+1),
			zap.Error(lastErr),
		)
	}

	d.log.Error("invitation delivery failed after all attempts",
		zap.String("invitation_id", invitation.ID.String()),
		zap.Int("attempts", retry.MaxAttempts+1),
		zap.Error(lastErr),
	)
	d.audit.Record(ctx, auditdomain.RecordEventRequest{
		EventType: auditdomain.EventInvitationFailed,
		ActorID:   &invitation.SentBy,
		Email:     stringOrEmpty(invitation.ContactEmail),
	})
}

// backoff computes the delay before retry attempt n: base, base*mult,
// base*mult^2, ... (defaults 10s, 30s, 90s).
func backoff(retry config.RetryConfig, attempt int) time.Duration {
	delay := retry.BaseDelay
	for i := 1; i < attempt; i++ {
		delay *= time.Duration(retry.Multiplier)
	}
	return delay
}

func (d *Dispatcher) deliver(ctx context.Context, invitation invitationdomain.Invitation) error {
	signupURL := fmt.Sprintf("%s/signup/%s", d.cfg.FrontendURL, invitation.Token)

	switch invitation.InvitationType {
	case invitationdomain.TypeEmail:
		if invitation.ContactEmail == nil {
			return fmt.Errorf("email invitation without contact email")
		}
		subject := invitation.Subject
		if subject == "" {
			subject = "You're invited to Sales Tracker Pro"
		}
		return d.email.Send(ctx,
			[]string{*invitation.ContactEmail},
			subject,
			emailHTMLBody(invitation, signupURL),
			emailTextBody(invitation, signupURL),
		)

	case invitationdomain.TypeSMS:
		if invitation.ContactPhone == nil {
			return fmt.Errorf("sms invitation without contact phone")
		}
		return d.sms.Send(ctx, *invitation.ContactPhone, smsBody(invitation, signupURL))

	default:
		return fmt.Errorf("unknown invitation type %q", invitation.InvitationType)
	}
}

// markSent transitions pending -> sent. Reload first: the invitation
// may have been cancelled or consumed while the delivery was in flight.
func (d *Dispatcher) markSent(ctx context.Context, invitation invitationdomain.Invitation) {
	current, err := d.repo.FindByID(ctx, d.db, invitation.ID)
	if err != nil || current == nil {
		d.log.Warn("delivered invitation not reloadable",
			zap.String("invitation_id", invitation.ID.String()),
			zap.Error(err),
		)
		return
	}
	if current.Status == invitationdomain.StatusSent {
		// Manual resend of an already-sent invitation: the status
		// stays put, but the redelivery is still audited.
		d.audit.Record(ctx, auditdomain.RecordEventRequest{
			EventType: auditdomain.EventInvitationSent,
			ActorID:   &invitation.SentBy,
			Email:     stringOrEmpty(invitation.ContactEmail),
			Metadata:  datatypes.JSONMap{"resend": true},
		})
		return
	}
	if current.Status != invitationdomain.StatusPending {
		return
	}

	now := d.clock.Now().UTC()
	current.Status = invitationdomain.StatusSent
	current.UpdatedAt = now
	if err := d.repo.Update(ctx, d.db, current); err != nil {
		d.log.Warn("failed to mark invitation sent",
			zap.String("invitation_id", invitation.ID.String()),
			zap.Error(err),
		)
		return
	}

	d.audit.Record(ctx, auditdomain.RecordEventRequest{
		EventType: auditdomain.EventInvitationSent,
		ActorID:   &invitation.SentBy,
		Email:     stringOrEmpty(invitation.ContactEmail),
	})
}

func emailTextBody(invitation invitationdomain.Invitation, signupURL string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Hello %s!\n\n", invitation.ContactName)
	b.WriteString("You're invited to join Sales Tracker Pro.\n\n")
	if invitation.Message != "" {
		b.WriteString(invitation.Message)
		b.WriteString("\n\n")
	}
	fmt.Fprintf(&b, "Create your account: %s\n\n", signupURL)
	b.WriteString("This invitation expires in 7 days.\n")
	return b.String()
}

func emailHTMLBody(invitation invitationdomain.Invitation, signupURL string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "<p>Hello %s!</p>", invitation.ContactName)
	b.WriteString("<p>You're invited to join <strong>Sales Tracker Pro</strong>.</p>")
	if invitation.Message != "" {
		fmt.Fprintf(&b, "<p>%s</p>", invitation.Message)
	}
	fmt.Fprintf(&b, `<p><a href="%s">Create your account</a></p>`, signupURL)
	b.WriteString("<p>This invitation expires in 7 days.</p>")
	return b.String()
}

func smsBody(invitation invitationdomain.Invitation, signupURL string) string {
	return fmt.Sprintf(
		"Hello %s! You're invited to join Sales Tracker Pro. Create your account: %s (expires in 7 days)",
		invitation.ContactName, signupURL,
	)
}

func stringOrEmpty(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}
