package service

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/salestrackpro/salestrack/internal/account/domain"
	accountrepo "github.com/salestrackpro/salestrack/internal/account/repository"
	auditdomain "github.com/salestrackpro/salestrack/internal/audit/domain"
	auditrepo "github.com/salestrackpro/salestrack/internal/audit/repository"
	auditservice "github.com/salestrackpro/salestrack/internal/audit/service"
	"github.com/salestrackpro/salestrack/internal/authctx"
	"github.com/salestrackpro/salestrack/internal/authorization"
	"github.com/salestrackpro/salestrack/internal/clock"
	"github.com/salestrackpro/salestrack/internal/config"
	"github.com/salestrackpro/salestrack/internal/verification"
	"github.com/salestrackpro/salestrack/pkg/db"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type capturedMail struct {
	to      []string
	subject string
	text    string
}

type captureMailer struct {
	sent []capturedMail
}

func (m *captureMailer) Send(ctx context.Context, to []string, subject, htmlBody, textBody string) error {
	m.sent = append(m.sent, capturedMail{to: to, subject: subject, text: textBody})
	return nil
}

type accountEnv struct {
	svc    domain.Service
	conn   *gorm.DB
	fake   *clock.FakeClock
	node   *snowflake.Node
	mailer *captureMailer
}

func newAccountEnv(t *testing.T) *accountEnv {
	t.Helper()

	conn, err := db.NewTest()
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	err = conn.AutoMigrate(
		&domain.Account{},
		&domain.Profile{},
		&auditdomain.SecurityEvent{},
	)
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("snowflake: %v", err)
	}

	enforcer, err := authorization.NewEnforcer(conn)
	if err != nil {
		t.Fatalf("enforcer: %v", err)
	}
	authz := authorization.NewService(authorization.Params{
		Log:      zap.NewNop(),
		Enforcer: enforcer,
	})

	audit := auditservice.New(auditservice.Params{
		DB:    conn,
		Log:   zap.NewNop(),
		GenID: node,
		Repo:  auditrepo.Provide(),
	})

	fake := clock.NewFakeClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	mailer := &captureMailer{}

	svc := New(Params{
		DB:    conn,
		Log:   zap.NewNop(),
		GenID: node,
		Clock: fake,
		Repo:  accountrepo.Provide(),
		Authz: authz,
		Audit: audit,
		Verify: verification.New(verification.Params{
			Log:    zap.NewNop(),
			Clock:  fake,
			Config: config.Config{},
		}),
		Email: mailer,
	})

	return &accountEnv{svc: svc, conn: conn, fake: fake, node: node, mailer: mailer}
}

func identityCtx(id authctx.Identity) context.Context {
	return authctx.WithIdentity(context.Background(), id)
}

func TestCreateAccount(t *testing.T) {
	env := newAccountEnv(t)
	admin := authctx.Identity{AccountID: env.node.Generate(), Staff: true}

	account, err := env.svc.Create(identityCtx(admin), domain.CreateAccountRequest{
		Email:     "Alice@Gmail.com",
		Password:  "s3cret-pass",
		FirstName: "Alice",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if account.Email != "alice@gmail.com" {
		t.Fatalf("email not normalized: %q", account.Email)
	}
	if !account.IsActive || account.IsStaff {
		t.Fatal("expected active non-staff account")
	}
	if account.Profile == nil || account.Profile.CreatedBy == nil || *account.Profile.CreatedBy != admin.AccountID {
		t.Fatal("creator not recorded on profile")
	}

	_, err = env.svc.Create(identityCtx(admin), domain.CreateAccountRequest{
		Email:    "alice@gmail.com",
		Password: "s3cret-pass",
	})
	if err != domain.ErrEmailTaken {
		t.Fatalf("expected email taken, got %v", err)
	}
}

func TestCreateStaffRequiresRoot(t *testing.T) {
	env := newAccountEnv(t)
	admin := authctx.Identity{AccountID: env.node.Generate(), Staff: true}

	_, err := env.svc.Create(identityCtx(admin), domain.CreateAccountRequest{
		Email:    "staff@gmail.com",
		Password: "s3cret-pass",
		Staff:    true,
	})
	if err != domain.ErrForbidden {
		t.Fatalf("expected forbidden, got %v", err)
	}

	root := authctx.Identity{AccountID: env.node.Generate(), Staff: true, Root: true}
	account, err := env.svc.Create(identityCtx(root), domain.CreateAccountRequest{
		Email:    "staff@gmail.com",
		Password: "s3cret-pass",
		Staff:    true,
	})
	if err != nil {
		t.Fatalf("create staff as root: %v", err)
	}
	if !account.IsStaff {
		t.Fatal("expected staff account")
	}
}

func TestCreateValidation(t *testing.T) {
	env := newAccountEnv(t)
	admin := authctx.Identity{AccountID: env.node.Generate(), Staff: true}

	_, err := env.svc.Create(identityCtx(admin), domain.CreateAccountRequest{
		Email:    "not-an-email",
		Password: "s3cret-pass",
	})
	if err != domain.ErrInvalidEmail {
		t.Fatalf("expected invalid email, got %v", err)
	}

	_, err = env.svc.Create(identityCtx(admin), domain.CreateAccountRequest{
		Email:    "alice@gmail.com",
		Password: "short",
	})
	if err != domain.ErrInvalidPassword {
		t.Fatalf("expected invalid password, got %v", err)
	}
}

func TestAccountVisibilityAndManagement(t *testing.T) {
	env := newAccountEnv(t)
	admin := authctx.Identity{AccountID: env.node.Generate(), Staff: true}

	account, err := env.svc.Create(identityCtx(admin), domain.CreateAccountRequest{
		Email:    "alice@gmail.com",
		Password: "s3cret-pass",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	// The creator sees and manages its report.
	if _, err := env.svc.GetByID(identityCtx(admin), domain.GetAccountRequest{ID: account.ID.String()}); err != nil {
		t.Fatalf("get as creator: %v", err)
	}

	// An unrelated admin sees nothing.
	stranger := authctx.Identity{AccountID: env.node.Generate(), Staff: true}
	if _, err := env.svc.GetByID(identityCtx(stranger), domain.GetAccountRequest{ID: account.ID.String()}); err != domain.ErrNotFound {
		t.Fatalf("expected not found for stranger, got %v", err)
	}

	// Superusers see everyone.
	super := authctx.Identity{AccountID: env.node.Generate(), Staff: true, Superuser: true}
	if _, err := env.svc.GetByID(identityCtx(super), domain.GetAccountRequest{ID: account.ID.String()}); err != nil {
		t.Fatalf("get as superuser: %v", err)
	}

	firstName := "Updated"
	updated, err := env.svc.Update(identityCtx(admin), domain.UpdateAccountRequest{
		ID:        account.ID.String(),
		FirstName: &firstName,
	})
	if err != nil {
		t.Fatalf("update as creator: %v", err)
	}
	if updated.FirstName != "Updated" {
		t.Fatalf("update not applied: %q", updated.FirstName)
	}
}

func TestStaffManagedByRootOnly(t *testing.T) {
	env := newAccountEnv(t)
	root := authctx.Identity{AccountID: env.node.Generate(), Staff: true, Root: true}

	staff, err := env.svc.Create(identityCtx(root), domain.CreateAccountRequest{
		Email:    "staff@gmail.com",
		Password: "s3cret-pass",
		Staff:    true,
	})
	if err != nil {
		t.Fatalf("create staff: %v", err)
	}

	// Even a superuser cannot manage staff accounts.
	super := authctx.Identity{AccountID: env.node.Generate(), Staff: true, Superuser: true}
	inactive := false
	_, err = env.svc.Update(identityCtx(super), domain.UpdateAccountRequest{
		ID:       staff.ID.String(),
		IsActive: &inactive,
	})
	if err != domain.ErrForbidden {
		t.Fatalf("expected forbidden for superuser on staff, got %v", err)
	}

	if _, err := env.svc.Update(identityCtx(root), domain.UpdateAccountRequest{
		ID:       staff.ID.String(),
		IsActive: &inactive,
	}); err != nil {
		t.Fatalf("update staff as root: %v", err)
	}
}

func TestNoSelfDeactivateOrDelete(t *testing.T) {
	env := newAccountEnv(t)
	root := authctx.Identity{AccountID: env.node.Generate(), Staff: true, Root: true}

	account, err := env.svc.Create(identityCtx(root), domain.CreateAccountRequest{
		Email:    "staff@gmail.com",
		Password: "s3cret-pass",
		Staff:    true,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	self := authctx.Identity{AccountID: account.ID, Staff: true}

	inactive := false
	_, err = env.svc.Update(identityCtx(self), domain.UpdateAccountRequest{
		ID:       account.ID.String(),
		IsActive: &inactive,
	})
	if err != domain.ErrForbidden {
		t.Fatalf("expected forbidden on self-deactivate, got %v", err)
	}

	if err := env.svc.Delete(identityCtx(self), domain.DeleteAccountRequest{ID: account.ID.String()}); err != domain.ErrForbidden {
		t.Fatalf("expected forbidden on self-delete, got %v", err)
	}
}

func TestDeleteAccount(t *testing.T) {
	env := newAccountEnv(t)
	admin := authctx.Identity{AccountID: env.node.Generate(), Staff: true}

	account, err := env.svc.Create(identityCtx(admin), domain.CreateAccountRequest{
		Email:    "alice@gmail.com",
		Password: "s3cret-pass",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := env.svc.Delete(identityCtx(admin), domain.DeleteAccountRequest{ID: account.ID.String()}); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := env.svc.GetByID(identityCtx(admin), domain.GetAccountRequest{ID: account.ID.String()}); err != domain.ErrNotFound {
		t.Fatalf("expected not found after delete, got %v", err)
	}
}

func TestEmailVerificationFlow(t *testing.T) {
	env := newAccountEnv(t)
	admin := authctx.Identity{AccountID: env.node.Generate(), Staff: true}

	account, err := env.svc.Create(identityCtx(admin), domain.CreateAccountRequest{
		Email:    "alice@gmail.com",
		Password: "s3cret-pass",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	self := identityCtx(authctx.Identity{AccountID: account.ID})

	if err := env.svc.RequestEmailVerification(self); err != nil {
		t.Fatalf("request verification: %v", err)
	}
	if len(env.mailer.sent) != 1 || env.mailer.sent[0].to[0] != "alice@gmail.com" {
		t.Fatalf("verification mail not sent: %+v", env.mailer.sent)
	}

	code := regexp.MustCompile(`\d{6}`).FindString(env.mailer.sent[0].text)
	if code == "" {
		t.Fatalf("no code in mail body: %q", env.mailer.sent[0].text)
	}

	if _, err := env.svc.ConfirmEmailVerification(self, "000000"); err != domain.ErrInvalidCode {
		t.Fatalf("expected invalid code, got %v", err)
	}

	verified, err := env.svc.ConfirmEmailVerification(self, code)
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if verified.Profile == nil || !verified.Profile.EmailVerified {
		t.Fatal("profile not marked verified")
	}

	// Already verified: request becomes a no-op.
	if err := env.svc.RequestEmailVerification(self); err != nil {
		t.Fatalf("request after verified: %v", err)
	}
	if len(env.mailer.sent) != 1 {
		t.Fatalf("expected no further mail, got %d", len(env.mailer.sent))
	}
}
