package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	accountdomain "github.com/salestrackpro/salestrack/internal/account/domain"
	accountrepo "github.com/salestrackpro/salestrack/internal/account/repository"
	auditdomain "github.com/salestrackpro/salestrack/internal/audit/domain"
	auditrepo "github.com/salestrackpro/salestrack/internal/audit/repository"
	auditservice "github.com/salestrackpro/salestrack/internal/audit/service"
	"github.com/salestrackpro/salestrack/internal/auth/domain"
	"github.com/salestrackpro/salestrack/internal/auth/password"
	authrepo "github.com/salestrackpro/salestrack/internal/auth/repository"
	"github.com/salestrackpro/salestrack/internal/clock"
	"github.com/salestrackpro/salestrack/pkg/db"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type authEnv struct {
	svc  domain.Service
	conn *gorm.DB
	fake *clock.FakeClock
	node *snowflake.Node
}

func newAuthEnv(t *testing.T) *authEnv {
	t.Helper()

	conn, err := db.NewTest()
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	err = conn.AutoMigrate(
		&accountdomain.Account{},
		&accountdomain.Profile{},
		&domain.Session{},
		&auditdomain.SecurityEvent{},
	)
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("snowflake: %v", err)
	}

	fake := clock.NewFakeClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))

	audit := auditservice.New(auditservice.Params{
		DB:    conn,
		Log:   zap.NewNop(),
		GenID: node,
		Repo:  auditrepo.Provide(),
	})

	svc := New(Params{
		DB:       conn,
		Log:      zap.NewNop(),
		GenID:    node,
		Clock:    fake,
		Accounts: accountrepo.Provide(),
		Sessions: authrepo.ProvideSessionRepository(),
		Audit:    audit,
	})

	return &authEnv{svc: svc, conn: conn, fake: fake, node: node}
}

func (e *authEnv) createAccount(t *testing.T, email, plain string) *accountdomain.Account {
	t.Helper()

	hashed, err := password.Hash(plain)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	now := e.fake.Now()
	account := accountdomain.Account{
		ID:           e.node.Generate(),
		Email:        email,
		PasswordHash: &hashed,
		IsActive:     true,
		IsStaff:      true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := e.conn.Create(&account).Error; err != nil {
		t.Fatalf("create account: %v", err)
	}
	profile := accountdomain.Profile{
		ID:                 e.node.Generate(),
		AccountID:          account.ID,
		LastPasswordChange: now,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if err := e.conn.Create(&profile).Error; err != nil {
		t.Fatalf("create profile: %v", err)
	}
	account.Profile = &profile
	return &account
}

func TestLoginSuccess(t *testing.T) {
	env := newAuthEnv(t)
	env.createAccount(t, "alice@gmail.com", "s3cret-pass")

	result, err := env.svc.Login(context.Background(), domain.LoginRequest{
		Email:     "Alice@Gmail.com",
		Password:  "s3cret-pass",
		UserAgent: "test-agent",
		IPAddress: "203.0.113.9",
	})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if result.RawToken == "" {
		t.Fatal("missing session token")
	}
	wantExpiry := env.fake.Now().Add(7 * 24 * time.Hour)
	if !result.ExpiresAt.Equal(wantExpiry) {
		t.Fatalf("expected expiry %v, got %v", wantExpiry, result.ExpiresAt)
	}

	account, session, err := env.svc.Authenticate(context.Background(), result.RawToken)
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if account.Email != "alice@gmail.com" {
		t.Fatalf("unexpected account %q", account.Email)
	}
	if session.ID != result.SessionID {
		t.Fatal("session mismatch")
	}
}

func TestLoginWrongPassword(t *testing.T) {
	env := newAuthEnv(t)
	env.createAccount(t, "alice@gmail.com", "s3cret-pass")

	_, err := env.svc.Login(context.Background(), domain.LoginRequest{
		Email:    "alice@gmail.com",
		Password: "wrong-pass",
	})
	if err != domain.ErrInvalidCredentials {
		t.Fatalf("expected invalid credentials, got %v", err)
	}

	_, err = env.svc.Login(context.Background(), domain.LoginRequest{
		Email:    "nobody@gmail.com",
		Password: "s3cret-pass",
	})
	if err != domain.ErrInvalidCredentials {
		t.Fatalf("unknown email must not be distinguishable, got %v", err)
	}
}

func TestLoginLockoutAfterRepeatedFailures(t *testing.T) {
	env := newAuthEnv(t)
	account := env.createAccount(t, "alice@gmail.com", "s3cret-pass")

	for i := 0; i < accountdomain.MaxFailedLogins; i++ {
		_, err := env.svc.Login(context.Background(), domain.LoginRequest{
			Email:    "alice@gmail.com",
			Password: "wrong-pass",
		})
		if err != domain.ErrInvalidCredentials {
			t.Fatalf("attempt %d: expected invalid credentials, got %v", i, err)
		}
	}

	// Locked now, even with the right password.
	_, err := env.svc.Login(context.Background(), domain.LoginRequest{
		Email:    "alice@gmail.com",
		Password: "s3cret-pass",
	})
	if err != domain.ErrAccountLocked {
		t.Fatalf("expected locked, got %v", err)
	}

	var profile accountdomain.Profile
	if err := env.conn.Where("account_id = ?", account.ID).First(&profile).Error; err != nil {
		t.Fatalf("load profile: %v", err)
	}
	if profile.LockedUntil == nil {
		t.Fatal("lock timestamp not persisted")
	}
	if profile.FailedLoginAttempts != 0 {
		t.Fatalf("counter must reset at lock, got %d", profile.FailedLoginAttempts)
	}

	// The lock expires on its own.
	env.fake.Advance(accountdomain.LockoutDuration + time.Minute)
	if _, err := env.svc.Login(context.Background(), domain.LoginRequest{
		Email:    "alice@gmail.com",
		Password: "s3cret-pass",
	}); err != nil {
		t.Fatalf("login after lock expiry: %v", err)
	}
}

func TestLoginClearsFailureCounter(t *testing.T) {
	env := newAuthEnv(t)
	account := env.createAccount(t, "alice@gmail.com", "s3cret-pass")

	for i := 0; i < 2; i++ {
		env.svc.Login(context.Background(), domain.LoginRequest{
			Email:    "alice@gmail.com",
			Password: "wrong-pass",
		})
	}
	if _, err := env.svc.Login(context.Background(), domain.LoginRequest{
		Email:    "alice@gmail.com",
		Password: "s3cret-pass",
	}); err != nil {
		t.Fatalf("login: %v", err)
	}

	var profile accountdomain.Profile
	if err := env.conn.Where("account_id = ?", account.ID).First(&profile).Error; err != nil {
		t.Fatalf("load profile: %v", err)
	}
	if profile.FailedLoginAttempts != 0 {
		t.Fatalf("expected counter reset, got %d", profile.FailedLoginAttempts)
	}
}

func TestAuthenticateExpiredSession(t *testing.T) {
	env := newAuthEnv(t)
	env.createAccount(t, "alice@gmail.com", "s3cret-pass")

	result, err := env.svc.Login(context.Background(), domain.LoginRequest{
		Email:    "alice@gmail.com",
		Password: "s3cret-pass",
	})
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	env.fake.Advance(7*24*time.Hour + time.Second)
	if _, _, err := env.svc.Authenticate(context.Background(), result.RawToken); err != domain.ErrSessionExpired {
		t.Fatalf("expected expired session, got %v", err)
	}
}

func TestLogoutRevokesSession(t *testing.T) {
	env := newAuthEnv(t)
	env.createAccount(t, "alice@gmail.com", "s3cret-pass")

	result, err := env.svc.Login(context.Background(), domain.LoginRequest{
		Email:    "alice@gmail.com",
		Password: "s3cret-pass",
	})
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	if err := env.svc.Logout(context.Background(), result.RawToken); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if _, _, err := env.svc.Authenticate(context.Background(), result.RawToken); err != domain.ErrSessionRevoked {
		t.Fatalf("expected revoked session, got %v", err)
	}
}

func TestAuthenticateGarbageToken(t *testing.T) {
	env := newAuthEnv(t)

	if _, _, err := env.svc.Authenticate(context.Background(), "not-a-token"); err != domain.ErrInvalidSession {
		t.Fatalf("expected invalid session, got %v", err)
	}
	if _, _, err := env.svc.Authenticate(context.Background(), ""); err != domain.ErrInvalidSession {
		t.Fatalf("expected invalid session, got %v", err)
	}
}

func TestChangePassword(t *testing.T) {
	env := newAuthEnv(t)
	account := env.createAccount(t, "alice@gmail.com", "s3cret-pass")

	if err := env.svc.ChangePassword(context.Background(), account.ID, "s3cret-pass", "short"); err != domain.ErrWeakPassword {
		t.Fatalf("expected weak password, got %v", err)
	}
	if err := env.svc.ChangePassword(context.Background(), account.ID, "wrong-pass", "brand-new-pass"); err != domain.ErrInvalidCredentials {
		t.Fatalf("expected invalid credentials, got %v", err)
	}

	if err := env.svc.ChangePassword(context.Background(), account.ID, "s3cret-pass", "brand-new-pass"); err != nil {
		t.Fatalf("change password: %v", err)
	}

	if _, err := env.svc.Login(context.Background(), domain.LoginRequest{
		Email:    "alice@gmail.com",
		Password: "s3cret-pass",
	}); err != domain.ErrInvalidCredentials {
		t.Fatalf("old password must stop working, got %v", err)
	}
	if _, err := env.svc.Login(context.Background(), domain.LoginRequest{
		Email:    "alice@gmail.com",
		Password: "brand-new-pass",
	}); err != nil {
		t.Fatalf("login with new password: %v", err)
	}
}
