package verification

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/salestrackpro/salestrack/internal/clock"
	"go.uber.org/zap"
)

func newTestService(t *testing.T) (Service, *clock.FakeClock) {
	t.Helper()
	fake := clock.NewFakeClock(time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC))
	svc := &service{
		log:   zap.NewNop(),
		store: newMemoryStore(fake),
	}
	return svc, fake
}

func TestIssueAndCheck(t *testing.T) {
	svc, _ := newTestService(t)
	accountID := snowflake.ID(7)

	code, err := svc.Issue(context.Background(), accountID, ChannelEmail)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if len(code) != 6 {
		t.Fatalf("expected 6-digit code, got %q", code)
	}

	if err := svc.Check(context.Background(), accountID, ChannelEmail, code); err != nil {
		t.Fatalf("check: %v", err)
	}

	// Codes are one-shot.
	if err := svc.Check(context.Background(), accountID, ChannelEmail, code); err != ErrCodeExpired {
		t.Fatalf("expected code consumed, got %v", err)
	}
}

func TestCheckWrongCode(t *testing.T) {
	svc, _ := newTestService(t)
	accountID := snowflake.ID(7)

	if _, err := svc.Issue(context.Background(), accountID, ChannelEmail); err != nil {
		t.Fatalf("issue: %v", err)
	}
	if err := svc.Check(context.Background(), accountID, ChannelEmail, "000000"); err != ErrCodeMismatch {
		t.Fatalf("expected mismatch, got %v", err)
	}
}

func TestCheckExpiredCode(t *testing.T) {
	svc, fake := newTestService(t)
	accountID := snowflake.ID(7)

	code, err := svc.Issue(context.Background(), accountID, ChannelPhone)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	fake.Advance(CodeTTL + time.Second)

	if err := svc.Check(context.Background(), accountID, ChannelPhone, code); err != ErrCodeExpired {
		t.Fatalf("expected expired, got %v", err)
	}
}

func TestIssueReplacesOutstandingCode(t *testing.T) {
	svc, _ := newTestService(t)
	accountID := snowflake.ID(7)

	first, _ := svc.Issue(context.Background(), accountID, ChannelEmail)
	second, err := svc.Issue(context.Background(), accountID, ChannelEmail)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	if first != second {
		if err := svc.Check(context.Background(), accountID, ChannelEmail, first); err == nil {
			t.Fatal("replaced code must no longer verify")
		}
	}
	if err := svc.Check(context.Background(), accountID, ChannelEmail, second); err != nil {
		t.Fatalf("latest code must verify: %v", err)
	}
}

func TestInvalidate(t *testing.T) {
	svc, _ := newTestService(t)
	accountID := snowflake.ID(7)

	code, _ := svc.Issue(context.Background(), accountID, ChannelEmail)
	if err := svc.Invalidate(context.Background(), accountID, ChannelEmail); err != nil {
		t.Fatalf("invalidate: %v", err)
	}
	if err := svc.Check(context.Background(), accountID, ChannelEmail, code); err != ErrCodeExpired {
		t.Fatalf("expected expired after invalidate, got %v", err)
	}
}
