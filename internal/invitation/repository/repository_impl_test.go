package repository

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/salestrackpro/salestrack/internal/authctx"
	"github.com/salestrackpro/salestrack/internal/invitation/domain"
	"github.com/salestrackpro/salestrack/pkg/db"
	"github.com/salestrackpro/salestrack/pkg/db/pagination"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupRepo(t *testing.T) (domain.Repository, *gorm.DB, *snowflake.Node) {
	t.Helper()

	conn, err := db.NewTest()
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&domain.Invitation{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	return Provide(), conn, node
}

func makeInvitation(node *snowflake.Node, email, token, status string, expiresAt time.Time) *domain.Invitation {
	now := expiresAt.Add(-domain.TTL)
	return &domain.Invitation{
		ID:             node.Generate(),
		ContactName:    "Jane Doe",
		ContactEmail:   &email,
		InvitationType: domain.TypeEmail,
		Token:          token,
		Status:         status,
		ExpiresAt:      expiresAt,
		SentBy:         node.Generate(),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

func TestFindByTokenMissing(t *testing.T) {
	repo, conn, _ := setupRepo(t)

	invitation, err := repo.FindByToken(context.Background(), conn, "no-such-token")
	assert.NoError(t, err)
	assert.Nil(t, invitation)
}

func TestFindValidByEmail(t *testing.T) {
	repo, conn, node := setupRepo(t)
	ctx := context.Background()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	valid := makeInvitation(node, "jane.doe@gmail.com", "tok-valid", domain.StatusPending, now.Add(time.Hour))
	expired := makeInvitation(node, "old@gmail.com", "tok-expired", domain.StatusPending, now.Add(-time.Hour))
	cancelled := makeInvitation(node, "gone@gmail.com", "tok-cancelled", domain.StatusCancelled, now.Add(time.Hour))
	require.NoError(t, repo.Insert(ctx, conn, valid))
	require.NoError(t, repo.Insert(ctx, conn, expired))
	require.NoError(t, repo.Insert(ctx, conn, cancelled))

	// Matching is case-insensitive.
	found, err := repo.FindValidByEmail(ctx, conn, "Jane.Doe@GMAIL.com", now)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, valid.ID, found.ID)

	found, err = repo.FindValidByEmail(ctx, conn, "old@gmail.com", now)
	require.NoError(t, err)
	assert.Nil(t, found, "past expiry never matches")

	found, err = repo.FindValidByEmail(ctx, conn, "gone@gmail.com", now)
	require.NoError(t, err)
	assert.Nil(t, found, "terminal statuses never match")
}

func TestDuplicateTokenRejected(t *testing.T) {
	repo, conn, node := setupRepo(t)
	ctx := context.Background()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	first := makeInvitation(node, "a@gmail.com", "same-token", domain.StatusPending, now.Add(time.Hour))
	second := makeInvitation(node, "b@gmail.com", "same-token", domain.StatusPending, now.Add(time.Hour))

	require.NoError(t, repo.Insert(ctx, conn, first))
	err := repo.Insert(ctx, conn, second)
	require.Error(t, err)
	assert.True(t, db.IsDuplicateKeyErr(err))
}

func TestMarkOverdueExpired(t *testing.T) {
	repo, conn, node := setupRepo(t)
	ctx := context.Background()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	overduePending := makeInvitation(node, "a@gmail.com", "tok-a", domain.StatusPending, now.Add(-time.Minute))
	overdueSent := makeInvitation(node, "b@gmail.com", "tok-b", domain.StatusSent, now.Add(-time.Minute))
	overdueUsed := makeInvitation(node, "c@gmail.com", "tok-c", domain.StatusUsed, now.Add(-time.Minute))
	fresh := makeInvitation(node, "d@gmail.com", "tok-d", domain.StatusPending, now.Add(time.Hour))
	for _, invitation := range []*domain.Invitation{overduePending, overdueSent, overdueUsed, fresh} {
		require.NoError(t, repo.Insert(ctx, conn, invitation))
	}

	count, err := repo.MarkOverdueExpired(ctx, conn, now)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	reloaded, err := repo.FindByID(ctx, conn, overdueUsed.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusUsed, reloaded.Status, "terminal rows stay untouched")

	reloaded, err = repo.FindByID(ctx, conn, fresh.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, reloaded.Status)
}

func TestListScopedBySender(t *testing.T) {
	repo, conn, node := setupRepo(t)
	ctx := context.Background()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	mine := makeInvitation(node, "a@gmail.com", "tok-a", domain.StatusPending, now.Add(time.Hour))
	foreign := makeInvitation(node, "b@gmail.com", "tok-b", domain.StatusPending, now.Add(time.Hour))
	require.NoError(t, repo.Insert(ctx, conn, mine))
	require.NoError(t, repo.Insert(ctx, conn, foreign))

	sender := authctx.Identity{AccountID: mine.SentBy, Staff: true}
	items, err := repo.List(ctx, conn, sender, domain.ListInvitationFilter{}, pagination.Pagination{PageSize: 10})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, mine.ID, items[0].ID)

	root := authctx.Identity{AccountID: node.Generate(), Staff: true, Root: true}
	items, err = repo.List(ctx, conn, root, domain.ListInvitationFilter{}, pagination.Pagination{PageSize: 10})
	require.NoError(t, err)
	assert.Len(t, items, 2)

	items, err = repo.List(ctx, conn, root, domain.ListInvitationFilter{Status: domain.StatusSent}, pagination.Pagination{PageSize: 10})
	require.NoError(t, err)
	assert.Empty(t, items)
}
