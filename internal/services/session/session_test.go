// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package session_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"codeberg.org/oliverandrich/go-accounts/internal/repository"
	"codeberg.org/oliverandrich/go-accounts/internal/services/session"
	"codeberg.org/oliverandrich/go-accounts/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestManager(t *testing.T) (*session.Manager, *repository.Repository, *fakeClock) {
	t.Helper()
	_, repo := testutil.NewTestDB(t)
	clock := newFakeClock()

	mgr, err := session.NewManager(repo, session.Config{}, session.WithClock(clock.Now))
	require.NoError(t, err)

	return mgr, repo, clock
}

func TestNewManager_Defaults(t *testing.T) {
	_, repo := testutil.NewTestDB(t)

	mgr, err := session.NewManager(repo, session.Config{})

	require.NoError(t, err)
	assert.Equal(t, 7*24*time.Hour, mgr.TTL())
}

func TestNewManager_TokenLengthTooShort(t *testing.T) {
	_, repo := testutil.NewTestDB(t)

	_, err := session.NewManager(repo, session.Config{TokenLength: 8})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "at least 16 bytes")
}

func TestNewManager_NegativeTTL(t *testing.T) {
	_, repo := testutil.NewTestDB(t)

	_, err := session.NewManager(repo, session.Config{TTL: -time.Second})

	assert.Error(t, err)
}

func TestIssue(t *testing.T) {
	mgr, repo, _ := newTestManager(t)
	user := testutil.NewTestUser(t, repo, "user1")

	token, err := mgr.Issue(context.Background(), user.ID)

	require.NoError(t, err)
	assert.Len(t, token, 64)
	assert.Equal(t, int64(1), testutil.CountTokens(t, repo.DB()))
}

func TestIssue_TokenNotStoredInPlaintext(t *testing.T) {
	mgr, repo, _ := newTestManager(t)
	user := testutil.NewTestUser(t, repo, "user1")

	token, err := mgr.Issue(context.Background(), user.ID)
	require.NoError(t, err)

	_, err = repo.GetToken(context.Background(), token)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestIssue_Unique(t *testing.T) {
	mgr, repo, _ := newTestManager(t)
	user := testutil.NewTestUser(t, repo, "user1")

	seen := make(map[string]bool)
	for range 10 {
		token, err := mgr.Issue(context.Background(), user.ID)
		require.NoError(t, err)
		assert.False(t, seen[token], "duplicate token issued")
		seen[token] = true
	}
}

func TestIssue_CustomLength(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	user := testutil.NewTestUser(t, repo, "user1")
	mgr, err := session.NewManager(repo, session.Config{TokenLength: 16})
	require.NoError(t, err)

	token, err := mgr.Issue(context.Background(), user.ID)

	require.NoError(t, err)
	assert.Len(t, token, 32)
}

func TestVerify(t *testing.T) {
	mgr, repo, _ := newTestManager(t)
	user := testutil.NewTestUser(t, repo, "user1")
	token, err := mgr.Issue(context.Background(), user.ID)
	require.NoError(t, err)

	userID, err := mgr.Verify(context.Background(), token)

	require.NoError(t, err)
	assert.Equal(t, user.ID, userID)
}

func TestVerify_Unknown(t *testing.T) {
	mgr, _, _ := newTestManager(t)

	_, err := mgr.Verify(context.Background(), "unknown")

	assert.ErrorIs(t, err, session.ErrNotAuthenticated)
}

func TestVerify_Empty(t *testing.T) {
	mgr, _, _ := newTestManager(t)

	_, err := mgr.Verify(context.Background(), "")

	assert.ErrorIs(t, err, session.ErrNotAuthenticated)
}

func TestVerify_ExpiresAfterTTL(t *testing.T) {
	mgr, repo, clock := newTestManager(t)
	user := testutil.NewTestUser(t, repo, "user1")
	token, err := mgr.Issue(context.Background(), user.ID)
	require.NoError(t, err)

	clock.Advance(7 * 24 * time.Hour)

	_, err = mgr.Verify(context.Background(), token)
	assert.ErrorIs(t, err, session.ErrNotAuthenticated)

	// Stale rows stay until the sweep removes them
	assert.Equal(t, int64(1), testutil.CountTokens(t, repo.DB()))
}

func TestVerify_SlidingWindow(t *testing.T) {
	mgr, repo, clock := newTestManager(t)
	user := testutil.NewTestUser(t, repo, "user1")
	token, err := mgr.Issue(context.Background(), user.ID)
	require.NoError(t, err)

	// Each use inside the window pushes expiry forward
	for range 3 {
		clock.Advance(6 * 24 * time.Hour)
		_, err = mgr.Verify(context.Background(), token)
		require.NoError(t, err)
	}

	stored, err := repo.GetToken(context.Background(), hashOf(t, repo, user.ID))
	require.NoError(t, err)
	assert.True(t, clock.Now().Equal(stored.LastUsed()))
}

func TestVerify_JustBeforeTTL(t *testing.T) {
	mgr, repo, clock := newTestManager(t)
	user := testutil.NewTestUser(t, repo, "user1")
	token, err := mgr.Issue(context.Background(), user.ID)
	require.NoError(t, err)

	clock.Advance(7*24*time.Hour - time.Millisecond)

	_, err = mgr.Verify(context.Background(), token)
	assert.NoError(t, err)
}

func TestRevoke(t *testing.T) {
	mgr, repo, _ := newTestManager(t)
	user := testutil.NewTestUser(t, repo, "user1")
	token, err := mgr.Issue(context.Background(), user.ID)
	require.NoError(t, err)

	require.NoError(t, mgr.Revoke(context.Background(), token))
	require.NoError(t, mgr.Revoke(context.Background(), token))
	require.NoError(t, mgr.Revoke(context.Background(), ""))

	_, err = mgr.Verify(context.Background(), token)
	assert.ErrorIs(t, err, session.ErrNotAuthenticated)
}

func TestRevokeAll(t *testing.T) {
	mgr, repo, _ := newTestManager(t)
	user1 := testutil.NewTestUser(t, repo, "user1")
	user2 := testutil.NewTestUser(t, repo, "user2")
	ctx := context.Background()

	token1, err := mgr.Issue(ctx, user1.ID)
	require.NoError(t, err)
	token2, err := mgr.Issue(ctx, user1.ID)
	require.NoError(t, err)
	other, err := mgr.Issue(ctx, user2.ID)
	require.NoError(t, err)

	require.NoError(t, mgr.RevokeAll(ctx, user1.ID))

	_, err = mgr.Verify(ctx, token1)
	assert.ErrorIs(t, err, session.ErrNotAuthenticated)
	_, err = mgr.Verify(ctx, token2)
	assert.ErrorIs(t, err, session.ErrNotAuthenticated)
	_, err = mgr.Verify(ctx, other)
	assert.NoError(t, err)
}

func TestSweep(t *testing.T) {
	mgr, repo, clock := newTestManager(t)
	user := testutil.NewTestUser(t, repo, "user1")
	ctx := context.Background()

	stale, err := mgr.Issue(ctx, user.ID)
	require.NoError(t, err)
	clock.Advance(24 * time.Hour)
	fresh, err := mgr.Issue(ctx, user.ID)
	require.NoError(t, err)

	clock.Advance(6 * 24 * time.Hour)

	deleted, err := mgr.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	_, err = mgr.Verify(ctx, stale)
	assert.ErrorIs(t, err, session.ErrNotAuthenticated)
	_, err = mgr.Verify(ctx, fresh)
	assert.NoError(t, err)
}

func TestSweep_Nothing(t *testing.T) {
	mgr, _, _ := newTestManager(t)

	deleted, err := mgr.Sweep(context.Background())

	require.NoError(t, err)
	assert.Zero(t, deleted)
}

// hashOf returns the stored hash of the only token of a user.
func hashOf(t *testing.T, repo *repository.Repository, userID int64) string {
	t.Helper()
	var hash string
	require.NoError(t, repo.DB().Get(&hash, `SELECT token_hash FROM tokens WHERE user_id = ?`, userID))
	return hash
}
