package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nshah/campusmarket/storage/memory"
)

func newRemember(t *testing.T, ttl time.Duration) *Remember {
	t.Helper()
	key := make([]byte, 32)
	copy(key, "0123456789abcdef0123456789abcdef")
	rm, err := NewRemember(memory.NewRepository(), key, ttl)
	require.NoError(t, err)
	return rm
}

func TestRememberIssueAndRedeem(t *testing.T) {
	rm := newRemember(t, time.Hour)
	ctx := context.Background()

	token, expiresAt, err := rm.Issue(ctx, "user-1")
	require.NoError(t, err)
	require.NotEmpty(t, token)
	assert.True(t, expiresAt.After(time.Now()))

	subject, err := rm.Redeem(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", subject)

	// Artifacts are reusable until revoked or expired.
	subject, err = rm.Redeem(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", subject)
}

func TestRememberRevoke(t *testing.T) {
	rm := newRemember(t, time.Hour)
	ctx := context.Background()

	token, _, err := rm.Issue(ctx, "user-1")
	require.NoError(t, err)

	rm.Revoke(ctx, token)
	_, err = rm.Redeem(ctx, token)
	assert.ErrorIs(t, err, ErrRememberInvalid)

	// Revoking again, or revoking garbage, is harmless.
	rm.Revoke(ctx, token)
	rm.Revoke(ctx, "not-a-jwt")
}

func TestRememberRevokeSubject(t *testing.T) {
	rm := newRemember(t, time.Hour)
	ctx := context.Background()

	t1, _, err := rm.Issue(ctx, "user-1")
	require.NoError(t, err)
	t2, _, err := rm.Issue(ctx, "user-1")
	require.NoError(t, err)
	other, _, err := rm.Issue(ctx, "user-2")
	require.NoError(t, err)

	require.NoError(t, rm.RevokeSubject(ctx, "user-1"))

	_, err = rm.Redeem(ctx, t1)
	assert.ErrorIs(t, err, ErrRememberInvalid)
	_, err = rm.Redeem(ctx, t2)
	assert.ErrorIs(t, err, ErrRememberInvalid)
	_, err = rm.Redeem(ctx, other)
	assert.NoError(t, err)
}

func TestRememberExpired(t *testing.T) {
	rm := newRemember(t, -time.Minute)
	ctx := context.Background()

	token, _, err := rm.Issue(ctx, "user-1")
	require.NoError(t, err)

	_, err = rm.Redeem(ctx, token)
	assert.ErrorIs(t, err, ErrRememberInvalid)
}

func TestRememberWrongKeyRejected(t *testing.T) {
	rm := newRemember(t, time.Hour)
	token, _, err := rm.Issue(context.Background(), "user-1")
	require.NoError(t, err)

	key2 := make([]byte, 32)
	copy(key2, "ffffffffffffffffffffffffffffffff")
	otherKeyed, err := NewRemember(memory.NewRepository(), key2, time.Hour)
	require.NoError(t, err)

	_, err = otherKeyed.Redeem(context.Background(), token)
	assert.ErrorIs(t, err, ErrRememberInvalid)
}

func TestRememberKeyTooShort(t *testing.T) {
	_, err := NewRemember(memory.NewRepository(), []byte("short"), time.Hour)
	assert.Error(t, err)
}
