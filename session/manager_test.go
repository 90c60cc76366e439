package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nshah/campusmarket/identity"
	"github.com/nshah/campusmarket/storage/memory"
)

func newManagerFixture(t *testing.T) (*Manager, *identity.Store, Store) {
	t.Helper()
	repo := memory.NewRepository()
	ids := identity.NewStore(repo)
	sessions := NewMemoryStore()
	remember, err := NewRemember(repo, make([]byte, 32), 30*24*time.Hour)
	require.NoError(t, err)
	m := NewManager(sessions, ids, remember, testLogger(), time.Hour, time.Hour, time.Second)
	return m, ids, sessions
}

func registerUser(t *testing.T, ids *identity.Store, email, password string) *identity.Identity {
	t.Helper()
	h, err := identity.HashPassword(password)
	require.NoError(t, err)
	id := &identity.Identity{Email: email, Username: "student", Password: h}
	require.NoError(t, ids.Create(context.Background(), id))
	return id
}

func TestLoginIssuesFreshSession(t *testing.T) {
	m, ids, _ := newManagerFixture(t)
	user := registerUser(t, ids, "a@nyu.edu", "correct-password")

	token, sess, rememberToken, err := m.Login(context.Background(), "a@nyu.edu", "correct-password", false, "")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.Empty(t, rememberToken)
	assert.Equal(t, user.ID, sess.SubjectID)
	assert.True(t, sess.Fresh)

	res, err := m.Resolve(context.Background(), Signals{Token: token, RequireFresh: true})
	require.NoError(t, err)
	assert.True(t, res.Authenticated())
	assert.True(t, res.Fresh)
}

func TestLoginFailuresAreUniform(t *testing.T) {
	m, ids, _ := newManagerFixture(t)
	registerUser(t, ids, "a@nyu.edu", "correct-password")

	_, _, _, errWrongSecret := m.Login(context.Background(), "a@nyu.edu", "wrong", false, "")
	_, _, _, errUnknownUser := m.Login(context.Background(), "nobody@nyu.edu", "wrong", false, "")

	assert.ErrorIs(t, errWrongSecret, ErrInvalidCredentials)
	assert.ErrorIs(t, errUnknownUser, ErrInvalidCredentials)
	assert.Equal(t, errWrongSecret.Error(), errUnknownUser.Error())
}

func TestLoginDestroysPriorSession(t *testing.T) {
	m, ids, sessions := newManagerFixture(t)
	registerUser(t, ids, "a@nyu.edu", "correct-password")

	prior, _, _, err := m.Login(context.Background(), "a@nyu.edu", "correct-password", false, "")
	require.NoError(t, err)

	// Logging in again on the same connection replaces the prior session,
	// even though it belonged to the same user.
	next, _, _, err := m.Login(context.Background(), "a@nyu.edu", "correct-password", false, prior)
	require.NoError(t, err)
	require.NotEqual(t, prior, next)

	_, ok, err := sessions.Get(context.Background(), prior)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestLoginWithRemember(t *testing.T) {
	m, ids, _ := newManagerFixture(t)
	user := registerUser(t, ids, "a@nyu.edu", "correct-password")

	_, sess, rememberToken, err := m.Login(context.Background(), "a@nyu.edu", "correct-password", true, "")
	require.NoError(t, err)
	require.NotEmpty(t, rememberToken)
	assert.True(t, sess.Remember)

	// Revival produces a new session that is NOT fresh.
	token, revived, err := m.Revive(context.Background(), rememberToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID, revived.SubjectID)
	assert.False(t, revived.Fresh)

	_, err = m.Resolve(context.Background(), Signals{Token: token, RequireFresh: true})
	assert.ErrorIs(t, err, ErrFreshnessRequired)
}

func TestLogoutIdempotent(t *testing.T) {
	m, ids, _ := newManagerFixture(t)
	registerUser(t, ids, "a@nyu.edu", "correct-password")

	token, _, rememberToken, err := m.Login(context.Background(), "a@nyu.edu", "correct-password", true, "")
	require.NoError(t, err)

	require.NoError(t, m.Logout(context.Background(), token, rememberToken))
	// Second logout, and logout with nothing at all, both succeed.
	require.NoError(t, m.Logout(context.Background(), token, rememberToken))
	require.NoError(t, m.Logout(context.Background(), "", ""))

	res, err := m.Resolve(context.Background(), Signals{Token: token})
	require.NoError(t, err)
	assert.False(t, res.Authenticated())

	_, _, err = m.Revive(context.Background(), rememberToken)
	assert.ErrorIs(t, err, ErrRememberInvalid)
}

func TestRequestResetEnumerationSafe(t *testing.T) {
	m, ids, _ := newManagerFixture(t)
	registerUser(t, ids, "a@nyu.edu", "correct-password")

	unknown, err := m.RequestReset(context.Background(), "ghost@nyu.edu")
	require.NoError(t, err)
	assert.Empty(t, unknown)

	known, err := m.RequestReset(context.Background(), "a@nyu.edu")
	require.NoError(t, err)
	assert.NotEmpty(t, known)
	assert.True(t, m.VerifyReset(context.Background(), known))
}

func TestConsumeResetSingleUse(t *testing.T) {
	m, ids, _ := newManagerFixture(t)
	registerUser(t, ids, "a@nyu.edu", "old-password")

	sessionToken, _, _, err := m.Login(context.Background(), "a@nyu.edu", "old-password", false, "")
	require.NoError(t, err)

	token, err := m.RequestReset(context.Background(), "a@nyu.edu")
	require.NoError(t, err)

	require.NoError(t, m.ConsumeReset(context.Background(), token, "new-password"))

	// Second consume with the same token fails like an unknown token.
	err = m.ConsumeReset(context.Background(), token, "another-password")
	assert.ErrorIs(t, err, ErrInvalidResetToken)
	assert.False(t, m.VerifyReset(context.Background(), token))

	// Existing sessions are no longer trusted after a reset.
	res, err := m.Resolve(context.Background(), Signals{Token: sessionToken})
	require.NoError(t, err)
	assert.False(t, res.Authenticated())

	// Old credentials fail, new ones work.
	_, _, _, err = m.Login(context.Background(), "a@nyu.edu", "old-password", false, "")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, _, _, err = m.Login(context.Background(), "a@nyu.edu", "new-password", false, "")
	assert.NoError(t, err)
}

func TestVerifyResetExpired(t *testing.T) {
	repo := memory.NewRepository()
	ids := identity.NewStore(repo)
	remember, err := NewRemember(repo, make([]byte, 32), time.Hour)
	require.NoError(t, err)
	// Tokens expire immediately.
	m := NewManager(NewMemoryStore(), ids, remember, testLogger(), time.Hour, -time.Second, time.Second)
	registerUser(t, ids, "a@nyu.edu", "password-here")

	token, err := m.RequestReset(context.Background(), "a@nyu.edu")
	require.NoError(t, err)

	assert.False(t, m.VerifyReset(context.Background(), token))
	assert.ErrorIs(t, m.ConsumeReset(context.Background(), token, "newpass"), ErrInvalidResetToken)
}

func TestVerifyResetUnknownToken(t *testing.T) {
	m, _, _ := newManagerFixture(t)
	assert.False(t, m.VerifyReset(context.Background(), "deadbeef"))
}
