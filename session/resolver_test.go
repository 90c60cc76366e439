package session

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nshah/campusmarket/identity"
	"github.com/nshah/campusmarket/storage/memory"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestIdentity(t *testing.T, ids *identity.Store, email string) *identity.Identity {
	t.Helper()
	h, err := identity.HashPassword("a-valid-password")
	require.NoError(t, err)
	id := &identity.Identity{Email: email, Username: "student", Password: h}
	require.NoError(t, ids.Create(context.Background(), id))
	return id
}

func newResolverFixture(t *testing.T) (*Resolver, Store, *identity.Store) {
	t.Helper()
	sessions := NewMemoryStore()
	ids := identity.NewStore(memory.NewRepository())
	return NewResolver(sessions, ids, testLogger(), time.Second), sessions, ids
}

func putSession(t *testing.T, sessions Store, token, subjectID string, fresh bool) {
	t.Helper()
	now := time.Now().UTC()
	require.NoError(t, sessions.Put(context.Background(), token, Session{
		SubjectID: subjectID,
		IssuedAt:  now,
		ExpiresAt: now.Add(time.Hour),
		Fresh:     fresh,
	}))
}

func TestResolveNoSession(t *testing.T) {
	r, _, ids := newResolverFixture(t)
	real := newTestIdentity(t, ids, "a@nyu.edu")

	// A hint naming a real identity must never authenticate on its own.
	for _, hint := range []string{"", "undefined", "null", "  ", real.ID} {
		res, err := r.Resolve(context.Background(), Signals{Token: "", ClientHint: hint})
		require.NoError(t, err)
		assert.False(t, res.Authenticated(), "hint %q", hint)
	}
}

func TestResolveUnknownToken(t *testing.T) {
	r, _, _ := newResolverFixture(t)

	res, err := r.Resolve(context.Background(), Signals{Token: "no-such-token"})
	require.NoError(t, err)
	assert.False(t, res.Authenticated())
}

func TestResolveAuthenticated(t *testing.T) {
	r, sessions, ids := newResolverFixture(t)
	subject := newTestIdentity(t, ids, "a@nyu.edu")
	putSession(t, sessions, "tok", subject.ID, true)

	res, err := r.Resolve(context.Background(), Signals{Token: "tok"})
	require.NoError(t, err)
	require.True(t, res.Authenticated())
	assert.Equal(t, subject.ID, res.Subject.ID)
	assert.True(t, res.Fresh)
}

func TestResolveHintMismatchSessionWins(t *testing.T) {
	r, sessions, ids := newResolverFixture(t)
	userA := newTestIdentity(t, ids, "a@nyu.edu")
	userB := newTestIdentity(t, ids, "b@nyu.edu")
	putSession(t, sessions, "tok", userA.ID, true)

	// B is a real, existing identity; the acting identity must still be A.
	res, err := r.Resolve(context.Background(), Signals{Token: "tok", ClientHint: userB.ID})
	require.NoError(t, err)
	require.True(t, res.Authenticated())
	assert.Equal(t, userA.ID, res.Subject.ID)
}

func TestResolveMissingSubjectTearsDownSession(t *testing.T) {
	r, sessions, _ := newResolverFixture(t)
	putSession(t, sessions, "tok", "ghost-user", true)

	res, err := r.Resolve(context.Background(), Signals{Token: "tok"})
	require.NoError(t, err)
	assert.False(t, res.Authenticated())

	_, ok, err := sessions.Get(context.Background(), "tok")
	require.NoError(t, err)
	assert.False(t, ok, "corrupt session should be deleted")
}

func TestResolveFreshnessGate(t *testing.T) {
	r, sessions, ids := newResolverFixture(t)
	subject := newTestIdentity(t, ids, "a@nyu.edu")
	putSession(t, sessions, "stale", subject.ID, false)
	putSession(t, sessions, "fresh", subject.ID, true)

	res, err := r.Resolve(context.Background(), Signals{Token: "stale", RequireFresh: true})
	assert.ErrorIs(t, err, ErrFreshnessRequired)
	assert.False(t, res.Authenticated())

	// The same session remains usable without the freshness demand.
	res, err = r.Resolve(context.Background(), Signals{Token: "stale"})
	require.NoError(t, err)
	assert.True(t, res.Authenticated())
	assert.False(t, res.Fresh)

	res, err = r.Resolve(context.Background(), Signals{Token: "fresh", RequireFresh: true})
	require.NoError(t, err)
	assert.True(t, res.Authenticated())
	assert.True(t, res.Fresh)
}

func TestResolveExpiredSession(t *testing.T) {
	r, sessions, ids := newResolverFixture(t)
	subject := newTestIdentity(t, ids, "a@nyu.edu")
	now := time.Now().UTC()
	require.NoError(t, sessions.Put(context.Background(), "tok", Session{
		SubjectID: subject.ID,
		IssuedAt:  now.Add(-2 * time.Hour),
		ExpiresAt: now.Add(-time.Hour),
		Fresh:     true,
	}))

	res, err := r.Resolve(context.Background(), Signals{Token: "tok"})
	require.NoError(t, err)
	assert.False(t, res.Authenticated())
}

// failingStore simulates an unreachable session store.
type failingStore struct{}

func (failingStore) Get(context.Context, string) (Session, bool, error) {
	return Session{}, false, errors.New("store unreachable")
}
func (failingStore) Put(context.Context, string, Session) error  { return errors.New("store unreachable") }
func (failingStore) Delete(context.Context, string) error        { return errors.New("store unreachable") }
func (failingStore) DeleteBySubject(context.Context, string) error {
	return errors.New("store unreachable")
}

func TestResolveStoreFailureFailsClosed(t *testing.T) {
	ids := identity.NewStore(memory.NewRepository())
	r := NewResolver(failingStore{}, ids, testLogger(), time.Second)

	res, err := r.Resolve(context.Background(), Signals{Token: "tok", ClientHint: "someone"})
	require.NoError(t, err)
	assert.False(t, res.Authenticated())
}

func TestCanonicalHint(t *testing.T) {
	assert.Equal(t, "", CanonicalHint(""))
	assert.Equal(t, "", CanonicalHint("undefined"))
	assert.Equal(t, "", CanonicalHint("null"))
	assert.Equal(t, "", CanonicalHint("   "))
	assert.Equal(t, "abc", CanonicalHint(" abc "))
}
