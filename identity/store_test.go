package identity

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nshah/campusmarket/storage"
	"github.com/nshah/campusmarket/storage/memory"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	return NewStore(memory.NewRepository())
}

func createUser(t *testing.T, s *Store, email string) *Identity {
	t.Helper()
	h, err := HashPassword("secret-password")
	require.NoError(t, err)
	id := &Identity{
		Email:    email,
		Username: "student",
		Password: h,
	}
	require.NoError(t, s.Create(context.Background(), id))
	return id
}

func TestCreateAndFind(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	created := createUser(t, s, "a@nyu.edu")
	require.NotEmpty(t, created.ID)

	byID, err := s.FindByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "a@nyu.edu", byID.Email)

	byEmail, err := s.FindByEmail(ctx, "A@NYU.EDU")
	require.NoError(t, err)
	assert.Equal(t, created.ID, byEmail.ID)
}

func TestCreateRejectsDuplicateEmail(t *testing.T) {
	s := newTestStore(t)

	createUser(t, s, "a@nyu.edu")
	err := s.Create(context.Background(), &Identity{Email: "a@nyu.edu", Username: "other"})
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestInstitutionalIDUnique(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	id := &Identity{Email: "a@nyu.edu", Username: "a", InstitutionalID: "N1234567"}
	require.NoError(t, s.Create(ctx, id))

	dup := &Identity{Email: "b@nyu.edu", Username: "b", InstitutionalID: "N1234567"}
	assert.ErrorIs(t, s.Create(ctx, dup), ErrInstitutionalIDTaken)

	found, err := s.FindByInstitutionalID(ctx, "N1234567")
	require.NoError(t, err)
	assert.Equal(t, id.ID, found.ID)
}

func TestUpdateFieldsMovesEmailIndex(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	created := createUser(t, s, "a@nyu.edu")
	require.NoError(t, s.UpdateFields(ctx, created.ID, "", "b@nyu.edu", "", "new bio"))

	_, err := s.FindByEmail(ctx, "a@nyu.edu")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	moved, err := s.FindByEmail(ctx, "b@nyu.edu")
	require.NoError(t, err)
	assert.Equal(t, created.ID, moved.ID)
	assert.Equal(t, "new bio", moved.Bio)
}

func TestResetTokenLifecycle(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	created := createUser(t, s, "a@nyu.edu")

	token, err := s.IssueResetToken(ctx, created.ID, time.Hour)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	found, err := s.FindByResetToken(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, created.ID, found.ID)
	assert.True(t, found.ResetTokenExpiry.After(time.Now()))

	// Issuing again replaces the previous token.
	token2, err := s.IssueResetToken(ctx, created.ID, time.Hour)
	require.NoError(t, err)
	_, err = s.FindByResetToken(ctx, token)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	require.NoError(t, s.ClearResetToken(ctx, created.ID))
	_, err = s.FindByResetToken(ctx, token2)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	// Clearing twice is a no-op.
	require.NoError(t, s.ClearResetToken(ctx, created.ID))
}

func TestSetPassword(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	created := createUser(t, s, "a@nyu.edu")

	h, err := HashPassword("brand-new-password")
	require.NoError(t, err)
	require.NoError(t, s.SetPassword(ctx, created.ID, h))

	reloaded, err := s.FindByID(ctx, created.ID)
	require.NoError(t, err)
	assert.True(t, VerifyPassword(reloaded.Password, "brand-new-password"))
	assert.False(t, VerifyPassword(reloaded.Password, "secret-password"))
}
