package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nshah/campusmarket/storage/memory"
)

func testSession(subjectID string, ttl time.Duration) Session {
	now := time.Now().UTC()
	return Session{
		SubjectID: subjectID,
		IssuedAt:  now,
		ExpiresAt: now.Add(ttl),
		Fresh:     true,
	}
}

func runStoreTests(t *testing.T, s Store) {
	ctx := context.Background()

	t.Run("GetAbsent", func(t *testing.T) {
		_, ok, err := s.Get(ctx, "absent")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("PutGetDelete", func(t *testing.T) {
		require.NoError(t, s.Put(ctx, "t1", testSession("u1", time.Hour)))

		sess, ok, err := s.Get(ctx, "t1")
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, "u1", sess.SubjectID)
		assert.True(t, sess.Fresh)

		require.NoError(t, s.Delete(ctx, "t1"))
		_, ok, err = s.Get(ctx, "t1")
		require.NoError(t, err)
		assert.False(t, ok)

		// Delete is idempotent.
		require.NoError(t, s.Delete(ctx, "t1"))
	})

	t.Run("ExpiredSessionAbsent", func(t *testing.T) {
		require.NoError(t, s.Put(ctx, "t2", testSession("u1", -time.Minute)))
		_, ok, err := s.Get(ctx, "t2")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("DeleteBySubject", func(t *testing.T) {
		require.NoError(t, s.Put(ctx, "a1", testSession("alice", time.Hour)))
		require.NoError(t, s.Put(ctx, "a2", testSession("alice", time.Hour)))
		require.NoError(t, s.Put(ctx, "b1", testSession("bob", time.Hour)))

		require.NoError(t, s.DeleteBySubject(ctx, "alice"))

		_, ok, err := s.Get(ctx, "a1")
		require.NoError(t, err)
		assert.False(t, ok)
		_, ok, err = s.Get(ctx, "a2")
		require.NoError(t, err)
		assert.False(t, ok)
		_, ok, err = s.Get(ctx, "b1")
		require.NoError(t, err)
		assert.True(t, ok)
	})
}

func TestMemoryStore(t *testing.T) {
	runStoreTests(t, NewMemoryStore())
}

func TestPersistentStore(t *testing.T) {
	s := NewPersistentStore(memory.NewRepository())
	t.Cleanup(s.Close)
	runStoreTests(t, s)
}
