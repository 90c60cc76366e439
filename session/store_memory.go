package session

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is a thread-safe in-memory Store. Sessions are lost on
// server restart.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string]Session
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an in-memory session store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string]Session)}
}

func (s *MemoryStore) Get(ctx context.Context, token string) (Session, bool, error) {
	if err := ctx.Err(); err != nil {
		return Session{}, false, err
	}
	s.mu.RLock()
	sess, ok := s.data[token]
	s.mu.RUnlock()
	if !ok {
		return Session{}, false, nil
	}
	if time.Now().After(sess.ExpiresAt) {
		s.mu.Lock()
		delete(s.data, token)
		s.mu.Unlock()
		return Session{}, false, nil
	}
	return sess, true, nil
}

func (s *MemoryStore) Put(ctx context.Context, token string, sess Session) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	s.data[token] = sess
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, token string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	delete(s.data, token)
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) DeleteBySubject(ctx context.Context, subjectID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	for token, sess := range s.data {
		if sess.SubjectID == subjectID {
			delete(s.data, token)
		}
	}
	s.mu.Unlock()
	return nil
}
