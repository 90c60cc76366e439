package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/nshah/campusmarket/storage"
)

const (
	sessionCollection = "sessions"
	cleanupInterval   = 5 * time.Minute
)

// PersistentStore keeps sessions in a storage.Repository so they survive
// server restarts and are visible to every worker sharing the store.
type PersistentStore struct {
	repo     storage.Repository
	stopOnce sync.Once
	stopCh   chan struct{}
}

var _ Store = (*PersistentStore)(nil)

// NewPersistentStore creates a session store backed by the given
// repository and starts a background sweep of expired records.
func NewPersistentStore(repo storage.Repository) *PersistentStore {
	s := &PersistentStore{
		repo:   repo,
		stopCh: make(chan struct{}),
	}
	go s.cleanupLoop()
	return s
}

// Close stops the background cleanup goroutine.
func (s *PersistentStore) Close() {
	s.stopOnce.Do(func() { close(s.stopCh) })
}

func (s *PersistentStore) Get(ctx context.Context, token string) (Session, bool, error) {
	doc, err := s.repo.Get(ctx, sessionCollection, token)
	if errors.Is(err, storage.ErrNotFound) {
		return Session{}, false, nil
	}
	if err != nil {
		return Session{}, false, fmt.Errorf("loading session: %w", err)
	}
	var sess Session
	if err := json.Unmarshal(doc, &sess); err != nil {
		// Corrupt record: remove it and report the session as absent.
		_ = s.repo.Delete(ctx, sessionCollection, token)
		return Session{}, false, nil
	}
	if time.Now().After(sess.ExpiresAt) {
		_ = s.repo.Delete(ctx, sessionCollection, token)
		return Session{}, false, nil
	}
	return sess, true, nil
}

func (s *PersistentStore) Put(ctx context.Context, token string, sess Session) error {
	doc, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("encoding session: %w", err)
	}
	return s.repo.Put(ctx, sessionCollection, token, doc)
}

func (s *PersistentStore) Delete(ctx context.Context, token string) error {
	err := s.repo.Delete(ctx, sessionCollection, token)
	if errors.Is(err, storage.ErrNotFound) {
		return nil
	}
	return err
}

func (s *PersistentStore) DeleteBySubject(ctx context.Context, subjectID string) error {
	var tokens []string
	err := s.repo.ForEach(ctx, sessionCollection, func(token string, doc []byte) error {
		var sess Session
		if err := json.Unmarshal(doc, &sess); err != nil {
			tokens = append(tokens, token) // corrupt entry, remove it
			return nil
		}
		if sess.SubjectID == subjectID {
			tokens = append(tokens, token)
		}
		return nil
	})
	if err != nil {
		return err
	}
	for _, token := range tokens {
		if err := s.Delete(ctx, token); err != nil {
			return err
		}
	}
	return nil
}

func (s *PersistentStore) cleanupLoop() {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-s.stopCh:
			return
		case <-ticker.C:
			s.sweepExpired()
		}
	}
}

func (s *PersistentStore) sweepExpired() {
	ctx := context.Background()
	now := time.Now()
	var expired []string
	_ = s.repo.ForEach(ctx, sessionCollection, func(token string, doc []byte) error {
		var sess Session
		if err := json.Unmarshal(doc, &sess); err != nil {
			expired = append(expired, token)
			return nil
		}
		if now.After(sess.ExpiresAt) {
			expired = append(expired, token)
		}
		return nil
	})
	for _, token := range expired {
		_ = s.repo.Delete(ctx, sessionCollection, token)
	}
}
