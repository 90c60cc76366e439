// Package memory provides a thread-safe in-memory implementation of storage.Repository.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/nshah/campusmarket/storage"
)

// Repository is a thread-safe in-memory implementation of storage.Repository.
// Suitable for testing, demos, and single-process use cases.
type Repository struct {
	mu   sync.RWMutex
	data map[string]map[string][]byte
}

var _ storage.Repository = (*Repository)(nil)

// NewRepository creates a new empty in-memory Repository.
func NewRepository() *Repository {
	return &Repository{data: make(map[string]map[string][]byte)}
}

func (r *Repository) Put(ctx context.Context, collection, id string, doc []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.data[collection]; !ok {
		r.data[collection] = make(map[string][]byte)
	}
	r.data[collection][id] = append([]byte(nil), doc...)
	return nil
}

func (r *Repository) Get(ctx context.Context, collection, id string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	docs, ok := r.data[collection]
	if !ok {
		return nil, fmt.Errorf("%s/%s: %w", collection, id, storage.ErrNotFound)
	}
	doc, ok := docs[id]
	if !ok {
		return nil, fmt.Errorf("%s/%s: %w", collection, id, storage.ErrNotFound)
	}
	return append([]byte(nil), doc...), nil
}

func (r *Repository) Delete(ctx context.Context, collection, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	docs, ok := r.data[collection]
	if !ok {
		return fmt.Errorf("%s/%s: %w", collection, id, storage.ErrNotFound)
	}
	if _, ok := docs[id]; !ok {
		return fmt.Errorf("%s/%s: %w", collection, id, storage.ErrNotFound)
	}
	delete(docs, id)
	return nil
}

func (r *Repository) List(ctx context.Context, collection string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	var ids []string
	for id := range r.data[collection] {
		ids = append(ids, id)
	}
	return ids, nil
}

func (r *Repository) ForEach(ctx context.Context, collection string, fn func(id string, doc []byte) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	// Copy under the read lock so fn can call back into the repository.
	r.mu.RLock()
	docs := make(map[string][]byte, len(r.data[collection]))
	for id, doc := range r.data[collection] {
		docs[id] = append([]byte(nil), doc...)
	}
	r.mu.RUnlock()
	for id, doc := range docs {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := fn(id, doc); err != nil {
			return err
		}
	}
	return nil
}
