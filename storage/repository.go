// Package storage provides the document storage abstraction for marketplace records.
package storage

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a requested record does not exist. It is
// distinct from infrastructure failures so callers can tell "absent" from
// "store unreachable".
var ErrNotFound = errors.New("record not found")

// Repository defines keyed JSON document storage. Records are grouped into
// named collections and addressed by an opaque string id within the
// collection. Implementations must honor context cancellation and
// deadlines; a round trip past its deadline fails with the context's
// error, never with a partial result.
type Repository interface {
	Put(ctx context.Context, collection, id string, doc []byte) error
	Get(ctx context.Context, collection, id string) ([]byte, error)
	Delete(ctx context.Context, collection, id string) error
	List(ctx context.Context, collection string) ([]string, error)
	// ForEach visits every record in a collection. Returning an error from
	// fn stops the iteration and propagates that error to the caller.
	ForEach(ctx context.Context, collection string, fn func(id string, doc []byte) error) error
}
