// Package session owns the server-side session records and the resolver
// that reconciles a request's identity signals into a single authoritative
// answer.
package session

import (
	"context"
	"time"
)

// Session binds a client connection to an identity. It is created at
// login, re-validated on every authenticated request, and destroyed at
// logout or on any detected inconsistency.
type Session struct {
	SubjectID string    `json:"subject_id"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
	// Fresh is true only for sessions established by an explicit login.
	// Sessions revived from a remember artifact are never fresh.
	Fresh bool `json:"fresh"`
	// Remember records whether a remember artifact was issued alongside
	// this session.
	Remember bool `json:"remember"`
}

// Store abstracts session persistence so sessions can live in memory
// (default) or in backing storage shared by parallel workers.
type Store interface {
	// Get retrieves a session by token. The bool is false when the session
	// does not exist or has expired; the error reports store failures only.
	Get(ctx context.Context, token string) (Session, bool, error)
	// Put creates or replaces the session for the given token.
	Put(ctx context.Context, token string, s Session) error
	// Delete removes a session. Deleting an absent session is not an error.
	Delete(ctx context.Context, token string) error
	// DeleteBySubject removes every session bound to the given identity.
	DeleteBySubject(ctx context.Context, subjectID string) error
}
