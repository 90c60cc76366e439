package session

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/nshah/campusmarket/identity"
	"github.com/nshah/campusmarket/storage"
)

// ErrFreshnessRequired is returned when an operation demands a fresh
// session but the current one was revived from a remember artifact. The
// caller should direct the client to re-authenticate.
var ErrFreshnessRequired = errors.New("re-authentication required")

// IdentityFinder is the slice of the identity store the resolver needs.
type IdentityFinder interface {
	FindByID(ctx context.Context, userID string) (*identity.Identity, error)
}

// Signals are the identity inputs available on one request.
type Signals struct {
	// Token is the session cookie value; empty when no cookie was sent.
	Token string
	// ClientHint is the client-supplied X-User-ID header. It is
	// diagnostics only and never selects the acting identity.
	ClientHint string
	// RequireFresh demands a session established by an explicit login.
	RequireFresh bool
}

// Resolution is the outcome of resolving a request's signals. A nil
// Subject means the request is unauthenticated; there are no other states.
type Resolution struct {
	Subject *identity.Identity
	Fresh   bool
}

// Authenticated reports whether the resolution carries an identity.
func (r Resolution) Authenticated() bool {
	return r.Subject != nil
}

// Resolver produces exactly one authoritative identity per request from
// the session store and identity store. Store failures resolve closed:
// the request proceeds unauthenticated, never with a fallback identity.
type Resolver struct {
	sessions Store
	ids      IdentityFinder
	log      *slog.Logger
	timeout  time.Duration
}

// NewResolver creates a Resolver. timeout bounds each resolution's store
// round trips.
func NewResolver(sessions Store, ids IdentityFinder, log *slog.Logger, timeout time.Duration) *Resolver {
	return &Resolver{sessions: sessions, ids: ids, log: log, timeout: timeout}
}

// Resolve applies the priority rules, first match wins:
//
//  1. No session token: unauthenticated. The client hint is never
//     consulted, so a header alone can never authenticate.
//  2. Session names an identity that no longer exists: the session is
//     corrupt; it is torn down and the request is unauthenticated.
//  3. Freshness required but the session is not fresh:
//     ErrFreshnessRequired.
//  4. Client hint disagrees with the session subject: logged, ignored.
//     The session is authoritative.
//  5. Otherwise authenticated as the session's subject.
//
// Resolution never extends the session's expiry.
func (r *Resolver) Resolve(ctx context.Context, sig Signals) (Resolution, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	if sig.Token == "" {
		return Resolution{}, nil
	}

	sess, ok, err := r.sessions.Get(ctx, sig.Token)
	if err != nil {
		r.log.Error("session store lookup failed; resolving unauthenticated", "error", err)
		return Resolution{}, nil
	}
	if !ok {
		return Resolution{}, nil
	}

	subject, err := r.ids.FindByID(ctx, sess.SubjectID)
	if errors.Is(err, storage.ErrNotFound) {
		r.log.Warn("session subject no longer exists; tearing down session",
			"subject_id", sess.SubjectID)
		if derr := r.sessions.Delete(ctx, sig.Token); derr != nil {
			r.log.Error("tearing down corrupt session failed", "error", derr)
		}
		return Resolution{}, nil
	}
	if err != nil {
		r.log.Error("identity store lookup failed; resolving unauthenticated", "error", err)
		return Resolution{}, nil
	}

	if sig.RequireFresh && !sess.Fresh {
		return Resolution{}, ErrFreshnessRequired
	}

	if hint := CanonicalHint(sig.ClientHint); hint != "" && hint != sess.SubjectID {
		// Attacker-controllable input; never escalates or changes the
		// acting identity.
		r.log.Warn("client identity hint conflicts with session; session wins",
			"session_subject", sess.SubjectID,
			"client_hint", hint)
	}

	return Resolution{Subject: subject, Fresh: sess.Fresh}, nil
}

// CanonicalHint strips a client identity hint down to a usable value.
// Browsers that serialize missing values send the literals "undefined"
// and "null"; those count as absent.
func CanonicalHint(hint string) string {
	hint = strings.TrimSpace(hint)
	if hint == "undefined" || hint == "null" {
		return ""
	}
	return hint
}
