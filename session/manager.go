package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/nshah/campusmarket/identity"
	"github.com/nshah/campusmarket/internal/util"
	"github.com/nshah/campusmarket/storage"
)

const sessionTokenLen = 32

var (
	// ErrInvalidCredentials is the single failure for login. It never
	// distinguishes an unknown identifier from a wrong secret.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidResetToken is the single failure for unknown, expired,
	// and already-consumed reset tokens alike.
	ErrInvalidResetToken = errors.New("invalid or expired reset token")
)

// Manager drives the session lifecycle: login, remember revival, logout,
// and the password reset flow. All store round trips are bounded by the
// configured timeout.
type Manager struct {
	sessions Store
	ids      *identity.Store
	remember *Remember
	resolver *Resolver
	log      *slog.Logger

	sessionTTL time.Duration
	resetTTL   time.Duration
	timeout    time.Duration
}

// NewManager wires the session manager.
func NewManager(sessions Store, ids *identity.Store, remember *Remember, log *slog.Logger, sessionTTL, resetTTL, timeout time.Duration) *Manager {
	return &Manager{
		sessions:   sessions,
		ids:        ids,
		remember:   remember,
		resolver:   NewResolver(sessions, ids, log, timeout),
		log:        log,
		sessionTTL: sessionTTL,
		resetTTL:   resetTTL,
		timeout:    timeout,
	}
}

// Resolve reconciles a request's identity signals. See Resolver.Resolve.
func (m *Manager) Resolve(ctx context.Context, sig Signals) (Resolution, error) {
	return m.resolver.Resolve(ctx, sig)
}

// Login authenticates the identifier/secret pair and establishes a fresh
// session. priorToken names any session already attached to this client
// connection; it is destroyed before the new session is created, even
// when it belongs to the same identity, so an attacker-planted session
// can never survive a login.
//
// When remember is true a remember artifact is issued alongside the
// session with its own, longer expiry.
func (m *Manager) Login(ctx context.Context, email, secret string, remember bool, priorToken string) (token string, sess Session, rememberToken string, err error) {
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	id, ferr := m.ids.FindByEmail(ctx, email)
	if errors.Is(ferr, storage.ErrNotFound) {
		// Burn the same work as a real verification so the two failure
		// causes are indistinguishable from the outside.
		identity.BurnVerification(secret)
		return "", Session{}, "", ErrInvalidCredentials
	}
	if ferr != nil {
		return "", Session{}, "", fmt.Errorf("looking up identity: %w", ferr)
	}
	if !identity.VerifyPassword(id.Password, secret) {
		return "", Session{}, "", ErrInvalidCredentials
	}

	if priorToken != "" {
		if derr := m.sessions.Delete(ctx, priorToken); derr != nil {
			m.log.Error("destroying prior session failed", "error", derr)
		}
	}

	token, err = util.RandomHex(sessionTokenLen)
	if err != nil {
		return "", Session{}, "", err
	}
	now := time.Now().UTC()
	sess = Session{
		SubjectID: id.ID,
		IssuedAt:  now,
		ExpiresAt: now.Add(m.sessionTTL),
		Fresh:     true,
		Remember:  remember,
	}
	if err := m.sessions.Put(ctx, token, sess); err != nil {
		return "", Session{}, "", fmt.Errorf("creating session: %w", err)
	}

	if remember {
		rememberToken, _, err = m.remember.Issue(ctx, id.ID)
		if err != nil {
			// The session itself is valid; losing the artifact only loses
			// revival.
			m.log.Error("issuing remember artifact failed", "error", err)
			rememberToken = ""
		}
	}
	return token, sess, rememberToken, nil
}

// Revive redeems a remember artifact into a new, non-fresh session. The
// artifact stays valid for future revivals until it expires or is revoked.
func (m *Manager) Revive(ctx context.Context, rememberToken string) (string, Session, error) {
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	subjectID, err := m.remember.Redeem(ctx, rememberToken)
	if err != nil {
		return "", Session{}, err
	}
	if _, err := m.ids.FindByID(ctx, subjectID); err != nil {
		// Identity gone: the artifact is dead weight, drop it.
		m.remember.Revoke(ctx, rememberToken)
		return "", Session{}, ErrRememberInvalid
	}

	token, err := util.RandomHex(sessionTokenLen)
	if err != nil {
		return "", Session{}, err
	}
	now := time.Now().UTC()
	sess := Session{
		SubjectID: subjectID,
		IssuedAt:  now,
		ExpiresAt: now.Add(m.sessionTTL),
		Fresh:     false,
		Remember:  true,
	}
	if err := m.sessions.Put(ctx, token, sess); err != nil {
		return "", Session{}, fmt.Errorf("creating revived session: %w", err)
	}
	return token, sess, nil
}

// Logout destroys the session and remember artifact for this connection.
// It is idempotent: logging out twice, or with nothing to log out of,
// succeeds.
func (m *Manager) Logout(ctx context.Context, token, rememberToken string) error {
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	if token != "" {
		if err := m.sessions.Delete(ctx, token); err != nil {
			m.log.Error("deleting session at logout failed", "error", err)
		}
	}
	if rememberToken != "" {
		m.remember.Revoke(ctx, rememberToken)
	}
	return nil
}

// RequestReset begins the password reset flow. It succeeds whether or not
// the email is registered; only in the registered case is a token issued.
// The returned token is empty for unknown emails — callers must not let
// the difference show in their response.
func (m *Manager) RequestReset(ctx context.Context, email string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	id, err := m.ids.FindByEmail(ctx, email)
	if errors.Is(err, storage.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("looking up identity: %w", err)
	}
	token, err := m.ids.IssueResetToken(ctx, id.ID, m.resetTTL)
	if err != nil {
		return "", fmt.Errorf("issuing reset token: %w", err)
	}
	return token, nil
}

// VerifyReset reports whether a reset token is currently consumable.
// Unknown, expired, and consumed tokens are all simply invalid.
func (m *Manager) VerifyReset(ctx context.Context, token string) bool {
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	id, err := m.ids.FindByResetToken(ctx, token)
	if err != nil {
		return false
	}
	return time.Now().Before(id.ResetTokenExpiry)
}

// ConsumeReset redeems a valid token for a new password. The token is
// single use, and every session and remember artifact of the identity is
// invalidated: after a reset, nothing issued under the old credentials is
// trusted.
func (m *Manager) ConsumeReset(ctx context.Context, token, newSecret string) error {
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	id, err := m.ids.FindByResetToken(ctx, token)
	if errors.Is(err, storage.ErrNotFound) {
		return ErrInvalidResetToken
	}
	if err != nil {
		return fmt.Errorf("looking up reset token: %w", err)
	}
	if !time.Now().Before(id.ResetTokenExpiry) {
		return ErrInvalidResetToken
	}

	h, err := identity.HashPassword(newSecret)
	if err != nil {
		return err
	}
	if err := m.ids.SetPassword(ctx, id.ID, h); err != nil {
		return fmt.Errorf("setting password: %w", err)
	}
	if err := m.ids.ClearResetToken(ctx, id.ID); err != nil {
		return fmt.Errorf("clearing reset token: %w", err)
	}
	if err := m.sessions.DeleteBySubject(ctx, id.ID); err != nil {
		m.log.Error("invalidating sessions after reset failed", "error", err)
	}
	if err := m.remember.RevokeSubject(ctx, id.ID); err != nil {
		m.log.Error("revoking remember artifacts after reset failed", "error", err)
	}
	return nil
}
