package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/nshah/campusmarket/identity"
	"github.com/nshah/campusmarket/session"
)

// clientHintHeader carries the client's belief about who is signed in.
// It is a diagnostic hint only; the session cookie decides identity.
const clientHintHeader = "X-User-ID"

// signals collects the identity inputs from a request. The client hint
// passes through CanonicalHint so sentinel strings a lost frontend sends
// ("undefined", "null") read as no hint at all.
func (a *API) signals(r *http.Request) session.Signals {
	sig := session.Signals{
		ClientHint: session.CanonicalHint(r.Header.Get(clientHintHeader)),
	}
	if c, err := r.Cookie(a.cfg.SessionCookie); err == nil {
		sig.Token = c.Value
	}
	return sig
}

// resolve produces the acting identity for a request. When no session
// cookie is present but a remember cookie is, it first revives a session
// from the remember artifact and sets the new cookie on the response.
//
// The error return is ErrFreshnessRequired or nil; store failures have
// already resolved to an unauthenticated Resolution inside the resolver.
func (a *API) resolve(w http.ResponseWriter, r *http.Request, requireFresh bool) (session.Resolution, error) {
	sig := a.signals(r)
	sig.RequireFresh = requireFresh

	if sig.Token == "" {
		if c, err := r.Cookie(a.cfg.RememberCookie); err == nil && c.Value != "" {
			token, sess, rerr := a.sessions.Revive(r.Context(), c.Value)
			if rerr == nil {
				a.writeSessionCookie(w, r, token, sess.ExpiresAt)
				a.audit.logEvent(AuditSessionRevived, r, sess.SubjectID)
				sig.Token = token
			} else {
				a.clearRememberCookie(w, r)
			}
		}
	}

	return a.sessions.Resolve(r.Context(), sig)
}

// requireUser resolves the request and writes the 401 itself when no
// identity results. Handlers call it and bail on ok == false.
func (a *API) requireUser(w http.ResponseWriter, r *http.Request, requireFresh bool) (*identity.Identity, bool) {
	res, err := a.resolve(w, r, requireFresh)
	if err != nil {
		a.mapError(w, err)
		return nil, false
	}
	if !res.Authenticated() {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return nil, false
	}
	return res.Subject, true
}

func (a *API) requestIsSecure(r *http.Request) bool {
	if a.cfg.CookieSecure {
		return true
	}
	if r.TLS != nil {
		return true
	}
	if strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https") {
		return true
	}
	return strings.Contains(strings.ToLower(r.Header.Get("Forwarded")), "proto=https")
}

func (a *API) writeSessionCookie(w http.ResponseWriter, r *http.Request, token string, expiresAt time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     a.cfg.SessionCookie,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   a.requestIsSecure(r),
		SameSite: http.SameSiteLaxMode,
		Expires:  expiresAt,
	})
}

func (a *API) clearSessionCookie(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     a.cfg.SessionCookie,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   a.requestIsSecure(r),
		SameSite: http.SameSiteLaxMode,
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
	})
}

func (a *API) writeRememberCookie(w http.ResponseWriter, r *http.Request, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     a.cfg.RememberCookie,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   a.requestIsSecure(r),
		SameSite: http.SameSiteLaxMode,
		Expires:  time.Now().Add(a.cfg.RememberTTL),
	})
}

func (a *API) clearRememberCookie(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     a.cfg.RememberCookie,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   a.requestIsSecure(r),
		SameSite: http.SameSiteLaxMode,
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
	})
}
