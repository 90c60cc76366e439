package api

import (
	"crypto/subtle"
	"net/http"
	"time"

	"github.com/google/uuid"
)

const csrfHeaderName = "X-CSRF-Token"

// CSRFMiddleware enforces double-submit cookie CSRF protection for
// cookie-authenticated mutating requests. Safe methods (GET, HEAD, OPTIONS)
// and unauthenticated requests are exempt.
func (a *API) CSRFMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Safe methods do not need CSRF protection.
		if r.Method == http.MethodGet || r.Method == http.MethodHead || r.Method == http.MethodOptions {
			next.ServeHTTP(w, r)
			return
		}

		// Without a session cookie the request is unauthenticated and
		// immune to CSRF, since cross-origin requests cannot carry the
		// victim's session.
		if _, err := r.Cookie(a.cfg.SessionCookie); err != nil {
			next.ServeHTTP(w, r)
			return
		}

		cookie, err := r.Cookie(a.cfg.CSRFCookie)
		if err != nil || cookie.Value == "" {
			writeError(w, http.StatusForbidden, "missing CSRF token")
			return
		}
		header := r.Header.Get(csrfHeaderName)
		if subtle.ConstantTimeCompare([]byte(cookie.Value), []byte(header)) != 1 {
			writeError(w, http.StatusForbidden, "invalid CSRF token")
			return
		}

		next.ServeHTTP(w, r)
	})
}

// writeCSRFCookie sets the CSRF double-submit cookie. It is intentionally
// NOT HttpOnly so that the browser-side SPA can read it and include it as a
// request header on mutating requests.
func (a *API) writeCSRFCookie(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     a.cfg.CSRFCookie,
		Value:    uuid.NewString(),
		Path:     "/",
		HttpOnly: false,
		Secure:   a.requestIsSecure(r),
		SameSite: http.SameSiteLaxMode,
	})
}

// clearCSRFCookie removes the CSRF cookie on logout.
func (a *API) clearCSRFCookie(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     a.cfg.CSRFCookie,
		Value:    "",
		Path:     "/",
		HttpOnly: false,
		Secure:   a.requestIsSecure(r),
		SameSite: http.SameSiteLaxMode,
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
	})
}
