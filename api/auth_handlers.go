package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/nshah/campusmarket/identity"
)

// minPasswordLen is the minimum password length accepted at registration
// and reset.
const minPasswordLen = 8

func userResponse(id *identity.Identity) UserResponse {
	return UserResponse{
		ID:              id.ID,
		Email:           id.Email,
		Username:        id.Username,
		InstitutionalID: id.InstitutionalID,
		Bio:             id.Bio,
	}
}

// Register handles POST /auth/register. A successful registration signs
// the new user in immediately.
func (a *API) Register(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeJSON[RegisterRequest](w, r)
	if !ok {
		return
	}
	if len(req.Password) < minPasswordLen {
		writeError(w, http.StatusBadRequest, "password must be at least 8 characters")
		return
	}
	if err := identity.ValidateEmail(req.Email, a.cfg.InstitutionDomain); err != nil {
		a.mapError(w, err)
		return
	}
	if err := identity.ValidateUsername(req.Username); err != nil {
		a.mapError(w, err)
		return
	}
	if err := identity.ValidateInstitutionalID(req.InstitutionalID); err != nil {
		a.mapError(w, err)
		return
	}

	hash, err := identity.HashPassword(req.Password)
	if err != nil {
		a.mapError(w, err)
		return
	}
	id := &identity.Identity{
		Email:           identity.NormalizeEmail(req.Email),
		Username:        req.Username,
		InstitutionalID: req.InstitutionalID,
		Password:        hash,
		CreatedAt:       time.Now().UTC(),
	}
	if err := a.ids.Create(r.Context(), id); err != nil {
		a.mapError(w, err)
		return
	}
	a.audit.logEvent(AuditRegister, r, id.ID)

	// Sign the new user in right away.
	token, sess, _, err := a.sessions.Login(r.Context(), id.Email, req.Password, false, a.signals(r).Token)
	if err != nil {
		// The account exists; the client can still log in explicitly.
		writeJSON(w, http.StatusCreated, userResponse(id))
		return
	}
	a.writeSessionCookie(w, r, token, sess.ExpiresAt)
	a.writeCSRFCookie(w, r)
	writeJSON(w, http.StatusCreated, SessionResponse{User: userResponse(id), Fresh: sess.Fresh})
}

// Login handles POST /auth/login.
func (a *API) Login(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeJSON[LoginRequest](w, r)
	if !ok {
		return
	}
	if req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "email and password are required")
		return
	}

	key := accountKey(req.Email)
	if blocked, retryAfter := a.limiter.check(key); blocked {
		a.audit.logFailure(AuditLoginRateLimited, r, "account locked out",
			slog.String("client_ip", extractClientIP(r)))
		writeRateLimited(w, retryAfter)
		return
	}

	// Any session already riding on this connection dies with the login,
	// successful or not it never survives into the new authentication.
	priorToken := a.signals(r).Token

	token, sess, rememberToken, err := a.sessions.Login(r.Context(), req.Email, req.Password, req.Remember, priorToken)
	if err != nil {
		a.limiter.recordFailure(key)
		a.audit.logFailure(AuditLoginFailure, r, "invalid credentials")
		a.mapError(w, err)
		return
	}
	a.limiter.recordSuccess(key)

	id, err := a.ids.FindByID(r.Context(), sess.SubjectID)
	if err != nil {
		a.mapError(w, err)
		return
	}

	a.writeSessionCookie(w, r, token, sess.ExpiresAt)
	a.writeCSRFCookie(w, r)
	if rememberToken != "" {
		a.writeRememberCookie(w, r, rememberToken)
	}

	a.audit.logEvent(AuditLoginSuccess, r, id.ID)
	writeJSON(w, http.StatusOK, SessionResponse{User: userResponse(id), Fresh: sess.Fresh})
}

// Logout handles POST /auth/logout. Logging out of nothing succeeds.
func (a *API) Logout(w http.ResponseWriter, r *http.Request) {
	sig := a.signals(r)
	rememberToken := ""
	if c, err := r.Cookie(a.cfg.RememberCookie); err == nil {
		rememberToken = c.Value
	}

	_ = a.sessions.Logout(r.Context(), sig.Token, rememberToken)

	a.clearSessionCookie(w, r)
	a.clearRememberCookie(w, r)
	a.clearCSRFCookie(w, r)

	a.audit.log(AuditLogout, r)
	writeJSON(w, http.StatusOK, MessageResponse{Message: "logged out"})
}

// SessionInfo handles GET /auth/session. It reports who the server
// believes is signed in, which the client should treat as authoritative
// over any state of its own.
func (a *API) SessionInfo(w http.ResponseWriter, r *http.Request) {
	res, err := a.resolve(w, r, false)
	if err != nil {
		a.mapError(w, err)
		return
	}
	if !res.Authenticated() {
		writeError(w, http.StatusUnauthorized, "not signed in")
		return
	}
	writeJSON(w, http.StatusOK, SessionResponse{User: userResponse(res.Subject), Fresh: res.Fresh})
}

// GetProfile handles GET /users/profile.
func (a *API) GetProfile(w http.ResponseWriter, r *http.Request) {
	user, ok := a.requireUser(w, r, false)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, userResponse(user))
}

// UpdateProfile handles PUT /users/profile. Contact and credential
// changes demand a fresh session; a revived one must re-authenticate.
func (a *API) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	user, ok := a.requireUser(w, r, true)
	if !ok {
		return
	}
	req, ok := decodeJSON[UpdateProfileRequest](w, r)
	if !ok {
		return
	}

	username := user.Username
	if req.Username != "" {
		if err := identity.ValidateUsername(req.Username); err != nil {
			a.mapError(w, err)
			return
		}
		username = req.Username
	}
	email := user.Email
	if req.Email != "" {
		if err := identity.ValidateEmail(req.Email, a.cfg.InstitutionDomain); err != nil {
			a.mapError(w, err)
			return
		}
		email = identity.NormalizeEmail(req.Email)
	}
	instID := user.InstitutionalID
	if req.InstitutionalID != "" {
		if err := identity.ValidateInstitutionalID(req.InstitutionalID); err != nil {
			a.mapError(w, err)
			return
		}
		instID = req.InstitutionalID
	}
	bio := user.Bio
	if req.Bio != "" {
		bio = req.Bio
	}

	if err := a.ids.UpdateFields(r.Context(), user.ID, username, email, instID, bio); err != nil {
		a.mapError(w, err)
		return
	}

	if req.Password != "" {
		if len(req.Password) < minPasswordLen {
			writeError(w, http.StatusBadRequest, "password must be at least 8 characters")
			return
		}
		hash, err := identity.HashPassword(req.Password)
		if err != nil {
			a.mapError(w, err)
			return
		}
		if err := a.ids.SetPassword(r.Context(), user.ID, hash); err != nil {
			a.mapError(w, err)
			return
		}
	}

	updated, err := a.ids.FindByID(r.Context(), user.ID)
	if err != nil {
		a.mapError(w, err)
		return
	}
	a.audit.logEvent(AuditProfileUpdated, r, user.ID)
	writeJSON(w, http.StatusOK, userResponse(updated))
}
