package api

import (
	"net/http"
)

// resetAcceptedMessage is the single response body for every reset
// request, registered address or not. Byte-identical responses keep the
// endpoint useless as an account oracle.
const resetAcceptedMessage = "if the address is registered, a reset link has been sent"

// RequestReset handles POST /auth/reset/request.
func (a *API) RequestReset(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeJSON[ResetRequestRequest](w, r)
	if !ok {
		return
	}
	if req.Email == "" {
		writeError(w, http.StatusBadRequest, "email is required")
		return
	}

	token, err := a.sessions.RequestReset(r.Context(), req.Email)
	if err != nil {
		a.mapError(w, err)
		return
	}
	if token != "" {
		// Delivery would go out by email here. The token is logged at
		// debug level for development setups without a mail relay.
		a.audit.logger.Debug("reset token issued", "token", token)
		a.audit.log(AuditResetRequested, r)
	}

	writeJSON(w, http.StatusOK, MessageResponse{Message: resetAcceptedMessage})
}

// VerifyReset handles GET /auth/reset/verify?token=... so the frontend
// can gate its new-password form. Verification does not consume the token.
func (a *API) VerifyReset(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" || !a.sessions.VerifyReset(r.Context(), token) {
		writeError(w, http.StatusUnauthorized, "invalid or expired reset token")
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: "token valid"})
}

// ConfirmReset handles POST /auth/reset/confirm. Consuming the token sets
// the new password and ends every session of the account.
func (a *API) ConfirmReset(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeJSON[ResetConfirmRequest](w, r)
	if !ok {
		return
	}
	if req.Token == "" {
		writeError(w, http.StatusBadRequest, "token is required")
		return
	}
	if len(req.Password) < minPasswordLen {
		writeError(w, http.StatusBadRequest, "password must be at least 8 characters")
		return
	}

	if err := a.sessions.ConsumeReset(r.Context(), req.Token, req.Password); err != nil {
		a.mapError(w, err)
		return
	}
	a.audit.log(AuditResetConsumed, r)
	writeJSON(w, http.StatusOK, MessageResponse{Message: "password updated"})
}
