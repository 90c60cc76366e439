package api

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/nshah/campusmarket/identity"
	"github.com/nshah/campusmarket/market"
	"github.com/nshah/campusmarket/session"
	"github.com/nshah/campusmarket/storage"
)

// maxBodySize bounds request bodies; nothing in this API legitimately
// needs more.
const maxBodySize = 1 << 20

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}

// mapError translates domain errors into the response taxonomy.
// Validation failures carry their message 1:1; auth failures are always
// generic; raw store errors never reach the client.
func (a *API) mapError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, identity.ErrInvalidEmail),
		errors.Is(err, identity.ErrInvalidInstitutionalID),
		errors.Is(err, identity.ErrInvalidUsername),
		errors.Is(err, market.ErrValidation):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, identity.ErrEmailTaken),
		errors.Is(err, identity.ErrInstitutionalIDTaken):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, session.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, "invalid credentials")
	case errors.Is(err, session.ErrInvalidResetToken):
		writeError(w, http.StatusUnauthorized, "invalid or expired reset token")
	case errors.Is(err, session.ErrFreshnessRequired):
		writeError(w, http.StatusUnauthorized, "re-authentication required")
	case errors.Is(err, market.ErrInvalidTransition):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, storage.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	default:
		a.audit.logger.Error("internal error", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

// decodeJSON reads and decodes a JSON request body into T, writing a 400
// on failure.
func decodeJSON[T any](w http.ResponseWriter, r *http.Request) (T, bool) {
	var v T
	body := http.MaxBytesReader(w, r.Body, maxBodySize)
	if err := json.NewDecoder(body).Decode(&v); err != nil {
		if errors.Is(err, io.EOF) {
			writeError(w, http.StatusBadRequest, "request body is required")
		} else {
			writeError(w, http.StatusBadRequest, "malformed JSON body")
		}
		return v, false
	}
	return v, true
}
