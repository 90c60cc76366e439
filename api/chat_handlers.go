package api

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
)

// ListChats handles GET /chats: every conversation the caller is part of.
func (a *API) ListChats(w http.ResponseWriter, r *http.Request) {
	user, ok := a.requireUser(w, r, false)
	if !ok {
		return
	}
	chats, err := a.market.ListChatsByUser(r.Context(), user.ID)
	if err != nil {
		a.mapError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, chats)
}

// CreateChat handles POST /chats, opening a conversation between the
// caller and one other user.
func (a *API) CreateChat(w http.ResponseWriter, r *http.Request) {
	user, ok := a.requireUser(w, r, false)
	if !ok {
		return
	}
	req, ok := decodeJSON[ChatRequest](w, r)
	if !ok {
		return
	}
	if _, err := a.ids.FindByID(r.Context(), req.ParticipantID); err != nil {
		a.mapError(w, err)
		return
	}

	chat, err := a.market.CreateChat(r.Context(), []string{user.ID, req.ParticipantID})
	if err != nil {
		a.mapError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, chat)
}

// GetChat handles GET /chats/{chatID}. Only participants may read.
func (a *API) GetChat(w http.ResponseWriter, r *http.Request) {
	user, ok := a.requireUser(w, r, false)
	if !ok {
		return
	}
	chat, err := a.market.GetChat(r.Context(), chi.URLParam(r, "chatID"))
	if err != nil {
		a.mapError(w, err)
		return
	}
	if !chat.HasParticipant(user.ID) {
		writeError(w, http.StatusForbidden, "not a participant in this chat")
		return
	}
	writeJSON(w, http.StatusOK, chat)
}

// SendMessage handles POST /chats/{chatID}/messages.
func (a *API) SendMessage(w http.ResponseWriter, r *http.Request) {
	user, ok := a.requireUser(w, r, false)
	if !ok {
		return
	}
	req, ok := decodeJSON[MessageRequest](w, r)
	if !ok {
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		writeError(w, http.StatusBadRequest, "message text is required")
		return
	}

	chat, err := a.market.GetChat(r.Context(), chi.URLParam(r, "chatID"))
	if err != nil {
		a.mapError(w, err)
		return
	}
	if !chat.HasParticipant(user.ID) {
		writeError(w, http.StatusForbidden, "not a participant in this chat")
		return
	}

	chat, err = a.market.AppendMessage(r.Context(), chat.ID, user.ID, req.Text)
	if err != nil {
		a.mapError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, chat)
}
