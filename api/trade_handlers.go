package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nshah/campusmarket/market"
)

// ListTrades handles GET /trades: every trade the caller is a side of.
func (a *API) ListTrades(w http.ResponseWriter, r *http.Request) {
	user, ok := a.requireUser(w, r, false)
	if !ok {
		return
	}
	trades, err := a.market.ListTradesByUser(r.Context(), user.ID)
	if err != nil {
		a.mapError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, trades)
}

// CreateTrade handles POST /trades. The caller becomes the sender.
func (a *API) CreateTrade(w http.ResponseWriter, r *http.Request) {
	user, ok := a.requireUser(w, r, false)
	if !ok {
		return
	}
	req, ok := decodeJSON[TradeRequest](w, r)
	if !ok {
		return
	}
	if req.ReceiverID == user.ID {
		writeError(w, http.StatusBadRequest, "cannot open a trade with yourself")
		return
	}
	if _, err := a.ids.FindByID(r.Context(), req.ReceiverID); err != nil {
		a.mapError(w, err)
		return
	}

	tr := &market.Trade{
		PostID:     req.PostID,
		SenderID:   user.ID,
		ReceiverID: req.ReceiverID,
	}
	if err := a.market.CreateTrade(r.Context(), tr); err != nil {
		a.mapError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, tr)
}

// GetTrade handles GET /trades/{tradeID}. Only a participant may look.
func (a *API) GetTrade(w http.ResponseWriter, r *http.Request) {
	user, ok := a.requireUser(w, r, false)
	if !ok {
		return
	}
	tr, err := a.market.GetTrade(r.Context(), chi.URLParam(r, "tradeID"))
	if err != nil {
		a.mapError(w, err)
		return
	}
	if tr.SenderID != user.ID && tr.ReceiverID != user.ID {
		writeError(w, http.StatusForbidden, "not a participant in this trade")
		return
	}
	writeJSON(w, http.StatusOK, tr)
}

// CloseTrade handles POST /trades/{tradeID}/close, ending an ongoing
// trade as completed or cancelled.
func (a *API) CloseTrade(w http.ResponseWriter, r *http.Request) {
	user, ok := a.requireUser(w, r, false)
	if !ok {
		return
	}
	req, ok := decodeJSON[CloseTradeRequest](w, r)
	if !ok {
		return
	}
	if req.Status != market.TradeCompleted && req.Status != market.TradeCancelled {
		writeError(w, http.StatusBadRequest, "status must be completed or cancelled")
		return
	}

	tr, err := a.market.GetTrade(r.Context(), chi.URLParam(r, "tradeID"))
	if err != nil {
		a.mapError(w, err)
		return
	}
	if tr.SenderID != user.ID && tr.ReceiverID != user.ID {
		writeError(w, http.StatusForbidden, "not a participant in this trade")
		return
	}

	closed, err := a.market.CloseTrade(r.Context(), tr.ID, req.Status)
	if err != nil {
		a.mapError(w, err)
		return
	}
	a.audit.logEvent(AuditTradeClosed, r, user.ID)
	writeJSON(w, http.StatusOK, closed)
}
