package api

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/nshah/campusmarket/market"
)

// ListRoommates handles GET /roommates. Listing is public.
func (a *API) ListRoommates(w http.ResponseWriter, r *http.Request) {
	limit, offset := parsePagination(r)
	ads, total, err := a.market.ListRoommates(r.Context(), limit, offset)
	if err != nil {
		a.mapError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ListRoommatesResponse{
		Roommates: ads,
		Meta:      pageMeta(total, limit, offset, len(ads)),
	})
}

// CreateRoommate handles POST /roommates.
func (a *API) CreateRoommate(w http.ResponseWriter, r *http.Request) {
	user, ok := a.requireUser(w, r, false)
	if !ok {
		return
	}
	req, ok := decodeJSON[RoommateRequest](w, r)
	if !ok {
		return
	}

	ad := &market.Roommate{
		AuthorID:     user.ID,
		Title:        strings.TrimSpace(req.Title),
		Description:  req.Description,
		Region:       req.Region,
		PlacesToLive: req.PlacesToLive,
		Status:       req.Status,
		OnCampus:     req.OnCampus,
		Year:         req.Year,
		Images:       req.Images,
	}
	if err := a.market.CreateRoommate(r.Context(), ad); err != nil {
		a.mapError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, ad)
}

// GetRoommate handles GET /roommates/{roommateID}.
func (a *API) GetRoommate(w http.ResponseWriter, r *http.Request) {
	ad, err := a.market.GetRoommate(r.Context(), chi.URLParam(r, "roommateID"))
	if err != nil {
		a.mapError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ad)
}

// UpdateRoommate handles PUT /roommates/{roommateID}.
func (a *API) UpdateRoommate(w http.ResponseWriter, r *http.Request) {
	user, ok := a.requireUser(w, r, false)
	if !ok {
		return
	}
	ad, err := a.market.GetRoommate(r.Context(), chi.URLParam(r, "roommateID"))
	if err != nil {
		a.mapError(w, err)
		return
	}
	if ad.AuthorID != user.ID {
		writeError(w, http.StatusForbidden, "not the author of this ad")
		return
	}

	req, ok := decodeJSON[RoommateRequest](w, r)
	if !ok {
		return
	}
	if req.Title != "" {
		ad.Title = strings.TrimSpace(req.Title)
	}
	if req.Description != "" {
		ad.Description = req.Description
	}
	if req.Region != "" {
		ad.Region = req.Region
	}
	if req.PlacesToLive != "" {
		ad.PlacesToLive = req.PlacesToLive
	}
	if req.Status != "" {
		ad.Status = req.Status
	}
	if req.Year != 0 {
		ad.Year = req.Year
	}
	ad.OnCampus = req.OnCampus
	if req.Images != nil {
		ad.Images = req.Images
	}

	if err := a.market.UpdateRoommate(r.Context(), ad); err != nil {
		a.mapError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ad)
}

// DeleteRoommate handles DELETE /roommates/{roommateID}.
func (a *API) DeleteRoommate(w http.ResponseWriter, r *http.Request) {
	user, ok := a.requireUser(w, r, false)
	if !ok {
		return
	}
	ad, err := a.market.GetRoommate(r.Context(), chi.URLParam(r, "roommateID"))
	if err != nil {
		a.mapError(w, err)
		return
	}
	if ad.AuthorID != user.ID {
		writeError(w, http.StatusForbidden, "not the author of this ad")
		return
	}
	if err := a.market.DeleteRoommate(r.Context(), ad.ID); err != nil {
		a.mapError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: "ad deleted"})
}
