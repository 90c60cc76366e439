package api

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/nshah/campusmarket/market"
)

// ListPosts handles GET /posts. Listing is public.
func (a *API) ListPosts(w http.ResponseWriter, r *http.Request) {
	limit, offset := parsePagination(r)
	posts, total, err := a.market.ListPosts(r.Context(), limit, offset)
	if err != nil {
		a.mapError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ListPostsResponse{
		Posts: posts,
		Meta:  pageMeta(total, limit, offset, len(posts)),
	})
}

// ListOwnPosts handles GET /users/profile/posts.
func (a *API) ListOwnPosts(w http.ResponseWriter, r *http.Request) {
	user, ok := a.requireUser(w, r, false)
	if !ok {
		return
	}
	posts, err := a.market.ListPostsByAuthor(r.Context(), user.ID)
	if err != nil {
		a.mapError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ListPostsResponse{
		Posts: posts,
		Meta:  pageMeta(len(posts), len(posts), 0, len(posts)),
	})
}

// CreatePost handles POST /posts.
func (a *API) CreatePost(w http.ResponseWriter, r *http.Request) {
	user, ok := a.requireUser(w, r, false)
	if !ok {
		return
	}
	req, ok := decodeJSON[PostRequest](w, r)
	if !ok {
		return
	}

	p := &market.Post{
		AuthorID:     user.ID,
		Title:        strings.TrimSpace(req.Title),
		Description:  req.Description,
		Category:     req.Category,
		Condition:    req.Condition,
		ExchangeType: req.ExchangeType,
		Location:     req.Location,
		Status:       req.Status,
		Price:        req.Price,
		Images:       req.Images,
	}
	if err := a.market.CreatePost(r.Context(), p); err != nil {
		a.mapError(w, err)
		return
	}
	a.audit.logEvent(AuditPostCreated, r, user.ID)
	writeJSON(w, http.StatusCreated, p)
}

// GetPost handles GET /posts/{postID}.
func (a *API) GetPost(w http.ResponseWriter, r *http.Request) {
	p, err := a.market.GetPost(r.Context(), chi.URLParam(r, "postID"))
	if err != nil {
		a.mapError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// UpdatePost handles PUT /posts/{postID}. A post that does not exist is
// 404 regardless of caller; only once it exists does ownership matter.
func (a *API) UpdatePost(w http.ResponseWriter, r *http.Request) {
	user, ok := a.requireUser(w, r, false)
	if !ok {
		return
	}
	p, err := a.market.GetPost(r.Context(), chi.URLParam(r, "postID"))
	if err != nil {
		a.mapError(w, err)
		return
	}
	if p.AuthorID != user.ID {
		writeError(w, http.StatusForbidden, "not the author of this post")
		return
	}

	req, ok := decodeJSON[PostRequest](w, r)
	if !ok {
		return
	}
	if req.Title != "" {
		p.Title = strings.TrimSpace(req.Title)
	}
	if req.Description != "" {
		p.Description = req.Description
	}
	if req.Category != "" {
		p.Category = req.Category
	}
	if req.Condition != "" {
		p.Condition = req.Condition
	}
	if req.ExchangeType != "" {
		p.ExchangeType = req.ExchangeType
	}
	if req.Location != "" {
		p.Location = req.Location
	}
	if req.Status != "" {
		p.Status = req.Status
	}
	if req.Price != 0 {
		p.Price = req.Price
	}
	if req.Images != nil {
		p.Images = req.Images
	}

	if err := a.market.UpdatePost(r.Context(), p); err != nil {
		a.mapError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// FavoritePost handles POST /posts/{postID}/favorite and its undo.
func (a *API) FavoritePost(w http.ResponseWriter, r *http.Request) {
	if _, ok := a.requireUser(w, r, false); !ok {
		return
	}
	delta := 1
	if r.URL.Query().Get("undo") == "true" {
		delta = -1
	}
	p, err := a.market.FavoritePost(r.Context(), chi.URLParam(r, "postID"), delta)
	if err != nil {
		a.mapError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// DeletePost handles DELETE /posts/{postID}.
func (a *API) DeletePost(w http.ResponseWriter, r *http.Request) {
	user, ok := a.requireUser(w, r, false)
	if !ok {
		return
	}
	p, err := a.market.GetPost(r.Context(), chi.URLParam(r, "postID"))
	if err != nil {
		a.mapError(w, err)
		return
	}
	if p.AuthorID != user.ID {
		writeError(w, http.StatusForbidden, "not the author of this post")
		return
	}
	if err := a.market.DeletePost(r.Context(), p.ID); err != nil {
		a.mapError(w, err)
		return
	}
	a.audit.logEvent(AuditPostDeleted, r, user.ID)
	writeJSON(w, http.StatusOK, MessageResponse{Message: "post deleted"})
}
