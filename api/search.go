package api

import (
	"net/http"
	"strings"
)

// searchLimit caps how many posts a single search returns.
const searchLimit = 20

// Search handles GET /search?q=... with case-insensitive substring
// matching over post titles, descriptions, and categories.
func (a *API) Search(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q == "" {
		writeError(w, http.StatusBadRequest, "query parameter q is required")
		return
	}

	results, err := a.market.SearchPosts(r.Context(), q, searchLimit)
	if err != nil {
		a.mapError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, SearchResponse{Results: results})
}
