package handlers

import (
	"net/http"

	"github.com/clipbook/clipbook/internal/httpserver/deps"
)

// Search answers /api/search?q=. A blank query returns the whole
// collection newest first; the engine decides between semantic and
// fuzzy matching for everything else.
func Search(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query().Get("q")
		results := d.Search.Search(r.Context(), query)
		writeJSON(w, http.StatusOK, bookmarksResponse{Bookmarks: results})
	}
}
