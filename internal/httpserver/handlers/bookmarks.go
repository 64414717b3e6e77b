package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/clipbook/clipbook/internal/domain"
	"github.com/clipbook/clipbook/internal/httpserver/deps"
	"github.com/clipbook/clipbook/internal/library"
	"github.com/clipbook/clipbook/internal/logger"
)

type bookmarksResponse struct {
	Bookmarks []*domain.Bookmark `json:"bookmarks"`
}

type createRequest struct {
	Content string `json:"content"`
}

type createResponse struct {
	Bookmark  *domain.Bookmark `json:"bookmark,omitempty"`
	Duplicate bool             `json:"duplicate,omitempty"`
}

type updatedResponse struct {
	Updated bool `json:"updated"`
}

type deletedResponse struct {
	Deleted bool `json:"deleted"`
}

// ListBookmarks returns the whole collection newest first.
func ListBookmarks(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, bookmarksResponse{Bookmarks: d.Library.All()})
	}
}

// CreateBookmark runs content through the intake pipeline. A duplicate
// is a defined outcome, answered with 200 and no bookmark; only broken
// requests are client errors.
func CreateBookmark(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		b, err := d.Library.Create(r.Context(), req.Content)
		switch {
		case errors.Is(err, library.ErrDuplicate):
			writeJSON(w, http.StatusOK, createResponse{Duplicate: true})
		case errors.Is(err, library.ErrEmptyContent):
			writeError(w, http.StatusBadRequest, "content is empty")
		case err != nil:
			d.Logger.Error("bookmark creation failed", logger.Error(err))
			writeError(w, http.StatusInternalServerError, "could not create bookmark")
		default:
			writeJSON(w, http.StatusCreated, createResponse{Bookmark: b})
		}
	}
}

// UpdateBookmark replaces the bookmark whose ID is in the path.
// Answers {updated: false} for an unknown ID, not an error.
func UpdateBookmark(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var b domain.Bookmark
		if err := decodeJSON(w, r, &b); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		// The path owns the identity; a mismatched body ID is ignored.
		b.ID = chi.URLParam(r, "id")
		writeJSON(w, http.StatusOK, updatedResponse{Updated: d.Library.Update(r.Context(), &b)})
	}
}

// DeleteBookmark removes the bookmark whose ID is in the path.
// Answers {deleted: false} for an unknown ID, not an error.
func DeleteBookmark(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		writeJSON(w, http.StatusOK, deletedResponse{Deleted: d.Library.Delete(r.Context(), id)})
	}
}
