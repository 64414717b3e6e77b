package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/clipbook/clipbook/internal/httpserver/deps"
	"github.com/clipbook/clipbook/internal/httpserver/handlers"
	"github.com/clipbook/clipbook/internal/httpserver/mw"
)

func init() { Register(registerBookmarks) }

func registerBookmarks(r chi.Router, d deps.Deps) {
	guarded := r.With(
		mw.AllowOnlyCIDRS(d.AllowedCIDRS, d.TrustProxy, d.Logger),
		mw.EnforceHost(d.AllowedHosts, d.Logger),
	)

	guarded.Get("/api/bookmarks", handlers.ListBookmarks(d))
	guarded.Post("/api/bookmarks", handlers.CreateBookmark(d))
	guarded.Put("/api/bookmarks/{id}", handlers.UpdateBookmark(d))
	guarded.Delete("/api/bookmarks/{id}", handlers.DeleteBookmark(d))
}
