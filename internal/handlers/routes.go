package handlers

import (
	"github.com/go-chi/chi/v5"

	"github.com/artgallery/server/internal/middleware"
)

// Routes bundles the handlers mounted by Mount
type Routes struct {
	Health    *HealthHandler
	Gallery   *GalleryHandler
	Auth      *AuthHandler
	Theme     *ThemeHandler
	WebSocket *WebSocketHandler
	Session   middleware.SessionProvider
}

// Mount registers every API route on r
func Mount(r chi.Router, h Routes) {
	r.Get("/health", h.Health.HealthCheck)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", h.Health.HealthCheck)

		r.Route("/gallery", func(r chi.Router) {
			r.Get("/", h.Gallery.Status)
			r.Put("/filter", h.Gallery.UpdateFilter)
			r.Put("/sort", h.Gallery.UpdateSort)
			r.Get("/facets", h.Gallery.Facets)
			r.Post("/reset", h.Gallery.Reset)
			r.Delete("/current", h.Gallery.ClearCurrent)
		})

		r.Route("/artworks", func(r chi.Router) {
			r.Get("/", h.Gallery.List)
			r.Get("/all", h.Gallery.All)
			r.Post("/fetch", h.Gallery.FetchMore)
			r.Get("/{id}", h.Gallery.Get)
			r.Delete("/{id}", h.Gallery.Delete)
			r.With(middleware.RequireSession(h.Session)).Post("/", h.Gallery.Submit)
		})

		r.Route("/favorites", func(r chi.Router) {
			r.Get("/", h.Gallery.ListFavorites)
			r.Post("/{id}/toggle", h.Gallery.ToggleFavorite)
		})

		r.Route("/auth", func(r chi.Router) {
			r.Post("/login", h.Auth.Login)
			r.Post("/register", h.Auth.Register)
			r.Post("/logout", h.Auth.Logout)
			r.Get("/me", h.Auth.Me)
			r.With(middleware.RequireSession(h.Session)).Patch("/me", h.Auth.UpdateMe)
		})
		r.With(middleware.RequireSession(h.Session)).Get("/profile", h.Auth.Profile)

		r.Route("/theme", func(r chi.Router) {
			r.Get("/", h.Theme.GetTheme)
			r.Put("/", h.Theme.SetTheme)
			r.Post("/toggle", h.Theme.ToggleTheme)
		})

		if h.WebSocket != nil {
			r.Get("/ws", h.WebSocket.HandleConnection)
		}
	})
}
