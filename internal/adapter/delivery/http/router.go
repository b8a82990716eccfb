// Package http provides the HTTP delivery layer of the shortener: the JSON
// management API under /api/v1 and the public redirect endpoint.
package http

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v2"
	"github.com/go-playground/validator/v10"
)

// Options holds the settings that shape responses.
type Options struct {
	// CustomDomain is used to build short URLs instead of the request host.
	CustomDomain string
	// FallbackURL receives redirects for unknown short codes. Unknown codes
	// get a 404 when it is empty.
	FallbackURL string
}

// NewRouter initializes and returns a new Chi router configured with middleware and routes for the URL shortener API.
func NewRouter(logger *httplog.Logger, urlUseCase urlUseCase, opts Options) *chi.Mux {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*"},
		AllowedMethods:   []string{"POST", "GET", "PUT", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Accept"},
		AllowCredentials: false,
		MaxAge:           84600,
	}))
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(httplog.RequestLogger(logger))
	r.Use(middleware.Recoverer)

	h := newURLHandler(urlUseCase, validator.New(validator.WithRequiredStructEnabled()), opts)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/ping", handlePing)

		r.Route("/urls", func(r chi.Router) {
			r.Post("/", h.shortenURL)
			r.Get("/", h.listURLs)

			r.Route("/{shortCode}", func(r chi.Router) {
				r.Get("/", h.getURL)
				r.Put("/", h.modifyURL)
				r.Post("/archive", h.archiveURL)
				r.Get("/stats", h.clickStats)
			})
		})
	})

	r.Get("/{shortCode}", h.redirect)

	return r
}
