package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Deps bundles everything the router needs.
type Deps struct {
	Payments *PaymentsHandler
	Artworks *ArtworksHandler
	Users    *UsersHandler
	Verifier tokenVerifier
}

// NewRouter wires every HTTP surface. The webhook route deliberately has no
// auth and no body-mutating middleware in front of it.
func NewRouter(d Deps) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(metricsMiddleware)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/payments", func(r chi.Router) {
		r.With(optionalAuth(d.Verifier)).Post("/create-payment-intent", d.Payments.CreateIntent)
		// Explicit guest route kept for storefront compatibility; same handler,
		// never authenticated.
		r.Post("/guest/create-payment-intent", d.Payments.CreateIntent)
		r.Get("/status/{paymentIntentId}", d.Payments.Status)
		r.Post("/webhook", d.Payments.Webhook)
	})

	r.Route("/artworks", func(r chi.Router) {
		r.Get("/", d.Artworks.List)
		r.Get("/{id}", d.Artworks.Get)
		r.Group(func(r chi.Router) {
			r.Use(requireAuth(d.Verifier))
			r.Post("/", d.Artworks.Create)
			r.Patch("/{id}", d.Artworks.Update)
			r.Delete("/{id}", d.Artworks.Delete)
		})
	})

	r.Route("/users", func(r chi.Router) {
		r.Post("/signup", d.Users.Signup)
		r.Post("/login", d.Users.Login)
		r.With(requireAuth(d.Verifier)).Get("/me", d.Users.Me)
	})

	return r
}
