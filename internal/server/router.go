// Package server assembles the HTTP gateway.
package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/sirupsen/logrus"

	"github.com/ayush/app-store/backend/internal/activity"
	"github.com/ayush/app-store/backend/internal/auth"
	"github.com/ayush/app-store/backend/internal/listing"
	"github.com/ayush/app-store/backend/internal/logging"
	"github.com/ayush/app-store/backend/internal/media"
	"github.com/ayush/app-store/backend/internal/metrics"
)

// Deps are the handlers and settings the router is built from.
type Deps struct {
	Authenticator auth.Authenticator
	Auth          *auth.Handler
	Listings      *listing.Handler
	Activity      *activity.Handler
	Media         *media.Handler
	CORSOrigins   []string
	Log           logrus.FieldLogger
}

func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(logging.RequestLogger(d.Log))
	r.Use(chimw.Recoverer)
	r.Use(metrics.InstrumentHandler)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: d.CORSOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
		MaxAge:         300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	requireAuth := auth.RequireAuth(d.Authenticator)

	r.Route("/api", func(r chi.Router) {
		r.Post("/signup", d.Auth.Signup)
		r.Post("/login", d.Auth.Login)
		r.With(requireAuth).Post("/logout", d.Auth.Logout)

		r.Get("/apps", d.Listings.List)
		r.With(requireAuth).Post("/apps", d.Listings.Publish)

		if d.Activity != nil {
			r.With(requireAuth).Get("/activity", d.Activity.List)
		}
		if d.Media != nil {
			r.With(requireAuth).Post("/images", d.Media.Upload)
			r.Get("/images/*", d.Media.Download)
		}
	})

	return r
}
