// Rendezvous - Location-Aware Event Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rendezvous

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/tomtom215/rendezvous/internal/auth"
	"github.com/tomtom215/rendezvous/internal/middleware"
)

// Router wires handlers and middleware into an http.Handler.
type Router struct {
	handler       *Handler
	auth          *auth.Middleware
	chiMiddleware *ChiMiddleware
	logger        zerolog.Logger
}

// NewRouter creates the router. CORS and rate limits come from the
// handler's security configuration.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewRouter(handler *Handler, authMW *auth.Middleware, logger zerolog.Logger) *Router {
	var mwCfg *ChiMiddlewareConfig
	if handler.config != nil {
		mwCfg = ChiMiddlewareConfigFromSecurity(&handler.config.Security)
	}
	return &Router{
		handler:       handler,
		auth:          authMW,
		chiMiddleware: NewChiMiddleware(mwCfg),
		logger:        logger,
	}
}

// Setup builds the route tree.
func (router *Router) Setup() http.Handler {
	h := router.handler
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.AccessLog(router.logger))
	r.Use(router.chiMiddleware.CORS())

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.PrometheusMetrics)
		if h.perfMon != nil {
			r.Use(h.perfMon.Middleware)
		}

		// Probes are not rate limited and never authenticate.
		r.Get("/health/live", h.HealthLive)
		r.Get("/health/ready", h.HealthReady)

		r.Group(func(r chi.Router) {
			r.Use(router.chiMiddleware.RateLimit())
			r.Use(router.auth.Authenticate)

			r.With(chimiddleware.Compress(5, "application/json")).Get("/recommendations", h.Recommendations)
			r.Get("/recommendations/boundary", h.Boundary)
			r.Get("/stats", h.Stats)
			r.Get("/ws", h.WebSocket)

			r.Route("/events/{id}", func(r chi.Router) {
				r.Get("/", h.GetEvent)
				r.Group(func(r chi.Router) {
					if router.auth.Mode() == auth.ModeJWT {
						r.Use(auth.RequireUser)
					}
					r.Put("/", h.PutEvent)
					r.Delete("/", h.DeleteEvent)
				})
			})

			r.Route("/users/{id}", func(r chi.Router) {
				r.Use(router.auth.RequireSelf(func(r *http.Request) string {
					return chi.URLParam(r, "id")
				}))
				r.Get("/profile", h.GetProfile)
				r.Put("/profile", h.PutProfile)
				r.Post("/participations", h.AddParticipation)
			})
		})
	})

	return r
}
