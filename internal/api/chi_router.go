// coffeechat - Social Posts and Real-Time Room Chat
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/coffeechat

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/coffeechat/internal/middleware"
)

// Router binds handlers to routes.
type Router struct {
	handler       *Handler
	chiMiddleware *ChiMiddleware
}

// NewRouter creates a router whose CORS and rate limits come from the
// handler's security config.
func NewRouter(handler *Handler) *Router {
	chiMw := NewChiMiddleware(nil)
	if handler.config != nil {
		chiMw = NewChiMiddlewareFromSecurity(handler.config.Security)
	}
	return &Router{
		handler:       handler,
		chiMiddleware: chiMw,
	}
}

// SetupChi configures all HTTP routes.
func (router *Router) SetupChi() http.Handler {
	h := router.handler
	r := chi.NewRouter()

	// ========================
	// Global Middleware Stack
	// ========================
	r.Use(middleware.RequestID)         // X-Request-ID plus logging context
	r.Use(chimiddleware.RealIP)         // Extract real IP from X-Forwarded-For
	r.Use(chimiddleware.Recoverer)      // Recover from panics
	r.Use(middleware.RequestLogger)     // One structured line per request
	r.Use(middleware.PrometheusMetrics) // Request counters and latency
	r.Use(SecurityHeaders())            // nosniff, frame and referrer policy
	r.Use(router.chiMiddleware.CORS())  // CORS must be global to handle OPTIONS preflight
	r.Use(h.sessions.Load)              // Session (or a fresh one) in context

	// ========================
	// Operations
	// ========================
	r.Route("/health", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimitHealth())
		r.Get("/live", h.HealthLive)
		r.Get("/ready", h.HealthReady)
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Get("/", h.Home)

	// ========================
	// Authentication Pages
	// ========================
	r.Route("/auth", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimit())

		r.Get("/login", h.LoginPage)
		// Password login has the strictest limit (5 attempts per 5 minutes)
		r.With(router.chiMiddleware.RateLimitLogin()).Post("/login", h.Login)

		r.Get("/google", h.FederatedLogin)
		r.Get("/callback", h.Callback)
		r.Get("/logout", h.Logout)

		r.Get("/register", h.RegisterPage)
		r.Get("/confirm", h.ConfirmPage)
		r.Get("/forgot-password", h.ForgotPasswordPage)
		r.Get("/reset-password", h.ResetPasswordPage)

		r.Group(func(r chi.Router) {
			r.Use(router.chiMiddleware.RateLimitAccount())
			r.Post("/register", h.Register)
			r.Post("/confirm", h.Confirm)
			r.Post("/forgot-password", h.ForgotPassword)
			r.Post("/confirm-reset-password", h.ConfirmResetPassword)
		})
	})

	// ========================
	// Authenticated Routes
	// ========================
	r.Group(func(r chi.Router) {
		r.Use(h.sessions.RequireToken(h.verifier))

		r.Route("/posts", func(r chi.Router) {
			r.Get("/list", h.ListPosts)
			r.Get("/write", h.WritePage)
			r.Post("/add", h.AddPost)
			r.Get("/detail/{postId}", h.PostDetail)
			r.Get("/edit/{id}", h.EditPage)
			r.Post("/edit/{id}", h.EditPost)
			r.Delete("/delete/{postId}", h.DeletePost)
		})

		r.Route("/comment", func(r chi.Router) {
			r.Post("/add", h.AddComment)
			r.Post("/edit/{id}", h.EditComment)
			r.Delete("/delete/{id}", h.DeleteComment)
		})

		r.Route("/records", func(r chi.Router) {
			r.Get("/", h.ListRecords)
			r.Get("/{postId}", h.GetRecord)
		})

		r.With(router.chiMiddleware.RateLimitWebSocket()).Get("/chat/ws", h.ChatSocket)
	})

	return r
}
