package http

import (
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
)

// Handlers bundles everything the router needs.
type Handlers struct {
	Gate     *Gate
	OAuth    *OAuthHandler
	Tools    *ToolsHandler
	Login    *LoginHandler
	Manifest *ManifestHandler

	// LoginRateLimit caps credential-guessing attempts per IP per minute.
	// Zero disables the throttle.
	LoginRateLimit int
}

// Mount attaches all application routes to the router. Credential endpoints
// get an IP throttle on top of the account lockout; protected endpoints sit
// behind the access gate.
func Mount(r chi.Router, h Handlers) {
	// Public discovery
	r.Get("/manifest", h.Manifest.Manifest)
	r.Get("/.well-known/ai-plugin.json", h.Manifest.Manifest)
	r.Get("/status", h.Manifest.Status)

	// Browser login for the authorize flow
	r.Group(func(r chi.Router) {
		if h.LoginRateLimit > 0 {
			r.Use(httprate.LimitByIP(h.LoginRateLimit, time.Minute))
		}
		r.Get("/login", h.Login.LoginPage)
		r.Post("/login", h.Login.Login)
		r.Post("/auth/login", h.OAuth.DirectLogin)
	})
	r.Get("/logout", h.Login.Logout)
	r.Post("/logout", h.Login.Logout)

	// OAuth endpoints
	r.Get("/oauth/authorize", h.OAuth.Authorize)
	r.Group(func(r chi.Router) {
		if h.LoginRateLimit > 0 {
			r.Use(httprate.LimitByIP(h.LoginRateLimit, time.Minute))
		}
		r.Post("/oauth/token", h.OAuth.Token)
		r.Post("/oauth/refresh", h.OAuth.Refresh)
	})

	// Tool surface, gated
	r.Group(func(r chi.Router) {
		r.Use(h.Gate.Middleware)
		r.Get("/tools", h.Tools.List)
		r.Post("/tools/{tool}", h.Tools.Execute)
	})
}
