// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package router

import (
	"database/sql"
	"net/http"

	"github.com/danielhkuo/agora/cliparse"
	"github.com/danielhkuo/agora/handlers"
	"github.com/danielhkuo/agora/middleware"
	"github.com/danielhkuo/agora/models"
)

func NewRouter(db *sql.DB, cfg cliparse.Config) *http.ServeMux {
	mux := http.NewServeMux()

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(db, cfg)
	userHandler := handlers.NewUserHandler(db, cfg)
	tenantHandler := handlers.NewTenantHandler(db, cfg)
	assemblyHandler := handlers.NewAssemblyHandler(db, cfg)
	pollHandler := handlers.NewPollHandler(db, cfg)
	proxyHandler := handlers.NewProxyHandler(db, cfg)
	liveHandler := handlers.NewLiveHandler(db, cfg)
	resultsHandler := handlers.NewResultsHandler(db, cfg)
	auditHandler := handlers.NewAuditHandler(db, cfg)

	// authed wraps a protected endpoint: logging then token validation.
	authed := func(h http.HandlerFunc) http.HandlerFunc {
		return middleware.WithLogging(middleware.RequireAuth(cfg, h))
	}
	superadmin := func(h http.HandlerFunc) http.HandlerFunc {
		return middleware.WithLogging(middleware.RequireAuth(cfg, middleware.RequireRole(models.RoleSuperAdmin, h)))
	}

	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Authentication (public)
	mux.HandleFunc("POST /api/auth/register", middleware.WithLogging(authHandler.Register))
	mux.HandleFunc("POST /api/auth/login", middleware.WithLogging(authHandler.Login))

	// User management
	mux.HandleFunc("GET /api/users", authed(userHandler.List))
	mux.HandleFunc("POST /api/users", authed(userHandler.Create))
	mux.HandleFunc("PUT /api/users/{id}", authed(userHandler.Update))
	mux.HandleFunc("DELETE /api/users/{id}", authed(userHandler.Delete))
	mux.HandleFunc("POST /api/users/batch", authed(userHandler.BatchImport))
	mux.HandleFunc("PUT /api/profile", authed(userHandler.UpdateProfile))

	// Tenant management (SuperAdmin only)
	mux.HandleFunc("GET /api/superadmin/tenants", superadmin(tenantHandler.List))
	mux.HandleFunc("POST /api/superadmin/tenants", superadmin(tenantHandler.Create))
	mux.HandleFunc("PUT /api/superadmin/tenants/{id}", superadmin(tenantHandler.Update))
	mux.HandleFunc("DELETE /api/superadmin/tenants/{id}", superadmin(tenantHandler.Delete))

	// Assembly management
	mux.HandleFunc("GET /api/assemblies", authed(assemblyHandler.List))
	mux.HandleFunc("POST /api/assemblies", authed(assemblyHandler.Create))
	mux.HandleFunc("GET /api/assemblies/{id}", authed(assemblyHandler.Get))
	mux.HandleFunc("PUT /api/assemblies/{id}", authed(assemblyHandler.Update))
	mux.HandleFunc("DELETE /api/assemblies/{id}", authed(assemblyHandler.Delete))

	// Polls within an assembly
	mux.HandleFunc("GET /api/assemblies/{id}/polls", authed(pollHandler.List))
	mux.HandleFunc("POST /api/assemblies/{id}/polls", authed(pollHandler.Create))
	mux.HandleFunc("DELETE /api/assemblies/{id}/polls/{pollId}", authed(pollHandler.Delete))

	// Proxy delegation
	mux.HandleFunc("GET /api/assemblies/{id}/proxies", authed(proxyHandler.List))
	mux.HandleFunc("POST /api/assemblies/{id}/proxies", authed(proxyHandler.Create))
	mux.HandleFunc("DELETE /api/assemblies/{id}/proxies/{proxyId}", authed(proxyHandler.Delete))

	// Live session
	mux.HandleFunc("POST /api/assemblies/{id}/start", authed(liveHandler.Start))
	mux.HandleFunc("POST /api/assemblies/{id}/end", authed(liveHandler.End))
	mux.HandleFunc("GET /api/assemblies/{id}/state", authed(liveHandler.GetState))
	mux.HandleFunc("POST /api/assemblies/{id}/join", authed(liveHandler.Join))
	mux.HandleFunc("POST /api/assemblies/{id}/polls/{pollId}/activate", authed(liveHandler.ActivatePoll))
	mux.HandleFunc("POST /api/assemblies/{id}/polls/{pollId}/close", authed(liveHandler.ClosePoll))
	mux.HandleFunc("POST /api/assemblies/{id}/vote", authed(liveHandler.CastVote))

	// Results and export
	mux.HandleFunc("GET /api/assemblies/{id}/results", authed(resultsHandler.GetResults))
	mux.HandleFunc("GET /api/assemblies/{id}/export", authed(resultsHandler.Export))

	// Audit trail
	mux.HandleFunc("GET /api/audit-logs", authed(auditHandler.List))

	// Root endpoint
	mux.HandleFunc("GET /", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("agora API v1"))
	})

	return mux
}
