// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/danielhkuo/agora/cliparse"
	"github.com/danielhkuo/agora/middleware"
	"github.com/danielhkuo/agora/models"
	"github.com/danielhkuo/agora/proxy"
)

type ProxyHandler struct {
	db  *sql.DB
	cfg cliparse.Config
}

func NewProxyHandler(db *sql.DB, cfg cliparse.Config) *ProxyHandler {
	return &ProxyHandler{db: db, cfg: cfg}
}

// List handles GET /api/assemblies/{id}/proxies
func (h *ProxyHandler) List(w http.ResponseWriter, r *http.Request) {
	assemblyID := r.PathValue("id")

	rows, err := h.db.Query(`
		SELECT id, assembly_id, tenant_id, delegator_id, delegate_id, status, granted_at
		FROM proxy WHERE assembly_id = $1 ORDER BY granted_at, id
	`, assemblyID)
	if err != nil {
		slog.Error("failed to list proxies", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	defer rows.Close()

	proxies := []models.Proxy{}
	for rows.Next() {
		var p models.Proxy
		if err := rows.Scan(&p.ID, &p.AssemblyID, &p.TenantID, &p.DelegatorID,
			&p.DelegateID, &p.Status, &p.GrantedAt); err != nil {
			slog.Error("failed to scan proxy", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
			return
		}
		proxies = append(proxies, p)
	}

	middleware.JSONResponse(w, http.StatusOK, proxies)
}

// Create handles POST /api/assemblies/{id}/proxies
// The resolver validates the new edge against the assembly's current
// active edge set before anything is persisted.
func (h *ProxyHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.ClaimsFrom(r.Context())
	assemblyID := r.PathValue("id")

	var req models.CreateProxyRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if req.DelegatorID == "" || req.DelegateID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "delegator_id and delegate_id are required")
		return
	}

	if _, err := getAssembly(h.db, assemblyID); err == sql.ErrNoRows {
		middleware.ErrorResponse(w, http.StatusNotFound, "Assembly not found")
		return
	} else if err != nil {
		slog.Error("failed to query assembly", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	edges, err := listActiveProxies(h.db, assemblyID)
	if err != nil {
		slog.Error("failed to list proxies", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	if err := proxy.ValidateNewEdge(edges, req.DelegatorID, req.DelegateID); err != nil {
		switch {
		case errors.Is(err, proxy.ErrSelfDelegation):
			middleware.ErrorResponse(w, http.StatusBadRequest, "User cannot delegate to themselves")
		case errors.Is(err, proxy.ErrAlreadyDelegated):
			middleware.ErrorResponse(w, http.StatusConflict, "User already has an active proxy")
		case errors.Is(err, proxy.ErrCycleDetected):
			middleware.ErrorResponse(w, http.StatusConflict, "Circular proxy delegation detected")
		default:
			middleware.ErrorResponse(w, http.StatusBadRequest, err.Error())
		}
		return
	}

	p := models.Proxy{
		ID:          uuid.NewString(),
		AssemblyID:  assemblyID,
		TenantID:    models.DefaultTenant,
		DelegatorID: req.DelegatorID,
		DelegateID:  req.DelegateID,
		Status:      models.ProxyActive,
		GrantedAt:   nowMillis(),
	}

	_, err = h.db.Exec(`
		INSERT INTO proxy (id, assembly_id, tenant_id, delegator_id, delegate_id, status, granted_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, p.ID, p.AssemblyID, p.TenantID, p.DelegatorID, p.DelegateID, p.Status, p.GrantedAt)
	if err != nil {
		slog.Error("failed to insert proxy", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create proxy")
		return
	}

	logAction(h.db, actor, models.ActionProxyCreate, p.ID, "Proxy", map[string]any{
		"assembly_id":  assemblyID,
		"delegator_id": p.DelegatorID,
		"delegate_id":  p.DelegateID,
	})
	slog.Info("proxy created", "proxy_id", p.ID, "assembly_id", assemblyID)

	middleware.JSONResponse(w, http.StatusCreated, p)
}

// Delete handles DELETE /api/assemblies/{id}/proxies/{proxyId}
func (h *ProxyHandler) Delete(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.ClaimsFrom(r.Context())
	proxyID := r.PathValue("proxyId")

	res, err := h.db.Exec(`DELETE FROM proxy WHERE id = $1`, proxyID)
	if err != nil {
		slog.Error("failed to delete proxy", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to delete proxy")
		return
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		middleware.ErrorResponse(w, http.StatusNotFound, "Proxy not found")
		return
	}

	logAction(h.db, actor, models.ActionProxyDelete, proxyID, "Proxy", nil)

	middleware.JSONResponse(w, http.StatusOK, models.DeleteResponse{ID: proxyID, Deleted: true})
}
