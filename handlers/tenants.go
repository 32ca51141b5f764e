// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/danielhkuo/agora/cliparse"
	"github.com/danielhkuo/agora/middleware"
	"github.com/danielhkuo/agora/models"
)

// TenantHandler serves the SuperAdmin-only tenant CRUD.
type TenantHandler struct {
	db  *sql.DB
	cfg cliparse.Config
}

func NewTenantHandler(db *sql.DB, cfg cliparse.Config) *TenantHandler {
	return &TenantHandler{db: db, cfg: cfg}
}

// List handles GET /api/superadmin/tenants
func (h *TenantHandler) List(w http.ResponseWriter, r *http.Request) {
	rows, err := h.db.Query(`SELECT id, name, domain, status, created_at FROM tenant ORDER BY created_at, id`)
	if err != nil {
		slog.Error("failed to list tenants", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	defer rows.Close()

	tenants := []models.Tenant{}
	for rows.Next() {
		var t models.Tenant
		var domain sql.NullString
		if err := rows.Scan(&t.ID, &t.Name, &domain, &t.Status, &t.CreatedAt); err != nil {
			slog.Error("failed to scan tenant", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
			return
		}
		t.Domain = domain.String
		tenants = append(tenants, t)
	}

	middleware.JSONResponse(w, http.StatusOK, tenants)
}

// Create handles POST /api/superadmin/tenants
func (h *TenantHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.CreateTenantRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if len(req.Name) < 2 {
		middleware.ErrorResponse(w, http.StatusBadRequest, "name must be at least 2 characters")
		return
	}
	if req.Status == "" {
		req.Status = "active"
	}
	if req.Status != "active" && req.Status != "inactive" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "invalid status")
		return
	}

	tenant := models.Tenant{
		ID:        uuid.NewString(),
		Name:      req.Name,
		Domain:    req.Domain,
		Status:    req.Status,
		CreatedAt: nowMillis(),
	}

	_, err := h.db.Exec(`
		INSERT INTO tenant (id, name, domain, status, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, tenant.ID, tenant.Name, nullable(tenant.Domain), tenant.Status, tenant.CreatedAt)
	if err != nil {
		slog.Error("failed to insert tenant", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create tenant")
		return
	}

	slog.Info("tenant created", "tenant_id", tenant.ID)

	middleware.JSONResponse(w, http.StatusCreated, tenant)
}

// Update handles PUT /api/superadmin/tenants/{id}
func (h *TenantHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var req models.CreateTenantRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	var tenant models.Tenant
	var domain sql.NullString
	err := h.db.QueryRow(`SELECT id, name, domain, status, created_at FROM tenant WHERE id = $1`, id).
		Scan(&tenant.ID, &tenant.Name, &domain, &tenant.Status, &tenant.CreatedAt)
	if err == sql.ErrNoRows {
		middleware.ErrorResponse(w, http.StatusNotFound, "Tenant not found")
		return
	}
	if err != nil {
		slog.Error("failed to query tenant", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	tenant.Domain = domain.String

	if req.Name != "" {
		tenant.Name = req.Name
	}
	if req.Domain != "" {
		tenant.Domain = req.Domain
	}
	if req.Status != "" {
		if req.Status != "active" && req.Status != "inactive" {
			middleware.ErrorResponse(w, http.StatusBadRequest, "invalid status")
			return
		}
		tenant.Status = req.Status
	}

	_, err = h.db.Exec(`UPDATE tenant SET name = $1, domain = $2, status = $3 WHERE id = $4`,
		tenant.Name, nullable(tenant.Domain), tenant.Status, tenant.ID)
	if err != nil {
		slog.Error("failed to update tenant", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to update tenant")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, tenant)
}

// Delete handles DELETE /api/superadmin/tenants/{id}
func (h *TenantHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	res, err := h.db.Exec(`DELETE FROM tenant WHERE id = $1`, id)
	if err != nil {
		slog.Error("failed to delete tenant", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to delete tenant")
		return
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		middleware.ErrorResponse(w, http.StatusNotFound, "Tenant not found")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.DeleteResponse{ID: id, Deleted: true})
}
