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

type AssemblyHandler struct {
	db  *sql.DB
	cfg cliparse.Config
}

func NewAssemblyHandler(db *sql.DB, cfg cliparse.Config) *AssemblyHandler {
	return &AssemblyHandler{db: db, cfg: cfg}
}

// List handles GET /api/assemblies
func (h *AssemblyHandler) List(w http.ResponseWriter, r *http.Request) {
	rows, err := h.db.Query(`
		SELECT id, tenant_id, name, description, scheduled_start, scheduled_end, status, quorum_required, created_at
		FROM assembly ORDER BY scheduled_start, id
	`)
	if err != nil {
		slog.Error("failed to list assemblies", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	defer rows.Close()

	assemblies := []models.Assembly{}
	for rows.Next() {
		var a models.Assembly
		var description sql.NullString
		var scheduledEnd sql.NullInt64
		if err := rows.Scan(&a.ID, &a.TenantID, &a.Name, &description, &a.ScheduledStart,
			&scheduledEnd, &a.Status, &a.QuorumRequired, &a.CreatedAt); err != nil {
			slog.Error("failed to scan assembly", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
			return
		}
		a.Description = description.String
		a.ScheduledEnd = scheduledEnd.Int64
		assemblies = append(assemblies, a)
	}

	middleware.JSONResponse(w, http.StatusOK, assemblies)
}

// Get handles GET /api/assemblies/{id}
func (h *AssemblyHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	assembly, err := getAssembly(h.db, id)
	if err == sql.ErrNoRows {
		middleware.ErrorResponse(w, http.StatusNotFound, "Assembly not found")
		return
	}
	if err != nil {
		slog.Error("failed to query assembly", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, assembly)
}

// Create handles POST /api/assemblies
func (h *AssemblyHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.ClaimsFrom(r.Context())

	var req models.CreateAssemblyRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if len(req.Name) < 3 {
		middleware.ErrorResponse(w, http.StatusBadRequest, "name must be at least 3 characters")
		return
	}
	if req.ScheduledStart <= 0 {
		middleware.ErrorResponse(w, http.StatusBadRequest, "scheduled_start is required")
		return
	}
	if req.QuorumRequired == 0 {
		req.QuorumRequired = 0.5
	}
	if req.QuorumRequired < 0 || req.QuorumRequired > 1 {
		middleware.ErrorResponse(w, http.StatusBadRequest, "quorum_required must be within [0, 1]")
		return
	}

	assembly := models.Assembly{
		ID:             uuid.NewString(),
		TenantID:       models.DefaultTenant,
		Name:           req.Name,
		Description:    req.Description,
		ScheduledStart: req.ScheduledStart,
		ScheduledEnd:   req.ScheduledEnd,
		Status:         models.AssemblyDraft,
		QuorumRequired: req.QuorumRequired,
		CreatedAt:      nowMillis(),
	}

	var scheduledEnd any
	if assembly.ScheduledEnd > 0 {
		scheduledEnd = assembly.ScheduledEnd
	}
	_, err := h.db.Exec(`
		INSERT INTO assembly (id, tenant_id, name, description, scheduled_start, scheduled_end, status, quorum_required, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, assembly.ID, assembly.TenantID, assembly.Name, nullable(assembly.Description),
		assembly.ScheduledStart, scheduledEnd, assembly.Status, assembly.QuorumRequired, assembly.CreatedAt)
	if err != nil {
		slog.Error("failed to insert assembly", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create assembly")
		return
	}

	logAction(h.db, actor, models.ActionAssemblyCreate, assembly.ID, "Assembly", map[string]any{"name": assembly.Name})
	slog.Info("assembly created", "assembly_id", assembly.ID, "actor", actor.UserID)

	middleware.JSONResponse(w, http.StatusCreated, assembly)
}

// Update handles PUT /api/assemblies/{id}
func (h *AssemblyHandler) Update(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.ClaimsFrom(r.Context())
	id := r.PathValue("id")

	var req models.UpdateAssemblyRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	assembly, err := getAssembly(h.db, id)
	if err == sql.ErrNoRows {
		middleware.ErrorResponse(w, http.StatusNotFound, "Assembly not found")
		return
	}
	if err != nil {
		slog.Error("failed to query assembly", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	changes := []string{}
	if req.Name != nil {
		assembly.Name = *req.Name
		changes = append(changes, "name")
	}
	if req.Description != nil {
		assembly.Description = *req.Description
		changes = append(changes, "description")
	}
	if req.ScheduledStart != nil {
		assembly.ScheduledStart = *req.ScheduledStart
		changes = append(changes, "scheduled_start")
	}
	if req.ScheduledEnd != nil {
		assembly.ScheduledEnd = *req.ScheduledEnd
		changes = append(changes, "scheduled_end")
	}
	if req.QuorumRequired != nil {
		if *req.QuorumRequired < 0 || *req.QuorumRequired > 1 {
			middleware.ErrorResponse(w, http.StatusBadRequest, "quorum_required must be within [0, 1]")
			return
		}
		assembly.QuorumRequired = *req.QuorumRequired
		changes = append(changes, "quorum_required")
	}

	var scheduledEnd any
	if assembly.ScheduledEnd > 0 {
		scheduledEnd = assembly.ScheduledEnd
	}
	_, err = h.db.Exec(`
		UPDATE assembly SET name = $1, description = $2, scheduled_start = $3, scheduled_end = $4, quorum_required = $5
		WHERE id = $6
	`, assembly.Name, nullable(assembly.Description), assembly.ScheduledStart, scheduledEnd,
		assembly.QuorumRequired, assembly.ID)
	if err != nil {
		slog.Error("failed to update assembly", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to update assembly")
		return
	}

	logAction(h.db, actor, models.ActionAssemblyUpdate, assembly.ID, "Assembly", map[string]any{"changes": changes})

	middleware.JSONResponse(w, http.StatusOK, assembly)
}

// Delete handles DELETE /api/assemblies/{id}
func (h *AssemblyHandler) Delete(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.ClaimsFrom(r.Context())
	id := r.PathValue("id")

	res, err := h.db.Exec(`DELETE FROM assembly WHERE id = $1`, id)
	if err != nil {
		slog.Error("failed to delete assembly", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to delete assembly")
		return
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		middleware.ErrorResponse(w, http.StatusNotFound, "Assembly not found")
		return
	}

	logAction(h.db, actor, models.ActionAssemblyDelete, id, "Assembly", nil)

	middleware.JSONResponse(w, http.StatusOK, models.DeleteResponse{ID: id, Deleted: true})
}
