// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/danielhkuo/agora/cliparse"
	"github.com/danielhkuo/agora/middleware"
	"github.com/danielhkuo/agora/models"
)

type AuditHandler struct {
	db  *sql.DB
	cfg cliparse.Config
}

func NewAuditHandler(db *sql.DB, cfg cliparse.Config) *AuditHandler {
	return &AuditHandler{db: db, cfg: cfg}
}

// List handles GET /api/audit-logs
// Entries come back newest first.
func (h *AuditHandler) List(w http.ResponseWriter, r *http.Request) {
	rows, err := h.db.Query(`
		SELECT id, tenant_id, actor_id, actor_name, action, target_id, target_type, details, timestamp
		FROM audit_log ORDER BY timestamp DESC, id DESC
	`)
	if err != nil {
		slog.Error("failed to list audit logs", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	defer rows.Close()

	entries := []models.AuditLog{}
	for rows.Next() {
		var entry models.AuditLog
		var details string
		if err := rows.Scan(&entry.ID, &entry.TenantID, &entry.ActorID, &entry.ActorName,
			&entry.Action, &entry.TargetID, &entry.TargetType, &details, &entry.Timestamp); err != nil {
			slog.Error("failed to scan audit log", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
			return
		}
		if err := json.Unmarshal([]byte(details), &entry.Details); err != nil {
			entry.Details = map[string]any{}
		}
		entries = append(entries, entry)
	}

	middleware.JSONResponse(w, http.StatusOK, entries)
}
