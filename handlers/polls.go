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

type PollHandler struct {
	db  *sql.DB
	cfg cliparse.Config
}

func NewPollHandler(db *sql.DB, cfg cliparse.Config) *PollHandler {
	return &PollHandler{db: db, cfg: cfg}
}

// List handles GET /api/assemblies/{id}/polls
func (h *PollHandler) List(w http.ResponseWriter, r *http.Request) {
	assemblyID := r.PathValue("id")

	if _, err := getAssembly(h.db, assemblyID); err == sql.ErrNoRows {
		middleware.ErrorResponse(w, http.StatusNotFound, "Assembly not found")
		return
	} else if err != nil {
		slog.Error("failed to query assembly", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	polls, err := listPolls(h.db, assemblyID)
	if err != nil {
		slog.Error("failed to list polls", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, polls)
}

// Create handles POST /api/assemblies/{id}/polls
func (h *PollHandler) Create(w http.ResponseWriter, r *http.Request) {
	assemblyID := r.PathValue("id")

	var req models.CreatePollRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if req.Title == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "title is required")
		return
	}
	if len(req.Options) < 2 {
		middleware.ErrorResponse(w, http.StatusBadRequest, "poll must have at least 2 options")
		return
	}
	if req.PollType == "" {
		req.PollType = models.PollTypeSingle
	}
	switch req.PollType {
	case models.PollTypeSingle:
		// Single-choice polls always take exactly one selection.
		if req.MinSelections == 0 && req.MaxSelections == 0 {
			req.MinSelections, req.MaxSelections = 1, 1
		}
		if req.MinSelections != 1 || req.MaxSelections != 1 {
			middleware.ErrorResponse(w, http.StatusBadRequest, "single-choice polls require min_selections = max_selections = 1")
			return
		}
	case models.PollTypeMultiple:
		if req.MinSelections < 1 || req.MaxSelections < req.MinSelections {
			middleware.ErrorResponse(w, http.StatusBadRequest, "multiple-choice polls require 1 <= min_selections <= max_selections")
			return
		}
		if req.MaxSelections > len(req.Options) {
			middleware.ErrorResponse(w, http.StatusBadRequest, "max_selections exceeds option count")
			return
		}
	default:
		middleware.ErrorResponse(w, http.StatusBadRequest, "poll_type must be single or multiple")
		return
	}

	assembly, err := getAssembly(h.db, assemblyID)
	if err == sql.ErrNoRows {
		middleware.ErrorResponse(w, http.StatusNotFound, "Assembly not found")
		return
	}
	if err != nil {
		slog.Error("failed to query assembly", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	poll := models.Poll{
		ID:            uuid.NewString(),
		AssemblyID:    assembly.ID,
		Title:         req.Title,
		Description:   req.Description,
		PollType:      req.PollType,
		MinSelections: req.MinSelections,
		MaxSelections: req.MaxSelections,
		IsSecret:      req.IsSecret,
		Status:        models.PollStatusDraft,
		CreatedAt:     nowMillis(),
	}

	tx, err := h.db.Begin()
	if err != nil {
		slog.Error("failed to begin transaction", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT INTO poll (id, assembly_id, title, description, poll_type, min_selections, max_selections, is_secret, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, poll.ID, poll.AssemblyID, poll.Title, nullable(poll.Description), poll.PollType,
		poll.MinSelections, poll.MaxSelections, poll.IsSecret, poll.Status, poll.CreatedAt)
	if err != nil {
		slog.Error("failed to insert poll", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create poll")
		return
	}

	for i, text := range req.Options {
		opt := models.PollOption{ID: uuid.NewString(), Text: text}
		_, err = tx.Exec(`
			INSERT INTO poll_option (id, poll_id, text, position)
			VALUES ($1, $2, $3, $4)
		`, opt.ID, poll.ID, opt.Text, i)
		if err != nil {
			slog.Error("failed to insert poll option", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create poll")
			return
		}
		poll.Options = append(poll.Options, opt)
	}

	if err := tx.Commit(); err != nil {
		slog.Error("failed to commit transaction", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create poll")
		return
	}

	slog.Info("poll created", "poll_id", poll.ID, "assembly_id", assembly.ID)

	middleware.JSONResponse(w, http.StatusCreated, poll)
}

// Delete handles DELETE /api/assemblies/{id}/polls/{pollId}
func (h *PollHandler) Delete(w http.ResponseWriter, r *http.Request) {
	assemblyID := r.PathValue("id")
	pollID := r.PathValue("pollId")

	res, err := h.db.Exec(`DELETE FROM poll WHERE id = $1 AND assembly_id = $2`, pollID, assemblyID)
	if err != nil {
		slog.Error("failed to delete poll", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to delete poll")
		return
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		middleware.ErrorResponse(w, http.StatusNotFound, "Poll not found")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.DeleteResponse{ID: pollID, Deleted: true})
}
