// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"encoding/csv"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/danielhkuo/agora/cliparse"
	"github.com/danielhkuo/agora/livestate"
	"github.com/danielhkuo/agora/middleware"
	"github.com/danielhkuo/agora/models"
	"github.com/danielhkuo/agora/tally"
)

// ResultsHandler serves weighted tallies and the CSV export of an
// assembly's persisted votes.
type ResultsHandler struct {
	db    *sql.DB
	cfg   cliparse.Config
	store *livestate.Store
}

func NewResultsHandler(db *sql.DB, cfg cliparse.Config) *ResultsHandler {
	return &ResultsHandler{db: db, cfg: cfg, store: livestate.NewStore(db)}
}

// GetResults handles GET /api/assemblies/{id}/results
// Tallies every poll of the assembly from the live-state ballots.
// Secret polls come back with an empty breakdown.
func (h *ResultsHandler) GetResults(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	state, err := h.store.Get(r.Context(), id)
	if errors.Is(err, livestate.ErrNotFound) {
		middleware.ErrorResponse(w, http.StatusNotFound, "Assembly live state not found")
		return
	}
	if err != nil {
		slog.Error("failed to load live state", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	polls, err := listPolls(h.db, id)
	if err != nil {
		slog.Error("failed to list polls", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	edges, err := listActiveProxies(h.db, id)
	if err != nil {
		slog.Error("failed to list proxies", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	users, err := listUsers(h.db)
	if err != nil {
		slog.Error("failed to list users", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	coefficientOf := coefficientLookup(users)

	results := []models.PollResult{}
	for _, poll := range polls {
		results = append(results, tally.Tally(poll, state.Votes[poll.ID], edges, coefficientOf))
	}

	middleware.JSONResponse(w, http.StatusOK, results)
}

// Export handles GET /api/assemblies/{id}/export
// Streams the assembly's persisted votes as CSV, one row per
// (ballot, selected option) pair, with coefficients frozen at cast time.
func (h *ResultsHandler) Export(w http.ResponseWriter, r *http.Request) {
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

	polls, err := listPolls(h.db, id)
	if err != nil {
		slog.Error("failed to list polls", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	pollIDs := make([]string, len(polls))
	for i, p := range polls {
		pollIDs[i] = p.ID
	}
	votes, err := listVotesForPolls(h.db, pollIDs)
	if err != nil {
		slog.Error("failed to list votes", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	users, err := listUsers(h.db)
	if err != nil {
		slog.Error("failed to list users", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	usersByID := make(map[string]models.User, len(users))
	for _, u := range users {
		usersByID[u.ID] = u
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "assembly-"+assembly.ID+"-votes.csv"))
	w.WriteHeader(http.StatusOK)

	writer := csv.NewWriter(w)
	if err := writer.Write(tally.ExportHeader); err != nil {
		slog.Error("failed to write export header", "error", err)
		return
	}
	for _, row := range tally.ExportRows(polls, votes, usersByID) {
		if err := writer.Write(row); err != nil {
			slog.Error("failed to write export row", "error", err)
			return
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		slog.Error("failed to flush export", "error", err)
	}
}
