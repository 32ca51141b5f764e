// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/danielhkuo/agora/cliparse"
	"github.com/danielhkuo/agora/livestate"
	"github.com/danielhkuo/agora/middleware"
	"github.com/danielhkuo/agora/models"
	"github.com/danielhkuo/agora/proxy"
)

// LiveHandler serves the live assembly session: start/end, presence,
// poll activation, and ballot casting. Every mutation of the live state
// goes through the store's optimistic-concurrency Mutate.
type LiveHandler struct {
	db    *sql.DB
	cfg   cliparse.Config
	store *livestate.Store
}

func NewLiveHandler(db *sql.DB, cfg cliparse.Config) *LiveHandler {
	return &LiveHandler{db: db, cfg: cfg, store: livestate.NewStore(db)}
}

type stateResponse struct {
	*livestate.State
	Quorum float64 `json:"quorum"`
}

// loadMutableAssembly fetches the assembly and rejects terminal states.
// Cancelled assemblies accept no further live mutations.
func (h *LiveHandler) loadMutableAssembly(w http.ResponseWriter, id string) (models.Assembly, bool) {
	assembly, err := getAssembly(h.db, id)
	if err == sql.ErrNoRows {
		middleware.ErrorResponse(w, http.StatusNotFound, "Assembly not found")
		return assembly, false
	}
	if err != nil {
		slog.Error("failed to query assembly", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return assembly, false
	}
	if assembly.Status == models.AssemblyCancelled {
		middleware.ErrorResponse(w, http.StatusConflict, "Assembly is cancelled")
		return assembly, false
	}
	return assembly, true
}

// Start handles POST /api/assemblies/{id}/start
// Snapshots the full roster into a fresh live state and flips the
// assembly to Active. Starting twice fails; the snapshot is taken once.
func (h *LiveHandler) Start(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.ClaimsFrom(r.Context())
	id := r.PathValue("id")

	assembly, ok := h.loadMutableAssembly(w, id)
	if !ok {
		return
	}
	if assembly.Status == models.AssemblyCompleted {
		middleware.ErrorResponse(w, http.StatusConflict, "Assembly already completed")
		return
	}

	// Cheap pre-check; Create's unique constraint is the race-safe gate.
	if started, err := h.store.Exists(r.Context(), id); err != nil {
		slog.Error("failed to check live state", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	} else if started {
		middleware.ErrorResponse(w, http.StatusConflict, "Assembly already started")
		return
	}

	roster, err := listUsers(h.db)
	if err != nil {
		slog.Error("failed to list users", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	state := livestate.NewState(id, roster)
	if err := h.store.Create(r.Context(), state); err != nil {
		if errors.Is(err, livestate.ErrAlreadyStarted) {
			middleware.ErrorResponse(w, http.StatusConflict, "Assembly already started")
			return
		}
		slog.Error("failed to create live state", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to start assembly")
		return
	}

	assembly.Status = models.AssemblyActive
	if _, err := h.db.Exec(`UPDATE assembly SET status = $1 WHERE id = $2`, assembly.Status, id); err != nil {
		slog.Error("failed to update assembly status", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to start assembly")
		return
	}

	logAction(h.db, actor, models.ActionAssemblyStart, id, "Assembly", nil)
	slog.Info("assembly started", "assembly_id", id, "participants", len(state.Participants),
		"total_coefficient", state.TotalCoefficient)

	middleware.JSONResponse(w, http.StatusOK, assembly)
}

// GetState handles GET /api/assemblies/{id}/state
func (h *LiveHandler) GetState(w http.ResponseWriter, r *http.Request) {
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

	middleware.JSONResponse(w, http.StatusOK, stateResponse{State: state, Quorum: state.Quorum()})
}

// Join handles POST /api/assemblies/{id}/join
func (h *LiveHandler) Join(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var req models.JoinRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if req.UserID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "userId is required")
		return
	}

	if _, ok := h.loadMutableAssembly(w, id); !ok {
		return
	}

	edges, err := listActiveProxies(h.db, id)
	if err != nil {
		slog.Error("failed to list proxies", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	state, err := h.store.Mutate(r.Context(), id, func(s *livestate.State) error {
		s.Join(req.UserID, edges)
		return nil
	})
	if err != nil {
		h.mutationError(w, err)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, stateResponse{State: state, Quorum: state.Quorum()})
}

// ActivatePoll handles POST /api/assemblies/{id}/polls/{pollId}/activate
// Deliberately permissive: activating while another poll is active
// replaces it. Close-then-activate sequencing belongs to the operator.
func (h *LiveHandler) ActivatePoll(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.ClaimsFrom(r.Context())
	id := r.PathValue("id")
	pollID := r.PathValue("pollId")

	if _, ok := h.loadMutableAssembly(w, id); !ok {
		return
	}

	var prev livestate.ActivePoll
	state, err := h.store.Mutate(r.Context(), id, func(s *livestate.State) error {
		prev = s.Activate(pollID)
		return nil
	})
	if err != nil {
		h.mutationError(w, err)
		return
	}

	if prevID, active := prev.ID(); active && prevID != pollID {
		slog.Warn("activated poll while another was active",
			"assembly_id", id, "poll_id", pollID, "replaced_poll_id", prevID)
	}

	logAction(h.db, actor, models.ActionPollActivate, pollID, "Poll", map[string]any{"assembly_id": id})
	slog.Info("poll activated", "assembly_id", id, "poll_id", pollID)

	middleware.JSONResponse(w, http.StatusOK, stateResponse{State: state, Quorum: state.Quorum()})
}

// ClosePoll handles POST /api/assemblies/{id}/polls/{pollId}/close
// Best-effort: the active poll is cleared even when the given id does
// not match it; the mismatch is only logged.
func (h *LiveHandler) ClosePoll(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.ClaimsFrom(r.Context())
	id := r.PathValue("id")
	pollID := r.PathValue("pollId")

	if _, ok := h.loadMutableAssembly(w, id); !ok {
		return
	}

	var mismatched bool
	state, err := h.store.Mutate(r.Context(), id, func(s *livestate.State) error {
		mismatched = s.Close(pollID)
		return nil
	})
	if err != nil {
		h.mutationError(w, err)
		return
	}

	if mismatched {
		slog.Warn("closed a poll that was not the active one", "assembly_id", id, "poll_id", pollID)
	}

	logAction(h.db, actor, models.ActionPollClose, pollID, "Poll", map[string]any{"assembly_id": id})
	slog.Info("poll closed", "assembly_id", id, "poll_id", pollID)

	middleware.JSONResponse(w, http.StatusOK, stateResponse{State: state, Quorum: state.Quorum()})
}

// CastVote handles POST /api/assemblies/{id}/vote
// The active-poll check runs inside the mutation so the check and the
// ballot write are atomic. The persisted Vote record freezes the
// attributed coefficient at cast time; live tallies recompute it.
func (h *LiveHandler) CastVote(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.ClaimsFrom(r.Context())
	id := r.PathValue("id")

	var req models.CastVoteRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if req.UserID == "" || req.PollID == "" || len(req.Selections) == 0 {
		middleware.ErrorResponse(w, http.StatusBadRequest, "userId, pollId and selections are required")
		return
	}

	if _, ok := h.loadMutableAssembly(w, id); !ok {
		return
	}

	poll, err := getPoll(h.db, req.PollID)
	if err == sql.ErrNoRows || (err == nil && poll.AssemblyID != id) {
		middleware.ErrorResponse(w, http.StatusNotFound, "Poll not found")
		return
	}
	if err != nil {
		slog.Error("failed to query poll", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	edges, err := listActiveProxies(h.db, id)
	if err != nil {
		slog.Error("failed to list proxies", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	if delegate, ok := proxy.DelegateOf(edges, req.UserID); ok {
		middleware.ErrorResponse(w, http.StatusBadRequest, fmt.Sprintf(
			"This user has delegated their vote to %s and cannot vote directly", delegate))
		return
	}

	if _, err := getUser(h.db, req.UserID); err == sql.ErrNoRows {
		middleware.ErrorResponse(w, http.StatusNotFound, "User not found")
		return
	} else if err != nil {
		slog.Error("failed to query user", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	state, err := h.store.Mutate(r.Context(), id, func(s *livestate.State) error {
		return s.CastBallot(poll, req.UserID, req.Selections)
	})
	if err != nil {
		switch {
		case errors.Is(err, livestate.ErrPollNotActive):
			middleware.ErrorResponse(w, http.StatusBadRequest, "This poll is not currently active")
		case errors.Is(err, livestate.ErrSelectionCount):
			middleware.ErrorResponse(w, http.StatusBadRequest, fmt.Sprintf(
				"You must select between %d and %d options", poll.MinSelections, poll.MaxSelections))
		case errors.Is(err, livestate.ErrUnknownOption):
			middleware.ErrorResponse(w, http.StatusBadRequest, "Selection is not an option of this poll")
		default:
			h.mutationError(w, err)
		}
		return
	}

	// Freeze the attributed coefficient into the persisted Vote record.
	users, err := listUsers(h.db)
	if err != nil {
		slog.Error("failed to list users", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	coefficient := proxy.AttributedCoefficient(edges, coefficientLookup(users), req.UserID)

	selectionsJSON, err := json.Marshal(req.Selections)
	if err != nil {
		slog.Error("failed to encode selections", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to record vote")
		return
	}
	voteID := req.PollID + ":" + req.UserID
	_, err = h.db.Exec(`
		INSERT INTO vote (id, poll_id, user_id, tenant_id, selections, coefficient_used, voted_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (poll_id, user_id) DO UPDATE SET
			selections = excluded.selections,
			coefficient_used = excluded.coefficient_used,
			voted_at = excluded.voted_at
	`, voteID, req.PollID, req.UserID, models.DefaultTenant, string(selectionsJSON), coefficient, nowMillis())
	if err != nil {
		slog.Error("failed to upsert vote record", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to record vote")
		return
	}

	logAction(h.db, actor, models.ActionVoteCast, req.PollID, "Poll", map[string]any{
		"assembly_id": id,
		"selections":  req.Selections,
	})
	slog.Info("ballot cast", "assembly_id", id, "poll_id", req.PollID, "coefficient", coefficient)

	middleware.JSONResponse(w, http.StatusOK, stateResponse{State: state, Quorum: state.Quorum()})
}

// End handles POST /api/assemblies/{id}/end
// The live state is retained unmodified for historical tallying and
// export.
func (h *LiveHandler) End(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.ClaimsFrom(r.Context())
	id := r.PathValue("id")

	assembly, ok := h.loadMutableAssembly(w, id)
	if !ok {
		return
	}

	assembly.Status = models.AssemblyCompleted
	if _, err := h.db.Exec(`UPDATE assembly SET status = $1 WHERE id = $2`, assembly.Status, id); err != nil {
		slog.Error("failed to update assembly status", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to end assembly")
		return
	}

	logAction(h.db, actor, models.ActionAssemblyEnd, id, "Assembly", nil)
	slog.Info("assembly ended", "assembly_id", id)

	middleware.JSONResponse(w, http.StatusOK, assembly)
}

func (h *LiveHandler) mutationError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, livestate.ErrNotFound):
		middleware.ErrorResponse(w, http.StatusNotFound, "Assembly live state not found")
	case errors.Is(err, livestate.ErrWriteConflict):
		middleware.ErrorResponse(w, http.StatusConflict, "Concurrent update, please retry")
	default:
		slog.Error("live state mutation failed", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to update live state")
	}
}
