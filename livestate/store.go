// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package livestate

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Rican7/retry"
	"github.com/Rican7/retry/backoff"
	"github.com/Rican7/retry/strategy"
)

var (
	ErrNotFound       = errors.New("assembly live state not found")
	ErrAlreadyStarted = errors.New("assembly already started")
	ErrWriteConflict  = errors.New("live state write conflict")
)

// conflictRetries bounds how many times Mutate re-runs a mutation that
// lost an optimistic-concurrency race before surfacing ErrWriteConflict.
const conflictRetries = 5

// Store persists live states in the assembly_state table, one versioned
// row per assembly run. All writes go through compare-and-swap on the
// version column; the row is never locked across a request.
type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Get loads the live state for an assembly.
func (st *Store) Get(ctx context.Context, assemblyID string) (*State, error) {
	state, _, err := st.load(ctx, assemblyID)
	return state, err
}

// Exists reports whether an assembly has a live state record.
func (st *Store) Exists(ctx context.Context, assemblyID string) (bool, error) {
	var exists bool
	err := st.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM assembly_state WHERE id = $1)`, assemblyID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check live state: %w", err)
	}
	return exists, nil
}

// Create inserts the initial live state for an assembly. A second Create
// for the same assembly fails with ErrAlreadyStarted rather than
// re-snapshotting the roster.
func (st *Store) Create(ctx context.Context, state *State) error {
	payload, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to encode live state: %w", err)
	}
	_, err = st.db.ExecContext(ctx,
		`INSERT INTO assembly_state (id, version, payload) VALUES ($1, $2, $3)`,
		state.ID, 1, string(payload))
	if err != nil {
		if isUniqueViolation(err) {
			return ErrAlreadyStarted
		}
		return fmt.Errorf("failed to insert live state: %w", err)
	}
	return nil
}

// Mutate is the read-modify-write primitive: load the current state,
// apply fn, and persist the result if no concurrent writer got there
// first. fn must be deterministic and side-effect free because it is
// re-invoked on every retry with a freshly loaded state. Validation that
// must be atomic with the write (such as the active-poll check in
// CastBallot) belongs inside fn.
func (st *Store) Mutate(ctx context.Context, assemblyID string, fn func(*State) error) (*State, error) {
	var result *State
	var lastErr error

	action := func(uint) error {
		result, lastErr = st.attempt(ctx, assemblyID, fn)
		if lastErr != nil && !errors.Is(lastErr, ErrWriteConflict) {
			// Validation and load failures are not transient;
			// returning nil stops the retry loop.
			return nil
		}
		return lastErr
	}

	// The returned error duplicates lastErr, which already carries the
	// terminal outcome (ErrWriteConflict once the budget is exhausted).
	_ = retry.Retry(action,
		strategy.Limit(conflictRetries),
		strategy.Backoff(backoff.Linear(5*time.Millisecond)))

	if lastErr != nil {
		return nil, lastErr
	}
	return result, nil
}

func (st *Store) attempt(ctx context.Context, assemblyID string, fn func(*State) error) (*State, error) {
	state, version, err := st.load(ctx, assemblyID)
	if err != nil {
		return nil, err
	}
	if err := fn(state); err != nil {
		return nil, err
	}
	payload, err := json.Marshal(state)
	if err != nil {
		return nil, fmt.Errorf("failed to encode live state: %w", err)
	}
	res, err := st.db.ExecContext(ctx,
		`UPDATE assembly_state SET version = $1, payload = $2 WHERE id = $3 AND version = $4`,
		version+1, string(payload), assemblyID, version)
	if err != nil {
		return nil, fmt.Errorf("failed to update live state: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to read update result: %w", err)
	}
	if affected == 0 {
		return nil, ErrWriteConflict
	}
	return state, nil
}

func (st *Store) load(ctx context.Context, assemblyID string) (*State, int64, error) {
	var version int64
	var payload string
	err := st.db.QueryRowContext(ctx,
		`SELECT version, payload FROM assembly_state WHERE id = $1`, assemblyID).
		Scan(&version, &payload)
	if err == sql.ErrNoRows {
		return nil, 0, ErrNotFound
	}
	if err != nil {
		return nil, 0, fmt.Errorf("failed to load live state: %w", err)
	}
	var state State
	if err := json.Unmarshal([]byte(payload), &state); err != nil {
		return nil, 0, fmt.Errorf("failed to decode live state: %w", err)
	}
	return &state, version, nil
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed") ||
		strings.Contains(err.Error(), "duplicate key value")
}
