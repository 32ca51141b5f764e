// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package livestate owns the single mutable per-assembly runtime record and
its transitions.

# State

State holds presence, the active poll, coefficient totals, and recorded
ballots for one assembly run. NewState snapshots the roster when the
assembly starts; coefficients are frozen at that moment. ActivePoll is a
tagged value distinguishing "no active poll" from a poll id, serialized
as JSON null or a string.

# Transitions

  - NewState + Store.Create: assembly start (second start fails with
    ErrAlreadyStarted)
  - Join: idempotent presence; delegators are skipped, and a joining
    delegate brings the attributed weight of their delegators
  - Activate: sets the active poll, permissively replacing a previous one
  - Close: clears the active poll regardless of the id given
  - CastBallot: validates the active poll, selection bounds, and option
    membership inside the mutation, then upserts the ballot

# Store

Store persists states in the versioned assembly_state table. Mutate is
the concurrency primitive: read with version, apply fn, write-if-
unchanged. Lost races are retried a bounded number of times with linear
backoff (Rican7/retry) before ErrWriteConflict surfaces; fn must be pure
because every retry re-invokes it on a freshly loaded state. Two
concurrent ballots from different users both land; two from the same
user resolve to last-write-observed, never silently dropped.
*/
package livestate
