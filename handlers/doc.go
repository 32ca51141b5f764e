// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package handlers contains HTTP request handlers for the Agora API.

# Handler Types

Each handler is a struct with database and config dependencies:

  - AuthHandler: Registration and login
  - UserHandler: User CRUD, profile updates, batch import
  - TenantHandler: SuperAdmin tenant CRUD
  - AssemblyHandler: Assembly CRUD
  - PollHandler: Poll and option management within an assembly
  - ProxyHandler: Delegation edge management with cycle validation
  - LiveHandler: Live session (start, join, activate/close polls, vote, end)
  - ResultsHandler: Weighted tallies and CSV export
  - AuditHandler: Audit trail retrieval

Handlers are created via constructor functions:

	authHandler := handlers.NewAuthHandler(db, cfg)

# Request Flow

1. Router authenticates the request (middleware.RequireAuth) and matches
method + path. 2. Handler parses the body via middleware.ParseJSONBody and
validates it. 3. Database operations run through database/sql; live-state
mutations go through livestate.Store.Mutate. 4. Response is written with
middleware.JSONResponse or middleware.ErrorResponse.

# Error Handling

Handlers return structured JSON errors:

	{"error": "Assembly not found"}

Status codes: 400 for validation failures, 401 for missing or bad tokens,
403 for insufficient role, 404 for missing records, 409 for conflicts
(duplicate email, already started, delegation conflicts, write conflicts),
500 for database errors.

# Audit Trail

Mutating operations record an audit_log row via logAction. Audit writes
are best-effort and never fail the request that triggered them.
*/
package handlers
