// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package middleware provides HTTP middleware and JSON helpers.

# Middleware

  - WithLogging: request start/completion logging via slog
  - RequireAuth: Bearer token validation; claims land in the request
    context (read them with ClaimsFrom)
  - RequireRole: role gate layered after RequireAuth
  - CORS: cross-origin headers and preflight handling

# Helpers

  - JSONResponse / ErrorResponse: consistent JSON output
  - ParseJSONBody: request body decoding
  - WithClaims: context injection for handler tests
*/
package middleware
