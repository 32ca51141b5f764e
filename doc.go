// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package main provides the entry point for the Agora API server.

Agora is an assembly voting service with weighted ballots (each voter
carries a coefficient), one-hop proxy delegation, live session state, and
secret polls with read-time redaction.

# Starting the Server

The server requires environment variables, a .env file, or CLI flags:

	AUTH_SECRET=... DATABASE_URL=agora.db go run main.go

Or with flags:

	go run main.go -p 3325 -d agora.db -t sqlite -auth-secret ...

# Configuration

Required settings:

  - AUTH_SECRET (-auth-secret): Secret for token and password HMACs

Optional settings:

  - PORT (-p): Server port (default: 3325)
  - DATABASE_URL (-d): Connection string or sqlite file path
  - DATABASE_TYPE (-t): "sqlite" (default) or "postgres"
  - TOKEN_TTL_HOURS (-token-ttl): Token lifetime (default: 168)

# Architecture

The server uses a handler-based architecture with dependency injection:

  - handlers: HTTP request handlers (auth, users, assemblies, polls,
    proxies, live session, results, audit)
  - router: Route definitions using Go 1.22+ routing
  - middleware: Auth, CORS, logging, JSON helpers
  - models: Domain and request/response types
  - auth: Token generation and password hashing
  - proxy: Delegation edge validation and coefficient attribution
  - livestate: Versioned live session state with optimistic concurrency
  - tally: Weighted result computation and CSV export rows
  - db: Schema creation
  - cliparse: Configuration parsing

See package documentation for each component.
*/
package main
