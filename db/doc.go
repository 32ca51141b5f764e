// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package db handles database schema creation.

# Schema Creation

CreateSchema initializes all required tables:

	if err := db.CreateSchema(conn); err != nil {
		log.Fatal(err)
	}

Safe to call multiple times - uses IF NOT EXISTS for all tables and indexes.

# Tables

The schema includes:

  - tenant: organizations owning users and assemblies
  - app_user: accounts with voting coefficients and roles
  - assembly: scheduled voting sessions
  - poll: questions with selection bounds and secrecy flag
  - poll_option: options per poll, ordered by position
  - proxy: delegation edges (delegator -> delegate) per assembly
  - vote: persisted ballots, one per (poll, user)
  - audit_log: immutable action records
  - assembly_state: versioned live-state record, one per assembly run

# Relationships

	assembly 1──* poll
	poll 1──* poll_option
	assembly 1──* proxy
	poll 1──* vote
	assembly 1──1 assembly_state

Foreign keys use ON DELETE CASCADE. assembly_state is deliberately not a
foreign key: it is retained for audit and export after an assembly ends.

# Portability

The schema targets the SQL dialect shared by SQLite (modernc.org/sqlite,
the default) and PostgreSQL (lib/pq). Timestamps are epoch-millisecond
INTEGER columns written by the application; JSON payloads are TEXT.
*/
package db
