// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"database/sql"
	"fmt"
)

// CreateSchema creates all tables needed for the application.
// Safe to call multiple times - uses IF NOT EXISTS.
// The SQL is restricted to the dialect shared by SQLite and PostgreSQL:
// no NOW() defaults (timestamps are epoch-millisecond INTEGER columns
// written by the application) and no JSONB (payloads are JSON TEXT).
func CreateSchema(db *sql.DB) error {
	_, err := db.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	return nil
}

const schema = `
-- Tenants
CREATE TABLE IF NOT EXISTS tenant (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    domain TEXT,
    status TEXT NOT NULL DEFAULT 'active' CHECK (status IN ('active', 'inactive')),
    created_at INTEGER NOT NULL
);

-- Users
CREATE TABLE IF NOT EXISTS app_user (
    id TEXT PRIMARY KEY,
    tenant_id TEXT NOT NULL DEFAULT 'default_tenant',
    email TEXT NOT NULL UNIQUE,
    full_name TEXT NOT NULL,
    password_hash TEXT NOT NULL DEFAULT '',
    identification TEXT,
    coefficient REAL NOT NULL DEFAULT 1.0 CHECK (coefficient >= 0),
    role TEXT NOT NULL DEFAULT 'Voter'
        CHECK (role IN ('SuperAdmin', 'Admin', 'Moderator', 'Voter', 'Observer')),
    status TEXT NOT NULL DEFAULT 'Active' CHECK (status IN ('Active', 'Inactive')),
    created_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_app_user_email ON app_user(email);
CREATE INDEX IF NOT EXISTS idx_app_user_tenant ON app_user(tenant_id);

-- Assemblies
CREATE TABLE IF NOT EXISTS assembly (
    id TEXT PRIMARY KEY,
    tenant_id TEXT NOT NULL DEFAULT 'default_tenant',
    name TEXT NOT NULL,
    description TEXT,
    scheduled_start INTEGER NOT NULL,
    scheduled_end INTEGER,
    status TEXT NOT NULL DEFAULT 'Draft'
        CHECK (status IN ('Draft', 'Scheduled', 'Active', 'Completed', 'Cancelled')),
    quorum_required REAL NOT NULL DEFAULT 0.5,
    created_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_assembly_status ON assembly(status);

-- Polls
CREATE TABLE IF NOT EXISTS poll (
    id TEXT PRIMARY KEY,
    assembly_id TEXT NOT NULL REFERENCES assembly(id) ON DELETE CASCADE,
    title TEXT NOT NULL,
    description TEXT,
    poll_type TEXT NOT NULL DEFAULT 'single' CHECK (poll_type IN ('single', 'multiple')),
    min_selections INTEGER NOT NULL DEFAULT 1 CHECK (min_selections >= 1),
    max_selections INTEGER NOT NULL DEFAULT 1 CHECK (max_selections >= min_selections),
    is_secret INTEGER NOT NULL DEFAULT 0,
    status TEXT NOT NULL DEFAULT 'draft'
        CHECK (status IN ('draft', 'visible', 'open', 'closed', 'finalized')),
    created_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_poll_assembly_id ON poll(assembly_id);

-- Poll options. Position preserves definition order for tally output.
CREATE TABLE IF NOT EXISTS poll_option (
    id TEXT PRIMARY KEY,
    poll_id TEXT NOT NULL REFERENCES poll(id) ON DELETE CASCADE,
    text TEXT NOT NULL,
    position INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_poll_option_poll_id ON poll_option(poll_id);

-- Proxy delegation edges. At most one active outgoing edge per delegator
-- per assembly; enforced by the resolver, backstopped by the check below.
CREATE TABLE IF NOT EXISTS proxy (
    id TEXT PRIMARY KEY,
    assembly_id TEXT NOT NULL REFERENCES assembly(id) ON DELETE CASCADE,
    tenant_id TEXT NOT NULL DEFAULT 'default_tenant',
    delegator_id TEXT NOT NULL,
    delegate_id TEXT NOT NULL,
    status TEXT NOT NULL DEFAULT 'active' CHECK (status IN ('active', 'revoked')),
    granted_at INTEGER NOT NULL,
    CHECK (delegator_id <> delegate_id)
);

CREATE INDEX IF NOT EXISTS idx_proxy_assembly_id ON proxy(assembly_id);
CREATE INDEX IF NOT EXISTS idx_proxy_delegator ON proxy(assembly_id, delegator_id);

-- Persisted ballots. One per (poll, user); resubmission overwrites.
CREATE TABLE IF NOT EXISTS vote (
    id TEXT PRIMARY KEY,
    poll_id TEXT NOT NULL REFERENCES poll(id) ON DELETE CASCADE,
    user_id TEXT NOT NULL,
    tenant_id TEXT NOT NULL DEFAULT 'default_tenant',
    selections TEXT NOT NULL,
    coefficient_used REAL NOT NULL,
    voted_at INTEGER NOT NULL,
    UNIQUE (poll_id, user_id)
);

CREATE INDEX IF NOT EXISTS idx_vote_poll_id ON vote(poll_id);

-- Audit log
CREATE TABLE IF NOT EXISTS audit_log (
    id TEXT PRIMARY KEY,
    tenant_id TEXT NOT NULL DEFAULT 'default_tenant',
    actor_id TEXT NOT NULL,
    actor_name TEXT NOT NULL,
    action TEXT NOT NULL,
    target_id TEXT NOT NULL,
    target_type TEXT NOT NULL,
    details TEXT NOT NULL DEFAULT '{}',
    timestamp INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_audit_log_timestamp ON audit_log(timestamp);

-- Live assembly state. One row per assembly run; version drives the
-- optimistic-concurrency mutation primitive.
CREATE TABLE IF NOT EXISTS assembly_state (
    id TEXT PRIMARY KEY,
    version INTEGER NOT NULL DEFAULT 1,
    payload TEXT NOT NULL
);
`
