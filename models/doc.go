// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package models defines request, response, and domain types for the API.

# Domain Types

Internal data structures:

  - Tenant: organization owning users and assemblies
  - User: account with a voting coefficient and role
  - Assembly: scheduled voting session with polls and a roster
  - Poll: question with options, selection bounds, and secrecy flag
  - Participant: roster entry snapshotted into live state
  - Proxy: delegation edge from a delegator to a delegate
  - Vote: persisted ballot with frozen coefficient_used
  - AuditLog: immutable action record
  - PollResult / OptionResult: weighted tally output

# Request Types

Types for parsing incoming JSON: RegisterRequest, LoginRequest,
CreateUserRequest, CreateAssemblyRequest, CreatePollRequest,
CreateProxyRequest, JoinRequest, CastVoteRequest, and the partial-update
variants with pointer fields.

# Constants

Assembly lifecycle:

	AssemblyDraft → AssemblyScheduled → AssemblyActive → AssemblyCompleted

with AssemblyCancelled as a terminal branch. Poll types are
PollTypeSingle and PollTypeMultiple. Audit actions use the
SCREAMING_SNAKE names recorded in the audit_log table.

All timestamps are epoch milliseconds.
*/
package models
