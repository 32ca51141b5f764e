// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package models

// Assembly status constants
const (
	AssemblyDraft     = "Draft"
	AssemblyScheduled = "Scheduled"
	AssemblyActive    = "Active"
	AssemblyCompleted = "Completed"
	AssemblyCancelled = "Cancelled"
)

// Poll type constants
const (
	PollTypeSingle   = "single"
	PollTypeMultiple = "multiple"
)

// Poll status constants
const (
	PollStatusDraft     = "draft"
	PollStatusVisible   = "visible"
	PollStatusOpen      = "open"
	PollStatusClosed    = "closed"
	PollStatusFinalized = "finalized"
)

// Proxy status constants
const (
	ProxyActive  = "active"
	ProxyRevoked = "revoked"
)

// User role constants
const (
	RoleSuperAdmin = "SuperAdmin"
	RoleAdmin      = "Admin"
	RoleModerator  = "Moderator"
	RoleVoter      = "Voter"
	RoleObserver   = "Observer"
)

// User status constants
const (
	UserActive   = "Active"
	UserInactive = "Inactive"
)

// Audit log actions
const (
	ActionUserLogin       = "USER_LOGIN"
	ActionUserRegister    = "USER_REGISTER"
	ActionUserCreate      = "USER_CREATE"
	ActionUserUpdate      = "USER_UPDATE"
	ActionUserDelete      = "USER_DELETE"
	ActionUserBatchImport = "USER_BATCH_IMPORT"
	ActionAssemblyCreate  = "ASSEMBLY_CREATE"
	ActionAssemblyUpdate  = "ASSEMBLY_UPDATE"
	ActionAssemblyDelete  = "ASSEMBLY_DELETE"
	ActionAssemblyStart   = "ASSEMBLY_START"
	ActionAssemblyEnd     = "ASSEMBLY_END"
	ActionPollActivate    = "POLL_ACTIVATE"
	ActionPollClose       = "POLL_CLOSE"
	ActionProxyCreate     = "PROXY_CREATE"
	ActionProxyDelete     = "PROXY_DELETE"
	ActionVoteCast        = "VOTE_CAST"
)

// AnonymousVoter replaces voter identity in exports of secret polls.
const AnonymousVoter = "ANONYMOUS"

// DefaultTenant is the tenant assigned when no tenant context exists.
const DefaultTenant = "default_tenant"

// Domain types. Timestamps are epoch milliseconds throughout.

type Tenant struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Domain    string `json:"domain,omitempty"`
	Status    string `json:"status"`
	CreatedAt int64  `json:"created_at"`
}

type User struct {
	ID             string  `json:"id"`
	TenantID       string  `json:"tenant_id"`
	Email          string  `json:"email"`
	FullName       string  `json:"full_name"`
	PasswordHash   string  `json:"-"`
	Identification string  `json:"identification,omitempty"`
	Coefficient    float64 `json:"coefficient"`
	Role           string  `json:"role"`
	Status         string  `json:"status"`
	CreatedAt      int64   `json:"created_at"`
}

type Assembly struct {
	ID             string  `json:"id"`
	TenantID       string  `json:"tenant_id"`
	Name           string  `json:"name"`
	Description    string  `json:"description,omitempty"`
	ScheduledStart int64   `json:"scheduled_start"`
	ScheduledEnd   int64   `json:"scheduled_end,omitempty"`
	Status         string  `json:"status"`
	QuorumRequired float64 `json:"quorum_required"`
	CreatedAt      int64   `json:"created_at"`
}

type PollOption struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

type Poll struct {
	ID            string       `json:"id"`
	AssemblyID    string       `json:"assembly_id"`
	Title         string       `json:"title"`
	Description   string       `json:"description,omitempty"`
	PollType      string       `json:"poll_type"`
	Options       []PollOption `json:"options"`
	MinSelections int          `json:"min_selections"`
	MaxSelections int          `json:"max_selections"`
	IsSecret      bool         `json:"is_secret"`
	Status        string       `json:"status"`
	CreatedAt     int64        `json:"created_at"`
}

// Participant is a roster entry snapshotted into live state when an
// assembly starts. Coefficient is frozen at that moment and does not track
// later profile edits.
type Participant struct {
	ID          string  `json:"id"`
	FullName    string  `json:"full_name"`
	Coefficient float64 `json:"coefficient"`
	IsPresent   bool    `json:"is_present"`
}

type Proxy struct {
	ID          string `json:"id"`
	AssemblyID  string `json:"assembly_id"`
	TenantID    string `json:"tenant_id"`
	DelegatorID string `json:"delegator_id"`
	DelegateID  string `json:"delegate_id"`
	Status      string `json:"status"`
	GrantedAt   int64  `json:"granted_at"`
}

// Vote is the persisted ballot record, keyed by (poll_id, user_id).
// CoefficientUsed is frozen at cast time and is authoritative for export.
type Vote struct {
	ID              string   `json:"id"`
	PollID          string   `json:"poll_id"`
	UserID          string   `json:"user_id"`
	TenantID        string   `json:"tenant_id"`
	Selections      []string `json:"selections"`
	CoefficientUsed float64  `json:"coefficient_used"`
	VotedAt         int64    `json:"voted_at"`
}

type AuditLog struct {
	ID         string         `json:"id"`
	TenantID   string         `json:"tenant_id"`
	ActorID    string         `json:"actor_id"`
	ActorName  string         `json:"actor_name"`
	Action     string         `json:"action"`
	TargetID   string         `json:"target_id"`
	TargetType string         `json:"target_type"`
	Details    map[string]any `json:"details"`
	Timestamp  int64          `json:"timestamp"`
}

// Tally result types

type OptionResult struct {
	OptionID         string  `json:"option_id"`
	Text             string  `json:"text"`
	VoteCount        int     `json:"vote_count"`
	CoefficientTotal float64 `json:"coefficient_total"`
}

type PollResult struct {
	PollID                string         `json:"poll_id"`
	Title                 string         `json:"title"`
	TotalVotes            int            `json:"total_votes"`
	TotalCoefficientVoted float64        `json:"total_coefficient_voted"`
	Results               []OptionResult `json:"results"`
	IsSecret              bool           `json:"is_secret"`
}

// Request types

type RegisterRequest struct {
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type CreateUserRequest struct {
	Email          string  `json:"email"`
	FullName       string  `json:"full_name"`
	Identification string  `json:"identification"`
	Coefficient    float64 `json:"coefficient"`
	Role           string  `json:"role"`
}

type UpdateUserRequest struct {
	Email       *string  `json:"email,omitempty"`
	FullName    *string  `json:"full_name,omitempty"`
	Coefficient *float64 `json:"coefficient,omitempty"`
	Role        *string  `json:"role,omitempty"`
	Status      *string  `json:"status,omitempty"`
}

type UpdateProfileRequest struct {
	FullName *string `json:"full_name,omitempty"`
	Password *string `json:"password,omitempty"`
}

type CreateTenantRequest struct {
	Name   string `json:"name"`
	Domain string `json:"domain"`
	Status string `json:"status"`
}

type CreateAssemblyRequest struct {
	Name           string  `json:"name"`
	Description    string  `json:"description"`
	ScheduledStart int64   `json:"scheduled_start"`
	ScheduledEnd   int64   `json:"scheduled_end"`
	QuorumRequired float64 `json:"quorum_required"`
}

type UpdateAssemblyRequest struct {
	Name           *string  `json:"name,omitempty"`
	Description    *string  `json:"description,omitempty"`
	ScheduledStart *int64   `json:"scheduled_start,omitempty"`
	ScheduledEnd   *int64   `json:"scheduled_end,omitempty"`
	QuorumRequired *float64 `json:"quorum_required,omitempty"`
}

type CreatePollRequest struct {
	Title         string   `json:"title"`
	Description   string   `json:"description"`
	PollType      string   `json:"poll_type"`
	Options       []string `json:"options"`
	MinSelections int      `json:"min_selections"`
	MaxSelections int      `json:"max_selections"`
	IsSecret      bool     `json:"is_secret"`
}

type CreateProxyRequest struct {
	DelegatorID string `json:"delegator_id"`
	DelegateID  string `json:"delegate_id"`
}

type JoinRequest struct {
	UserID string `json:"userId"`
}

type CastVoteRequest struct {
	UserID     string   `json:"userId"`
	PollID     string   `json:"pollId"`
	Selections []string `json:"selections"`
}

// Response types

type AuthResponse struct {
	User  User   `json:"user"`
	Token string `json:"token"`
}

type DeleteResponse struct {
	ID      string `json:"id"`
	Deleted bool   `json:"deleted"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
