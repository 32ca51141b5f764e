// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/danielhkuo/agora/auth"
	"github.com/danielhkuo/agora/models"
)

func nowMillis() int64 {
	return time.Now().UnixMilli()
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed") ||
		strings.Contains(err.Error(), "duplicate key value")
}

// logAction records an audit entry. Audit failures are logged and
// swallowed; they never fail the request that triggered them.
func logAction(db *sql.DB, actor auth.Claims, action, targetID, targetType string, details map[string]any) {
	if details == nil {
		details = map[string]any{}
	}
	detailsJSON, err := json.Marshal(details)
	if err != nil {
		slog.Warn("failed to encode audit details", "error", err, "action", action)
		detailsJSON = []byte("{}")
	}
	_, err = db.Exec(`
		INSERT INTO audit_log (id, tenant_id, actor_id, actor_name, action, target_id, target_type, details, timestamp)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, uuid.NewString(), models.DefaultTenant, actor.UserID, actor.FullName, action, targetID, targetType, string(detailsJSON), nowMillis())
	if err != nil {
		slog.Warn("failed to write audit log", "error", err, "action", action)
	}
}

const userColumns = `id, tenant_id, email, full_name, password_hash, identification, coefficient, role, status, created_at`

func scanUser(row *sql.Row) (models.User, error) {
	var u models.User
	var identification sql.NullString
	err := row.Scan(&u.ID, &u.TenantID, &u.Email, &u.FullName, &u.PasswordHash,
		&identification, &u.Coefficient, &u.Role, &u.Status, &u.CreatedAt)
	u.Identification = identification.String
	return u, err
}

func getUser(db *sql.DB, id string) (models.User, error) {
	return scanUser(db.QueryRow(`SELECT `+userColumns+` FROM app_user WHERE id = $1`, id))
}

func listUsers(db *sql.DB) ([]models.User, error) {
	rows, err := db.Query(`SELECT ` + userColumns + ` FROM app_user ORDER BY created_at, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := []models.User{}
	for rows.Next() {
		var u models.User
		var identification sql.NullString
		if err := rows.Scan(&u.ID, &u.TenantID, &u.Email, &u.FullName, &u.PasswordHash,
			&identification, &u.Coefficient, &u.Role, &u.Status, &u.CreatedAt); err != nil {
			return nil, err
		}
		u.Identification = identification.String
		users = append(users, u)
	}
	return users, rows.Err()
}

// coefficientLookup builds the coefficientOf function the resolver and
// tally engine consume, from current user records.
func coefficientLookup(users []models.User) func(string) (float64, bool) {
	byID := make(map[string]float64, len(users))
	for _, u := range users {
		byID[u.ID] = u.Coefficient
	}
	return func(id string) (float64, bool) {
		c, ok := byID[id]
		return c, ok
	}
}

func getAssembly(db *sql.DB, id string) (models.Assembly, error) {
	var a models.Assembly
	var description sql.NullString
	var scheduledEnd sql.NullInt64
	err := db.QueryRow(`
		SELECT id, tenant_id, name, description, scheduled_start, scheduled_end, status, quorum_required, created_at
		FROM assembly WHERE id = $1
	`, id).Scan(&a.ID, &a.TenantID, &a.Name, &description, &a.ScheduledStart,
		&scheduledEnd, &a.Status, &a.QuorumRequired, &a.CreatedAt)
	a.Description = description.String
	a.ScheduledEnd = scheduledEnd.Int64
	return a, err
}

const pollColumns = `id, assembly_id, title, description, poll_type, min_selections, max_selections, is_secret, status, created_at`

func getPoll(db *sql.DB, id string) (models.Poll, error) {
	var p models.Poll
	var description sql.NullString
	err := db.QueryRow(`SELECT `+pollColumns+` FROM poll WHERE id = $1`, id).
		Scan(&p.ID, &p.AssemblyID, &p.Title, &description, &p.PollType,
			&p.MinSelections, &p.MaxSelections, &p.IsSecret, &p.Status, &p.CreatedAt)
	if err != nil {
		return p, err
	}
	p.Description = description.String
	p.Options, err = listPollOptions(db, p.ID)
	return p, err
}

func listPollOptions(db *sql.DB, pollID string) ([]models.PollOption, error) {
	rows, err := db.Query(`SELECT id, text FROM poll_option WHERE poll_id = $1 ORDER BY position`, pollID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	options := []models.PollOption{}
	for rows.Next() {
		var opt models.PollOption
		if err := rows.Scan(&opt.ID, &opt.Text); err != nil {
			return nil, err
		}
		options = append(options, opt)
	}
	return options, rows.Err()
}

func listPolls(db *sql.DB, assemblyID string) ([]models.Poll, error) {
	rows, err := db.Query(`SELECT `+pollColumns+` FROM poll WHERE assembly_id = $1 ORDER BY created_at, id`, assemblyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	polls := []models.Poll{}
	for rows.Next() {
		var p models.Poll
		var description sql.NullString
		if err := rows.Scan(&p.ID, &p.AssemblyID, &p.Title, &description, &p.PollType,
			&p.MinSelections, &p.MaxSelections, &p.IsSecret, &p.Status, &p.CreatedAt); err != nil {
			return nil, err
		}
		p.Description = description.String
		polls = append(polls, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range polls {
		options, err := listPollOptions(db, polls[i].ID)
		if err != nil {
			return nil, err
		}
		polls[i].Options = options
	}
	return polls, nil
}

// listActiveProxies returns the active delegation edges for one assembly,
// the edge set every resolver and tally call consumes.
func listActiveProxies(db *sql.DB, assemblyID string) ([]models.Proxy, error) {
	rows, err := db.Query(`
		SELECT id, assembly_id, tenant_id, delegator_id, delegate_id, status, granted_at
		FROM proxy WHERE assembly_id = $1 AND status = $2
	`, assemblyID, models.ProxyActive)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	proxies := []models.Proxy{}
	for rows.Next() {
		var p models.Proxy
		if err := rows.Scan(&p.ID, &p.AssemblyID, &p.TenantID, &p.DelegatorID,
			&p.DelegateID, &p.Status, &p.GrantedAt); err != nil {
			return nil, err
		}
		proxies = append(proxies, p)
	}
	return proxies, rows.Err()
}

func listVotesForPolls(db *sql.DB, pollIDs []string) ([]models.Vote, error) {
	votes := []models.Vote{}
	for _, pollID := range pollIDs {
		rows, err := db.Query(`
			SELECT id, poll_id, user_id, tenant_id, selections, coefficient_used, voted_at
			FROM vote WHERE poll_id = $1 ORDER BY voted_at, id
		`, pollID)
		if err != nil {
			return nil, err
		}
		for rows.Next() {
			var v models.Vote
			var selections string
			if err := rows.Scan(&v.ID, &v.PollID, &v.UserID, &v.TenantID,
				&selections, &v.CoefficientUsed, &v.VotedAt); err != nil {
				rows.Close()
				return nil, err
			}
			if err := json.Unmarshal([]byte(selections), &v.Selections); err != nil {
				rows.Close()
				return nil, err
			}
			votes = append(votes, v)
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return nil, err
		}
		rows.Close()
	}
	return votes, nil
}
