// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package testutil

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/danielhkuo/agora/auth"
	"github.com/danielhkuo/agora/cliparse"
	"github.com/danielhkuo/agora/db"
	"github.com/danielhkuo/agora/models"
)

// SetupTestDB creates a fresh sqlite database with the full schema in a
// per-test temp directory. A single connection keeps sqlite writes
// serialized under concurrent tests.
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	conn, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "agora_test.db"))
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	conn.SetMaxOpenConns(1)
	t.Cleanup(func() { conn.Close() })

	if err := db.CreateSchema(conn); err != nil {
		t.Fatalf("Failed to create schema: %v", err)
	}

	return conn
}

// GetTestConfig returns a standard test configuration
func GetTestConfig() cliparse.Config {
	return cliparse.Config{
		Port:         3325,
		DatabaseURL:  "test.db",
		DatabaseType: "sqlite",
		AuthSecret:   "test-auth-secret",
		TokenTTL:     time.Hour,
	}
}

// AdminToken returns a bearer token for a synthetic admin, for endpoints
// that only need an authenticated caller.
func AdminToken(t *testing.T, cfg cliparse.Config) string {
	t.Helper()
	return TokenFor(t, cfg, auth.Claims{
		UserID:   "test-admin",
		Email:    "admin@test.local",
		FullName: "Test Admin",
		Role:     models.RoleAdmin,
	})
}

// TokenFor signs a token for the given claims with the test secret.
func TokenFor(t *testing.T, cfg cliparse.Config, claims auth.Claims) string {
	t.Helper()
	if claims.ExpiresAt == 0 {
		claims.ExpiresAt = auth.ExpiryFrom(time.Now(), cfg.TokenTTL)
	}
	token, err := auth.GenerateToken(claims, cfg.AuthSecret)
	if err != nil {
		t.Fatalf("Failed to generate test token: %v", err)
	}
	return token
}

// CreateTestUser inserts a user with the given coefficient and role and
// returns its ID.
func CreateTestUser(t *testing.T, conn *sql.DB, cfg cliparse.Config, email string, coefficient float64, role string) string {
	t.Helper()

	id := uuid.NewString()
	_, err := conn.Exec(`
		INSERT INTO app_user (id, tenant_id, email, full_name, password_hash, coefficient, role, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, id, models.DefaultTenant, email, "User "+email, auth.HashPassword("password123", cfg.AuthSecret),
		coefficient, role, models.UserActive, time.Now().UnixMilli())
	if err != nil {
		t.Fatalf("Failed to create test user: %v", err)
	}

	return id
}

// CreateTestAssembly inserts an assembly in the given status and returns
// its ID.
func CreateTestAssembly(t *testing.T, conn *sql.DB, status string) string {
	t.Helper()

	id := uuid.NewString()
	_, err := conn.Exec(`
		INSERT INTO assembly (id, tenant_id, name, scheduled_start, status, quorum_required, created_at)
		VALUES ($1, $2, 'Test Assembly', $3, $4, 0.5, $5)
	`, id, models.DefaultTenant, time.Now().UnixMilli(), status, time.Now().UnixMilli())
	if err != nil {
		t.Fatalf("Failed to create test assembly: %v", err)
	}

	return id
}

// CreateTestPoll inserts a poll with options and returns the poll ID and
// option IDs in definition order.
func CreateTestPoll(t *testing.T, conn *sql.DB, assemblyID, pollType string, isSecret bool, options ...string) (string, []string) {
	t.Helper()

	minSel, maxSel := 1, 1
	if pollType == models.PollTypeMultiple {
		maxSel = len(options)
	}

	pollID := uuid.NewString()
	_, err := conn.Exec(`
		INSERT INTO poll (id, assembly_id, title, poll_type, min_selections, max_selections, is_secret, status, created_at)
		VALUES ($1, $2, 'Test Poll', $3, $4, $5, $6, $7, $8)
	`, pollID, assemblyID, pollType, minSel, maxSel, isSecret, models.PollStatusDraft, time.Now().UnixMilli())
	if err != nil {
		t.Fatalf("Failed to create test poll: %v", err)
	}

	optionIDs := make([]string, len(options))
	for i, text := range options {
		optionIDs[i] = uuid.NewString()
		_, err := conn.Exec(`
			INSERT INTO poll_option (id, poll_id, text, position)
			VALUES ($1, $2, $3, $4)
		`, optionIDs[i], pollID, text, i)
		if err != nil {
			t.Fatalf("Failed to create test poll option: %v", err)
		}
	}

	return pollID, optionIDs
}

// CreateTestProxy inserts an active delegation edge and returns its ID.
func CreateTestProxy(t *testing.T, conn *sql.DB, assemblyID, delegatorID, delegateID string) string {
	t.Helper()

	id := uuid.NewString()
	_, err := conn.Exec(`
		INSERT INTO proxy (id, assembly_id, tenant_id, delegator_id, delegate_id, status, granted_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, id, assemblyID, models.DefaultTenant, delegatorID, delegateID, models.ProxyActive, time.Now().UnixMilli())
	if err != nil {
		t.Fatalf("Failed to create test proxy: %v", err)
	}

	return id
}

// MakeRequest creates an HTTP test request
func MakeRequest(method, path string, body interface{}, headers map[string]string) *http.Request {
	var req *http.Request
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		req = httptest.NewRequest(method, path, bytes.NewReader(jsonBody))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return req
}

// AuthedRequest creates an HTTP test request carrying a bearer token.
func AuthedRequest(method, path string, body interface{}, token string) *http.Request {
	return MakeRequest(method, path, body, map[string]string{"Authorization": "Bearer " + token})
}

// AssertStatus checks that the response has the expected status code
func AssertStatus(t *testing.T, w *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if w.Code != expected {
		t.Errorf("Expected status %d, got %d. Body: %s", expected, w.Code, w.Body.String())
	}
}

// AssertJSON decodes the response body into the provided struct
func AssertJSON(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatalf("Failed to decode JSON response: %v", err)
	}
}
