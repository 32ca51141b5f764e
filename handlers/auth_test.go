// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/danielhkuo/agora/auth"
	"github.com/danielhkuo/agora/models"
	"github.com/danielhkuo/agora/testutil"
)

func TestRegister_FirstUserIsSuperAdmin(t *testing.T) {
	db := testutil.SetupTestDB(t)
	cfg := testutil.GetTestConfig()
	handler := NewAuthHandler(db, cfg)

	req := testutil.MakeRequest("POST", "/api/auth/register", models.RegisterRequest{
		FullName: "First User",
		Email:    "first@example.com",
		Password: "password123",
	}, nil)
	w := httptest.NewRecorder()
	handler.Register(w, req)

	testutil.AssertStatus(t, w, http.StatusCreated)

	var resp models.AuthResponse
	testutil.AssertJSON(t, w, &resp)
	if resp.User.Role != models.RoleSuperAdmin {
		t.Errorf("first user role = %q, want %q", resp.User.Role, models.RoleSuperAdmin)
	}
	if resp.Token == "" {
		t.Error("register did not return a token")
	}

	// Second registration is a plain voter.
	req = testutil.MakeRequest("POST", "/api/auth/register", models.RegisterRequest{
		FullName: "Second User",
		Email:    "second@example.com",
		Password: "password123",
	}, nil)
	w = httptest.NewRecorder()
	handler.Register(w, req)

	testutil.AssertStatus(t, w, http.StatusCreated)
	testutil.AssertJSON(t, w, &resp)
	if resp.User.Role != models.RoleVoter {
		t.Errorf("second user role = %q, want %q", resp.User.Role, models.RoleVoter)
	}
}

func TestRegister_Validation(t *testing.T) {
	db := testutil.SetupTestDB(t)
	cfg := testutil.GetTestConfig()
	handler := NewAuthHandler(db, cfg)

	tests := []struct {
		name string
		req  models.RegisterRequest
	}{
		{"short name", models.RegisterRequest{FullName: "A", Email: "a@example.com", Password: "password123"}},
		{"bad email", models.RegisterRequest{FullName: "User", Email: "not-an-email", Password: "password123"}},
		{"short password", models.RegisterRequest{FullName: "User", Email: "a@example.com", Password: "short"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			handler.Register(w, testutil.MakeRequest("POST", "/api/auth/register", tt.req, nil))
			testutil.AssertStatus(t, w, http.StatusBadRequest)
		})
	}
}

func TestRegister_DuplicateEmail(t *testing.T) {
	db := testutil.SetupTestDB(t)
	cfg := testutil.GetTestConfig()
	handler := NewAuthHandler(db, cfg)

	body := models.RegisterRequest{FullName: "User", Email: "dup@example.com", Password: "password123"}

	w := httptest.NewRecorder()
	handler.Register(w, testutil.MakeRequest("POST", "/api/auth/register", body, nil))
	testutil.AssertStatus(t, w, http.StatusCreated)

	w = httptest.NewRecorder()
	handler.Register(w, testutil.MakeRequest("POST", "/api/auth/register", body, nil))
	testutil.AssertStatus(t, w, http.StatusConflict)
}

func TestLogin(t *testing.T) {
	db := testutil.SetupTestDB(t)
	cfg := testutil.GetTestConfig()
	handler := NewAuthHandler(db, cfg)

	w := httptest.NewRecorder()
	handler.Register(w, testutil.MakeRequest("POST", "/api/auth/register", models.RegisterRequest{
		FullName: "Login User",
		Email:    "login@example.com",
		Password: "password123",
	}, nil))
	testutil.AssertStatus(t, w, http.StatusCreated)

	// Correct credentials return a usable token.
	w = httptest.NewRecorder()
	handler.Login(w, testutil.MakeRequest("POST", "/api/auth/login", models.LoginRequest{
		Email:    "login@example.com",
		Password: "password123",
	}, nil))
	testutil.AssertStatus(t, w, http.StatusOK)

	var resp models.AuthResponse
	testutil.AssertJSON(t, w, &resp)
	claims, err := auth.ValidateToken(resp.Token, cfg.AuthSecret)
	if err != nil {
		t.Fatalf("returned token failed validation: %v", err)
	}
	if claims.UserID != resp.User.ID {
		t.Errorf("token user = %q, want %q", claims.UserID, resp.User.ID)
	}

	// Wrong password.
	w = httptest.NewRecorder()
	handler.Login(w, testutil.MakeRequest("POST", "/api/auth/login", models.LoginRequest{
		Email:    "login@example.com",
		Password: "wrongpassword",
	}, nil))
	testutil.AssertStatus(t, w, http.StatusUnauthorized)

	// Unknown email.
	w = httptest.NewRecorder()
	handler.Login(w, testutil.MakeRequest("POST", "/api/auth/login", models.LoginRequest{
		Email:    "nobody@example.com",
		Password: "password123",
	}, nil))
	testutil.AssertStatus(t, w, http.StatusUnauthorized)
}
