// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package router

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/danielhkuo/agora/models"
	"github.com/danielhkuo/agora/testutil"
)

func registerUser(t *testing.T, mux *http.ServeMux, email string) models.AuthResponse {
	t.Helper()
	req := testutil.MakeRequest("POST", "/api/auth/register", models.RegisterRequest{
		FullName: "Router Test",
		Email:    email,
		Password: "password123",
	}, nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	testutil.AssertStatus(t, w, http.StatusCreated)

	var resp models.AuthResponse
	testutil.AssertJSON(t, w, &resp)
	return resp
}

func TestRouter_HealthIsPublic(t *testing.T) {
	mux := NewRouter(testutil.SetupTestDB(t), testutil.GetTestConfig())

	w := httptest.NewRecorder()
	mux.ServeHTTP(w, testutil.MakeRequest("GET", "/health", nil, nil))
	testutil.AssertStatus(t, w, http.StatusOK)
}

func TestRouter_APIRequiresAuth(t *testing.T) {
	mux := NewRouter(testutil.SetupTestDB(t), testutil.GetTestConfig())

	paths := []struct{ method, path string }{
		{"GET", "/api/assemblies"},
		{"GET", "/api/users"},
		{"GET", "/api/audit-logs"},
		{"POST", "/api/assemblies/x/start"},
	}
	for _, p := range paths {
		w := httptest.NewRecorder()
		mux.ServeHTTP(w, testutil.MakeRequest(p.method, p.path, nil, nil))
		if w.Code != http.StatusUnauthorized {
			t.Errorf("%s %s without token = %d, want 401", p.method, p.path, w.Code)
		}
	}
}

func TestRouter_AuthedRequest(t *testing.T) {
	mux := NewRouter(testutil.SetupTestDB(t), testutil.GetTestConfig())

	resp := registerUser(t, mux, "admin@example.com")

	w := httptest.NewRecorder()
	mux.ServeHTTP(w, testutil.AuthedRequest("GET", "/api/assemblies", nil, resp.Token))
	testutil.AssertStatus(t, w, http.StatusOK)

	var assemblies []models.Assembly
	testutil.AssertJSON(t, w, &assemblies)
	if len(assemblies) != 0 {
		t.Errorf("assemblies = %v, want empty list", assemblies)
	}
}

func TestRouter_TenantRoutesRequireSuperAdmin(t *testing.T) {
	mux := NewRouter(testutil.SetupTestDB(t), testutil.GetTestConfig())

	// First registration is SuperAdmin, second is a plain voter.
	admin := registerUser(t, mux, "admin@example.com")
	voter := registerUser(t, mux, "voter@example.com")

	w := httptest.NewRecorder()
	mux.ServeHTTP(w, testutil.AuthedRequest("GET", "/api/superadmin/tenants", nil, voter.Token))
	testutil.AssertStatus(t, w, http.StatusForbidden)

	w = httptest.NewRecorder()
	mux.ServeHTTP(w, testutil.AuthedRequest("GET", "/api/superadmin/tenants", nil, admin.Token))
	testutil.AssertStatus(t, w, http.StatusOK)
}

func TestRouter_PathValuesReachHandlers(t *testing.T) {
	db := testutil.SetupTestDB(t)
	cfg := testutil.GetTestConfig()
	mux := NewRouter(db, cfg)

	admin := registerUser(t, mux, "admin@example.com")
	assemblyID := testutil.CreateTestAssembly(t, db, models.AssemblyScheduled)

	w := httptest.NewRecorder()
	mux.ServeHTTP(w, testutil.AuthedRequest("GET", "/api/assemblies/"+assemblyID, nil, admin.Token))
	testutil.AssertStatus(t, w, http.StatusOK)

	var assembly models.Assembly
	testutil.AssertJSON(t, w, &assembly)
	if assembly.ID != assemblyID {
		t.Errorf("assembly.ID = %q, want %q", assembly.ID, assemblyID)
	}

	w = httptest.NewRecorder()
	mux.ServeHTTP(w, testutil.AuthedRequest("GET", "/api/assemblies/missing", nil, admin.Token))
	testutil.AssertStatus(t, w, http.StatusNotFound)
}
