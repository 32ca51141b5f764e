// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/danielhkuo/agora/models"
	"github.com/danielhkuo/agora/testutil"
)

func createProxyRequest(assemblyID string, body models.CreateProxyRequest) *http.Request {
	req := testutil.MakeRequest("POST", "/api/assemblies/"+assemblyID+"/proxies", body, nil)
	req.SetPathValue("id", assemblyID)
	return req
}

func TestCreateProxy(t *testing.T) {
	db := testutil.SetupTestDB(t)
	cfg := testutil.GetTestConfig()
	handler := NewProxyHandler(db, cfg)

	assemblyID := testutil.CreateTestAssembly(t, db, models.AssemblyScheduled)
	alice := testutil.CreateTestUser(t, db, cfg, "alice@example.com", 2, models.RoleVoter)
	bob := testutil.CreateTestUser(t, db, cfg, "bob@example.com", 3, models.RoleVoter)

	w := httptest.NewRecorder()
	handler.Create(w, createProxyRequest(assemblyID, models.CreateProxyRequest{
		DelegatorID: alice,
		DelegateID:  bob,
	}))
	testutil.AssertStatus(t, w, http.StatusCreated)

	var p models.Proxy
	testutil.AssertJSON(t, w, &p)
	if p.DelegatorID != alice || p.DelegateID != bob || p.Status != models.ProxyActive {
		t.Errorf("created proxy = %+v", p)
	}
}

func TestCreateProxy_Rejections(t *testing.T) {
	db := testutil.SetupTestDB(t)
	cfg := testutil.GetTestConfig()
	handler := NewProxyHandler(db, cfg)

	assemblyID := testutil.CreateTestAssembly(t, db, models.AssemblyScheduled)
	alice := testutil.CreateTestUser(t, db, cfg, "alice@example.com", 2, models.RoleVoter)
	bob := testutil.CreateTestUser(t, db, cfg, "bob@example.com", 3, models.RoleVoter)
	carol := testutil.CreateTestUser(t, db, cfg, "carol@example.com", 5, models.RoleVoter)
	testutil.CreateTestProxy(t, db, assemblyID, alice, bob)

	tests := []struct {
		name       string
		req        models.CreateProxyRequest
		wantStatus int
	}{
		{"self delegation", models.CreateProxyRequest{DelegatorID: bob, DelegateID: bob}, http.StatusBadRequest},
		{"second outgoing edge", models.CreateProxyRequest{DelegatorID: alice, DelegateID: carol}, http.StatusConflict},
		{"direct cycle", models.CreateProxyRequest{DelegatorID: bob, DelegateID: alice}, http.StatusConflict},
		{"missing fields", models.CreateProxyRequest{DelegatorID: alice}, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			handler.Create(w, createProxyRequest(assemblyID, tt.req))
			testutil.AssertStatus(t, w, tt.wantStatus)
		})
	}
}

func TestCreateProxy_TransitiveCycle(t *testing.T) {
	db := testutil.SetupTestDB(t)
	cfg := testutil.GetTestConfig()
	handler := NewProxyHandler(db, cfg)

	assemblyID := testutil.CreateTestAssembly(t, db, models.AssemblyScheduled)
	alice := testutil.CreateTestUser(t, db, cfg, "alice@example.com", 2, models.RoleVoter)
	bob := testutil.CreateTestUser(t, db, cfg, "bob@example.com", 3, models.RoleVoter)
	carol := testutil.CreateTestUser(t, db, cfg, "carol@example.com", 5, models.RoleVoter)
	testutil.CreateTestProxy(t, db, assemblyID, alice, bob)
	testutil.CreateTestProxy(t, db, assemblyID, bob, carol)

	// carol -> alice closes the chain alice -> bob -> carol.
	w := httptest.NewRecorder()
	handler.Create(w, createProxyRequest(assemblyID, models.CreateProxyRequest{
		DelegatorID: carol,
		DelegateID:  alice,
	}))
	testutil.AssertStatus(t, w, http.StatusConflict)
}

func TestCreateProxy_AssemblyNotFound(t *testing.T) {
	db := testutil.SetupTestDB(t)
	cfg := testutil.GetTestConfig()
	handler := NewProxyHandler(db, cfg)

	w := httptest.NewRecorder()
	handler.Create(w, createProxyRequest("nope", models.CreateProxyRequest{
		DelegatorID: "a",
		DelegateID:  "b",
	}))
	testutil.AssertStatus(t, w, http.StatusNotFound)
}

func TestDeleteProxy(t *testing.T) {
	db := testutil.SetupTestDB(t)
	cfg := testutil.GetTestConfig()
	handler := NewProxyHandler(db, cfg)

	assemblyID := testutil.CreateTestAssembly(t, db, models.AssemblyScheduled)
	alice := testutil.CreateTestUser(t, db, cfg, "alice@example.com", 2, models.RoleVoter)
	bob := testutil.CreateTestUser(t, db, cfg, "bob@example.com", 3, models.RoleVoter)
	proxyID := testutil.CreateTestProxy(t, db, assemblyID, alice, bob)

	req := testutil.MakeRequest("DELETE", "/api/assemblies/"+assemblyID+"/proxies/"+proxyID, nil, nil)
	req.SetPathValue("id", assemblyID)
	req.SetPathValue("proxyId", proxyID)
	w := httptest.NewRecorder()
	handler.Delete(w, req)
	testutil.AssertStatus(t, w, http.StatusOK)

	// Gone now.
	w = httptest.NewRecorder()
	handler.Delete(w, req)
	testutil.AssertStatus(t, w, http.StatusNotFound)
}
