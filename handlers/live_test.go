// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/danielhkuo/agora/cliparse"
	"github.com/danielhkuo/agora/models"
	"github.com/danielhkuo/agora/testutil"
)

// liveFixture is the common live-session scenario: alice (coefficient 2)
// delegates to bob (coefficient 3), one single-choice poll with two
// options.
type liveFixture struct {
	db         *sql.DB
	cfg        cliparse.Config
	handler    *LiveHandler
	assemblyID string
	alice      string
	bob        string
	pollID     string
	optionIDs  []string
}

func setupLiveFixture(t *testing.T) *liveFixture {
	t.Helper()

	db := testutil.SetupTestDB(t)
	cfg := testutil.GetTestConfig()
	f := &liveFixture{db: db, cfg: cfg, handler: NewLiveHandler(db, cfg)}

	f.assemblyID = testutil.CreateTestAssembly(t, db, models.AssemblyScheduled)
	f.alice = testutil.CreateTestUser(t, db, cfg, "alice@example.com", 2, models.RoleVoter)
	f.bob = testutil.CreateTestUser(t, db, cfg, "bob@example.com", 3, models.RoleVoter)
	testutil.CreateTestProxy(t, db, f.assemblyID, f.alice, f.bob)
	f.pollID, f.optionIDs = testutil.CreateTestPoll(t, db, f.assemblyID, models.PollTypeSingle, false, "Yes", "No")

	return f
}

func (f *liveFixture) do(t *testing.T, handle http.HandlerFunc, method, path string, body any, pathValues map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := testutil.MakeRequest(method, path, body, nil)
	for k, v := range pathValues {
		req.SetPathValue(k, v)
	}
	w := httptest.NewRecorder()
	handle(w, req)
	return w
}

func (f *liveFixture) start(t *testing.T) {
	t.Helper()
	w := f.do(t, f.handler.Start, "POST", "/api/assemblies/"+f.assemblyID+"/start", nil,
		map[string]string{"id": f.assemblyID})
	testutil.AssertStatus(t, w, http.StatusOK)
}

func (f *liveFixture) join(t *testing.T, userID string) *httptest.ResponseRecorder {
	t.Helper()
	return f.do(t, f.handler.Join, "POST", "/api/assemblies/"+f.assemblyID+"/join",
		models.JoinRequest{UserID: userID}, map[string]string{"id": f.assemblyID})
}

func (f *liveFixture) activate(t *testing.T, pollID string) *httptest.ResponseRecorder {
	t.Helper()
	return f.do(t, f.handler.ActivatePoll, "POST",
		"/api/assemblies/"+f.assemblyID+"/polls/"+pollID+"/activate", nil,
		map[string]string{"id": f.assemblyID, "pollId": pollID})
}

func (f *liveFixture) vote(t *testing.T, userID string, selections []string) *httptest.ResponseRecorder {
	t.Helper()
	return f.do(t, f.handler.CastVote, "POST", "/api/assemblies/"+f.assemblyID+"/vote",
		models.CastVoteRequest{UserID: userID, PollID: f.pollID, Selections: selections},
		map[string]string{"id": f.assemblyID})
}

func TestStartAssembly(t *testing.T) {
	f := setupLiveFixture(t)

	w := f.do(t, f.handler.Start, "POST", "/api/assemblies/"+f.assemblyID+"/start", nil,
		map[string]string{"id": f.assemblyID})
	testutil.AssertStatus(t, w, http.StatusOK)

	var assembly models.Assembly
	testutil.AssertJSON(t, w, &assembly)
	if assembly.Status != models.AssemblyActive {
		t.Errorf("status = %q, want %q", assembly.Status, models.AssemblyActive)
	}

	// The roster snapshot covers both users.
	w = f.do(t, f.handler.GetState, "GET", "/api/assemblies/"+f.assemblyID+"/state", nil,
		map[string]string{"id": f.assemblyID})
	testutil.AssertStatus(t, w, http.StatusOK)

	var state struct {
		Participants       []models.Participant `json:"participants"`
		TotalCoefficient   float64              `json:"total_coefficient"`
		PresentCoefficient float64              `json:"present_coefficient"`
		Quorum             float64              `json:"quorum"`
	}
	testutil.AssertJSON(t, w, &state)
	if len(state.Participants) != 2 || state.TotalCoefficient != 5 {
		t.Errorf("state = %+v, want 2 participants with total 5", state)
	}

	// Starting twice is a conflict.
	w = f.do(t, f.handler.Start, "POST", "/api/assemblies/"+f.assemblyID+"/start", nil,
		map[string]string{"id": f.assemblyID})
	testutil.AssertStatus(t, w, http.StatusConflict)
}

func TestStartAssembly_TerminalStates(t *testing.T) {
	db := testutil.SetupTestDB(t)
	cfg := testutil.GetTestConfig()
	handler := NewLiveHandler(db, cfg)

	for _, status := range []string{models.AssemblyCancelled, models.AssemblyCompleted} {
		assemblyID := testutil.CreateTestAssembly(t, db, status)
		req := testutil.MakeRequest("POST", "/api/assemblies/"+assemblyID+"/start", nil, nil)
		req.SetPathValue("id", assemblyID)
		w := httptest.NewRecorder()
		handler.Start(w, req)
		testutil.AssertStatus(t, w, http.StatusConflict)
	}
}

func TestJoin_DelegationWeight(t *testing.T) {
	f := setupLiveFixture(t)
	f.start(t)

	// Bob joins and brings alice's delegated weight with him.
	w := f.join(t, f.bob)
	testutil.AssertStatus(t, w, http.StatusOK)

	var state struct {
		PresentCoefficient float64 `json:"present_coefficient"`
		Quorum             float64 `json:"quorum"`
	}
	testutil.AssertJSON(t, w, &state)
	if state.PresentCoefficient != 5 {
		t.Errorf("present coefficient = %v, want 5", state.PresentCoefficient)
	}
	if state.Quorum != 1 {
		t.Errorf("quorum = %v, want 1", state.Quorum)
	}

	// Alice has delegated; her join is a no-op.
	w = f.join(t, f.alice)
	testutil.AssertStatus(t, w, http.StatusOK)
	testutil.AssertJSON(t, w, &state)
	if state.PresentCoefficient != 5 {
		t.Errorf("present coefficient after delegator join = %v, want 5", state.PresentCoefficient)
	}
}

func TestJoin_NotStarted(t *testing.T) {
	f := setupLiveFixture(t)

	w := f.join(t, f.bob)
	testutil.AssertStatus(t, w, http.StatusNotFound)
}

func TestCastVote(t *testing.T) {
	f := setupLiveFixture(t)
	f.start(t)
	f.join(t, f.bob)

	// No active poll yet.
	w := f.vote(t, f.bob, []string{f.optionIDs[0]})
	testutil.AssertStatus(t, w, http.StatusBadRequest)

	testutil.AssertStatus(t, f.activate(t, f.pollID), http.StatusOK)

	w = f.vote(t, f.bob, []string{f.optionIDs[0]})
	testutil.AssertStatus(t, w, http.StatusOK)

	// The persisted record freezes the attributed coefficient (2 + 3).
	var coefficient float64
	var selections string
	err := f.db.QueryRow(`SELECT coefficient_used, selections FROM vote WHERE poll_id = $1 AND user_id = $2`,
		f.pollID, f.bob).Scan(&coefficient, &selections)
	if err != nil {
		t.Fatalf("vote record not persisted: %v", err)
	}
	if coefficient != 5 {
		t.Errorf("coefficient_used = %v, want 5", coefficient)
	}

	// Re-voting replaces the ballot, not duplicates it.
	w = f.vote(t, f.bob, []string{f.optionIDs[1]})
	testutil.AssertStatus(t, w, http.StatusOK)

	var count int
	f.db.QueryRow(`SELECT COUNT(*) FROM vote WHERE poll_id = $1 AND user_id = $2`, f.pollID, f.bob).Scan(&count)
	if count != 1 {
		t.Errorf("vote rows = %d, want 1 after re-vote", count)
	}
}

func TestCastVote_Rejections(t *testing.T) {
	f := setupLiveFixture(t)
	f.start(t)
	f.join(t, f.bob)
	f.activate(t, f.pollID)

	tests := []struct {
		name       string
		userID     string
		selections []string
		wantStatus int
	}{
		{"delegator cannot vote", f.alice, []string{f.optionIDs[0]}, http.StatusBadRequest},
		{"too many selections", f.bob, []string{f.optionIDs[0], f.optionIDs[1]}, http.StatusBadRequest},
		{"unknown option", f.bob, []string{"not-an-option"}, http.StatusBadRequest},
		{"unknown user", "ghost", []string{f.optionIDs[0]}, http.StatusNotFound},
		{"empty selections", f.bob, nil, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := f.vote(t, tt.userID, tt.selections)
			testutil.AssertStatus(t, w, tt.wantStatus)
		})
	}
}

func TestCastVote_DelegatorRejectionNamesDelegate(t *testing.T) {
	f := setupLiveFixture(t)
	f.start(t)
	f.join(t, f.bob)
	f.activate(t, f.pollID)

	w := f.vote(t, f.alice, []string{f.optionIDs[0]})
	testutil.AssertStatus(t, w, http.StatusBadRequest)
	if !strings.Contains(w.Body.String(), f.bob) {
		t.Errorf("rejection body = %q, want it to name delegate %s", w.Body.String(), f.bob)
	}
}

func TestCastVote_UnknownPoll(t *testing.T) {
	f := setupLiveFixture(t)
	f.start(t)

	w := f.do(t, f.handler.CastVote, "POST", "/api/assemblies/"+f.assemblyID+"/vote",
		models.CastVoteRequest{UserID: f.bob, PollID: "nope", Selections: []string{"x"}},
		map[string]string{"id": f.assemblyID})
	testutil.AssertStatus(t, w, http.StatusNotFound)
}

func TestClosePoll(t *testing.T) {
	f := setupLiveFixture(t)
	f.start(t)
	f.join(t, f.bob)
	f.activate(t, f.pollID)

	w := f.do(t, f.handler.ClosePoll, "POST",
		"/api/assemblies/"+f.assemblyID+"/polls/"+f.pollID+"/close", nil,
		map[string]string{"id": f.assemblyID, "pollId": f.pollID})
	testutil.AssertStatus(t, w, http.StatusOK)

	// Voting after close fails.
	w = f.vote(t, f.bob, []string{f.optionIDs[0]})
	testutil.AssertStatus(t, w, http.StatusBadRequest)
}

func TestEndAssembly(t *testing.T) {
	f := setupLiveFixture(t)
	f.start(t)

	w := f.do(t, f.handler.End, "POST", "/api/assemblies/"+f.assemblyID+"/end", nil,
		map[string]string{"id": f.assemblyID})
	testutil.AssertStatus(t, w, http.StatusOK)

	var assembly models.Assembly
	testutil.AssertJSON(t, w, &assembly)
	if assembly.Status != models.AssemblyCompleted {
		t.Errorf("status = %q, want %q", assembly.Status, models.AssemblyCompleted)
	}

	// Live state stays readable after the assembly ends.
	w = f.do(t, f.handler.GetState, "GET", "/api/assemblies/"+f.assemblyID+"/state", nil,
		map[string]string{"id": f.assemblyID})
	testutil.AssertStatus(t, w, http.StatusOK)
}

func TestLiveMutations_CancelledAssembly(t *testing.T) {
	f := setupLiveFixture(t)
	f.start(t)

	if _, err := f.db.Exec(`UPDATE assembly SET status = $1 WHERE id = $2`,
		models.AssemblyCancelled, f.assemblyID); err != nil {
		t.Fatal(err)
	}

	w := f.join(t, f.bob)
	testutil.AssertStatus(t, w, http.StatusConflict)

	w = f.activate(t, f.pollID)
	testutil.AssertStatus(t, w, http.StatusConflict)

	w = f.vote(t, f.bob, []string{f.optionIDs[0]})
	testutil.AssertStatus(t, w, http.StatusConflict)
}
