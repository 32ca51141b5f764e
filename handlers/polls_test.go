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

func createPollRequest(assemblyID string, body models.CreatePollRequest) *http.Request {
	req := testutil.MakeRequest("POST", "/api/assemblies/"+assemblyID+"/polls", body, nil)
	req.SetPathValue("id", assemblyID)
	return req
}

func TestCreatePoll_SingleChoiceDefaults(t *testing.T) {
	db := testutil.SetupTestDB(t)
	cfg := testutil.GetTestConfig()
	handler := NewPollHandler(db, cfg)
	assemblyID := testutil.CreateTestAssembly(t, db, models.AssemblyDraft)

	w := httptest.NewRecorder()
	handler.Create(w, createPollRequest(assemblyID, models.CreatePollRequest{
		Title:   "Pick one",
		Options: []string{"A", "B", "C"},
	}))
	testutil.AssertStatus(t, w, http.StatusCreated)

	var poll models.Poll
	testutil.AssertJSON(t, w, &poll)
	if poll.PollType != models.PollTypeSingle {
		t.Errorf("poll_type = %q, want single by default", poll.PollType)
	}
	if poll.MinSelections != 1 || poll.MaxSelections != 1 {
		t.Errorf("selections = %d..%d, want 1..1", poll.MinSelections, poll.MaxSelections)
	}
	if len(poll.Options) != 3 || poll.Options[0].Text != "A" {
		t.Errorf("options = %+v", poll.Options)
	}
	if poll.Status != models.PollStatusDraft {
		t.Errorf("status = %q, want draft", poll.Status)
	}
}

func TestCreatePoll_Validation(t *testing.T) {
	db := testutil.SetupTestDB(t)
	cfg := testutil.GetTestConfig()
	handler := NewPollHandler(db, cfg)
	assemblyID := testutil.CreateTestAssembly(t, db, models.AssemblyDraft)

	tests := []struct {
		name string
		req  models.CreatePollRequest
	}{
		{"no title", models.CreatePollRequest{Options: []string{"A", "B"}}},
		{"one option", models.CreatePollRequest{Title: "T", Options: []string{"A"}}},
		{"bad type", models.CreatePollRequest{Title: "T", PollType: "ranked", Options: []string{"A", "B"}}},
		{"single with range", models.CreatePollRequest{
			Title: "T", PollType: models.PollTypeSingle, Options: []string{"A", "B"},
			MinSelections: 1, MaxSelections: 2,
		}},
		{"multiple with zero min", models.CreatePollRequest{
			Title: "T", PollType: models.PollTypeMultiple, Options: []string{"A", "B"},
			MinSelections: 0, MaxSelections: 2,
		}},
		{"multiple max exceeds options", models.CreatePollRequest{
			Title: "T", PollType: models.PollTypeMultiple, Options: []string{"A", "B"},
			MinSelections: 1, MaxSelections: 3,
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			handler.Create(w, createPollRequest(assemblyID, tt.req))
			testutil.AssertStatus(t, w, http.StatusBadRequest)
		})
	}
}

func TestCreatePoll_AssemblyNotFound(t *testing.T) {
	db := testutil.SetupTestDB(t)
	cfg := testutil.GetTestConfig()
	handler := NewPollHandler(db, cfg)

	w := httptest.NewRecorder()
	handler.Create(w, createPollRequest("nope", models.CreatePollRequest{
		Title:   "T",
		Options: []string{"A", "B"},
	}))
	testutil.AssertStatus(t, w, http.StatusNotFound)
}

func TestListPolls(t *testing.T) {
	db := testutil.SetupTestDB(t)
	cfg := testutil.GetTestConfig()
	handler := NewPollHandler(db, cfg)
	assemblyID := testutil.CreateTestAssembly(t, db, models.AssemblyDraft)
	testutil.CreateTestPoll(t, db, assemblyID, models.PollTypeSingle, false, "Yes", "No")
	testutil.CreateTestPoll(t, db, assemblyID, models.PollTypeMultiple, true, "A", "B", "C")

	req := testutil.MakeRequest("GET", "/api/assemblies/"+assemblyID+"/polls", nil, nil)
	req.SetPathValue("id", assemblyID)
	w := httptest.NewRecorder()
	handler.List(w, req)
	testutil.AssertStatus(t, w, http.StatusOK)

	var polls []models.Poll
	testutil.AssertJSON(t, w, &polls)
	if len(polls) != 2 {
		t.Fatalf("polls = %d, want 2", len(polls))
	}
	for _, p := range polls {
		if len(p.Options) == 0 {
			t.Errorf("poll %s listed without options", p.ID)
		}
	}
}

func TestDeletePoll(t *testing.T) {
	db := testutil.SetupTestDB(t)
	cfg := testutil.GetTestConfig()
	handler := NewPollHandler(db, cfg)
	assemblyID := testutil.CreateTestAssembly(t, db, models.AssemblyDraft)
	pollID, _ := testutil.CreateTestPoll(t, db, assemblyID, models.PollTypeSingle, false, "Yes", "No")

	req := testutil.MakeRequest("DELETE", "/api/assemblies/"+assemblyID+"/polls/"+pollID, nil, nil)
	req.SetPathValue("id", assemblyID)
	req.SetPathValue("pollId", pollID)
	w := httptest.NewRecorder()
	handler.Delete(w, req)
	testutil.AssertStatus(t, w, http.StatusOK)

	// Deleting a poll under the wrong assembly is a 404.
	otherID := testutil.CreateTestAssembly(t, db, models.AssemblyDraft)
	pollID, _ = testutil.CreateTestPoll(t, db, assemblyID, models.PollTypeSingle, false, "Yes", "No")
	req = testutil.MakeRequest("DELETE", "/api/assemblies/"+otherID+"/polls/"+pollID, nil, nil)
	req.SetPathValue("id", otherID)
	req.SetPathValue("pollId", pollID)
	w = httptest.NewRecorder()
	handler.Delete(w, req)
	testutil.AssertStatus(t, w, http.StatusNotFound)
}
