// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/danielhkuo/quickly-elect/auth"
	"github.com/danielhkuo/quickly-elect/ballot"
	"github.com/danielhkuo/quickly-elect/cliparse"
	"github.com/danielhkuo/quickly-elect/clock"
	"github.com/danielhkuo/quickly-elect/election"
	"github.com/danielhkuo/quickly-elect/events"
	"github.com/danielhkuo/quickly-elect/identity"
	"github.com/danielhkuo/quickly-elect/middleware"
	"github.com/danielhkuo/quickly-elect/models"
	"github.com/danielhkuo/quickly-elect/roster"
	"github.com/danielhkuo/quickly-elect/tally"
	"github.com/danielhkuo/quickly-elect/testutil"
)

// testEnv wires every handler against one in-memory database and a
// manual clock
type testEnv struct {
	db     *sql.DB
	cfg    cliparse.Config
	clock  *clock.Manual
	events *events.Recorder

	auth  *AuthHandler
	voter *VoterHandler
	admin *AdminHandler
	super *SuperadminHandler
}

func newTestEnv(t *testing.T) testEnv {
	t.Helper()

	db := testutil.SetupTestDB(t)
	cfg := testutil.GetTestConfig()
	clk := clock.NewManual(testutil.Epoch)
	rec := &events.Recorder{}

	users := identity.NewService(db, auth.NewPasswordHasher(cfg.BcryptCost), clk)
	rosters := roster.NewService(db, clk)
	elections := election.NewService(db, clk, rec)
	results := tally.NewService(db, clk, 0)

	return testEnv{
		db:     db,
		cfg:    cfg,
		clock:  clk,
		events: rec,
		auth:   NewAuthHandler(users, auth.NewTokenManager(cfg.JWTSecret, cfg.TokenTTL)),
		voter:  NewVoterHandler(elections, ballot.NewBox(db, rosters, clk, rec), results),
		admin:  NewAdminHandler(elections, rosters, results),
		super:  NewSuperadminHandler(users),
	}
}

// call runs h with user in the request context. pathValues are name, value
// pairs.
func call(h http.HandlerFunc, method, path string, body interface{}, user *models.User, pathValues ...string) *httptest.ResponseRecorder {
	req := testutil.MakeRequest(method, path, body, nil)
	return serve(h, req, user, pathValues...)
}

func serve(h http.HandlerFunc, req *http.Request, user *models.User, pathValues ...string) *httptest.ResponseRecorder {
	if user != nil {
		req = req.WithContext(middleware.WithUser(req.Context(), *user))
	}
	for i := 0; i+1 < len(pathValues); i += 2 {
		req.SetPathValue(pathValues[i], pathValues[i+1])
	}
	w := httptest.NewRecorder()
	h(w, req)
	return w
}

func rawCall(h http.HandlerFunc, method, path, body string, user *models.User, pathValues ...string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	return serve(h, req, user, pathValues...)
}

// createElection creates a draft election through the admin handler
func (e testEnv) createElection(t *testing.T, admin models.User, start, end time.Duration) models.Election {
	t.Helper()

	now := e.clock.Now()
	startTime, endTime := now.Add(start), now.Add(end)
	w := call(e.admin.CreateElection, "POST", "/admin/elections", models.CreateElectionRequest{
		Title:        "Student Council",
		PositionName: "President",
		Description:  "Annual election",
		StartTime:    &startTime,
		EndTime:      &endTime,
	}, &admin)
	if w.Code != http.StatusCreated {
		t.Fatalf("Create election failed: %d - %s", w.Code, w.Body.String())
	}

	var created models.Election
	testutil.DecodeEnvelope(t, w, &created)
	return created
}

func (e testEnv) addCandidate(t *testing.T, admin models.User, electionID, name string) models.Candidate {
	t.Helper()

	w := call(e.admin.CreateCandidate, "POST", "/admin/elections/"+electionID+"/candidates",
		models.CreateCandidateRequest{DisplayName: name, Manifesto: name + " for president"},
		&admin, "electionId", electionID)
	if w.Code != http.StatusCreated {
		t.Fatalf("Create candidate %q failed: %d - %s", name, w.Code, w.Body.String())
	}

	var c models.Candidate
	testutil.DecodeEnvelope(t, w, &c)
	return c
}

func envelopeMessage(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var resp models.APIResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to decode envelope: %v", err)
	}
	return resp.Message
}
