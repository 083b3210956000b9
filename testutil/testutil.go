// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package testutil

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/danielhkuo/quickly-elect/auth"
	"github.com/danielhkuo/quickly-elect/cliparse"
	"github.com/danielhkuo/quickly-elect/clock"
	"github.com/danielhkuo/quickly-elect/db"
	"github.com/danielhkuo/quickly-elect/models"
)

// TestPassword is the password of every user created by CreateTestUser
const TestPassword = "password123"

// Epoch is a fixed instant tests can build a manual clock from
var Epoch = time.Date(2026, time.March, 2, 9, 0, 0, 0, time.UTC)

// SetupTestDB opens a private in-memory SQLite database with the full schema
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	conn, err := db.Open(db.DriverSQLite, ":memory:")
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	if err := db.CreateSchema(conn); err != nil {
		t.Fatalf("Failed to create schema: %v", err)
	}

	return conn
}

// GetTestConfig returns a standard test configuration
func GetTestConfig() cliparse.Config {
	return cliparse.Config{
		Port:              3318,
		DatabaseURL:       ":memory:",
		DatabaseType:      db.DriverSQLite,
		JWTSecret:         "test-jwt-secret",
		TokenTTL:          time.Hour,
		BcryptCost:        bcrypt.MinCost,
		SchedulerInterval: 10 * time.Second,
		EventSubject:      "elections",
		ResultsCacheTTL:   time.Minute,
		ShutdownTimeout:   time.Second,
		LogLevel:          "info",
	}
}

var (
	hashOnce sync.Once
	hash     string
	userSeq  atomic.Int64
)

func testPasswordHash() string {
	hashOnce.Do(func() {
		h, err := auth.NewPasswordHasher(bcrypt.MinCost).Hash(TestPassword)
		if err != nil {
			panic(err)
		}
		hash = h
	})
	return hash
}

// NextSRN returns a well-formed SRN that no other helper call has returned
func NextSRN() string {
	n := userSeq.Add(1)
	return fmt.Sprintf("R%02dAB%03d", 20+n/1000%80, n%1000)
}

// CreateTestUser inserts a user with the given role and TestPassword
func CreateTestUser(t *testing.T, conn *sql.DB, role models.Role) models.User {
	t.Helper()

	now := time.Now().UTC()
	srn := NextSRN()
	u := models.User{
		ID:           auth.NewID(),
		FullName:     "Test " + string(role),
		Email:        fmt.Sprintf("%s@example.com", srn),
		SRN:          srn,
		Role:         role,
		PasswordHash: testPasswordHash(),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	_, err := conn.Exec(`
		INSERT INTO users (id, full_name, email, srn, password_hash, role, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, u.ID, u.FullName, u.Email, u.SRN, u.PasswordHash, string(u.Role), u.CreatedAt, u.UpdatedAt)
	if err != nil {
		t.Fatalf("Failed to create test user: %v", err)
	}

	return u
}

// CreateTestElection inserts an election directly, bypassing lifecycle checks.
// startedAt and closedAt are filled to match status.
func CreateTestElection(t *testing.T, conn *sql.DB, createdBy string, status models.ElectionStatus, start, end time.Time) string {
	t.Helper()

	start, end = clock.Normalize(start), clock.Normalize(end)
	var startedAt, closedAt *time.Time
	if status == models.StatusOngoing || status == models.StatusClosed {
		startedAt = &start
	}
	if status == models.StatusClosed {
		closedAt = &end
	}

	id := auth.NewID()
	now := time.Now().UTC()
	_, err := conn.Exec(`
		INSERT INTO election (id, title, position_name, description, status, start_time, end_time,
			started_at, closed_at, public_results, created_by, created_at, updated_at)
		VALUES ($1, 'Test Election', 'President', 'A test election', $2, $3, $4, $5, $6, $7, $8, $9, $9)
	`, id, string(status), start, end, startedAt, closedAt, false, createdBy, now)
	if err != nil {
		t.Fatalf("Failed to create test election: %v", err)
	}

	return id
}

// AddTestCandidate adds a candidate and returns its ID
func AddTestCandidate(t *testing.T, conn *sql.DB, electionID, name string) string {
	t.Helper()

	id := auth.NewID()
	now := time.Now().UTC()
	_, err := conn.Exec(`
		INSERT INTO candidate (id, election_id, display_name, manifesto, created_at, updated_at)
		VALUES ($1, $2, $3, '', $4, $4)
	`, id, electionID, name, now)
	if err != nil {
		t.Fatalf("Failed to create test candidate: %v", err)
	}

	return id
}

// AddTestEligible puts srns on an election's roster
func AddTestEligible(t *testing.T, conn *sql.DB, electionID string, srns ...string) {
	t.Helper()

	for _, srn := range srns {
		_, err := conn.Exec(`
			INSERT INTO eligible_voter (election_id, srn, added_by, added_at)
			VALUES ($1, $2, 'test', $3)
		`, electionID, srn, time.Now().UTC())
		if err != nil {
			t.Fatalf("Failed to add eligible voter: %v", err)
		}
	}
}

// CastTestVote writes a vote row directly
func CastTestVote(t *testing.T, conn *sql.DB, electionID, candidateID, voterID string) {
	t.Helper()

	_, err := conn.Exec(`
		INSERT INTO vote (id, election_id, position_name, candidate_id, voter_id, cast_at)
		VALUES ($1, $2, 'President', $3, $4, $5)
	`, auth.NewID(), electionID, candidateID, voterID, time.Now().UTC())
	if err != nil {
		t.Fatalf("Failed to cast test vote: %v", err)
	}
}

// CastTestVotes adds n votes for a candidate from fresh voters
func CastTestVotes(t *testing.T, conn *sql.DB, electionID, candidateID string, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		voter := CreateTestUser(t, conn, models.RoleVoter)
		CastTestVote(t, conn, electionID, candidateID, voter.ID)
	}
}

// ElectionStatus reads the current status of an election
func ElectionStatus(t *testing.T, conn *sql.DB, electionID string) models.ElectionStatus {
	t.Helper()

	var status string
	if err := conn.QueryRow("SELECT status FROM election WHERE id = $1", electionID).Scan(&status); err != nil {
		t.Fatalf("Failed to read election status: %v", err)
	}
	return models.ElectionStatus(status)
}

// IssueToken returns an Authorization header value for the user
func IssueToken(t *testing.T, cfg cliparse.Config, user models.User) string {
	t.Helper()

	token, err := auth.NewTokenManager(cfg.JWTSecret, cfg.TokenTTL).Issue(user)
	if err != nil {
		t.Fatalf("Failed to issue token: %v", err)
	}
	return "Bearer " + token
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

// DecodeEnvelope decodes the response envelope, unmarshalling data into v when v is not nil
func DecodeEnvelope(t *testing.T, w *httptest.ResponseRecorder, v interface{}) models.APIResponse {
	t.Helper()

	var raw struct {
		Success bool            `json:"success"`
		Message string          `json:"message"`
		Data    json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &raw); err != nil {
		t.Fatalf("Failed to decode envelope: %v. Body: %s", err, w.Body.String())
	}
	if v != nil && len(raw.Data) > 0 && string(raw.Data) != "null" {
		if err := json.Unmarshal(raw.Data, v); err != nil {
			t.Fatalf("Failed to decode envelope data: %v", err)
		}
	}
	return models.APIResponse{Success: raw.Success, Message: raw.Message, Data: v}
}
