// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package ballot

import (
	"context"
	"database/sql"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danielhkuo/quickly-elect/apperr"
	"github.com/danielhkuo/quickly-elect/clock"
	"github.com/danielhkuo/quickly-elect/events"
	"github.com/danielhkuo/quickly-elect/models"
	"github.com/danielhkuo/quickly-elect/roster"
	"github.com/danielhkuo/quickly-elect/testutil"
)

type fixture struct {
	box       *Box
	db        *sql.DB
	clock     *clock.Manual
	rec       *events.Recorder
	election  string
	candidate string
	voter     models.User
}

// newFixture builds an ongoing election with one candidate and one
// eligible voter
func newFixture(t *testing.T) fixture {
	t.Helper()
	conn := testutil.SetupTestDB(t)
	clk := clock.NewManual(testutil.Epoch)
	rec := &events.Recorder{}

	admin := testutil.CreateTestUser(t, conn, models.RoleAdmin)
	voter := testutil.CreateTestUser(t, conn, models.RoleVoter)
	id := testutil.CreateTestElection(t, conn, admin.ID, models.StatusOngoing, testutil.Epoch.Add(-time.Hour), testutil.Epoch.Add(time.Hour))
	cand := testutil.AddTestCandidate(t, conn, id, "Alice")
	testutil.AddTestEligible(t, conn, id, voter.SRN)

	return fixture{
		box:       NewBox(conn, roster.NewService(conn, clk), clk, rec),
		db:        conn,
		clock:     clk,
		rec:       rec,
		election:  id,
		candidate: cand,
		voter:     voter,
	}
}

func voteCount(t *testing.T, conn *sql.DB, electionID string) int {
	t.Helper()
	var n int
	require.NoError(t, conn.QueryRow("SELECT COUNT(*) FROM vote WHERE election_id = $1", electionID).Scan(&n))
	return n
}

func TestCast(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	vote, err := f.box.Cast(ctx, f.election, f.voter.ID, f.candidate)
	require.NoError(t, err)
	assert.Equal(t, f.election, vote.ElectionID)
	assert.Equal(t, f.candidate, vote.CandidateID)
	assert.Equal(t, f.voter.ID, vote.VoterID)
	assert.Equal(t, "President", vote.PositionName)
	assert.True(t, vote.CastAt.Equal(testutil.Epoch))

	assert.Equal(t, []string{events.VoteCast}, f.rec.Names())
}

// An off-roster voter is ineligible; a second vote from an eligible voter
// is a duplicate and leaves the first vote alone.
func TestCast_IneligibleAndDuplicate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	outsider := testutil.CreateTestUser(t, f.db, models.RoleVoter)

	_, err := f.box.Cast(ctx, f.election, outsider.ID, f.candidate)
	assert.True(t, apperr.Is(err, apperr.KindIneligible), "got %v", err)
	assert.Equal(t, 403, apperr.HTTPStatus(err))

	first, err := f.box.Cast(ctx, f.election, f.voter.ID, f.candidate)
	require.NoError(t, err)

	other := testutil.AddTestCandidate(t, f.db, f.election, "Bob")
	f.clock.Advance(time.Minute)
	_, err = f.box.Cast(ctx, f.election, f.voter.ID, other)
	assert.True(t, apperr.Is(err, apperr.KindDuplicate), "got %v", err)
	assert.Equal(t, "You have already voted in this election", err.Error())

	var candidateID string
	var castAt time.Time
	require.NoError(t, f.db.QueryRow("SELECT candidate_id, cast_at FROM vote WHERE election_id = $1 AND voter_id = $2", f.election, f.voter.ID).Scan(&candidateID, &castAt))
	assert.Equal(t, first.CandidateID, candidateID)
	assert.True(t, castAt.Equal(first.CastAt))
	assert.Equal(t, 1, voteCount(t, f.db, f.election))
}

// Each case fails exactly one check; earlier checks win when several fail.
func TestCast_CheckOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin := testutil.CreateTestUser(t, f.db, models.RoleSuperadmin)
	draft := testutil.CreateTestElection(t, f.db, admin.ID, models.StatusDraft, testutil.Epoch.Add(time.Hour), testutil.Epoch.Add(2*time.Hour))
	testutil.AddTestEligible(t, f.db, draft, f.voter.SRN)
	otherElection := testutil.CreateTestElection(t, f.db, admin.ID, models.StatusOngoing, testutil.Epoch.Add(-time.Hour), testutil.Epoch.Add(time.Hour))
	foreign := testutil.AddTestCandidate(t, f.db, otherElection, "Mallory")

	testCases := []struct {
		name      string
		election  string
		voter     string
		candidate string
		kind      apperr.Kind
	}{
		{"unknown voter", f.election, "ghost", "", apperr.KindNotFound},
		{"missing election is not on any roster", "missing", f.voter.ID, f.candidate, apperr.KindIneligible},
		{"empty candidate", f.election, f.voter.ID, "  ", apperr.KindInvalid},
		{"draft election", draft, f.voter.ID, "whatever", apperr.KindConflict},
		{"candidate from another election", f.election, f.voter.ID, foreign, apperr.KindInvalid},
		{"unknown candidate", f.election, f.voter.ID, "nope", apperr.KindInvalid},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.box.Cast(ctx, tc.election, tc.voter, tc.candidate)
			assert.Equal(t, tc.kind, apperr.KindOf(err), "got %v", err)
		})
	}

	assert.Equal(t, 0, voteCount(t, f.db, f.election))
}

func TestCast_ClosedElection(t *testing.T) {
	f := newFixture(t)
	_, err := f.db.Exec("UPDATE election SET status = $1, closed_at = $2 WHERE id = $3", string(models.StatusClosed), testutil.Epoch, f.election)
	require.NoError(t, err)

	_, err = f.box.Cast(context.Background(), f.election, f.voter.ID, f.candidate)
	assert.True(t, apperr.Is(err, apperr.KindConflict))
	assert.Equal(t, 0, voteCount(t, f.db, f.election))
}

func TestCast_ConcurrentSameVoter(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	const attempts = 10
	var successes, duplicates atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.box.Cast(ctx, f.election, f.voter.ID, f.candidate)
			switch {
			case err == nil:
				successes.Add(1)
			case apperr.Is(err, apperr.KindDuplicate):
				duplicates.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), successes.Load())
	assert.Equal(t, int32(attempts-1), duplicates.Load())
	assert.Equal(t, 1, voteCount(t, f.db, f.election))
}

func TestStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	status, err := f.box.Status(ctx, f.election, f.voter.ID)
	require.NoError(t, err)
	assert.False(t, status.HasVoted)
	assert.Nil(t, status.CastAt)

	_, err = f.box.Cast(ctx, f.election, f.voter.ID, f.candidate)
	require.NoError(t, err)

	status, err = f.box.Status(ctx, f.election, f.voter.ID)
	require.NoError(t, err)
	assert.True(t, status.HasVoted)
	require.NotNil(t, status.CastAt)
	assert.True(t, status.CastAt.Equal(testutil.Epoch))

	_, err = f.box.Status(ctx, "missing", f.voter.ID)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}
