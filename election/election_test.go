// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package election

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danielhkuo/quickly-elect/apperr"
	"github.com/danielhkuo/quickly-elect/clock"
	"github.com/danielhkuo/quickly-elect/events"
	"github.com/danielhkuo/quickly-elect/models"
	"github.com/danielhkuo/quickly-elect/testutil"
)

type fixture struct {
	svc   *Service
	db    *sql.DB
	clock *clock.Manual
	rec   *events.Recorder
	admin models.User
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	conn := testutil.SetupTestDB(t)
	clk := clock.NewManual(testutil.Epoch)
	rec := &events.Recorder{}
	return fixture{
		svc:   NewService(conn, clk, rec),
		db:    conn,
		clock: clk,
		rec:   rec,
		admin: testutil.CreateTestUser(t, conn, models.RoleAdmin),
	}
}

func ptr[T any](v T) *T { return &v }

func (f fixture) create(t *testing.T, start, end time.Duration) models.Election {
	t.Helper()
	now := f.clock.Now()
	e, err := f.svc.Create(context.Background(), f.admin.ID, models.CreateElectionRequest{
		Title:        "Student Council",
		PositionName: "President",
		StartTime:    ptr(now.Add(start)),
		EndTime:      ptr(now.Add(end)),
	})
	require.NoError(t, err)
	return e
}

func TestCreate(t *testing.T) {
	f := newFixture(t)
	e := f.create(t, time.Hour, 2*time.Hour)

	assert.Equal(t, models.StatusDraft, e.Status)
	assert.Equal(t, f.admin.ID, e.CreatedBy)
	assert.False(t, e.PublicResults)
	assert.Nil(t, e.StartedAt)
	assert.Nil(t, e.ClosedAt)

	loaded, err := f.svc.Get(context.Background(), e.ID)
	require.NoError(t, err)
	assert.Equal(t, e.Title, loaded.Title)
	assert.True(t, loaded.StartTime.Equal(e.StartTime))
	assert.Equal(t, []string{events.ElectionCreated}, f.rec.Names())
}

func TestCreate_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	now := f.clock.Now()

	testCases := []struct {
		name string
		req  models.CreateElectionRequest
		kind apperr.Kind
	}{
		{"missing title", models.CreateElectionRequest{PositionName: "P", StartTime: ptr(now.Add(time.Hour)), EndTime: ptr(now.Add(2 * time.Hour))}, apperr.KindInvalid},
		{"missing times", models.CreateElectionRequest{Title: "T", PositionName: "P"}, apperr.KindInvalid},
		{"start in the past", models.CreateElectionRequest{Title: "T", PositionName: "P", StartTime: ptr(now.Add(-time.Hour)), EndTime: ptr(now.Add(time.Hour))}, apperr.KindUnprocessable},
		{"end before start", models.CreateElectionRequest{Title: "T", PositionName: "P", StartTime: ptr(now.Add(2 * time.Hour)), EndTime: ptr(now.Add(time.Hour))}, apperr.KindUnprocessable},
		{"end equals start", models.CreateElectionRequest{Title: "T", PositionName: "P", StartTime: ptr(now.Add(time.Hour)), EndTime: ptr(now.Add(time.Hour))}, apperr.KindUnprocessable},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.svc.Create(ctx, f.admin.ID, tc.req)
			assert.Equal(t, tc.kind, apperr.KindOf(err), "got %v", err)
		})
	}

	// within the grace period
	_, err := f.svc.Create(ctx, f.admin.ID, models.CreateElectionRequest{
		Title: "T", PositionName: "P", StartTime: ptr(now.Add(-30 * time.Second)), EndTime: ptr(now.Add(time.Hour)),
	})
	assert.NoError(t, err)
}

// Schedule a draft, then editing is refused.
func TestScheduleThenEditConflicts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	e := f.create(t, time.Hour, 2*time.Hour)

	scheduled, err := f.svc.Schedule(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusScheduled, scheduled.Status)

	_, err = f.svc.Update(ctx, e.ID, models.UpdateElectionRequest{Title: ptr("Renamed")})
	assert.True(t, apperr.Is(err, apperr.KindConflict), "got %v", err)

	_, err = f.svc.Schedule(ctx, e.ID)
	assert.True(t, apperr.Is(err, apperr.KindConflict))
}

func TestSchedule_StartMustBeFuture(t *testing.T) {
	f := newFixture(t)
	e := f.create(t, time.Minute, time.Hour)

	f.clock.Advance(2 * time.Minute)
	_, err := f.svc.Schedule(context.Background(), e.ID)
	assert.True(t, apperr.Is(err, apperr.KindUnprocessable), "got %v", err)
	assert.Equal(t, models.StatusDraft, testutil.ElectionStatus(t, f.db, e.ID))
}

func TestUpdate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	e := f.create(t, time.Hour, 2*time.Hour)

	updated, err := f.svc.Update(ctx, e.ID, models.UpdateElectionRequest{
		Title:       ptr("  Renamed  "),
		Description: ptr("Annual vote"),
		EndTime:     ptr(f.clock.Now().Add(3 * time.Hour)),
	})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Title)
	assert.Equal(t, "President", updated.PositionName)
	assert.Equal(t, "Annual vote", updated.Description)

	_, err = f.svc.Update(ctx, e.ID, models.UpdateElectionRequest{EndTime: ptr(f.clock.Now())})
	assert.True(t, apperr.Is(err, apperr.KindUnprocessable))

	_, err = f.svc.Update(ctx, e.ID, models.UpdateElectionRequest{Title: ptr("  ")})
	assert.True(t, apperr.Is(err, apperr.KindInvalid))

	_, err = f.svc.Update(ctx, "missing", models.UpdateElectionRequest{})
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

// Force-start needs a scheduled election.
func TestForceStart_RequiresScheduled(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	e := f.create(t, time.Hour, 2*time.Hour)

	_, err := f.svc.ForceStart(ctx, e.ID)
	assert.True(t, apperr.Is(err, apperr.KindConflict), "got %v", err)
	assert.Equal(t, models.StatusDraft, testutil.ElectionStatus(t, f.db, e.ID))

	_, err = f.svc.Schedule(ctx, e.ID)
	require.NoError(t, err)

	f.clock.Advance(10 * time.Minute)
	started, err := f.svc.ForceStart(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusOngoing, started.Status)
	require.NotNil(t, started.StartedAt)
	assert.True(t, started.StartedAt.Equal(f.clock.Now()))
	assert.True(t, started.StartTime.Equal(f.clock.Now()))

	_, err = f.svc.ForceStart(ctx, e.ID)
	assert.True(t, apperr.Is(err, apperr.KindConflict))
}

// A scheduled election the scheduler has not yet closed cannot be started
// once its end time has passed.
func TestForceStart_EndTimePassed(t *testing.T) {
	f := newFixture(t)
	now := f.clock.Now()
	id := testutil.CreateTestElection(t, f.db, f.admin.ID, models.StatusScheduled, now.Add(-2*time.Hour), now.Add(-time.Hour))

	_, err := f.svc.ForceStart(context.Background(), id)
	assert.True(t, apperr.Is(err, apperr.KindUnprocessable), "got %v", err)
	assert.Equal(t, models.StatusScheduled, testutil.ElectionStatus(t, f.db, id))
}

func TestForceClose(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	t.Run("ongoing election ends now", func(t *testing.T) {
		id := testutil.CreateTestElection(t, f.db, f.admin.ID, models.StatusOngoing, f.clock.Now().Add(-time.Hour), f.clock.Now().Add(time.Hour))
		closed, err := f.svc.ForceClose(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, models.StatusClosed, closed.Status)
		assert.True(t, closed.EndTime.Equal(f.clock.Now()))
		require.NotNil(t, closed.ClosedAt)
		assert.True(t, closed.ClosedAt.Equal(f.clock.Now()))

		_, err = f.svc.ForceClose(ctx, id)
		assert.True(t, apperr.Is(err, apperr.KindConflict))
	})

	t.Run("draft keeps its window", func(t *testing.T) {
		e := f.create(t, time.Hour, 2*time.Hour)
		closed, err := f.svc.ForceClose(ctx, e.ID)
		require.NoError(t, err)
		assert.Equal(t, models.StatusClosed, closed.Status)
		assert.True(t, closed.EndTime.Equal(e.EndTime))
		assert.True(t, closed.StartTime.Before(closed.EndTime))
		require.NotNil(t, closed.ClosedAt)
	})
}

func TestPublishResults(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	e := f.create(t, time.Hour, 2*time.Hour)

	_, err := f.svc.PublishResults(ctx, e.ID)
	assert.True(t, apperr.Is(err, apperr.KindConflict))

	_, err = f.svc.ForceClose(ctx, e.ID)
	require.NoError(t, err)

	published, err := f.svc.PublishResults(ctx, e.ID)
	require.NoError(t, err)
	assert.True(t, published.PublicResults)

	_, err = f.svc.PublishResults(ctx, e.ID)
	assert.True(t, apperr.Is(err, apperr.KindConflict))

	assert.Equal(t, []string{
		events.ElectionCreated,
		events.ElectionClosed,
		events.ElectionResultsPublished,
	}, f.rec.Names())
}

func TestCandidates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	e := f.create(t, time.Hour, 2*time.Hour)

	_, err := f.svc.CreateCandidate(ctx, e.ID, models.CreateCandidateRequest{DisplayName: " "})
	assert.True(t, apperr.Is(err, apperr.KindInvalid))

	alice, err := f.svc.CreateCandidate(ctx, e.ID, models.CreateCandidateRequest{DisplayName: "Alice", PhotoURL: ptr("https://example.com/a.png")})
	require.NoError(t, err)
	require.NotNil(t, alice.PhotoURL)
	f.clock.Advance(time.Second)
	_, err = f.svc.CreateCandidate(ctx, e.ID, models.CreateCandidateRequest{DisplayName: "Bob"})
	require.NoError(t, err)

	list, err := f.svc.ListCandidates(ctx, e.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Alice", list[0].DisplayName)
	assert.Equal(t, "https://example.com/a.png", *list[0].PhotoURL)
	assert.Nil(t, list[1].PhotoURL)

	_, err = f.svc.ListCandidates(ctx, "missing")
	assert.True(t, apperr.Is(err, apperr.KindNotFound))

	_, err = f.svc.Schedule(ctx, e.ID)
	require.NoError(t, err)
	_, err = f.svc.CreateCandidate(ctx, e.ID, models.CreateCandidateRequest{DisplayName: "Carol"})
	assert.True(t, apperr.Is(err, apperr.KindConflict))
	err = f.svc.DeleteCandidate(ctx, alice.ID)
	assert.True(t, apperr.Is(err, apperr.KindConflict))
}

// Deleting a candidate with no votes works in draft; one with votes is
// refused with the count.
func TestDeleteCandidate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	e := f.create(t, time.Hour, 2*time.Hour)

	c, err := f.svc.CreateCandidate(ctx, e.ID, models.CreateCandidateRequest{DisplayName: "Alice"})
	require.NoError(t, err)
	require.NoError(t, f.svc.DeleteCandidate(ctx, c.ID))

	err = f.svc.DeleteCandidate(ctx, c.ID)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))

	ongoing := testutil.CreateTestElection(t, f.db, f.admin.ID, models.StatusOngoing, f.clock.Now().Add(-time.Hour), f.clock.Now().Add(time.Hour))
	voted := testutil.AddTestCandidate(t, f.db, ongoing, "Bob")
	testutil.CastTestVotes(t, f.db, ongoing, voted, 2)

	err = f.svc.DeleteCandidate(ctx, voted)
	require.True(t, apperr.Is(err, apperr.KindConflict), "got %v", err)
	assert.Contains(t, err.Error(), "2 vote(s)")
}

func TestDetailsAndLists(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	now := f.clock.Now()

	draft := f.create(t, time.Hour, 2*time.Hour)
	ongoing := testutil.CreateTestElection(t, f.db, f.admin.ID, models.StatusOngoing, now.Add(-time.Hour), now.Add(time.Hour))
	closed := testutil.CreateTestElection(t, f.db, f.admin.ID, models.StatusClosed, now.Add(-2*time.Hour), now.Add(-time.Hour))
	published := testutil.CreateTestElection(t, f.db, f.admin.ID, models.StatusClosed, now.Add(-3*time.Hour), now.Add(-2*time.Hour))
	_, err := f.db.Exec("UPDATE election SET public_results = $1 WHERE id = $2", true, published)
	require.NoError(t, err)

	cand := testutil.AddTestCandidate(t, f.db, ongoing, "Alice")
	testutil.AddTestCandidate(t, f.db, ongoing, "Bob")
	testutil.AddTestEligible(t, f.db, ongoing, "R21AB001", "R21AB002", "R21AB003")
	testutil.CastTestVotes(t, f.db, ongoing, cand, 1)

	details, err := f.svc.Details(ctx, ongoing)
	require.NoError(t, err)
	assert.Equal(t, models.ElectionStats{TotalCandidates: 2, TotalVotes: 1, EligibleCount: 3}, details.Stats)

	all, err := f.svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 4)
	for _, s := range all {
		if s.ID == ongoing {
			assert.Equal(t, 2, s.CandidateCount)
			assert.Equal(t, 3, s.EligibleCount)
		}
	}

	active, err := f.svc.ListActive(ctx)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, ongoing, active[0].ID)

	public, err := f.svc.ListPublic(ctx)
	require.NoError(t, err)
	require.Len(t, public, 1)
	assert.Equal(t, published, public[0].ID)

	b, err := f.svc.Ballot(ctx, ongoing)
	require.NoError(t, err)
	assert.Len(t, b.Candidates, 2)

	_, err = f.svc.Ballot(ctx, draft.ID)
	assert.True(t, apperr.Is(err, apperr.KindConflict))
	_, err = f.svc.Ballot(ctx, closed)
	assert.True(t, apperr.Is(err, apperr.KindConflict))
}
