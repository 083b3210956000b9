// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package ballot

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/danielhkuo/quickly-elect/apperr"
	"github.com/danielhkuo/quickly-elect/auth"
	"github.com/danielhkuo/quickly-elect/clock"
	"github.com/danielhkuo/quickly-elect/db"
	"github.com/danielhkuo/quickly-elect/election"
	"github.com/danielhkuo/quickly-elect/events"
	"github.com/danielhkuo/quickly-elect/models"
)

// Eligibility answers roster lookups
type Eligibility interface {
	IsEligible(ctx context.Context, electionID, srn string) (bool, error)
}

// Box records votes. The vote table's UNIQUE (election_id, voter_id) is
// what keeps a voter to one vote; the lookups before the insert only
// produce friendlier errors.
type Box struct {
	db     *sql.DB
	roster Eligibility
	clock  clock.Clock
	events events.Publisher
}

func NewBox(db *sql.DB, roster Eligibility, clk clock.Clock, pub events.Publisher) *Box {
	return &Box{db: db, roster: roster, clock: clock.OrSystem(clk), events: pub}
}

var errAlreadyVoted = apperr.Duplicate("You have already voted in this election")

// Cast records voterID's vote for candidateID. Checks run in a fixed
// order and the first failure is returned.
func (b *Box) Cast(ctx context.Context, electionID, voterID, candidateID string) (models.Vote, error) {
	// 1. voter account
	var srn string
	err := b.db.QueryRowContext(ctx, "SELECT srn FROM users WHERE id = $1", voterID).Scan(&srn)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Vote{}, apperr.NotFound("User not found")
	}
	if err != nil {
		return models.Vote{}, apperr.Wrap(err, "Failed to cast vote")
	}

	// 2. roster
	eligible, err := b.roster.IsEligible(ctx, electionID, srn)
	if err != nil {
		return models.Vote{}, apperr.Wrap(err, "Failed to cast vote")
	}
	if !eligible {
		return models.Vote{}, apperr.Ineligible("You are not eligible to vote in this election")
	}

	// 3. candidate given
	candidateID = strings.TrimSpace(candidateID)
	if candidateID == "" {
		return models.Vote{}, apperr.Invalid("candidateId is required")
	}

	// 4, 5. election exists and is ongoing
	e, err := election.Load(ctx, b.db, electionID)
	if err != nil {
		return models.Vote{}, err
	}
	if err := election.CanVote(e); err != nil {
		return models.Vote{}, err
	}

	// 6. no earlier vote
	voted, err := b.hasVoted(ctx, electionID, voterID)
	if err != nil {
		return models.Vote{}, apperr.Wrap(err, "Failed to cast vote")
	}
	if voted {
		return models.Vote{}, errAlreadyVoted
	}

	// 7. candidate belongs to the election
	ok, err := election.CandidateInElection(ctx, b.db, electionID, candidateID)
	if err != nil {
		return models.Vote{}, apperr.Wrap(err, "Failed to cast vote")
	}
	if !ok {
		return models.Vote{}, apperr.Invalid("Invalid candidate for this election")
	}

	vote, err := b.insert(ctx, e.ID, voterID, candidateID)
	if err != nil {
		return models.Vote{}, err
	}

	slog.Info("vote cast", "election_id", electionID, "vote_id", vote.ID)
	events.Notify(ctx, b.events, events.Envelope{
		Event:      events.VoteCast,
		ElectionID: electionID,
		OccurredAt: vote.CastAt,
	})
	return vote, nil
}

// insert writes the vote in a transaction that first touches the election
// row guarded on ongoing. A close that lands between the checks above and
// this write makes the guard match nothing instead of admitting a late vote.
func (b *Box) insert(ctx context.Context, electionID, voterID, candidateID string) (models.Vote, error) {
	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return models.Vote{}, apperr.Wrap(err, "Failed to cast vote")
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		"UPDATE election SET updated_at = updated_at WHERE id = $1 AND status = $2",
		electionID, string(models.StatusOngoing),
	)
	if err != nil {
		return models.Vote{}, apperr.Wrap(fmt.Errorf("lock election: %w", err), "Failed to cast vote")
	}
	if n, err := res.RowsAffected(); err != nil || n != 1 {
		e, loadErr := election.Load(ctx, tx, electionID)
		if loadErr != nil {
			return models.Vote{}, loadErr
		}
		if err := election.CanVote(e); err != nil {
			return models.Vote{}, err
		}
		return models.Vote{}, apperr.Conflict("Election changed while the vote was processed, please retry")
	}

	// positionName is copied from the election row as it is right now
	var position string
	if err := tx.QueryRowContext(ctx, "SELECT position_name FROM election WHERE id = $1", electionID).Scan(&position); err != nil {
		return models.Vote{}, apperr.Wrap(err, "Failed to cast vote")
	}

	v := models.Vote{
		ID:           auth.NewID(),
		ElectionID:   electionID,
		PositionName: position,
		CandidateID:  candidateID,
		VoterID:      voterID,
		CastAt:       b.clock.Now(),
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO vote (id, election_id, position_name, candidate_id, voter_id, cast_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, v.ID, v.ElectionID, v.PositionName, v.CandidateID, v.VoterID, v.CastAt)
	if db.IsUniqueViolation(err) {
		return models.Vote{}, errAlreadyVoted
	}
	if err != nil {
		return models.Vote{}, apperr.Wrap(fmt.Errorf("insert vote: %w", err), "Failed to cast vote")
	}

	if err := tx.Commit(); err != nil {
		if db.IsUniqueViolation(err) {
			return models.Vote{}, errAlreadyVoted
		}
		return models.Vote{}, apperr.Wrap(err, "Failed to cast vote")
	}
	return v, nil
}

func (b *Box) hasVoted(ctx context.Context, electionID, voterID string) (bool, error) {
	var one int
	err := b.db.QueryRowContext(ctx,
		"SELECT 1 FROM vote WHERE election_id = $1 AND voter_id = $2",
		electionID, voterID,
	).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to look up vote: %w", err)
	}
	return true, nil
}

// Status reports whether voterID has voted in the election, without
// revealing the choice
func (b *Box) Status(ctx context.Context, electionID, voterID string) (models.VoteStatus, error) {
	if _, err := election.Load(ctx, b.db, electionID); err != nil {
		return models.VoteStatus{}, err
	}

	status := models.VoteStatus{ElectionID: electionID}
	var castAt sql.NullTime
	err := b.db.QueryRowContext(ctx,
		"SELECT cast_at FROM vote WHERE election_id = $1 AND voter_id = $2",
		electionID, voterID,
	).Scan(&castAt)
	if errors.Is(err, sql.ErrNoRows) {
		return status, nil
	}
	if err != nil {
		return models.VoteStatus{}, apperr.Wrap(err, "Failed to load vote status")
	}

	status.HasVoted = true
	if castAt.Valid {
		t := castAt.Time.UTC()
		status.CastAt = &t
	}
	return status, nil
}
