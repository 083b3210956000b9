// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package election

import (
	"context"
	"database/sql"

	"github.com/danielhkuo/quickly-elect/apperr"
	"github.com/danielhkuo/quickly-elect/models"
)

func (s *Service) queryElections(ctx context.Context, query string, args ...any) ([]models.Election, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperr.Wrap(err, "Failed to load elections")
	}
	defer rows.Close()

	elections := []models.Election{}
	for rows.Next() {
		e, err := scanElection(rows)
		if err != nil {
			return nil, apperr.Wrap(err, "Failed to load elections")
		}
		elections = append(elections, e)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Wrap(err, "Failed to load elections")
	}
	return elections, nil
}

// List returns every election, newest first, with candidate and roster counts
func (s *Service) List(ctx context.Context) ([]models.ElectionSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+electionColumns+`,
			(SELECT COUNT(*) FROM candidate c WHERE c.election_id = election.id),
			(SELECT COUNT(*) FROM eligible_voter v WHERE v.election_id = election.id)
		FROM election
		ORDER BY created_at DESC, id
	`)
	if err != nil {
		return nil, apperr.Wrap(err, "Failed to load elections")
	}
	defer rows.Close()

	summaries := []models.ElectionSummary{}
	for rows.Next() {
		var sum models.ElectionSummary
		e, err := scanElection(rows, &sum.CandidateCount, &sum.EligibleCount)
		if err != nil {
			return nil, apperr.Wrap(err, "Failed to load elections")
		}
		sum.Election = e
		summaries = append(summaries, sum)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Wrap(err, "Failed to load elections")
	}
	return summaries, nil
}

// ListActive returns scheduled and ongoing elections that have not ended
func (s *Service) ListActive(ctx context.Context) ([]models.Election, error) {
	return s.queryElections(ctx, `
		SELECT `+electionColumns+` FROM election
		WHERE status IN ($1, $2) AND end_time > $3
		ORDER BY start_time, id
	`, string(models.StatusScheduled), string(models.StatusOngoing), s.clock.Now())
}

// ListPublic returns closed elections whose results are published
func (s *Service) ListPublic(ctx context.Context) ([]models.Election, error) {
	return s.queryElections(ctx, `
		SELECT `+electionColumns+` FROM election
		WHERE status = $1 AND public_results = $2
		ORDER BY end_time DESC, id
	`, string(models.StatusClosed), true)
}

// Details returns an election with its candidates and counts
func (s *Service) Details(ctx context.Context, id string) (models.ElectionDetails, error) {
	e, err := s.Get(ctx, id)
	if err != nil {
		return models.ElectionDetails{}, err
	}
	candidates, err := s.candidates(ctx, id)
	if err != nil {
		return models.ElectionDetails{}, err
	}

	var stats models.ElectionStats
	stats.TotalCandidates = len(candidates)
	err = s.db.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM vote WHERE election_id = $1),
			(SELECT COUNT(*) FROM eligible_voter WHERE election_id = $1)
	`, id).Scan(&stats.TotalVotes, &stats.EligibleCount)
	if err != nil && err != sql.ErrNoRows {
		return models.ElectionDetails{}, apperr.Wrap(err, "Failed to load election stats")
	}

	return models.ElectionDetails{Election: e, Candidates: candidates, Stats: stats}, nil
}

// Ballot returns an ongoing election and the candidates to choose from
func (s *Service) Ballot(ctx context.Context, id string) (models.Ballot, error) {
	e, err := s.Get(ctx, id)
	if err != nil {
		return models.Ballot{}, err
	}
	if err := CanVote(e); err != nil {
		return models.Ballot{}, err
	}
	candidates, err := s.candidates(ctx, id)
	if err != nil {
		return models.Ballot{}, err
	}
	return models.Ballot{Election: e, Candidates: candidates}, nil
}
