// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package tally

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/danielhkuo/quickly-elect/apperr"
	"github.com/danielhkuo/quickly-elect/clock"
	"github.com/danielhkuo/quickly-elect/election"
	"github.com/danielhkuo/quickly-elect/models"
)

// Audience decides which elections a caller may see results for
type Audience int

const (
	// AudiencePublic needs the election closed and its results published
	AudiencePublic Audience = iota
	// AudienceAdmin needs the election closed
	AudienceAdmin
)

// Service computes results from the vote ledger. Results are cached per
// election once it is closed, since no vote can be added after that.
type Service struct {
	db    *sql.DB
	clock clock.Clock
	cache *gocache.Cache
}

// NewService caches results for ttl; ttl <= 0 disables the cache
func NewService(db *sql.DB, clk clock.Clock, ttl time.Duration) *Service {
	s := &Service{db: db, clock: clock.OrSystem(clk)}
	if ttl > 0 {
		s.cache = gocache.New(ttl, 2*ttl)
	}
	return s
}

// Results returns the tally for an election if the audience may see it
func (s *Service) Results(ctx context.Context, electionID string, audience Audience) (models.Results, error) {
	e, err := election.Load(ctx, s.db, electionID)
	if err != nil {
		return models.Results{}, err
	}
	if e.Status != models.StatusClosed {
		return models.Results{}, apperr.Conflict("Results are available only after the election closes (current status: %s)", e.Status)
	}
	if audience == AudiencePublic && !e.PublicResults {
		return models.Results{}, apperr.Forbidden("Results have not been published yet")
	}

	if s.cache != nil {
		if cached, ok := s.cache.Get(electionID); ok {
			return cached.(models.Results), nil
		}
	}

	res, err := s.compute(ctx, e)
	if err != nil {
		return models.Results{}, err
	}
	if s.cache != nil {
		s.cache.SetDefault(electionID, res)
	}
	return res, nil
}

func (s *Service) compute(ctx context.Context, e models.Election) (models.Results, error) {
	var total int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM vote WHERE election_id = $1", e.ID).Scan(&total); err != nil {
		return models.Results{}, apperr.Wrap(fmt.Errorf("count votes: %w", err), "Failed to compute results")
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT c.id, c.display_name, COUNT(v.id)
		FROM candidate c
		LEFT JOIN vote v ON v.candidate_id = c.id AND v.election_id = c.election_id
		WHERE c.election_id = $1
		GROUP BY c.id, c.display_name
	`, e.ID)
	if err != nil {
		return models.Results{}, apperr.Wrap(fmt.Errorf("group votes: %w", err), "Failed to compute results")
	}
	defer rows.Close()

	var counts []Count
	for rows.Next() {
		var c Count
		if err := rows.Scan(&c.CandidateID, &c.DisplayName, &c.Votes); err != nil {
			return models.Results{}, apperr.Wrap(err, "Failed to compute results")
		}
		counts = append(counts, c)
	}
	if err := rows.Err(); err != nil {
		return models.Results{}, apperr.Wrap(err, "Failed to compute results")
	}

	out := Compute(total, counts)
	return models.Results{
		ElectionID:   e.ID,
		Title:        e.Title,
		PositionName: e.PositionName,
		TotalVotes:   out.TotalVotes,
		Results:      out.Results,
		Winners:      out.Winners,
		IsTie:        len(out.Winners) > 1,
		ComputedAt:   s.clock.Now(),
	}, nil
}
