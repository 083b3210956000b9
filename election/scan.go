// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package election

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/danielhkuo/quickly-elect/apperr"
	"github.com/danielhkuo/quickly-elect/models"
)

const electionColumns = `id, title, position_name, description, status, start_time, end_time,
	started_at, closed_at, public_results, created_by, created_at, updated_at`

const candidateColumns = `id, election_id, display_name, manifesto, photo_url, created_at, updated_at`

// Querier is satisfied by *sql.DB and *sql.Tx
type Querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanElection(row rowScanner, extra ...any) (models.Election, error) {
	var e models.Election
	var status string
	var startedAt, closedAt sql.NullTime

	dest := []any{
		&e.ID, &e.Title, &e.PositionName, &e.Description, &status, &e.StartTime, &e.EndTime,
		&startedAt, &closedAt, &e.PublicResults, &e.CreatedBy, &e.CreatedAt, &e.UpdatedAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return models.Election{}, err
	}

	e.Status = models.ElectionStatus(status)
	if startedAt.Valid {
		t := startedAt.Time.UTC()
		e.StartedAt = &t
	}
	if closedAt.Valid {
		t := closedAt.Time.UTC()
		e.ClosedAt = &t
	}
	e.StartTime = e.StartTime.UTC()
	e.EndTime = e.EndTime.UTC()
	return e, nil
}

func scanCandidate(row rowScanner) (models.Candidate, error) {
	var c models.Candidate
	var photo sql.NullString
	if err := row.Scan(&c.ID, &c.ElectionID, &c.DisplayName, &c.Manifesto, &photo, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return models.Candidate{}, err
	}
	if photo.Valid {
		c.PhotoURL = &photo.String
	}
	return c, nil
}

// Load reads one election through q, returning a NotFound error when missing
func Load(ctx context.Context, q Querier, id string) (models.Election, error) {
	row := q.QueryRowContext(ctx, "SELECT "+electionColumns+" FROM election WHERE id = $1", id)
	e, err := scanElection(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Election{}, apperr.NotFound("Election not found")
	}
	if err != nil {
		return models.Election{}, apperr.Wrap(fmt.Errorf("load election %s: %w", id, err), "Failed to load election")
	}
	return e, nil
}
