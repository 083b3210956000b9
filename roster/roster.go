// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package roster

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/danielhkuo/quickly-elect/apperr"
	"github.com/danielhkuo/quickly-elect/clock"
	"github.com/danielhkuo/quickly-elect/models"
)

// Service owns the eligible_voter table
type Service struct {
	db    *sql.DB
	clock clock.Clock
}

func NewService(db *sql.DB, clk clock.Clock) *Service {
	return &Service{db: db, clock: clock.OrSystem(clk)}
}

// Replace supersedes the roster of an election with the parsed lines.
// The delete and the inserts share one transaction, so a failed insert
// leaves the previous roster in place.
func (s *Service) Replace(ctx context.Context, electionID, addedBy string, lines []string) (models.RosterSummary, error) {
	parsed := ParseLines(lines)
	summary := parsed.Summary
	if len(parsed.Entries) == 0 {
		return summary, apperr.Invalid("No valid SRNs found in upload")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return summary, apperr.Wrap(err, "Failed to update roster")
	}
	defer tx.Rollback()

	var status string
	err = tx.QueryRowContext(ctx, "SELECT status FROM election WHERE id = $1", electionID).Scan(&status)
	if errors.Is(err, sql.ErrNoRows) {
		return summary, apperr.NotFound("Election not found")
	}
	if err != nil {
		return summary, apperr.Wrap(err, "Failed to update roster")
	}
	if models.ElectionStatus(status) == models.StatusClosed {
		return summary, apperr.Conflict("Cannot change the roster of a closed election")
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM eligible_voter WHERE election_id = $1", electionID); err != nil {
		return summary, apperr.Wrap(fmt.Errorf("delete roster: %w", err), "Failed to update roster")
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO eligible_voter (election_id, srn, name, email, note, added_by, added_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`)
	if err != nil {
		return summary, apperr.Wrap(err, "Failed to update roster")
	}
	defer stmt.Close()

	now := s.clock.Now()
	for _, e := range parsed.Entries {
		if _, err := stmt.ExecContext(ctx, electionID, e.SRN, e.Name, e.Email, e.Note, addedBy, now); err != nil {
			return summary, apperr.Wrap(fmt.Errorf("insert %s: %w", e.SRN, err), "Failed to update roster")
		}
		summary.Inserted++
	}

	if err := tx.Commit(); err != nil {
		return summary, apperr.Wrap(err, "Failed to update roster")
	}

	slog.Info("roster replaced",
		"election_id", electionID,
		"total_lines", summary.TotalLines,
		"unique_srns", summary.UniqueSRNs,
		"invalid_lines", summary.InvalidLines,
		"duplicates_removed", summary.DuplicatesRemoved,
	)

	return summary, nil
}

// IsEligible reports whether srn is on the election's roster
func (s *Service) IsEligible(ctx context.Context, electionID, srn string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx,
		"SELECT 1 FROM eligible_voter WHERE election_id = $1 AND srn = $2",
		electionID, NormalizeSRN(srn),
	).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check roster: %w", err)
	}
	return true, nil
}

// List returns the roster ordered by SRN
func (s *Service) List(ctx context.Context, electionID string) ([]models.EligibleVoter, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT election_id, srn, name, email, note, added_by, added_at
		FROM eligible_voter
		WHERE election_id = $1
		ORDER BY srn
	`, electionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list roster: %w", err)
	}
	defer rows.Close()

	voters := []models.EligibleVoter{}
	for rows.Next() {
		var v models.EligibleVoter
		if err := rows.Scan(&v.ElectionID, &v.SRN, &v.Name, &v.Email, &v.Note, &v.AddedBy, &v.AddedAt); err != nil {
			return nil, fmt.Errorf("failed to scan roster row: %w", err)
		}
		voters = append(voters, v)
	}
	return voters, rows.Err()
}
