// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package election

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/danielhkuo/quickly-elect/apperr"
	"github.com/danielhkuo/quickly-elect/auth"
	"github.com/danielhkuo/quickly-elect/models"
)

// lockDraft touches the election row inside tx, guarded on draft status.
// The row stays locked until the transaction ends, so a concurrent
// schedule cannot slip in between the check and the candidate write.
func (s *Service) lockDraft(ctx context.Context, tx *sql.Tx, electionID string, check func(models.Election) error) error {
	res, err := tx.ExecContext(ctx,
		"UPDATE election SET updated_at = $1 WHERE id = $2 AND status = $3",
		s.clock.Now(), electionID, string(models.StatusDraft),
	)
	if err != nil {
		return apperr.Wrap(fmt.Errorf("lock election %s: %w", electionID, err), "Failed to update candidates")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return apperr.Wrap(err, "Failed to update candidates")
	}
	if n == 1 {
		return nil
	}

	e, err := Load(ctx, tx, electionID)
	if err != nil {
		return err
	}
	if err := check(e); err != nil {
		return err
	}
	return apperr.Conflict("Election changed while the request was processed, please retry")
}

// CreateCandidate adds a candidate to a draft election
func (s *Service) CreateCandidate(ctx context.Context, electionID string, req models.CreateCandidateRequest) (models.Candidate, error) {
	name := strings.TrimSpace(req.DisplayName)
	if name == "" {
		return models.Candidate{}, apperr.Invalid("displayName is required")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return models.Candidate{}, apperr.Wrap(err, "Failed to create candidate")
	}
	defer tx.Rollback()

	if err := s.lockDraft(ctx, tx, electionID, CanAddCandidate); err != nil {
		return models.Candidate{}, err
	}

	now := s.clock.Now()
	c := models.Candidate{
		ID:          auth.NewID(),
		ElectionID:  electionID,
		DisplayName: name,
		Manifesto:   strings.TrimSpace(req.Manifesto),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if req.PhotoURL != nil && strings.TrimSpace(*req.PhotoURL) != "" {
		photo := strings.TrimSpace(*req.PhotoURL)
		c.PhotoURL = &photo
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO candidate (id, election_id, display_name, manifesto, photo_url, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $6)
	`, c.ID, c.ElectionID, c.DisplayName, c.Manifesto, c.PhotoURL, now)
	if err != nil {
		return models.Candidate{}, apperr.Wrap(fmt.Errorf("insert candidate: %w", err), "Failed to create candidate")
	}

	if err := tx.Commit(); err != nil {
		return models.Candidate{}, apperr.Wrap(err, "Failed to create candidate")
	}

	slog.Info("candidate created", "election_id", electionID, "candidate_id", c.ID)
	return c, nil
}

// DeleteCandidate removes a candidate with no votes from a draft election.
// The vote count is checked first so the error reports it.
func (s *Service) DeleteCandidate(ctx context.Context, candidateID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return apperr.Wrap(err, "Failed to delete candidate")
	}
	defer tx.Rollback()

	var electionID string
	err = tx.QueryRowContext(ctx, "SELECT election_id FROM candidate WHERE id = $1", candidateID).Scan(&electionID)
	if errors.Is(err, sql.ErrNoRows) {
		return apperr.NotFound("Candidate not found")
	}
	if err != nil {
		return apperr.Wrap(err, "Failed to delete candidate")
	}

	var votes int
	if err := tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM vote WHERE candidate_id = $1", candidateID).Scan(&votes); err != nil {
		return apperr.Wrap(err, "Failed to delete candidate")
	}
	if votes > 0 {
		return apperr.Conflict("Cannot delete candidate: %d vote(s) already recorded", votes)
	}

	if err := s.lockDraft(ctx, tx, electionID, CanDeleteCandidate); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM candidate WHERE id = $1", candidateID); err != nil {
		return apperr.Wrap(fmt.Errorf("delete candidate: %w", err), "Failed to delete candidate")
	}

	if err := tx.Commit(); err != nil {
		return apperr.Wrap(err, "Failed to delete candidate")
	}

	slog.Info("candidate deleted", "election_id", electionID, "candidate_id", candidateID)
	return nil
}

// ListCandidates returns an election's candidates in creation order
func (s *Service) ListCandidates(ctx context.Context, electionID string) ([]models.Candidate, error) {
	if _, err := s.Get(ctx, electionID); err != nil {
		return nil, err
	}
	return s.candidates(ctx, electionID)
}

func (s *Service) candidates(ctx context.Context, electionID string) ([]models.Candidate, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+candidateColumns+" FROM candidate WHERE election_id = $1 ORDER BY created_at, id",
		electionID,
	)
	if err != nil {
		return nil, apperr.Wrap(err, "Failed to load candidates")
	}
	defer rows.Close()

	candidates := []models.Candidate{}
	for rows.Next() {
		c, err := scanCandidate(rows)
		if err != nil {
			return nil, apperr.Wrap(err, "Failed to load candidates")
		}
		candidates = append(candidates, c)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Wrap(err, "Failed to load candidates")
	}
	return candidates, nil
}

// CandidateInElection reports whether candidateID belongs to electionID
func CandidateInElection(ctx context.Context, q Querier, electionID, candidateID string) (bool, error) {
	var one int
	err := q.QueryRowContext(ctx,
		"SELECT 1 FROM candidate WHERE id = $1 AND election_id = $2",
		candidateID, electionID,
	).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to look up candidate: %w", err)
	}
	return true, nil
}
