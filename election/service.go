// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package election

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	"github.com/danielhkuo/quickly-elect/apperr"
	"github.com/danielhkuo/quickly-elect/auth"
	"github.com/danielhkuo/quickly-elect/clock"
	"github.com/danielhkuo/quickly-elect/events"
	"github.com/danielhkuo/quickly-elect/models"
)

// Service applies lifecycle operations to elections and their candidates.
//
// Every transition is a single UPDATE guarded on the expected status, so
// an admin action racing the scheduler either wins or matches no rows.
type Service struct {
	db     *sql.DB
	clock  clock.Clock
	events events.Publisher
}

func NewService(db *sql.DB, clk clock.Clock, pub events.Publisher) *Service {
	return &Service{db: db, clock: clock.OrSystem(clk), events: pub}
}

func (s *Service) notify(ctx context.Context, event, electionID string, data any) {
	events.Notify(ctx, s.events, events.Envelope{
		Event:      event,
		ElectionID: electionID,
		OccurredAt: s.clock.Now(),
		Data:       data,
	})
}

// Get returns one election
func (s *Service) Get(ctx context.Context, id string) (models.Election, error) {
	return Load(ctx, s.db, id)
}

// Create inserts a draft election owned by createdBy
func (s *Service) Create(ctx context.Context, createdBy string, req models.CreateElectionRequest) (models.Election, error) {
	title := strings.TrimSpace(req.Title)
	position := strings.TrimSpace(req.PositionName)
	if title == "" || position == "" || req.StartTime == nil || req.EndTime == nil {
		return models.Election{}, apperr.Invalid("title, positionName, startTime and endTime are required")
	}

	now := s.clock.Now()
	start, end := clock.Normalize(*req.StartTime), clock.Normalize(*req.EndTime)
	if err := ValidateWindow(start, end, now); err != nil {
		return models.Election{}, err
	}

	e := models.Election{
		ID:           auth.NewID(),
		Title:        title,
		PositionName: position,
		Description:  strings.TrimSpace(req.Description),
		Status:       models.StatusDraft,
		StartTime:    start,
		EndTime:      end,
		CreatedBy:    createdBy,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO election (id, title, position_name, description, status, start_time, end_time,
			public_results, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $10)
	`, e.ID, e.Title, e.PositionName, e.Description, string(e.Status), e.StartTime, e.EndTime, false, e.CreatedBy, now)
	if err != nil {
		return models.Election{}, apperr.Wrap(fmt.Errorf("insert election: %w", err), "Failed to create election")
	}

	slog.Info("election created", "election_id", e.ID, "created_by", createdBy)
	s.notify(ctx, events.ElectionCreated, e.ID, nil)
	return e, nil
}

// Update edits a draft election. Nil request fields are left unchanged.
func (s *Service) Update(ctx context.Context, id string, req models.UpdateElectionRequest) (models.Election, error) {
	e, err := s.Get(ctx, id)
	if err != nil {
		return models.Election{}, err
	}
	if err := CanEdit(e); err != nil {
		return models.Election{}, err
	}

	if req.Title != nil {
		if e.Title = strings.TrimSpace(*req.Title); e.Title == "" {
			return models.Election{}, apperr.Invalid("title cannot be empty")
		}
	}
	if req.PositionName != nil {
		if e.PositionName = strings.TrimSpace(*req.PositionName); e.PositionName == "" {
			return models.Election{}, apperr.Invalid("positionName cannot be empty")
		}
	}
	if req.Description != nil {
		e.Description = strings.TrimSpace(*req.Description)
	}

	now := s.clock.Now()
	if req.StartTime != nil || req.EndTime != nil {
		if req.StartTime != nil {
			e.StartTime = clock.Normalize(*req.StartTime)
		}
		if req.EndTime != nil {
			e.EndTime = clock.Normalize(*req.EndTime)
		}
		if err := ValidateWindow(e.StartTime, e.EndTime, now); err != nil {
			return models.Election{}, err
		}
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE election
		SET title = $1, position_name = $2, description = $3, start_time = $4, end_time = $5, updated_at = $6
		WHERE id = $7 AND status = $8
	`, e.Title, e.PositionName, e.Description, e.StartTime, e.EndTime, now, id, string(models.StatusDraft))
	if err := s.expectOne(ctx, id, res, err, CanEdit); err != nil {
		return models.Election{}, err
	}

	e.UpdatedAt = now
	slog.Info("election updated", "election_id", id)
	return e, nil
}

// Schedule moves a draft election to scheduled
func (s *Service) Schedule(ctx context.Context, id string) (models.Election, error) {
	e, err := s.Get(ctx, id)
	if err != nil {
		return models.Election{}, err
	}
	now := s.clock.Now()
	if err := CanSchedule(e, now); err != nil {
		return models.Election{}, err
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE election SET status = $1, updated_at = $2
		WHERE id = $3 AND status = $4 AND start_time > $2 AND end_time > start_time
	`, string(models.StatusScheduled), now, id, string(models.StatusDraft))
	if err := s.expectOne(ctx, id, res, err, func(e models.Election) error { return CanSchedule(e, now) }); err != nil {
		return models.Election{}, err
	}

	slog.Info("election scheduled", "election_id", id, "start_time", e.StartTime)
	s.notify(ctx, events.ElectionScheduled, id, nil)
	return s.Get(ctx, id)
}

// ForceStart opens a scheduled election now. startTime is overwritten with
// the actual start.
func (s *Service) ForceStart(ctx context.Context, id string) (models.Election, error) {
	e, err := s.Get(ctx, id)
	if err != nil {
		return models.Election{}, err
	}
	now := s.clock.Now()
	if err := CanForceStart(e, now); err != nil {
		return models.Election{}, err
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE election SET status = $1, start_time = $2, started_at = $2, updated_at = $2
		WHERE id = $3 AND status = $4 AND end_time > $2 AND started_at IS NULL
	`, string(models.StatusOngoing), now, id, string(models.StatusScheduled))
	if err := s.expectOne(ctx, id, res, err, func(e models.Election) error { return CanForceStart(e, now) }); err != nil {
		return models.Election{}, err
	}

	slog.Info("election force-started", "election_id", id)
	s.notify(ctx, events.ElectionStarted, id, map[string]any{"forced": true})
	return s.Get(ctx, id)
}

// ForceClose closes any non-closed election now. closedAt is only filled
// if still null, and endTime is pulled in only when the election had
// already started, so startTime < endTime keeps holding.
func (s *Service) ForceClose(ctx context.Context, id string) (models.Election, error) {
	e, err := s.Get(ctx, id)
	if err != nil {
		return models.Election{}, err
	}
	if err := CanForceClose(e); err != nil {
		return models.Election{}, err
	}

	now := s.clock.Now()
	res, err := s.db.ExecContext(ctx, `
		UPDATE election
		SET status = $1,
			end_time = CASE WHEN start_time < $2 THEN $2 ELSE end_time END,
			closed_at = COALESCE(closed_at, $2),
			updated_at = $2
		WHERE id = $3 AND status <> $1
	`, string(models.StatusClosed), now, id)
	if err := s.expectOne(ctx, id, res, err, CanForceClose); err != nil {
		return models.Election{}, err
	}

	slog.Info("election force-closed", "election_id", id, "previous_status", e.Status)
	s.notify(ctx, events.ElectionClosed, id, map[string]any{"forced": true})
	return s.Get(ctx, id)
}

// PublishResults makes the results of a closed election public
func (s *Service) PublishResults(ctx context.Context, id string) (models.Election, error) {
	e, err := s.Get(ctx, id)
	if err != nil {
		return models.Election{}, err
	}
	if err := CanPublish(e); err != nil {
		return models.Election{}, err
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE election SET public_results = $1, updated_at = $2
		WHERE id = $3 AND status = $4 AND public_results = $5
	`, true, s.clock.Now(), id, string(models.StatusClosed), false)
	if err := s.expectOne(ctx, id, res, err, CanPublish); err != nil {
		return models.Election{}, err
	}

	slog.Info("election results published", "election_id", id)
	s.notify(ctx, events.ElectionResultsPublished, id, nil)
	return s.Get(ctx, id)
}

// expectOne checks a guarded UPDATE. When no row matched, the election is
// reloaded and check is rerun to report why.
func (s *Service) expectOne(ctx context.Context, id string, res sql.Result, execErr error, check func(models.Election) error) error {
	if execErr != nil {
		return apperr.Wrap(fmt.Errorf("update election %s: %w", id, execErr), "Failed to update election")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return apperr.Wrap(err, "Failed to update election")
	}
	if n == 1 {
		return nil
	}

	current, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := check(current); err != nil {
		return err
	}
	return apperr.Conflict("Election changed while the request was processed, please retry")
}
