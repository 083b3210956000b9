// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package election

import (
	"time"

	"github.com/danielhkuo/quickly-elect/apperr"
	"github.com/danielhkuo/quickly-elect/models"
)

// StartGrace is how far in the past a new start time may be
const StartGrace = time.Minute

// ValidateWindow checks a proposed start and end time
func ValidateWindow(start, end, now time.Time) error {
	if start.Before(now.Add(-StartGrace)) {
		return apperr.Unprocessable("Start time cannot be in the past")
	}
	if !start.Before(end) {
		return apperr.Unprocessable("Start time must be before end time")
	}
	return nil
}

func CanEdit(e models.Election) error {
	if e.Status != models.StatusDraft {
		return apperr.Conflict("Only draft elections can be edited (current status: %s)", e.Status)
	}
	return nil
}

func CanSchedule(e models.Election, now time.Time) error {
	if e.Status != models.StatusDraft {
		return apperr.Conflict("Only draft elections can be scheduled (current status: %s)", e.Status)
	}
	if e.StartTime.IsZero() || e.EndTime.IsZero() {
		return apperr.Unprocessable("Start and end time must be set before scheduling")
	}
	if !e.StartTime.After(now) {
		return apperr.Unprocessable("Start time must be in the future to schedule")
	}
	if !e.EndTime.After(e.StartTime) {
		return apperr.Unprocessable("End time must be after start time")
	}
	return nil
}

// CanForceStart only accepts scheduled elections
func CanForceStart(e models.Election, now time.Time) error {
	if e.Status != models.StatusScheduled {
		return apperr.Conflict("Election must be scheduled before it can be started (current status: %s)", e.Status)
	}
	if !e.EndTime.After(now) {
		return apperr.Unprocessable("Cannot start election because endTime has already passed")
	}
	return nil
}

func CanForceClose(e models.Election) error {
	if e.Status == models.StatusClosed {
		return apperr.Conflict("Election is already closed")
	}
	return nil
}

func CanPublish(e models.Election) error {
	if e.Status != models.StatusClosed {
		return apperr.Conflict("Results can only be published after the election is closed (current status: %s)", e.Status)
	}
	if e.PublicResults {
		return apperr.Conflict("Results are already published")
	}
	return nil
}

// CanAddCandidate allows changes to the candidate list only in draft
func CanAddCandidate(e models.Election) error {
	if e.Status != models.StatusDraft {
		return apperr.Conflict("Candidates can only be added while the election is in draft (current status: %s)", e.Status)
	}
	return nil
}

func CanDeleteCandidate(e models.Election) error {
	if e.Status != models.StatusDraft {
		return apperr.Conflict("Candidates can only be removed while the election is in draft (current status: %s)", e.Status)
	}
	return nil
}

// CanVote requires an ongoing election
func CanVote(e models.Election) error {
	if e.Status != models.StatusOngoing {
		return apperr.Conflict("Election is not open for voting (current status: %s)", e.Status)
	}
	return nil
}
