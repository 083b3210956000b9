// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package scheduler

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/danielhkuo/quickly-elect/clock"
	"github.com/danielhkuo/quickly-elect/events"
	"github.com/danielhkuo/quickly-elect/models"
)

// DefaultInterval between ticks
const DefaultInterval = 10 * time.Second

// TickResult counts the rows each step of a tick changed
type TickResult struct {
	Started       int64 `json:"started"`
	StartedAtFill int64 `json:"startedAtFilled"`
	Closed        int64 `json:"closed"`
	ClosedAtFill  int64 `json:"closedAtFilled"`
}

// Changed reports whether the tick touched any election
func (r TickResult) Changed() bool {
	return r.Started+r.StartedAtFill+r.Closed+r.ClosedAtFill > 0
}

// Daemon moves elections along their lifecycle as wall-clock time passes
type Daemon struct {
	DB       *sql.DB
	Clock    clock.Clock
	Interval time.Duration
	Logger   *slog.Logger
	Events   events.Publisher
}

func (d *Daemon) logger() *slog.Logger {
	if d.Logger != nil {
		return d.Logger
	}
	return slog.Default()
}

type step struct {
	name  string
	query string
	args  func(now time.Time) []any
	count *int64
}

// Tick runs one pass. Each step is a single bulk UPDATE guarded on status,
// so it is safe to run concurrently with admin transitions. A failing step
// does not stop the later ones; their errors are joined.
func (d *Daemon) Tick(ctx context.Context) (TickResult, error) {
	now := clock.OrSystem(d.Clock).Now()
	var result TickResult

	steps := []step{
		{
			name: "auto_start",
			query: `UPDATE election SET status = $1, updated_at = $2
				WHERE status IN ($3, $4) AND start_time <= $2 AND end_time > $2`,
			args: func(now time.Time) []any {
				return []any{string(models.StatusOngoing), now, string(models.StatusDraft), string(models.StatusScheduled)}
			},
			count: &result.Started,
		},
		{
			name:  "fill_started_at",
			query: `UPDATE election SET started_at = start_time WHERE status = $1 AND started_at IS NULL`,
			args: func(time.Time) []any {
				return []any{string(models.StatusOngoing)}
			},
			count: &result.StartedAtFill,
		},
		{
			name: "auto_close",
			query: `UPDATE election SET status = $1, updated_at = $2
				WHERE status <> $1 AND end_time <= $2`,
			args: func(now time.Time) []any {
				return []any{string(models.StatusClosed), now}
			},
			count: &result.Closed,
		},
		{
			name:  "fill_closed_at",
			query: `UPDATE election SET closed_at = end_time WHERE status = $1 AND closed_at IS NULL`,
			args: func(time.Time) []any {
				return []any{string(models.StatusClosed)}
			},
			count: &result.ClosedAtFill,
		},
	}

	var errs []error
	for _, st := range steps {
		res, err := d.DB.ExecContext(ctx, st.query, st.args(now)...)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", st.name, err))
			continue
		}
		n, err := res.RowsAffected()
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", st.name, err))
			continue
		}
		*st.count = n
	}

	if result.Changed() {
		d.logger().Info("scheduler tick applied",
			"event", "scheduler_tick",
			"layer", "worker",
			"started", result.Started,
			"started_at_filled", result.StartedAtFill,
			"closed", result.Closed,
			"closed_at_filled", result.ClosedAtFill,
		)
		events.Notify(ctx, d.Events, events.Envelope{
			Event:      events.SchedulerTick,
			OccurredAt: now,
			Data:       result,
		})
	}

	return result, errors.Join(errs...)
}

// Run ticks immediately and then every Interval until ctx is done. Tick
// errors are logged and never end the loop.
func (d *Daemon) Run(ctx context.Context) {
	interval := d.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	d.logger().Info("scheduler started",
		"event", "scheduler_started",
		"layer", "worker",
		"interval", interval.String(),
	)

	for {
		if _, err := d.Tick(ctx); err != nil && ctx.Err() == nil {
			d.logger().Error("scheduler tick failed",
				"event", "scheduler_tick_failed",
				"layer", "worker",
				"error", err.Error(),
			)
		}
		select {
		case <-ctx.Done():
			d.logger().Info("scheduler stopped", "event", "scheduler_stopped", "layer", "worker")
			return
		case <-ticker.C:
		}
	}
}
