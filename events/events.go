// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
)

// Event names, appended to the subject prefix
const (
	ElectionCreated          = "election.created"
	ElectionScheduled        = "election.scheduled"
	ElectionStarted          = "election.started"
	ElectionClosed           = "election.closed"
	ElectionResultsPublished = "election.results_published"
	VoteCast                 = "vote.cast"
	SchedulerTick            = "scheduler.tick"
)

// Envelope is the JSON body of every notification
type Envelope struct {
	Event      string    `json:"event"`
	ElectionID string    `json:"electionId,omitempty"`
	OccurredAt time.Time `json:"occurredAt"`
	Data       any       `json:"data,omitempty"`
}

type Publisher interface {
	Publish(ctx context.Context, env Envelope) error
}

// Notify publishes env and logs a failure instead of returning it.
// Notifications never fail the operation that produced them.
func Notify(ctx context.Context, p Publisher, env Envelope) {
	if p == nil {
		return
	}
	if err := p.Publish(ctx, env); err != nil {
		slog.Warn("event publish failed", "event", env.Event, "election_id", env.ElectionID, "error", err)
	}
}

// NATSPublisher sends core NATS messages on <prefix>.<event>
type NATSPublisher struct {
	conn   *nats.Conn
	prefix string
}

func NewNATSPublisher(conn *nats.Conn, prefix string) *NATSPublisher {
	return &NATSPublisher{conn: conn, prefix: prefix}
}

func (p *NATSPublisher) Subject(event string) string {
	if p.prefix == "" {
		return event
	}
	return p.prefix + "." + event
}

func (p *NATSPublisher) Publish(_ context.Context, env Envelope) error {
	payload, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}
	if err := p.conn.Publish(p.Subject(env.Event), payload); err != nil {
		return fmt.Errorf("failed to publish %s: %w", env.Event, err)
	}
	return nil
}

// Connect dials NATS with the handlers the server relies on.
// onClosed runs when the connection is closed for good.
func Connect(url string, drainTimeout time.Duration, onClosed func()) (*nats.Conn, error) {
	conn, err := nats.Connect(
		url,
		nats.Name("quickly-elect"),
		nats.DrainTimeout(drainTimeout),
		nats.ErrorHandler(func(_ *nats.Conn, s *nats.Subscription, err error) {
			if s != nil {
				slog.Error("async NATS error", "error", err, "subject", s.Subject)
				return
			}
			slog.Error("async NATS error", "error", err)
		}),
		nats.ClosedHandler(func(_ *nats.Conn) {
			if onClosed != nil {
				onClosed()
			}
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	return conn, nil
}

// LogPublisher writes events to a logger. Used when NATS is not configured.
type LogPublisher struct {
	Logger *slog.Logger
}

func (p LogPublisher) Publish(ctx context.Context, env Envelope) error {
	logger := p.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.DebugContext(ctx, "event", "event", env.Event, "election_id", env.ElectionID, "data", env.Data)
	return nil
}

// Recorder keeps published events in memory
type Recorder struct {
	mu     sync.Mutex
	events []Envelope
}

func (r *Recorder) Publish(_ context.Context, env Envelope) error {
	r.mu.Lock()
	r.events = append(r.events, env)
	r.mu.Unlock()
	return nil
}

// Events returns a copy of everything published so far
func (r *Recorder) Events() []Envelope {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Envelope(nil), r.events...)
}

// Names returns the event names in publish order
func (r *Recorder) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, 0, len(r.events))
	for _, e := range r.events {
		names = append(names, e.Event)
	}
	return names
}
