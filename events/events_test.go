// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package events

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type failingPublisher struct{ calls int }

func (f *failingPublisher) Publish(context.Context, Envelope) error {
	f.calls++
	return errors.New("broker down")
}

func TestNotify_SwallowsErrors(t *testing.T) {
	p := &failingPublisher{}
	Notify(context.Background(), p, Envelope{Event: ElectionClosed, ElectionID: "e1", OccurredAt: time.Now()})
	require.Equal(t, 1, p.calls)

	// nil publisher is a no-op
	Notify(context.Background(), nil, Envelope{Event: ElectionClosed})
}

func TestRecorder(t *testing.T) {
	r := &Recorder{}
	Notify(context.Background(), r, Envelope{Event: ElectionCreated, ElectionID: "e1"})
	Notify(context.Background(), r, Envelope{Event: ElectionScheduled, ElectionID: "e1"})

	require.Equal(t, []string{ElectionCreated, ElectionScheduled}, r.Names())
	require.Len(t, r.Events(), 2)
}

func TestNATSPublisher_Subject(t *testing.T) {
	require.Equal(t, "elections.vote.cast", NewNATSPublisher(nil, "elections").Subject(VoteCast))
	require.Equal(t, "vote.cast", NewNATSPublisher(nil, "").Subject(VoteCast))
}

func TestLogPublisher(t *testing.T) {
	require.NoError(t, LogPublisher{}.Publish(context.Background(), Envelope{Event: SchedulerTick}))
}
