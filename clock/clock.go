// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package clock provides the time source used by the lifecycle code.
//
// All times leave a Clock in UTC truncated to microseconds, which is what
// both Postgres and the SQLite driver store without loss.
package clock

import (
	"sync"
	"time"
)

type Clock interface {
	Now() time.Time
}

// Normalize converts t to the stored representation.
func Normalize(t time.Time) time.Time {
	return t.UTC().Truncate(time.Microsecond)
}

type System struct{}

func (System) Now() time.Time {
	return Normalize(time.Now())
}

// Manual is a clock that only moves when told to. Safe for concurrent use.
type Manual struct {
	mu  sync.Mutex
	now time.Time
}

func NewManual(start time.Time) *Manual {
	return &Manual{now: Normalize(start)}
}

func (m *Manual) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

func (m *Manual) Set(t time.Time) {
	m.mu.Lock()
	m.now = Normalize(t)
	m.mu.Unlock()
}

func (m *Manual) Advance(d time.Duration) time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = m.now.Add(d)
	return m.now
}

// OrSystem returns c, or the system clock when c is nil.
func OrSystem(c Clock) Clock {
	if c == nil {
		return System{}
	}
	return c
}
