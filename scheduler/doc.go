// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package scheduler runs the background daemon that starts and closes
// elections when their time window opens and ends.
package scheduler
