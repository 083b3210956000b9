// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package main provides the entry point for the Quickly Elect API server.

Quickly Elect runs single-position elections. Voters register and vote once
per election they are on the roster for. Admins create elections, add
candidates, upload rosters and publish results. A background scheduler
opens and closes elections as their time windows pass.

# Starting the Server

The server requires environment variables or CLI flags for configuration:

	DATABASE_URL=postgres://... JWT_SECRET=... go run .

Or against a local SQLite file:

	go run . -t sqlite -d elections.db -jwt-secret dev-secret

A .env file in the working directory is loaded first.

# Configuration

Required settings:

  - DATABASE_URL (-d): PostgreSQL connection string or SQLite path
  - JWT_SECRET (-jwt-secret): Token signing secret

Optional settings are listed in the cliparse package.

# Architecture

  - handlers, router, middleware: HTTP surface
  - election: lifecycle state machine and candidates
  - roster: eligible voter lists
  - ballot: vote casting
  - tally: results
  - identity, auth: accounts, roles, tokens, passwords
  - scheduler: time-driven transitions
  - events: NATS notifications
  - db, apperr, clock, models, cliparse: shared plumbing

# Shutdown

SIGINT or SIGTERM stops the scheduler, shuts the HTTP server down within
SHUTDOWN_TIMEOUT and drains the NATS connection.
*/
package main
