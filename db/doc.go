// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package db opens the database and creates the schema.

# Drivers

Two drivers are supported through database/sql:

  - postgres (github.com/lib/pq): production
  - sqlite (modernc.org/sqlite): local development and tests

	conn, err := db.Open(cfg.DatabaseType, cfg.DatabaseURL)

All queries in the repository use $n placeholders, which both drivers
accept, and store timestamps as UTC.

# Schema Creation

CreateSchema initializes all required tables:

	if err := db.CreateSchema(conn); err != nil {
		log.Fatal(err)
	}

Safe to call multiple times - uses IF NOT EXISTS for all tables and indexes.

# Tables

  - users: accounts, unique email and SRN, role
  - election: lifecycle state and timing
  - candidate: candidates per election
  - eligible_voter: roster, keyed by (election_id, srn)
  - vote: ledger, UNIQUE (election_id, voter_id)

# Relationships

	election 1──* candidate
	election 1──* eligible_voter
	election 1──* vote
	candidate 1──* vote
	users 1──* vote

# Constraints

The store enforces the invariants that must hold under concurrent
requests:

  - one vote per (election, voter)
  - one roster row per (election, srn)
  - at most one admin and one superadmin (partial unique index on role)
  - start_time < end_time

IsUniqueViolation recognizes a violated unique constraint from either
driver so callers can turn it into a domain error.
*/
package db
