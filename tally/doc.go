// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package tally counts the vote ledger of a closed election.

Compute is pure and does the ordering, percentages and winner set.
Service loads counts from the database, gates them by Audience and caches
them, since a closed election's ledger no longer changes.
*/
package tally
