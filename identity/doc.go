// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package identity stores accounts and roles.
//
// There is at most one admin and one superadmin. Promotions demote the
// previous holder inside the same transaction, and a partial unique index on
// users.role backs this up when two promotions race.
package identity
