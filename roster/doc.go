// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package roster parses uploaded voter lists and answers eligibility
// questions. An SRN looks like R21AB123.
package roster
