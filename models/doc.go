// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package models defines request, response, and domain types for the API.

JSON field names are camelCase to match the web client.

# Envelope

Every response body is an APIResponse:

	{"success": true, "message": "Election scheduled", "data": {...}}

Errors use the same shape with success=false and data=null.

# Request Types

  - RegisterRequest, LoginRequest, ResetPasswordRequest
  - CreateElectionRequest, UpdateElectionRequest (nil fields unchanged)
  - ForceStartRequest, ForceCloseRequest: explicit confirmation flags
  - CreateCandidateRequest
  - CastVoteRequest

# Response Types

  - AuthResponse: token plus user
  - RosterSummary: line counts from a roster upload
  - ElectionSummary, ElectionDetails, ElectionStats: admin views
  - Ballot: ongoing election with its candidates
  - VoteStatus: whether the caller has voted
  - Results, CandidateResult: tallied results and winner set

# Domain Types

  - User: account with a Role (voter, admin, superadmin)
  - Election: lifecycle state and timing
  - Candidate: belongs to one election
  - EligibleVoter: roster entry keyed by (election, SRN)
  - Vote: one per (election, voter), never updated

# Constants

Election status (ElectionStatus):

  - StatusDraft: editable, candidates may change
  - StatusScheduled: waiting for its start time
  - StatusOngoing: accepting votes
  - StatusClosed: terminal; results may be published

Rank gives the lifecycle order; a status never moves to a lower rank.
*/
package models
