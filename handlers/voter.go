// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"

	"github.com/danielhkuo/quickly-elect/ballot"
	"github.com/danielhkuo/quickly-elect/election"
	"github.com/danielhkuo/quickly-elect/middleware"
	"github.com/danielhkuo/quickly-elect/models"
	"github.com/danielhkuo/quickly-elect/tally"
)

// VoterHandler serves the /user/elections routes
type VoterHandler struct {
	elections *election.Service
	box       *ballot.Box
	tally     *tally.Service
}

func NewVoterHandler(elections *election.Service, box *ballot.Box, t *tally.Service) *VoterHandler {
	return &VoterHandler{elections: elections, box: box, tally: t}
}

// ActiveElections handles GET /user/elections/active
func (h *VoterHandler) ActiveElections(w http.ResponseWriter, r *http.Request) {
	elections, err := h.elections.ListActive(r.Context())
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	middleware.Success(w, http.StatusOK, "Active elections", elections)
}

// PublicElections handles GET /user/elections/public
func (h *VoterHandler) PublicElections(w http.ResponseWriter, r *http.Request) {
	elections, err := h.elections.ListPublic(r.Context())
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	middleware.Success(w, http.StatusOK, "Elections with published results", elections)
}

// Ballot handles GET /user/elections/{electionId}/ballot
func (h *VoterHandler) Ballot(w http.ResponseWriter, r *http.Request) {
	b, err := h.elections.Ballot(r.Context(), r.PathValue("electionId"))
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	middleware.Success(w, http.StatusOK, "Ballot loaded", b)
}

// Candidates handles GET /user/elections/{electionId}/candidates
func (h *VoterHandler) Candidates(w http.ResponseWriter, r *http.Request) {
	candidates, err := h.elections.ListCandidates(r.Context(), r.PathValue("electionId"))
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	middleware.Success(w, http.StatusOK, "Candidates loaded", candidates)
}

// CastVote handles POST /user/elections/{electionId}/vote
func (h *VoterHandler) CastVote(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.UserFromContext(r.Context())

	var req models.CastVoteRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	vote, err := h.box.Cast(r.Context(), r.PathValue("electionId"), user.ID, req.CandidateID)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	middleware.Success(w, http.StatusCreated, "Vote cast successfully", vote)
}

// VoteStatus handles GET /user/elections/{electionId}/vote-status
func (h *VoterHandler) VoteStatus(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.UserFromContext(r.Context())

	status, err := h.box.Status(r.Context(), r.PathValue("electionId"), user.ID)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	middleware.Success(w, http.StatusOK, "Vote status", status)
}

// Results handles GET /user/elections/{electionId}/results
func (h *VoterHandler) Results(w http.ResponseWriter, r *http.Request) {
	results, err := h.tally.Results(r.Context(), r.PathValue("electionId"), tally.AudiencePublic)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	middleware.Success(w, http.StatusOK, "Results", results)
}
