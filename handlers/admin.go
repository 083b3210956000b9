// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/danielhkuo/quickly-elect/election"
	"github.com/danielhkuo/quickly-elect/middleware"
	"github.com/danielhkuo/quickly-elect/models"
	"github.com/danielhkuo/quickly-elect/roster"
	"github.com/danielhkuo/quickly-elect/tally"
)

// maxRosterUpload bounds the multipart body of a roster upload
const maxRosterUpload = 5 << 20

// AdminHandler serves the /admin routes
type AdminHandler struct {
	elections *election.Service
	roster    *roster.Service
	tally     *tally.Service
}

func NewAdminHandler(elections *election.Service, r *roster.Service, t *tally.Service) *AdminHandler {
	return &AdminHandler{elections: elections, roster: r, tally: t}
}

// CreateElection handles POST /admin/elections
func (h *AdminHandler) CreateElection(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.UserFromContext(r.Context())

	var req models.CreateElectionRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	e, err := h.elections.Create(r.Context(), user.ID, req)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	middleware.Success(w, http.StatusCreated, "Election created", e)
}

// ListElections handles GET /admin/elections
func (h *AdminHandler) ListElections(w http.ResponseWriter, r *http.Request) {
	elections, err := h.elections.List(r.Context())
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	middleware.Success(w, http.StatusOK, "Elections loaded", elections)
}

// GetElection handles GET /admin/elections/{electionId}
func (h *AdminHandler) GetElection(w http.ResponseWriter, r *http.Request) {
	details, err := h.elections.Details(r.Context(), r.PathValue("electionId"))
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	middleware.Success(w, http.StatusOK, "Election loaded", details)
}

// UpdateElection handles PATCH /admin/elections/{electionId}
func (h *AdminHandler) UpdateElection(w http.ResponseWriter, r *http.Request) {
	var req models.UpdateElectionRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	e, err := h.elections.Update(r.Context(), r.PathValue("electionId"), req)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	middleware.Success(w, http.StatusOK, "Election updated", e)
}

// Schedule handles PATCH /admin/elections/{electionId}/schedule
func (h *AdminHandler) Schedule(w http.ResponseWriter, r *http.Request) {
	e, err := h.elections.Schedule(r.Context(), r.PathValue("electionId"))
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	middleware.Success(w, http.StatusOK, "Election scheduled", e)
}

// ForceStart handles POST /admin/elections/{electionId}/start.
// The body must confirm with {"forceStart": true}.
func (h *AdminHandler) ForceStart(w http.ResponseWriter, r *http.Request) {
	var req models.ForceStartRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil || !req.ForceStart {
		middleware.ErrorResponse(w, http.StatusUnprocessableEntity, "forceStart must be true to start an election early")
		return
	}

	e, err := h.elections.ForceStart(r.Context(), r.PathValue("electionId"))
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	middleware.Success(w, http.StatusOK, "Election started", e)
}

// ForceClose handles POST /admin/elections/{electionId}/close.
// The body must confirm with {"forceClose": true}.
func (h *AdminHandler) ForceClose(w http.ResponseWriter, r *http.Request) {
	var req models.ForceCloseRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil || !req.ForceClose {
		middleware.ErrorResponse(w, http.StatusUnprocessableEntity, "forceClose must be true to close an election early")
		return
	}

	e, err := h.elections.ForceClose(r.Context(), r.PathValue("electionId"))
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	middleware.Success(w, http.StatusOK, "Election closed", e)
}

// PublishResults handles PATCH /admin/elections/{electionId}/publish-results
func (h *AdminHandler) PublishResults(w http.ResponseWriter, r *http.Request) {
	e, err := h.elections.PublishResults(r.Context(), r.PathValue("electionId"))
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	middleware.Success(w, http.StatusOK, "Results published", e)
}

// Results handles GET /admin/elections/{electionId}/results
func (h *AdminHandler) Results(w http.ResponseWriter, r *http.Request) {
	results, err := h.tally.Results(r.Context(), r.PathValue("electionId"), tally.AudienceAdmin)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	middleware.Success(w, http.StatusOK, "Results", results)
}

// CreateCandidate handles POST /admin/elections/{electionId}/candidates
func (h *AdminHandler) CreateCandidate(w http.ResponseWriter, r *http.Request) {
	var req models.CreateCandidateRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	c, err := h.elections.CreateCandidate(r.Context(), r.PathValue("electionId"), req)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	middleware.Success(w, http.StatusCreated, "Candidate created", c)
}

// ListCandidates handles GET /admin/elections/{electionId}/candidates
func (h *AdminHandler) ListCandidates(w http.ResponseWriter, r *http.Request) {
	candidates, err := h.elections.ListCandidates(r.Context(), r.PathValue("electionId"))
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	middleware.Success(w, http.StatusOK, "Candidates loaded", candidates)
}

// DeleteCandidate handles DELETE /admin/candidates/{candidateId}
func (h *AdminHandler) DeleteCandidate(w http.ResponseWriter, r *http.Request) {
	if err := h.elections.DeleteCandidate(r.Context(), r.PathValue("candidateId")); err != nil {
		middleware.WriteError(w, err)
		return
	}
	middleware.Success(w, http.StatusOK, "Candidate deleted", nil)
}

// Roster handles GET /admin/elections/{electionId}/eligible
func (h *AdminHandler) Roster(w http.ResponseWriter, r *http.Request) {
	electionID := r.PathValue("electionId")
	if _, err := h.elections.Get(r.Context(), electionID); err != nil {
		middleware.WriteError(w, err)
		return
	}

	voters, err := h.roster.List(r.Context(), electionID)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	middleware.Success(w, http.StatusOK, "Roster loaded", voters)
}

// UploadRoster handles POST /admin/elections/{electionId}/eligible/upload.
// The roster is the multipart file field "file", one SRN per line.
func (h *AdminHandler) UploadRoster(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.UserFromContext(r.Context())
	electionID := r.PathValue("electionId")

	r.Body = http.MaxBytesReader(w, r.Body, maxRosterUpload)
	file, header, err := r.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			middleware.ErrorResponse(w, http.StatusRequestEntityTooLarge, "Roster file is too large")
			return
		}
		middleware.ErrorResponse(w, http.StatusBadRequest, "A roster file is required in field \"file\"")
		return
	}
	defer file.Close()

	if !roster.LooksLikeCSV(header.Filename, header.Header.Get("Content-Type")) {
		slog.Warn("roster upload does not look like CSV",
			"election_id", electionID,
			"filename", header.Filename,
			"content_type", header.Header.Get("Content-Type"),
		)
	}

	lines, err := roster.ReadLines(file)
	if err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Could not read roster file")
		return
	}

	summary, err := h.roster.Replace(r.Context(), electionID, user.ID, lines)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	middleware.Success(w, http.StatusOK, "Roster uploaded", summary)
}
