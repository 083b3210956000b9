package models

import "time"

// Election status constants, in lifecycle order
type ElectionStatus string

const (
	StatusDraft     ElectionStatus = "draft"
	StatusScheduled ElectionStatus = "scheduled"
	StatusOngoing   ElectionStatus = "ongoing"
	StatusClosed    ElectionStatus = "closed"
)

// Rank orders statuses along the lifecycle. Unknown statuses rank -1.
func (s ElectionStatus) Rank() int {
	switch s {
	case StatusDraft:
		return 0
	case StatusScheduled:
		return 1
	case StatusOngoing:
		return 2
	case StatusClosed:
		return 3
	}
	return -1
}

func (s ElectionStatus) Valid() bool { return s.Rank() >= 0 }

// User roles
type Role string

const (
	RoleVoter      Role = "voter"
	RoleAdmin      Role = "admin"
	RoleSuperadmin Role = "superadmin"
)

func (r Role) Valid() bool {
	return r == RoleVoter || r == RoleAdmin || r == RoleSuperadmin
}

// Request types

type RegisterRequest struct {
	FullName string `json:"fullName"`
	Email    string `json:"email"`
	SRN      string `json:"srn"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type ResetPasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

type CreateElectionRequest struct {
	Title        string     `json:"title"`
	PositionName string     `json:"positionName"`
	Description  string     `json:"description"`
	StartTime    *time.Time `json:"startTime"`
	EndTime      *time.Time `json:"endTime"`
}

// Nil fields are left unchanged
type UpdateElectionRequest struct {
	Title        *string    `json:"title"`
	PositionName *string    `json:"positionName"`
	Description  *string    `json:"description"`
	StartTime    *time.Time `json:"startTime"`
	EndTime      *time.Time `json:"endTime"`
}

type ForceStartRequest struct {
	ForceStart bool `json:"forceStart"`
}

type ForceCloseRequest struct {
	ForceClose bool `json:"forceClose"`
}

type CreateCandidateRequest struct {
	DisplayName string  `json:"displayName"`
	Manifesto   string  `json:"manifesto"`
	PhotoURL    *string `json:"photoUrl"`
}

type CastVoteRequest struct {
	CandidateID string `json:"candidateId"`
}

// Response types

// APIResponse is the envelope for every response body.
type APIResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data"`
}

type AuthResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

type RosterSummary struct {
	TotalLines        int `json:"totalLines"`
	ValidSRNs         int `json:"validSrns"`
	UniqueSRNs        int `json:"uniqueSrns"`
	DuplicatesRemoved int `json:"duplicatesRemoved"`
	InvalidLines      int `json:"invalidLines"`
	Inserted          int `json:"inserted"`
}

type ElectionSummary struct {
	Election
	CandidateCount int `json:"candidateCount"`
	EligibleCount  int `json:"eligibleCount"`
}

type ElectionStats struct {
	TotalCandidates int `json:"totalCandidates"`
	TotalVotes      int `json:"totalVotes"`
	EligibleCount   int `json:"eligibleCount"`
}

type ElectionDetails struct {
	Election   Election      `json:"election"`
	Candidates []Candidate   `json:"candidates"`
	Stats      ElectionStats `json:"stats"`
}

type Ballot struct {
	Election   Election    `json:"election"`
	Candidates []Candidate `json:"candidates"`
}

type VoteStatus struct {
	ElectionID string     `json:"electionId"`
	HasVoted   bool       `json:"hasVoted"`
	CastAt     *time.Time `json:"castAt,omitempty"`
}

type CandidateResult struct {
	CandidateID string  `json:"candidateId"`
	DisplayName string  `json:"displayName"`
	Votes       int     `json:"votes"`
	Percentage  float64 `json:"percentage"`
}

type Results struct {
	ElectionID   string            `json:"electionId"`
	Title        string            `json:"title"`
	PositionName string            `json:"positionName"`
	TotalVotes   int               `json:"totalVotes"`
	Results      []CandidateResult `json:"results"`
	Winners      []CandidateResult `json:"winners"`
	IsTie        bool              `json:"isTie"`
	ComputedAt   time.Time         `json:"computedAt"`
}

// Domain types

type User struct {
	ID           string    `json:"id"`
	FullName     string    `json:"fullName"`
	Email        string    `json:"email"`
	SRN          string    `json:"srn"`
	Role         Role      `json:"role"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

type Election struct {
	ID            string         `json:"id"`
	Title         string         `json:"title"`
	PositionName  string         `json:"positionName"`
	Description   string         `json:"description"`
	Status        ElectionStatus `json:"status"`
	StartTime     time.Time      `json:"startTime"`
	EndTime       time.Time      `json:"endTime"`
	StartedAt     *time.Time     `json:"startedAt"`
	ClosedAt      *time.Time     `json:"closedAt"`
	PublicResults bool           `json:"publicResults"`
	CreatedBy     string         `json:"createdBy"`
	CreatedAt     time.Time      `json:"createdAt"`
	UpdatedAt     time.Time      `json:"updatedAt"`
}

type Candidate struct {
	ID          string    `json:"id"`
	ElectionID  string    `json:"electionId"`
	DisplayName string    `json:"displayName"`
	Manifesto   string    `json:"manifesto"`
	PhotoURL    *string   `json:"photoUrl"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type EligibleVoter struct {
	ElectionID string    `json:"electionId"`
	SRN        string    `json:"srn"`
	Name       string    `json:"name,omitempty"`
	Email      string    `json:"email,omitempty"`
	Note       string    `json:"note,omitempty"`
	AddedBy    string    `json:"addedBy"`
	AddedAt    time.Time `json:"addedAt"`
}

// Vote is an immutable ledger entry
type Vote struct {
	ID           string    `json:"id"`
	ElectionID   string    `json:"electionId"`
	PositionName string    `json:"positionName"`
	CandidateID  string    `json:"candidateId"`
	VoterID      string    `json:"voterId"`
	CastAt       time.Time `json:"castAt"`
}
