// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package router

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/danielhkuo/quickly-elect/auth"
	"github.com/danielhkuo/quickly-elect/ballot"
	"github.com/danielhkuo/quickly-elect/cliparse"
	"github.com/danielhkuo/quickly-elect/clock"
	"github.com/danielhkuo/quickly-elect/election"
	"github.com/danielhkuo/quickly-elect/events"
	"github.com/danielhkuo/quickly-elect/handlers"
	"github.com/danielhkuo/quickly-elect/identity"
	"github.com/danielhkuo/quickly-elect/middleware"
	"github.com/danielhkuo/quickly-elect/models"
	"github.com/danielhkuo/quickly-elect/roster"
	"github.com/danielhkuo/quickly-elect/tally"
)

// Deps are the collaborators shared by every handler. A nil Clock means
// the system clock; a nil Events drops notifications.
type Deps struct {
	DB     *sql.DB
	Clock  clock.Clock
	Events events.Publisher
}

// Limiters returned by NewRouter so main can sweep idle clients
type Limiters struct {
	Login    *middleware.RateLimiter
	Register *middleware.RateLimiter
}

func NewRouter(deps Deps, cfg cliparse.Config) (*http.ServeMux, Limiters) {
	mux := http.NewServeMux()
	clk := clock.OrSystem(deps.Clock)

	// Services
	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.TokenTTL)
	users := identity.NewService(deps.DB, auth.NewPasswordHasher(cfg.BcryptCost), clk)
	rosters := roster.NewService(deps.DB, clk)
	elections := election.NewService(deps.DB, clk, deps.Events)
	box := ballot.NewBox(deps.DB, rosters, clk, deps.Events)
	results := tally.NewService(deps.DB, clk, cfg.ResultsCacheTTL)

	// Handlers
	authHandler := handlers.NewAuthHandler(users, tokens)
	voterHandler := handlers.NewVoterHandler(elections, box, results)
	adminHandler := handlers.NewAdminHandler(elections, rosters, results)
	superHandler := handlers.NewSuperadminHandler(users)

	authn := &middleware.Authenticator{Tokens: tokens, Users: users}
	anyone := authn.Require()
	voter := authn.Require(models.RoleVoter)
	admin := authn.Require(models.RoleAdmin, models.RoleSuperadmin)
	super := authn.Require(models.RoleSuperadmin)

	limiters := Limiters{
		Login:    middleware.NewRateLimiter(5, 5*time.Minute),
		Register: middleware.NewRateLimiter(3, 10*time.Minute),
	}

	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Accounts
	mux.HandleFunc("POST /user/register", middleware.WithLogging(limiters.Register.Limit(authHandler.Register)))
	mux.HandleFunc("POST /user/login", middleware.WithLogging(limiters.Login.Limit(authHandler.Login)))
	mux.HandleFunc("GET /user/profile", middleware.WithLogging(anyone(authHandler.Profile)))
	mux.HandleFunc("PUT /user/profile/password", middleware.WithLogging(anyone(authHandler.ResetPassword)))

	// Voting (voter role)
	mux.HandleFunc("GET /user/elections/active", middleware.WithLogging(voter(voterHandler.ActiveElections)))
	mux.HandleFunc("GET /user/elections/public", middleware.WithLogging(voter(voterHandler.PublicElections)))
	mux.HandleFunc("GET /user/elections/{electionId}/ballot", middleware.WithLogging(voter(voterHandler.Ballot)))
	mux.HandleFunc("GET /user/elections/{electionId}/candidates", middleware.WithLogging(voter(voterHandler.Candidates)))
	mux.HandleFunc("POST /user/elections/{electionId}/vote", middleware.WithLogging(voter(voterHandler.CastVote)))
	mux.HandleFunc("GET /user/elections/{electionId}/vote-status", middleware.WithLogging(voter(voterHandler.VoteStatus)))
	mux.HandleFunc("GET /user/elections/{electionId}/results", middleware.WithLogging(voter(voterHandler.Results)))

	// Election management (admin or superadmin)
	mux.HandleFunc("POST /admin/elections", middleware.WithLogging(admin(adminHandler.CreateElection)))
	mux.HandleFunc("GET /admin/elections", middleware.WithLogging(admin(adminHandler.ListElections)))
	mux.HandleFunc("GET /admin/elections/{electionId}", middleware.WithLogging(admin(adminHandler.GetElection)))
	mux.HandleFunc("PATCH /admin/elections/{electionId}", middleware.WithLogging(admin(adminHandler.UpdateElection)))
	mux.HandleFunc("PATCH /admin/elections/{electionId}/schedule", middleware.WithLogging(admin(adminHandler.Schedule)))
	mux.HandleFunc("POST /admin/elections/{electionId}/start", middleware.WithLogging(admin(adminHandler.ForceStart)))
	mux.HandleFunc("POST /admin/elections/{electionId}/close", middleware.WithLogging(admin(adminHandler.ForceClose)))
	mux.HandleFunc("PATCH /admin/elections/{electionId}/publish-results", middleware.WithLogging(admin(adminHandler.PublishResults)))
	mux.HandleFunc("GET /admin/elections/{electionId}/results", middleware.WithLogging(admin(adminHandler.Results)))
	mux.HandleFunc("POST /admin/elections/{electionId}/candidates", middleware.WithLogging(admin(adminHandler.CreateCandidate)))
	mux.HandleFunc("GET /admin/elections/{electionId}/candidates", middleware.WithLogging(admin(adminHandler.ListCandidates)))
	mux.HandleFunc("DELETE /admin/candidates/{candidateId}", middleware.WithLogging(admin(adminHandler.DeleteCandidate)))
	mux.HandleFunc("GET /admin/elections/{electionId}/eligible", middleware.WithLogging(admin(adminHandler.Roster)))
	mux.HandleFunc("POST /admin/elections/{electionId}/eligible/upload", middleware.WithLogging(admin(adminHandler.UploadRoster)))

	// Role management (superadmin)
	mux.HandleFunc("GET /superadmin/users", middleware.WithLogging(super(superHandler.ListUsers)))
	mux.HandleFunc("GET /superadmin/admin", middleware.WithLogging(super(superHandler.CurrentAdmin)))
	mux.HandleFunc("POST /superadmin/users/{userId}/make-admin", middleware.WithLogging(super(superHandler.MakeAdmin)))
	mux.HandleFunc("POST /superadmin/users/{userId}/make-superadmin", middleware.WithLogging(super(superHandler.MakeSuperadmin)))

	// Root endpoint
	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("quickly-elect API v1"))
	})

	return mux, limiters
}
