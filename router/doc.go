// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package router defines HTTP routes for the Quickly Elect API.

# Route Registration

NewRouter builds every service, wraps the handlers in authentication and
logging, and returns the mux together with the rate limiters so the
caller can sweep them:

	mux, limiters := router.NewRouter(router.Deps{DB: db, Events: pub}, cfg)

# Endpoints

Public:

	GET  /health
	POST /user/register   - 3 per 10 minutes per IP
	POST /user/login      - 5 per 5 minutes per IP

Any signed-in user:

	GET /user/profile
	PUT /user/profile/password

Voter:

	GET  /user/elections/active
	GET  /user/elections/public
	GET  /user/elections/{electionId}/ballot
	GET  /user/elections/{electionId}/candidates
	POST /user/elections/{electionId}/vote
	GET  /user/elections/{electionId}/vote-status
	GET  /user/elections/{electionId}/results

Admin or superadmin:

	POST   /admin/elections
	GET    /admin/elections
	GET    /admin/elections/{electionId}
	PATCH  /admin/elections/{electionId}
	PATCH  /admin/elections/{electionId}/schedule
	POST   /admin/elections/{electionId}/start
	POST   /admin/elections/{electionId}/close
	PATCH  /admin/elections/{electionId}/publish-results
	GET    /admin/elections/{electionId}/results
	POST   /admin/elections/{electionId}/candidates
	GET    /admin/elections/{electionId}/candidates
	DELETE /admin/candidates/{candidateId}
	GET    /admin/elections/{electionId}/eligible
	POST   /admin/elections/{electionId}/eligible/upload

Superadmin:

	GET  /superadmin/users
	GET  /superadmin/admin
	POST /superadmin/users/{userId}/make-admin
	POST /superadmin/users/{userId}/make-superadmin

Roles are checked against the stored account on every request, so a
demoted admin loses access without waiting for the token to expire.
*/
package router
