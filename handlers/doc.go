// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package handlers contains HTTP request handlers for the Quickly Elect API.

# Handler Types

Each handler is a thin struct over the domain services:

  - AuthHandler: registration, login, profile and password change
  - VoterHandler: ballots, vote casting, vote status and published results
  - AdminHandler: election lifecycle, candidates, roster upload and listing, results
  - SuperadminHandler: user listing and role assignment

Handlers decode the request, call one service method and write the
envelope. Domain errors are translated by middleware.WriteError, so a
handler never picks a status code for a service failure itself.

The authenticated user is read from the request context, where
middleware.Authenticator put it:

	user, _ := middleware.UserFromContext(r.Context())

# Confirmation Flags

Force-start and force-close take an explicit body:

	POST /admin/elections/{electionId}/start  {"forceStart": true}
	POST /admin/elections/{electionId}/close  {"forceClose": true}

A missing or false flag is answered with 422 before the service is called.

# Roster Upload

UploadRoster reads the multipart field "file" (at most 5 MB), one CSV record per
line: an SRN with optional name, email and note columns. The whole roster is
replaced; an upload with no valid SRN leaves the previous one in place.
*/
package handlers
