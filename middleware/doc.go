// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package middleware provides HTTP middleware and helper functions.

# Request Logging

Wrap handlers with request logging:

	mux.HandleFunc("GET /health", middleware.WithLogging(handler))

Logs request start (method, path, remote) and completion (status, duration_ms).

# Authentication

Authenticator validates the bearer token, reloads the user and checks the
role against the route group:

	admin := authn.Require(models.RoleAdmin, models.RoleSuperadmin)
	mux.HandleFunc("POST /admin/elections", middleware.WithLogging(admin(h.CreateElection)))

Handlers read the caller with UserFromContext.

# Rate Limiting

RateLimiter keeps one token bucket per client IP:

	limiter := middleware.NewRateLimiter(10, time.Minute)
	mux.HandleFunc("POST /user/login", middleware.WithLogging(limiter.Limit(h.Login)))

# Response Envelope

Every response body is {success, message, data}:

	middleware.Success(w, http.StatusOK, "Election scheduled", election)
	middleware.WriteError(w, err)

WriteError maps apperr kinds to status codes. Unexpected errors are
logged and answered with a generic message.
*/
package middleware
