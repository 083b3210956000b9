// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package apperr defines the error taxonomy shared by the domain packages.

Services return an *Error built with one of the constructors:

	return apperr.Conflict("Election is %s, expected draft", status)

The request boundary is the only place that turns an error into a
response. HTTPStatus and PublicMessage do the mapping; anything that is
not an *Error is treated as unexpected and answered with a generic 500.

# Kinds

	KindInvalid        400  malformed or missing input
	KindUnprocessable  422  well-formed input that breaks a rule
	KindUnauthorized   401  missing or bad credentials
	KindIneligible     403  voter not on the roster
	KindForbidden      403  role not allowed
	KindNotFound       404
	KindConflict       409  wrong lifecycle state
	KindDuplicate      409  already voted, already registered
	KindUnexpected     500
*/
package apperr
