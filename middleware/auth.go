// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package middleware

import (
	"context"
	"net/http"
	"slices"

	"github.com/danielhkuo/quickly-elect/apperr"
	"github.com/danielhkuo/quickly-elect/auth"
	"github.com/danielhkuo/quickly-elect/models"
)

type contextKey struct{}

// UserLoader resolves the account behind a token
type UserLoader interface {
	Get(ctx context.Context, id string) (models.User, error)
}

// Authenticator checks bearer tokens and role membership
type Authenticator struct {
	Tokens *auth.TokenManager
	Users  UserLoader
}

// Require lets a request through when it carries a valid token for a user
// whose current role is one of roles. The role is read from the store, so
// a demotion takes effect before the token expires.
func (a *Authenticator) Require(roles ...models.Role) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			raw, err := auth.ExtractBearer(r.Header.Get("Authorization"))
			if err != nil {
				WriteError(w, apperr.Unauthorized("Authentication required"))
				return
			}
			claims, err := a.Tokens.Validate(raw)
			if err != nil {
				WriteError(w, apperr.Unauthorized("Invalid or expired token"))
				return
			}

			user, err := a.Users.Get(r.Context(), claims.UserID)
			if apperr.Is(err, apperr.KindNotFound) {
				WriteError(w, apperr.Unauthorized("Invalid or expired token"))
				return
			}
			if err != nil {
				WriteError(w, err)
				return
			}

			if len(roles) > 0 && !slices.Contains(roles, user.Role) {
				WriteError(w, apperr.Forbidden("Access denied for role %s", user.Role))
				return
			}

			next(w, r.WithContext(WithUser(r.Context(), user)))
		}
	}
}

// WithUser stores the authenticated user on ctx
func WithUser(ctx context.Context, user models.User) context.Context {
	return context.WithValue(ctx, contextKey{}, user)
}

// UserFromContext returns the user stored by Require
func UserFromContext(ctx context.Context) (models.User, bool) {
	user, ok := ctx.Value(contextKey{}).(models.User)
	return user, ok
}
