// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"

	"github.com/danielhkuo/quickly-elect/identity"
	"github.com/danielhkuo/quickly-elect/middleware"
)

type SuperadminHandler struct {
	users *identity.Service
}

func NewSuperadminHandler(users *identity.Service) *SuperadminHandler {
	return &SuperadminHandler{users: users}
}

// ListUsers handles GET /superadmin/users
func (h *SuperadminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.List(r.Context())
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	middleware.Success(w, http.StatusOK, "Users loaded", users)
}

// CurrentAdmin handles GET /superadmin/admin
func (h *SuperadminHandler) CurrentAdmin(w http.ResponseWriter, r *http.Request) {
	admin, err := h.users.CurrentAdmin(r.Context())
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	middleware.Success(w, http.StatusOK, "Current admin", admin)
}

// MakeAdmin handles POST /superadmin/users/{userId}/make-admin
func (h *SuperadminHandler) MakeAdmin(w http.ResponseWriter, r *http.Request) {
	user, err := h.users.MakeAdmin(r.Context(), r.PathValue("userId"))
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	middleware.Success(w, http.StatusOK, "User is now the admin", user)
}

// MakeSuperadmin handles POST /superadmin/users/{userId}/make-superadmin.
// The caller loses the role in the same step.
func (h *SuperadminHandler) MakeSuperadmin(w http.ResponseWriter, r *http.Request) {
	user, err := h.users.TransferSuperadmin(r.Context(), r.PathValue("userId"))
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	middleware.Success(w, http.StatusOK, "Superadmin role transferred", user)
}
