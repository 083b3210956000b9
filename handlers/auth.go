// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"log/slog"
	"net/http"

	"github.com/danielhkuo/quickly-elect/apperr"
	"github.com/danielhkuo/quickly-elect/auth"
	"github.com/danielhkuo/quickly-elect/identity"
	"github.com/danielhkuo/quickly-elect/middleware"
	"github.com/danielhkuo/quickly-elect/models"
)

type AuthHandler struct {
	users  *identity.Service
	tokens *auth.TokenManager
}

func NewAuthHandler(users *identity.Service, tokens *auth.TokenManager) *AuthHandler {
	return &AuthHandler{users: users, tokens: tokens}
}

func (h *AuthHandler) respondWithToken(w http.ResponseWriter, status int, message string, user models.User) {
	token, err := h.tokens.Issue(user)
	if err != nil {
		slog.Error("failed to issue token", "user_id", user.ID, "error", err)
		middleware.WriteError(w, apperr.Wrap(err, "Failed to issue token"))
		return
	}
	middleware.Success(w, status, message, models.AuthResponse{Token: token, User: user})
}

// Register handles POST /user/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	user, err := h.users.Register(r.Context(), req)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}

	h.respondWithToken(w, http.StatusCreated, "Registration successful", user)
}

// Login handles POST /user/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	user, err := h.users.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}

	slog.Info("user logged in", "user_id", user.ID, "role", user.Role)
	h.respondWithToken(w, http.StatusOK, "Login successful", user)
}

// Profile handles GET /user/profile
func (h *AuthHandler) Profile(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.UserFromContext(r.Context())
	middleware.Success(w, http.StatusOK, "Profile loaded", user)
}

// ResetPassword handles PUT /user/profile/password
func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.UserFromContext(r.Context())

	var req models.ResetPasswordRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if err := h.users.ChangePassword(r.Context(), user.ID, req.CurrentPassword, req.NewPassword); err != nil {
		middleware.WriteError(w, err)
		return
	}

	middleware.Success(w, http.StatusOK, "Password updated", nil)
}
