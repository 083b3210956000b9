// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package auth

import (
	"errors"
	"strings"

	"github.com/google/uuid"
)

var (
	ErrMissingToken     = errors.New("authorization header is empty")
	ErrMalformedHeader  = errors.New("invalid authorization header format")
	ErrInvalidToken     = errors.New("invalid token")
	ErrPasswordMismatch = errors.New("password does not match")
)

// NewID returns a random UUID string for a new row
func NewID() string {
	return uuid.NewString()
}

// ExtractBearer pulls the token out of an Authorization header.
// Expected format: "Bearer <token>"
func ExtractBearer(header string) (string, error) {
	if header == "" {
		return "", ErrMissingToken
	}

	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", ErrMalformedHeader
	}

	token = strings.TrimSpace(token)
	if token == "" {
		return "", ErrMalformedHeader
	}
	return token, nil
}
