// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"invalid", Invalid("title is required"), http.StatusBadRequest},
		{"unprocessable", Unprocessable("bad times"), http.StatusUnprocessableEntity},
		{"not found", NotFound("Election not found"), http.StatusNotFound},
		{"conflict", Conflict("not draft"), http.StatusConflict},
		{"duplicate", Duplicate("already voted"), http.StatusConflict},
		{"ineligible", Ineligible("not on roster"), http.StatusForbidden},
		{"forbidden", Forbidden("wrong role"), http.StatusForbidden},
		{"unauthorized", Unauthorized("bad token"), http.StatusUnauthorized},
		{"plain error", errors.New("boom"), http.StatusInternalServerError},
		{"wrapped domain error", fmt.Errorf("cast: %w", Duplicate("already voted")), http.StatusConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HTTPStatus(tt.err))
		})
	}
}

func TestPublicMessage_HidesUnexpected(t *testing.T) {
	err := Wrap(errors.New("pq: relation does not exist"), "failed to load election")
	assert.Equal(t, "Internal server error", PublicMessage(err))
	assert.Equal(t, "Election not found", PublicMessage(NotFound("Election not found")))
	assert.ErrorContains(t, err, "relation does not exist")
}

func TestIs(t *testing.T) {
	assert.True(t, Is(Conflict("x"), KindConflict))
	assert.False(t, Is(Conflict("x"), KindDuplicate))
	assert.False(t, Is(nil, KindUnexpected))
}
