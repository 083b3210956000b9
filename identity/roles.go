// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package identity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/danielhkuo/quickly-elect/apperr"
	"github.com/danielhkuo/quickly-elect/db"
	"github.com/danielhkuo/quickly-elect/models"
)

// promotionAttempts bounds retries when a concurrent promotion wins the
// unique index on role
const promotionAttempts = 3

var errPromotionRace = errors.New("promotion lost a race")

// MakeAdmin makes userID the only admin. The previous admin becomes a
// voter in the same transaction.
func (s *Service) MakeAdmin(ctx context.Context, userID string) (models.User, error) {
	return s.promote(ctx, userID, models.RoleAdmin, func(u models.User) error {
		switch u.Role {
		case models.RoleAdmin:
			return apperr.Duplicate("User is already the admin")
		case models.RoleSuperadmin:
			return apperr.Conflict("The superadmin cannot be made admin")
		}
		return nil
	})
}

// TransferSuperadmin hands the superadmin role to userID and demotes the
// current superadmin to voter.
func (s *Service) TransferSuperadmin(ctx context.Context, userID string) (models.User, error) {
	return s.promote(ctx, userID, models.RoleSuperadmin, func(u models.User) error {
		switch u.Role {
		case models.RoleSuperadmin:
			return apperr.Duplicate("User is already the superadmin")
		case models.RoleAdmin:
			return apperr.Conflict("The current admin cannot become superadmin")
		}
		return nil
	})
}

func (s *Service) promote(ctx context.Context, userID string, role models.Role, check func(models.User) error) (models.User, error) {
	var err error
	for attempt := 1; attempt <= promotionAttempts; attempt++ {
		var u models.User
		u, err = s.promoteOnce(ctx, userID, role, check)
		if err == nil {
			return u, nil
		}
		if !errors.Is(err, errPromotionRace) {
			return models.User{}, err
		}
		slog.Warn("role promotion retry", "user_id", userID, "role", role, "attempt", attempt)
	}
	return models.User{}, apperr.Conflict("Another role change is in progress, please retry")
}

func (s *Service) promoteOnce(ctx context.Context, userID string, role models.Role, check func(models.User) error) (models.User, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return models.User{}, apperr.Wrap(err, "Failed to change role")
	}
	defer tx.Rollback()

	u, err := loadUser(ctx, tx, "id = $1", userID)
	if err != nil {
		return models.User{}, err
	}
	if err := check(u); err != nil {
		return models.User{}, err
	}

	now := s.clock.Now()
	_, err = tx.ExecContext(ctx,
		"UPDATE users SET role = $1, updated_at = $2 WHERE role = $3 AND id <> $4",
		string(models.RoleVoter), now, string(role), userID,
	)
	if err != nil {
		return models.User{}, promotionError(err)
	}

	res, err := tx.ExecContext(ctx,
		"UPDATE users SET role = $1, updated_at = $2 WHERE id = $3 AND role = $4",
		string(role), now, userID, string(models.RoleVoter),
	)
	if err != nil {
		return models.User{}, promotionError(err)
	}
	if n, _ := res.RowsAffected(); n != 1 {
		return models.User{}, errPromotionRace
	}

	if err := tx.Commit(); err != nil {
		return models.User{}, promotionError(err)
	}

	slog.Info("role assigned", "user_id", userID, "role", role)
	u.Role = role
	u.UpdatedAt = now
	return u, nil
}

func promotionError(err error) error {
	if db.IsUniqueViolation(err) {
		return errPromotionRace
	}
	return apperr.Wrap(fmt.Errorf("change role: %w", err), "Failed to change role")
}

// EnsureSuperadmin promotes the user with the given email when the system
// has no superadmin yet. Reports whether a promotion happened.
func (s *Service) EnsureSuperadmin(ctx context.Context, email string) (bool, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return false, nil
	}

	var n int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM users WHERE role = $1", string(models.RoleSuperadmin)).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("failed to count superadmins: %w", err)
	}
	if n > 0 {
		return false, nil
	}

	res, err := s.db.ExecContext(ctx,
		"UPDATE users SET role = $1, updated_at = $2 WHERE email = $3",
		string(models.RoleSuperadmin), s.clock.Now(), email,
	)
	if db.IsUniqueViolation(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to promote superadmin: %w", err)
	}
	if rows, _ := res.RowsAffected(); rows == 0 {
		return false, apperr.NotFound("No user registered with email %s", email)
	}

	slog.Info("superadmin bootstrapped", "email", email)
	return true, nil
}
