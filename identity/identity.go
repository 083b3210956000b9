// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package identity

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"

	"github.com/danielhkuo/quickly-elect/apperr"
	"github.com/danielhkuo/quickly-elect/auth"
	"github.com/danielhkuo/quickly-elect/clock"
	"github.com/danielhkuo/quickly-elect/db"
	"github.com/danielhkuo/quickly-elect/models"
	"github.com/danielhkuo/quickly-elect/roster"
)

// Password length bounds for registration and password changes. bcrypt
// only accepts up to 72 bytes.
const (
	MinPasswordLength = 6
	MaxPasswordLength = 72
)

const userColumns = "id, full_name, email, srn, password_hash, role, created_at, updated_at"

// Hasher is the password side of the credential collaborator
type Hasher interface {
	Hash(password string) (string, error)
	Check(hash, password string) error
}

// Service owns user accounts and roles
type Service struct {
	db     *sql.DB
	hasher Hasher
	clock  clock.Clock
}

func NewService(db *sql.DB, hasher Hasher, clk clock.Clock) *Service {
	return &Service{db: db, hasher: hasher, clock: clock.OrSystem(clk)}
}

type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func scanUser(row interface{ Scan(...any) error }) (models.User, error) {
	var u models.User
	var role string
	if err := row.Scan(&u.ID, &u.FullName, &u.Email, &u.SRN, &u.PasswordHash, &role, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return models.User{}, err
	}
	u.Role = models.Role(role)
	return u, nil
}

func loadUser(ctx context.Context, q querier, where string, arg any) (models.User, error) {
	u, err := scanUser(q.QueryRowContext(ctx, "SELECT "+userColumns+" FROM users WHERE "+where, arg))
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, apperr.NotFound("User not found")
	}
	if err != nil {
		return models.User{}, apperr.Wrap(fmt.Errorf("load user: %w", err), "Failed to load user")
	}
	return u, nil
}

// Get returns a user by ID
func (s *Service) Get(ctx context.Context, id string) (models.User, error) {
	return loadUser(ctx, s.db, "id = $1", id)
}

// Register creates a voter account
func (s *Service) Register(ctx context.Context, req models.RegisterRequest) (models.User, error) {
	name := strings.TrimSpace(req.FullName)
	email := strings.ToLower(strings.TrimSpace(req.Email))
	srn := roster.NormalizeSRN(req.SRN)

	if name == "" || email == "" || srn == "" || req.Password == "" {
		return models.User{}, apperr.Invalid("fullName, email, srn and password are required")
	}
	if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email {
		return models.User{}, apperr.Invalid("email is not valid")
	}
	if !roster.ValidSRN(srn) {
		return models.User{}, apperr.Invalid("srn must look like R21AB123")
	}
	if len(req.Password) < MinPasswordLength {
		return models.User{}, apperr.Invalid("password must be at least %d characters", MinPasswordLength)
	}
	if len(req.Password) > MaxPasswordLength {
		return models.User{}, apperr.Invalid("password must be at most %d bytes", MaxPasswordLength)
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return models.User{}, apperr.Wrap(err, "Failed to register")
	}

	now := s.clock.Now()
	u := models.User{
		ID:           auth.NewID(),
		FullName:     name,
		Email:        email,
		SRN:          srn,
		Role:         models.RoleVoter,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO users (id, full_name, email, srn, password_hash, role, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $7)
	`, u.ID, u.FullName, u.Email, u.SRN, u.PasswordHash, string(u.Role), now)
	if db.IsUniqueViolation(err) {
		return models.User{}, s.duplicateAccount(ctx, email)
	}
	if err != nil {
		return models.User{}, apperr.Wrap(fmt.Errorf("insert user: %w", err), "Failed to register")
	}

	slog.Info("user registered", "user_id", u.ID)
	return u, nil
}

func (s *Service) duplicateAccount(ctx context.Context, email string) error {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM users WHERE email = $1", email).Scan(&n); err == nil && n > 0 {
		return apperr.Duplicate("Email is already registered")
	}
	return apperr.Duplicate("SRN is already registered")
}

// Authenticate checks an email and password pair
func (s *Service) Authenticate(ctx context.Context, email, password string) (models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return models.User{}, apperr.Invalid("email and password are required")
	}

	u, err := loadUser(ctx, s.db, "email = $1", email)
	if apperr.Is(err, apperr.KindNotFound) {
		return models.User{}, apperr.Unauthorized("Invalid email or password")
	}
	if err != nil {
		return models.User{}, err
	}

	if err := s.hasher.Check(u.PasswordHash, password); err != nil {
		if errors.Is(err, auth.ErrPasswordMismatch) {
			return models.User{}, apperr.Unauthorized("Invalid email or password")
		}
		return models.User{}, apperr.Wrap(err, "Failed to log in")
	}
	return u, nil
}

// ChangePassword replaces the password after verifying the current one
func (s *Service) ChangePassword(ctx context.Context, userID, current, next string) error {
	if current == "" || next == "" {
		return apperr.Invalid("currentPassword and newPassword are required")
	}
	if len(next) < MinPasswordLength {
		return apperr.Invalid("newPassword must be at least %d characters", MinPasswordLength)
	}
	if len(next) > MaxPasswordLength {
		return apperr.Invalid("newPassword must be at most %d bytes", MaxPasswordLength)
	}

	u, err := s.Get(ctx, userID)
	if err != nil {
		return err
	}
	if err := s.hasher.Check(u.PasswordHash, current); err != nil {
		if errors.Is(err, auth.ErrPasswordMismatch) {
			return apperr.Unauthorized("Current password is incorrect")
		}
		return apperr.Wrap(err, "Failed to change password")
	}

	hash, err := s.hasher.Hash(next)
	if err != nil {
		return apperr.Wrap(err, "Failed to change password")
	}
	_, err = s.db.ExecContext(ctx,
		"UPDATE users SET password_hash = $1, updated_at = $2 WHERE id = $3",
		hash, s.clock.Now(), userID,
	)
	if err != nil {
		return apperr.Wrap(err, "Failed to change password")
	}

	slog.Info("password changed", "user_id", userID)
	return nil
}

// List returns every user, oldest first
func (s *Service) List(ctx context.Context) ([]models.User, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT "+userColumns+" FROM users ORDER BY created_at, id")
	if err != nil {
		return nil, apperr.Wrap(err, "Failed to load users")
	}
	defer rows.Close()

	users := []models.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, apperr.Wrap(err, "Failed to load users")
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Wrap(err, "Failed to load users")
	}
	return users, nil
}

// CurrentAdmin returns the user holding the admin role
func (s *Service) CurrentAdmin(ctx context.Context) (models.User, error) {
	u, err := loadUser(ctx, s.db, "role = $1", string(models.RoleAdmin))
	if apperr.Is(err, apperr.KindNotFound) {
		return models.User{}, apperr.NotFound("No admin is assigned")
	}
	return u, err
}
