// Package service contains the business logic layer of the application.
//
// THE THREE-LAYER ARCHITECTURE:
//
//	Handler (HTTP layer)     → parses requests, writes responses
//	Service (Business layer) → validates, enforces rules, orchestrates
//	Repository (Data layer)  → reads/writes to the database
//
// Services accept plain Go values and return apperror values. They never see
// an *http.Request and never pick an HTTP status code.
//
// DEPENDENCY INJECTION:
// UserService takes a repository.UserRepository (interface), NOT a concrete
// store. Tests pass the in-memory store; main.go passes sqlite or postgres.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/messaging-api/internal/apperror"
	"github.com/sakif/messaging-api/internal/auth"
	"github.com/sakif/messaging-api/internal/model"
	"github.com/sakif/messaging-api/internal/repository"
)

// RegisterInput is the raw registration request.
type RegisterInput struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
}

// UserService handles registration, login and user listing.
type UserService struct {
	users     repository.UserRepository
	passwords *auth.PasswordService
	logger    *slog.Logger

	// dummyHash is verified against when the email is unknown, so a login
	// for a missing account costs about as much as one with a wrong password.
	dummyHash string
}

// NewUserService wires a UserService. It hashes one throwaway password up
// front, which is why it can fail.
func NewUserService(users repository.UserRepository, passwords *auth.PasswordService, logger *slog.Logger) (*UserService, error) {
	dummy, err := passwords.Hash("not-a-real-password")
	if err != nil {
		return nil, fmt.Errorf("service/user: preparing login hash: %w", err)
	}
	return &UserService{
		users:     users,
		passwords: passwords,
		logger:    logger,
		dummyHash: dummy,
	}, nil
}

// NormalizeEmail is applied to every email before it reaches the store, so
// uniqueness and login are case-insensitive whatever the store's collation.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register validates the input, creates the user and returns it.
//
// The EmailExists pre-check is only a fast path. Two concurrent
// registrations can both pass it, and then the store's unique constraint
// decides: the loser gets the same Conflict from Create.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*model.User, error) {
	user := &model.User{
		Email:     NormalizeEmail(in.Email),
		FirstName: strings.TrimSpace(in.FirstName),
		LastName:  strings.TrimSpace(in.LastName),
	}

	if user.Email == "" || in.Password == "" || user.FirstName == "" || user.LastName == "" {
		return nil, apperror.ValidationFailed(firstMissing(map[string]string{
			"email":      user.Email,
			"password":   in.Password,
			"first_name": user.FirstName,
			"last_name":  user.LastName,
		}, "email", "password", "first_name", "last_name"),
			"email, password, first_name, and last_name are required.")
	}
	if len(in.Password) > auth.MaxPasswordBytes {
		return nil, apperror.ValidationFailed("password", "password must be 72 bytes or fewer.")
	}

	exists, err := s.users.EmailExists(ctx, user.Email)
	if err != nil {
		return nil, fmt.Errorf("service/user: checking email: %w", err)
	}
	if exists {
		return nil, apperror.Conflict("A user with that email already exists.")
	}

	user.PasswordHash, err = s.passwords.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("service/user: hashing password: %w", err)
	}

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, apperror.ErrConflict) {
			return nil, err
		}
		return nil, fmt.Errorf("service/user: creating user: %w", err)
	}

	s.logger.InfoContext(ctx, "user registered", slog.Int64("userID", user.ID))

	return user, nil
}

// Login returns the user id for a matching email and password.
//
// An unknown email and a wrong password produce the SAME error, so the
// response never reveals which accounts exist.
func (s *UserService) Login(ctx context.Context, email, password string) (int64, error) {
	email = NormalizeEmail(email)
	if email == "" || password == "" {
		field := "email"
		if email != "" {
			field = "password"
		}
		return 0, apperror.ValidationFailed(field, "email and password are required.")
	}

	creds, err := s.users.FindCredentialsByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			// Burn the same bcrypt work as a real comparison.
			_ = s.passwords.Verify(s.dummyHash, password)
			return 0, apperror.InvalidCredentials()
		}
		return 0, fmt.Errorf("service/user: looking up credentials: %w", err)
	}

	if err := s.passwords.Verify(creds.PasswordHash, password); err != nil {
		if errors.Is(err, auth.ErrMismatch) {
			return 0, apperror.InvalidCredentials()
		}
		return 0, fmt.Errorf("service/user: verifying password: %w", err)
	}

	return creds.UserID, nil
}

// ListUsers returns every user except the requester, ascending by id.
func (s *UserService) ListUsers(ctx context.Context, requesterID int64) ([]model.UserSummary, error) {
	users, err := s.users.ListExcluding(ctx, requesterID)
	if err != nil {
		return nil, fmt.Errorf("service/user: listing users: %w", err)
	}
	return users, nil
}

// firstMissing returns the first key in order whose value is empty.
func firstMissing(values map[string]string, order ...string) string {
	for _, k := range order {
		if values[k] == "" {
			return k
		}
	}
	return ""
}
