// Package repository declares the store accessor contracts.
//
// The service layer depends only on these interfaces. Concrete
// implementations live in the sqlite, postgres and memory subpackages.
//
// Every method is a single statement against the store; none of them opens a
// transaction that spans more than one call.
package repository

import (
	"context"

	"github.com/sakif/messaging-api/internal/model"
)

// UserRepository is the User Store Accessor.
type UserRepository interface {
	// EmailExists reports whether a user with exactly this email exists.
	EmailExists(ctx context.Context, email string) (bool, error)

	// Create inserts the user and sets user.ID. A uniqueness violation on
	// email is returned as an apperror.ErrConflict.
	Create(ctx context.Context, user *model.User) error

	// FindCredentialsByEmail returns apperror.ErrNotFound when no user has
	// this email.
	FindCredentialsByEmail(ctx context.Context, email string) (*model.Credentials, error)

	// ListExcluding returns every user except requesterID, ordered by id
	// ascending. requesterID does not have to exist.
	ListExcluding(ctx context.Context, requesterID int64) ([]model.UserSummary, error)
}

// MessageRepository is the Message Store Accessor.
type MessageRepository interface {
	// ListConversation returns the messages exchanged between a and b in
	// both directions, oldest first.
	ListConversation(ctx context.Context, a, b int64) ([]model.Message, error)

	// ExistingUserIDs returns the subset of ids that belong to a user.
	ExistingUserIDs(ctx context.Context, ids ...int64) (map[int64]bool, error)

	// Insert stores the message and sets msg.ID.
	Insert(ctx context.Context, msg *model.Message) error
}

// Pinger is a trivial store probe used by the health endpoint.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Store bundles everything one backing database provides.
type Store interface {
	UserRepository
	MessageRepository
	Pinger
	Close() error
}
