package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sakif/messaging-api/internal/auth"
	"github.com/sakif/messaging-api/internal/model"
	"github.com/sakif/messaging-api/internal/repository/memory"
)

// =========================================================================
// TEST HELPERS
// =========================================================================
//
// Most tests run against the real in-memory store. It honours the same
// contracts as the SQL stores, so nothing here needs a hand-written mock.
// brokenStore is the exception: it simulates the database going away.

var errStoreDown = errors.New("store down")

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newServices builds both services on one fresh store. bcrypt runs at its
// minimum cost so the suite stays fast.
func newServices(t *testing.T) (*UserService, *MessageService, *memory.Store) {
	t.Helper()
	store := memory.New()
	users, err := NewUserService(store, auth.NewPasswordServiceWithCost(4), discardLogger())
	require.NoError(t, err)
	return users, NewMessageService(store, discardLogger()), store
}

func register(t *testing.T, s *UserService, email string) *model.User {
	t.Helper()
	u, err := s.Register(context.Background(), RegisterInput{
		Email: email, Password: "hunter22", FirstName: "First", LastName: "Last",
	})
	require.NoError(t, err)
	return u
}

// brokenStore fails every call.
type brokenStore struct{}

func (brokenStore) EmailExists(context.Context, string) (bool, error) { return false, errStoreDown }
func (brokenStore) Create(context.Context, *model.User) error        { return errStoreDown }
func (brokenStore) FindCredentialsByEmail(context.Context, string) (*model.Credentials, error) {
	return nil, errStoreDown
}
func (brokenStore) ListExcluding(context.Context, int64) ([]model.UserSummary, error) {
	return nil, errStoreDown
}
func (brokenStore) ListConversation(context.Context, int64, int64) ([]model.Message, error) {
	return nil, errStoreDown
}
func (brokenStore) ExistingUserIDs(context.Context, ...int64) (map[int64]bool, error) {
	return nil, errStoreDown
}
func (brokenStore) Insert(context.Context, *model.Message) error { return errStoreDown }
