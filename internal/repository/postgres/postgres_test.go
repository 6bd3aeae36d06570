package postgres

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/messaging-api/internal/apperror"
	"github.com/sakif/messaging-api/internal/model"
)

// sqlmock options have type func(*sqlmock.sqlmock) error, which cannot be
// named outside the package, so they are passed as any and asserted back.
func newRepoWithMock(t *testing.T, opts ...any) (*DB, sqlmock.Sqlmock) {
	t.Helper()
	conn, mock, err := sqlmock.New(mockOptions(opts, sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))...)
	require.NoError(t, err)
	t.Cleanup(func() {
		conn.Close()
	})
	return NewFromConn(conn), mock
}

func mockOptions[O any](opts []any, last O) []O {
	out := make([]O, 0, len(opts)+1)
	for _, o := range opts {
		out = append(out, o.(O))
	}
	return append(out, last)
}

func TestCreate_Success(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`INSERT INTO users \(email, password_hash, first_name, last_name\)\s+VALUES \(\$1, \$2, \$3, \$4\)\s+RETURNING id`).
		WithArgs("a@x.com", "hash", "A", "B").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(7)))

	u := &model.User{Email: "a@x.com", PasswordHash: "hash", FirstName: "A", LastName: "B"}
	require.NoError(t, repo.Create(context.Background(), u))
	assert.Equal(t, int64(7), u.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreate_UniqueViolationIsConflict(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`INSERT INTO users`).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "users_email_key"})

	err := repo.Create(context.Background(), &model.User{Email: "a@x.com"})
	assert.ErrorIs(t, err, apperror.ErrConflict)
}

func TestCreate_OtherErrorIsWrapped(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`INSERT INTO users`).WillReturnError(errors.New("db down"))

	err := repo.Create(context.Background(), &model.User{Email: "a@x.com"})
	require.Error(t, err)
	assert.NotErrorIs(t, err, apperror.ErrConflict)
	assert.Contains(t, err.Error(), "db down")
}

func TestEmailExists(t *testing.T) {
	for _, want := range []bool{true, false} {
		repo, mock := newRepoWithMock(t)
		mock.ExpectQuery(`SELECT EXISTS \(SELECT 1 FROM users WHERE email = \$1\)`).
			WithArgs("a@x.com").
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(want))

		got, err := repo.EmailExists(context.Background(), "a@x.com")
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}

func TestFindCredentialsByEmail(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`SELECT id, password_hash FROM users WHERE email = \$1`).
		WithArgs("a@x.com").
		WillReturnRows(sqlmock.NewRows([]string{"id", "password_hash"}).AddRow(int64(3), "$2a$10$hash"))

	creds, err := repo.FindCredentialsByEmail(context.Background(), "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, &model.Credentials{UserID: 3, PasswordHash: "$2a$10$hash"}, creds)
}

func TestFindCredentialsByEmail_NotFound(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`SELECT id, password_hash FROM users`).
		WithArgs("nobody@x.com").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindCredentialsByEmail(context.Background(), "nobody@x.com")
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestListExcluding(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`SELECT id, email, first_name, last_name\s+FROM users\s+WHERE id <> \$1\s+ORDER BY id ASC`).
		WithArgs(int64(2)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "first_name", "last_name"}).
			AddRow(int64(1), "a@x.com", "A", "A").
			AddRow(int64(3), "c@x.com", "C", "C"))

	users, err := repo.ListExcluding(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, int64(1), users[0].ID)
	assert.Equal(t, int64(3), users[1].ID)
}

func TestListExcluding_EmptyIsNotNil(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`SELECT id, email`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "first_name", "last_name"}))

	users, err := repo.ListExcluding(context.Background(), 1)
	require.NoError(t, err)
	assert.NotNil(t, users)
	assert.Empty(t, users)
}

func TestListConversation(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`FROM messages\s+WHERE \(sender_user_id = \$1 AND receiver_user_id = \$2\)\s+OR \(sender_user_id = \$2 AND receiver_user_id = \$1\)\s+ORDER BY created_at ASC, id ASC`).
		WithArgs(int64(1), int64(2)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "sender_user_id", "receiver_user_id", "message", "epoch"}).
			AddRow(int64(10), int64(1), int64(2), "hey", int64(1700000000)).
			AddRow(int64(11), int64(2), int64(1), "yo", int64(1700000005)))

	msgs, err := repo.ListConversation(context.Background(), 1, 2)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, model.Message{ID: 10, SenderID: 1, ReceiverID: 2, Body: "hey", Epoch: 1700000000}, msgs[0])
	assert.Equal(t, int64(2), msgs[1].SenderID)
}

func TestListConversation_QueryError(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`FROM messages`).WillReturnError(errors.New("boom"))

	_, err := repo.ListConversation(context.Background(), 1, 2)
	assert.ErrorContains(t, err, "postgres: listing conversation")
}

func TestExistingUserIDs(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`SELECT id FROM users WHERE id IN \(\$1, \$2\)`).
		WithArgs(int64(1), int64(9)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(1)))

	found, err := repo.ExistingUserIDs(context.Background(), 1, 9)
	require.NoError(t, err)
	assert.Equal(t, map[int64]bool{1: true}, found)
}

func TestExistingUserIDs_NoIDsSkipsQuery(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	found, err := repo.ExistingUserIDs(context.Background())
	require.NoError(t, err)
	assert.Empty(t, found)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInsert(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`INSERT INTO messages \(sender_user_id, receiver_user_id, message\)\s+VALUES \(\$1, \$2, \$3\)\s+RETURNING id`).
		WithArgs(int64(1), int64(2), "hello").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(42)))

	msg := &model.Message{SenderID: 1, ReceiverID: 2, Body: "hello"}
	require.NoError(t, repo.Insert(context.Background(), msg))
	assert.Equal(t, int64(42), msg.ID)
}

func TestPing(t *testing.T) {
	repo, mock := newRepoWithMock(t, sqlmock.MonitorPingsOption(true))

	mock.ExpectPing()
	assert.NoError(t, repo.Ping(context.Background()))

	mock.ExpectPing().WillReturnError(errors.New("unreachable"))
	assert.ErrorContains(t, repo.Ping(context.Background()), "unreachable")
}
