// Package memory is an in-process implementation of repository.Store.
//
// It keeps the same contracts as the SQL stores (store-assigned ids, unique
// emails, conversation ordering) and is safe for concurrent use. Nothing
// survives a restart, so it backs tests and throwaway local runs
// (DB_DRIVER=memory), never production.
package memory

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/sakif/messaging-api/internal/apperror"
	"github.com/sakif/messaging-api/internal/model"
	"github.com/sakif/messaging-api/internal/repository"
)

var _ repository.Store = (*Store)(nil)

// ErrClosed is returned by every method after Close.
var ErrClosed = errors.New("memory: store closed")

type Store struct {
	mu       sync.RWMutex
	now      func() time.Time
	closed   bool
	users    []model.User // ascending by ID
	byEmail  map[string]int64
	messages []model.Message // ascending by (Epoch, ID)
	nextUser int64
	nextMsg  int64
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the clock used to timestamp messages.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func New(opts ...Option) *Store {
	s := &Store{
		now:     time.Now,
		byEmail: make(map[string]int64),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) Ping(context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrClosed
	}
	return nil
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *Store) EmailExists(_ context.Context, email string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return false, ErrClosed
	}
	_, ok := s.byEmail[email]
	return ok, nil
}

func (s *Store) Create(_ context.Context, user *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	if _, ok := s.byEmail[user.Email]; ok {
		return apperror.Conflict("A user with that email already exists.")
	}

	s.nextUser++
	user.ID = s.nextUser
	user.CreatedAt = s.now()
	s.users = append(s.users, *user)
	s.byEmail[user.Email] = user.ID
	return nil
}

func (s *Store) FindCredentialsByEmail(_ context.Context, email string) (*model.Credentials, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}
	id, ok := s.byEmail[email]
	if !ok {
		return nil, apperror.NotFound("No user exists with that email.")
	}
	u := s.users[s.indexOf(id)]
	return &model.Credentials{UserID: u.ID, PasswordHash: u.PasswordHash}, nil
}

func (s *Store) ListExcluding(_ context.Context, requesterID int64) ([]model.UserSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}
	out := make([]model.UserSummary, 0, len(s.users))
	for _, u := range s.users {
		if u.ID == requesterID {
			continue
		}
		out = append(out, model.UserSummary{ID: u.ID, Email: u.Email, FirstName: u.FirstName, LastName: u.LastName})
	}
	return out, nil
}

func (s *Store) ListConversation(_ context.Context, a, b int64) ([]model.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}
	out := make([]model.Message, 0)
	for _, m := range s.messages {
		if (m.SenderID == a && m.ReceiverID == b) || (m.SenderID == b && m.ReceiverID == a) {
			out = append(out, m)
		}
	}
	return out, nil
}

func (s *Store) ExistingUserIDs(_ context.Context, ids ...int64) (map[int64]bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}
	found := make(map[int64]bool, len(ids))
	for _, id := range ids {
		if s.indexOf(id) >= 0 {
			found[id] = true
		}
	}
	return found, nil
}

// Insert enforces the same integrity rules the SQL schemas do.
func (s *Store) Insert(_ context.Context, msg *model.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	if msg.SenderID == msg.ReceiverID {
		return errors.New("memory: sender and receiver must differ")
	}
	if s.indexOf(msg.SenderID) < 0 || s.indexOf(msg.ReceiverID) < 0 {
		return errors.New("memory: message references an unknown user")
	}

	s.nextMsg++
	msg.ID = s.nextMsg
	msg.Epoch = s.now().Unix()
	s.messages = append(s.messages, *msg)

	// A clock that goes backwards must not break oldest-first ordering.
	sort.SliceStable(s.messages, func(i, j int) bool {
		if s.messages[i].Epoch != s.messages[j].Epoch {
			return s.messages[i].Epoch < s.messages[j].Epoch
		}
		return s.messages[i].ID < s.messages[j].ID
	})
	return nil
}

// indexOf finds a user by id. Callers must hold s.mu.
func (s *Store) indexOf(id int64) int {
	i := sort.Search(len(s.users), func(i int) bool { return s.users[i].ID >= id })
	if i < len(s.users) && s.users[i].ID == id {
		return i
	}
	return -1
}
