package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/messaging-api/internal/config"
	"github.com/sakif/messaging-api/internal/middleware"
	"github.com/sakif/messaging-api/internal/repository/memory"
)

func testConfig() *config.Config {
	cfg := config.Defaults()
	cfg.Port = 0 // any free port
	cfg.BcryptCost = 4
	cfg.DB.Driver = config.DriverMemory
	return &cfg
}

func newTestServer(t *testing.T) (*httptest.Server, *memory.Store) {
	t.Helper()
	store := memory.New()
	s, err := New(testConfig(), store, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)

	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return ts, store
}

func call(t *testing.T, ts *httptest.Server, method, path, body string) (int, map[string]any) {
	t.Helper()
	req, err := http.NewRequest(method, ts.URL+path, strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := ts.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp.StatusCode, out
}

func registerUser(t *testing.T, ts *httptest.Server, email string) int64 {
	t.Helper()
	status, body := call(t, ts, http.MethodPost, "/register",
		fmt.Sprintf(`{"email":%q,"password":"pw","first_name":"F","last_name":"L"}`, email))
	require.Equal(t, http.StatusCreated, status, body)
	return int64(body["user_id"].(float64))
}

// =========================================================================
// END-TO-END FLOWS
// =========================================================================

func TestEndToEnd_Conversation(t *testing.T) {
	ts, _ := newTestServer(t)

	a := registerUser(t, ts, "a@x.com")
	b := registerUser(t, ts, "b@x.com")

	status, body := call(t, ts, http.MethodPost, "/login", `{"email":"a@x.com","password":"pw"}`)
	require.Equal(t, http.StatusOK, status)
	assert.EqualValues(t, a, body["user_id"])

	status, body = call(t, ts, http.MethodGet, fmt.Sprintf("/list_all_users?requester_user_id=%d", a), "")
	require.Equal(t, http.StatusOK, status)
	users := body["users"].([]any)
	require.Len(t, users, 1)
	assert.EqualValues(t, b, users[0].(map[string]any)["user_id"])

	for i, pair := range [][2]int64{{a, b}, {b, a}, {a, b}} {
		status, body = call(t, ts, http.MethodPost, "/send_message",
			fmt.Sprintf(`{"sender_user_id":%d,"receiver_user_id":%d,"message":"m%d"}`, pair[0], pair[1], i))
		require.Equal(t, http.StatusOK, status, body)
		assert.Equal(t, "Message Sent", body["success_title"])
	}

	status, body = call(t, ts, http.MethodGet, fmt.Sprintf("/view_messages?user_id_a=%d&user_id_b=%d", b, a), "")
	require.Equal(t, http.StatusOK, status)
	msgs := body["messages"].([]any)
	require.Len(t, msgs, 3)
	assert.Equal(t, "m2", msgs[2].(map[string]any)["message"], "the newest message is last")
}

func TestEndToEnd_ErrorEnvelope(t *testing.T) {
	ts, _ := newTestServer(t)
	a := registerUser(t, ts, "a@x.com")

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		status int
		code   float64
	}{
		{"duplicate email", http.MethodPost, "/register", `{"email":"A@x.com","password":"p","first_name":"F","last_name":"L"}`, 409, 102},
		{"bad login", http.MethodPost, "/login", `{"email":"a@x.com","password":"wrong"}`, 401, 101},
		{"self message", http.MethodPost, "/send_message", fmt.Sprintf(`{"sender_user_id":%d,"receiver_user_id":%d,"message":"x"}`, a, a), 400, 103},
		{"unknown receiver", http.MethodPost, "/send_message", fmt.Sprintf(`{"sender_user_id":%d,"receiver_user_id":404,"message":"x"}`, a), 404, 104},
		{"missing requester", http.MethodGet, "/list_all_users", "", 400, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := call(t, ts, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.status, status)
			assert.Equal(t, tt.code, body["error_code"])
			assert.Len(t, body, 3, "envelope has exactly error_code, error_title, error_message")
		})
	}
}

func TestHealth_FollowsStore(t *testing.T) {
	ts, store := newTestServer(t)

	status, body := call(t, ts, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, body["ok"])

	require.NoError(t, store.Close())
	status, body = call(t, ts, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, false, body["ok"])
}

func TestRequestIDHeaderOnEveryResponse(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, err := ts.Client().Get(ts.URL + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.NotEmpty(t, resp.Header.Get(middleware.RequestIDHeader))
}

func TestUnknownRouteAndMethod(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, err := ts.Client().Get(ts.URL + "/nope")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, err = ts.Client().Get(ts.URL + "/send_message")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

// Concurrent registrations of one email: exactly one 201, the rest 409.
func TestConcurrentDuplicateRegistration(t *testing.T) {
	ts, _ := newTestServer(t)
	const n = 8

	var wg sync.WaitGroup
	statuses := make(chan int, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			resp, err := ts.Client().Post(ts.URL+"/register", "application/json",
				strings.NewReader(`{"email":"same@x.com","password":"pw","first_name":"F","last_name":"L"}`))
			if !assert.NoError(t, err) {
				return
			}
			resp.Body.Close()
			statuses <- resp.StatusCode
		}()
	}
	wg.Wait()
	close(statuses)

	counts := map[int]int{}
	for s := range statuses {
		counts[s]++
	}
	assert.Equal(t, map[int]int{http.StatusCreated: 1, http.StatusConflict: n - 1}, counts)
}

// =========================================================================
// LIFECYCLE
// =========================================================================

func TestRun_ShutsDownAndClosesStore(t *testing.T) {
	store := memory.New()
	s, err := New(testConfig(), store, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
	assert.ErrorIs(t, store.Ping(context.Background()), memory.ErrClosed)
}

func TestOpenStore(t *testing.T) {
	ctx := context.Background()

	t.Run("memory", func(t *testing.T) {
		store, err := OpenStore(ctx, config.DBConfig{Driver: config.DriverMemory})
		require.NoError(t, err)
		assert.NoError(t, store.Ping(ctx))
		assert.NoError(t, store.Close())
	})

	t.Run("sqlite creates the data directory", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "nested", "dir", "messages.db")
		store, err := OpenStore(ctx, config.DBConfig{Driver: config.DriverSQLite, Path: path, PoolSize: 2})
		require.NoError(t, err)
		defer store.Close()
		assert.NoError(t, store.Ping(ctx))
		assert.FileExists(t, path)
	})

	t.Run("unknown driver", func(t *testing.T) {
		store, err := OpenStore(ctx, config.DBConfig{Driver: "mysql"})
		assert.Error(t, err)
		assert.Nil(t, store)
	})
}
