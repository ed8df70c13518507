package apiclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coursehub-backend/internal/curriculum"
	"coursehub-backend/internal/models"
)

func writeEnvelope(w http.ResponseWriter, status int, env Envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(env)
}

func rawJSON(t *testing.T, v interface{}) json.RawMessage {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return data
}

func TestLoginStoresToken(t *testing.T) {
	var seenAuth atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v1/auth/login":
			var req models.LoginRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, "ada@example.com", req.Email)
			writeEnvelope(w, http.StatusOK, Envelope{Success: true, Data: rawJSON(t, models.AuthResponse{
				Token: "token-123",
				User:  models.User{ID: 7, Email: req.Email},
			})})
		case "/api/v1/auth/me":
			seenAuth.Store(r.Header.Get("Authorization"))
			writeEnvelope(w, http.StatusOK, Envelope{Success: true, Data: rawJSON(t, models.User{ID: 7})})
		default:
			writeEnvelope(w, http.StatusNotFound, Envelope{Message: "not found"})
		}
	}))
	defer srv.Close()

	client := New(srv.URL)
	auth, err := client.Login(context.Background(), "ada@example.com", "secret")
	require.NoError(t, err)
	assert.Equal(t, uint(7), auth.User.ID)

	me, err := client.Me(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint(7), me.ID)
	assert.Equal(t, "Bearer token-123", seenAuth.Load())
}

func TestFieldErrorsAreDecoded(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/course-drafts/d1/next", r.URL.Path)
		writeEnvelope(w, http.StatusUnprocessableEntity, Envelope{
			Message: "step basic is incomplete",
			Data:    rawJSON(t, map[string]string{"basic.title": "is required"}),
		})
	}))
	defer srv.Close()

	_, err := New(srv.URL).DraftNext(context.Background(), "d1")
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnprocessableEntity, apiErr.Status)
	assert.Equal(t, "step basic is incomplete", apiErr.Message)
	assert.Equal(t, "is required", apiErr.Fields["basic.title"])
	assert.True(t, IsStatus(err, http.StatusUnprocessableEntity))
}

func TestApplyCurriculumSendsOperation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var op curriculum.Operation
		require.NoError(t, json.NewDecoder(r.Body).Decode(&op))
		assert.Equal(t, curriculum.OpDeleteModule, op.Kind)
		assert.Equal(t, 2, op.Module)
		assert.True(t, op.Confirmed)
		writeEnvelope(w, http.StatusOK, Envelope{Success: true, Data: json.RawMessage(`{"curriculum":{"modules":[]},"notices":[],"issues":[]}`)})
	}))
	defer srv.Close()

	result, err := New(srv.URL).ApplyCurriculum(context.Background(), "d1", curriculum.Operation{
		Kind:      curriculum.OpDeleteModule,
		Module:    2,
		Confirmed: true,
	})
	require.NoError(t, err)
	assert.Equal(t, 0, result.Curriculum.Len())
}

func TestNonEnvelopeResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gateway exploded", http.StatusBadRequest)
	}))
	defer srv.Close()

	_, err := New(srv.URL).SearchTags(context.Background(), "go")
	require.Error(t, err)
	assert.True(t, IsStatus(err, http.StatusBadRequest))
}

func TestDebouncerRunsOnlyLastCall(t *testing.T) {
	d := NewDebouncer(20 * time.Millisecond)

	var (
		mu    sync.Mutex
		calls []int
		done  = make(chan struct{})
	)
	for i := 1; i <= 3; i++ {
		i := i
		d.Trigger(func() {
			mu.Lock()
			calls = append(calls, i)
			mu.Unlock()
			close(done)
		})
	}

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("debounced call never ran")
	}
	time.Sleep(40 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []int{3}, calls)
}

func TestSuggesterCancelsSupersededLookup(t *testing.T) {
	slowStarted := make(chan struct{})
	delivered := make(chan string, 4)
	var cancelled atomic.Bool

	fetch := func(ctx context.Context, query string) (string, error) {
		if query == "go" {
			close(slowStarted)
			<-ctx.Done()
			cancelled.Store(true)
			return "", ctx.Err()
		}
		return "result for " + query, nil
	}
	deliver := func(query, result string, err error) {
		delivered <- result
	}

	s := NewSuggester(context.Background(), 10*time.Millisecond, fetch, deliver)
	defer s.Close()

	s.Update("go")
	select {
	case <-slowStarted:
	case <-time.After(time.Second):
		t.Fatal("first lookup never started")
	}

	s.Update("golang")
	select {
	case result := <-delivered:
		assert.Equal(t, "result for golang", result)
	case <-time.After(time.Second):
		t.Fatal("second lookup never delivered")
	}

	require.Eventually(t, cancelled.Load, time.Second, 5*time.Millisecond)
	assert.Len(t, delivered, 0)
}
