package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/angelmondragon/vapevault-backend/pkg/errors"
)

type fakeCounter struct {
	mu     sync.Mutex
	hits   map[string]int64
	scopes []string
	err    error
}

func newFakeCounter() *fakeCounter {
	return &fakeCounter{hits: map[string]int64{}}
}

func (f *fakeCounter) FixedWindowAllow(_ context.Context, scope string, limit int64, _ time.Duration) (bool, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return false, 0, f.err
	}
	f.scopes = append(f.scopes, scope)
	f.hits[scope]++
	return f.hits[scope] <= limit, f.hits[scope], nil
}

func okHandler(status int) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
	})
}

func loginRequest(email, remote string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(`{"email":"`+email+`","password":"secret"}`))
	req.RemoteAddr = remote
	return req
}

func TestRateLimitKeepsBodyForHandler(t *testing.T) {
	handler := RateLimit(NewRateLimitPolicy("login", time.Minute, 2, 2), newFakeCounter(), nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		assert.Contains(t, string(body), `"email":"tester@example.com"`)
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, loginRequest("tester@example.com", "1.2.3.4:5678"))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRateLimitEmailDimension(t *testing.T) {
	counter := newFakeCounter()
	handler := RateLimit(NewRateLimitPolicy("login", time.Minute, 0, 2), counter, nil)(okHandler(http.StatusOK))

	var rec *httptest.ResponseRecorder
	for _, email := range []string{"blocked@example.com", " Blocked@Example.com", "BLOCKED@example.com"} {
		rec = httptest.NewRecorder()
		handler.ServeHTTP(rec, loginRequest(email, "1.2.3.4:5678"))
	}

	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))
	var payload struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	assert.Equal(t, string(pkgerrors.CodeRateLimit), payload.Error.Code)

	require.Len(t, counter.hits, 1)
	for scope := range counter.hits {
		assert.True(t, strings.HasPrefix(scope, "email:login:"))
		assert.NotContains(t, scope, "blocked@example.com")
	}
}

func TestRateLimitIPDimension(t *testing.T) {
	handler := RateLimit(NewRateLimitPolicy("signup", time.Minute, 1, 0), newFakeCounter(), nil)(okHandler(http.StatusOK))

	first := httptest.NewRecorder()
	handler.ServeHTTP(first, loginRequest("a@example.com", "5.6.7.8:1234"))
	second := httptest.NewRecorder()
	handler.ServeHTTP(second, loginRequest("b@example.com", "5.6.7.8:4321"))
	other := httptest.NewRecorder()
	handler.ServeHTTP(other, loginRequest("c@example.com", "9.9.9.9:1"))

	assert.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
	assert.Equal(t, http.StatusOK, other.Code)
}

func TestRateLimitStorefrontErrorBody(t *testing.T) {
	policy := NewRateLimitPolicy("chat", time.Minute, 1, 0).WithStorefrontErrors()
	handler := RateLimit(policy, newFakeCounter(), nil)(okHandler(http.StatusOK))

	var rec *httptest.ResponseRecorder
	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(`{"messages":[]}`))
		req.RemoteAddr = "9.9.9.9:1000"
		rec = httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
	}

	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	var payload struct {
		Error string `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	assert.Equal(t, "rate limit exceeded", payload.Error)
}

func TestRateLimitCounterFailure(t *testing.T) {
	counter := newFakeCounter()
	counter.err = errors.New("connection refused")
	handler := RateLimit(NewRateLimitPolicy("chat", time.Minute, 1, 0), counter, nil)(okHandler(http.StatusOK))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/chat", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestRateLimitDisabledPolicyPassesThrough(t *testing.T) {
	handler := RateLimit(NewRateLimitPolicy("chat", 0, 0, 0), newFakeCounter(), nil)(okHandler(http.StatusNoContent))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/chat", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.9:443"
	assert.Equal(t, "10.0.0.9", clientIP(req))

	req.Header.Set("X-Real-IP", "172.16.0.1")
	assert.Equal(t, "172.16.0.1", clientIP(req))

	req.Header.Set("X-Forwarded-For", " 203.0.113.7 , 10.0.0.1")
	assert.Equal(t, "203.0.113.7", clientIP(req))
}
