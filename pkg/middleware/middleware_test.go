package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"contacts-api/internal/data/entity"
	"contacts-api/internal/usecase"
	"contacts-api/pkg/utils"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type stubResolver struct {
	users map[string]*entity.User
	err   error
}

func (s *stubResolver) Resolve(_ context.Context, bearer string) (*entity.User, error) {
	if s.err != nil {
		return nil, s.err
	}
	u, ok := s.users[bearer]
	if !ok {
		return nil, usecase.ErrUnauthenticated
	}
	return u, nil
}

func newUser(id int64, role entity.UserRole, active bool) *entity.User {
	return &entity.User{
		Base:     entity.Base{ID: id},
		Email:    "user@example.com",
		IsActive: active,
		Role:     role,
	}
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) utils.Response {
	t.Helper()
	var resp utils.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func identityEcho(w http.ResponseWriter, r *http.Request) {
	user, _ := utils.GetIdentityFromContext(r.Context())
	token, _ := utils.GetTokenFromContext(r.Context())
	utils.ResponseSuccess(w, "ok", map[string]any{"id": user.ID, "token": token})
}

func TestAuthenticate(t *testing.T) {
	resolver := &stubResolver{users: map[string]*entity.User{
		"good": newUser(7, entity.RoleUser, true),
	}}

	tests := []struct {
		name       string
		header     string
		wantStatus int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic good", http.StatusUnauthorized},
		{"empty token", "Bearer ", http.StatusUnauthorized},
		{"unknown token", "Bearer nope", http.StatusUnauthorized},
		{"valid token", "Bearer good", http.StatusOK},
		{"lowercase scheme", "bearer good", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := Authenticate(resolver, zap.NewNop())(http.HandlerFunc(identityEcho))

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantStatus == http.StatusUnauthorized {
				assert.Equal(t, "Bearer", rec.Header().Get("WWW-Authenticate"))
				assert.False(t, decodeEnvelope(t, rec).Status)
			} else {
				data := decodeEnvelope(t, rec).Data.(map[string]any)
				assert.EqualValues(t, 7, data["id"])
				assert.Equal(t, "good", data["token"])
			}
		})
	}
}

func TestAuthenticate_ResolverFailureIs500(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	resolver := &stubResolver{err: usecase.ErrStoreUnavailable}
	h := Authenticate(resolver, zap.New(core))(http.HandlerFunc(identityEcho))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer good")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Empty(t, rec.Header().Get("WWW-Authenticate"))
	assert.Equal(t, 1, logs.FilterMessage("Failed to resolve identity").Len())
}

func TestRequireActiveAndAdmin(t *testing.T) {
	tests := []struct {
		name       string
		user       *entity.User
		wantActive int
		wantAdmin  int
	}{
		{"no identity", nil, http.StatusUnauthorized, http.StatusUnauthorized},
		{"inactive user", newUser(1, entity.RoleUser, false), http.StatusForbidden, http.StatusForbidden},
		{"active user", newUser(2, entity.RoleUser, true), http.StatusOK, http.StatusForbidden},
		{"active admin", newUser(3, entity.RoleAdmin, true), http.StatusOK, http.StatusOK},
	}

	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			serve := func(mw func(http.Handler) http.Handler) *httptest.ResponseRecorder {
				req := httptest.NewRequest(http.MethodGet, "/", nil)
				if tt.user != nil {
					req = req.WithContext(utils.SetIdentityContext(req.Context(), tt.user))
				}
				rec := httptest.NewRecorder()
				mw(ok).ServeHTTP(rec, req)
				return rec
			}

			assert.Equal(t, tt.wantActive, serve(RequireActive(zap.NewNop())).Code)

			// admin routes always sit behind RequireActive
			chain := func(next http.Handler) http.Handler {
				return RequireActive(zap.NewNop())(RequireAdmin(zap.NewNop())(next))
			}
			assert.Equal(t, tt.wantAdmin, serve(chain).Code)
		})
	}
}

func TestRequireAdmin_Message(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(utils.SetIdentityContext(req.Context(), newUser(2, entity.RoleUser, true)))
	rec := httptest.NewRecorder()

	RequireAdmin(zap.NewNop())(http.NotFoundHandler()).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "The user doesn't have enough privileges", decodeEnvelope(t, rec).Message)
}

func TestCORS(t *testing.T) {
	called := false
	h := CORS("https://app.example.com")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	preflight := httptest.NewRequest(http.MethodOptions, "/api/contacts", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, preflight)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.False(t, called)
	assert.Equal(t, "https://app.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Headers"), "Authorization")

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/contacts", nil))
	assert.True(t, called)

	rec = httptest.NewRecorder()
	CORS("")(http.NotFoundHandler()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Credentials"))
}

type httpCall struct {
	method, route string
	status        int
}

type recordingHTTP struct {
	mu    sync.Mutex
	calls []httpCall
}

func (r *recordingHTTP) RecordHTTPRequest(method, route string, status int, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, httpCall{method, route, status})
}

func TestLogger_RecordsRoutePattern(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	rec := &recordingHTTP{}

	r := chi.NewRouter()
	r.Use(Logger(zap.New(core), rec))
	r.Get("/api/contacts/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte("short"))
	})

	for _, path := range []string{"/api/contacts/1", "/api/contacts/2", "/nowhere"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	require.Len(t, rec.calls, 3)
	assert.Equal(t, httpCall{http.MethodGet, "/api/contacts/{id}", http.StatusTeapot}, rec.calls[0])
	assert.Equal(t, "/api/contacts/{id}", rec.calls[1].route)
	assert.Equal(t, http.StatusNotFound, rec.calls[2].status)

	entries := logs.FilterMessage("HTTP request").All()
	require.Len(t, entries, 3)
	fields := entries[0].ContextMap()
	assert.Equal(t, "/api/contacts/1", fields["path"])
	assert.EqualValues(t, http.StatusTeapot, fields["status"])
	assert.EqualValues(t, 5, fields["bytes"])
}

func TestRecover(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	h := Recover(zap.New(core))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.False(t, decodeEnvelope(t, rec).Status)
	assert.Equal(t, 1, logs.FilterMessage("PANIC recovered").Len())
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{RequestsPerMinute: 60, Burst: 2}, zap.NewNop())
	defer rl.Stop()

	h := rl.Middleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	serve := func(user *entity.User) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/api/contacts", nil)
		if user != nil {
			req = req.WithContext(utils.SetIdentityContext(req.Context(), user))
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	alice := newUser(1, entity.RoleUser, true)
	bob := newUser(2, entity.RoleUser, true)

	assert.Equal(t, http.StatusOK, serve(alice).Code)
	assert.Equal(t, http.StatusOK, serve(alice).Code)

	limited := serve(alice)
	assert.Equal(t, http.StatusTooManyRequests, limited.Code)
	assert.Equal(t, "1", limited.Header().Get("Retry-After"))

	// buckets are per user
	assert.Equal(t, http.StatusOK, serve(bob).Code)
	assert.Equal(t, 2, rl.Count())

	assert.Equal(t, http.StatusUnauthorized, serve(nil).Code)
}

func TestRateLimiter_Cleanup(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{RequestsPerMinute: 60, CleanupInterval: time.Hour}, zap.NewNop())
	defer rl.Stop()

	rl.limiterFor(1)
	rl.limiterFor(2)
	require.Equal(t, 2, rl.Count())

	rl.cleanup(time.Now().Add(time.Hour))
	assert.Equal(t, 2, rl.Count())

	rl.cleanup(time.Now().Add(3 * time.Hour))
	assert.Equal(t, 0, rl.Count())

	rl.Stop()
	rl.Stop()
}
