package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sm4rtm4art/go-api-template/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeValidator struct {
	claims *Claims
	err    error
}

func (v *fakeValidator) ValidateToken(ctx context.Context, token string) (*Claims, error) {
	if v.err != nil {
		return nil, v.err
	}
	return v.claims, nil
}

type fakeUserLoader struct {
	users map[string]*models.User
}

func (l *fakeUserLoader) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	if u, ok := l.users[username]; ok {
		return u, nil
	}
	return nil, errors.New("user not found")
}

func activeUser(username string) *models.User {
	return &models.User{Username: username, IsActive: true}
}

func okHandler(called *bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*called = true
		w.WriteHeader(http.StatusOK)
	})
}

func TestRequireAuth(t *testing.T) {
	t.Run("valid token loads user into context", func(t *testing.T) {
		user := activeUser("alice")
		m := NewAuthMiddleware(
			&fakeValidator{claims: &Claims{Username: "alice", TokenType: "access", Fresh: true}},
			&fakeUserLoader{users: map[string]*models.User{"alice": user}},
			zap.NewNop(),
		)

		var gotUser *models.User
		var gotClaims *Claims
		handler := m.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotUser = GetUserFromContext(r.Context())
			gotClaims = GetClaimsFromContext(r.Context())
			w.WriteHeader(http.StatusOK)
		}))

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer some-token")
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		require.NotNil(t, gotUser)
		assert.Equal(t, "alice", gotUser.Username)
		require.NotNil(t, gotClaims)
		assert.True(t, gotClaims.Fresh)
	})

	t.Run("missing authorization header", func(t *testing.T) {
		var called bool
		m := NewAuthMiddleware(&fakeValidator{}, &fakeUserLoader{}, zap.NewNop())
		handler := m.RequireAuth(okHandler(&called))

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.False(t, called)
	})

	t.Run("malformed authorization header", func(t *testing.T) {
		var called bool
		m := NewAuthMiddleware(&fakeValidator{}, &fakeUserLoader{}, zap.NewNop())
		handler := m.RequireAuth(okHandler(&called))

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.False(t, called)
	})

	t.Run("invalid token", func(t *testing.T) {
		var called bool
		m := NewAuthMiddleware(
			&fakeValidator{err: errors.New("bad signature")},
			&fakeUserLoader{},
			zap.NewNop(),
		)
		handler := m.RequireAuth(okHandler(&called))

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer bad-token")
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.False(t, called)
	})

	t.Run("token subject no longer exists", func(t *testing.T) {
		var called bool
		m := NewAuthMiddleware(
			&fakeValidator{claims: &Claims{Username: "ghost"}},
			&fakeUserLoader{},
			zap.NewNop(),
		)
		handler := m.RequireAuth(okHandler(&called))

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer some-token")
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.False(t, called)
	})

	t.Run("disabled user rejected", func(t *testing.T) {
		var called bool
		disabled := &models.User{Username: "bob", IsActive: true, Disabled: true}
		m := NewAuthMiddleware(
			&fakeValidator{claims: &Claims{Username: "bob"}},
			&fakeUserLoader{users: map[string]*models.User{"bob": disabled}},
			zap.NewNop(),
		)
		handler := m.RequireAuth(okHandler(&called))

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer some-token")
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.False(t, called)
	})
}

func TestRequireAdmin(t *testing.T) {
	m := NewAuthMiddleware(&fakeValidator{}, &fakeUserLoader{}, zap.NewNop())

	tests := []struct {
		name       string
		user       *models.User
		wantStatus int
	}{
		{"admin allowed", &models.User{Username: "a", IsActive: true, IsAdmin: true}, http.StatusOK},
		{"superuser allowed", &models.User{Username: "s", IsActive: true, IsSuperuser: true}, http.StatusOK},
		{"regular user forbidden", &models.User{Username: "r", IsActive: true}, http.StatusForbidden},
		{"no user in context", nil, http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var called bool
			handler := m.RequireAdmin(okHandler(&called))

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.user != nil {
				req = req.WithContext(WithUser(req.Context(), tt.user))
			}
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, tt.wantStatus == http.StatusOK, called)
		})
	}
}

func TestRequireFresh(t *testing.T) {
	m := NewAuthMiddleware(&fakeValidator{}, &fakeUserLoader{}, zap.NewNop())

	tests := []struct {
		name       string
		claims     *Claims
		wantStatus int
	}{
		{"fresh token allowed", &Claims{Username: "a", Fresh: true}, http.StatusOK},
		{"stale token forbidden", &Claims{Username: "a", Fresh: false}, http.StatusForbidden},
		{"no claims in context", nil, http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var called bool
			handler := m.RequireFresh(okHandler(&called))

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.claims != nil {
				req = req.WithContext(WithClaims(req.Context(), tt.claims))
			}
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, tt.wantStatus == http.StatusOK, called)
		})
	}
}

func TestExtractBearerToken(t *testing.T) {
	tests := []struct {
		name   string
		header string
		want   string
	}{
		{"no header", "", ""},
		{"bearer token", "Bearer abc123", "abc123"},
		{"lowercase scheme", "bearer abc123", "abc123"},
		{"wrong scheme", "Basic abc123", ""},
		{"scheme only", "Bearer", ""},
		{"extra whitespace", "Bearer   abc123", "abc123"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			assert.Equal(t, tt.want, extractBearerToken(req))
		})
	}
}
