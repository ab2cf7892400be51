package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/sm4rtm4art/go-api-template/middleware"
	"github.com/sm4rtm4art/go-api-template/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// userRouter mounts the handler the way the user module does, with the
// acting user injected into the request context.
func userRouter(h *UserHandler, actor *models.User) http.Handler {
	r := chi.NewRouter()
	if actor != nil {
		r.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
				next.ServeHTTP(w, req.WithContext(middleware.WithUser(req.Context(), actor)))
			})
		})
	}
	r.Get("/user", h.HandleListUsers)
	r.Post("/user", h.HandleCreateUser)
	r.Get("/user/{id}", h.HandleGetUser)
	r.Delete("/user/{id}", h.HandleDeleteUser)
	r.Patch("/user/{id}/password", h.HandleUpdatePassword)
	r.Get("/profile/me", h.HandleCurrentUser)
	return r
}

func admin() *models.User {
	return &models.User{ID: 1, Username: "admin", IsActive: true, IsAdmin: true}
}

func TestHandleListUsers(t *testing.T) {
	repo := newFakeUserRepo()
	repo.add(models.NewUser("alice", "alice@example.com", "x"))
	repo.add(models.NewUser("bob", "bob@example.com", "x"))
	h := NewUserHandler(repo, zap.NewNop())

	req := httptest.NewRequest(http.MethodGet, "/user", nil)
	w := httptest.NewRecorder()
	userRouter(h, admin()).ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data []models.UserResponse `json:"data"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Len(t, resp.Data, 2)
}

func TestHandleCreateUser(t *testing.T) {
	post := func(h *UserHandler, body interface{}) *httptest.ResponseRecorder {
		var buf bytes.Buffer
		_ = json.NewEncoder(&buf).Encode(body)
		req := httptest.NewRequest(http.MethodPost, "/user", &buf)
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		userRouter(h, admin()).ServeHTTP(w, req)
		return w
	}

	t.Run("creates user", func(t *testing.T) {
		repo := newFakeUserRepo()
		h := NewUserHandler(repo, zap.NewNop())

		w := post(h, models.UserCreate{
			Username: "alice",
			Email:    "alice@example.com",
			Password: "password123",
			FullName: "Alice Doe",
		})
		require.Equal(t, http.StatusCreated, w.Code)

		var resp struct {
			Data models.UserResponse `json:"data"`
		}
		require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
		assert.Equal(t, "alice", resp.Data.Username)
		assert.NotZero(t, resp.Data.ID)

		stored, err := repo.GetByUsername(context.Background(), "alice")
		require.NoError(t, err)
		assert.NotEqual(t, "password123", stored.HashedPassword, "password must be hashed")
	})

	t.Run("omitted is_active defaults to true", func(t *testing.T) {
		repo := newFakeUserRepo()
		h := NewUserHandler(repo, zap.NewNop())

		w := post(h, models.UserCreate{
			Username: "bob",
			Email:    "bob@example.com",
			Password: "password123",
		})
		require.Equal(t, http.StatusCreated, w.Code)

		var resp struct {
			Data models.UserResponse `json:"data"`
		}
		require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
		assert.True(t, resp.Data.IsActive)
	})

	t.Run("explicit is_active false creates deactivated user", func(t *testing.T) {
		repo := newFakeUserRepo()
		h := NewUserHandler(repo, zap.NewNop())

		inactive := false
		w := post(h, models.UserCreate{
			Username: "carol",
			Email:    "carol@example.com",
			Password: "password123",
			IsActive: &inactive,
		})
		require.Equal(t, http.StatusCreated, w.Code)

		var resp struct {
			Data models.UserResponse `json:"data"`
		}
		require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
		assert.False(t, resp.Data.IsActive)

		stored, err := repo.GetByUsername(context.Background(), "carol")
		require.NoError(t, err)
		assert.False(t, stored.IsActive)
		assert.False(t, stored.CanAuthenticate())
	})

	t.Run("duplicate username conflicts", func(t *testing.T) {
		repo := newFakeUserRepo()
		repo.add(models.NewUser("alice", "alice@example.com", "x"))
		h := NewUserHandler(repo, zap.NewNop())

		w := post(h, models.UserCreate{
			Username: "alice",
			Email:    "other@example.com",
			Password: "password123",
		})
		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("validation failures", func(t *testing.T) {
		h := NewUserHandler(newFakeUserRepo(), zap.NewNop())

		tests := []struct {
			name string
			req  models.UserCreate
		}{
			{"short password", models.UserCreate{Username: "alice", Email: "a@b.com", Password: "short"}},
			{"bad email", models.UserCreate{Username: "alice", Email: "nope", Password: "password123"}},
			{"short username", models.UserCreate{Username: "ab", Email: "a@b.com", Password: "password123"}},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				w := post(h, tt.req)
				assert.Equal(t, http.StatusBadRequest, w.Code)
			})
		}
	})

	t.Run("invalid body", func(t *testing.T) {
		h := NewUserHandler(newFakeUserRepo(), zap.NewNop())

		req := httptest.NewRequest(http.MethodPost, "/user", bytes.NewReader([]byte("{")))
		w := httptest.NewRecorder()
		userRouter(h, admin()).ServeHTTP(w, req)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestHandleGetUser(t *testing.T) {
	repo := newFakeUserRepo()
	alice := repo.add(models.NewUser("alice", "alice@example.com", "x"))
	h := NewUserHandler(repo, zap.NewNop())
	router := userRouter(h, admin())

	t.Run("found", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, fmt.Sprintf("/user/%d", alice.ID), nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)

		var resp struct {
			Data models.UserResponse `json:"data"`
		}
		require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
		assert.Equal(t, "alice", resp.Data.Username)
	})

	t.Run("not found", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/user/999", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("invalid id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/user/abc", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestHandleDeleteUser(t *testing.T) {
	t.Run("deletes another user", func(t *testing.T) {
		repo := newFakeUserRepo()
		actor := repo.add(models.NewUser("admin", "admin@example.com", "x"))
		actor.IsAdmin = true
		victim := repo.add(models.NewUser("bob", "bob@example.com", "x"))
		h := NewUserHandler(repo, zap.NewNop())

		req := httptest.NewRequest(http.MethodDelete, fmt.Sprintf("/user/%d", victim.ID), nil)
		w := httptest.NewRecorder()
		userRouter(h, actor).ServeHTTP(w, req)

		assert.Equal(t, http.StatusNoContent, w.Code)
		_, err := repo.GetByID(context.Background(), victim.ID)
		assert.Error(t, err)
	})

	t.Run("self-deletion forbidden", func(t *testing.T) {
		repo := newFakeUserRepo()
		actor := repo.add(models.NewUser("admin", "admin@example.com", "x"))
		actor.IsAdmin = true
		h := NewUserHandler(repo, zap.NewNop())

		req := httptest.NewRequest(http.MethodDelete, fmt.Sprintf("/user/%d", actor.ID), nil)
		w := httptest.NewRecorder()
		userRouter(h, actor).ServeHTTP(w, req)

		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("missing user", func(t *testing.T) {
		h := NewUserHandler(newFakeUserRepo(), zap.NewNop())

		req := httptest.NewRequest(http.MethodDelete, "/user/999", nil)
		w := httptest.NewRecorder()
		userRouter(h, admin()).ServeHTTP(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestHandleUpdatePassword(t *testing.T) {
	patch := func(router http.Handler, id int64, body models.UserPasswordPatch) *httptest.ResponseRecorder {
		var buf bytes.Buffer
		_ = json.NewEncoder(&buf).Encode(body)
		req := httptest.NewRequest(http.MethodPatch, fmt.Sprintf("/user/%d/password", id), &buf)
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	t.Run("user changes own password", func(t *testing.T) {
		repo := newFakeUserRepo()
		actor := repo.add(models.NewUser("alice", "alice@example.com", "old-hash"))
		h := NewUserHandler(repo, zap.NewNop())

		w := patch(userRouter(h, actor), actor.ID, models.UserPasswordPatch{
			Password:        "new-password",
			PasswordConfirm: "new-password",
		})

		assert.Equal(t, http.StatusOK, w.Code)
		assert.NotEqual(t, "old-hash", repo.users[actor.ID].HashedPassword)
	})

	t.Run("admin changes another user's password", func(t *testing.T) {
		repo := newFakeUserRepo()
		actor := repo.add(models.NewUser("admin", "admin@example.com", "x"))
		actor.IsAdmin = true
		target := repo.add(models.NewUser("bob", "bob@example.com", "old-hash"))
		h := NewUserHandler(repo, zap.NewNop())

		w := patch(userRouter(h, actor), target.ID, models.UserPasswordPatch{
			Password:        "new-password",
			PasswordConfirm: "new-password",
		})

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("regular user cannot change someone else's password", func(t *testing.T) {
		repo := newFakeUserRepo()
		actor := repo.add(models.NewUser("alice", "alice@example.com", "x"))
		target := repo.add(models.NewUser("bob", "bob@example.com", "x"))
		h := NewUserHandler(repo, zap.NewNop())

		w := patch(userRouter(h, actor), target.ID, models.UserPasswordPatch{
			Password:        "new-password",
			PasswordConfirm: "new-password",
		})

		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("mismatched confirmation", func(t *testing.T) {
		repo := newFakeUserRepo()
		actor := repo.add(models.NewUser("alice", "alice@example.com", "x"))
		h := NewUserHandler(repo, zap.NewNop())

		w := patch(userRouter(h, actor), actor.ID, models.UserPasswordPatch{
			Password:        "new-password",
			PasswordConfirm: "different",
		})

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestHandleCurrentUser(t *testing.T) {
	t.Run("returns the authenticated user", func(t *testing.T) {
		repo := newFakeUserRepo()
		actor := repo.add(models.NewUser("alice", "alice@example.com", "x"))
		h := NewUserHandler(repo, zap.NewNop())

		req := httptest.NewRequest(http.MethodGet, "/profile/me", nil)
		w := httptest.NewRecorder()
		userRouter(h, actor).ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)

		var resp struct {
			Data models.UserResponse `json:"data"`
		}
		require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
		assert.Equal(t, "alice", resp.Data.Username)
	})

	t.Run("unauthenticated", func(t *testing.T) {
		h := NewUserHandler(newFakeUserRepo(), zap.NewNop())

		req := httptest.NewRequest(http.MethodGet, "/profile/me", nil)
		w := httptest.NewRecorder()
		userRouter(h, nil).ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}
