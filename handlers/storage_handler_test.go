package handlers

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/sm4rtm4art/go-api-template/cloud"
	"github.com/sm4rtm4art/go-api-template/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func storageRouter(h *StorageHandler) http.Handler {
	r := chi.NewRouter()
	r.Route("/storage", func(r chi.Router) {
		r.Get("/", h.HandleList)
		r.Post("/", h.HandleUpload)
		r.Get("/*", h.HandleDownload)
		r.Delete("/*", h.HandleDelete)
	})
	return r
}

func newLocalStorageHandler(t *testing.T) *StorageHandler {
	t.Helper()
	cfg := &config.CloudConfig{
		Provider: config.ProviderLocal,
		Local:    config.LocalSettings{StoragePath: t.TempDir()},
	}
	return NewStorageHandler(cloud.NewService(cfg, zap.NewNop()), zap.NewNop())
}

func multipartUpload(t *testing.T, router http.Handler, filename, contents string) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = fw.Write([]byte(contents))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/storage/", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestStorageUploadDownloadDelete(t *testing.T) {
	h := newLocalStorageHandler(t)
	router := storageRouter(h)

	w := multipartUpload(t, router, "report.txt", "quarterly numbers")
	require.Equal(t, http.StatusCreated, w.Code)

	var created struct {
		Data StorageObjectResponse `json:"data"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&created))
	assert.Equal(t, "report.txt", created.Data.Key)

	t.Run("download returns the object", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/storage/report.txt", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "quarterly numbers", w.Body.String())
		assert.Equal(t, "application/octet-stream", w.Header().Get("Content-Type"))
	})

	t.Run("delete removes the object", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodDelete, "/storage/report.txt", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusNoContent, w.Code)

		req = httptest.NewRequest(http.MethodGet, "/storage/report.txt", nil)
		w = httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestStorageList(t *testing.T) {
	h := newLocalStorageHandler(t)
	router := storageRouter(h)

	t.Run("empty store returns empty list", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/storage/", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)

		var resp struct {
			Data []string `json:"data"`
		}
		require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
		assert.Empty(t, resp.Data)
	})

	t.Run("lists uploaded keys", func(t *testing.T) {
		require.Equal(t, http.StatusCreated, multipartUpload(t, router, "a.txt", "a").Code)
		require.Equal(t, http.StatusCreated, multipartUpload(t, router, "b.txt", "b").Code)

		req := httptest.NewRequest(http.MethodGet, "/storage/", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)

		var resp struct {
			Data []string `json:"data"`
		}
		require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
		assert.ElementsMatch(t, []string{"a.txt", "b.txt"}, resp.Data)
	})
}

func TestStorageErrors(t *testing.T) {
	t.Run("missing file field", func(t *testing.T) {
		h := newLocalStorageHandler(t)
		router := storageRouter(h)

		var buf bytes.Buffer
		mw := multipart.NewWriter(&buf)
		require.NoError(t, mw.WriteField("note", "no file here"))
		require.NoError(t, mw.Close())

		req := httptest.NewRequest(http.MethodPost, "/storage/", &buf)
		req.Header.Set("Content-Type", mw.FormDataContentType())
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("download of unknown key", func(t *testing.T) {
		h := newLocalStorageHandler(t)
		router := storageRouter(h)

		req := httptest.NewRequest(http.MethodGet, "/storage/nope.txt", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("unconfigured provider reports not implemented", func(t *testing.T) {
		// Hetzner without credentials has no storage backend
		cfg := &config.CloudConfig{Provider: config.ProviderHetzner}
		h := NewStorageHandler(cloud.NewService(cfg, zap.NewNop()), zap.NewNop())
		router := storageRouter(h)

		req := httptest.NewRequest(http.MethodGet, "/storage/", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		require.Equal(t, http.StatusNotImplemented, w.Code)

		var resp struct {
			Error string `json:"error"`
		}
		require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
		assert.Equal(t, "not_configured", resp.Error)
	})
}
