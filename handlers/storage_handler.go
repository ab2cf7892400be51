package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/sm4rtm4art/go-api-template/cloud"
	"github.com/sm4rtm4art/go-api-template/middleware"
	"github.com/sm4rtm4art/go-api-template/utils"
	"go.uber.org/zap"
)

// maxUploadSize caps multipart uploads at 32 MiB
const maxUploadSize = 32 << 20

// StorageObjectResponse describes an uploaded object
type StorageObjectResponse struct {
	Key  string `json:"key"`
	Size int64  `json:"size"`
}

// StorageHandler exposes the provider object storage over HTTP
type StorageHandler struct {
	cloud  cloud.Service
	logger *zap.Logger
}

// NewStorageHandler creates a new StorageHandler
func NewStorageHandler(cloudSvc cloud.Service, logger *zap.Logger) *StorageHandler {
	return &StorageHandler{
		cloud:  cloudSvc,
		logger: logger,
	}
}

// storage resolves the provider storage backend, translating
// configuration gaps into client errors.
func (h *StorageHandler) storage(w http.ResponseWriter, r *http.Request) (cloud.ObjectStorage, bool) {
	storage, err := h.cloud.Storage(r.Context())
	if err != nil {
		if errors.Is(err, cloud.ErrNotConfigured) {
			_ = utils.WriteJSON(w, http.StatusNotImplemented, utils.ErrorResponse{
				Error:   "not_configured",
				Message: "Object storage is not configured for this provider",
			})
			return nil, false
		}
		h.logger.Error("failed to resolve storage backend",
			zap.String("provider", h.cloud.Name()),
			zap.Error(err))
		_ = utils.WriteInternalServerError(w, "Storage backend unavailable")
		return nil, false
	}
	return storage, true
}

// HandleUpload handles POST /api/v1/storage
// Accepts a multipart form with a single "file" field.
func (h *StorageHandler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestIDFromContext(ctx)

	storage, ok := h.storage(w, r)
	if !ok {
		return
	}

	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		_ = utils.WriteBadRequest(w, "Invalid multipart body", nil)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		_ = utils.WriteBadRequest(w, "file field is required", nil)
		return
	}
	defer file.Close()

	key := header.Filename
	if key == "" {
		_ = utils.WriteBadRequest(w, "file name is required", nil)
		return
	}

	contentType := header.Header.Get("Content-Type")
	if err := storage.Upload(ctx, key, file, header.Size, contentType); err != nil {
		h.logger.Error("upload failed",
			zap.String("request_id", requestID),
			zap.String("key", key),
			zap.Error(err))
		_ = utils.WriteInternalServerError(w, "Failed to store object")
		return
	}

	h.logger.Info("object uploaded",
		zap.String("request_id", requestID),
		zap.String("provider", h.cloud.Name()),
		zap.String("key", key),
		zap.Int64("size", header.Size))

	_ = utils.WriteCreated(w, StorageObjectResponse{Key: key, Size: header.Size})
}

// HandleDownload handles GET /api/v1/storage/{key}
func (h *StorageHandler) HandleDownload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	storage, ok := h.storage(w, r)
	if !ok {
		return
	}

	key := chi.URLParam(r, "*")
	if key == "" {
		key = chi.URLParam(r, "key")
	}
	if key == "" {
		_ = utils.WriteBadRequest(w, "object key is required", nil)
		return
	}

	body, err := storage.Download(ctx, key)
	if err != nil {
		h.logger.Warn("download failed", zap.String("key", key), zap.Error(err))
		_ = utils.WriteNotFound(w, "Object not found")
		return
	}
	defer body.Close()

	w.Header().Set("Content-Type", "application/octet-stream")
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, body); err != nil {
		h.logger.Error("streaming object failed", zap.String("key", key), zap.Error(err))
	}
}

// HandleDelete handles DELETE /api/v1/storage/{key}
func (h *StorageHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestIDFromContext(ctx)

	storage, ok := h.storage(w, r)
	if !ok {
		return
	}

	key := chi.URLParam(r, "*")
	if key == "" {
		key = chi.URLParam(r, "key")
	}
	if key == "" {
		_ = utils.WriteBadRequest(w, "object key is required", nil)
		return
	}

	if err := storage.Delete(ctx, key); err != nil {
		h.logger.Warn("delete failed",
			zap.String("request_id", requestID),
			zap.String("key", key),
			zap.Error(err))
		_ = utils.WriteNotFound(w, "Object not found")
		return
	}

	h.logger.Info("object deleted",
		zap.String("request_id", requestID),
		zap.String("key", key))

	utils.WriteNoContent(w)
}

// HandleList handles GET /api/v1/storage
// Supports an optional prefix query parameter.
func (h *StorageHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	storage, ok := h.storage(w, r)
	if !ok {
		return
	}

	prefix := r.URL.Query().Get("prefix")

	keys, err := storage.List(ctx, prefix)
	if err != nil {
		if errors.Is(err, cloud.ErrNotSupported) {
			_ = utils.WriteJSON(w, http.StatusNotImplemented, utils.ErrorResponse{
				Error:   "not_supported",
				Message: "Listing is not supported by this storage backend",
			})
			return
		}
		h.logger.Error("list failed", zap.String("prefix", prefix), zap.Error(err))
		_ = utils.WriteInternalServerError(w, "Failed to list objects")
		return
	}

	if keys == nil {
		keys = []string{}
	}
	_ = utils.WriteOK(w, keys)
}
