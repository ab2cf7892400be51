package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/sm4rtm4art/go-api-template/middleware"
	"github.com/sm4rtm4art/go-api-template/models"
	"github.com/sm4rtm4art/go-api-template/repositories"
	"github.com/sm4rtm4art/go-api-template/services"
	"github.com/sm4rtm4art/go-api-template/utils"
	"go.uber.org/zap"
)

// ContentHandler handles content-related HTTP requests
type ContentHandler struct {
	content repositories.ContentRepository
	tx      repositories.TransactionManager
	logger  *zap.Logger
}

// NewContentHandler creates a new ContentHandler
func NewContentHandler(content repositories.ContentRepository, tx repositories.TransactionManager, logger *zap.Logger) *ContentHandler {
	return &ContentHandler{
		content: content,
		tx:      tx,
		logger:  logger,
	}
}

// HandleListContent handles GET /api/v1/content
func (h *ContentHandler) HandleListContent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	limit, offset := parsePagination(r)

	items, err := h.content.List(ctx, limit, offset)
	if err != nil {
		h.logger.Error("failed to list content", zap.Error(err))
		_ = utils.WriteInternalServerError(w, "Failed to retrieve content")
		return
	}

	responses := make([]models.ContentResponse, len(items))
	for i, c := range items {
		responses[i] = c.ToResponse()
	}

	_ = utils.WriteOK(w, responses)
}

// HandleGetContent handles GET /api/v1/content/{id_or_slug}
// Numeric values are treated as IDs, anything else as a slug.
func (h *ContentHandler) HandleGetContent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	idOrSlug := chi.URLParam(r, "id_or_slug")

	var content *models.Content
	var err error

	if id, parseErr := strconv.ParseInt(idOrSlug, 10, 64); parseErr == nil {
		content, err = h.content.GetByID(ctx, id)
	} else {
		content, err = h.content.GetBySlug(ctx, idOrSlug)
	}

	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			HandleServiceError(w, services.ErrContentNotFound, h.logger)
			return
		}
		h.logger.Error("failed to get content", zap.String("id_or_slug", idOrSlug), zap.Error(err))
		_ = utils.WriteInternalServerError(w, "Failed to retrieve content")
		return
	}

	_ = utils.WriteOK(w, content.ToResponse())
}

// HandleCreateContent handles POST /api/v1/content
// The authenticated user becomes the owner, and the slug is derived
// from the title.
func (h *ContentHandler) HandleCreateContent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestIDFromContext(ctx)

	user := middleware.GetUserFromContext(ctx)
	if user == nil {
		_ = utils.WriteUnauthorized(w, "Authentication required")
		return
	}

	var req models.ContentIncoming
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		_ = utils.WriteBadRequest(w, "Invalid request body", nil)
		return
	}

	if err := utils.ValidateStruct(&req); err != nil {
		HandleValidationError(w, err, h.logger)
		return
	}

	if req.Title == nil || *req.Title == "" {
		_ = utils.WriteBadRequest(w, "title is required", nil)
		return
	}

	content := &models.Content{
		Title:       *req.Title,
		Slug:        req.Slug(),
		CreatedTime: time.Now().UTC(),
		UserID:      user.ID,
	}
	if req.Text != nil {
		content.Text = *req.Text
	}
	if req.Published != nil {
		content.Published = *req.Published
	}
	content.SetTags(req.Tags)

	if err := h.content.Create(ctx, content); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			HandleServiceError(w, services.ErrDuplicateSlug, h.logger)
			return
		}
		h.logger.Error("failed to create content",
			zap.String("request_id", requestID),
			zap.Error(err))
		_ = utils.WriteInternalServerError(w, "Failed to create content")
		return
	}

	h.logger.Info("content created",
		zap.String("request_id", requestID),
		zap.Int64("content_id", content.ID),
		zap.String("slug", content.Slug))

	_ = utils.WriteCreated(w, content.ToResponse())
}

// HandleUpdateContent handles PATCH /api/v1/content/{id}
// Only the owner or a superuser may modify content.
func (h *ContentHandler) HandleUpdateContent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestIDFromContext(ctx)

	user := middleware.GetUserFromContext(ctx)
	if user == nil {
		_ = utils.WriteUnauthorized(w, "Authentication required")
		return
	}

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		_ = utils.WriteBadRequest(w, "Invalid content ID format", nil)
		return
	}

	var req models.ContentIncoming
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		_ = utils.WriteBadRequest(w, "Invalid request body", nil)
		return
	}

	if err := utils.ValidateStruct(&req); err != nil {
		HandleValidationError(w, err, h.logger)
		return
	}

	// Fetch, ownership check, slug re-derivation and update run in one
	// transaction so a concurrent write cannot slip between them.
	var content *models.Content
	err = h.tx.InTransaction(ctx, func(ctx context.Context, _ repositories.Transaction) error {
		var txErr error
		content, txErr = h.content.GetByID(ctx, id)
		if txErr != nil {
			return txErr
		}

		if content.UserID != user.ID && !user.IsSuperuser {
			h.logger.Warn("content ownership mismatch",
				zap.String("request_id", requestID),
				zap.Int64("content_id", id),
				zap.Int64("owner_id", content.UserID),
				zap.Int64("user_id", user.ID))
			return services.ErrForbidden
		}

		if req.Title != nil {
			content.Title = *req.Title
			content.Slug = req.Slug()
		}
		if req.Text != nil {
			content.Text = *req.Text
		}
		if req.Published != nil {
			content.Published = *req.Published
		}
		if req.Tags != nil {
			content.SetTags(req.Tags)
		}

		return h.content.Update(ctx, content)
	})
	if err != nil {
		switch {
		case errors.Is(err, repositories.ErrNotFound):
			HandleServiceError(w, services.ErrContentNotFound, h.logger)
		case errors.Is(err, repositories.ErrDuplicate):
			HandleServiceError(w, services.ErrDuplicateSlug, h.logger)
		case errors.Is(err, services.ErrForbidden):
			HandleServiceError(w, services.ErrForbidden, h.logger)
		default:
			h.logger.Error("failed to update content",
				zap.String("request_id", requestID),
				zap.Int64("content_id", id),
				zap.Error(err))
			_ = utils.WriteInternalServerError(w, "Failed to update content")
		}
		return
	}

	h.logger.Info("content updated",
		zap.String("request_id", requestID),
		zap.Int64("content_id", id))

	_ = utils.WriteOK(w, content.ToResponse())
}

// HandleDeleteContent handles DELETE /api/v1/content/{id}
// Only the owner or a superuser may delete content.
func (h *ContentHandler) HandleDeleteContent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestIDFromContext(ctx)

	user := middleware.GetUserFromContext(ctx)
	if user == nil {
		_ = utils.WriteUnauthorized(w, "Authentication required")
		return
	}

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		_ = utils.WriteBadRequest(w, "Invalid content ID format", nil)
		return
	}

	// Ownership check and delete run in one transaction so the row
	// cannot change hands between the two statements.
	err = h.tx.InTransaction(ctx, func(ctx context.Context, _ repositories.Transaction) error {
		content, txErr := h.content.GetByID(ctx, id)
		if txErr != nil {
			return txErr
		}

		if content.UserID != user.ID && !user.IsSuperuser {
			return services.ErrForbidden
		}

		return h.content.Delete(ctx, id)
	})
	if err != nil {
		switch {
		case errors.Is(err, repositories.ErrNotFound):
			HandleServiceError(w, services.ErrContentNotFound, h.logger)
		case errors.Is(err, services.ErrForbidden):
			HandleServiceError(w, services.ErrForbidden, h.logger)
		default:
			h.logger.Error("failed to delete content",
				zap.String("request_id", requestID),
				zap.Int64("content_id", id),
				zap.Error(err))
			_ = utils.WriteInternalServerError(w, "Failed to delete content")
		}
		return
	}

	h.logger.Info("content deleted",
		zap.String("request_id", requestID),
		zap.Int64("content_id", id))

	utils.WriteNoContent(w)
}
