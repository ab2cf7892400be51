package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/sm4rtm4art/go-api-template/middleware"
	"github.com/sm4rtm4art/go-api-template/models"
	"github.com/sm4rtm4art/go-api-template/repositories"
	"github.com/sm4rtm4art/go-api-template/services"
	"github.com/sm4rtm4art/go-api-template/utils"
	"go.uber.org/zap"
)

const (
	defaultPageLimit = 50
	maxPageLimit     = 200
)

// UserHandler handles user-related HTTP requests
type UserHandler struct {
	users  repositories.UserRepository
	logger *zap.Logger
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(users repositories.UserRepository, logger *zap.Logger) *UserHandler {
	return &UserHandler{
		users:  users,
		logger: logger,
	}
}

// parsePagination reads limit/offset query parameters with defaults
func parsePagination(r *http.Request) (limit, offset int) {
	limit = defaultPageLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			offset = n
		}
	}
	return limit, offset
}

// HandleListUsers handles GET /api/v1/user
// Admin only.
func (h *UserHandler) HandleListUsers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestIDFromContext(ctx)

	limit, offset := parsePagination(r)

	users, err := h.users.List(ctx, limit, offset)
	if err != nil {
		h.logger.Error("failed to list users",
			zap.String("request_id", requestID),
			zap.Error(err))
		_ = utils.WriteInternalServerError(w, "Failed to retrieve users")
		return
	}

	responses := make([]models.UserResponse, len(users))
	for i, u := range users {
		responses[i] = u.ToResponse()
	}

	_ = utils.WriteOK(w, responses)
}

// HandleCreateUser handles POST /api/v1/user
// Admin only.
func (h *UserHandler) HandleCreateUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestIDFromContext(ctx)

	var req models.UserCreate
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		_ = utils.WriteBadRequest(w, "Invalid request body", nil)
		return
	}

	if err := utils.ValidateStruct(&req); err != nil {
		HandleValidationError(w, err, h.logger)
		return
	}

	hash, err := services.HashPassword(req.Password)
	if err != nil {
		h.logger.Error("failed to hash password",
			zap.String("request_id", requestID),
			zap.Error(err))
		_ = utils.WriteInternalServerError(w, "Failed to create user")
		return
	}

	user := models.NewUser(req.Username, req.Email, hash)
	user.FullName = req.FullName
	if req.IsActive != nil {
		user.IsActive = *req.IsActive
	}
	user.IsSuperuser = req.IsSuperuser
	user.IsAdmin = req.IsAdmin
	user.Disabled = req.Disabled

	if err := h.users.Create(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			HandleServiceError(w, services.ErrUsernameTaken, h.logger)
			return
		}
		h.logger.Error("failed to create user",
			zap.String("request_id", requestID),
			zap.Error(err))
		_ = utils.WriteInternalServerError(w, "Failed to create user")
		return
	}

	h.logger.Info("user created",
		zap.String("request_id", requestID),
		zap.Int64("user_id", user.ID),
		zap.String("username", user.Username))

	_ = utils.WriteCreated(w, user.ToResponse())
}

// HandleGetUser handles GET /api/v1/user/{id}
func (h *UserHandler) HandleGetUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		_ = utils.WriteBadRequest(w, "Invalid user ID format", nil)
		return
	}

	user, err := h.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			HandleServiceError(w, services.ErrUserNotFound, h.logger)
			return
		}
		h.logger.Error("failed to get user", zap.Int64("user_id", id), zap.Error(err))
		_ = utils.WriteInternalServerError(w, "Failed to retrieve user")
		return
	}

	_ = utils.WriteOK(w, user.ToResponse())
}

// HandleDeleteUser handles DELETE /api/v1/user/{id}
// Admin only. Users cannot delete themselves.
func (h *UserHandler) HandleDeleteUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestIDFromContext(ctx)

	current := middleware.GetUserFromContext(ctx)
	if current == nil {
		_ = utils.WriteUnauthorized(w, "Authentication required")
		return
	}

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		_ = utils.WriteBadRequest(w, "Invalid user ID format", nil)
		return
	}

	if current.ID == id {
		_ = utils.WriteForbidden(w, "You cannot delete your own account")
		return
	}

	if err := h.users.Delete(ctx, id); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			HandleServiceError(w, services.ErrUserNotFound, h.logger)
			return
		}
		h.logger.Error("failed to delete user",
			zap.String("request_id", requestID),
			zap.Int64("user_id", id),
			zap.Error(err))
		_ = utils.WriteInternalServerError(w, "Failed to delete user")
		return
	}

	h.logger.Info("user deleted",
		zap.String("request_id", requestID),
		zap.Int64("user_id", id))

	utils.WriteNoContent(w)
}

// HandleUpdatePassword handles PATCH /api/v1/user/{id}/password
// Requires a fresh token. Users may change their own password;
// superusers and admins may change anyone's.
func (h *UserHandler) HandleUpdatePassword(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestIDFromContext(ctx)

	current := middleware.GetUserFromContext(ctx)
	if current == nil {
		_ = utils.WriteUnauthorized(w, "Authentication required")
		return
	}

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		_ = utils.WriteBadRequest(w, "Invalid user ID format", nil)
		return
	}

	if current.ID != id && !current.IsSuperuser && !current.IsAdmin {
		HandleServiceError(w, services.ErrForbidden, h.logger)
		return
	}

	var req models.UserPasswordPatch
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		_ = utils.WriteBadRequest(w, "Invalid request body", nil)
		return
	}

	if err := utils.ValidateStruct(&req); err != nil {
		HandleValidationError(w, err, h.logger)
		return
	}

	if req.Password != req.PasswordConfirm {
		HandleServiceError(w, services.ErrPasswordMismatch, h.logger)
		return
	}

	hash, err := services.HashPassword(req.Password)
	if err != nil {
		h.logger.Error("failed to hash password",
			zap.String("request_id", requestID),
			zap.Error(err))
		_ = utils.WriteInternalServerError(w, "Failed to update password")
		return
	}

	if err := h.users.UpdatePassword(ctx, id, hash); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			HandleServiceError(w, services.ErrUserNotFound, h.logger)
			return
		}
		h.logger.Error("failed to update password",
			zap.String("request_id", requestID),
			zap.Int64("user_id", id),
			zap.Error(err))
		_ = utils.WriteInternalServerError(w, "Failed to update password")
		return
	}

	h.logger.Info("password updated",
		zap.String("request_id", requestID),
		zap.Int64("user_id", id))

	_ = utils.WriteOK(w, map[string]string{"status": "password updated"})
}

// HandleCurrentUser handles GET /api/v1/profile/me
func (h *UserHandler) HandleCurrentUser(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())
	if user == nil {
		_ = utils.WriteUnauthorized(w, "Authentication required")
		return
	}

	_ = utils.WriteOK(w, user.ToResponse())
}
