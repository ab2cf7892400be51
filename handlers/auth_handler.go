package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/sm4rtm4art/go-api-template/middleware"
	"github.com/sm4rtm4art/go-api-template/repositories"
	"github.com/sm4rtm4art/go-api-template/services"
	"github.com/sm4rtm4art/go-api-template/utils"
	"go.uber.org/zap"
)

// TokenResponse is the OAuth2-style response for token endpoints
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
}

// RefreshRequest is the request body for POST /refresh_token
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// AuthHandler handles authentication HTTP requests
type AuthHandler struct {
	users  repositories.UserRepository
	tokens *services.TokenService
	logger *zap.Logger
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(users repositories.UserRepository, tokens *services.TokenService, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		users:  users,
		tokens: tokens,
		logger: logger,
	}
}

// HandleToken handles POST /token
// Accepts an OAuth2 password grant form (username, password) and
// returns a fresh access token plus a refresh token.
func (h *AuthHandler) HandleToken(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestIDFromContext(ctx)

	if err := r.ParseForm(); err != nil {
		_ = utils.WriteBadRequest(w, "Invalid form body", nil)
		return
	}

	username := r.PostFormValue("username")
	password := r.PostFormValue("password")
	if username == "" || password == "" {
		_ = utils.WriteBadRequest(w, "username and password are required", nil)
		return
	}

	user, err := h.users.GetByUsername(ctx, username)
	if err != nil {
		h.logger.Warn("login for unknown user",
			zap.String("request_id", requestID),
			zap.String("username", username))
		HandleServiceError(w, services.ErrInvalidCredentials, h.logger)
		return
	}

	if !services.VerifyPassword(password, user.HashedPassword) {
		h.logger.Warn("login with wrong password",
			zap.String("request_id", requestID),
			zap.String("username", username))
		HandleServiceError(w, services.ErrInvalidCredentials, h.logger)
		return
	}

	if !user.CanAuthenticate() {
		h.logger.Warn("login for disabled user",
			zap.String("request_id", requestID),
			zap.String("username", username))
		HandleServiceError(w, services.ErrUserDisabled, h.logger)
		return
	}

	// Tokens issued from a password login carry the fresh claim
	accessToken, err := h.tokens.CreateAccessToken(user.Username, true)
	if err != nil {
		h.logger.Error("failed to create access token",
			zap.String("request_id", requestID),
			zap.Error(err))
		_ = utils.WriteInternalServerError(w, "Failed to issue token")
		return
	}

	refreshToken, err := h.tokens.CreateRefreshToken(user.Username)
	if err != nil {
		h.logger.Error("failed to create refresh token",
			zap.String("request_id", requestID),
			zap.Error(err))
		_ = utils.WriteInternalServerError(w, "Failed to issue token")
		return
	}

	h.logger.Info("user logged in",
		zap.String("request_id", requestID),
		zap.String("username", user.Username))

	_ = utils.WriteJSON(w, http.StatusOK, TokenResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "bearer",
	})
}

// HandleRefreshToken handles POST /refresh_token
// Exchanges a valid refresh token for a new token pair. The new
// access token is not fresh.
func (h *AuthHandler) HandleRefreshToken(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestIDFromContext(ctx)

	var req RefreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		_ = utils.WriteBadRequest(w, "Invalid request body", nil)
		return
	}

	if err := utils.ValidateStruct(&req); err != nil {
		HandleValidationError(w, err, h.logger)
		return
	}

	username, err := h.tokens.ValidateRefreshToken(req.RefreshToken)
	if err != nil {
		h.logger.Warn("refresh token rejected",
			zap.String("request_id", requestID),
			zap.Error(err))
		HandleServiceError(w, err, h.logger)
		return
	}

	user, err := h.users.GetByUsername(ctx, username)
	if err != nil {
		HandleServiceError(w, services.ErrInvalidToken, h.logger)
		return
	}

	if !user.CanAuthenticate() {
		HandleServiceError(w, services.ErrUserDisabled, h.logger)
		return
	}

	accessToken, err := h.tokens.CreateAccessToken(user.Username, false)
	if err != nil {
		h.logger.Error("failed to create access token",
			zap.String("request_id", requestID),
			zap.Error(err))
		_ = utils.WriteInternalServerError(w, "Failed to issue token")
		return
	}

	refreshToken, err := h.tokens.CreateRefreshToken(user.Username)
	if err != nil {
		h.logger.Error("failed to create refresh token",
			zap.String("request_id", requestID),
			zap.Error(err))
		_ = utils.WriteInternalServerError(w, "Failed to issue token")
		return
	}

	h.logger.Debug("token refreshed",
		zap.String("request_id", requestID),
		zap.String("username", user.Username))

	_ = utils.WriteJSON(w, http.StatusOK, TokenResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "bearer",
	})
}
