package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/sm4rtm4art/go-api-template/config"
	"github.com/sm4rtm4art/go-api-template/middleware"
	"go.uber.org/zap"
)

// Token types carried in the "type" claim
const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

// tokenClaims is the JWT payload for issued tokens. The "fresh" claim
// is true only for access tokens issued directly from a password
// login; tokens minted from a refresh token are never fresh.
type tokenClaims struct {
	Fresh     bool   `json:"fresh"`
	TokenType string `json:"type"`
	jwt.RegisteredClaims
}

// TokenService issues and validates HS256-signed JWTs
type TokenService struct {
	cfg    config.JWTConfig
	logger *zap.Logger
	now    func() time.Time
}

// NewTokenService creates a new token service
func NewTokenService(cfg config.JWTConfig, logger *zap.Logger) *TokenService {
	return &TokenService{
		cfg:    cfg,
		logger: logger,
		now:    time.Now,
	}
}

// CreateAccessToken issues a short-lived access token for the user
func (s *TokenService) CreateAccessToken(username string, fresh bool) (string, error) {
	return s.sign(username, TokenTypeAccess, fresh, s.cfg.AccessTokenTTL)
}

// CreateRefreshToken issues a long-lived refresh token for the user
func (s *TokenService) CreateRefreshToken(username string) (string, error) {
	return s.sign(username, TokenTypeRefresh, false, s.cfg.RefreshTokenTTL)
}

func (s *TokenService) sign(username, tokenType string, fresh bool, ttl time.Duration) (string, error) {
	now := s.now().UTC()

	claims := tokenClaims{
		Fresh:     fresh,
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.cfg.SecretKey))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return signed, nil
}

// ValidateToken validates an access token and returns its claims.
// Implements middleware.TokenValidator.
func (s *TokenService) ValidateToken(ctx context.Context, tokenString string) (*middleware.Claims, error) {
	claims, err := s.parse(tokenString, TokenTypeAccess)
	if err != nil {
		return nil, err
	}

	return &middleware.Claims{
		Username:  claims.Subject,
		TokenType: claims.TokenType,
		Fresh:     claims.Fresh,
		ExpiresAt: claims.ExpiresAt.Time,
		IssuedAt:  claims.IssuedAt.Time,
	}, nil
}

// ValidateRefreshToken validates a refresh token and returns the subject
func (s *TokenService) ValidateRefreshToken(tokenString string) (string, error) {
	claims, err := s.parse(tokenString, TokenTypeRefresh)
	if err != nil {
		return "", err
	}
	return claims.Subject, nil
}

func (s *TokenService) parse(tokenString, wantType string) (*tokenClaims, error) {
	claims := &tokenClaims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(s.cfg.SecretKey), nil
	}, jwt.WithValidMethods([]string{"HS256"}))

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, NewDomainError(ErrorTypeUnauthorized, "invalid authentication token", err)
	}

	if !token.Valid {
		return nil, ErrInvalidToken
	}

	if claims.TokenType != wantType {
		return nil, NewDomainError(ErrorTypeUnauthorized, "invalid authentication token", nil).
			WithDetail("expected_type", wantType)
	}

	if claims.Subject == "" {
		return nil, ErrInvalidToken
	}

	return claims, nil
}
