// Package middleware provides authentication, logging, rate limiting and
// telemetry middleware for the HTTP server.
package middleware

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"unigram/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
)

// AuthConfig describes how access tokens minted by the auth service are verified.
// Issuer and Audience are optional; when set, tokens must carry matching claims.
type AuthConfig struct {
	Secret   string
	Issuer   string
	Audience string
	// Redis, when non-nil, is consulted for revoked token ids (blacklist:<jti>).
	Redis *redis.Client
}

var (
	errMissingToken = errors.New("authorization required")
	errInvalidToken = errors.New("invalid or expired token")
	errRevoked      = errors.New("token has been revoked")
)

// AuthRequired rejects requests without a valid bearer token. The verified user
// id is stored in c.Locals("userID") and in the user context.
func AuthRequired(cfg AuthConfig) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := cfg.authenticate(c)
		if err != nil {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError(upperFirst(err.Error())))
		}
		setUser(c, userID)
		return c.Next()
	}
}

// OptionalAuth attaches the user id when a valid token is present and lets
// anonymous requests through untouched.
func OptionalAuth(cfg AuthConfig) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if userID, err := cfg.authenticate(c); err == nil {
			setUser(c, userID)
		}
		return c.Next()
	}
}

func setUser(c *fiber.Ctx, userID uint) {
	c.Locals("userID", userID)
	c.SetUserContext(context.WithValue(c.UserContext(), UserIDKey, userID))
}

func (cfg AuthConfig) authenticate(c *fiber.Ctx) (uint, error) {
	tokenString := bearerToken(c.Get("Authorization"))
	if tokenString == "" {
		// Browsers cannot set headers on a WebSocket handshake.
		tokenString = c.Query("token")
	}
	if tokenString == "" {
		return 0, errMissingToken
	}

	userID, jti, err := cfg.ParseToken(tokenString)
	if err != nil {
		return 0, err
	}

	if jti != "" && cfg.Redis != nil {
		n, err := cfg.Redis.Exists(c.Context(), "blacklist:"+jti).Result()
		if err == nil && n > 0 {
			return 0, errRevoked
		}
	}
	return userID, nil
}

// ParseToken verifies an HMAC-signed token and returns its subject as a user
// id together with the token id, if any.
func (cfg AuthConfig) ParseToken(tokenString string) (uint, string, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{"HS256", "HS384", "HS512"})}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}
	if cfg.Audience != "" {
		opts = append(opts, jwt.WithAudience(cfg.Audience))
	}

	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (any, error) {
		return []byte(cfg.Secret), nil
	}, opts...)
	if err != nil || !token.Valid {
		return 0, "", errInvalidToken
	}

	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return 0, "", errInvalidToken
	}
	userID, err := strconv.ParseUint(sub, 10, 32)
	if err != nil || userID == 0 {
		return 0, "", errInvalidToken
	}

	jti, _ := claims["jti"].(string)
	return uint(userID), jti, nil
}

func bearerToken(header string) string {
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || scheme != "Bearer" {
		return ""
	}
	return strings.TrimSpace(token)
}

func upperFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
