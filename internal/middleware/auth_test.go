package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key-12345678901234567890123456789012"

func signToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return s
}

func userClaims(userID uint, exp time.Duration) jwt.MapClaims {
	return jwt.MapClaims{
		"sub": strconv.FormatUint(uint64(userID), 10),
		"exp": time.Now().Add(exp).Unix(),
		"iss": "unigram-auth",
		"aud": "unigram-client",
	}
}

func newAuthApp(cfg AuthConfig) *fiber.App {
	app := fiber.New()
	app.Get("/test", AuthRequired(cfg), func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"userID": c.Locals("userID")})
	})
	app.Get("/optional", OptionalAuth(cfg), func(c *fiber.Ctx) error {
		uid, _ := c.Locals("userID").(uint)
		return c.JSON(fiber.Map{"userID": uid})
	})
	return app
}

func TestAuthRequired(t *testing.T) {
	cfg := AuthConfig{Secret: testSecret, Issuer: "unigram-auth", Audience: "unigram-client"}
	app := newAuthApp(cfg)

	wrongIssuer := userClaims(5, time.Hour)
	wrongIssuer["iss"] = "someone-else"
	noSubject := userClaims(5, time.Hour)
	delete(noSubject, "sub")

	tests := []struct {
		name           string
		authHeader     string
		query          string
		expectedStatus int
		expectedUserID uint
	}{
		{"Happy Path", "Bearer " + signToken(t, userClaims(123, time.Hour)), "", http.StatusOK, 123},
		{"Query Token", "", "?token=" + signToken(t, userClaims(77, time.Hour)), http.StatusOK, 77},
		{"Missing Header", "", "", http.StatusUnauthorized, 0},
		{"Invalid Format", "Basic dXNlcjpwYXNz", "", http.StatusUnauthorized, 0},
		{"Malformed Token", "Bearer malformed.token.here", "", http.StatusUnauthorized, 0},
		{"Expired Token", "Bearer " + signToken(t, userClaims(123, -time.Hour)), "", http.StatusUnauthorized, 0},
		{"Wrong Issuer", "Bearer " + signToken(t, wrongIssuer), "", http.StatusUnauthorized, 0},
		{"Missing Subject", "Bearer " + signToken(t, noSubject), "", http.StatusUnauthorized, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/test"+tt.query, nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}

			resp, err := app.Test(req)
			require.NoError(t, err)
			defer resp.Body.Close()
			assert.Equal(t, tt.expectedStatus, resp.StatusCode)

			if tt.expectedStatus == http.StatusOK {
				var body map[string]any
				require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
				assert.Equal(t, float64(tt.expectedUserID), body["userID"])
			}
		})
	}
}

func TestAuthRequired_RevokedToken(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	app := newAuthApp(AuthConfig{Secret: testSecret, Redis: rdb})

	claims := userClaims(9, time.Hour)
	claims["jti"] = "revoked-1"
	require.NoError(t, mr.Set("blacklist:revoked-1", "1"))

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, claims))
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	claims["jti"] = "still-good"
	req = httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, claims))
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestOptionalAuth(t *testing.T) {
	app := newAuthApp(AuthConfig{Secret: testSecret})

	for _, tc := range []struct {
		name   string
		header string
		want   float64
	}{
		{"anonymous", "", 0},
		{"garbage token", "Bearer nope", 0},
		{"valid token", "Bearer " + signToken(t, userClaims(31, time.Hour)), 31},
	} {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/optional", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			require.Equal(t, http.StatusOK, resp.StatusCode)

			var body map[string]any
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			assert.Equal(t, tc.want, body["userID"])
		})
	}
}

func TestParseToken_RejectsOtherAlgorithms(t *testing.T) {
	cfg := AuthConfig{Secret: testSecret}
	token := jwt.NewWithClaims(jwt.SigningMethodNone, userClaims(1, time.Hour))
	s, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, _, err = cfg.ParseToken(s)
	assert.Error(t, err)
}
