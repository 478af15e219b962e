package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func signed(t *testing.T, secret string, claims jwt.Claims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return s
}

func runAuth(t *testing.T, header string) (string, error) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	c := e.NewContext(req, httptest.NewRecorder())

	var actor string
	err := JWTAuthMiddleware(testSecret)(func(c echo.Context) error {
		actor = ActorID(c)
		return nil
	})(c)
	return actor, err
}

func statusOf(err error) int {
	if he, ok := err.(*echo.HTTPError); ok {
		return he.Code
	}
	return 0
}

func TestJWTAuthMiddleware(t *testing.T) {
	future := jwt.NewNumericDate(time.Now().Add(time.Hour))

	t.Run("UserIDClaim", func(t *testing.T) {
		tok := signed(t, testSecret, Claims{UserID: "u1", RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: future}})
		actor, err := runAuth(t, "Bearer "+tok)
		require.NoError(t, err)
		assert.Equal(t, "u1", actor)
	})

	t.Run("SubjectFallback", func(t *testing.T) {
		tok := signed(t, testSecret, jwt.RegisteredClaims{Subject: "u2"})
		actor, err := runAuth(t, "bearer "+tok)
		require.NoError(t, err)
		assert.Equal(t, "u2", actor)
	})

	t.Run("Rejected", func(t *testing.T) {
		past := jwt.NewNumericDate(time.Now().Add(-time.Hour))
		for name, header := range map[string]string{
			"missing":      "",
			"malformed":    "Token abc",
			"wrong secret": "Bearer " + signed(t, "other", Claims{UserID: "u1"}),
			"expired":      "Bearer " + signed(t, testSecret, Claims{UserID: "u1", RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: past}}),
			"no user":      "Bearer " + signed(t, testSecret, Claims{}),
		} {
			_, err := runAuth(t, header)
			assert.Equal(t, http.StatusUnauthorized, statusOf(err), name)
		}
	})
}

func TestMetricsPassesThrough(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetPath("/x")

	err := Metrics()(func(c echo.Context) error {
		return c.NoContent(http.StatusTeapot)
	})(c)
	require.NoError(t, err)
	assert.Equal(t, http.StatusTeapot, rec.Code)

	boom := echo.NewHTTPError(http.StatusNotFound, "nope")
	err = Metrics()(func(c echo.Context) error { return boom })(c)
	assert.Same(t, boom, err)
}
