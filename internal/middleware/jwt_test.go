package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/dvega/docuvec/internal/pkg/jwt"
)

func newAuthEngine(secret []byte) *gin.Engine {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	engine.Use(JWTAuth(secret))
	engine.GET("/whoami", func(c *gin.Context) {
		userID, _ := c.Get(ContextUserIDKey)
		orgID, _ := c.Get(ContextOrgIDKey)
		c.JSON(200, gin.H{"user_id": userID, "org_id": orgID})
	})
	return engine
}

func TestJWTAuthValidToken(t *testing.T) {
	secret := []byte("secret")
	engine := newAuthEngine(secret)

	token, err := jwt.GenerateToken("user_1", "org_1", secret, time.Hour)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "user_1")
	require.Contains(t, rec.Body.String(), "org_1")
}

func TestJWTAuthMissingHeader(t *testing.T) {
	engine := newAuthEngine([]byte("secret"))

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.JSONEq(t, `{"error":"Unauthorized"}`, rec.Body.String())
}

func TestJWTAuthWrongSecret(t *testing.T) {
	engine := newAuthEngine([]byte("secret"))

	token, err := jwt.GenerateToken("user_1", "org_1", []byte("other"), time.Hour)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestJWTAuthExpiredToken(t *testing.T) {
	secret := []byte("secret")
	engine := newAuthEngine(secret)

	token, err := jwt.GenerateToken("user_1", "org_1", secret, -time.Hour)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestJWTAuthMalformedHeader(t *testing.T) {
	engine := newAuthEngine([]byte("secret"))

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Token abc")
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
}
