package middleware_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/santosrp/clanhub/server/config"
	"github.com/santosrp/clanhub/server/middleware"
	"github.com/santosrp/clanhub/server/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func authRouter(t *testing.T, optional bool) (*gin.Engine, string) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	c, _ := testutil.SetupTestCache(t)
	sec := config.SecurityConfig{JWTSecret: testSecret}

	token, err := middleware.GenerateToken(7, testSecret, time.Hour)
	require.NoError(t, err)
	require.NoError(t, c.Set(context.Background(), "session:"+token, "7", time.Hour))

	r := gin.New()
	mw := middleware.Auth(sec, c)
	if optional {
		mw = middleware.OptionalAuth(sec, c)
	}
	r.GET("/whoami", mw, func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"success": true, "userId": middleware.GetUserID(ctx)})
	})
	return r, token
}

func TestAuth_ValidToken(t *testing.T) {
	r, token := authRouter(t, false)

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"userId":7`)
}

func TestAuth_MissingHeader(t *testing.T) {
	r, _ := authRouter(t, false)

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuth_BadToken(t *testing.T) {
	r, _ := authRouter(t, false)

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuth_SessionRevoked(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := testutil.SetupTestCache(t)
	sec := config.SecurityConfig{JWTSecret: testSecret}

	// Token is valid but no session entry exists (logged out).
	token, err := middleware.GenerateToken(7, testSecret, time.Hour)
	require.NoError(t, err)

	r := gin.New()
	r.GET("/whoami", middleware.Auth(sec, c), func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"success": true})
	})

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestOptionalAuth_Anonymous(t *testing.T) {
	r, _ := authRouter(t, true)

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"userId":0`)
}

func TestOptionalAuth_LoggedIn(t *testing.T) {
	r, token := authRouter(t, true)

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"userId":7`)
}
