package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/xxxsen/griffin/internal/pkg/jwt"
)

func newTestEngine(handlers ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	handlers = append(handlers, func(c *gin.Context) {
		c.String(http.StatusOK, UserID(c))
	})
	engine.GET("/x", handlers...)
	return engine
}

func TestJWTAuth(t *testing.T) {
	secret := []byte("s")
	engine := newTestEngine(JWTAuth(secret))

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	resp := httptest.NewRecorder()
	engine.ServeHTTP(resp, req)
	require.Equal(t, http.StatusUnauthorized, resp.Code)

	token, err := jwt.GenerateToken("user-1", "a@b.c", secret, time.Hour)
	require.NoError(t, err)
	req = httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp = httptest.NewRecorder()
	engine.ServeHTTP(resp, req)
	require.Equal(t, http.StatusOK, resp.Code)
	require.Equal(t, "user-1", resp.Body.String())

	req = httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Authorization", "Token "+token)
	resp = httptest.NewRecorder()
	engine.ServeHTTP(resp, req)
	require.Equal(t, http.StatusUnauthorized, resp.Code)
}

func TestJWTAuthQueryToken(t *testing.T) {
	secret := []byte("s")
	token, err := jwt.GenerateToken("user-2", "", secret, time.Hour)
	require.NoError(t, err)

	gin.SetMode(gin.TestMode)
	engine := gin.New()
	ok := func(c *gin.Context) { c.String(http.StatusOK, UserID(c)) }
	engine.GET("/x", JWTAuth(secret), ok)
	engine.POST("/x", JWTAuth(secret), ok)

	resp := httptest.NewRecorder()
	engine.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/x?access_token="+token, nil))
	require.Equal(t, http.StatusOK, resp.Code)
	require.Equal(t, "user-2", resp.Body.String())

	resp = httptest.NewRecorder()
	engine.ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/x?access_token="+token, nil))
	require.Equal(t, http.StatusUnauthorized, resp.Code)
}

func TestBearerToken(t *testing.T) {
	token, ok := bearerToken("bearer  abc ")
	require.True(t, ok)
	require.Equal(t, "abc", token)
	_, ok = bearerToken("Bearer")
	require.False(t, ok)
	_, ok = bearerToken("Basic abc")
	require.False(t, ok)
}

func TestRequestID(t *testing.T) {
	engine := newTestEngine(RequestID())
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set(RequestIDHeader, "abc")
	resp := httptest.NewRecorder()
	engine.ServeHTTP(resp, req)
	require.Equal(t, "abc", resp.Header().Get(RequestIDHeader))

	resp = httptest.NewRecorder()
	engine.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/x", nil))
	require.Len(t, resp.Header().Get(RequestIDHeader), 36)
}

func TestCORSAllowlist(t *testing.T) {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	engine.Use(CORS([]string{"https://app.example.com"}))
	engine.GET("/x", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})

	req := httptest.NewRequest(http.MethodOptions, "/x", nil)
	req.Header.Set("Origin", "https://app.example.com")
	resp := httptest.NewRecorder()
	engine.ServeHTTP(resp, req)
	require.Equal(t, http.StatusNoContent, resp.Code)
	require.Equal(t, "https://app.example.com", resp.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	resp = httptest.NewRecorder()
	engine.ServeHTTP(resp, req)
	require.Empty(t, resp.Header().Get("Access-Control-Allow-Origin"))
}
