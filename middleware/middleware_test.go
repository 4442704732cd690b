package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dododo1295/studyroute/model"
	"github.com/dododo1295/studyroute/services"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubAuthenticator struct {
	sessions map[string]string // token -> email
	revoked  map[string]bool
}

func (s stubAuthenticator) Authenticate(_ context.Context, token string) (*services.Claims, error) {
	if s.revoked[token] {
		return nil, model.ErrSessionNotFound
	}
	email, ok := s.sessions[token]
	if !ok {
		return nil, fmt.Errorf("%w: bad signature", model.ErrNotAuthenticated)
	}
	return &services.Claims{
		SessionID:        "sess-" + token,
		RegisteredClaims: jwt.RegisteredClaims{Subject: email},
	}, nil
}

func serve(r *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestAuthMiddleware(t *testing.T) {
	auth := stubAuthenticator{
		sessions: map[string]string{"good": "ana@x.com"},
		revoked:  map[string]bool{"old": true},
	}

	r := gin.New()
	r.GET("/me", AuthMiddleware(auth), func(c *gin.Context) {
		email, ok := CurrentEmail(c)
		require.True(t, ok)
		c.String(http.StatusOK, email+"|"+CurrentSessionID(c))
	})

	tests := []struct {
		name       string
		header     string
		wantStatus int
		wantBody   string
	}{
		{name: "Valid", header: "Bearer good", wantStatus: http.StatusOK, wantBody: "ana@x.com|sess-good"},
		{name: "Missing", header: "", wantStatus: http.StatusUnauthorized, wantBody: "Missing or invalid token"},
		{name: "WrongScheme", header: "Basic good", wantStatus: http.StatusUnauthorized, wantBody: "Missing or invalid token"},
		{name: "Invalid", header: "Bearer nope", wantStatus: http.StatusUnauthorized, wantBody: "Invalid token"},
		{name: "Revoked", header: "Bearer old", wantStatus: http.StatusUnauthorized, wantBody: "Session expired or revoked"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := serve(r, req)
			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.wantBody)
		})
	}
}

func TestCurrentEmailOutsideAuth(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	_, ok := CurrentEmail(c)
	assert.False(t, ok)
	assert.Empty(t, CurrentSessionID(c))
}

func TestCORSMiddleware(t *testing.T) {
	r := gin.New()
	r.Use(CORSMiddleware([]string{"http://localhost:5173"}))
	r.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	rec := serve(r, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("Origin", "http://other.example")
	rec = serve(r, req)
	assert.Equal(t, http.StatusOK, rec.Code, "non-preflight requests pass without CORS headers")
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodOptions, "/ping", nil)
	req.Header.Set("Origin", "http://other.example")
	assert.Equal(t, http.StatusForbidden, serve(r, req).Code)

	open := gin.New()
	open.Use(CORSMiddleware([]string{"*"}))
	open.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })
	req = httptest.NewRequest(http.MethodOptions, "/ping", nil)
	req.Header.Set("Origin", "http://other.example")
	rec = serve(open, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "http://other.example", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRecoveryMiddleware(t *testing.T) {
	r := gin.New()
	r.Use(RequestTracingMiddleware(), RecoveryMiddleware())
	r.GET("/boom", func(c *gin.Context) { panic(errors.New("boom")) })

	rec := serve(r, httptest.NewRequest(http.MethodGet, "/boom", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"internal server error"}`, rec.Body.String())
}

func TestRequestTracingMiddleware(t *testing.T) {
	r := gin.New()
	r.Use(RequestTracingMiddleware(), RequestLogger())
	r.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, c.GetString(RequestIDKey)) })

	rec := serve(r, httptest.NewRequest(http.MethodGet, "/ping", nil))
	generated := rec.Header().Get("X-Request-ID")
	_, err := uuid.Parse(generated)
	require.NoError(t, err)
	assert.Equal(t, generated, rec.Body.String())

	incoming := uuid.NewString()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("X-Request-ID", incoming)
	assert.Equal(t, incoming, serve(r, req).Header().Get("X-Request-ID"))

	req = httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("X-Request-ID", "not-a-uuid")
	assert.NotEqual(t, "not-a-uuid", serve(r, req).Header().Get("X-Request-ID"))
}

func TestRequestSizeLimiter(t *testing.T) {
	r := gin.New()
	r.Use(RequestSizeLimiter(16))
	r.POST("/echo", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodPost, "/echo", strings.NewReader(strings.Repeat("x", 64)))
	rec := serve(r, req)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Contains(t, rec.Body.String(), "request body too large")

	req = httptest.NewRequest(http.MethodPost, "/echo", strings.NewReader("small"))
	assert.Equal(t, http.StatusOK, serve(r, req).Code)
}

func TestHeaderMiddlewares(t *testing.T) {
	r := gin.New()
	r.Use(SecurityHeaders(), CacheControlMiddleware("no-store"), MetricsMiddleware())
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	rec := serve(r, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
}
