package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mizora-service/internal/auth"
	"mizora-service/pkg/ctxmanage"
)

func router(t *testing.T) (*gin.Engine, *auth.Keys) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	k, err := auth.NewKeys("s3cret")
	require.NoError(t, err)
	m, err := NewMid(k)
	require.NoError(t, err)

	r := gin.New()
	r.Use(Logger())
	r.GET("/me", m.Authentication(), func(c *gin.Context) {
		claims := c.Request.Context().Value(auth.ClaimsKey).(auth.Claims)
		c.JSON(http.StatusOK, gin.H{"user": claims.Subject, "trace": ctxmanage.GetTraceIdOfRequest(c)})
	})
	return r, k
}

func TestAuthenticationHeaderAndCookie(t *testing.T) {
	r, k := router(t)
	tok, err := k.GenerateToken(auth.NewClaims("u1", "", time.Hour))
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"user":"u1"`)
	assert.NotContains(t, w.Body.String(), `"trace":"Unknown"`)

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/me", nil)
	req.AddCookie(&http.Cookie{Name: auth.CookieName, Value: tok})
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAuthenticationRejects(t *testing.T) {
	r, _ := router(t)
	for _, h := range []string{"", "Bearer", "Token abc", "Bearer not-a-jwt"} {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		if h != "" {
			req.Header.Set("Authorization", h)
		}
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code, h)
	}
}
