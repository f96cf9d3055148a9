package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"mizora-service/internal/auth"
	"mizora-service/pkg/ctxmanage"
	"mizora-service/pkg/logkey"
)

type Mid struct {
	k *auth.Keys
}

func NewMid(k *auth.Keys) (Mid, error) {
	if k == nil {
		return Mid{}, errors.New("auth keys are nil")
	}
	return Mid{k: k}, nil
}

// Logger gives every request a trace id and logs it on completion.
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		traceId := uuid.NewString()
		ctx := ctxmanage.WithTraceId(c.Request.Context(), traceId)
		c.Request = c.Request.WithContext(ctx)

		start := time.Now()
		slog.Info("started", slog.String(logkey.TraceID, traceId),
			slog.String("Method", c.Request.Method), slog.String("URL Path", c.Request.URL.Path))

		c.Next()

		slog.Info("completed", slog.String(logkey.TraceID, traceId),
			slog.String("Method", c.Request.Method), slog.String("URL Path", c.Request.URL.Path),
			slog.Int("Status Code", c.Writer.Status()), slog.Int64("duration μs", time.Since(start).Microseconds()))
	}
}

// Authentication accepts a Bearer token or the session cookie and puts the
// claims in the request context under auth.ClaimsKey.
func (m *Mid) Authentication() gin.HandlerFunc {
	return func(c *gin.Context) {
		traceId := ctxmanage.GetTraceIdOfRequest(c)

		tokenStr := ""
		if h := c.Request.Header.Get("Authorization"); h != "" {
			parts := strings.Split(h, " ")
			if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
				slog.Error("expected authorization header format: Bearer <token>", slog.String(logkey.TraceID, traceId))
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "error": "Unauthorized"})
				return
			}
			tokenStr = parts[1]
		} else if cookie, err := c.Cookie(auth.CookieName); err == nil {
			tokenStr = cookie
		}
		if tokenStr == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "error": "Please sign in"})
			return
		}

		claims, err := m.k.ValidateToken(tokenStr)
		if err != nil {
			slog.Error("token validation failed", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "error": "Unauthorized"})
			return
		}

		ctx := context.WithValue(c.Request.Context(), auth.ClaimsKey, claims)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
