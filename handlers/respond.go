package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"mizora-service/internal/apperr"
	"mizora-service/internal/auth"
	"mizora-service/pkg/ctxmanage"
	"mizora-service/pkg/logkey"
)

func statusFor(err error) int {
	switch {
	case errors.Is(err, apperr.ErrValidation), errors.Is(err, apperr.ErrEmptyCart), errors.Is(err, apperr.ErrSignature):
		return http.StatusBadRequest
	case errors.Is(err, apperr.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, apperr.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, apperr.ErrUpstream):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// fail logs err and writes the error envelope. Internal errors are reported
// to the client as fallback, never with their cause.
func fail(c *gin.Context, fallback string, err error) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)
	status := statusFor(err)
	msg := fallback
	if status < http.StatusInternalServerError || status == http.StatusBadGateway {
		msg = apperr.Message(err)
	}
	if status >= http.StatusInternalServerError {
		slog.Error(fallback, slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
	} else {
		slog.Warn(fallback, slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
	}
	c.AbortWithStatusJSON(status, gin.H{"success": false, "error": msg})
}

func badRequest(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"success": false, "error": msg})
}

// claimsOf reads the claims set by the authentication middleware.
func claimsOf(c *gin.Context) (auth.Claims, bool) {
	claims, ok := c.Request.Context().Value(auth.ClaimsKey).(auth.Claims)
	if !ok {
		slog.Error("claims not found", slog.String(logkey.TraceID, ctxmanage.GetTraceIdOfRequest(c)))
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "error": "Unauthorized"})
		return auth.Claims{}, false
	}
	return claims, true
}
