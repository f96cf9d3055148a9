package handlers

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"mizora-service/internal/apperr"
	"mizora-service/pkg/ctxmanage"
	"mizora-service/pkg/logkey"
)

const MaxBodyBytes = int64(65536)

// Webhook verifies and applies a provider event. Once the signature checks
// out the provider always gets 200 so it stops retrying; failures to apply
// are logged for repair.
func (h *Handler) Webhook(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, MaxBodyBytes)
	payload, err := io.ReadAll(c.Request.Body)
	if err != nil {
		slog.Error("failed to read webhook body", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		badRequest(c, "Invalid payload")
		return
	}

	event, err := h.provider.ParseWebhook(payload, c.GetHeader("Stripe-Signature"))
	if err != nil {
		if errors.Is(err, apperr.ErrSignature) {
			fail(c, "webhook signature verification failed", err)
			return
		}
		slog.Error("failed to decode webhook event", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		badRequest(c, "Invalid payload")
		return
	}

	if err := h.reconciler.HandleEvent(c.Request.Context(), event); err != nil {
		attrs := []any{slog.String(logkey.TraceID, traceId), slog.String(logkey.EventType, event.Type), slog.String(logkey.ERROR, err.Error())}
		if event.Session != nil {
			attrs = append(attrs, slog.String(logkey.SessionID, event.Session.ID), slog.String(logkey.OrderID, event.Session.OrderID()))
		}
		slog.Error("failed to apply webhook event", attrs...)
	}
	c.JSON(http.StatusOK, gin.H{"received": true})
}
