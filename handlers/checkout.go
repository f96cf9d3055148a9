package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"mizora-service/internal/orders"
	"mizora-service/pkg/ctxmanage"
	"mizora-service/pkg/logkey"
)

func (h *Handler) Checkout(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)
	claims, ok := claimsOf(c)
	if !ok {
		return
	}

	var request struct {
		ShippingAddress *orders.ShippingAddress `json:"shippingAddress"`
	}
	if err := c.ShouldBindJSON(&request); err != nil || request.ShippingAddress == nil {
		badRequest(c, "Shipping address is required")
		return
	}

	res, err := h.checkout.Checkout(c.Request.Context(), claims.Subject, claims.Email, *request.ShippingAddress)
	if err != nil {
		fail(c, "Failed to create checkout session", err)
		return
	}

	slog.Info("checkout session created", slog.String(logkey.TraceID, traceId),
		slog.String(logkey.OrderID, res.OrderID), slog.String(logkey.SessionID, res.SessionID), slog.String(logkey.UserID, claims.Subject))
	c.JSON(http.StatusOK, gin.H{"success": true, "data": res})
}
