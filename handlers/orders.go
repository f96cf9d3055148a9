package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"mizora-service/internal/orders"
)

func (h *Handler) ListOrders(c *gin.Context) {
	claims, ok := claimsOf(c)
	if !ok {
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
	filter := orders.ListFilter{Page: page, Limit: limit}
	if s := c.Query("status"); s != "" {
		st, ok := orders.ParseStatus(s)
		if !ok {
			badRequest(c, "Invalid status")
			return
		}
		filter.Status = st
	}

	result, err := h.orders.List(c.Request.Context(), claims.Subject, filter)
	if err != nil {
		fail(c, "Failed to get orders", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"orders": result.Orders,
			"pagination": gin.H{
				"page":       result.Page,
				"limit":      result.Limit,
				"total":      result.Total,
				"totalPages": result.TotalPages,
			},
		},
	})
}

func (h *Handler) GetOrder(c *gin.Context) {
	claims, ok := claimsOf(c)
	if !ok {
		return
	}
	o, err := h.orders.Get(c.Request.Context(), claims.Subject, c.Param("id"))
	if err != nil {
		fail(c, "Failed to get order", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": o})
}

// UpdateOrder lets a customer cancel; no other status change is accepted.
func (h *Handler) UpdateOrder(c *gin.Context) {
	claims, ok := claimsOf(c)
	if !ok {
		return
	}
	var request struct {
		Status string `json:"status"`
	}
	if err := c.ShouldBindJSON(&request); err != nil || request.Status != string(orders.StatusCancelled) {
		badRequest(c, "Only cancellation is allowed")
		return
	}
	o, err := h.orders.Cancel(c.Request.Context(), claims.Subject, c.Param("id"))
	if err != nil {
		fail(c, "Failed to update order", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": o, "message": "Order cancelled"})
}

func (h *Handler) VerifyPayment(c *gin.Context) {
	claims, ok := claimsOf(c)
	if !ok {
		return
	}
	var request struct {
		SessionID string `json:"sessionId"`
		OrderID   string `json:"orderId"`
	}
	if err := c.ShouldBindJSON(&request); err != nil {
		badRequest(c, "Missing session ID or order ID")
		return
	}

	res, err := h.reconciler.VerifyPayment(c.Request.Context(), claims.Subject, request.SessionID, request.OrderID)
	if err != nil {
		fail(c, "Failed to verify payment", err)
		return
	}
	if !res.Paid {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "Payment not completed",
			"data":    gin.H{"paymentStatus": res.ProviderStatus},
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": res})
}
