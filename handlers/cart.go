package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"mizora-service/pkg/ctxmanage"
	"mizora-service/pkg/logkey"
)

func (h *Handler) GetCart(c *gin.Context) {
	claims, ok := claimsOf(c)
	if !ok {
		return
	}

	cartResponse, err := h.cart.GetCart(c.Request.Context(), claims.Subject)
	if err != nil {
		fail(c, "Failed to get cart", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": cartResponse})
}

func (h *Handler) AddToCart(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)
	claims, ok := claimsOf(c)
	if !ok {
		return
	}

	var request struct {
		ProductID    string `json:"productId"`
		Quantity     *int   `json:"quantity"`
		SelectedSize string `json:"selectedSize"`
	}
	if err := c.ShouldBindJSON(&request); err != nil {
		slog.Error("invalid request body", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		badRequest(c, "Invalid request body")
		return
	}
	quantity := 1
	if request.Quantity != nil {
		quantity = *request.Quantity
	}

	item, err := h.cart.AddItem(c.Request.Context(), claims.Subject, request.ProductID, quantity, request.SelectedSize)
	if err != nil {
		fail(c, "Failed to add item to cart", err)
		return
	}

	slog.Info("product added to cart", slog.String(logkey.TraceID, traceId),
		slog.String(logkey.ProductID, request.ProductID), slog.Int("Quantity", quantity), slog.String(logkey.UserID, claims.Subject))

	if item.Quantity == quantity {
		c.JSON(http.StatusCreated, gin.H{"success": true, "data": item, "message": "Added to cart"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": item, "message": "Cart updated"})
}

func (h *Handler) UpdateCartItem(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)
	claims, ok := claimsOf(c)
	if !ok {
		return
	}

	var request struct {
		ProductID    string `json:"productId"`
		Quantity     *int   `json:"quantity"`
		SelectedSize string `json:"selectedSize"`
	}
	if err := c.ShouldBindJSON(&request); err != nil || request.Quantity == nil {
		slog.Error("invalid request body", slog.String(logkey.TraceID, traceId))
		badRequest(c, "Product ID and quantity are required")
		return
	}

	err := h.cart.SetQuantity(c.Request.Context(), claims.Subject, request.ProductID, request.SelectedSize, *request.Quantity)
	if err != nil {
		fail(c, "Failed to update cart", err)
		return
	}
	if *request.Quantity <= 0 {
		c.JSON(http.StatusOK, gin.H{"success": true, "message": "Item removed from cart"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Cart updated"})
}

// RemoveCartItem handles ?productId=&selectedSize= or ?clearAll=true.
func (h *Handler) RemoveCartItem(c *gin.Context) {
	claims, ok := claimsOf(c)
	if !ok {
		return
	}

	if c.Query("clearAll") == "true" {
		if _, err := h.cart.Clear(c.Request.Context(), claims.Subject); err != nil {
			fail(c, "Failed to clear cart", err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "message": "Cart cleared"})
		return
	}

	productID := c.Query("productId")
	if productID == "" {
		badRequest(c, "Product ID is required")
		return
	}
	if err := h.cart.Remove(c.Request.Context(), claims.Subject, productID, c.Query("selectedSize")); err != nil {
		fail(c, "Failed to remove item from cart", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Item removed from cart"})
}
