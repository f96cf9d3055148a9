package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (h *Handler) GetWishlist(c *gin.Context) {
	claims, ok := claimsOf(c)
	if !ok {
		return
	}
	entries, err := h.wishlist.List(c.Request.Context(), claims.Subject)
	if err != nil {
		fail(c, "Failed to get wishlist", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": entries})
}

func (h *Handler) AddToWishlist(c *gin.Context) {
	claims, ok := claimsOf(c)
	if !ok {
		return
	}
	var request struct {
		ProductID string `json:"productId"`
	}
	if err := c.ShouldBindJSON(&request); err != nil {
		badRequest(c, "Invalid request body")
		return
	}
	added, err := h.wishlist.Add(c.Request.Context(), claims.Subject, request.ProductID)
	if err != nil {
		fail(c, "Failed to add to wishlist", err)
		return
	}
	if !added {
		c.JSON(http.StatusOK, gin.H{"success": true, "message": "Already in wishlist"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "message": "Added to wishlist"})
}

func (h *Handler) RemoveFromWishlist(c *gin.Context) {
	claims, ok := claimsOf(c)
	if !ok {
		return
	}
	if err := h.wishlist.Remove(c.Request.Context(), claims.Subject, c.Query("productId")); err != nil {
		fail(c, "Failed to remove from wishlist", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Removed from wishlist"})
}
