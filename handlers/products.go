package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (h *Handler) ListProducts(c *gin.Context) {
	products := h.catalog.List(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{"success": true, "data": products})
}

// GetProduct accepts a slug or a product id.
func (h *Handler) GetProduct(c *gin.Context) {
	p := h.catalog.ResolveSlug(c.Request.Context(), c.Param("slug"))
	if p == nil {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"success": false, "error": "Product not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": p})
}
