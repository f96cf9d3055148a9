package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"mizora-service/internal/auth"
	"mizora-service/internal/cart"
	"mizora-service/internal/catalog"
	"mizora-service/internal/checkout"
	"mizora-service/internal/orders"
	"mizora-service/internal/payment"
	"mizora-service/internal/reconcile"
	"mizora-service/internal/wishlist"
	"mizora-service/middleware"
	"mizora-service/pkg/ctxmanage"
)

type Handler struct {
	catalog    *catalog.ChainedResolver
	cart       cart.Conf
	wishlist   wishlist.Conf
	orders     *orders.Conf
	checkout   *checkout.Service
	reconciler *reconcile.Reconciler
	provider   payment.Provider
}

// Deps are the services the HTTP API is built on.
type Deps struct {
	Catalog    *catalog.ChainedResolver
	Cart       cart.Conf
	Wishlist   wishlist.Conf
	Orders     *orders.Conf
	Checkout   *checkout.Service
	Reconciler *reconcile.Reconciler
	Provider   payment.Provider
	// Mode is the gin mode; anything but release or test runs in debug.
	Mode string
}

func NewHandler(d Deps) *Handler {
	return &Handler{
		catalog:    d.Catalog,
		cart:       d.Cart,
		wishlist:   d.Wishlist,
		orders:     d.Orders,
		checkout:   d.Checkout,
		reconciler: d.Reconciler,
		provider:   d.Provider,
	}
}

func API(endpointPrefix string, k *auth.Keys, d Deps) *gin.Engine {
	r := gin.New()
	switch d.Mode {
	case gin.ReleaseMode, gin.TestMode:
		gin.SetMode(d.Mode)
	default:
		gin.SetMode(gin.DebugMode)
	}
	m, err := middleware.NewMid(k)
	if err != nil {
		panic(err)
	}

	h := NewHandler(d)
	r.Use(middleware.Logger(), gin.Recovery())
	r.GET("/ping", HealthCheck)

	v1 := r.Group(endpointPrefix)
	{
		v1.GET("/products", h.ListProducts)
		v1.GET("/products/:slug", h.GetProduct)
		v1.POST("/webhook/payment", h.Webhook)
	}

	authed := r.Group(endpointPrefix)
	{
		authed.Use(m.Authentication())
		authed.GET("/cart", h.GetCart)
		authed.POST("/cart", h.AddToCart)
		authed.PUT("/cart", h.UpdateCartItem)
		authed.DELETE("/cart", h.RemoveCartItem)

		authed.GET("/wishlist", h.GetWishlist)
		authed.POST("/wishlist", h.AddToWishlist)
		authed.DELETE("/wishlist", h.RemoveFromWishlist)

		authed.POST("/checkout", h.Checkout)

		authed.GET("/orders", h.ListOrders)
		authed.GET("/orders/:id", h.GetOrder)
		authed.PATCH("/orders/:id", h.UpdateOrder)
		authed.POST("/orders/verify-payment", h.VerifyPayment)
	}
	return r
}

func HealthCheck(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)
	c.JSON(http.StatusOK, gin.H{"status": "ok", "traceId": traceId})
}
