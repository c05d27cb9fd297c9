package routes

import (
	"net/http"

	"voltshop_back_end/internal/cache"
	"voltshop_back_end/internal/handlers/cart"
	"voltshop_back_end/internal/handlers/importer"
	"voltshop_back_end/internal/handlers/order"
	"voltshop_back_end/internal/handlers/payement"
	"voltshop_back_end/internal/handlers/product"
	"voltshop_back_end/internal/handlers/shipping"
	"voltshop_back_end/internal/middleware"

	"github.com/gin-gonic/gin"
)

type Handlers struct {
	Products *product.Handler
	Orders   *order.Handler
	Payments *payement.Handler
	Import   *importer.Handler
	Shipping *shipping.Handler
	Cart     *cart.Handler

	Cache          *cache.Cache
	AdminToken     string
	OrderRateLimit int
}

func RegisterRoutes(r *gin.Engine, h Handlers) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"success": true, "status": "ok"})
	})

	api := r.Group("/api")
	orderLimit := middleware.OrderRateLimit(h.Cache, h.OrderRateLimit)

	// Produits
	api.GET("/products", h.Products.ListProducts)
	api.GET("/products/search", middleware.SearchRateLimit(h.Cache), h.Products.SearchProducts)
	api.GET("/products/:id", h.Products.GetProduct)
	api.POST("/products", h.Products.CreateProduct)
	api.GET("/categories", h.Products.GetCategories)

	// Commandes
	api.POST("/order/create", orderLimit, h.Orders.CreateOrder)
	api.GET("/orders/:id", h.Orders.GetOrder)
	api.POST("/send-status-email", h.Orders.SendStatusEmail)

	// Paiement
	api.POST("/payment/create-session", orderLimit, h.Payments.CreateSession)
	api.POST("/payment/liqpay-callback", h.Payments.LiqPayCallback)
	api.POST("/payment/stripe-webhook", h.Payments.StripeWebhook)
	api.GET("/payment/:orderId/qr", h.Payments.PaymentQR)

	// Panier
	api.GET("/cart/clear-status/:orderId", h.Cart.ClearStatus)
	api.GET("/cart/events/:orderId", h.Cart.Events)

	// Livraison
	api.GET("/novaposhta/cities", h.Shipping.Cities)
	api.GET("/novaposhta/warehouses", h.Shipping.Warehouses)

	// Import fournisseur
	api.POST("/import", middleware.RequireAdmin(h.AdminToken), h.Import.RunImport)

	admin := api.Group("/admin", middleware.RequireAdmin(h.AdminToken))
	{
		admin.POST("/import", h.Import.RunImport)
		admin.GET("/import/logs", h.Import.ListLogs)

		admin.PUT("/products/:id/category", h.Products.UpdateCategory)
		admin.POST("/products/cleanup", h.Products.Cleanup)

		admin.GET("/orders", h.Orders.ListOrders)
		admin.PATCH("/orders/:id/status", h.Orders.UpdateStatus)
		admin.POST("/orders/reconcile", h.Orders.Reconcile)
	}
}
