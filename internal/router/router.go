package router

import (
	"github.com/gin-gonic/gin"
	"github.com/ikkim/storefront/config"
	"github.com/ikkim/storefront/internal/app/controller"
	"github.com/ikkim/storefront/internal/middleware"
)

type Router struct {
	cartController         *controller.CartController
	productController      *controller.ProductController
	notificationController *controller.NotificationController
	webSocketController    *controller.WebSocketController
	config                 *config.Config
}

func NewRouter(
	cartController *controller.CartController,
	productController *controller.ProductController,
	notificationController *controller.NotificationController,
	webSocketController *controller.WebSocketController,
	cfg *config.Config,
) *Router {
	return &Router{
		cartController:         cartController,
		productController:      productController,
		notificationController: notificationController,
		webSocketController:    webSocketController,
		config:                 cfg,
	}
}

func (r *Router) Setup() *gin.Engine {
	gin.SetMode(r.config.Server.GinMode)

	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.LoggingMiddleware())
	router.Use(corsMiddleware(r.config.CORS.AllowedOrigins))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "healthy",
			"message": "Storefront cart API is running",
		})
	})

	v1 := router.Group("/api/v1")
	{
		cart := v1.Group("/cart")
		{
			cart.GET("", r.cartController.GetCart)
			cart.DELETE("", r.cartController.ClearCart)
			cart.POST("/items", r.cartController.AddItem)
			cart.POST("/items/:id/increase", r.cartController.IncreaseItem)
			cart.POST("/items/:id/decrease", r.cartController.DecreaseItem)
			cart.PUT("/items/:id", r.cartController.UpdateItem)
			cart.DELETE("/items/:id", r.cartController.RemoveItem)
			cart.POST("/coupon", r.cartController.ApplyCoupon)
			cart.POST("/checkout", r.cartController.Checkout)
		}

		products := v1.Group("/products")
		{
			products.GET("", r.productController.ListProducts)
			products.GET("/:id", r.productController.GetProduct)
			products.POST("/:id/cart", r.productController.AddToCart)
		}

		v1.GET("/notifications", r.notificationController.GetNotifications)
		v1.GET("/ws", r.webSocketController.Connect)
	}

	return router
}

func corsMiddleware(allowedOrigins []string) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")

		allowed := false
		for _, allowedOrigin := range allowedOrigins {
			if origin == allowedOrigin || allowedOrigin == "*" {
				allowed = true
				break
			}
		}

		if allowed {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		}

		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-Request-ID, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
