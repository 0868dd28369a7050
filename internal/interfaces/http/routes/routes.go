// internal/interfaces/http/routes/routes.go
package routes

import (
	"github.com/agrovolt/backend/internal/config"
	"github.com/agrovolt/backend/internal/interfaces/http/handlers"
	"github.com/agrovolt/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// SetupRoutes wires every API v1 route group
func SetupRoutes(rg *gin.RouterGroup, db *gorm.DB, redisClient *redis.Client, cfg *config.Config, logger *logrus.Logger) {
	setupAuthRoutes(rg, db, cfg)
	setupProductRoutes(rg, db, cfg)
	setupCartRoutes(rg, db, redisClient, cfg, logger)
	setupCheckoutRoutes(rg, db, redisClient, cfg, logger)
	setupOrderRoutes(rg, db, cfg, logger)
	setupAdminRoutes(rg, db, cfg, logger)
}

// setupAuthRoutes sets up authentication and account routes
func setupAuthRoutes(rg *gin.RouterGroup, db *gorm.DB, cfg *config.Config) {
	authHandler := handlers.NewAuthHandler(db, cfg)
	profileHandler := handlers.NewUserProfileHandler(db, cfg)
	addressHandler := handlers.NewUserAddressHandler(db, cfg)

	auth := rg.Group("/auth")
	{
		// Public auth endpoints
		auth.POST("/register", authHandler.Register)
		auth.POST("/login", authHandler.Login)

		// Protected auth endpoints
		protected := auth.Group("")
		protected.Use(middleware.AuthMiddleware(cfg))
		{
			protected.POST("/logout", authHandler.Logout)
			protected.GET("/profile", authHandler.GetProfile)
			protected.PUT("/profile", profileHandler.UpdateProfile)
			protected.PUT("/password", profileHandler.ChangePassword)

			// Address book
			protected.GET("/addresses", addressHandler.GetAddresses)
			protected.POST("/addresses", addressHandler.CreateAddress)
			protected.GET("/addresses/:id", addressHandler.GetAddress)
			protected.PUT("/addresses/:id", addressHandler.UpdateAddress)
			protected.DELETE("/addresses/:id", addressHandler.DeleteAddress)
		}
	}
}

// setupProductRoutes sets up catalog routes
func setupProductRoutes(rg *gin.RouterGroup, db *gorm.DB, cfg *config.Config) {
	productHandler := handlers.NewProductHandler(db, cfg)

	products := rg.Group("/products")
	{
		products.GET("", productHandler.GetProducts)
		products.GET("/:id", productHandler.GetProduct)
	}
}

// setupCartRoutes sets up cart routes
func setupCartRoutes(rg *gin.RouterGroup, db *gorm.DB, redisClient *redis.Client, cfg *config.Config, logger *logrus.Logger) {
	cartHandler := handlers.NewCartHandler(db, redisClient, cfg, logger)

	cart := rg.Group("/cart")
	cart.Use(middleware.AuthMiddleware(cfg))
	{
		cart.GET("", cartHandler.GetCart)
		cart.DELETE("", cartHandler.ClearCart)
		cart.GET("/count", cartHandler.GetCartCount)
		cart.POST("/items", cartHandler.AddToCart)
		cart.PUT("/items/:id", cartHandler.UpdateCartItem)
		cart.DELETE("/items/:id", cartHandler.RemoveFromCart)
	}
}

// setupCheckoutRoutes sets up checkout flow routes
func setupCheckoutRoutes(rg *gin.RouterGroup, db *gorm.DB, redisClient *redis.Client, cfg *config.Config, logger *logrus.Logger) {
	checkoutHandler := handlers.NewCheckoutHandler(db, redisClient, cfg, logger)

	checkout := rg.Group("/checkout")
	checkout.Use(middleware.AuthMiddleware(cfg))
	{
		checkout.POST("", checkoutHandler.Begin)
		checkout.GET("", checkoutHandler.Current)
		checkout.PUT("/address", checkoutHandler.SelectAddress)
		checkout.PUT("/payment", checkoutHandler.SelectPayment)
		checkout.POST("/submit", checkoutHandler.Submit)
	}
}

// setupOrderRoutes sets up shopper-facing order routes
func setupOrderRoutes(rg *gin.RouterGroup, db *gorm.DB, cfg *config.Config, logger *logrus.Logger) {
	orderHandler := handlers.NewOrderHandler(db, cfg, logger)
	invoiceHandler := handlers.NewInvoiceHandler(db, cfg, logger)

	orders := rg.Group("/orders")
	orders.Use(middleware.AuthMiddleware(cfg))
	{
		orders.POST("", orderHandler.CreateOrder)
		orders.GET("/myorders", orderHandler.GetMyOrders)
		orders.GET("/:id", orderHandler.GetOrder)
		orders.PUT("/:id/cancel", orderHandler.CancelOrder)
		orders.GET("/:id/invoice", invoiceHandler.GenerateInvoice)
		orders.GET("/:id/invoice/data", invoiceHandler.GetInvoiceData)
	}
}

// setupAdminRoutes sets up admin console routes
func setupAdminRoutes(rg *gin.RouterGroup, db *gorm.DB, cfg *config.Config, logger *logrus.Logger) {
	orderHandler := handlers.NewOrderHandler(db, cfg, logger)
	userAdminHandler := handlers.NewUserAdminHandler(db, cfg)

	admin := rg.Group("/admin")
	admin.Use(middleware.AuthMiddleware(cfg))
	admin.Use(middleware.AdminMiddleware())
	{
		admin.GET("/orders", orderHandler.AdminGetOrders)
		admin.GET("/orders/:id", orderHandler.AdminGetOrder)
		admin.PUT("/orders/:id/status", orderHandler.AdminUpdateOrderStatus)
		admin.PUT("/orders/:id/pay", orderHandler.AdminMarkPaid)

		admin.GET("/users", userAdminHandler.GetUsers)
		admin.PUT("/users/:id/active", userAdminHandler.SetUserActive)
	}
}
