package httpserver

import (
	"log"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"

	"thriftshop/internal/cart"
	"thriftshop/internal/checkout"
	"thriftshop/internal/payment"
	adminsvc "thriftshop/internal/service/admin"
	ordersvc "thriftshop/internal/service/order"
	productsvc "thriftshop/internal/service/product"
)

// Deps carries the wired application services the routes dispatch to.
type Deps struct {
	Auth        Authenticator
	Roles       RoleStore
	Carts       *cart.Manager
	Checkout    *checkout.Orchestrator
	Gateway     *payment.WidgetGateway
	Products    *productsvc.Service
	Orders      *ordersvc.Service
	Admins      *adminsvc.Service
	CORSOrigins []string
}

// buildRouter wires routes for the API.
func buildRouter(logger *log.Logger, db *pgxpool.Pool, deps Deps) (*gin.Engine, error) {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.LoggerWithWriter(logger.Writer()), gin.Recovery())

	corsCfg := cors.Config{
		AllowMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Authorization", "Content-Type"},
		MaxAge:       12 * time.Hour,
	}
	if len(deps.CORSOrigins) == 0 {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = deps.CORSOrigins
	}
	router.Use(cors.New(corsCfg))

	router.GET("/healthz", healthHandler)
	router.GET("/readyz", readyHandler(db))

	api := router.Group("/api")
	api.GET("/products", listProductsHandler(deps.Products))
	api.GET("/products/:id", getProductHandler(deps.Products))

	authed := api.Group("")
	authed.Use(authMiddleware(deps.Auth, logger))
	{
		authed.GET("/session", sessionHandler(deps.Roles))
		authed.POST("/session/signout", signOutHandler(deps.Auth, logger))

		authed.GET("/cart", cartHandler(deps.Carts))
		authed.POST("/cart/items", addCartItemHandler(deps.Carts))
		authed.PATCH("/cart/items/:lineID", updateCartItemHandler(deps.Carts))
		authed.DELETE("/cart/items/:lineID", removeCartItemHandler(deps.Carts))
		authed.DELETE("/cart", clearCartHandler(deps.Carts))

		authed.POST("/checkout", startCheckoutHandler(deps.Checkout, deps.Carts, deps.Gateway))
		authed.GET("/checkout/:attemptID", checkoutStatusHandler(deps.Checkout))
		authed.POST("/checkout/:attemptID/payment", completePaymentHandler(deps.Checkout, deps.Gateway))

		authed.GET("/orders", myOrdersHandler(deps.Orders))
	}

	admin := api.Group("/admin")
	admin.Use(authMiddleware(deps.Auth, logger), adminMiddleware(deps.Roles))
	{
		admin.POST("/products", createProductHandler(deps.Products))
		admin.PUT("/products/:id", updateProductHandler(deps.Products))
		admin.DELETE("/products/:id", deleteProductHandler(deps.Products))
		admin.POST("/products/images", uploadProductImageHandler(deps.Products))

		admin.GET("/orders", allOrdersHandler(deps.Orders))
		admin.PATCH("/orders/:id/status", updateOrderStatusHandler(deps.Orders))

		admin.GET("/admins", listAdminsHandler(deps.Admins))
		admin.POST("/admins", addAdminHandler(deps.Admins))
		admin.DELETE("/admins/:userID", removeAdminHandler(deps.Admins))

		admin.GET("/users", listUsersHandler(deps.Admins))
	}

	return router, nil
}
