// Package server assembles the HTTP surface of the service.
package server

import (
	alertHandler "github.com/fekuna/omnipos-stock-service/internal/alert/handler"
	"github.com/fekuna/omnipos-stock-service/internal/auth"
	catHandler "github.com/fekuna/omnipos-stock-service/internal/category/handler"
	"github.com/fekuna/omnipos-stock-service/internal/health"
	invHandler "github.com/fekuna/omnipos-stock-service/internal/inventory/handler"
	"github.com/fekuna/omnipos-stock-service/internal/metrics"
	prodHandler "github.com/fekuna/omnipos-stock-service/internal/product/handler"
	"github.com/fekuna/omnipos-stock-service/pkg/logger"
	"github.com/fekuna/omnipos-stock-service/pkg/middleware"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
)

type Handlers struct {
	Product   *prodHandler.ProductHandler
	Category  *catHandler.CategoryHandler
	Inventory *invHandler.InventoryHandler
	Alert     *alertHandler.AlertHandler
	Health    *health.Checker
}

func NewRouter(h Handlers, jwtUtil *auth.JWTUtil, m *metrics.Metrics, log logger.ZapLogger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = HTTPErrorHandler(log)

	// metrics wraps the request logger so it sees the status the error handler wrote
	e.Use(echomiddleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(m.Middleware())
	e.Use(middleware.RequestLogger(log))

	if h.Health != nil {
		e.GET("/health", h.Health.Handler)
	}
	if m != nil {
		e.GET("/metrics", echo.WrapHandler(m.Handler()))
	}

	// Auth is attached per route so unknown paths still 404.
	user := []echo.MiddlewareFunc{auth.JWTAuth(jwtUtil, log)}
	admin := append(user, auth.RequireRole(auth.RoleAdmin))

	api := e.Group("/api/v1")

	// Catalog
	api.GET("/products", h.Product.ListProducts)
	api.GET("/products/featured", h.Product.ListFeatured)
	api.GET("/products/search", h.Product.SearchProducts)
	api.GET("/products/:id", h.Product.GetProduct)
	api.GET("/products/:id/related", h.Product.ListRelated)
	api.GET("/products/:id/variants", h.Product.ListVariants)
	api.POST("/products", h.Product.CreateProduct, admin...)
	api.PATCH("/products/featured", h.Product.SetFeatured, admin...)
	api.PUT("/products/:id", h.Product.UpdateProduct, admin...)
	api.DELETE("/products/:id", h.Product.DeleteProduct, admin...)
	api.POST("/products/:id/variants", h.Product.AddVariant, admin...)
	api.PUT("/products/:id/variants/:variantId", h.Product.UpdateVariant, admin...)

	api.GET("/categories", h.Category.ListCategories)
	api.GET("/categories/:id", h.Category.GetCategory)
	api.POST("/categories", h.Category.CreateCategory, admin...)
	api.PUT("/categories/:id", h.Category.UpdateCategory, admin...)
	api.DELETE("/categories/:id", h.Category.DeleteCategory, admin...)

	// Inventory
	api.PATCH("/products/:id/inventory", h.Inventory.UpdateInventory, admin...)
	api.GET("/products/inventory/low-stock", h.Inventory.ListLowStock, admin...)
	api.GET("/products/inventory/back-in-stock", h.Inventory.ListBackInStock, admin...)
	api.GET("/products/:id/inventory/movements", h.Inventory.ListMovements, admin...)

	// Stock alerts
	api.POST("/products/:id/alert", h.Alert.Subscribe, user...)
	api.DELETE("/products/:id/alert", h.Alert.Unsubscribe, user...)
	api.GET("/alerts", h.Alert.List, user...)
	api.DELETE("/alerts/:alertId", h.Alert.Delete, user...)

	return e
}
