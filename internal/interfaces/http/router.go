package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/jhoicas/gestor-api/internal/application/catalog"
	"github.com/jhoicas/gestor-api/internal/application/inventory"
	"github.com/jhoicas/gestor-api/internal/application/order"
	"github.com/jhoicas/gestor-api/internal/application/route"
	"github.com/jhoicas/gestor-api/pkg/jwt"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	ProductUC  *catalog.ProductUseCase
	CustomerUC *catalog.CustomerUseCase
	CourierUC  *catalog.CourierUseCase
	Ledger     *inventory.Ledger
	OrderUC    *order.UseCase
	RouteUC    *route.UseCase
	JWTSecret  string
	Log        zerolog.Logger
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	api := app.Group("/api")

	// Todo /api requiere Bearer Token
	protected := api.Group("/", AuthMiddleware(deps.JWTSecret))
	stockRoles := RequireRole(jwt.RoleAdmin, jwt.RoleBodeguero)
	adminOnly := RequireRole(jwt.RoleAdmin)

	// Products
	products := protected.Group("/products")
	productHandler := NewProductHandler(deps.ProductUC, deps.Log)
	products.Post("/", adminOnly, productHandler.Create)
	products.Get("/", productHandler.List)
	products.Get("/:id", productHandler.GetByID)
	products.Put("/:id", adminOnly, productHandler.Update)
	products.Delete("/:id", adminOnly, productHandler.Deactivate)

	// Customers
	customers := protected.Group("/customers")
	customerHandler := NewCustomerHandler(deps.CustomerUC, deps.Log)
	customers.Post("/", customerHandler.Create)
	customers.Get("/", customerHandler.List)
	customers.Get("/:id", customerHandler.GetByID)
	customers.Put("/:id", customerHandler.Update)

	// Couriers
	couriers := protected.Group("/couriers")
	courierHandler := NewCourierHandler(deps.CourierUC, deps.Log)
	couriers.Post("/", adminOnly, courierHandler.Create)
	couriers.Get("/", courierHandler.List)
	couriers.Get("/:id", courierHandler.GetByID)
	couriers.Put("/:id", adminOnly, courierHandler.Update)

	// Inventory: lectura para todos, mutaciones solo admin/bodeguero
	inv := protected.Group("/inventory")
	inventoryHandler := NewInventoryHandler(deps.Ledger, deps.Log)
	inv.Get("/", inventoryHandler.List)
	inv.Get("/low-stock", inventoryHandler.LowStock)
	inv.Get("/replenishment", inventoryHandler.Replenishment)
	inv.Post("/", stockRoles, inventoryHandler.Create)
	inv.Get("/:productId", inventoryHandler.Get)
	inv.Get("/:productId/movements", inventoryHandler.Movements)
	inv.Get("/:productId/reconcile", inventoryHandler.Reconcile)
	inv.Post("/:productId/adjust", stockRoles, inventoryHandler.Adjust)
	inv.Post("/:productId/ensure", stockRoles, inventoryHandler.Ensure)
	inv.Put("/:productId", stockRoles, inventoryHandler.UpdateSettings)
	inv.Delete("/:productId", stockRoles, inventoryHandler.Deactivate)

	// Orders
	orders := protected.Group("/orders")
	orderHandler := NewOrderHandler(deps.OrderUC, deps.Ledger, deps.Log)
	orders.Post("/", orderHandler.Create)
	orders.Get("/", orderHandler.List)
	orders.Get("/counts", orderHandler.Counts)
	orders.Get("/:id", orderHandler.GetByID)
	orders.Get("/:id/movements", orderHandler.Movements)
	orders.Patch("/:id/status", orderHandler.UpdateStatus)
	orders.Post("/:id/cancel", orderHandler.Cancel)
	orders.Delete("/:id", orderHandler.Deactivate)

	// Routes
	routes := protected.Group("/routes")
	routeHandler := NewRouteHandler(deps.RouteUC, deps.Log)
	routes.Post("/", routeHandler.Create)
	routes.Get("/", routeHandler.List)
	routes.Get("/:id", routeHandler.GetByID)
	routes.Get("/:id/manifest.pdf", routeHandler.Manifest)
	routes.Post("/:id/orders", routeHandler.AssignOrders)
	routes.Delete("/:id/orders/:orderId", routeHandler.RemoveOrder)
	routes.Patch("/:id/status", routeHandler.UpdateStatus)
	routes.Delete("/:id", routeHandler.Deactivate)
}
