package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/agro-inventario/internal/application/inventory"
	"github.com/jhoicas/agro-inventario/pkg/logger"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	Valuation *inventory.ValuationUseCase
	Movements *inventory.MovementUseCase
	Imports   *inventory.ImportUseCase
	Counts    *inventory.CountUseCase
	JWTSecret string
	Log       *logger.Logger
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	validate := newValidator()

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	api := app.Group("/api", AuthMiddleware(deps.JWTSecret))
	writers := RequireRole(RoleAdmin, RoleBodeguero)
	admins := RequireRole(RoleAdmin)

	// Libro de movimientos y valorización
	inv := api.Group("/inventory")
	inventoryHandler := NewInventoryHandler(deps.Valuation, deps.Movements, deps.Imports, validate, deps.Log)
	inv.Get("/positions", inventoryHandler.Positions)
	inv.Get("/positions/:product_id/:branch_id", inventoryHandler.Position)
	inv.Get("/stock-log", inventoryHandler.StockLog)
	inv.Post("/movements", writers, inventoryHandler.RegisterMovement)
	inv.Put("/movements/:id", writers, inventoryHandler.UpdateMovement)
	inv.Delete("/movements/:id", writers, inventoryHandler.DeleteMovement)
	inv.Post("/transfers", writers, inventoryHandler.RegisterTransfer)
	inv.Post("/conversions", writers, inventoryHandler.RegisterConversion)
	inv.Post("/imports", writers, inventoryHandler.ImportInflows)
	inv.Delete("/remissions/:number", admins, inventoryHandler.DeleteRemission)

	// Conteos físicos
	counts := api.Group("/counts")
	countHandler := NewCountHandler(deps.Counts, validate, deps.Log)
	counts.Get("/", countHandler.List)
	counts.Post("/", writers, countHandler.Create)
	counts.Get("/:id", countHandler.GetByID)
	counts.Get("/:id/report", countHandler.Report)
	counts.Put("/:id/items", writers, countHandler.UpdateItems)
	counts.Post("/:id/recalculate", writers, countHandler.Recalculate)
	counts.Post("/:id/equalize", writers, countHandler.Equalize)
	counts.Post("/:id/complete", writers, countHandler.Complete)
	counts.Post("/:id/apply", admins, countHandler.ApplyAdjustments)
	counts.Delete("/:id", admins, countHandler.Delete)
}
