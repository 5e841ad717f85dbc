package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/lotes-api/internal/application/stock"
	"github.com/jhoicas/lotes-api/internal/application/usecase"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	ProductUC     *usecase.ProductUseCase
	MutationUC    *stock.MutationUseCase
	ReservationUC *stock.ReservationUseCase
	QueryUC       *stock.QueryUseCase
	JWTSecret     string
}

// Router registra las rutas de la API. Todas las rutas del motor requieren
// Bearer Token (la emisión de tokens es del resto de la plataforma).
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api", AuthMiddleware(deps.JWTSecret))

	// Products (protegido)
	products := api.Group("/products")
	productHandler := NewProductHandler(deps.ProductUC)
	products.Post("/", productHandler.Create)
	products.Get("/", productHandler.List)
	products.Get("/:id", productHandler.GetByID)

	// Stock: entradas, salidas, ajustes y consultas (protegido)
	stockHandler := NewStockHandler(deps.MutationUC, deps.QueryUC)
	products.Get("/:id/lots", stockHandler.ListLots)
	stockGroup := api.Group("/stock")
	stockGroup.Post("/entries", stockHandler.StockIn)
	stockGroup.Post("/exits", stockHandler.StockOut)
	stockGroup.Post("/adjustments", RequireRole("admin", "estoquista"), stockHandler.Adjust)
	stockGroup.Get("/movements", stockHandler.ListMovements)
	stockGroup.Get("/alerts", stockHandler.Alerts)
	stockGroup.Get("/lots/:id/balance-check", stockHandler.BalanceCheck)

	// Reservations (protegido)
	reservations := api.Group("/reservations")
	reservationHandler := NewReservationHandler(deps.ReservationUC)
	reservations.Post("/", reservationHandler.Reserve)
	reservations.Post("/expire", reservationHandler.Expire)
	reservations.Get("/documents/:documentId", reservationHandler.ListByDocument)
	reservations.Delete("/documents/:documentId", reservationHandler.Release)
	reservations.Post("/documents/:documentId/confirm", reservationHandler.Confirm)
}
