package routes

import (
	"github.com/gofiber/fiber/v2"

	"cxls/internal/modules/admin/handler"
)

func NewAdminRoutes(routerAdmin fiber.Router, handler *handler.AdminHandler) {
	routerAdmin.Post("/items", handler.CreateItem)
	routerAdmin.Put("/items/:id", handler.UpdateItem)
	routerAdmin.Post("/items/:id/gift", handler.Gift)
	routerAdmin.Post("/items/:id/transfer", handler.Transfer)
	routerAdmin.Delete("/items/:id", handler.Burn)

	routerAdmin.Post("/balance/adjust", handler.Adjust)
	routerAdmin.Post("/users/ban", handler.Ban)

	routerAdmin.Get("/payments", handler.ListPayments)
	routerAdmin.Post("/payments/:id/resolve", handler.ResolvePayment)
}
