package routes

import (
	"github.com/gofiber/fiber/v2"

	"cxls/internal/modules/market/handler"
)

func NewMarketRoutes(routerMarket fiber.Router, handler *handler.MarketHandler) {
	routerMarket.Get("/items", handler.ListItems)
	routerMarket.Get("/items/:id", handler.GetItem)
	routerMarket.Post("/items/:id/buy", handler.Buy)
	routerMarket.Post("/items/:id/gift", handler.Gift)
	routerMarket.Post("/items/:id/upgrade", handler.Upgrade)
}
