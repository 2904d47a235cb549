package routes

import (
	"github.com/gofiber/fiber/v2"

	"cxls/internal/modules/notify/handler"
)

func NewNotifyRoutes(routerNotify fiber.Router, handler *handler.NotifyHandler) {
	routerNotify.Get("/", handler.List)
	routerNotify.Post("/read", handler.MarkRead)
	routerNotify.Get("/events", handler.Events)
}
