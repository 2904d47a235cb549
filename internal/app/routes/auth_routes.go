package routes

import (
	"github.com/gofiber/fiber/v2"

	"cxls/internal/app/factory"
	"cxls/internal/app/middleware"
)

func NewAuthRoutes(routerAuth fiber.Router, container *factory.Container) {
	routerAuth.Post("/register", container.AuthHandler.Register)
	routerAuth.Post("/login", container.AuthHandler.Login)
	routerAuth.Get("/me", middleware.RequireAuth(container.Auth, container.Ledger), container.AuthHandler.Me)
}
