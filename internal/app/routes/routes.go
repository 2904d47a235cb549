package routes

import (
	"github.com/gofiber/fiber/v2"

	"cxls/internal/app/factory"
	"cxls/internal/app/middleware"
)

func NewRoutes(app *fiber.App, container *factory.Container) {
	routerApi := app.Group("/api")

	// Register healthz routes
	healthzRoutes := routerApi.Group("/healthz")
	NewHealthzRoutes(healthzRoutes)

	// Auth routes (register/login are public)
	routerAuth := routerApi.Group("/auth")
	NewAuthRoutes(routerAuth, container)

	authed := middleware.RequireAuth(container.Auth, container.Ledger)

	// Market routes
	routerMarket := routerApi.Group("/market", authed)
	NewMarketRoutes(routerMarket, container.MarketHandler)

	// Wallet routes
	routerWallet := routerApi.Group("/wallet", authed)
	NewWalletRoutes(routerWallet, container.WalletHandler)

	// Notification routes
	routerNotify := routerApi.Group("/notifications", authed)
	NewNotifyRoutes(routerNotify, container.NotifyHandler)

	// Admin routes
	routerAdmin := routerApi.Group("/admin", authed, middleware.RequireAdmin())
	NewAdminRoutes(routerAdmin, container.AdminHandler)
}
