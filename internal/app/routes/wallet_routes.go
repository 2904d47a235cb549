package routes

import (
	"github.com/gofiber/fiber/v2"

	"cxls/internal/modules/wallet/handler"
)

func NewWalletRoutes(routerWallet fiber.Router, handler *handler.WalletHandler) {
	routerWallet.Get("/balance", handler.Balance)
	routerWallet.Get("/history", handler.History)
	routerWallet.Get("/payments", handler.Payments)
	routerWallet.Post("/deposit", handler.Deposit)
	routerWallet.Post("/withdraw", handler.Withdraw)
}
