package factory

import (
	"cxls/internal/config"
	"cxls/internal/ledger"
	adminhandler "cxls/internal/modules/admin/handler"
	authhandler "cxls/internal/modules/auth/handler"
	authusecase "cxls/internal/modules/auth/usecase"
	markethandler "cxls/internal/modules/market/handler"
	notifyhandler "cxls/internal/modules/notify/handler"
	wallethandler "cxls/internal/modules/wallet/handler"
	"cxls/internal/notifier"
)

// Container wires the handlers onto the shared core. One ledger, one
// hub, one auth usecase; the handlers are stateless over them.
type Container struct {
	Ledger *ledger.Ledger
	Auth   *authusecase.AuthUsecase

	AuthHandler   *authhandler.AuthHandler
	MarketHandler *markethandler.MarketHandler
	WalletHandler *wallethandler.WalletHandler
	AdminHandler  *adminhandler.AdminHandler
	NotifyHandler *notifyhandler.NotifyHandler
}

func Build(led *ledger.Ledger, hub *notifier.Hub, authCfg *config.AuthConfig) *Container {
	auth := authusecase.NewAuthUsecase(led, authCfg)
	return &Container{
		Ledger: led,
		Auth:   auth,

		AuthHandler:   authhandler.NewAuthHandler(auth),
		MarketHandler: markethandler.NewMarketHandler(led),
		WalletHandler: wallethandler.NewWalletHandler(led),
		AdminHandler:  adminhandler.NewAdminHandler(led),
		NotifyHandler: notifyhandler.NewNotifyHandler(led, hub),
	}
}
