package app

import (
	"net"

	"github.com/gofiber/fiber/v2"

	"cxls/internal/app/factory"
	"cxls/internal/app/routes"
	"cxls/internal/config"
	"cxls/pkg/logger"
)

type App struct {
	Fiber  *fiber.App
	Config *config.Config
}

func NewApp(cfg *config.Config, container *factory.Container) *App {
	fiberApp := fiber.New(fiber.Config{
		AppName: cfg.App.Name,
	})

	app := &App{Fiber: fiberApp, Config: cfg}

	// Register routes
	routes.NewRoutes(fiberApp, container)

	return app
}

func (a *App) Start(listener net.Listener) {
	configApp := a.Config.App

	logger.Infof("%s server started on port: %s", configApp.Name, configApp.Port)

	if err := a.Fiber.Listener(listener); err != nil {
		errDetail := err.Error()
		logger.WriteLogToFile("failed", "app.Start", map[string]any{
			"app_name": configApp.Name,
			"app_port": configApp.Port,
		}, &errDetail)
		logger.Fatal("failed to start server: " + err.Error())
	}
}

func (a *App) Shutdown() error {
	return a.Fiber.Shutdown()
}
