package main

import (
	"context"
	"errors"
	"os"
	"path/filepath"

	"github.com/jpillora/overseer"
	"github.com/jpillora/overseer/fetcher"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"

	"cxls/internal/app"
	"cxls/internal/app/factory"
	"cxls/internal/config"
	"cxls/internal/domain"
	"cxls/internal/infrastructure/cache"
	"cxls/internal/ledger"
	"cxls/internal/notifier"
	"cxls/internal/store"
	"cxls/pkg/graceful"
	"cxls/pkg/logger"
)

func main() {
	debug := config.GetAppEnv() == "development"

	overseer.Run(overseer.Config{
		Program:       program,
		Address:       ":" + config.GetAppPort(),
		Fetcher:       &fetcher.File{Path: config.GetAppBinFile(), Interval: 5},
		Debug:         debug,
		RestartSignal: graceful.RestartSignal,
	})
}

func program(state overseer.State) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	graceful.SetupGracefulShutdown(cancel)

	cfg := config.Load()
	logger.InitLogFile(cfg.App.LogFilePath)

	// --- Snapshot store ---
	st, err := openStore(cfg.Store)
	if err != nil {
		logger.Fatal("failed to open snapshot store: " + err.Error())
	}
	logger.Infof("snapshot store ready (driver=%s)", cfg.Store.Driver)

	// --- Redis (optional, broadcast only) ---
	var rdb redis.UniversalClient
	if cfg.Redis.Enabled {
		rdb, err = cache.ConnectRedis(ctx, *cfg.Redis)
		if err != nil {
			logger.Fatal("failed to connect redis: " + err.Error())
		}
		logger.Info("redis connected")
	}

	// --- Core ---
	hub := notifier.NewHub(rdb, cfg.Redis.Channel)
	ser, err := ledger.NewSerializer(st, hub)
	if err != nil {
		logger.Fatal("failed to start serializer: " + err.Error())
	}
	led := ledger.New(ser, cfg.Rate.FiatRate)

	if err := ensureDefaultAdmin(ctx, led); err != nil {
		logger.Fatal("failed to seed admin: " + err.Error())
	}

	// --- HTTP ---
	container := factory.Build(led, hub, cfg.Auth)
	application := app.NewApp(cfg, container)
	go application.Start(state.Listener)

	// Block until terminated
	<-ctx.Done()

	logger.Info("shutting down gracefully...")
	if err := application.Shutdown(); err != nil {
		logger.Warnf("http shutdown: %v", err)
	}
	ser.Close()
	if rdb != nil {
		_ = rdb.Close()
	}
	if err := st.Close(); err != nil {
		logger.Warnf("store close: %v", err)
	}
	logger.Info("cleanup done, exiting")
}

func openStore(cfg *config.StoreConfig) (store.Store, error) {
	switch cfg.Driver {
	case "bolt":
		if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
			return nil, err
		}
		return store.OpenBolt(cfg.Path)
	case "postgres":
		return store.OpenPostgres(cfg)
	default:
		return nil, errors.New("unknown store driver: " + cfg.Driver)
	}
}

// ensureDefaultAdmin seeds an admin account on first start so the
// payment queue can be operated immediately. The password comes from
// the environment; the default is only for development.
func ensureDefaultAdmin(ctx context.Context, led *ledger.Ledger) error {
	username := os.Getenv("ADMIN_USERNAME")
	if username == "" {
		username = "admin"
	}
	if _, err := led.UserByUsername(username); err == nil {
		return nil
	}
	password := os.Getenv("ADMIN_PASSWORD")
	if password == "" {
		password = "admin"
		logger.Warn("ADMIN_PASSWORD not set, using development default")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	_, err = led.RegisterUser(ctx, username, "Administrator", "", string(hash), domain.RoleAdmin)
	if err != nil && ledger.ClassOf(err) == ledger.ClassConflict {
		return nil
	}
	return err
}
