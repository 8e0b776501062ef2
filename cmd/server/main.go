package main

// @title           Dratav Library API
// @version         1.0
// @description     Catalog of authors and books with search, pagination and checkout.

// @license.name  MIT
// @license.url   https://opensource.org/licenses/MIT

// @host      localhost:3000
// @BasePath  /dratavlibrary

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/vishalpmittal/dratavlibrary/internal/config"
	"github.com/vishalpmittal/dratavlibrary/internal/db"
	"github.com/vishalpmittal/dratavlibrary/internal/logger"
	"github.com/vishalpmittal/dratavlibrary/internal/server"
	"go.uber.org/zap"
)

const appVersion = "0.1.0"

func main() {
	startTime := time.Now()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	gin.SetMode(cfg.GinMode)

	lg, err := logger.New(cfg.LogLevel, cfg.GinMode, "dratavlibrary")
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer func() { _ = lg.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, lg, startTime); err != nil {
		lg.Error("server exited", zap.Error(err))
		_ = lg.Sync()
		stop()
		log.Fatal(err)
	}
}

func run(ctx context.Context, cfg *config.Config, lg *zap.Logger, startTime time.Time) error {
	database, err := db.ConnectWithRetry(ctx, cfg, lg)
	if err != nil {
		return err
	}

	sqlDB, err := database.DB()
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	if err := db.Migrate(database); err != nil {
		return err
	}

	router, err := server.NewRouter(database, lg, server.RouterOptions{
		Prefix:    cfg.APIPrefix,
		RateLimit: cfg.RateLimit,
		Version:   appVersion,
		StartTime: startTime,
	})
	if err != nil {
		return err
	}

	lg.Info("starting",
		zap.String("addr", cfg.Addr()),
		zap.String("prefix", server.BasePath(cfg.APIPrefix)),
		zap.String("dialect", cfg.DB.Dialect),
	)

	return server.Serve(ctx, server.NewServer(cfg.Addr(), router), cfg.ShutdownTimeout, lg)
}
