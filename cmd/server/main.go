package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"pronto/internal/catalog"
	"pronto/internal/config"
	"pronto/internal/coupon"
	"pronto/internal/events"
	"pronto/internal/infrastructure/logger"
	"pronto/internal/infrastructure/mysql"
	redisinfra "pronto/internal/infrastructure/redis"
	"pronto/internal/order"
	"pronto/internal/payment"
	"pronto/internal/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	zapLogger, err := logger.New(cfg.Log.Level)
	if err != nil {
		log.Fatalf("creating logger: %v", err)
	}
	defer zapLogger.Sync()

	db, err := mysql.NewConnection(cfg.Database)
	if err != nil {
		zapLogger.Fatal("connecting to database", zap.Error(err))
	}
	defer db.Close()
	zapLogger.Info("database connected")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rdb, err := redisinfra.NewClient(ctx, cfg.Redis)
	if err != nil {
		zapLogger.Fatal("connecting to redis", zap.Error(err))
	}
	defer rdb.Close()
	zapLogger.Info("redis connected")

	hub := events.NewHub(zapLogger)
	go events.RunBridge(ctx, rdb, hub, zapLogger)
	publisher := events.NewRedisPublisher(rdb, zapLogger)

	productsRepo, catalogCtrl := catalog.NewModule(db, zapLogger)
	_, couponCtrl := coupon.NewModule(db, productsRepo, zapLogger)
	_, orderCtrl := order.NewModule(db, cfg, publisher, zapLogger)
	paymentCtrl := payment.NewModule(db, cfg, publisher, zapLogger)
	wsHandler := events.NewHandler(hub, zapLogger)

	router := server.NewRouter(catalogCtrl, orderCtrl, couponCtrl, paymentCtrl, wsHandler, zapLogger)

	srv := server.New(cfg.Server.Port, router, zapLogger)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := srv.Start(); err != nil {
			zapLogger.Fatal("server error", zap.Error(err))
		}
	}()

	<-quit
	zapLogger.Info("received shutdown signal")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLogger.Fatal("server shutdown failed", zap.Error(err))
	}

	zapLogger.Info("server stopped gracefully")
}
