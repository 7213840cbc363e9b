package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/ariefcatur/retail-backoffice/internal/config"
	"github.com/ariefcatur/retail-backoffice/internal/inventory"
	kafkax "github.com/ariefcatur/retail-backoffice/internal/kafka"
	"github.com/ariefcatur/retail-backoffice/internal/orders"
	"github.com/ariefcatur/retail-backoffice/internal/postgres"
	"github.com/ariefcatur/retail-backoffice/internal/redisx"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	log := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel})).
		With("service", cfg.ServiceName+"-stockwatch")
	slog.SetDefault(log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// DB
	db, err := postgres.Connect(ctx, cfg.PostgresDSN, cfg.DBMaxConns)
	if err != nil {
		log.Error("db connect", "err", err)
		os.Exit(1)
	}
	defer db.Close()

	// Redis
	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	w := &inventory.Watcher{
		Stock:       &inventory.Repo{DB: db},
		Alerts:      &inventory.AlertSet{Redis: rdb},
		Redis:       rdb,
		Dashboards:  redisx.NewCache(rdb, cfg.DashboardCacheTTL),
		Threshold:   cfg.LowStockThreshold,
		ServiceName: cfg.ServiceName + "-stockwatch",
		Log:         log,
	}

	topics := []string{orders.TopicOrderCreated, orders.TopicStockAdjusted}
	cons := kafkax.NewConsumer(cfg.KafkaBrokers, cfg.StockwatchGroup, topics, cfg.StockwatchWorkers, log)

	done := make(chan struct{})
	go func() {
		defer close(done)
		log.Info("stockwatch consumer started", "group", cfg.StockwatchGroup, "topics", topics, "workers", cfg.StockwatchWorkers)
		if err := cons.Start(ctx, w.HandleMessage); err != nil {
			log.Error("consumer exit", "err", err)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sig:
		log.Info("shutting down consumer")
	case <-done:
	}
	cancel()
	<-done
}
