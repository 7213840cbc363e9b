package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ariefcatur/retail-backoffice/internal/analytics"
	"github.com/ariefcatur/retail-backoffice/internal/config"
	"github.com/ariefcatur/retail-backoffice/internal/customers"
	"github.com/ariefcatur/retail-backoffice/internal/httpx"
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
		With("service", cfg.ServiceName)
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
	if err := postgres.Migrate(ctx, db); err != nil {
		log.Error("db migrate", "err", err)
		os.Exit(1)
	}

	// Redis
	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	// Kafka producers, one per topic
	orderEvents := kafkax.NewProducer(cfg.KafkaBrokers, orders.TopicOrderCreated, 1024, log)
	orderEvents.Start(ctx)
	stockEvents := kafkax.NewProducer(cfg.KafkaBrokers, orders.TopicStockAdjusted, 1024, log)
	stockEvents.Start(ctx)

	// Services
	dashboards := redisx.NewCache(rdb, cfg.DashboardCacheTTL)
	orderRepo := orders.NewRepo(db)
	orderSvc := &orders.Service{
		Store:       orderRepo,
		Events:      orderEvents,
		TaxRate:     cfg.TaxRate,
		ServiceName: cfg.ServiceName,
		Log:         log.With("component", "checkout"),
	}
	if cfg.CheckoutMode == config.CheckoutTx {
		orderSvc.Tx = orderRepo
	}
	catalogSvc := &inventory.Service{
		Store:             &inventory.Repo{DB: db},
		Alerts:            &inventory.AlertSet{Redis: rdb},
		Events:            stockEvents,
		Dashboards:        dashboards,
		ServiceName:       cfg.ServiceName,
		LowStockThreshold: cfg.LowStockThreshold,
		Log:               log.With("component", "inventory"),
	}
	customerSvc := &customers.Service{
		Store:      &customers.Repo{DB: db},
		Dashboards: dashboards,
		Log:        log.With("component", "customers"),
	}
	dashboardSvc := &analytics.Service{
		Store:             &analytics.Repo{DB: db},
		Cache:             dashboards,
		LowStockThreshold: cfg.LowStockThreshold,
		Log:               log.With("component", "dashboard"),
	}

	router := httpx.NewRouter(
		&httpx.OrdersHandler{Orders: orderSvc, Redis: rdb, DefaultUserID: cfg.DefaultUserID, Log: log},
		&httpx.CatalogHandler{Catalog: catalogSvc},
		&httpx.CustomersHandler{Customers: customerSvc},
		&httpx.DashboardHandler{Dashboard: dashboardSvc},
	)

	// HTTP server
	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router, ReadHeaderTimeout: 5 * time.Second}

	// graceful shutdown
	go func() {
		log.Info("http listening", "addr", cfg.HTTPAddr, "checkout_mode", cfg.CheckoutMode)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("listen", "err", err)
			os.Exit(1)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Info("shutting down")

	ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel2()
	_ = srv.Shutdown(ctx2)
	// flush what handlers already published before the writers close
	orderEvents.Close()
	stockEvents.Close()
	orderEvents.WaitClosed()
	stockEvents.WaitClosed()
	cancel()
}
