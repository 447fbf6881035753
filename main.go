package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/gamezone-pos/config"
	"github.com/yeremiapane/gamezone-pos/database"
	"github.com/yeremiapane/gamezone-pos/hub"
	"github.com/yeremiapane/gamezone-pos/pricing"
	"github.com/yeremiapane/gamezone-pos/router"
	"github.com/yeremiapane/gamezone-pos/services"
	"github.com/yeremiapane/gamezone-pos/utils"
)

func main() {
	cfg := config.Load()
	utils.InitLogger()

	// Set gin mode
	if cfg.GinMode == gin.ReleaseMode {
		gin.SetMode(gin.ReleaseMode)
	}

	// Initialize DB
	db, err := config.InitDB(cfg)
	if err != nil {
		utils.ErrorLogger.Fatalf("Failed to connect to database: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		utils.ErrorLogger.Fatal(err)
	}
	if cfg.SeedDevices {
		if _, err := database.SeedDevices(db); err != nil {
			utils.ErrorLogger.Errorf("Error seeding devices: %v", err)
		}
	}

	// Lock per device: Redis kalau tersedia (multi instance), selain itu in-process
	var locker services.DeviceLocker = services.NewMemoryLocker()
	if rdb := config.NewRedisClient(cfg); rdb != nil {
		locker = services.NewRedisLocker(rdb, cfg.StoreTimeout)
		defer rdb.Close()
		utils.InfoLogger.Printf("Using redis device locks at %s", cfg.RedisAddr)
	}

	publisher := services.NewEventPublisher(cfg.RabbitMQURL)
	defer publisher.Close()

	floorHub := hub.New(utils.InfoLogger)
	webhook := services.NewWebhookService(db, cfg.Webhooks, cfg.WebhookTimeout)
	notifier := services.NewNotifier(webhook, floorHub, publisher)
	engine := pricing.NewEngine(nil).WithLogger(utils.ErrorLogger)

	sessions := services.NewSessionService(db, engine, locker, notifier)
	orders := services.NewOrderService(db, engine, notifier)
	bills := services.NewBillService(db, orders, sessions, notifier)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Retry webhook yang gagal di background
	deliveries := services.NewDeliveryMonitor(db, webhook, cfg.MonitorInterval)
	deliveries.Start(ctx)

	floor := services.NewFloorMonitor(sessions, floorHub, cfg.MonitorInterval)
	floor.Start()
	defer floor.Stop()

	// Setup router
	r := router.SetupRouter(router.Deps{
		Config:     cfg,
		Hub:        floorHub,
		Devices:    services.NewDeviceService(db),
		Sessions:   sessions,
		Orders:     orders,
		Bills:      bills,
		Customers:  services.NewCustomerService(db),
		Tokens:     services.NewTokenService(db),
		Dashboard:  services.NewDashboardService(db, engine),
		Deliveries: deliveries,
		Floor:      floor,
	})

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	go func() {
		utils.InfoLogger.Printf("Listening on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			utils.ErrorLogger.Fatal(err)
		}
	}()

	<-ctx.Done()
	utils.InfoLogger.Println("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		utils.ErrorLogger.Errorf("Error during shutdown: %v", err)
	}
}
