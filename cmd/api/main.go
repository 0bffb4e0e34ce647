package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"stockpilot/internal/config"
	"stockpilot/internal/document"
	"stockpilot/internal/forecast"
	"stockpilot/internal/handler"
	"stockpilot/internal/messaging"
	"stockpilot/internal/notification"
	"stockpilot/internal/repository"
	"stockpilot/internal/seed"
	"stockpilot/internal/service"
	"stockpilot/internal/ws"
	"stockpilot/pkg/database"
	"stockpilot/pkg/jwt"
	"stockpilot/pkg/logger"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	// 1. Load Env
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found")
	}
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	appLog := logger.New(logger.Config(cfg.Logger))
	defer appLog.Sync()

	// 2. Setup Database
	db, err := database.ConnectDB(cfg.Postgres, appLog)
	if err != nil {
		appLog.Error("database connection failed", zap.Error(err))
		os.Exit(1)
	}
	if cfg.Server.AutoMigrate {
		if err := seed.Migrate(db); err != nil {
			appLog.Error("migration failed", zap.Error(err))
			os.Exit(1)
		}
		if err := seed.Run(context.Background(), db, cfg.Seed, appLog); err != nil {
			appLog.Warn("seeding failed", zap.Error(err))
		}
	}

	// 3. Event fan-out: websocket dashboards always, Kafka when brokers are configured
	wsHub := ws.NewHub(appLog)
	go wsHub.Run()

	publishers := []messaging.Publisher{wsHub}
	if len(cfg.Kafka.Brokers) > 0 {
		publishers = append(publishers, messaging.NewKafkaProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic))
		appLog.Info("kafka event publishing enabled", zap.Strings("brokers", cfg.Kafka.Brokers), zap.String("topic", cfg.Kafka.Topic))
	}
	events := messaging.Fanout(publishers...)

	// 4. Forecast collaborator, cached in Redis when available
	var forecastClient forecast.Client
	if cfg.Forecast.BaseURL != "" {
		forecastClient = forecast.NewHTTPClient(cfg.Forecast.BaseURL, cfg.Forecast.Timeout)
		if cfg.Redis.Addr != "" {
			ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
			rdb, err := forecast.NewRedisClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
			cancel()
			if err != nil {
				appLog.Warn("redis unavailable, forecast cache disabled", zap.Error(err))
			} else {
				defer rdb.Close()
				forecastClient = forecast.WithCache(forecastClient, rdb, cfg.Forecast.CacheTTL, appLog)
			}
		}
	}

	// 5. Vendor notifications
	dispatcher := notification.NewDispatcher(document.PurchaseOrderAttachment, appLog,
		notification.NewWhatsAppSender(cfg.Twilio),
		notification.NewEmailSender(cfg.SMTP),
	)

	// 6. Dependency Injection (Wiring Layers)
	loc := cfg.Location()
	clock := service.Clock(time.Now)
	tokens := jwt.NewManager(cfg.JWT.Secret, cfg.JWT.TTL)

	userRepo := repository.NewUserRepo(db)
	privilegeRepo := repository.NewPrivilegeRepo(db)
	roleRepo := repository.NewRoleRepo(db)
	counterRepo := repository.NewCounterRepo(db)
	vendorRepo := repository.NewVendorRepo(db)
	productRepo := repository.NewProductRepo(db)
	batchRepo := repository.NewBatchRepo(db)
	orderRepo := repository.NewPurchaseOrderRepo(db)
	purchaseRepo := repository.NewPurchaseRepo(db)
	saleRepo := repository.NewSaleRepo(db)
	reportRepo := repository.NewReportRepo(db)

	threshold := cfg.Inventory.LowStockThreshold
	sequences := service.NewSequenceGenerator(service.NewCounterStore(counterRepo, appLog), clock, loc)
	ledger := service.NewStockLedger(productRepo, batchRepo)

	services := services{
		auth:      service.NewAuthService(userRepo, tokens, events, clock, appLog),
		users:     service.NewUserService(userRepo, privilegeRepo, roleRepo),
		vendors:   service.NewVendorService(vendorRepo, appLog),
		products:  service.NewProductService(productRepo, batchRepo, events, threshold, clock, appLog),
		orders:    service.NewPurchaseOrderService(orderRepo, vendorRepo, sequences, dispatcher, events, clock, loc, appLog),
		purchases: service.NewPurchaseService(db, purchaseRepo, vendorRepo, batchRepo, productRepo, ledger, events, clock, loc, appLog),
		sales:     service.NewSaleService(db, saleRepo, batchRepo, ledger, sequences, events, clock, loc, appLog),
		dashboard: service.NewDashboardService(reportRepo, batchRepo, threshold, clock, loc),
		forecast:  service.NewForecastService(forecastClient, productRepo, batchRepo, reportRepo, cfg.Forecast, clock, loc, appLog),
		reports:   service.NewReportService(batchRepo, threshold, clock, loc),
	}

	// 7. Setup Fiber
	app := fiber.New(fiber.Config{
		AppName:      cfg.Server.AppName,
		ErrorHandler: handler.ErrorHandler(appLog.Named("http")),
	})
	app.Use(fiberlogger.New())
	app.Use(recover.New())
	app.Use(cors.New())

	registerRoutes(app, services, dispatcher, tokens, userRepo, wsHub)

	// 8. Graceful Shutdown
	go func() {
		if err := app.Listen(":" + cfg.Server.Port); err != nil {
			appLog.Error("server stopped", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLog.Info("shutting down server")
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		appLog.Error("server forced to shutdown", zap.Error(err))
	}
	if err := events.Close(); err != nil {
		appLog.Warn("closing event publishers", zap.Error(err))
	}
	appLog.Info("server exited")
}
