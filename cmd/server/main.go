package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/subosito/gotenv"
	"go.uber.org/zap"

	"github.com/resellkart/billing/internal/application/service"
	"github.com/resellkart/billing/internal/config"
	"github.com/resellkart/billing/internal/domain/entity"
	"github.com/resellkart/billing/internal/export"
	httpserver "github.com/resellkart/billing/internal/interfaces/http"
	"github.com/resellkart/billing/internal/repository"
	"github.com/resellkart/billing/pkg/database"
	"github.com/resellkart/billing/pkg/utils"
)

func main() {
	// Local overrides from .env, if present
	_ = gotenv.Load()

	cfg, err := config.Load(configPath())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := utils.NewLogger(utils.LoggerConfig{
		Level:      cfg.Logger.Level,
		OutputPath: cfg.Logger.OutputPath,
		Format:     cfg.Logger.Format,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Starting billing server",
		zap.String("version", "1.0.0"),
		zap.Int("port", cfg.Server.Port))

	db, err := database.New(database.Config{
		Path:            cfg.Database.Path,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer db.Close()

	migrator := database.NewMigrator(db, logger)
	if err := migrator.RunMigrations(cfg.Database.MigrationsDir); err != nil {
		logger.Fatal("Failed to run database migrations", zap.Error(err))
	}

	// Repositories
	billRepo := repository.NewBillRepository(db.DB, logger)
	paymentRepo := repository.NewPaymentRepository(db.DB, logger)
	counterpartyRepo := repository.NewCounterpartyRepository(db.DB, logger)
	catalogRepo := repository.NewCatalogRepository(db.DB, logger)

	// Application services
	serviceLogger := &zapLoggerAdapter{logger: logger}
	observer := &loggingObserver{logger: logger}
	orderService := service.NewOrderService(billRepo, counterpartyRepo, catalogRepo, observer, serviceLogger)
	purchaseService := service.NewPurchaseService(billRepo, paymentRepo, counterpartyRepo, catalogRepo, observer, serviceLogger)

	invoiceWriter := export.NewInvoiceWriter(cfg.Export.CompanyName, logger)

	server := httpserver.NewServer(
		httpserver.ServerConfig{
			Host:         cfg.Server.Host,
			Port:         cfg.Server.Port,
			ReadTimeout:  cfg.Server.ReadTimeout,
			WriteTimeout: cfg.Server.WriteTimeout,
		},
		orderService,
		purchaseService,
		counterpartyRepo,
		invoiceWriter,
		serviceLogger,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := server.Start(ctx); err != nil {
		logger.Fatal("HTTP server failed", zap.Error(err))
	}

	logger.Info("Server exited successfully")
}

func configPath() string {
	if path := os.Getenv("BILLING_CONFIG"); path != "" {
		return path
	}
	return "configs/config.yaml"
}

// zapLoggerAdapter adapts zap.Logger to the service.Logger interface.
type zapLoggerAdapter struct {
	logger *zap.Logger
}

func (a *zapLoggerAdapter) Info(msg string, keysAndValues ...interface{}) {
	a.logger.Info(msg, convertToZapFields(keysAndValues...)...)
}

func (a *zapLoggerAdapter) Error(msg string, keysAndValues ...interface{}) {
	a.logger.Error(msg, convertToZapFields(keysAndValues...)...)
}

// convertToZapFields converts key-value pairs to zap fields.
func convertToZapFields(keysAndValues ...interface{}) []zap.Field {
	fields := make([]zap.Field, 0, len(keysAndValues)/2)
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		key, ok := keysAndValues[i].(string)
		if !ok {
			continue
		}
		fields = append(fields, zap.Any(key, keysAndValues[i+1]))
	}
	return fields
}

// loggingObserver records every saved bill change. It stands in for
// richer listeners (cache invalidation, notifications) that can hang
// off the same port.
type loggingObserver struct {
	logger *zap.Logger
}

func (o *loggingObserver) BillChanged(ctx context.Context, bill *entity.Bill) {
	o.logger.Info("Bill changed",
		zap.Int64("bill_id", bill.ID),
		zap.String("kind", string(bill.Kind)),
		zap.String("status", bill.Status),
		zap.String("grand_total", bill.GrandTotal.String()))
}
