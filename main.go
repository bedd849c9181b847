package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"storefront/internal/app"
	"storefront/internal/cache"
	"storefront/internal/config"
	"storefront/internal/models"
	"storefront/internal/payment"
	"storefront/internal/repositories"
	"storefront/internal/services"
	"storefront/pkg/rabbitmq"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configFile string

	rootCmd := &cobra.Command{
		Use:           "storefront",
		Short:         "Storefront order and payment service",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "optional config file (env vars take precedence)")

	loadConfig := func() (*config.Config, error) {
		v := viper.New()
		if configFile != "" {
			v.SetConfigFile(configFile)
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
		return config.Load(v)
	}

	rootCmd.AddCommand(serveCmd(loadConfig))
	rootCmd.AddCommand(seedCmd(loadConfig))
	return rootCmd
}

func serveCmd(loadConfig func() (*config.Config, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			logger, err := newLogger(cfg.LogLevel)
			if err != nil {
				return err
			}
			defer logger.Sync()

			return serve(cmd.Context(), cfg, logger)
		},
	}
}

func serve(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	if ctx == nil {
		ctx = context.Background()
	}

	// --- Relational store: catalog and users ---
	db, err := openDatabase(cfg.DatabaseDSN)
	if err != nil {
		return err
	}
	productRepo := repositories.NewGORMProductRepository(db)
	userRepo := repositories.NewGORMUserRepository(db)

	// --- Order store ---
	connectCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	mongoDB, err := repositories.ConnectMongoDB(connectCtx, cfg.Mongo.URI, cfg.Mongo.Database)
	cancel()
	if err != nil {
		return err
	}
	defer func() {
		if err := mongoDB.Client().Disconnect(context.Background()); err != nil {
			logger.Warn("Error disconnecting from MongoDB", zap.Error(err))
		}
	}()
	orderRepo := repositories.NewMongoOrderRepository(mongoDB)
	if err := orderRepo.CreateIndexes(ctx); err != nil {
		return err
	}

	// --- Webhook event ledger (optional) ---
	var ledger services.EventLedger
	if cfg.Redis.Addr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()
		if err := redisClient.Ping(ctx).Err(); err != nil {
			logger.Warn("Redis unavailable, webhook ledger disabled", zap.Error(err))
		} else {
			ledger = cache.NewEventLedger(redisClient, cfg.Webhook.LedgerTTL)
			logger.Info("Webhook event ledger enabled", zap.String("addr", cfg.Redis.Addr))
		}
	}

	// --- Order events (optional) ---
	var publisher services.EventPublisher
	mqState := "disabled"
	if cfg.RabbitMQ.URL != "" {
		mqClient, err := rabbitmq.NewClient(rabbitmq.Config{URL: cfg.RabbitMQ.URL, Queue: cfg.RabbitMQ.Queue}, logger)
		if err != nil {
			return err
		}
		defer mqClient.Close()
		publisher = mqClient
		mqState = "connected"

		if err := mqClient.ConsumeOrderEvents(rabbitmq.LogOrderEvent(logger)); err != nil {
			logger.Error("Failed to start RabbitMQ consumer", zap.Error(err))
		}
	}

	// --- Services ---
	productService := services.NewProductService(productRepo)
	authService := services.NewAuthService(userRepo, cfg.JWTSecret, logger)
	orderService := services.NewOrderService(
		orderRepo,
		productService,
		payment.NewGatewayClient(cfg.Gateway),
		publisher,
		cfg.Gateway,
		logger,
	)
	webhookService := services.NewWebhookService(orderService, ledger, logger)

	fiberApp := app.New(app.Deps{
		AuthService:     authService,
		ProductService:  productService,
		OrderService:    orderService,
		WebhookService:  webhookService,
		WebhookVerifier: payment.NewWebhookVerifier(cfg.Webhook),
		Logger:          logger,
		AccessLog:       true,
		Health: func() fiber.Map {
			return fiber.Map{
				"rabbitmq": mqState,
				"ledger":   ledger != nil,
			}
		},
	})

	// Graceful shutdown handling
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("Starting server", zap.String("port", cfg.AppPort))
		serverErr <- fiberApp.Listen(cfg.AppPort)
	}()

	select {
	case err := <-serverErr:
		return fmt.Errorf("server failed: %w", err)
	case <-quit:
	}

	logger.Info("Shutting down server...")
	if err := fiberApp.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.Error("Error during Fiber shutdown", zap.Error(err))
	}
	logger.Info("Server gracefully stopped")
	return nil
}

func openDatabase(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := db.AutoMigrate(&models.Product{}, &models.User{}); err != nil {
		return nil, fmt.Errorf("failed to auto-migrate database: %w", err)
	}
	return db, nil
}

func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		log.Printf("Unknown log level %q, using info", level)
		lvl = zapcore.InfoLevel
	}
	zapCfg := zap.NewProductionConfig()
	zapCfg.Level = zap.NewAtomicLevelAt(lvl)
	zapCfg.EncoderConfig.TimeKey = "time"
	zapCfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	logger, err := zapCfg.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}
	return logger, nil
}
