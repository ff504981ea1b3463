package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/tripxl/service-booking/internal/application"
	"github.com/tripxl/service-booking/internal/config"
	bookingDomain "github.com/tripxl/service-booking/internal/domain/booking"
	bookingEvents "github.com/tripxl/service-booking/internal/events"
	"github.com/tripxl/service-booking/internal/handler"
	"github.com/tripxl/service-booking/internal/platform/auth"
	"github.com/tripxl/service-booking/internal/platform/database"
	"github.com/tripxl/service-booking/internal/platform/health"
	"github.com/tripxl/service-booking/internal/platform/kafka"
	"github.com/tripxl/service-booking/internal/platform/logger"
	"github.com/tripxl/service-booking/internal/platform/metrics"
	"github.com/tripxl/service-booking/internal/platform/middleware"
	"github.com/tripxl/service-booking/internal/repository"
	"github.com/tripxl/service-booking/internal/routing"
)

const serviceName = "service-booking"

func main() {
	// A local .env is optional.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.NewNamed(cfg.AppEnv, serviceName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	log.Info("starting service-booking",
		zap.String("port", cfg.Port),
		zap.String("routing_provider", cfg.RoutingConfig.Provider),
	)

	// Connect to database
	dbConfig := database.PostgresConfig{
		Host:     cfg.DBConfig.Host,
		Port:     cfg.DBConfig.Port,
		User:     cfg.DBConfig.User,
		Password: cfg.DBConfig.Password,
		DBName:   cfg.DBConfig.DBName,
		SSLMode:  cfg.DBConfig.SSLMode,
	}
	db, err := database.Connect(dbConfig, log)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}

	// Run database migrations
	if cfg.AppEnv == "development" {
		if err := db.AutoMigrate(&repository.BookingModel{}, &repository.VehicleModel{}, &repository.FuelPriceModel{}); err != nil {
			log.Fatal("failed to run auto-migration", zap.Error(err))
		}
		log.Info("database migration completed (dev auto-migrate)")
	} else {
		if err := database.RunMigrations(dbConfig.DatabaseURL(), "migrations", log); err != nil {
			log.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	if cfg.JWTConfig.Secret == config.DevJWTSecret {
		log.Warn("using the built-in development JWT secret; set BOOKING_JWT_SECRET before exposing this service")
	}
	jwtManager := auth.NewJWTManager(cfg.JWTConfig.Secret, cfg.JWTConfig.AccessTTL)

	kafkaProducer := kafka.NewProducer(cfg.KafkaConfig.Brokers, log)
	defer func() { _ = kafkaProducer.Close() }()

	// Repositories
	bookingRepo := repository.NewGormBookingRepository(db)
	vehicleRepo := repository.NewGormVehicleRepository(db)
	priceRepo := repository.NewGormFuelPriceRepository(db)

	// Routing
	registry := metrics.NewRegistry()
	composer, closeCache, err := newComposer(cfg.RoutingConfig, cfg.RedisConfig, registry, log)
	if err != nil {
		log.Fatal("failed to configure routing", zap.Error(err))
	}
	defer closeCache()

	// Application services
	routeService := application.NewRouteService(composer, log)
	bookingService := application.NewBookingService(
		bookingRepo,
		vehicleRepo,
		priceRepo,
		composer,
		bookingDomain.NewFuelCostStrategy(),
		kafkaProducer,
		cfg.FuelConfig.DefaultConsumption,
		log,
	)
	vehicleService := application.NewVehicleService(vehicleRepo, log)
	fuelService := application.NewFuelService(priceRepo, log)

	// Approval decisions made in the approval service arrive over Kafka.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	approvalConsumer := bookingEvents.NewApprovalEventConsumer(
		cfg.KafkaConfig.Brokers,
		cfg.KafkaConfig.GroupPrefix+serviceName,
		bookingService,
		log,
	)
	defer func() { _ = approvalConsumer.Close() }()

	go func() {
		log.Info("starting approval event consumer")
		if err := approvalConsumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error("approval event consumer error", zap.Error(err))
		}
	}()

	// Setup Gin router
	if cfg.AppEnv != "development" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	router.Use(middleware.RecoveryMiddleware(log))
	router.Use(middleware.LoggerMiddleware(log))
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.CORSMiddleware())
	router.Use(middleware.SecurityHeadersMiddleware())

	if err := handler.RegisterValidators(); err != nil {
		log.Fatal("failed to register request validators", zap.Error(err))
	}

	health.NewHandler(db, serviceName).RegisterRoutes(router)
	metrics.RegisterRoutes(router, registry)

	api := &router.RouterGroup
	handler.NewRouteHandler(routeService).RegisterRoutes(api, jwtManager)
	handler.NewBookingHandler(bookingService).RegisterRoutes(api, jwtManager)
	handler.NewAdminBookingHandler(bookingService).RegisterRoutes(api, jwtManager)
	handler.NewVehicleHandler(vehicleService).RegisterRoutes(api, jwtManager)
	handler.NewFuelHandler(fuelService, cfg.FuelConfig.IngestKey).RegisterRoutes(api, jwtManager)

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("HTTP server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down service-booking...")

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server forced shutdown", zap.Error(err))
	}

	log.Info("service-booking stopped")
}

// newComposer builds the route composer for the configured provider. The
// returned func closes the Redis cache client, if one was opened.
func newComposer(rc config.RoutingConfig, redisCfg config.RedisConfig, reg *prometheus.Registry, log *zap.Logger) (*routing.Composer, func(), error) {
	provider, err := routing.NewProvider(routing.ProviderConfig{
		Name:    rc.Provider,
		BaseURL: rc.BaseURL,
		APIKey:  rc.APIKey,
		Format: routing.CoordinateFormat{
			Order:               routing.AxisOrder(rc.CoordinateOrder),
			PairSeparator:       rc.PairSeparator,
			CoordinateSeparator: rc.CoordinateSeparator,
		},
	})
	if err != nil {
		return nil, nil, err
	}
	if provider == nil {
		log.Warn("no routing provider configured, every route is a straight-line estimate")
	}

	opts := []routing.Option{
		routing.WithTimeout(rc.Timeout),
		routing.WithMetrics(routing.NewMetrics(reg)),
	}
	if rc.RateLimitPerSec > 0 {
		opts = append(opts, routing.WithRateLimit(rc.RateLimitPerSec, rc.RateBurst))
	}

	closeCache := func() {}
	if redisCfg.Enabled && rc.CacheTTL > 0 {
		client := redis.NewClient(&redis.Options{
			Addr:     redisCfg.Addr,
			Password: redisCfg.Password,
			DB:       redisCfg.DB,
		})
		pingCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if err := client.Ping(pingCtx).Err(); err != nil {
			// The composer treats cache errors as misses, so start anyway.
			log.Warn("route cache unreachable", zap.String("addr", redisCfg.Addr), zap.Error(err))
		}
		opts = append(opts, routing.WithCache(routing.NewRedisRouteCache(client), rc.CacheTTL))
		closeCache = func() { _ = client.Close() }
	}

	return routing.NewComposer(provider, log, opts...), closeCache, nil
}
