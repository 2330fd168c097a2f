package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/arjul1989/gradanegra-sub001/internal/di"
	"github.com/arjul1989/gradanegra-sub001/internal/metrics"
	"github.com/arjul1989/gradanegra-sub001/pkg/config"
	"github.com/arjul1989/gradanegra-sub001/pkg/database"
	"github.com/arjul1989/gradanegra-sub001/pkg/kafka"
	"github.com/arjul1989/gradanegra-sub001/pkg/logger"
	"github.com/arjul1989/gradanegra-sub001/pkg/middleware"
	pkgredis "github.com/arjul1989/gradanegra-sub001/pkg/redis"
	"github.com/arjul1989/gradanegra-sub001/pkg/telemetry"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logCfg := &logger.Config{
		Level:       "info",
		ServiceName: cfg.App.Name,
		Development: cfg.IsDevelopment(),
	}
	if cfg.App.Debug {
		logCfg.Level = "debug"
	}
	if err := logger.Init(logCfg); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	appLog := logger.Get()
	appLog.Info("Starting ticketing service...")

	ctx := context.Background()

	// Tracing and metrics
	if cfg.OTel.Enabled {
		otelCfg := &telemetry.Config{
			Enabled:        true,
			ServiceName:    cfg.OTel.ServiceName,
			ServiceVersion: cfg.App.Version,
			Environment:    cfg.App.Environment,
			CollectorAddr:  cfg.OTel.CollectorAddr,
			SampleRatio:    cfg.OTel.SampleRatio,
		}
		if _, err := telemetry.Init(ctx, otelCfg); err != nil {
			appLog.Warn(fmt.Sprintf("Tracing init failed: %v", err))
		} else {
			defer telemetry.Shutdown(context.Background())
		}
		if _, err := telemetry.InitMetrics(ctx, otelCfg); err != nil {
			appLog.Warn(fmt.Sprintf("Metrics init failed: %v", err))
		} else {
			defer telemetry.ShutdownMetrics(context.Background())
			if err := metrics.Init(); err != nil {
				appLog.Warn(fmt.Sprintf("Metric instruments init failed: %v", err))
			}
		}
	}

	// PostgreSQL
	dbCfg := &database.PostgresConfig{
		Host:            cfg.Database.Host,
		Port:            cfg.Database.Port,
		User:            cfg.Database.User,
		Password:        cfg.Database.Password,
		Database:        cfg.Database.DBName,
		SSLMode:         cfg.Database.SSLMode,
		MaxConns:        int32(cfg.Database.MaxOpenConns),
		MinConns:        int32(cfg.Database.MaxIdleConns),
		MaxConnLifetime: cfg.Database.ConnMaxLifetime,
		MaxConnIdleTime: cfg.Database.ConnMaxIdleTime,
		ConnectTimeout:  5 * time.Second,
		MaxRetries:      3,
		RetryInterval:   1 * time.Second,
	}
	db, err := database.NewPostgres(ctx, dbCfg)
	if err != nil {
		appLog.Fatal(fmt.Sprintf("Database connection failed: %v", err))
	}
	appLog.Info("Database connected")

	// Redis backs the availability cache and idempotency records
	redisClient, err := pkgredis.NewClient(ctx, &pkgredis.Config{
		Host:         cfg.Redis.Host,
		Port:         cfg.Redis.Port,
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		PoolSize:     cfg.Redis.PoolSize,
		MinIdleConns: cfg.Redis.MinIdleConns,
		DialTimeout:  cfg.Redis.DialTimeout,
		ReadTimeout:  cfg.Redis.ReadTimeout,
		WriteTimeout: cfg.Redis.WriteTimeout,
	})
	if err != nil {
		appLog.Warn(fmt.Sprintf("Redis connection failed, running without cache: %v", err))
		redisClient = nil
	} else {
		appLog.Info("Redis connected")
	}

	// Kafka producer feeds the outbox worker
	var producer *kafka.Producer
	if cfg.Kafka.Enabled {
		producer, err = kafka.NewProducer(ctx, &kafka.ProducerConfig{
			Brokers:  cfg.Kafka.Brokers,
			ClientID: cfg.Kafka.ClientID,
		})
		if err != nil {
			appLog.Warn(fmt.Sprintf("Kafka connection failed, outbox publishing disabled: %v", err))
			producer = nil
		} else {
			appLog.Info("Kafka producer connected")
		}
	}

	container := di.NewContainer(&di.ContainerConfig{
		Config:   cfg,
		DB:       db,
		Redis:    redisClient,
		Producer: producer,
	})
	defer container.Close()

	if container.OutboxWorker != nil {
		if err := container.OutboxWorker.Start(ctx); err != nil {
			appLog.Warn(fmt.Sprintf("Outbox worker start failed: %v", err))
		}
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	if cfg.OTel.Enabled {
		router.Use(telemetry.TracingMiddleware(cfg.OTel.ServiceName))
	}

	router.GET("/health", container.HealthHandler.Health)
	router.GET("/ready", container.HealthHandler.Ready)

	jwtConfig := &middleware.JWTConfig{Secret: cfg.JWT.Secret}
	authenticated := middleware.JWTMiddleware(jwtConfig)

	v1 := router.Group("/api/v1")
	{
		// Public catalog
		v1.GET("/events", container.EventHandler.List)
		v1.GET("/events/:id", container.EventHandler.Get)
		v1.GET("/events/:id/dates", container.EventHandler.ListDates)
		v1.GET("/dates/:id", container.EventHandler.GetDate)
		v1.GET("/dates/:id/tiers", container.TicketHandler.ListTiers)
		v1.GET("/dates/:id/availability", container.TicketHandler.GetAvailability)

		// Organizer operations
		events := v1.Group("/events", authenticated)
		{
			events.POST("", container.EventHandler.Create)
			events.PUT("/:id", container.EventHandler.Update)
			events.PATCH("/:id/status", container.EventHandler.ChangeStatus)
			events.PATCH("/:id/feature", container.EventHandler.Feature)
			events.DELETE("/:id", container.EventHandler.Delete)
			events.POST("/:id/dates", container.EventHandler.CreateDate)
			events.DELETE("/:id/dates/:dateId", container.EventHandler.DeleteDate)
		}
		v1.POST("/dates/:id/tiers", authenticated, container.TicketHandler.CreateTier)

		// Purchase flow. Reservations are idempotent when Redis is up.
		if redisClient != nil {
			idempotencyConfig := middleware.DefaultIdempotencyConfig(redisClient.Client())
			v1.POST("/tickets/reserve", middleware.Idempotency(idempotencyConfig), container.TicketHandler.Reserve)
		} else {
			v1.POST("/tickets/reserve", container.TicketHandler.Reserve)
		}
		v1.POST("/tickets/release", container.TicketHandler.Release)
		v1.GET("/purchases/:id/tickets", container.TicketHandler.GetPurchaseTickets)

		// Door scanning
		v1.POST("/checkin", container.TicketHandler.CheckIn)

		// Payment provider callback, authenticated by signature
		v1.POST("/webhooks/payment", container.WebhookHandler.HandlePaymentWebhook)
	}

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
		ReadHeaderTimeout: 2 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	go func() {
		appLog.Info(fmt.Sprintf("Ticketing service listening on %s", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLog.Fatal(fmt.Sprintf("Failed to start server: %v", err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	appLog.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLog.Fatal(fmt.Sprintf("Server forced to shutdown: %v", err))
	}

	appLog.Info("Server exited gracefully")
}
