package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"goclean/internal/config"
	handlers "goclean/internal/handlers/shared"
	"goclean/internal/middleware"
	"goclean/internal/repositories/mongodb"
	"goclean/internal/services"
	"goclean/pkg/cache"
	"goclean/pkg/database"
	"goclean/pkg/events"
	"goclean/pkg/logger"
	"goclean/pkg/websocket"
	"goclean/routes"

	"github.com/gin-gonic/gin"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("server exited: %v", err)
	}
}

func run() error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	appLogger, err := logger.NewLogger(&logger.Config{
		Level:   logger.LogLevel(cfg.App.LogLevel),
		Format:  cfg.App.LogFormat,
		Output:  cfg.App.LogOutput,
		AppName: cfg.App.Name,
		Version: cfg.App.Version,
	})
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Database
	mongo, err := database.NewMongoDB(&database.DatabaseConfig{
		URI:            cfg.Database.URI,
		Database:       cfg.Database.Database,
		MaxPoolSize:    cfg.Database.MaxPoolSize,
		MinPoolSize:    cfg.Database.MinPoolSize,
		ConnectTimeout: cfg.Database.ConnectTimeout,
		SocketTimeout:  cfg.Database.SocketTimeout,
	})
	if err != nil {
		return fmt.Errorf("failed to connect to mongodb: %w", err)
	}
	defer mongo.Close()

	if cfg.Database.RunMigrations {
		migrator := database.NewMigrator(mongo.Database, cfg.Registration.PendingRegistrationTTL, appLogger)
		if err := migrator.Up(ctx); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	userRepo := mongodb.NewUserRepository(mongo.Database)
	pendingRepo := mongodb.NewPendingRegistrationRepository(mongo.Database)
	referralRepo := mongodb.NewReferralRepository(mongo.Database)
	bookingRepo := mongodb.NewBookingRepository(mongo.Database)
	notificationRepo := mongodb.NewNotificationRepository(mongo.Database)

	dependencies := map[string]routes.Pinger{"mongodb": mongo}

	// Live delivery: the hub serves local sockets; Redis fans out across instances.
	hub := websocket.NewHub(appLogger)
	go hub.Run(ctx)

	var realtime services.RealtimePublisher = websocket.NewHubPublisher(hub)
	if cfg.Redis.Enabled {
		redisCache, err := cache.NewRedisCache(ctx, &cache.RedisConfig{
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
			return err
		}
		defer redisCache.Close()

		relay := websocket.NewRedisRelay(redisCache, hub, cfg.Redis.NotificationChannel, appLogger)
		go relay.Run(ctx)
		realtime = relay
		dependencies["redis"] = redisCache
	}

	// Outbound channels
	sender, err := newEmailSender(cfg.Email, appLogger)
	if err != nil {
		return err
	}
	smsService, err := newSMSService(ctx, cfg)
	if err != nil {
		return err
	}
	pushProvider, err := newPushProvider(ctx, cfg.Push)
	if err != nil {
		return err
	}
	storageProvider, closeStorage, err := newStorageProvider(ctx, cfg.Storage)
	if err != nil {
		return err
	}
	defer closeStorage()

	var (
		eventBus       *events.NATSEventBus
		eventPublisher events.Publisher
	)
	if cfg.Events.Enabled {
		eventBus, err = events.NewNATSEventBus(cfg.Events.NATSURL, appLogger)
		if err != nil {
			return err
		}
		defer eventBus.Close()
		eventPublisher = eventBus
	}

	// Services
	notificationService := services.NewNotificationService(notificationRepo, userRepo, realtime, pushProvider, appLogger)
	authService := services.NewAuthService(
		userRepo,
		pendingRepo,
		mongo,
		services.NewEmailService(sender, cfg.App.Name),
		smsService,
		services.NewDocumentService(storageProvider, cfg.Storage.ImageMaxDimension, appLogger),
		notificationService,
		cfg.Security,
		cfg.Registration,
		appLogger,
	)
	referralService := services.NewReferralService(
		mongo,
		referralRepo,
		bookingRepo,
		userRepo,
		notificationService,
		eventPublisher,
		cfg.Events.RewardEarnedSubject,
		cfg.Referral,
		appLogger,
	)

	bookingEventHandler := handlers.NewBookingEventHandler(referralService, appLogger)
	if eventBus != nil {
		if err := eventBus.QueueSubscribe(cfg.Events.BookingCompletedSubject, cfg.Events.QueueGroup, bookingEventHandler.HandleCompletedEvent); err != nil {
			return err
		}
	}

	// HTTP
	if cfg.IsProduction() || !cfg.App.Debug {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	if err := router.SetTrustedProxies(cfg.Security.TrustedProxies); err != nil {
		return fmt.Errorf("invalid trusted proxies: %w", err)
	}

	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.LoggingMiddleware(appLogger))
	router.Use(middleware.RecoveryMiddleware(appLogger))
	router.Use(middleware.CORSMiddleware(cfg.Security.CORSAllowedOrigins))

	if cfg.Storage.Provider == "local" {
		router.Static("/uploads", cfg.Storage.Local.BasePath)
	}

	routes.SetupRoutes(router, &routes.Handlers{
		Auth:         handlers.NewAuthHandler(authService, cfg.Storage.MaxUploadSize),
		Referral:     handlers.NewReferralHandler(referralService),
		Notification: handlers.NewNotificationHandler(notificationService),
		BookingEvent: bookingEventHandler,
		WebSocket:    websocket.NewHandler(hub, cfg.WebSocket),
	}, routes.Options{
		JWTSecret:     cfg.Security.JWTSecret,
		InternalToken: cfg.Security.InternalAPIToken,
		Version:       cfg.App.Version,
		Dependencies:  dependencies,
		Presence:      hub,
	})

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		appLogger.Infof("Starting server on port %d", cfg.App.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		return err
	case <-ctx.Done():
	}

	appLogger.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
