package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	admincmd "github.com/eaglebank/admin-service/internal/command"
	"github.com/eaglebank/admin-service/internal/config"
	"github.com/eaglebank/admin-service/internal/handler"
	adminqry "github.com/eaglebank/admin-service/internal/query"
	"github.com/eaglebank/admin-service/internal/repository"
	"github.com/eaglebank/admin-service/shared/apperror"
	"github.com/eaglebank/admin-service/shared/cqrs"
	"github.com/eaglebank/admin-service/shared/events"
	"github.com/eaglebank/admin-service/shared/middleware"
	"github.com/eaglebank/admin-service/shared/models"
	redisClient "github.com/eaglebank/admin-service/shared/redis"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file loaded: %v", err)
	}
	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	middleware.MustInitJWTSecret(cfg.JWTSecret)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Database connection (write store)
	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		log.Fatalf("Failed to ping database: %v", err)
	}
	if err := repository.Migrate(ctx, db); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	// Redis connection (read model store + event streaming)
	redis, err := redisClient.NewClient(ctx, redisClient.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
		PoolSize: cfg.RedisPoolSize,
	})
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redis.Close()

	// --- CQRS wiring ---
	publisher := events.NewPublisher(redis.Client)

	accountWriteRepo := repository.NewAccountWriteRepository(db)
	userWriteRepo := repository.NewUserWriteRepository(db)
	accountReadRepo := repository.NewAccountReadRepository(db, redis.Client, cfg.AccountViewTTL())
	userReadRepo := repository.NewUserReadRepository(db, redis.Client, cfg.AccountViewTTL())

	commandSvc := admincmd.NewAdminCommandService(accountWriteRepo, userWriteRepo, accountReadRepo, userReadRepo, publisher, admincmd.Options{
		StudentAgeThreshold: cfg.StudentAgeThreshold,
		DefaultCurrency:     cfg.DefaultCurrency,
	})
	accountQuerySvc := adminqry.NewAccountQueryService(accountReadRepo, userReadRepo)
	authQuerySvc := adminqry.NewAuthQueryService(userWriteRepo, cfg.TokenTTL())

	bootstrapAdmin(ctx, cfg, userWriteRepo, commandSvc)

	adminHandler := handler.NewAdminHandler(commandSvc, accountQuerySvc)
	authHandler := handler.NewAuthHandler(authQuerySvc)

	// Setup router
	router := gin.New()
	router.Use(gin.Recovery(), middleware.LoggingMiddleware())

	router.GET("/health", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "component": "postgres"})
			return
		}
		if err := redis.Healthy(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "component": "redis"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	authHandler.RegisterRoutes(router.Group("/v1/auth"))

	admin := router.Group("/v1/admin", middleware.AuthMiddleware(), middleware.RequireRole(models.RoleAdmin))
	adminHandler.RegisterRoutes(admin)

	go func() {
		subscriber := events.NewSubscriber(redis.Client, events.SubscriberConfig{
			Group:    "admin-service-group",
			Consumer: cfg.SubscriberConsumer,
			Stream:   events.AccountEventsStream,
			Handler:  commandSvc.HandleAccountEvent,
		})
		if err := subscriber.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Printf("Subscriber stopped: %v", err)
		}
	}()

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("Admin service starting on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan
	log.Println("Shutting down...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}
}

// bootstrapAdmin creates the configured admin when it does not exist yet.
func bootstrapAdmin(ctx context.Context, cfg config.Config, users repository.UserStore, commands *admincmd.AdminCommandService) {
	if cfg.BootstrapAdminUsername == "" || cfg.BootstrapAdminPassword == "" {
		return
	}
	_, err := users.GetAdminByUsername(ctx, cfg.BootstrapAdminUsername)
	if err == nil {
		return
	}
	if !apperror.IsNotFound(err) {
		log.Fatalf("Failed to look up bootstrap admin: %v", err)
	}
	if _, err := commands.AddAdmin(ctx, cqrs.AddAdminCommand{
		Name:        cfg.BootstrapAdminUsername,
		Username:    cfg.BootstrapAdminUsername,
		Password:    cfg.BootstrapAdminPassword,
		RequestedBy: "bootstrap",
	}); err != nil {
		log.Fatalf("Failed to create bootstrap admin: %v", err)
	}
}
