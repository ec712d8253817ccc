package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/brailletranslate/backend/internal/aiclient"
	"github.com/brailletranslate/backend/internal/auth/authz"
	"github.com/brailletranslate/backend/internal/auth/middleware"
	"github.com/brailletranslate/backend/internal/auth/password"
	"github.com/brailletranslate/backend/internal/auth/session"
	"github.com/brailletranslate/backend/internal/config"
	"github.com/brailletranslate/backend/internal/handlers"
	"github.com/brailletranslate/backend/internal/logger"
	"github.com/brailletranslate/backend/internal/metrics"
	"github.com/brailletranslate/backend/internal/middlewares"
	"github.com/brailletranslate/backend/internal/repositories"
	"github.com/brailletranslate/backend/internal/services"
	"github.com/brailletranslate/backend/internal/tasks"
)

const (
	globalRateLimit = 100
	maxRequestSize  = handlers.MaxImageSize + 1<<20
	aiRetryCount    = 2
	shutdownTimeout = 30 * time.Second
)

// NewServeCmd creates the serve subcommand.
func NewServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		Long: `Start the HTTP API. Pending migrations are applied on startup. Every request
passes the route guard before reaching a handler.`,
		RunE: runServe,
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadRuntime()
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Logger.Info("Starting Braille backend")

	db, err := openDatabase(ctx, cfg, true)
	if err != nil {
		logger.Logger.Error("Failed to prepare database", zap.Error(err))
		return err
	}
	defer db.Close()

	queue := asynq.NewClient(redisClientOpt(cfg))
	defer queue.Close()

	var revocations session.RevocationStore
	if cfg.Session.Revocation == "redis" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr(),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Logger.Error("Failed to connect to Redis", zap.Error(err))
			return fmt.Errorf("failed to connect to redis: %w", err)
		}
		revocations = session.NewRedisRevocationStore(rdb)
	}

	router, err := newRouter(routerDeps{
		cfg:         cfg,
		db:          db,
		queue:       queue,
		revocations: revocations,
		metrics:     metrics.NewMetrics(),
		logger:      logger.Logger,
	})
	if err != nil {
		logger.Logger.Error("Failed to build router", zap.Error(err))
		return err
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.AI.Timeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Logger.Info("Server starting", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-serveErr:
		logger.Logger.Error("Server failed", zap.Error(err))
		return err
	}

	logger.Logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Logger.Error("Server forced to shutdown", zap.Error(err))
	}

	logger.Logger.Info("Server exited")
	return nil
}

// routerDeps are the collaborators of the HTTP API; revocations may be nil
type routerDeps struct {
	cfg         *config.Config
	db          *sql.DB
	queue       tasks.Enqueuer
	revocations session.RevocationStore
	metrics     *metrics.Metrics
	logger      *zap.Logger
}

// newRouter wires repositories, services, handlers and the middleware stack
func newRouter(deps routerDeps) (http.Handler, error) {
	cfg, log := deps.cfg, deps.logger

	hasher, err := password.NewHasher(cfg.Password.Algorithm, cfg.Password.BcryptCost)
	if err != nil {
		return nil, err
	}

	routes := authz.DefaultRouteTable()
	if cfg.RouteTablePath != "" {
		routes, err = authz.LoadRouteTable(cfg.RouteTablePath)
		if err != nil {
			return nil, err
		}
	}

	// Initialize repositories
	accountRepo := repositories.NewAccountRepository(deps.db)
	translationRepo := repositories.NewTranslationRepository(deps.db)

	// Initialize session issuer
	issuer := session.NewIssuer(cfg.Session.Secret, cfg.Session.TTL, cfg.Session.SecureCookie, accountRepo, deps.revocations)

	// Initialize services
	credentialService := services.NewCredentialService(
		accountRepo,
		hasher,
		tasks.NewResetMailer(deps.queue, log),
		deps.metrics,
		log,
		services.CredentialOptions{
			AdminCode:         cfg.AdminCode,
			MinPasswordLength: cfg.Password.MinLength,
			ResetTokenTTL:     cfg.Reset.TokenTTL,
		},
	)
	accountService := services.NewAccountService(accountRepo, log)
	adminService := services.NewAdminService(accountRepo, log)
	translationService := services.NewTranslationService(translationRepo, log)
	aiClient := aiclient.New(aiclient.Config{
		BaseURL:      cfg.AI.BaseURL,
		Timeout:      cfg.AI.Timeout,
		FallbackOnly: cfg.AI.FallbackOnly,
		RetryCount:   aiRetryCount,
	}, deps.metrics, log)

	// Initialize handlers
	healthHandler := handlers.NewHealthHandler(deps.db, log)
	authHandler := handlers.NewAuthHandler(credentialService, issuer, log)
	accountHandler := handlers.NewAccountHandler(accountService, credentialService, translationService, log)
	adminHandler := handlers.NewAdminHandler(adminService, log)
	translateHandler := handlers.NewTranslateHandler(translationService, log)
	aiHandler := handlers.NewAIHandler(aiClient, log)
	maintenanceHandler := handlers.NewMaintenanceHandler(accountRepo, log)

	guard := middleware.NewRouteGuard(issuer, routes, deps.metrics, log)
	apiKeyMiddleware := middleware.APIKeyMiddleware(cfg.APIKey)

	// Setup router
	r := chi.NewRouter()

	// Apply middleware; CleanPath sets the route path the guard classifies
	r.Use(middlewares.RequestIDMiddleware)
	r.Use(middlewares.LoggerMiddleware(log))
	r.Use(middlewares.RecoveryMiddleware(log))
	r.Use(middlewares.CORSMiddleware(cfg.CORS.AllowedOrigins))
	r.Use(httprate.LimitByIP(globalRateLimit, time.Minute))
	r.Use(middlewares.RequestSizeLimitMiddleware(maxRequestSize))
	r.Use(chimiddleware.CleanPath)
	r.Use(guard.Middleware)

	healthHandler.RegisterRoutes(r)

	r.Route("/api", func(r chi.Router) {
		authHandler.RegisterRoutes(r)
		accountHandler.RegisterRoutes(r)
		adminHandler.RegisterRoutes(r)
		translateHandler.RegisterRoutes(r)
		aiHandler.RegisterRoutes(r)
	})

	// Service-to-service endpoints
	r.Route("/internal", func(r chi.Router) {
		r.Use(apiKeyMiddleware)
		maintenanceHandler.RegisterRoutes(r)
	})
	r.With(apiKeyMiddleware).Method(http.MethodGet, "/metrics", deps.metrics.Handler())

	if cfg.WebRoot != "" {
		r.Handle("/*", handlers.NewPageHandler(cfg.WebRoot))
	}

	return r, nil
}
