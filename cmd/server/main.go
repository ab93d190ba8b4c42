package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"achapi-coach/internal/config"
	"achapi-coach/internal/database"
	"achapi-coach/internal/handlers"
	"achapi-coach/internal/logging"
	"achapi-coach/internal/middleware"
	"achapi-coach/internal/repository"
	"achapi-coach/internal/router"
	"achapi-coach/internal/services"
	"achapi-coach/internal/storage"
)

const rateLimitWindow = time.Minute

func main() {
	// ──── Step 1: Load Environment Variables ────
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("✗ %v", err)
	}

	logger, err := logging.New(cfg.Env, cfg.LogLevel)
	if err != nil {
		log.Fatalf("✗ Logger initialization failed: %v", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ──── Step 2: Initialize Completion Client ────
	var completer services.Completer
	switch cfg.Provider {
	case config.ProviderGemini:
		gemini, err := services.NewGeminiClient(ctx, cfg.APIKey, cfg.GeminiModel, cfg.UpstreamTimeout, logger)
		if err != nil {
			logger.Fatal("gemini client initialization failed", zap.Error(err))
		}
		defer gemini.Close()
		completer = gemini
	default:
		groq, err := services.NewGroqClient(cfg.GroqAPIURL, cfg.APIKey, cfg.GroqModel, cfg.UpstreamTimeout, logger)
		if err != nil {
			logger.Fatal("groq client initialization failed", zap.Error(err))
		}
		completer = groq
	}
	logger.Info("completion client ready", zap.String("provider", cfg.Provider))

	opts := router.Options{
		StoragePath:       cfg.StoragePath,
		TrustProxyHeaders: cfg.TrustProxyHeaders,
	}

	// ──── Step 3: Rate Limiting (optional) ────
	if cfg.ChatRateLimit > 0 {
		if cfg.RedisURL != "" {
			redisClient, err := database.NewRedisClient(cfg.RedisURL)
			if err != nil {
				logger.Fatal("redis connection failed", zap.Error(err))
			}
			defer redisClient.Close()
			opts.Limiter = middleware.NewRedisRateLimiter(redisClient, cfg.ChatRateLimit, rateLimitWindow)
			logger.Info("redis rate limiter enabled", zap.Int("per_minute", cfg.ChatRateLimit))
		} else {
			limiter := middleware.NewRateLimiter(cfg.ChatRateLimit, rateLimitWindow)
			defer limiter.Close()
			opts.Limiter = limiter
			logger.Info("in-memory rate limiter enabled", zap.Int("per_minute", cfg.ChatRateLimit))
		}
	}

	// ──── Step 4: Profiles (optional) ────
	if cfg.DatabaseURL != "" {
		pool, err := database.NewPostgresPool(cfg.DatabaseURL)
		if err != nil {
			logger.Fatal("postgres connection failed", zap.Error(err))
		}
		defer pool.Close()

		if err := database.RunMigrations(pool, logger); err != nil {
			logger.Fatal("database migration failed", zap.Error(err))
		}

		if err := os.MkdirAll(cfg.StoragePath, 0o755); err != nil {
			logger.Fatal("storage directory unavailable", zap.Error(err))
		}
		photos := storage.NewLocalPhotoStore(cfg.StoragePath, cfg.PublicBaseURL)
		opts.ProfileHandler = handlers.NewProfileHandler(repository.NewProfileRepo(pool), photos, logger)
		logger.Info("profile routes enabled")
	}

	// ──── Step 5: Start HTTP Server ────
	chatHandler := handlers.NewChatHandler(completer, logger)

	server := &http.Server{
		Addr:         cfg.ListenAddr(),
		Handler:      router.New(logger, chatHandler, opts),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.UpstreamTimeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("server listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Fatal("server error", zap.Error(err))
	}
}
