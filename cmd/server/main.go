package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"

	"ideahub/config"
	authadapter "ideahub/internal/adapters/auth"
	emailadapter "ideahub/internal/adapters/email"
	"ideahub/internal/adapters/stream"
	delivery "ideahub/internal/delivery/http"
	"ideahub/internal/delivery/http/controllers"
	"ideahub/internal/delivery/http/middleware"
	"ideahub/internal/repository/postgres"
	"ideahub/internal/services"
	"ideahub/internal/workers"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	logger := config.NewLogger(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := sql.Open("postgres", cfg.DBUrl)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()
	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("failed to parse redis url: %w", err)
	}
	redisClient := redis.NewClient(redisOpts)
	defer redisClient.Close()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("failed to ping redis: %w", err)
	}

	userRepo := postgres.NewUserRepository(db)
	invitationRepo := postgres.NewInvitationRepository(db)
	codeRepo := postgres.NewVerificationCodeRepository(db)

	codec := authadapter.NewJWTCodec(cfg.JWTSecret)
	hasher := authadapter.NewArgon2Hasher()
	invitationStream := stream.NewRedisStream(redisClient)

	mailer, err := emailadapter.NewMailer(cfg.Mailer, logger)
	if err != nil {
		return fmt.Errorf("failed to init mailer: %w", err)
	}

	emailService := services.NewEmailService(mailer, emailadapter.NewTemplateRenderer(), logger)
	authService := services.NewAuthService(userRepo, invitationRepo, codec, hasher, cfg.AccessExpiry, cfg.RefreshExpiry, logger)
	invitationService := services.NewInvitationService(invitationRepo, userRepo, invitationStream)
	userService := services.NewUserService(userRepo, codeRepo, hasher, emailService)

	if cfg.AdminEmail != "" && cfg.AdminPassword != "" {
		if err := authService.EnsureAdmin(ctx, cfg.AdminEmail, cfg.AdminPassword); err != nil {
			return fmt.Errorf("failed to ensure admin account: %w", err)
		}
	} else {
		logger.Warn("ADMIN_EMAIL/ADMIN_PASSWORD not set, skipping admin bootstrap")
	}

	worker := workers.NewInvitationWorker(invitationStream, emailService, cfg.ClientURL, logger)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		worker.Run(ctx)
	}()

	mux := delivery.NewRouter(
		codec,
		controllers.NewAuthController(logger, authService, cfg.IsProduction()),
		controllers.NewInvitationController(logger, invitationService),
		controllers.NewUserController(logger, userService),
	)

	handler := middleware.LoggingMiddleware(logger,
		middleware.CORS([]string{cfg.ClientURL}, mux))

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "port", cfg.Port, "env", cfg.Environment)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		stop()
		wg.Wait()
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "err", err)
	}
	wg.Wait()
	return nil
}
