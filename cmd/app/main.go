// File: cmd/app/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"telegram-vip-subscription/internal/application"
	"telegram-vip-subscription/internal/config"
	pg "telegram-vip-subscription/internal/infra/db/postgres"
	"telegram-vip-subscription/internal/infra/logging"
	"telegram-vip-subscription/internal/infra/metrics"
	red "telegram-vip-subscription/internal/infra/redis"
	"telegram-vip-subscription/internal/infra/sched"
	tele "telegram-vip-subscription/internal/infra/telegram"
	"telegram-vip-subscription/internal/infra/web"
	"telegram-vip-subscription/internal/usecase"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode (console logs, no sampling)")
	migrationsDir := flag.String("migrations", "migrations", "path to goose migrations")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	if cfg.Runtime.Dev {
		logger.Info().Msg("[DEV MODE] Enabled")
	}

	metrics.MustRegister()

	// ---- Postgres ----
	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, 10)
	if err != nil {
		logger.Fatal().Err(err).Msg("postgres")
	}
	defer pool.Close()

	if err := pg.RunMigrations(ctx, pool, *migrationsDir); err != nil {
		logger.Fatal().Err(err).Msg("migrations")
	}

	// ---- Redis ----
	redisClient, err := red.NewClient(ctx, &cfg.Redis)
	if err != nil {
		logger.Fatal().Err(err).Msg("redis")
	}
	defer redisClient.Close()
	stateRepo := red.NewStateRepo(redisClient, cfg.Redis.TTL)
	rateLimiter := red.NewRateLimiter(redisClient)

	// ---- Repositories ----
	codeRepo := pg.NewCodeRepo(pool)
	subRepo := pg.NewSubscriptionRepo(pool)
	txManager := pg.NewTxManager(pool)

	// ---- Telegram ----
	botAdapter, err := tele.NewRealBotAdapter(&cfg.Bot, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("telegram")
	}
	if cfg.Bot.WebhookURL != "" {
		whURL := fmt.Sprintf("%s/webhook/%s", cfg.Bot.WebhookURL, cfg.Bot.WebhookSecret)
		if err := botAdapter.RegisterWebhook(whURL); err != nil {
			logger.Fatal().Err(err).Msg("register webhook")
		}
	}

	// ---- Use cases ----
	auth := usecase.SingleAdmin(cfg.Bot.AdminID)
	codeUC := usecase.NewCodeUseCase(codeRepo, auth, logger)
	subUC := usecase.NewSubscriptionUseCase(subRepo, codeRepo, txManager, botAdapter, auth, logger)

	// ---- Facade ----
	facade := application.NewBotFacade(codeUC, subUC, stateRepo, botAdapter, auth, rateLimiter, cfg.Bot.AdminID, logger)

	// ---- HTTP server ----
	srv := web.NewServer(cfg.Bot.WebhookSecret, facade, cfg.Bot.Workers, logger)
	go srv.Run(ctx)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:           srv.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Info().Str("addr", server.Addr).Msg("http listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("http server error")
		}
	}()

	// ---- Expiry worker ----
	worker := sched.NewExpiryWorker(cfg.Sweeper.Interval, subUC, logger)
	go func() { _ = worker.Run(ctx) }()

	// ---- Graceful shutdown ----
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	<-sigc
	logger.Info().Msg("shutdown requested")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http shutdown")
	}
	cancel()
}
