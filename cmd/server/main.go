package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lmittmann/tint"
	"github.com/openlistings/claimsvc/config"
	"github.com/openlistings/claimsvc/internal/email"
	"github.com/openlistings/claimsvc/internal/health"
	"github.com/openlistings/claimsvc/internal/infrastructure/memory"
	"github.com/openlistings/claimsvc/internal/infrastructure/postgres"
	ctxlog "github.com/openlistings/claimsvc/internal/log"
	"github.com/openlistings/claimsvc/internal/metrics"
	httptransport "github.com/openlistings/claimsvc/internal/transport/http"
	"github.com/openlistings/claimsvc/internal/transport/http/handler"
	"github.com/openlistings/claimsvc/internal/usecase"
	"github.com/openlistings/claimsvc/internal/verification"
	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	logger := newLogger(cfg.Env, cfg.SlogLevel())

	if cfg.Env != "local" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
	if pool == nil {
		stop()
		log.Fatalf("db: %v", err)
	}
	if err != nil {
		// Pool exists but the ping failed. Production refuses to start
		// half-blind; everywhere else the flow degrades to the in-process
		// code store until Postgres recovers.
		if cfg.Env == "production" {
			stop()
			log.Fatalf("db: %v", err)
		}
		logger.Warn("postgres unreachable at startup, codes will use the in-process store until it recovers", "error", err)
	}
	defer pool.Close()

	companyRepo := postgres.NewCompanyRepository(pool)
	accountRepo := postgres.NewAccountRepository(pool)
	verificationRepo := postgres.NewVerificationRepository(pool)

	store := verification.NewFallbackStore(verificationRepo, memory.NewStore(), logger)

	sender := email.NewSender(cfg.Env, cfg.ResendAPIKey, cfg.ResendFrom, logger)

	transfer := usecase.NewOwnershipTransfer(accountRepo, companyRepo, logger)
	claimUsecase := usecase.NewClaimUsecase(
		companyRepo, store, transfer, sender, logger,
		[]byte(cfg.JWTSecret), cfg.CodeTTL(), cfg.SiteName,
		cfg.Env == "production",
	)

	claimHandler := handler.NewClaimHandler(claimUsecase, logger)
	listingHandler := handler.NewListingHandler(companyRepo, logger)
	accountHandler := handler.NewAccountHandler(accountRepo, logger)

	metrics.Register()
	checker := health.NewChecker(pool, logger, prometheus.DefaultRegisterer)

	reaper, err := verification.NewReaper(store, cfg.ReapSchedule, logger)
	if err != nil {
		stop()
		log.Fatalf("reaper: %v", err)
	}
	reaper.Start(ctx)

	srv := http.Server{
		Addr:    ":" + cfg.Port,
		Handler: httptransport.NewRouter(logger, claimHandler, listingHandler, accountHandler, []byte(cfg.JWTSecret)),
	}

	metricsSrv := metrics.NewServer(":"+cfg.MetricsPort, checker)

	go func() {
		logger.Info("server started", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server: %v", err)
		}
	}()

	go func() {
		logger.Info("metrics server started", "port", cfg.MetricsPort)
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server", "error", err)
		}
	}()

	<-ctx.Done()
	stop()
	logger.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", "error", err)
	}
	if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error("metrics server shutdown", "error", err)
	}
}

func newLogger(env string, level slog.Level) *slog.Logger {
	var inner slog.Handler
	if env == "local" {
		inner = tint.NewHandler(os.Stdout, &tint.Options{
			Level:      level,
			TimeFormat: time.Kitchen,
		})
	} else {
		inner = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: level,
		})
	}
	return slog.New(ctxlog.NewContextHandler(inner))
}
