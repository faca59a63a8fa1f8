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

	"github.com/bigMackD/Glyloop-sub002/config"
	"github.com/bigMackD/Glyloop-sub002/internal/dexcom"
	"github.com/bigMackD/Glyloop-sub002/internal/domain"
	"github.com/bigMackD/Glyloop-sub002/internal/email"
	"github.com/bigMackD/Glyloop-sub002/internal/events"
	"github.com/bigMackD/Glyloop-sub002/internal/health"
	"github.com/bigMackD/Glyloop-sub002/internal/infrastructure/postgres"
	ctxlog "github.com/bigMackD/Glyloop-sub002/internal/log"
	"github.com/bigMackD/Glyloop-sub002/internal/metrics"
	"github.com/bigMackD/Glyloop-sub002/internal/notify"
	"github.com/bigMackD/Glyloop-sub002/internal/refresher"
	"github.com/bigMackD/Glyloop-sub002/internal/tokencrypt"
	"github.com/bigMackD/Glyloop-sub002/internal/usecase"
	"github.com/lmittmann/tint"
	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := newLogger(cfg.Env, cfg.SlogLevel())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		stop()
		log.Fatalf("db: %v", err)
	}
	defer pool.Close()

	logger.Info("db connected")

	metrics.Register()
	checker := health.NewChecker(pool, logger, prometheus.DefaultRegisterer)

	masterKey, err := cfg.TokenEncKeyBytes()
	if err != nil {
		stop()
		log.Fatalf("token key: %v", err)
	}
	keys, err := tokencrypt.NewStaticKeyProvider(masterKey)
	if err != nil {
		stop()
		log.Fatalf("token key: %v", err)
	}
	cipher, err := tokencrypt.NewService(keys, tokencrypt.PurposeCgmTokens)
	if err != nil {
		stop()
		log.Fatalf("token cipher: %v", err)
	}

	clock := domain.UTCClock{}
	sender := email.NewSender(cfg.Env, cfg.ResendAPIKey, cfg.ResendFrom, logger)

	userRepo := postgres.NewUserRepository(pool)
	linkRepo := postgres.NewCgmLinkRepository(pool)
	readingStore := postgres.NewReadingStore(pool)

	dispatcher := events.NewDispatcher(logger,
		notify.NewReadingPurger(readingStore, logger),
		notify.NewUnlinkNotifier(userRepo, sender),
	)
	uowFactory := postgres.NewUnitOfWorkFactory(pool, dispatcher)

	dexcomClient := dexcom.NewHTTPClient(dexcom.Config{
		ClientID:     cfg.DexcomClientID,
		ClientSecret: cfg.DexcomClientSecret,
		RedirectURL:  cfg.DexcomRedirectURL,
		BaseURL:      cfg.DexcomBaseURL,
	})

	linkUsecase := usecase.NewLinkUsecase(linkRepo, uowFactory, dexcomClient, cipher, clock)

	worker, err := refresher.New(
		linkUsecase,
		logger,
		cfg.RefreshCron,
		time.Duration(cfg.RefreshThresholdMin)*time.Minute,
	)
	if err != nil {
		stop()
		log.Fatalf("refresher: %v", err)
	}
	go worker.Start(ctx)

	metricsSrv := metrics.NewServer(":"+cfg.MetricsPort, checker)
	go func() {
		logger.Info("metrics server started", "port", cfg.MetricsPort)
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server", "error", err)
		}
	}()

	<-ctx.Done()
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error("metrics server shutdown", "error", err)
	}

	logger.Info("refresher shut down")
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
