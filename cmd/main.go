package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mdobak/go-xerrors"

	"wall-inspector/config"
	"wall-inspector/internal/api/telegram"
	"wall-inspector/internal/api/web"
	"wall-inspector/internal/container"
	"wall-inspector/internal/domain/entity"
	"wall-inspector/internal/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		var cfgErr *entity.ConfigurationError
		if errors.As(err, &cfgErr) {
			log.Fatalf("Refusing to start: %v", cfgErr)
		}
		log.Fatalf("Failed to load config: %v", err)
	}

	l, err := logger.Init(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		l.Warn("invalid LOG_LEVEL, using info", slog.String("value", cfg.LogLevel))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Собираем сервисы приложения
	appContainer, err := container.New(ctx, cfg, l)
	if err != nil {
		l.Error("failed to build application", slog.Any("error", xerrors.New(err)))
		os.Exit(1)
	}
	defer appContainer.Close()

	l.Info("wall inspector starting",
		slog.String("locale", appContainer.Profile.Locale),
		slog.String("detector", cfg.DetectorBackend),
		slog.Float64("threshold", cfg.ConfidenceThreshold),
		slog.String("output", appContainer.Artifacts.OutputPath()),
	)

	opts := web.Options{
		Inspections: appContainer.InspectionService,
		Artifacts:   appContainer.Artifacts,
		Metrics:     appContainer.Metrics.Handler(),
		MaxBytes:    cfg.MaxUploadBytes,
		Logger:      l,
	}
	if hc, ok := appContainer.Detector.(web.HealthChecker); ok {
		opts.Health = hc
	}
	if appContainer.Publisher != nil {
		opts.Events = appContainer.Publisher
	}
	server := web.NewServer(opts)

	errCh := make(chan error, 2)
	go func() {
		errCh <- server.Start(cfg.HTTPAddr)
	}()

	// Бот запускается, только если задан токен
	if cfg.TelegramToken != "" {
		bot, err := telegram.NewBot(cfg.TelegramToken, appContainer.InspectionService, cfg.MaxUploadBytes, l)
		if err != nil {
			l.Error("failed to create bot", slog.Any("error", xerrors.New(err)))
			appContainer.Close()
			os.Exit(1)
		}
		go func() {
			l.Info("bot is running")
			errCh <- bot.Run(ctx)
		}()
	}

	select {
	case <-ctx.Done():
		l.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			l.Error("server stopped", slog.Any("error", xerrors.New(err)))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Stop(shutdownCtx); err != nil {
		l.Error("failed to stop HTTP server", slog.Any("error", xerrors.New(err)))
	}
}
