package container

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/mdobak/go-xerrors"

	"wall-inspector/config"
	app "wall-inspector/internal/application"
	"wall-inspector/internal/domain/entity"
	"wall-inspector/internal/domain/port"
	"wall-inspector/internal/infrastructure/advisory"
	"wall-inspector/internal/infrastructure/eventbus"
	"wall-inspector/internal/infrastructure/metrics"
	"wall-inspector/internal/infrastructure/storage"
	"wall-inspector/internal/infrastructure/vision"
)

type Container struct {
	Profile           *entity.Profile
	Metrics           *metrics.Metrics
	Artifacts         *storage.FileArtifactStore
	Detector          port.DamageDetector
	SessionService    *app.SessionService
	Pipeline          *app.Pipeline
	InspectionService *app.InspectionService

	// Publisher nil, если публикация событий выключена или брокер недоступен
	Publisher *eventbus.Publisher

	closers []func()
}

// New собирает зависимости приложения по конфигурации.
// Журнал и публикация событий подключаются, только если заданы в конфигурации.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Container, error) {
	c := &Container{}

	profile, err := advisory.Load(cfg.Locale, cfg.AdvisoryFile)
	if err != nil {
		return nil, fmt.Errorf("load advisory profile: %w", err)
	}
	c.Profile = profile

	detector, err := newDetector(ctx, cfg, profile, logger)
	if err != nil {
		return nil, err
	}
	c.Detector = detector
	if closer, ok := detector.(interface{ Close() error }); ok {
		c.closers = append(c.closers, func() { _ = closer.Close() })
	}

	c.Metrics = metrics.New()
	c.Artifacts = storage.NewFileArtifactStore(cfg.OutputPath, cfg.UploadTempDir)
	c.SessionService = app.NewSessionService(storage.NewMemorySessionRepository())
	c.Pipeline = app.NewPipeline(detector, c.Artifacts, profile, app.PipelineOptions{
		Threshold:          cfg.ConfidenceThreshold,
		AcceptedExtensions: cfg.AcceptedExtensions,
		MaxPixels:          int(cfg.MaxImagePixels),
	}, c.Metrics, logger)

	var journal port.InspectionJournal
	if cfg.JournalPath != "" {
		j, err := storage.NewSQLiteJournal(cfg.JournalPath)
		if err != nil {
			c.Close()
			return nil, fmt.Errorf("open journal: %w", err)
		}
		journal = j
		c.closers = append(c.closers, func() { _ = j.Close() })
		logger.Info("inspection journal enabled", slog.String("path", cfg.JournalPath))
	}

	var publisher port.InspectionPublisher
	if cfg.NATSURL != "" {
		p, err := eventbus.NewPublisher(cfg.NATSURL, cfg.NATSSubject, logger)
		if err != nil {
			// Проверки работают и без брокера
			logger.Warn("NATS unavailable, inspection events disabled", slog.Any("error", xerrors.New(err)))
		} else {
			publisher = p
			c.Publisher = p
			c.closers = append(c.closers, p.Close)
		}
	}

	c.InspectionService = app.NewInspectionService(c.SessionService, c.Pipeline, journal, publisher, logger)

	return c, nil
}

// Close освобождает ресурсы в обратном порядке
func (c *Container) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
	c.closers = nil
}

func newDetector(ctx context.Context, cfg *config.Config, profile *entity.Profile, logger *slog.Logger) (port.DamageDetector, error) {
	switch cfg.DetectorBackend {
	case config.BackendGoCV:
		classes := cfg.ModelClasses
		if len(classes) == 0 {
			classes = profile.Advisories.Labels()
		}
		d, err := vision.NewGoCVDetector(cfg.ModelPath, classes)
		if err != nil {
			return nil, fmt.Errorf("load model: %w", err)
		}
		return d, nil

	default:
		d := vision.NewHTTPDetector(cfg.DetectorURL, cfg.ModelPath, cfg.DetectorTimeout)
		checkCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := d.HealthCheck(checkCtx); err != nil {
			logger.Warn("detector service is not reachable yet",
				slog.String("url", cfg.DetectorURL),
				slog.Any("error", xerrors.New(err)),
			)
		}
		return d, nil
	}
}
