package app

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/mdobak/go-xerrors"

	"wall-inspector/internal/domain/entity"
	"wall-inspector/internal/domain/port"
)

// ErrJournalDisabled журнал проверок не настроен
var ErrJournalDisabled = errors.New("inspection journal is disabled")

// InspectionService связывает сессии с конвейером: одна загрузка на сессию за раз,
// после обработки сводка пишется в журнал и публикуется.
type InspectionService struct {
	sessions  *SessionService
	pipeline  *Pipeline
	journal   port.InspectionJournal
	publisher port.InspectionPublisher
	logger    *slog.Logger
}

// NewInspectionService создаёт сервис проверки. journal и publisher необязательны.
func NewInspectionService(sessions *SessionService, pipeline *Pipeline, journal port.InspectionJournal, publisher port.InspectionPublisher, logger *slog.Logger) *InspectionService {
	if logger == nil {
		logger = slog.Default()
	}
	return &InspectionService{
		sessions:  sessions,
		pipeline:  pipeline,
		journal:   journal,
		publisher: publisher,
		logger:    logger.With("component", "inspection"),
	}
}

// Profile профиль конвейера
func (s *InspectionService) Profile() *entity.Profile {
	return s.pipeline.Profile()
}

// Inspect обрабатывает загрузку в рамках сессии.
// Ошибка одной загрузки не меняет состояние для следующих: сессия всегда возвращается в ожидание.
func (s *InspectionService) Inspect(ctx context.Context, sessionID string, req UploadRequest) (*RenderModel, error) {
	if _, err := s.sessions.Begin(ctx, sessionID); err != nil {
		return nil, err
	}
	defer func() {
		if _, err := s.sessions.Finish(ctx, sessionID); err != nil {
			s.logger.ErrorContext(ctx, "failed to release session",
				slog.String("session", sessionID), slog.Any("error", xerrors.New(err)))
		}
	}()

	model, err := s.pipeline.HandleUpload(ctx, req)
	if err != nil {
		return nil, err
	}

	record := &entity.InspectionRecord{
		SessionID:     sessionID,
		CreatedAt:     time.Now().UTC(),
		Outcome:       model.Outcome,
		Total:         model.Total,
		Counts:        make(entity.SummaryCounts, len(model.Summary)),
		UnknownLabels: model.UnknownLabels,
	}
	for _, row := range model.Summary {
		record.Counts[row.Label] = row.Count
	}
	s.report(ctx, record)

	return model, nil
}

// Status текущее состояние сессии
func (s *InspectionService) Status(ctx context.Context, sessionID string) (*entity.Session, error) {
	return s.sessions.Get(ctx, sessionID)
}

// Cancel возвращает сессию в ожидание загрузки, например после сбоя транспорта
func (s *InspectionService) Cancel(ctx context.Context, sessionID string) (*entity.Session, error) {
	return s.sessions.Reset(ctx, sessionID)
}

// History последние проверки сессии
func (s *InspectionService) History(ctx context.Context, sessionID string, limit int) ([]entity.InspectionRecord, error) {
	if s.journal == nil {
		return nil, ErrJournalDisabled
	}
	return s.journal.Recent(ctx, sessionID, limit)
}

// report пишет журнал и публикует событие; сбои только логируются
func (s *InspectionService) report(ctx context.Context, record *entity.InspectionRecord) {
	if s.journal != nil {
		if err := s.journal.Record(ctx, record); err != nil {
			s.logger.ErrorContext(ctx, "failed to record inspection", slog.Any("error", xerrors.New(err)))
		}
	}
	if s.publisher != nil {
		if err := s.publisher.PublishInspection(ctx, record); err != nil {
			s.logger.ErrorContext(ctx, "failed to publish inspection", slog.Any("error", xerrors.New(err)))
		}
	}
}
