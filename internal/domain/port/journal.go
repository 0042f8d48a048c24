package port

import (
	"context"

	"wall-inspector/internal/domain/entity"
)

// InspectionJournal журнал проверок
type InspectionJournal interface {
	Record(ctx context.Context, record *entity.InspectionRecord) error

	// Recent возвращает последние записи, новые первыми. Пустой sessionID означает все сессии.
	Recent(ctx context.Context, sessionID string, limit int) ([]entity.InspectionRecord, error)
}

// InspectionPublisher уведомляет внешние системы о завершённой проверке
type InspectionPublisher interface {
	PublishInspection(ctx context.Context, record *entity.InspectionRecord) error
}
