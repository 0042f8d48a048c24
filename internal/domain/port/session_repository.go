package port

import (
	"context"

	"wall-inspector/internal/domain/entity"
)

// SessionRepository интерфейс хранилища сессий
type SessionRepository interface {
	// Get возвращает сессию по ID, создаёт новую если не найдена
	Get(ctx context.Context, id string) (*entity.Session, error)

	// Save сохраняет состояние сессии
	Save(ctx context.Context, session *entity.Session) error

	// Transition атомарно переводит сессию из from в to.
	// Если текущее состояние не from, возвращает entity.ErrSessionBusy.
	Transition(ctx context.Context, id string, from, to entity.SessionState) (*entity.Session, error)
}
