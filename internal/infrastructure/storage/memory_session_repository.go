package storage

import (
	"context"
	"fmt"
	"sync"

	"wall-inspector/internal/domain/entity"
	"wall-inspector/internal/domain/port"
)

// MemorySessionRepository in-memory хранилище сессий
type MemorySessionRepository struct {
	mu       sync.RWMutex
	sessions map[string]*entity.Session
}

// NewMemorySessionRepository создаёт новое in-memory хранилище
func NewMemorySessionRepository() *MemorySessionRepository {
	return &MemorySessionRepository{
		sessions: make(map[string]*entity.Session),
	}
}

// Get возвращает копию сессии по ID, создаёт новую если не найдена
func (r *MemorySessionRepository) Get(ctx context.Context, id string) (*entity.Session, error) {
	r.mu.RLock()
	session, exists := r.sessions[id]
	r.mu.RUnlock()

	if exists {
		copied := *session
		return &copied, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	// Сессию могли создать между RUnlock и Lock
	if session, exists = r.sessions[id]; !exists {
		session = entity.NewSession(id)
		r.sessions[id] = session
	}
	copied := *session
	return &copied, nil
}

// Save сохраняет состояние сессии
func (r *MemorySessionRepository) Save(ctx context.Context, session *entity.Session) error {
	copied := *session
	r.mu.Lock()
	r.sessions[session.ID] = &copied
	r.mu.Unlock()

	return nil
}

// Transition атомарно меняет состояние сессии
func (r *MemorySessionRepository) Transition(ctx context.Context, id string, from, to entity.SessionState) (*entity.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	session, exists := r.sessions[id]
	if !exists {
		session = entity.NewSession(id)
		r.sessions[id] = session
	}

	if session.State != from {
		if session.State == entity.StateProcessing {
			return nil, entity.ErrSessionBusy
		}
		return nil, fmt.Errorf("session %s: unexpected state %s", id, session.State)
	}

	session.SetState(to)
	copied := *session
	return &copied, nil
}

// Проверка реализации интерфейса
var _ port.SessionRepository = (*MemorySessionRepository)(nil)
