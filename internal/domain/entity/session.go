package entity

import "time"

// SessionState состояние сессии загрузки
type SessionState string

const (
	StateAwaitingUpload SessionState = "awaiting_upload" // Ожидание изображения
	StateProcessing     SessionState = "processing"      // Обработка изображения
)

// Session сессия клиента (чат Telegram или браузер)
type Session struct {
	ID        string       // идентификатор сессии, например "tg:123" или "web:<uuid>"
	State     SessionState // текущее состояние
	UpdatedAt time.Time
}

// NewSession создаёт сессию в начальном состоянии
func NewSession(id string) *Session {
	return &Session{
		ID:        id,
		State:     StateAwaitingUpload,
		UpdatedAt: time.Now(),
	}
}

// SetState обновляет состояние сессии
func (s *Session) SetState(state SessionState) {
	s.State = state
	s.UpdatedAt = time.Now()
}

// Busy сообщает, что предыдущая загрузка ещё обрабатывается
func (s *Session) Busy() bool {
	return s.State == StateProcessing
}
