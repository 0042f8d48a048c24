package app

import (
	"context"

	"wall-inspector/internal/domain/entity"
	"wall-inspector/internal/domain/port"
)

type SessionService struct {
	repo port.SessionRepository
}

func NewSessionService(repo port.SessionRepository) *SessionService {
	return &SessionService{repo: repo}
}

func (s *SessionService) Get(ctx context.Context, id string) (*entity.Session, error) {
	return s.repo.Get(ctx, id)
}

// Begin переводит сессию в обработку; entity.ErrSessionBusy если обработка уже идёт
func (s *SessionService) Begin(ctx context.Context, id string) (*entity.Session, error) {
	return s.repo.Transition(ctx, id, entity.StateAwaitingUpload, entity.StateProcessing)
}

// Finish возвращает сессию в ожидание следующей загрузки
func (s *SessionService) Finish(ctx context.Context, id string) (*entity.Session, error) {
	return s.repo.Transition(ctx, id, entity.StateProcessing, entity.StateAwaitingUpload)
}

// Reset принудительно возвращает сессию в ожидание
func (s *SessionService) Reset(ctx context.Context, id string) (*entity.Session, error) {
	session, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	session.SetState(entity.StateAwaitingUpload)
	if err := s.repo.Save(ctx, session); err != nil {
		return nil, err
	}

	return session, nil
}
