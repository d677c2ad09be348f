package sessions

import (
	"context"
	"sync"

	"tg-post-bot/internal/domain"
)

// Memory — хранилище черновиков в памяти процесса.
// Используется, когда Redis не настроен, и в тестах.
type Memory struct {
	mu     sync.RWMutex
	drafts map[int64]domain.Draft
}

var _ domain.DraftStore = (*Memory)(nil)

// NewMemory создаёт пустое хранилище.
func NewMemory() *Memory {
	return &Memory{drafts: map[int64]domain.Draft{}}
}

// Get возвращает черновик пользователя. false — черновика нет.
func (s *Memory) Get(_ context.Context, userID int64) (domain.Draft, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	draft, ok := s.drafts[userID]
	return draft, ok, nil
}

// Put сохраняет черновик.
func (s *Memory) Put(_ context.Context, userID int64, draft domain.Draft) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.drafts[userID] = draft
	return nil
}

// Delete удаляет черновик пользователя.
func (s *Memory) Delete(_ context.Context, userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.drafts, userID)
	return nil
}
