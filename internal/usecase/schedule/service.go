package schedule

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"tg-post-bot/internal/domain"
)

// RunAtLayout — формат ручного ввода даты публикации.
const RunAtLayout = "02.01.2006 15:04"

// MinLead — минимальный задел между «сейчас» и временем публикации.
const MinLead = 30 * time.Second

// Service управляет отложенными публикациями.
type Service struct {
	jobs domain.JobRepo
	loc  *time.Location
	now  func() time.Time
}

// NewService создаёт сервис отложек. loc — таймзона ручного ввода дат.
func NewService(jobs domain.JobRepo, loc *time.Location) *Service {
	return &Service{jobs: jobs, loc: loc, now: time.Now}
}

// Request — данные для постановки публикации в очередь.
type Request struct {
	ChannelID string
	Text      string
	Buttons   []domain.Button
	PhotoRef  string
	RunAt     time.Time
	CreatedBy int64
}

// Schedule сохраняет отложенную публикацию. Время в прошлом или ближе
// тридцати секунд отклоняется: такой пост надо публиковать сразу.
func (s *Service) Schedule(ctx context.Context, req Request) (domain.Job, error) {
	if err := s.validateRunAt(req.RunAt); err != nil {
		return domain.Job{}, err
	}
	job := domain.Job{
		ID:        uuid.NewString(),
		ChannelID: req.ChannelID,
		Text:      req.Text,
		Buttons:   req.Buttons,
		PhotoRef:  req.PhotoRef,
		RunAt:     req.RunAt.UTC(),
		CreatedBy: req.CreatedBy,
		CreatedAt: s.now().UTC(),
	}
	if err := s.jobs.Insert(ctx, job); err != nil {
		return domain.Job{}, fmt.Errorf("сохранение отложки: %w", err)
	}
	return job, nil
}

// Reschedule переносит публикацию на новое время с той же проверкой задела.
func (s *Service) Reschedule(ctx context.Context, jobID string, runAt time.Time) error {
	if err := s.validateRunAt(runAt); err != nil {
		return err
	}
	matched, err := s.jobs.UpdateRunAt(ctx, jobID, runAt.UTC())
	if err != nil {
		return fmt.Errorf("перенос отложки: %w", err)
	}
	if !matched {
		return domain.ErrNotFound
	}
	return nil
}

// ApplyJobEdit меняет контент отложки. Время публикации не трогается.
func (s *Service) ApplyJobEdit(ctx context.Context, jobID string, content domain.PostContent) error {
	matched, err := s.jobs.UpdateContent(ctx, jobID, content)
	if err != nil {
		return fmt.Errorf("правка отложки: %w", err)
	}
	if !matched {
		return domain.ErrNotFound
	}
	return nil
}

// Cancel удаляет отложку. Гонка с планировщиком даёт ErrNotFound.
func (s *Service) Cancel(ctx context.Context, jobID string) error {
	matched, err := s.jobs.Delete(ctx, jobID)
	if err != nil {
		return fmt.Errorf("отмена отложки: %w", err)
	}
	if !matched {
		return domain.ErrNotFound
	}
	return nil
}

// Get возвращает отложку по идентификатору.
func (s *Service) Get(ctx context.Context, jobID string) (domain.Job, error) {
	return s.jobs.GetByID(ctx, jobID)
}

// List возвращает ближайшие отложки.
func (s *Service) List(ctx context.Context, limit int) ([]domain.Job, error) {
	return s.jobs.List(ctx, limit)
}

// ParseRunAt разбирает ручной ввод даты «ДД.ММ.ГГГГ ЧЧ:ММ» в таймзоне бота.
func (s *Service) ParseRunAt(raw string) (time.Time, error) {
	t, err := time.ParseInLocation(RunAtLayout, strings.TrimSpace(raw), s.loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("не удалось разобрать дату: %w", err)
	}
	return t, nil
}

// QuickPreset переводит код быстрого выбора времени в конкретный момент.
// Пустой ok означает неизвестный код или «ввести вручную».
func (s *Service) QuickPreset(code string) (time.Time, bool) {
	now := s.now().In(s.loc)
	switch code {
	case "10m":
		return now.Add(10 * time.Minute), true
	case "30m":
		return now.Add(30 * time.Minute), true
	case "1h":
		return now.Add(time.Hour), true
	case "3h":
		return now.Add(3 * time.Hour), true
	case "tomorrow":
		d := now.AddDate(0, 0, 1)
		return time.Date(d.Year(), d.Month(), d.Day(), 9, 0, 0, 0, s.loc), true
	default:
		return time.Time{}, false
	}
}

func (s *Service) validateRunAt(runAt time.Time) error {
	if !runAt.After(s.now().Add(MinLead)) {
		return domain.ErrRunAtTooSoon
	}
	return nil
}
