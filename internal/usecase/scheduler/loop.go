package scheduler

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"tg-post-bot/internal/domain"
	"tg-post-bot/internal/infra/metrics"
	"tg-post-bot/internal/usecase/posting"
	"tg-post-bot/internal/usecase/render"
)

// Publisher — часть сервиса публикаций, нужная планировщику.
type Publisher interface {
	PublishAndStore(ctx context.Context, pub posting.Publication) (domain.Post, error)
}

// Loop — планировщик отложенных публикаций. Каждый тик выбирает пачку
// созревших задач и публикует их по одной, изолируя ошибки.
type Loop struct {
	jobs         domain.JobRepo
	publisher    Publisher
	log          zerolog.Logger
	interval     time.Duration
	batchSize    int
	captionLimit int
}

// NewLoop создаёт планировщик.
func NewLoop(jobs domain.JobRepo, publisher Publisher, log zerolog.Logger, interval time.Duration, batchSize, captionLimit int) *Loop {
	return &Loop{
		jobs:         jobs,
		publisher:    publisher,
		log:          log,
		interval:     interval,
		batchSize:    batchSize,
		captionLimit: captionLimit,
	}
}

// Run крутит цикл до отмены контекста.
func (l *Loop) Run(ctx context.Context) {
	l.log.Info().Dur("interval", l.interval).Int("batch", l.batchSize).Msg("планировщик запущен")
	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			l.log.Info().Msg("планировщик остановлен")
			return
		case <-ticker.C:
			l.Tick(ctx)
		}
	}
}

// Tick обрабатывает одну пачку созревших задач.
func (l *Loop) Tick(ctx context.Context) {
	due, err := l.jobs.ListDue(ctx, time.Now().UTC(), l.batchSize)
	if err != nil {
		metrics.SchedulerQueryErrors.Inc()
		l.log.Error().Err(err).Msg("выборка созревших задач не удалась, ждём следующий тик")
		return
	}
	for _, job := range due {
		metrics.SchedulerDueJobs.Inc()
		if err := l.publishJob(ctx, job); err != nil {
			metrics.SchedulerJobErrors.Inc()
			l.log.Error().Err(err).Str("job", job.ID).Msg("публикация задачи не удалась, продолжаем пачку")
		}
	}
}

// publishJob публикует одну задачу и удаляет её строку.
//
// Перед публикацией задача перечитывается: между выборкой и отправкой её
// могли отменить или отредактировать. Удаление после отправки даёт
// семантику at-least-once: при падении между этими шагами задача
// опубликуется повторно на следующем тике.
func (l *Loop) publishJob(ctx context.Context, job domain.Job) error {
	fresh, err := l.jobs.GetByID(ctx, job.ID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			l.log.Debug().Str("job", job.ID).Msg("задача исчезла до публикации, пропускаем")
			return nil
		}
		return err
	}

	_, err = l.publisher.PublishAndStore(ctx, posting.Publication{
		ChannelID: fresh.ChannelID,
		Text:      fresh.Text,
		Buttons:   fresh.Buttons,
		PhotoRef:  fresh.PhotoRef,
		Split:     render.AutoSplit(fresh.Text, fresh.PhotoRef, l.captionLimit),
		CreatedBy: fresh.CreatedBy,
	})
	if err != nil {
		return err
	}
	metrics.IncPublished("scheduler")

	matched, err := l.jobs.Delete(ctx, fresh.ID)
	if err != nil {
		l.log.Warn().Err(err).Str("job", fresh.ID).
			Msg("пост опубликован, но задача не удалилась: возможен повтор публикации")
		return nil
	}
	if !matched {
		l.log.Debug().Str("job", fresh.ID).Msg("задачу удалил кто-то другой")
	}
	return nil
}
