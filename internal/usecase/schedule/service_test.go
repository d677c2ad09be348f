package schedule

import (
	"context"
	"errors"
	"testing"
	"time"

	"tg-post-bot/internal/domain"
)

type fakeJobRepo struct {
	jobs map[string]domain.Job
}

func newFakeJobRepo() *fakeJobRepo {
	return &fakeJobRepo{jobs: map[string]domain.Job{}}
}

func (r *fakeJobRepo) Insert(_ context.Context, job domain.Job) error {
	r.jobs[job.ID] = job
	return nil
}

func (r *fakeJobRepo) GetByID(_ context.Context, id string) (domain.Job, error) {
	job, ok := r.jobs[id]
	if !ok {
		return domain.Job{}, domain.ErrNotFound
	}
	return job, nil
}

func (r *fakeJobRepo) List(_ context.Context, _ int) ([]domain.Job, error) {
	out := make([]domain.Job, 0, len(r.jobs))
	for _, j := range r.jobs {
		out = append(out, j)
	}
	return out, nil
}

func (r *fakeJobRepo) ListDue(_ context.Context, now time.Time, _ int) ([]domain.Job, error) {
	var out []domain.Job
	for _, j := range r.jobs {
		if !j.RunAt.After(now) {
			out = append(out, j)
		}
	}
	return out, nil
}

func (r *fakeJobRepo) UpdateContent(_ context.Context, id string, content domain.PostContent) (bool, error) {
	job, ok := r.jobs[id]
	if !ok {
		return false, nil
	}
	job.Text = content.Text
	job.Buttons = content.Buttons
	job.PhotoRef = content.PhotoRef
	r.jobs[id] = job
	return true, nil
}

func (r *fakeJobRepo) UpdateRunAt(_ context.Context, id string, runAt time.Time) (bool, error) {
	job, ok := r.jobs[id]
	if !ok {
		return false, nil
	}
	job.RunAt = runAt
	r.jobs[id] = job
	return true, nil
}

func (r *fakeJobRepo) Delete(_ context.Context, id string) (bool, error) {
	if _, ok := r.jobs[id]; !ok {
		return false, nil
	}
	delete(r.jobs, id)
	return true, nil
}

func newTestService(repo *fakeJobRepo, now time.Time) *Service {
	svc := NewService(repo, time.UTC)
	svc.now = func() time.Time { return now }
	return svc
}

func TestScheduleRejectsTooSoon(t *testing.T) {
	repo := newFakeJobRepo()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	svc := newTestService(repo, now)

	_, err := svc.Schedule(context.Background(), Request{
		ChannelID: "@channel",
		Text:      "Привет",
		RunAt:     now.Add(10 * time.Second),
	})
	if !errors.Is(err, domain.ErrRunAtTooSoon) {
		t.Fatalf("ожидали ErrRunAtTooSoon, получили %v", err)
	}
	if len(repo.jobs) != 0 {
		t.Fatalf("отклонённая отложка не должна сохраняться")
	}
}

func TestScheduleStoresJob(t *testing.T) {
	repo := newFakeJobRepo()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	svc := newTestService(repo, now)

	job, err := svc.Schedule(context.Background(), Request{
		ChannelID: "@channel",
		Text:      "Привет",
		RunAt:     now.Add(time.Hour),
		CreatedBy: 42,
	})
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if job.ID == "" {
		t.Fatalf("отложка должна получить идентификатор")
	}
	stored, err := repo.GetByID(context.Background(), job.ID)
	if err != nil {
		t.Fatalf("отложка не сохранилась: %v", err)
	}
	if !stored.RunAt.Equal(now.Add(time.Hour)) {
		t.Fatalf("время публикации исказилось: %v", stored.RunAt)
	}
}

func TestRescheduleValidatesLead(t *testing.T) {
	repo := newFakeJobRepo()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	svc := newTestService(repo, now)

	job, err := svc.Schedule(context.Background(), Request{ChannelID: "@channel", Text: "x", RunAt: now.Add(time.Hour)})
	if err != nil {
		t.Fatalf("постановка: %v", err)
	}

	if err := svc.Reschedule(context.Background(), job.ID, now.Add(5*time.Second)); !errors.Is(err, domain.ErrRunAtTooSoon) {
		t.Fatalf("ожидали ErrRunAtTooSoon, получили %v", err)
	}
	stored, _ := repo.GetByID(context.Background(), job.ID)
	if !stored.RunAt.Equal(now.Add(time.Hour)) {
		t.Fatalf("неудачный перенос не должен менять время")
	}

	if err := svc.Reschedule(context.Background(), job.ID, now.Add(2*time.Hour)); err != nil {
		t.Fatalf("перенос: %v", err)
	}
	stored, _ = repo.GetByID(context.Background(), job.ID)
	if !stored.RunAt.Equal(now.Add(2 * time.Hour)) {
		t.Fatalf("перенос не применился: %v", stored.RunAt)
	}
}

func TestApplyJobEditKeepsRunAt(t *testing.T) {
	repo := newFakeJobRepo()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	svc := newTestService(repo, now)

	job, err := svc.Schedule(context.Background(), Request{ChannelID: "@channel", Text: "старый", RunAt: now.Add(time.Hour)})
	if err != nil {
		t.Fatalf("постановка: %v", err)
	}

	if err := svc.ApplyJobEdit(context.Background(), job.ID, domain.PostContent{Text: "новый"}); err != nil {
		t.Fatalf("правка: %v", err)
	}
	stored, _ := repo.GetByID(context.Background(), job.ID)
	if stored.Text != "новый" {
		t.Fatalf("текст не обновился")
	}
	if !stored.RunAt.Equal(job.RunAt) {
		t.Fatalf("правка контента не должна трогать время публикации")
	}
}

func TestCancelMissingJob(t *testing.T) {
	repo := newFakeJobRepo()
	svc := newTestService(repo, time.Now())

	if err := svc.Cancel(context.Background(), "нет такой"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("ожидали ErrNotFound, получили %v", err)
	}
}

func TestParseRunAt(t *testing.T) {
	loc, err := time.LoadLocation("Europe/Moscow")
	if err != nil {
		t.Fatalf("таймзона: %v", err)
	}
	svc := NewService(newFakeJobRepo(), loc)

	got, err := svc.ParseRunAt(" 07.06.2025 18:30 ")
	if err != nil {
		t.Fatalf("разбор: %v", err)
	}
	want := time.Date(2025, 6, 7, 18, 30, 0, 0, loc)
	if !got.Equal(want) {
		t.Fatalf("ожидали %v, получили %v", want, got)
	}

	if _, err := svc.ParseRunAt("завтра вечером"); err == nil {
		t.Fatalf("мусорный ввод должен давать ошибку")
	}
}

func TestQuickPreset(t *testing.T) {
	repo := newFakeJobRepo()
	now := time.Date(2025, 6, 1, 22, 15, 0, 0, time.UTC)
	svc := newTestService(repo, now)

	got, ok := svc.QuickPreset("30m")
	if !ok || !got.Equal(now.Add(30*time.Minute)) {
		t.Fatalf("пресет 30m: %v %v", got, ok)
	}

	got, ok = svc.QuickPreset("tomorrow")
	if !ok {
		t.Fatalf("пресет tomorrow должен существовать")
	}
	want := time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("завтра 09:00: ожидали %v, получили %v", want, got)
	}

	if _, ok := svc.QuickPreset("manual"); ok {
		t.Fatalf("ручной ввод не является пресетом")
	}
}
