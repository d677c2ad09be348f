package scheduler

import (
	"context"
	"errors"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"tg-post-bot/internal/domain"
	"tg-post-bot/internal/usecase/posting"
)

type fakeJobRepo struct {
	jobs     map[string]domain.Job
	vanishID string // задача, «отменённая» между выборкой и перечтением
}

func newFakeJobRepo() *fakeJobRepo {
	return &fakeJobRepo{jobs: map[string]domain.Job{}}
}

func (r *fakeJobRepo) Insert(_ context.Context, job domain.Job) error {
	r.jobs[job.ID] = job
	return nil
}

func (r *fakeJobRepo) GetByID(_ context.Context, id string) (domain.Job, error) {
	if id == r.vanishID {
		delete(r.jobs, id)
		return domain.Job{}, domain.ErrNotFound
	}
	job, ok := r.jobs[id]
	if !ok {
		return domain.Job{}, domain.ErrNotFound
	}
	return job, nil
}

func (r *fakeJobRepo) List(_ context.Context, _ int) ([]domain.Job, error) {
	return nil, nil
}

func (r *fakeJobRepo) ListDue(_ context.Context, now time.Time, limit int) ([]domain.Job, error) {
	var out []domain.Job
	for _, j := range r.jobs {
		if !j.RunAt.After(now) {
			out = append(out, j)
		}
	}
	sort.Slice(out, func(i, k int) bool { return out[i].RunAt.Before(out[k].RunAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *fakeJobRepo) UpdateContent(_ context.Context, _ string, _ domain.PostContent) (bool, error) {
	return false, nil
}

func (r *fakeJobRepo) UpdateRunAt(_ context.Context, _ string, _ time.Time) (bool, error) {
	return false, nil
}

func (r *fakeJobRepo) Delete(_ context.Context, id string) (bool, error) {
	if _, ok := r.jobs[id]; !ok {
		return false, nil
	}
	delete(r.jobs, id)
	return true, nil
}

type fakePublisher struct {
	published []posting.Publication
	failText  string // публикации с этим текстом падают
}

func (p *fakePublisher) PublishAndStore(_ context.Context, pub posting.Publication) (domain.Post, error) {
	if p.failText != "" && pub.Text == p.failText {
		return domain.Post{}, errors.New("канал недоступен")
	}
	p.published = append(p.published, pub)
	return domain.Post{ID: "post-" + pub.Text}, nil
}

func newTestLoop(repo *fakeJobRepo, pub *fakePublisher) *Loop {
	return NewLoop(repo, pub, zerolog.Nop(), time.Second, 10, 1024)
}

func dueJob(id, text string) domain.Job {
	return domain.Job{
		ID:        id,
		ChannelID: "@channel",
		Text:      text,
		RunAt:     time.Now().Add(-time.Minute).UTC(),
	}
}

func TestTickPublishesAndDeletesDueJob(t *testing.T) {
	repo := newFakeJobRepo()
	pub := &fakePublisher{}
	loop := newTestLoop(repo, pub)

	_ = repo.Insert(context.Background(), dueJob("j1", "Привет"))
	future := dueJob("j2", "рано")
	future.RunAt = time.Now().Add(time.Hour)
	_ = repo.Insert(context.Background(), future)

	loop.Tick(context.Background())

	if len(pub.published) != 1 || pub.published[0].Text != "Привет" {
		t.Fatalf("должна опубликоваться ровно одна созревшая задача: %+v", pub.published)
	}
	if _, ok := repo.jobs["j1"]; ok {
		t.Fatalf("опубликованная задача должна удалиться")
	}
	if _, ok := repo.jobs["j2"]; !ok {
		t.Fatalf("несозревшая задача должна остаться")
	}
}

func TestTickSkipsVanishedJob(t *testing.T) {
	repo := newFakeJobRepo()
	pub := &fakePublisher{}
	loop := newTestLoop(repo, pub)

	_ = repo.Insert(context.Background(), dueJob("j1", "отменят"))
	repo.vanishID = "j1"

	loop.Tick(context.Background())

	if len(pub.published) != 0 {
		t.Fatalf("отменённая задача не должна публиковаться")
	}
}

func TestTickKeepsJobOnPublishFailure(t *testing.T) {
	repo := newFakeJobRepo()
	pub := &fakePublisher{failText: "сломается"}
	loop := newTestLoop(repo, pub)

	_ = repo.Insert(context.Background(), dueJob("j1", "сломается"))

	loop.Tick(context.Background())

	if _, ok := repo.jobs["j1"]; !ok {
		t.Fatalf("неопубликованная задача должна остаться для ретрая")
	}

	// После починки канала задача уходит на следующем тике.
	pub.failText = ""
	loop.Tick(context.Background())
	if len(pub.published) != 1 {
		t.Fatalf("задача должна опубликоваться после восстановления")
	}
	if _, ok := repo.jobs["j1"]; ok {
		t.Fatalf("после успеха задача удаляется")
	}
}

func TestTickIsolatesFailuresWithinBatch(t *testing.T) {
	repo := newFakeJobRepo()
	pub := &fakePublisher{failText: "плохая"}
	loop := newTestLoop(repo, pub)

	bad := dueJob("j1", "плохая")
	bad.RunAt = time.Now().Add(-3 * time.Minute).UTC()
	_ = repo.Insert(context.Background(), bad)
	_ = repo.Insert(context.Background(), dueJob("j2", "хорошая"))

	loop.Tick(context.Background())

	if len(pub.published) != 1 || pub.published[0].Text != "хорошая" {
		t.Fatalf("ошибка одной задачи не должна останавливать пачку: %+v", pub.published)
	}
	if _, ok := repo.jobs["j1"]; !ok {
		t.Fatalf("упавшая задача остаётся")
	}
	if _, ok := repo.jobs["j2"]; ok {
		t.Fatalf("успешная задача удаляется")
	}
}

func TestTickAutoSplitsLongPhotoJob(t *testing.T) {
	repo := newFakeJobRepo()
	pub := &fakePublisher{}
	loop := newTestLoop(repo, pub)

	long := dueJob("j1", strings.Repeat("я", 2000))
	long.PhotoRef = "file123"
	_ = repo.Insert(context.Background(), long)

	short := dueJob("j2", "короткая подпись")
	short.PhotoRef = "file456"
	short.RunAt = time.Now().Add(-2 * time.Minute).UTC()
	_ = repo.Insert(context.Background(), short)

	loop.Tick(context.Background())

	if len(pub.published) != 2 {
		t.Fatalf("обе задачи должны опубликоваться, опубликовано %d", len(pub.published))
	}
	for _, p := range pub.published {
		longText := len([]rune(p.Text)) > 1024
		if p.Split != longText {
			t.Fatalf("split должен включаться только для длинного текста с фото: %+v", p.Split)
		}
	}
}

func TestTickRespectsBatchLimit(t *testing.T) {
	repo := newFakeJobRepo()
	pub := &fakePublisher{}
	loop := NewLoop(repo, pub, zerolog.Nop(), time.Second, 2, 1024)

	for i, id := range []string{"j1", "j2", "j3"} {
		job := dueJob(id, id)
		job.RunAt = time.Now().Add(-time.Duration(10-i) * time.Minute).UTC()
		_ = repo.Insert(context.Background(), job)
	}

	loop.Tick(context.Background())
	if len(pub.published) != 2 {
		t.Fatalf("за тик публикуется не больше размера пачки, опубликовано %d", len(pub.published))
	}

	loop.Tick(context.Background())
	if len(pub.published) != 3 {
		t.Fatalf("остаток пачки публикуется на следующем тике")
	}
}
