package repo

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"tg-post-bot/internal/domain"
	"tg-post-bot/internal/infra/metrics"
)

// Postgres объединяет репозитории на основе pgxpool.
type Postgres struct {
	Jobs   *Jobs
	Posts  *Posts
	Admins *Admins
}

var (
	_ domain.JobRepo   = (*Jobs)(nil)
	_ domain.PostRepo  = (*Posts)(nil)
	_ domain.AdminRepo = (*Admins)(nil)
)

// NewPostgres создаёт адаптер БД.
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{
		Jobs:   &Jobs{pool: pool},
		Posts:  &Posts{pool: pool},
		Admins: &Admins{pool: pool},
	}
}

func connCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		return context.WithTimeout(context.Background(), 5*time.Second)
	}
	if _, ok := ctx.Deadline(); ok {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, 5*time.Second)
}

// EnsureSchema создаёт таблицы, если их ещё нет.
func (p *Postgres) EnsureSchema(ctx context.Context) error {
	ctx, cancel := connCtx(ctx)
	defer cancel()

	statements := []struct {
		op  string
		sql string
	}{
		{"admins_create", `
CREATE TABLE IF NOT EXISTS admins (
    user_id  BIGINT PRIMARY KEY,
    username TEXT,
    name     TEXT
)`},
		{"jobs_create", `
CREATE TABLE IF NOT EXISTS jobs (
    id            TEXT PRIMARY KEY,
    channel_id    TEXT NOT NULL,
    text          TEXT NOT NULL,
    buttons_json  TEXT NOT NULL DEFAULT '[]',
    photo_file_id TEXT NOT NULL DEFAULT '',
    run_at        TIMESTAMPTZ NOT NULL,
    created_by    BIGINT NOT NULL,
    created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
)`},
		{"jobs_run_at_index", `CREATE INDEX IF NOT EXISTS jobs_run_at_idx ON jobs (run_at)`},
		{"posts_create", `
CREATE TABLE IF NOT EXISTS posts (
    id            TEXT PRIMARY KEY,
    channel_id    TEXT NOT NULL,
    message_id    BIGINT NOT NULL,
    text_msg_id   BIGINT,
    text          TEXT NOT NULL,
    buttons_json  TEXT NOT NULL DEFAULT '[]',
    photo_file_id TEXT NOT NULL DEFAULT '',
    created_by    BIGINT NOT NULL,
    created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
)`},
	}
	for _, st := range statements {
		start := time.Now()
		_, err := p.Jobs.pool.Exec(ctx, st.sql)
		metrics.ObserveNetworkRequest("postgres", st.op, "schema", start, err)
		if err != nil {
			return fmt.Errorf("создание схемы (%s): %w", st.op, err)
		}
	}
	return nil
}

func marshalButtons(buttons []domain.Button) (string, error) {
	if len(buttons) == 0 {
		return "[]", nil
	}
	data, err := json.Marshal(buttons)
	if err != nil {
		return "", fmt.Errorf("сериализация кнопок: %w", err)
	}
	return string(data), nil
}

func unmarshalButtons(raw string) ([]domain.Button, error) {
	if raw == "" || raw == "[]" {
		return nil, nil
	}
	var buttons []domain.Button
	if err := json.Unmarshal([]byte(raw), &buttons); err != nil {
		return nil, fmt.Errorf("разбор кнопок: %w", err)
	}
	return buttons, nil
}

// Jobs — репозиторий отложенных публикаций.
type Jobs struct {
	pool *pgxpool.Pool
}

const jobColumns = `id, channel_id, text, buttons_json, photo_file_id, run_at, created_by, created_at`

func scanJob(row pgx.Row) (domain.Job, error) {
	var (
		job     domain.Job
		buttons string
	)
	err := row.Scan(&job.ID, &job.ChannelID, &job.Text, &buttons, &job.PhotoRef, &job.RunAt, &job.CreatedBy, &job.CreatedAt)
	if err != nil {
		return domain.Job{}, err
	}
	job.Buttons, err = unmarshalButtons(buttons)
	return job, err
}

// Insert сохраняет отложенную публикацию.
func (r *Jobs) Insert(ctx context.Context, job domain.Job) error {
	ctx, cancel := connCtx(ctx)
	defer cancel()

	buttons, err := marshalButtons(job.Buttons)
	if err != nil {
		return err
	}

	start := time.Now()
	_, err = r.pool.Exec(ctx, `
INSERT INTO jobs (id, channel_id, text, buttons_json, photo_file_id, run_at, created_by, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
`, job.ID, job.ChannelID, job.Text, buttons, job.PhotoRef, job.RunAt, job.CreatedBy, job.CreatedAt)
	metrics.ObserveNetworkRequest("postgres", "jobs_insert", "jobs", start, err)
	return err
}

// GetByID возвращает отложку по идентификатору.
func (r *Jobs) GetByID(ctx context.Context, id string) (domain.Job, error) {
	ctx, cancel := connCtx(ctx)
	defer cancel()

	start := time.Now()
	row := r.pool.QueryRow(ctx, `SELECT `+jobColumns+` FROM jobs WHERE id=$1`, id)
	job, err := scanJob(row)
	metrics.ObserveNetworkRequest("postgres", "jobs_get_by_id", "jobs", start, err)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Job{}, domain.ErrNotFound
	}
	return job, err
}

// List возвращает ближайшие отложки по возрастанию run_at.
func (r *Jobs) List(ctx context.Context, limit int) ([]domain.Job, error) {
	ctx, cancel := connCtx(ctx)
	defer cancel()

	start := time.Now()
	rows, err := r.pool.Query(ctx, `
SELECT `+jobColumns+` FROM jobs ORDER BY run_at ASC LIMIT $1
`, limit)
	metrics.ObserveNetworkRequest("postgres", "jobs_list", "jobs", start, err)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectJobs(rows)
}

// ListDue возвращает созревшие отложки по возрастанию run_at.
func (r *Jobs) ListDue(ctx context.Context, now time.Time, limit int) ([]domain.Job, error) {
	ctx, cancel := connCtx(ctx)
	defer cancel()

	start := time.Now()
	rows, err := r.pool.Query(ctx, `
SELECT `+jobColumns+` FROM jobs WHERE run_at <= $1 ORDER BY run_at ASC LIMIT $2
`, now, limit)
	metrics.ObserveNetworkRequest("postgres", "jobs_list_due", "jobs", start, err)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectJobs(rows)
}

func collectJobs(rows pgx.Rows) ([]domain.Job, error) {
	var jobs []domain.Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}

// UpdateContent меняет контент отложки, не трогая run_at.
func (r *Jobs) UpdateContent(ctx context.Context, id string, content domain.PostContent) (bool, error) {
	ctx, cancel := connCtx(ctx)
	defer cancel()

	buttons, err := marshalButtons(content.Buttons)
	if err != nil {
		return false, err
	}

	start := time.Now()
	res, err := r.pool.Exec(ctx, `
UPDATE jobs SET text=$2, buttons_json=$3, photo_file_id=$4 WHERE id=$1
`, id, content.Text, buttons, content.PhotoRef)
	metrics.ObserveNetworkRequest("postgres", "jobs_update_content", "jobs", start, err)
	if err != nil {
		return false, err
	}
	return res.RowsAffected() > 0, nil
}

// UpdateRunAt переносит отложку на новое время.
func (r *Jobs) UpdateRunAt(ctx context.Context, id string, runAt time.Time) (bool, error) {
	ctx, cancel := connCtx(ctx)
	defer cancel()

	start := time.Now()
	res, err := r.pool.Exec(ctx, `UPDATE jobs SET run_at=$2 WHERE id=$1`, id, runAt)
	metrics.ObserveNetworkRequest("postgres", "jobs_update_run_at", "jobs", start, err)
	if err != nil {
		return false, err
	}
	return res.RowsAffected() > 0, nil
}

// Delete удаляет отложку. false — строку уже забрал кто-то другой.
func (r *Jobs) Delete(ctx context.Context, id string) (bool, error) {
	ctx, cancel := connCtx(ctx)
	defer cancel()

	start := time.Now()
	res, err := r.pool.Exec(ctx, `DELETE FROM jobs WHERE id=$1`, id)
	metrics.ObserveNetworkRequest("postgres", "jobs_delete", "jobs", start, err)
	if err != nil {
		return false, err
	}
	return res.RowsAffected() > 0, nil
}

// Posts — репозиторий опубликованных постов.
type Posts struct {
	pool *pgxpool.Pool
}

const postColumns = `id, channel_id, message_id, text_msg_id, text, buttons_json, photo_file_id, created_by, created_at`

func scanPost(row pgx.Row) (domain.Post, error) {
	var (
		post      domain.Post
		textMsgID sql.NullInt64
		buttons   string
	)
	err := row.Scan(&post.ID, &post.ChannelID, &post.MainMessageID, &textMsgID, &post.Text, &buttons, &post.PhotoRef, &post.CreatedBy, &post.CreatedAt)
	if err != nil {
		return domain.Post{}, err
	}
	if textMsgID.Valid {
		post.TextMessageID = textMsgID.Int64
	}
	post.Buttons, err = unmarshalButtons(buttons)
	return post, err
}

func nullMessageID(id int64) sql.NullInt64 {
	if id == 0 {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: id, Valid: true}
}

// Insert сохраняет опубликованный пост.
func (r *Posts) Insert(ctx context.Context, post domain.Post) error {
	ctx, cancel := connCtx(ctx)
	defer cancel()

	buttons, err := marshalButtons(post.Buttons)
	if err != nil {
		return err
	}

	start := time.Now()
	_, err = r.pool.Exec(ctx, `
INSERT INTO posts (id, channel_id, message_id, text_msg_id, text, buttons_json, photo_file_id, created_by, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
`, post.ID, post.ChannelID, post.MainMessageID, nullMessageID(post.TextMessageID), post.Text, buttons, post.PhotoRef, post.CreatedBy, post.CreatedAt)
	metrics.ObserveNetworkRequest("postgres", "posts_insert", "posts", start, err)
	return err
}

// GetByID возвращает пост по идентификатору.
func (r *Posts) GetByID(ctx context.Context, id string) (domain.Post, error) {
	ctx, cancel := connCtx(ctx)
	defer cancel()

	start := time.Now()
	row := r.pool.QueryRow(ctx, `SELECT `+postColumns+` FROM posts WHERE id=$1`, id)
	post, err := scanPost(row)
	metrics.ObserveNetworkRequest("postgres", "posts_get_by_id", "posts", start, err)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Post{}, domain.ErrNotFound
	}
	return post, err
}

// ListRecent возвращает последние посты, новые первыми.
func (r *Posts) ListRecent(ctx context.Context, limit int) ([]domain.Post, error) {
	ctx, cancel := connCtx(ctx)
	defer cancel()

	start := time.Now()
	rows, err := r.pool.Query(ctx, `
SELECT `+postColumns+` FROM posts ORDER BY created_at DESC LIMIT $1
`, limit)
	metrics.ObserveNetworkRequest("postgres", "posts_list_recent", "posts", start, err)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var posts []domain.Post
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		posts = append(posts, post)
	}
	return posts, rows.Err()
}

// UpdateContent меняет контент поста, оставляя идентификаторы сообщений.
func (r *Posts) UpdateContent(ctx context.Context, id string, content domain.PostContent) (bool, error) {
	ctx, cancel := connCtx(ctx)
	defer cancel()

	buttons, err := marshalButtons(content.Buttons)
	if err != nil {
		return false, err
	}

	start := time.Now()
	res, err := r.pool.Exec(ctx, `
UPDATE posts SET text=$2, buttons_json=$3, photo_file_id=$4 WHERE id=$1
`, id, content.Text, buttons, content.PhotoRef)
	metrics.ObserveNetworkRequest("postgres", "posts_update_content", "posts", start, err)
	if err != nil {
		return false, err
	}
	return res.RowsAffected() > 0, nil
}

// UpdateMessages перезаписывает контент и идентификаторы сообщений поста.
func (r *Posts) UpdateMessages(ctx context.Context, id string, mainMessageID, textMessageID int64, content domain.PostContent) (bool, error) {
	ctx, cancel := connCtx(ctx)
	defer cancel()

	buttons, err := marshalButtons(content.Buttons)
	if err != nil {
		return false, err
	}

	start := time.Now()
	res, err := r.pool.Exec(ctx, `
UPDATE posts SET message_id=$2, text_msg_id=$3, text=$4, buttons_json=$5, photo_file_id=$6 WHERE id=$1
`, id, mainMessageID, nullMessageID(textMessageID), content.Text, buttons, content.PhotoRef)
	metrics.ObserveNetworkRequest("postgres", "posts_update_messages", "posts", start, err)
	if err != nil {
		return false, err
	}
	return res.RowsAffected() > 0, nil
}

// Delete удаляет строку поста.
func (r *Posts) Delete(ctx context.Context, id string) (bool, error) {
	ctx, cancel := connCtx(ctx)
	defer cancel()

	start := time.Now()
	res, err := r.pool.Exec(ctx, `DELETE FROM posts WHERE id=$1`, id)
	metrics.ObserveNetworkRequest("postgres", "posts_delete", "posts", start, err)
	if err != nil {
		return false, err
	}
	return res.RowsAffected() > 0, nil
}

// Admins — репозиторий админов.
type Admins struct {
	pool *pgxpool.Pool
}

// IsAdmin проверяет наличие пользователя в таблице админов.
func (r *Admins) IsAdmin(ctx context.Context, userID int64) (bool, error) {
	ctx, cancel := connCtx(ctx)
	defer cancel()

	var exists bool
	start := time.Now()
	err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM admins WHERE user_id=$1)`, userID).Scan(&exists)
	metrics.ObserveNetworkRequest("postgres", "admins_is_admin", "admins", start, err)
	return exists, err
}

// List возвращает всех админов.
func (r *Admins) List(ctx context.Context) ([]domain.Admin, error) {
	ctx, cancel := connCtx(ctx)
	defer cancel()

	start := time.Now()
	rows, err := r.pool.Query(ctx, `SELECT user_id, username, name FROM admins ORDER BY user_id`)
	metrics.ObserveNetworkRequest("postgres", "admins_list", "admins", start, err)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var admins []domain.Admin
	for rows.Next() {
		var (
			a        domain.Admin
			username sql.NullString
			name     sql.NullString
		)
		if err := rows.Scan(&a.UserID, &username, &name); err != nil {
			return nil, err
		}
		if username.Valid {
			a.Username = username.String
		}
		if name.Valid {
			a.Name = name.String
		}
		admins = append(admins, a)
	}
	return admins, rows.Err()
}

// Upsert добавляет админа или обновляет его имя.
func (r *Admins) Upsert(ctx context.Context, admin domain.Admin) error {
	ctx, cancel := connCtx(ctx)
	defer cancel()

	start := time.Now()
	_, err := r.pool.Exec(ctx, `
INSERT INTO admins (user_id, username, name)
VALUES ($1, NULLIF($2,''), NULLIF($3,''))
ON CONFLICT (user_id) DO UPDATE SET username = COALESCE(EXCLUDED.username, admins.username), name = COALESCE(EXCLUDED.name, admins.name)
`, admin.UserID, admin.Username, admin.Name)
	metrics.ObserveNetworkRequest("postgres", "admins_upsert", "admins", start, err)
	return err
}

// Delete убирает пользователя из админов.
func (r *Admins) Delete(ctx context.Context, userID int64) (bool, error) {
	ctx, cancel := connCtx(ctx)
	defer cancel()

	start := time.Now()
	res, err := r.pool.Exec(ctx, `DELETE FROM admins WHERE user_id=$1`, userID)
	metrics.ObserveNetworkRequest("postgres", "admins_delete", "admins", start, err)
	if err != nil {
		return false, err
	}
	return res.RowsAffected() > 0, nil
}
