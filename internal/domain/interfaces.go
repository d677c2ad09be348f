package domain

import (
	"context"
	"time"
)

// JobRepo управляет отложенными публикациями.
type JobRepo interface {
	Insert(ctx context.Context, job Job) error
	GetByID(ctx context.Context, id string) (Job, error)
	List(ctx context.Context, limit int) ([]Job, error)
	// ListDue возвращает задачи с run_at <= now по возрастанию run_at.
	ListDue(ctx context.Context, now time.Time, limit int) ([]Job, error)
	// UpdateContent меняет контент, не трогая run_at. false — строки нет.
	UpdateContent(ctx context.Context, id string, content PostContent) (bool, error)
	UpdateRunAt(ctx context.Context, id string, runAt time.Time) (bool, error)
	Delete(ctx context.Context, id string) (bool, error)
}

// PostRepo управляет опубликованными постами.
type PostRepo interface {
	Insert(ctx context.Context, post Post) error
	GetByID(ctx context.Context, id string) (Post, error)
	ListRecent(ctx context.Context, limit int) ([]Post, error)
	// UpdateContent меняет контентные поля, оставляя идентификаторы сообщений.
	UpdateContent(ctx context.Context, id string, content PostContent) (bool, error)
	// UpdateMessages перезаписывает и контент, и идентификаторы сообщений
	// (путь полной перепубликации).
	UpdateMessages(ctx context.Context, id string, mainMessageID, textMessageID int64, content PostContent) (bool, error)
	Delete(ctx context.Context, id string) (bool, error)
}

// AdminRepo хранит список админов.
type AdminRepo interface {
	IsAdmin(ctx context.Context, userID int64) (bool, error)
	List(ctx context.Context) ([]Admin, error)
	Upsert(ctx context.Context, admin Admin) error
	Delete(ctx context.Context, userID int64) (bool, error)
}

// ChannelPublisher — узкий интерфейс отправки в канал.
// DeleteMessage вызывающая сторона трактует как best-effort:
// сообщение могло быть уже удалено руками.
type ChannelPublisher interface {
	SendText(ctx context.Context, channelID, text string, buttons []Button) (int64, error)
	SendPhoto(ctx context.Context, channelID, photoRef, caption string, buttons []Button) (int64, error)
	EditText(ctx context.Context, channelID string, messageID int64, text string, buttons []Button) error
	EditCaption(ctx context.Context, channelID string, messageID int64, caption string, buttons []Button) error
	DeleteMessage(ctx context.Context, channelID string, messageID int64) error
}

// DraftStore хранит черновики по идентификатору пользователя.
type DraftStore interface {
	Get(ctx context.Context, userID int64) (Draft, bool, error)
	Put(ctx context.Context, userID int64, draft Draft) error
	Delete(ctx context.Context, userID int64) error
}

// AuthGate проверяет право пользователя на мутирующие операции.
type AuthGate interface {
	IsAuthorized(ctx context.Context, userID int64) (bool, error)
}
