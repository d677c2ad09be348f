package domain

import "time"

// Button описывает одну inline-кнопку поста. Порядок кнопок значим.
type Button struct {
	Label string `json:"text"`
	URL   string `json:"url"`
}

// Job — запланированная публикация. Существует от создания до успешной
// отправки в канал (после которой строка удаляется) либо до отмены админом.
type Job struct {
	ID        string
	ChannelID string
	Text      string
	Buttons   []Button
	PhotoRef  string
	RunAt     time.Time
	CreatedBy int64
	CreatedAt time.Time
}

// Post — публикация, уже отправленная ботом в канал.
// TextMessageID заполнен только для формы «фото + текст отдельным сообщением».
type Post struct {
	ID            string
	ChannelID     string
	MainMessageID int64
	TextMessageID int64
	Text          string
	Buttons       []Button
	PhotoRef      string
	CreatedBy     int64
	CreatedAt     time.Time
}

// Split сообщает, была ли публикация отправлена в раздельной форме.
func (p Post) Split() bool { return p.TextMessageID != 0 }

// PostContent — редактируемые поля публикации или отложки.
type PostContent struct {
	Text     string
	Buttons  []Button
	PhotoRef string
	Split    bool
}

// Admin — строка таблицы админов.
type Admin struct {
	UserID   int64
	Username string
	Name     string
}

// DraftMode определяет, что собирает черновик: новый пост или правку.
type DraftMode string

const (
	DraftModeNew      DraftMode = "new"
	DraftModeEditJob  DraftMode = "edit_job"
	DraftModeEditPost DraftMode = "edit_post"
)

// DraftStep — текущий шаг диалога составления черновика.
type DraftStep string

const (
	StepText          DraftStep = "text"
	StepButtons       DraftStep = "buttons"
	StepPhoto         DraftStep = "photo"
	StepCaptionChoice DraftStep = "caption_choice"
	StepPreview       DraftStep = "preview"
)

// Draft — черновик поста, принадлежащий одной сессии админа.
// Живёт только между началом диалога и терминальным действием.
type Draft struct {
	Mode     DraftMode `json:"mode"`
	Step     DraftStep `json:"step"`
	TargetID string    `json:"target_id,omitempty"`

	Text     string   `json:"text"`
	Buttons  []Button `json:"buttons,omitempty"`
	PhotoRef string   `json:"photo_ref,omitempty"`
	Split    bool     `json:"split"`

	// Ожидание ручного ввода даты: для черновика либо для переноса отложки.
	AwaitingRunAt bool   `json:"awaiting_run_at,omitempty"`
	RunAtFor      string `json:"run_at_for,omitempty"`
	MoveJobID     string `json:"move_job_id,omitempty"`
}
