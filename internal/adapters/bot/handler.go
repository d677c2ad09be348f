package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"tg-post-bot/internal/domain"
	"tg-post-bot/internal/infra/metrics"
	"tg-post-bot/internal/usecase/posting"
	"tg-post-bot/internal/usecase/render"
	"tg-post-bot/internal/usecase/schedule"
)

const (
	jobsListLimit  = 20
	postsListLimit = 10

	keepWord   = "оставить"
	removeWord = "убрать"
)

// API — часть Bot API, нужная обработчику. Сужена ради тестов.
type API interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// PostingService — операции над опубликованными постами.
type PostingService interface {
	PublishAndStore(ctx context.Context, pub posting.Publication) (domain.Post, error)
	ApplyPostEdit(ctx context.Context, postID string, content domain.PostContent) (domain.Post, error)
	Delete(ctx context.Context, postID string) error
}

// ScheduleService — операции над отложенными публикациями.
type ScheduleService interface {
	Schedule(ctx context.Context, req schedule.Request) (domain.Job, error)
	Reschedule(ctx context.Context, jobID string, runAt time.Time) error
	ApplyJobEdit(ctx context.Context, jobID string, content domain.PostContent) error
	Cancel(ctx context.Context, jobID string) error
	Get(ctx context.Context, jobID string) (domain.Job, error)
	List(ctx context.Context, limit int) ([]domain.Job, error)
	ParseRunAt(raw string) (time.Time, error)
	QuickPreset(code string) (time.Time, bool)
}

// Gate — проверка прав на операции бота.
type Gate interface {
	IsAuthorized(ctx context.Context, userID int64) (bool, error)
	IsOwner(userID int64) bool
}

// Handler ведёт диалоги с админами: составление, правка и планирование постов.
type Handler struct {
	api          API
	drafts       domain.DraftStore
	gate         Gate
	posting      PostingService
	schedule     ScheduleService
	posts        domain.PostRepo
	admins       domain.AdminRepo
	log          zerolog.Logger
	channelID    string
	captionLimit int
	loc          *time.Location
}

// NewHandler создаёт обработчик апдейтов.
func NewHandler(
	api API,
	drafts domain.DraftStore,
	gate Gate,
	postingSvc PostingService,
	scheduleSvc ScheduleService,
	posts domain.PostRepo,
	admins domain.AdminRepo,
	log zerolog.Logger,
	channelID string,
	captionLimit int,
	loc *time.Location,
) *Handler {
	return &Handler{
		api:          api,
		drafts:       drafts,
		gate:         gate,
		posting:      postingSvc,
		schedule:     scheduleSvc,
		posts:        posts,
		admins:       admins,
		log:          log,
		channelID:    channelID,
		captionLimit: captionLimit,
		loc:          loc,
	}
}

// HandleUpdate обрабатывает один апдейт Bot API.
func (h *Handler) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	switch {
	case update.Message != nil:
		h.handleMessage(ctx, update.Message)
	case update.CallbackQuery != nil:
		h.handleCallback(ctx, update.CallbackQuery)
	}
}

func (h *Handler) reply(chatID int64, text string) {
	h.send(tgbotapi.NewMessage(chatID, text))
}

func (h *Handler) send(c tgbotapi.Chattable) {
	start := time.Now()
	_, err := h.api.Send(c)
	metrics.ObserveNetworkRequest("telegram", "send_message", "admin_chat", start, err)
	if err != nil {
		h.log.Error().Err(err).Msg("не удалось отправить сообщение админу")
	}
}

func (h *Handler) answerCallback(cb *tgbotapi.CallbackQuery, text string) {
	start := time.Now()
	_, err := h.api.Request(tgbotapi.NewCallback(cb.ID, text))
	metrics.ObserveNetworkRequest("telegram", "answer_callback", "admin_chat", start, err)
	if err != nil {
		h.log.Debug().Err(err).Msg("не удалось ответить на callback")
	}
}

func (h *Handler) authorized(ctx context.Context, userID int64) bool {
	ok, err := h.gate.IsAuthorized(ctx, userID)
	if err != nil {
		h.log.Error().Err(err).Int64("user", userID).Msg("проверка доступа не удалась")
		return false
	}
	return ok
}

func (h *Handler) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg.From == nil {
		return
	}
	userID := msg.From.ID
	chatID := msg.Chat.ID

	if msg.Command() == "myid" || msg.Text == "🆔 Мой ID" {
		h.reply(chatID, fmt.Sprintf("Ваш ID: %d", userID))
		return
	}
	if !h.authorized(ctx, userID) {
		h.reply(chatID, fmt.Sprintf("Нет доступа. Ваш ID: %d — передайте его владельцу бота.", userID))
		return
	}

	switch msg.Command() {
	case "start", "menu":
		out := tgbotapi.NewMessage(chatID, "Панель управления каналом. Выберите действие:")
		out.ReplyMarkup = menuKeyboard()
		h.send(out)
		return
	case "help":
		h.reply(chatID, helpText)
		return
	case "cancel":
		if err := h.drafts.Delete(ctx, userID); err != nil {
			h.log.Error().Err(err).Msg("не удалось удалить черновик")
		}
		h.reply(chatID, "Действие отменено.")
		return
	case "newpost":
		h.startNewDraft(ctx, userID, chatID)
		return
	case "jobs":
		h.listJobs(ctx, chatID)
		return
	case "posts":
		h.listPosts(ctx, chatID)
		return
	case "admins":
		h.listAdmins(ctx, chatID)
		return
	case "addadmin":
		h.addAdmin(ctx, userID, chatID, msg.CommandArguments())
		return
	case "deladmin":
		h.delAdmin(ctx, userID, chatID, msg.CommandArguments())
		return
	}

	switch msg.Text {
	case "📝 Новый пост":
		h.startNewDraft(ctx, userID, chatID)
		return
	case "🗓 Отложенные":
		h.listJobs(ctx, chatID)
		return
	case "📚 Опубликованные":
		h.listPosts(ctx, chatID)
		return
	case "❓ Помощь":
		h.reply(chatID, helpText)
		return
	}

	h.handleDialogInput(ctx, userID, chatID, msg)
}

const helpText = `Команды:
/newpost — составить пост
/jobs — отложенные публикации
/posts — последние опубликованные
/admins — список админов
/addadmin <id> [имя] — добавить админа (только владелец)
/deladmin <id> — убрать админа (только владелец)
/cancel — прервать текущее действие
/myid — узнать свой ID`

func (h *Handler) startNewDraft(ctx context.Context, userID, chatID int64) {
	draft := domain.Draft{Mode: domain.DraftModeNew, Step: domain.StepText}
	if err := h.drafts.Put(ctx, userID, draft); err != nil {
		h.log.Error().Err(err).Msg("не удалось сохранить черновик")
		h.reply(chatID, "Что-то пошло не так, попробуйте ещё раз.")
		return
	}
	h.reply(chatID, "Пришлите текст поста.")
}

// handleDialogInput обрабатывает свободный ввод по текущему шагу черновика.
func (h *Handler) handleDialogInput(ctx context.Context, userID, chatID int64, msg *tgbotapi.Message) {
	draft, ok, err := h.drafts.Get(ctx, userID)
	if err != nil {
		h.log.Error().Err(err).Msg("не удалось прочитать черновик")
		return
	}
	if !ok {
		h.reply(chatID, "Не понимаю. Наберите /menu для списка действий.")
		return
	}

	if draft.AwaitingRunAt {
		h.handleRunAtInput(ctx, userID, chatID, draft, msg.Text)
		return
	}

	switch draft.Step {
	case domain.StepText:
		text := strings.TrimSpace(msg.Text)
		if text == "" {
			h.reply(chatID, "Текст поста пуст. Пришлите текст.")
			return
		}
		draft.Text = text
		draft.Step = domain.StepButtons
		h.putDraft(ctx, userID, chatID, draft)
		h.reply(chatID, "Теперь кнопки: по одной на строку в формате «Название - https://ссылка». Если кнопки не нужны, напишите «нет».")
	case domain.StepButtons:
		buttons, err := ParseButtons(msg.Text)
		if err != nil {
			h.reply(chatID, "Не получилось разобрать кнопки: "+err.Error())
			return
		}
		draft.Buttons = buttons
		draft.Step = domain.StepPhoto
		h.putDraft(ctx, userID, chatID, draft)
		if draft.Mode == domain.DraftModeNew {
			h.reply(chatID, "Пришлите фото или напишите «нет».")
		} else {
			h.reply(chatID, "Пришлите новое фото, напишите «оставить», чтобы сохранить текущее, или «убрать», чтобы публиковать без фото.")
		}
	case domain.StepPhoto:
		h.handlePhotoStep(ctx, userID, chatID, draft, msg)
	default:
		h.reply(chatID, "Черновик ждёт действия на клавиатуре под предпросмотром.")
	}
}

func (h *Handler) handlePhotoStep(ctx context.Context, userID, chatID int64, draft domain.Draft, msg *tgbotapi.Message) {
	text := strings.ToLower(strings.TrimSpace(msg.Text))
	switch {
	case len(msg.Photo) > 0:
		// Последний размер — самый крупный.
		draft.PhotoRef = msg.Photo[len(msg.Photo)-1].FileID
	case msg.Document != nil && strings.HasPrefix(msg.Document.MimeType, "image/"):
		draft.PhotoRef = msg.Document.FileID
	case text == skipWord || (draft.Mode == domain.DraftModeNew && text == removeWord):
		draft.PhotoRef = ""
	case draft.Mode != domain.DraftModeNew && text == keepWord:
		// PhotoRef уже заполнен из редактируемой записи.
	case draft.Mode != domain.DraftModeNew && text == removeWord:
		draft.PhotoRef = ""
	default:
		h.reply(chatID, "Нужно фото, «нет», «оставить» или «убрать».")
		return
	}

	draft.Split = false
	if draft.PhotoRef != "" && len([]rune(draft.Text)) > h.captionLimit {
		draft.Step = domain.StepCaptionChoice
		h.putDraft(ctx, userID, chatID, draft)
		out := tgbotapi.NewMessage(chatID, "Текст длиннее лимита подписи к фото. Как публикуем?")
		out.ReplyMarkup = longPhotoKeyboard()
		h.send(out)
		return
	}

	draft.Step = domain.StepPreview
	h.putDraft(ctx, userID, chatID, draft)
	h.sendPreview(ctx, chatID, draft)
}

func (h *Handler) putDraft(ctx context.Context, userID, chatID int64, draft domain.Draft) {
	if err := h.drafts.Put(ctx, userID, draft); err != nil {
		h.log.Error().Err(err).Msg("не удалось сохранить черновик")
		h.reply(chatID, "Что-то пошло не так, наберите /cancel и начните заново.")
	}
}

// sendPreview показывает пост так, как он будет выглядеть в канале,
// и клавиатуру с действиями.
func (h *Handler) sendPreview(ctx context.Context, chatID int64, draft domain.Draft) {
	plan, err := render.Build(draft.Text, draft.Buttons, draft.PhotoRef, draft.Split, h.captionLimit)
	if err != nil {
		h.log.Error().Err(err).Msg("предпросмотр не построился")
		h.reply(chatID, "Не удалось построить предпросмотр: "+err.Error())
		return
	}
	for _, spec := range plan.Messages {
		if spec.PhotoRef != "" {
			out := tgbotapi.NewPhoto(chatID, tgbotapi.FileID(spec.PhotoRef))
			out.Caption = spec.Text
			if markup := draftMarkup(spec.Buttons); markup != nil {
				out.ReplyMarkup = markup
			}
			h.send(out)
		} else {
			out := tgbotapi.NewMessage(chatID, spec.Text)
			if markup := draftMarkup(spec.Buttons); markup != nil {
				out.ReplyMarkup = markup
			}
			h.send(out)
		}
	}

	actions := tgbotapi.NewMessage(chatID, "Предпросмотр выше. Что делаем?")
	switch draft.Mode {
	case domain.DraftModeEditJob:
		actions.ReplyMarkup = editPreviewKeyboard("job:apply_edit:" + draft.TargetID)
	case domain.DraftModeEditPost:
		actions.ReplyMarkup = editPreviewKeyboard("post:apply_edit:" + draft.TargetID)
	default:
		actions.ReplyMarkup = previewKeyboard()
	}
	h.send(actions)
}

func (h *Handler) handleRunAtInput(ctx context.Context, userID, chatID int64, draft domain.Draft, raw string) {
	runAt, err := h.schedule.ParseRunAt(raw)
	if err != nil {
		h.reply(chatID, "Не понимаю дату. Формат: ДД.ММ.ГГГГ ЧЧ:ММ, например 07.06.2025 18:30.")
		return
	}
	switch draft.RunAtFor {
	case "move":
		h.finishMove(ctx, userID, chatID, draft.MoveJobID, runAt)
	default:
		h.finishSchedule(ctx, userID, chatID, draft, runAt)
	}
}

func (h *Handler) finishSchedule(ctx context.Context, userID, chatID int64, draft domain.Draft, runAt time.Time) {
	job, err := h.schedule.Schedule(ctx, schedule.Request{
		ChannelID: h.channelID,
		Text:      draft.Text,
		Buttons:   draft.Buttons,
		PhotoRef:  draft.PhotoRef,
		RunAt:     runAt,
		CreatedBy: userID,
	})
	if err != nil {
		if errors.Is(err, domain.ErrRunAtTooSoon) {
			h.reply(chatID, "Это время уже почти наступило. Выберите момент попозже или опубликуйте сразу.")
			return
		}
		h.log.Error().Err(err).Msg("постановка отложки не удалась")
		h.reply(chatID, "Не удалось запланировать пост, попробуйте ещё раз.")
		return
	}
	if err := h.drafts.Delete(ctx, userID); err != nil {
		h.log.Error().Err(err).Msg("не удалось удалить черновик")
	}
	h.reply(chatID, "Пост запланирован на "+h.formatTime(job.RunAt)+".")
}

func (h *Handler) finishMove(ctx context.Context, userID, chatID int64, jobID string, runAt time.Time) {
	err := h.schedule.Reschedule(ctx, jobID, runAt)
	switch {
	case errors.Is(err, domain.ErrRunAtTooSoon):
		h.reply(chatID, "Это время уже почти наступило. Выберите момент попозже.")
		return
	case errors.Is(err, domain.ErrNotFound):
		h.reply(chatID, "Отложка уже опубликована или удалена.")
	case err != nil:
		h.log.Error().Err(err).Msg("перенос отложки не удался")
		h.reply(chatID, "Не удалось перенести публикацию.")
		return
	default:
		h.reply(chatID, "Публикация перенесена на "+h.formatTime(runAt)+".")
	}
	if err := h.drafts.Delete(ctx, userID); err != nil {
		h.log.Error().Err(err).Msg("не удалось удалить черновик")
	}
}

func (h *Handler) formatTime(t time.Time) string {
	return t.In(h.loc).Format(schedule.RunAtLayout)
}

func (h *Handler) listJobs(ctx context.Context, chatID int64) {
	jobs, err := h.schedule.List(ctx, jobsListLimit)
	if err != nil {
		h.log.Error().Err(err).Msg("список отложек не прочитался")
		h.reply(chatID, "Не удалось получить список отложек.")
		return
	}
	if len(jobs) == 0 {
		h.reply(chatID, "Отложенных публикаций нет.")
		return
	}
	for i, job := range jobs {
		summary := fmt.Sprintf("%d. %s — %s", i+1, h.formatTime(job.RunAt), snippet(job.Text))
		if job.PhotoRef != "" {
			summary += " 📷"
		}
		out := tgbotapi.NewMessage(chatID, summary)
		out.ReplyMarkup = jobKeyboard(job.ID)
		h.send(out)
	}
}

func (h *Handler) listPosts(ctx context.Context, chatID int64) {
	posts, err := h.posts.ListRecent(ctx, postsListLimit)
	if err != nil {
		h.log.Error().Err(err).Msg("список постов не прочитался")
		h.reply(chatID, "Не удалось получить список постов.")
		return
	}
	if len(posts) == 0 {
		h.reply(chatID, "Опубликованных постов пока нет.")
		return
	}
	for i, post := range posts {
		summary := fmt.Sprintf("%d. %s — %s", i+1, h.formatTime(post.CreatedAt), snippet(post.Text))
		if post.PhotoRef != "" {
			summary += " 📷"
		}
		out := tgbotapi.NewMessage(chatID, summary)
		out.ReplyMarkup = postKeyboard(post.ID)
		h.send(out)
	}
}

func snippet(text string) string {
	runes := []rune(strings.ReplaceAll(text, "\n", " "))
	if len(runes) <= 60 {
		return string(runes)
	}
	return string(runes[:59]) + "…"
}

func (h *Handler) listAdmins(ctx context.Context, chatID int64) {
	admins, err := h.admins.List(ctx)
	if err != nil {
		h.log.Error().Err(err).Msg("список админов не прочитался")
		h.reply(chatID, "Не удалось получить список админов.")
		return
	}
	var b strings.Builder
	b.WriteString("Админы:\n")
	for _, a := range admins {
		b.WriteString(strconv.FormatInt(a.UserID, 10))
		if a.Username != "" {
			b.WriteString(" @" + a.Username)
		}
		if a.Name != "" {
			b.WriteString(" (" + a.Name + ")")
		}
		b.WriteString("\n")
	}
	h.reply(chatID, b.String())
}

func (h *Handler) addAdmin(ctx context.Context, userID, chatID int64, args string) {
	if !h.gate.IsOwner(userID) {
		h.reply(chatID, "Управлять админами может только владелец.")
		return
	}
	fields := strings.Fields(args)
	if len(fields) == 0 {
		h.reply(chatID, "Формат: /addadmin <id> [имя]")
		return
	}
	id, err := strconv.ParseInt(fields[0], 10, 64)
	if err != nil {
		h.reply(chatID, "ID должен быть числом. Пользователь может узнать его командой /myid.")
		return
	}
	name := strings.Join(fields[1:], " ")
	if err := h.admins.Upsert(ctx, domain.Admin{UserID: id, Name: name}); err != nil {
		h.log.Error().Err(err).Msg("добавление админа не удалось")
		h.reply(chatID, "Не удалось добавить админа.")
		return
	}
	h.reply(chatID, fmt.Sprintf("Пользователь %d теперь админ.", id))
}

func (h *Handler) delAdmin(ctx context.Context, userID, chatID int64, args string) {
	if !h.gate.IsOwner(userID) {
		h.reply(chatID, "Управлять админами может только владелец.")
		return
	}
	id, err := strconv.ParseInt(strings.TrimSpace(args), 10, 64)
	if err != nil {
		h.reply(chatID, "Формат: /deladmin <id>")
		return
	}
	if h.gate.IsOwner(id) {
		h.reply(chatID, "Владельца убрать нельзя.")
		return
	}
	matched, err := h.admins.Delete(ctx, id)
	if err != nil {
		h.log.Error().Err(err).Msg("удаление админа не удалось")
		h.reply(chatID, "Не удалось убрать админа.")
		return
	}
	if !matched {
		h.reply(chatID, "Такого админа нет.")
		return
	}
	h.reply(chatID, fmt.Sprintf("Пользователь %d больше не админ.", id))
}

func (h *Handler) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	if cb.From == nil || cb.Message == nil {
		return
	}
	userID := cb.From.ID
	chatID := cb.Message.Chat.ID

	if !h.authorized(ctx, userID) {
		h.answerCallback(cb, "Нет доступа.")
		return
	}
	h.answerCallback(cb, "")

	parts := strings.SplitN(cb.Data, ":", 3)
	if len(parts) < 2 {
		return
	}
	switch parts[0] {
	case "draft":
		h.handleDraftCallback(ctx, userID, chatID, parts[1])
	case "draft_time":
		h.handleDraftTime(ctx, userID, chatID, parts[1])
	case "longphoto":
		h.handleLongPhotoChoice(ctx, userID, chatID, parts[1])
	case "job":
		if len(parts) == 3 {
			h.handleJobCallback(ctx, userID, chatID, parts[1], parts[2])
		}
	case "job_time":
		h.handleJobTime(ctx, userID, chatID, parts[1])
	case "post":
		if len(parts) == 3 {
			h.handlePostCallback(ctx, userID, chatID, parts[1], parts[2])
		}
	}
}

func (h *Handler) handleDraftCallback(ctx context.Context, userID, chatID int64, action string) {
	switch action {
	case "cancel":
		if err := h.drafts.Delete(ctx, userID); err != nil {
			h.log.Error().Err(err).Msg("не удалось удалить черновик")
		}
		h.reply(chatID, "Черновик удалён.")
	case "pub_now":
		draft, ok, err := h.drafts.Get(ctx, userID)
		if err != nil || !ok {
			h.reply(chatID, "Черновик не найден, начните заново: /newpost.")
			return
		}
		post, err := h.posting.PublishAndStore(ctx, posting.Publication{
			ChannelID: h.channelID,
			Text:      draft.Text,
			Buttons:   draft.Buttons,
			PhotoRef:  draft.PhotoRef,
			Split:     draft.Split,
			CreatedBy: userID,
		})
		if err != nil {
			h.log.Error().Err(err).Msg("публикация не удалась")
			h.reply(chatID, "Не удалось опубликовать пост, попробуйте ещё раз.")
			return
		}
		metrics.IncPublished("manual")
		if err := h.drafts.Delete(ctx, userID); err != nil {
			h.log.Error().Err(err).Msg("не удалось удалить черновик")
		}
		h.log.Info().Str("post", post.ID).Msg("пост опубликован вручную")
		h.reply(chatID, "Опубликовано ✅")
	case "schedule":
		out := tgbotapi.NewMessage(chatID, "Когда публикуем?")
		out.ReplyMarkup = quickTimeKeyboard("draft_time")
		h.send(out)
	}
}

func (h *Handler) handleDraftTime(ctx context.Context, userID, chatID int64, code string) {
	draft, ok, err := h.drafts.Get(ctx, userID)
	if err != nil || !ok {
		h.reply(chatID, "Черновик не найден, начните заново: /newpost.")
		return
	}
	if code == "manual" {
		draft.AwaitingRunAt = true
		draft.RunAtFor = "draft"
		h.putDraft(ctx, userID, chatID, draft)
		h.reply(chatID, "Введите дату и время: ДД.ММ.ГГГГ ЧЧ:ММ.")
		return
	}
	runAt, ok := h.schedule.QuickPreset(code)
	if !ok {
		h.reply(chatID, "Неизвестный вариант времени.")
		return
	}
	h.finishSchedule(ctx, userID, chatID, draft, runAt)
}

func (h *Handler) handleLongPhotoChoice(ctx context.Context, userID, chatID int64, choice string) {
	draft, ok, err := h.drafts.Get(ctx, userID)
	if err != nil || !ok {
		h.reply(chatID, "Черновик не найден, начните заново: /newpost.")
		return
	}
	switch choice {
	case "split":
		draft.Split = true
	case "nophoto":
		draft.PhotoRef = ""
		draft.Split = false
	default:
		return
	}
	draft.Step = domain.StepPreview
	h.putDraft(ctx, userID, chatID, draft)
	h.sendPreview(ctx, chatID, draft)
}

func (h *Handler) handleJobCallback(ctx context.Context, userID, chatID int64, action, jobID string) {
	switch action {
	case "view":
		job, err := h.schedule.Get(ctx, jobID)
		if errors.Is(err, domain.ErrNotFound) {
			h.reply(chatID, "Отложка уже опубликована или удалена.")
			return
		}
		if err != nil {
			h.log.Error().Err(err).Msg("чтение отложки не удалось")
			h.reply(chatID, "Не удалось прочитать отложку.")
			return
		}
		h.showJob(chatID, job)
	case "edit":
		job, err := h.schedule.Get(ctx, jobID)
		if errors.Is(err, domain.ErrNotFound) {
			h.reply(chatID, "Отложка уже опубликована или удалена.")
			return
		}
		if err != nil {
			h.log.Error().Err(err).Msg("чтение отложки не удалось")
			h.reply(chatID, "Не удалось прочитать отложку.")
			return
		}
		draft := domain.Draft{
			Mode:     domain.DraftModeEditJob,
			Step:     domain.StepText,
			TargetID: job.ID,
			Text:     job.Text,
			Buttons:  job.Buttons,
			PhotoRef: job.PhotoRef,
		}
		h.putDraft(ctx, userID, chatID, draft)
		h.reply(chatID, "Пришлите новый текст поста. Время публикации не изменится.")
	case "move":
		draft := domain.Draft{MoveJobID: jobID}
		h.putDraft(ctx, userID, chatID, draft)
		out := tgbotapi.NewMessage(chatID, "На какое время перенести?")
		out.ReplyMarkup = quickTimeKeyboard("job_time")
		h.send(out)
	case "del":
		out := tgbotapi.NewMessage(chatID, "Удалить отложенную публикацию?")
		out.ReplyMarkup = confirmKeyboard("job:del_yes:"+jobID, "job:del_no:"+jobID)
		h.send(out)
	case "del_yes":
		err := h.schedule.Cancel(ctx, jobID)
		switch {
		case errors.Is(err, domain.ErrNotFound):
			h.reply(chatID, "Отложка уже опубликована или удалена.")
		case err != nil:
			h.log.Error().Err(err).Msg("отмена отложки не удалась")
			h.reply(chatID, "Не удалось удалить отложку.")
		default:
			h.reply(chatID, "Отложка удалена.")
		}
	case "del_no":
		h.reply(chatID, "Ок, оставляем.")
	case "apply_edit":
		h.applyJobEdit(ctx, userID, chatID, jobID)
	}
}

func (h *Handler) showJob(chatID int64, job domain.Job) {
	var b strings.Builder
	b.WriteString("Запланировано на " + h.formatTime(job.RunAt) + "\n\n")
	b.WriteString(job.Text)
	if job.PhotoRef != "" {
		b.WriteString("\n\n📷 С фото")
		if len([]rune(job.Text)) > h.captionLimit {
			b.WriteString(" (текст длиннее лимита подписи, уйдёт отдельным сообщением)")
		}
	}
	if len(job.Buttons) > 0 {
		b.WriteString(fmt.Sprintf("\n🔘 Кнопок: %d", len(job.Buttons)))
	}
	h.reply(chatID, b.String())
}

func (h *Handler) applyJobEdit(ctx context.Context, userID, chatID int64, jobID string) {
	draft, ok, err := h.drafts.Get(ctx, userID)
	if err != nil || !ok || draft.TargetID != jobID {
		h.reply(chatID, "Черновик правки не найден.")
		return
	}
	err = h.schedule.ApplyJobEdit(ctx, jobID, domain.PostContent{
		Text:     draft.Text,
		Buttons:  draft.Buttons,
		PhotoRef: draft.PhotoRef,
	})
	switch {
	case errors.Is(err, domain.ErrNotFound):
		h.reply(chatID, "Отложка уже опубликована или удалена.")
	case err != nil:
		h.log.Error().Err(err).Msg("правка отложки не удалась")
		h.reply(chatID, "Не удалось сохранить правку.")
		return
	default:
		h.reply(chatID, "Отложка обновлена. Время публикации прежнее.")
	}
	if err := h.drafts.Delete(ctx, userID); err != nil {
		h.log.Error().Err(err).Msg("не удалось удалить черновик")
	}
}

func (h *Handler) handleJobTime(ctx context.Context, userID, chatID int64, code string) {
	draft, ok, err := h.drafts.Get(ctx, userID)
	if err != nil || !ok || draft.MoveJobID == "" {
		h.reply(chatID, "Не понимаю, какую отложку переносить. Откройте /jobs ещё раз.")
		return
	}
	if code == "manual" {
		draft.AwaitingRunAt = true
		draft.RunAtFor = "move"
		h.putDraft(ctx, userID, chatID, draft)
		h.reply(chatID, "Введите дату и время: ДД.ММ.ГГГГ ЧЧ:ММ.")
		return
	}
	runAt, ok := h.schedule.QuickPreset(code)
	if !ok {
		h.reply(chatID, "Неизвестный вариант времени.")
		return
	}
	h.finishMove(ctx, userID, chatID, draft.MoveJobID, runAt)
}

func (h *Handler) handlePostCallback(ctx context.Context, userID, chatID int64, action, postID string) {
	switch action {
	case "edit":
		post, err := h.posts.GetByID(ctx, postID)
		if errors.Is(err, domain.ErrNotFound) {
			h.reply(chatID, "Пост уже удалён.")
			return
		}
		if err != nil {
			h.log.Error().Err(err).Msg("чтение поста не удалось")
			h.reply(chatID, "Не удалось прочитать пост.")
			return
		}
		draft := domain.Draft{
			Mode:     domain.DraftModeEditPost,
			Step:     domain.StepText,
			TargetID: post.ID,
			Text:     post.Text,
			Buttons:  post.Buttons,
			PhotoRef: post.PhotoRef,
		}
		h.putDraft(ctx, userID, chatID, draft)
		h.reply(chatID, "Пришлите новый текст поста.")
	case "del":
		out := tgbotapi.NewMessage(chatID, "Удалить пост из канала?")
		out.ReplyMarkup = confirmKeyboard("post:del_yes:"+postID, "post:del_no:"+postID)
		h.send(out)
	case "del_yes":
		err := h.posting.Delete(ctx, postID)
		switch {
		case errors.Is(err, domain.ErrNotFound):
			h.reply(chatID, "Пост уже удалён.")
		case err != nil:
			h.log.Error().Err(err).Msg("удаление поста не удалось")
			h.reply(chatID, "Не удалось удалить пост.")
		default:
			h.reply(chatID, "Пост удалён.")
		}
	case "del_no":
		h.reply(chatID, "Ок, оставляем.")
	case "apply_edit":
		h.applyPostEdit(ctx, userID, chatID, postID)
	}
}

func (h *Handler) applyPostEdit(ctx context.Context, userID, chatID int64, postID string) {
	draft, ok, err := h.drafts.Get(ctx, userID)
	if err != nil || !ok || draft.TargetID != postID {
		h.reply(chatID, "Черновик правки не найден.")
		return
	}
	_, err = h.posting.ApplyPostEdit(ctx, postID, domain.PostContent{
		Text:     draft.Text,
		Buttons:  draft.Buttons,
		PhotoRef: draft.PhotoRef,
		Split:    draft.Split,
	})
	switch {
	case errors.Is(err, domain.ErrNotFound):
		h.reply(chatID, "Пост уже удалён.")
	case errors.Is(err, domain.ErrMissingTextMessage):
		h.reply(chatID, "У поста не сохранилось текстовое сообщение, правка на месте невозможна. Смените фото, чтобы пересоздать пост.")
		return
	case errors.Is(err, domain.ErrContentTooLong):
		h.reply(chatID, "Текст слишком длинный для подписи к фото. Вернитесь к шагу фото и выберите раздельную форму.")
		return
	case err != nil:
		h.log.Error().Err(err).Msg("правка поста не удалась")
		h.reply(chatID, "Не удалось сохранить правку.")
		return
	default:
		h.reply(chatID, "Пост обновлён ✅")
	}
	if err := h.drafts.Delete(ctx, userID); err != nil {
		h.log.Error().Err(err).Msg("не удалось удалить черновик")
	}
}
