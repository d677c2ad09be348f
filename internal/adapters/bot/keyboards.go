package bot

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"tg-post-bot/internal/domain"
)

// menuKeyboard — главное меню админа.
func menuKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton("📝 Новый пост"),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton("🗓 Отложенные"),
			tgbotapi.NewKeyboardButton("📚 Опубликованные"),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton("🆔 Мой ID"),
			tgbotapi.NewKeyboardButton("❓ Помощь"),
		),
	)
	kb.ResizeKeyboard = true
	return kb
}

// previewKeyboard — действия над готовым черновиком нового поста.
func previewKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🚀 Опубликовать сейчас", "draft:pub_now"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("⏰ Запланировать", "draft:schedule"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("❌ Отмена", "draft:cancel"),
		),
	)
}

// editPreviewKeyboard — действия над черновиком правки.
func editPreviewKeyboard(apply string) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("💾 Применить", apply),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("❌ Отмена", "draft:cancel"),
		),
	)
}

// quickTimeKeyboard — быстрый выбор времени публикации.
// prefix различает новый черновик и перенос существующей отложки.
func quickTimeKeyboard(prefix string) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("+10 мин", prefix+":10m"),
			tgbotapi.NewInlineKeyboardButtonData("+30 мин", prefix+":30m"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("+1 час", prefix+":1h"),
			tgbotapi.NewInlineKeyboardButtonData("+3 часа", prefix+":3h"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Завтра 09:00", prefix+":tomorrow"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✍️ Ввести вручную", prefix+":manual"),
		),
	)
}

// longPhotoKeyboard — выбор формы для фото с длинным текстом.
func longPhotoKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Фото + текст отдельно", "longphoto:split"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Только текст, без фото", "longphoto:nophoto"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("❌ Отмена", "draft:cancel"),
		),
	)
}

// jobKeyboard — управление одной отложкой в списке.
func jobKeyboard(jobID string) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("👁 Посмотреть", "job:view:"+jobID),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✏️ Изменить", "job:edit:"+jobID),
			tgbotapi.NewInlineKeyboardButtonData("⏰ Перенести", "job:move:"+jobID),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🗑 Удалить", "job:del:"+jobID),
		),
	)
}

// postKeyboard — управление одним опубликованным постом.
func postKeyboard(postID string) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✏️ Изменить", "post:edit:"+postID),
			tgbotapi.NewInlineKeyboardButtonData("🗑 Удалить", "post:del:"+postID),
		),
	)
}

// confirmKeyboard — подтверждение удаления.
func confirmKeyboard(yesData, noData string) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Да, удалить", yesData),
			tgbotapi.NewInlineKeyboardButtonData("Нет", noData),
		),
	)
}

// draftMarkup дублирует клавиатуру поста в предпросмотре черновика.
func draftMarkup(buttons []domain.Button) *tgbotapi.InlineKeyboardMarkup {
	if len(buttons) == 0 {
		return nil
	}
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(buttons))
	for _, b := range buttons {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonURL(b.Label, b.URL)))
	}
	markup := tgbotapi.NewInlineKeyboardMarkup(rows...)
	return &markup
}
