package telegram

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"tg-post-bot/internal/domain"
)

// BuildMarkup строит inline-клавиатуру из кнопок поста: одна кнопка в ряд,
// порядок как в черновике. nil — кнопок нет.
func BuildMarkup(buttons []domain.Button) *tgbotapi.InlineKeyboardMarkup {
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
