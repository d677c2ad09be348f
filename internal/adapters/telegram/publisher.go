package telegram

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"tg-post-bot/internal/domain"
	"tg-post-bot/internal/infra/metrics"
)

// Publisher отправляет и правит сообщения канала через Bot API.
type Publisher struct {
	api *tgbotapi.BotAPI
}

var _ domain.ChannelPublisher = (*Publisher)(nil)

// NewPublisher создаёт адаптер Bot API.
func NewPublisher(api *tgbotapi.BotAPI) *Publisher {
	return &Publisher{api: api}
}

// chatTarget переводит строковый идентификатор канала в адресацию Bot API:
// "@username" остаётся юзернеймом, остальное — числовой chat id.
func chatTarget(channelID string) (chatID int64, username string, err error) {
	channelID = strings.TrimSpace(channelID)
	if strings.HasPrefix(channelID, "@") {
		return 0, channelID, nil
	}
	id, err := strconv.ParseInt(channelID, 10, 64)
	if err != nil {
		return 0, "", fmt.Errorf("неверный идентификатор канала %q: %w", channelID, err)
	}
	return id, "", nil
}

// SendText отправляет текстовое сообщение и возвращает его message id.
func (p *Publisher) SendText(_ context.Context, channelID, text string, buttons []domain.Button) (int64, error) {
	chatID, username, err := chatTarget(channelID)
	if err != nil {
		return 0, err
	}
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ChannelUsername = username
	if markup := BuildMarkup(buttons); markup != nil {
		msg.ReplyMarkup = markup
	}

	start := time.Now()
	sent, err := p.api.Send(msg)
	metrics.ObserveNetworkRequest("telegram", "send_message", channelID, start, err)
	if err != nil {
		return 0, fmt.Errorf("отправка сообщения: %w", err)
	}
	return int64(sent.MessageID), nil
}

// SendPhoto отправляет фото с подписью и возвращает message id.
func (p *Publisher) SendPhoto(_ context.Context, channelID, photoRef, caption string, buttons []domain.Button) (int64, error) {
	chatID, username, err := chatTarget(channelID)
	if err != nil {
		return 0, err
	}
	msg := tgbotapi.NewPhoto(chatID, tgbotapi.FileID(photoRef))
	msg.ChannelUsername = username
	msg.Caption = caption
	if markup := BuildMarkup(buttons); markup != nil {
		msg.ReplyMarkup = markup
	}

	start := time.Now()
	sent, err := p.api.Send(msg)
	metrics.ObserveNetworkRequest("telegram", "send_photo", channelID, start, err)
	if err != nil {
		return 0, fmt.Errorf("отправка фото: %w", err)
	}
	return int64(sent.MessageID), nil
}

// EditText меняет текст и клавиатуру существующего сообщения.
func (p *Publisher) EditText(_ context.Context, channelID string, messageID int64, text string, buttons []domain.Button) error {
	chatID, username, err := chatTarget(channelID)
	if err != nil {
		return err
	}
	msg := tgbotapi.NewEditMessageText(chatID, int(messageID), text)
	msg.ChannelUsername = username
	msg.ReplyMarkup = BuildMarkup(buttons)

	start := time.Now()
	_, err = p.api.Send(msg)
	metrics.ObserveNetworkRequest("telegram", "edit_message_text", channelID, start, err)
	if err != nil {
		return fmt.Errorf("правка сообщения: %w", err)
	}
	return nil
}

// EditCaption меняет подпись фото и клавиатуру.
func (p *Publisher) EditCaption(_ context.Context, channelID string, messageID int64, caption string, buttons []domain.Button) error {
	chatID, username, err := chatTarget(channelID)
	if err != nil {
		return err
	}
	msg := tgbotapi.NewEditMessageCaption(chatID, int(messageID), caption)
	msg.ChannelUsername = username
	msg.ReplyMarkup = BuildMarkup(buttons)

	start := time.Now()
	_, err = p.api.Send(msg)
	metrics.ObserveNetworkRequest("telegram", "edit_message_caption", channelID, start, err)
	if err != nil {
		return fmt.Errorf("правка подписи: %w", err)
	}
	return nil
}

// DeleteMessage удаляет сообщение. Ошибку трактует вызывающая сторона:
// обычно это best-effort операция.
func (p *Publisher) DeleteMessage(_ context.Context, channelID string, messageID int64) error {
	chatID, username, err := chatTarget(channelID)
	if err != nil {
		return err
	}
	msg := tgbotapi.NewDeleteMessage(chatID, int(messageID))
	msg.ChannelUsername = username

	start := time.Now()
	_, err = p.api.Request(msg)
	metrics.ObserveNetworkRequest("telegram", "delete_message", channelID, start, err)
	if err != nil {
		return fmt.Errorf("удаление сообщения: %w", err)
	}
	return nil
}
