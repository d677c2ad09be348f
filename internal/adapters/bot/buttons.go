package bot

import (
	"fmt"
	"strings"

	"tg-post-bot/internal/domain"
)

// skipWord — ответ «нет» на необязательный шаг диалога.
const skipWord = "нет"

// ParseButtons разбирает кнопки из текста: по одной на строку в формате
// «Название - https://ссылка». Слово «нет» означает пост без кнопок.
func ParseButtons(raw string) ([]domain.Button, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.EqualFold(raw, skipWord) {
		return nil, nil
	}
	var buttons []domain.Button
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		label, url, found := strings.Cut(line, " - ")
		if !found {
			return nil, fmt.Errorf("строка %q не похожа на «Название - https://ссылка»", line)
		}
		label = strings.TrimSpace(label)
		url = strings.TrimSpace(url)
		if label == "" || url == "" {
			return nil, fmt.Errorf("строка %q не похожа на «Название - https://ссылка»", line)
		}
		if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
			return nil, fmt.Errorf("ссылка %q должна начинаться с http:// или https://", url)
		}
		buttons = append(buttons, domain.Button{Label: label, URL: url})
	}
	return buttons, nil
}
