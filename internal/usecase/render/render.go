package render

import (
	"strings"

	"tg-post-bot/internal/domain"
)

// Shape — форма публикации в канале.
type Shape string

const (
	// ShapeNoPhoto — одно текстовое сообщение с кнопками.
	ShapeNoPhoto Shape = "no_photo"
	// ShapePhotoCaption — одно фото, текст в подписи, кнопки при фото.
	ShapePhotoCaption Shape = "photo_caption"
	// ShapePhotoSplit — фото с укороченной подписью без кнопок
	// плюс отдельное текстовое сообщение с кнопками.
	ShapePhotoSplit Shape = "photo_split"
)

// Role — назначение сообщения внутри публикации.
type Role string

const (
	RoleMain Role = "main"
	RoleText Role = "text"
)

// MessageSpec описывает одно исходящее сообщение публикации.
type MessageSpec struct {
	Role     Role
	PhotoRef string
	Text     string
	Buttons  []domain.Button
}

// Plan — результат рендеринга: форма и одно-два сообщения по порядку отправки.
type Plan struct {
	Shape    Shape
	Messages []MessageSpec
}

// ShapeOf определяет форму публикации без построения сообщений.
// Возвращает domain.ErrContentTooLong, если фото и длинный текст
// не разрешены выбором split: этот выбор обязан сделать вызывающий.
func ShapeOf(text, photoRef string, split bool, captionLimit int) (Shape, error) {
	if photoRef == "" {
		return ShapeNoPhoto, nil
	}
	if !captionTooLong(text, captionLimit) {
		return ShapePhotoCaption, nil
	}
	if !split {
		return "", domain.ErrContentTooLong
	}
	return ShapePhotoSplit, nil
}

// Build строит план отправки для набора полей черновика.
// Чистая функция: никаких побочных эффектов.
func Build(text string, buttons []domain.Button, photoRef string, split bool, captionLimit int) (Plan, error) {
	if strings.TrimSpace(text) == "" {
		return Plan{}, domain.ErrEmptyText
	}
	shape, err := ShapeOf(text, photoRef, split, captionLimit)
	if err != nil {
		return Plan{}, err
	}
	switch shape {
	case ShapeNoPhoto:
		return Plan{Shape: shape, Messages: []MessageSpec{
			{Role: RoleMain, Text: text, Buttons: buttons},
		}}, nil
	case ShapePhotoCaption:
		return Plan{Shape: shape, Messages: []MessageSpec{
			{Role: RoleMain, PhotoRef: photoRef, Text: text, Buttons: buttons},
		}}, nil
	default:
		return Plan{Shape: shape, Messages: []MessageSpec{
			{Role: RoleMain, PhotoRef: photoRef, Text: ShortCaption(text, captionLimit)},
			{Role: RoleText, Text: text, Buttons: buttons},
		}}, nil
	}
}

// ShortCaption укорачивает текст до лимита подписи, добавляя многоточие.
// Длина считается в рунах, чтобы не резать кириллицу посередине байта.
func ShortCaption(text string, captionLimit int) string {
	runes := []rune(text)
	if len(runes) <= captionLimit {
		return text
	}
	return string(runes[:captionLimit-1]) + "…"
}

// AutoSplit возвращает split-режим для сохранённой задачи: планировщик
// не спрашивает человека и сам включает раздельную форму при необходимости.
func AutoSplit(text, photoRef string, captionLimit int) bool {
	return photoRef != "" && captionTooLong(text, captionLimit)
}

func captionTooLong(text string, captionLimit int) bool {
	return len([]rune(text)) > captionLimit
}
