package posting

import (
	"context"
	"fmt"

	"tg-post-bot/internal/domain"
	"tg-post-bot/internal/usecase/render"
)

// ApplyPostEdit применяет правку к опубликованному посту.
//
// Решение «перепубликовать или править на месте» принимается так:
// пост пересоздаётся, если поменялось фото либо форма публикации,
// во всех остальных случаях правим существующие сообщения.
func (s *Service) ApplyPostEdit(ctx context.Context, postID string, content domain.PostContent) (domain.Post, error) {
	post, err := s.posts.GetByID(ctx, postID)
	if err != nil {
		return domain.Post{}, err
	}

	newShape, err := render.ShapeOf(content.Text, content.PhotoRef, content.Split, s.captionLimit)
	if err != nil {
		return domain.Post{}, err
	}
	oldShape, err := render.ShapeOf(post.Text, post.PhotoRef, post.Split(), s.captionLimit)
	if err != nil {
		// Сохранённый пост всегда консистентен, сюда попадать не должны.
		return domain.Post{}, fmt.Errorf("форма сохранённого поста: %w", err)
	}

	if content.PhotoRef != post.PhotoRef || newShape != oldShape {
		return s.republish(ctx, post, content)
	}
	return s.editInPlace(ctx, post, content, newShape)
}

// republish удаляет старые сообщения best-effort, отправляет новые
// и перезаписывает пост одной операцией.
func (s *Service) republish(ctx context.Context, post domain.Post, content domain.PostContent) (domain.Post, error) {
	plan, err := render.Build(content.Text, content.Buttons, content.PhotoRef, content.Split, s.captionLimit)
	if err != nil {
		return domain.Post{}, err
	}

	s.safeDelete(ctx, post.ChannelID, post.MainMessageID)
	if post.TextMessageID != 0 {
		s.safeDelete(ctx, post.ChannelID, post.TextMessageID)
	}

	mainID, textID, err := s.sendPlan(ctx, post.ChannelID, plan)
	if err != nil {
		return domain.Post{}, err
	}
	matched, err := s.posts.UpdateMessages(ctx, post.ID, mainID, textID, content)
	if err != nil {
		return domain.Post{}, fmt.Errorf("обновление поста: %w", err)
	}
	if !matched {
		return domain.Post{}, domain.ErrNotFound
	}

	post.MainMessageID = mainID
	post.TextMessageID = textID
	applyContent(&post, content)
	return post, nil
}

// editInPlace правит существующие сообщения, не меняя их идентификаторы.
func (s *Service) editInPlace(ctx context.Context, post domain.Post, content domain.PostContent, shape render.Shape) (domain.Post, error) {
	switch shape {
	case render.ShapeNoPhoto:
		if err := s.publisher.EditText(ctx, post.ChannelID, post.MainMessageID, content.Text, content.Buttons); err != nil {
			return domain.Post{}, fmt.Errorf("правка текста: %w", err)
		}
	case render.ShapePhotoCaption:
		if err := s.publisher.EditCaption(ctx, post.ChannelID, post.MainMessageID, content.Text, content.Buttons); err != nil {
			return domain.Post{}, fmt.Errorf("правка подписи: %w", err)
		}
	case render.ShapePhotoSplit:
		// Проверяем до первой правки: наполовину отредактированный пост хуже,
		// чем нетронутый.
		if post.TextMessageID == 0 {
			return domain.Post{}, domain.ErrMissingTextMessage
		}
		caption := render.ShortCaption(content.Text, s.captionLimit)
		if err := s.publisher.EditCaption(ctx, post.ChannelID, post.MainMessageID, caption, nil); err != nil {
			return domain.Post{}, fmt.Errorf("правка подписи: %w", err)
		}
		if err := s.publisher.EditText(ctx, post.ChannelID, post.TextMessageID, content.Text, content.Buttons); err != nil {
			return domain.Post{}, fmt.Errorf("правка текстового сообщения: %w", err)
		}
	}

	matched, err := s.posts.UpdateContent(ctx, post.ID, content)
	if err != nil {
		return domain.Post{}, fmt.Errorf("обновление поста: %w", err)
	}
	if !matched {
		return domain.Post{}, domain.ErrNotFound
	}

	applyContent(&post, content)
	return post, nil
}

func applyContent(post *domain.Post, content domain.PostContent) {
	post.Text = content.Text
	post.Buttons = content.Buttons
	post.PhotoRef = content.PhotoRef
}
