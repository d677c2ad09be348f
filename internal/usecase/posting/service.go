package posting

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"tg-post-bot/internal/domain"
	"tg-post-bot/internal/infra/metrics"
	"tg-post-bot/internal/usecase/render"
)

// Service публикует посты в канал и применяет правки к уже опубликованным.
type Service struct {
	posts        domain.PostRepo
	publisher    domain.ChannelPublisher
	log          zerolog.Logger
	captionLimit int
}

// NewService создаёт сервис публикаций.
func NewService(posts domain.PostRepo, publisher domain.ChannelPublisher, log zerolog.Logger, captionLimit int) *Service {
	return &Service{posts: posts, publisher: publisher, log: log, captionLimit: captionLimit}
}

// Publication — входные данные публикации.
type Publication struct {
	ChannelID string
	Text      string
	Buttons   []domain.Button
	PhotoRef  string
	Split     bool
	CreatedBy int64
}

// sendPlan отправляет сообщения плана и возвращает идентификаторы:
// главное сообщение и, для раздельной формы, текстовое.
func (s *Service) sendPlan(ctx context.Context, channelID string, plan render.Plan) (int64, int64, error) {
	var mainID, textID int64
	for _, msg := range plan.Messages {
		var (
			id  int64
			err error
		)
		if msg.PhotoRef != "" {
			id, err = s.publisher.SendPhoto(ctx, channelID, msg.PhotoRef, msg.Text, msg.Buttons)
		} else {
			id, err = s.publisher.SendText(ctx, channelID, msg.Text, msg.Buttons)
		}
		if err != nil {
			metrics.PublishErrorsTotal.Inc()
			return 0, 0, fmt.Errorf("отправка в канал: %w", err)
		}
		if msg.Role == render.RoleMain {
			mainID = id
		} else {
			textID = id
		}
	}
	return mainID, textID, nil
}

// PublishAndStore отправляет публикацию в канал и сохраняет пост.
func (s *Service) PublishAndStore(ctx context.Context, pub Publication) (domain.Post, error) {
	plan, err := render.Build(pub.Text, pub.Buttons, pub.PhotoRef, pub.Split, s.captionLimit)
	if err != nil {
		return domain.Post{}, err
	}
	mainID, textID, err := s.sendPlan(ctx, pub.ChannelID, plan)
	if err != nil {
		return domain.Post{}, err
	}

	post := domain.Post{
		ID:            uuid.NewString(),
		ChannelID:     pub.ChannelID,
		MainMessageID: mainID,
		TextMessageID: textID,
		Text:          pub.Text,
		Buttons:       pub.Buttons,
		PhotoRef:      pub.PhotoRef,
		CreatedBy:     pub.CreatedBy,
		CreatedAt:     time.Now().UTC(),
	}
	if err := s.posts.Insert(ctx, post); err != nil {
		return domain.Post{}, fmt.Errorf("сохранение поста: %w", err)
	}
	return post, nil
}

// Delete удаляет пост: сообщения в канале best-effort, затем строку.
func (s *Service) Delete(ctx context.Context, postID string) error {
	post, err := s.posts.GetByID(ctx, postID)
	if err != nil {
		return err
	}
	s.safeDelete(ctx, post.ChannelID, post.MainMessageID)
	if post.TextMessageID != 0 {
		s.safeDelete(ctx, post.ChannelID, post.TextMessageID)
	}
	matched, err := s.posts.Delete(ctx, postID)
	if err != nil {
		return fmt.Errorf("удаление поста: %w", err)
	}
	if !matched {
		return domain.ErrNotFound
	}
	return nil
}

// safeDelete глотает ошибки удаления: сообщение могло быть уже удалено.
func (s *Service) safeDelete(ctx context.Context, channelID string, messageID int64) {
	if messageID == 0 {
		return
	}
	if err := s.publisher.DeleteMessage(ctx, channelID, messageID); err != nil {
		s.log.Debug().Err(err).Int64("message", messageID).Msg("сообщение не удалилось, пропускаем")
	}
}
