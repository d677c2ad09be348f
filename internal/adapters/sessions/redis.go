package sessions

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"tg-post-bot/internal/domain"
	"tg-post-bot/internal/infra/metrics"
)

// draftTTL — срок жизни брошенного черновика.
const draftTTL = 24 * time.Hour

// Redis хранит черновики в Redis, переживая рестарты бота.
type Redis struct {
	client *redis.Client
}

var _ domain.DraftStore = (*Redis)(nil)

// NewRedis подключается к Redis и проверяет связь.
func NewRedis(ctx context.Context, addr string) (*Redis, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	start := time.Now()
	err := client.Ping(ctx).Err()
	metrics.ObserveNetworkRequest("redis", "ping", "sessions", start, err)
	if err != nil {
		return nil, fmt.Errorf("подключение к redis: %w", err)
	}
	return &Redis{client: client}, nil
}

func draftKey(userID int64) string {
	return "draft:" + strconv.FormatInt(userID, 10)
}

// Get возвращает черновик пользователя. false — черновика нет.
func (s *Redis) Get(ctx context.Context, userID int64) (domain.Draft, bool, error) {
	start := time.Now()
	raw, err := s.client.Get(ctx, draftKey(userID)).Bytes()
	metrics.ObserveNetworkRequest("redis", "draft_get", "sessions", start, err)
	if errors.Is(err, redis.Nil) {
		return domain.Draft{}, false, nil
	}
	if err != nil {
		return domain.Draft{}, false, fmt.Errorf("чтение черновика: %w", err)
	}
	var draft domain.Draft
	if err := json.Unmarshal(raw, &draft); err != nil {
		return domain.Draft{}, false, fmt.Errorf("разбор черновика: %w", err)
	}
	return draft, true, nil
}

// Put сохраняет черновик с продлением TTL.
func (s *Redis) Put(ctx context.Context, userID int64, draft domain.Draft) error {
	raw, err := json.Marshal(draft)
	if err != nil {
		return fmt.Errorf("сериализация черновика: %w", err)
	}
	start := time.Now()
	err = s.client.Set(ctx, draftKey(userID), raw, draftTTL).Err()
	metrics.ObserveNetworkRequest("redis", "draft_put", "sessions", start, err)
	if err != nil {
		return fmt.Errorf("запись черновика: %w", err)
	}
	return nil
}

// Delete удаляет черновик пользователя.
func (s *Redis) Delete(ctx context.Context, userID int64) error {
	start := time.Now()
	err := s.client.Del(ctx, draftKey(userID)).Err()
	metrics.ObserveNetworkRequest("redis", "draft_delete", "sessions", start, err)
	if err != nil {
		return fmt.Errorf("удаление черновика: %w", err)
	}
	return nil
}

// Close закрывает соединение с Redis.
func (s *Redis) Close() error {
	return s.client.Close()
}
