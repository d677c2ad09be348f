package auth

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"tg-post-bot/internal/domain"
)

// Gate проверяет, имеет ли пользователь право управлять ботом.
// Владелец авторизован всегда, остальные — по таблице админов.
type Gate struct {
	ownerID int64
	admins  domain.AdminRepo
	log     zerolog.Logger
}

// NewGate создаёт проверку доступа.
func NewGate(ownerID int64, admins domain.AdminRepo, log zerolog.Logger) *Gate {
	return &Gate{ownerID: ownerID, admins: admins, log: log}
}

// IsAuthorized сообщает, разрешены ли пользователю мутирующие операции.
func (g *Gate) IsAuthorized(ctx context.Context, userID int64) (bool, error) {
	if userID == g.ownerID {
		return true, nil
	}
	ok, err := g.admins.IsAdmin(ctx, userID)
	if err != nil {
		return false, fmt.Errorf("проверка админа: %w", err)
	}
	return ok, nil
}

// IsOwner сообщает, является ли пользователь владельцем бота.
// Управление списком админов доступно только ему.
func (g *Gate) IsOwner(userID int64) bool {
	return userID == g.ownerID
}

// Seed добавляет владельца и админов из окружения в таблицу при старте.
// Ошибки отдельных строк логируются и не валят запуск.
func (g *Gate) Seed(ctx context.Context, envAdminIDs []int64) {
	if g.ownerID != 0 {
		if err := g.admins.Upsert(ctx, domain.Admin{UserID: g.ownerID, Name: "OWNER"}); err != nil {
			g.log.Warn().Err(err).Int64("user", g.ownerID).Msg("не удалось добавить владельца в админы")
		}
	}
	for _, id := range envAdminIDs {
		if err := g.admins.Upsert(ctx, domain.Admin{UserID: id, Name: "ENV"}); err != nil {
			g.log.Warn().Err(err).Int64("user", id).Msg("не удалось добавить админа из окружения")
		}
	}
}
