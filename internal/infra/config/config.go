package config

import (
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// AppConfig описывает конфигурацию бота.
type AppConfig struct {
	AppEnv string `envconfig:"APP_ENV" default:"dev"`
	TZ     string `envconfig:"TZ" default:"Europe/Moscow"`
	Port   int    `envconfig:"PORT" default:"10000"`

	Telegram struct {
		Token     string `envconfig:"BOT_TOKEN"`
		ChannelID string `envconfig:"CHANNEL_ID"`
	} `envconfig:""`

	OwnerID int64  `envconfig:"OWNER_ID"`
	Admins  string `envconfig:"ADMINS"`

	PGDSN string `envconfig:"DATABASE_URL"`

	RedisAddr string `envconfig:"REDIS_ADDR"`

	Limits struct {
		CaptionLimit int `envconfig:"CAPTION_LIMIT" default:"1024"`
	} `envconfig:""`

	Scheduler struct {
		Interval  time.Duration `envconfig:"SCHEDULER_INTERVAL" default:"5s"`
		BatchSize int           `envconfig:"SCHEDULER_BATCH" default:"10"`
	} `envconfig:""`
}

// Load загружает конфиг из окружения.
func Load() AppConfig {
	var cfg AppConfig
	if err := envconfig.Process("", &cfg); err != nil {
		log.Fatalf("не удалось загрузить конфиг: %v", err)
	}
	return cfg
}

// AdminIDs разбирает список идентификаторов админов из окружения.
func (c AppConfig) AdminIDs() []int64 {
	var ids []int64
	for _, part := range strings.Split(c.Admins, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids
}

// Location возвращает часовой пояс бота; при некорректном TZ — UTC.
func (c AppConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.TZ)
	if err != nil {
		return time.UTC
	}
	return loc
}
