package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/prometheus/client_golang/prometheus"

	"tg-post-bot/internal/adapters/bot"
	"tg-post-bot/internal/adapters/repo"
	"tg-post-bot/internal/adapters/sessions"
	"tg-post-bot/internal/adapters/telegram"
	"tg-post-bot/internal/domain"
	"tg-post-bot/internal/infra/config"
	"tg-post-bot/internal/infra/db"
	httpinfra "tg-post-bot/internal/infra/http"
	"tg-post-bot/internal/infra/log"
	"tg-post-bot/internal/infra/metrics"
	"tg-post-bot/internal/usecase/auth"
	"tg-post-bot/internal/usecase/posting"
	"tg-post-bot/internal/usecase/schedule"
	"tg-post-bot/internal/usecase/scheduler"
)

func main() {
	cfg := config.Load()
	logger := log.NewLogger(cfg.AppEnv)
	metrics.MustRegister(prometheus.DefaultRegisterer)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := db.Connect(cfg.PGDSN)
	if err != nil {
		logger.Fatal().Err(err).Msg("не удалось подключиться к БД")
	}
	defer pool.Close()

	repoAdapter := repo.NewPostgres(pool)
	if err := repoAdapter.EnsureSchema(ctx); err != nil {
		logger.Fatal().Err(err).Msg("не удалось подготовить схему БД")
	}

	var drafts domain.DraftStore
	if cfg.RedisAddr != "" {
		redisStore, err := sessions.NewRedis(ctx, cfg.RedisAddr)
		if err != nil {
			logger.Fatal().Err(err).Msg("не удалось подключиться к Redis")
		}
		defer redisStore.Close()
		drafts = redisStore
	} else {
		logger.Warn().Msg("REDIS_ADDR не задан, черновики живут в памяти процесса")
		drafts = sessions.NewMemory()
	}

	botAPI, err := tgbotapi.NewBotAPI(cfg.Telegram.Token)
	if err != nil {
		logger.Fatal().Err(err).Msg("не удалось создать бота")
	}
	logger.Info().Str("bot", botAPI.Self.UserName).Msg("бот авторизован")

	gate := auth.NewGate(cfg.OwnerID, repoAdapter.Admins, logger)
	gate.Seed(ctx, cfg.AdminIDs())

	publisher := telegram.NewPublisher(botAPI)
	postingService := posting.NewService(repoAdapter.Posts, publisher, logger, cfg.Limits.CaptionLimit)
	scheduleService := schedule.NewService(repoAdapter.Jobs, cfg.Location())
	loop := scheduler.NewLoop(repoAdapter.Jobs, postingService, logger, cfg.Scheduler.Interval, cfg.Scheduler.BatchSize, cfg.Limits.CaptionLimit)

	h := bot.NewHandler(
		botAPI, drafts, gate,
		postingService, scheduleService,
		repoAdapter.Posts, repoAdapter.Admins,
		logger, cfg.Telegram.ChannelID, cfg.Limits.CaptionLimit, cfg.Location(),
	)

	srv := httpinfra.NewServer(logger, cfg.Port)
	go srv.Start()
	go loop.Run(ctx)

	updates := botAPI.GetUpdatesChan(tgbotapi.UpdateConfig{Timeout: 30})
	go func() {
		for update := range updates {
			h.HandleUpdate(ctx, update)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGTERM, syscall.SIGINT)
	<-stop
	logger.Info().Msg("остановка бота")
	cancel()
	botAPI.StopReceivingUpdates()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	_ = srv.Shutdown(shutdownCtx)
}

var (
	_ domain.JobRepo          = (*repo.Jobs)(nil)
	_ domain.PostRepo         = (*repo.Posts)(nil)
	_ domain.AdminRepo        = (*repo.Admins)(nil)
	_ domain.ChannelPublisher = (*telegram.Publisher)(nil)
	_ domain.AuthGate         = (*auth.Gate)(nil)
)
