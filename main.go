package main

import (
	"WaGPT/ai/gpt"
	"WaGPT/bot"
	"WaGPT/bot/whatsapp"
	"WaGPT/impl/core"
	"WaGPT/internal/config"
	"WaGPT/internal/database"
	"WaGPT/internal/http-server/api"
	"WaGPT/internal/http-server/handlers/media"
	"WaGPT/internal/lib/logger"
	"WaGPT/internal/lib/sl"
	"WaGPT/internal/pubsub"
	"WaGPT/internal/service/currency"
	"WaGPT/internal/service/history"
	mediastore "WaGPT/internal/service/media-store"
	"WaGPT/internal/ws"
	"context"
	"flag"
	"log/slog"
	"time"
)

func main() {

	configPath := flag.String("conf", "config.yml", "path to config file")
	logPath := flag.String("log", "/var/log/", "path to log file directory")
	flag.Parse()

	conf := config.MustLoad(*configPath)
	lg := logger.SetupLogger(conf.Env, *logPath)

	// Initialize Telegram bot if enabled
	var tgBot *bot.TgBot
	if conf.Telegram.Enabled {
		var err error
		tgBot, err = bot.NewTgBot(conf.Telegram.BotName, conf.Telegram.ApiKey, conf.Telegram.AdminId, lg)
		if err != nil {
			lg.Error("failed to initialize telegram bot", sl.Err(err))
		} else {
			lg = logger.SetupTelegramHandler(lg, tgBot, parseLevel(conf.Telegram.LogLevel))
			lg.With(
				slog.String("bot_name", conf.Telegram.BotName),
			).Info("telegram bot initialized")
		}
	}

	lg.Info("starting wagpt", slog.String("config", *configPath), slog.String("env", conf.Env))
	lg.Debug("debug messages enabled")

	ctx := context.Background()
	handler := core.New(lg)

	db, err := repository.NewMongoClient(conf, lg)
	if err != nil {
		lg.With(
			sl.Err(err),
		).Error("mongo client")
	}
	if db != nil {
		if err = db.EnsureIndexes(ctx); err != nil {
			lg.With(sl.Err(err)).Error("mongo indexes")
		}
		lg.With(
			slog.String("host", conf.Mongo.Host),
			slog.String("port", conf.Mongo.Port),
			slog.String("user", conf.Mongo.User),
			slog.String("database", conf.Mongo.Database),
		).Info("mongo client initialized")
	}

	var backend history.Backend
	if conf.History.Backend == "mongo" && db != nil {
		backend = db
	} else {
		if conf.History.Backend == "mongo" {
			lg.Warn("mongo disabled, keeping history in memory")
		}
		backend = history.NewMemoryBackend()
	}
	historyService := history.NewService(backend, conf.History.MaxCount, conf.History.TtlMinutes, lg)
	handler.SetHistory(historyService)
	lg.With(
		slog.Bool("enabled", historyService.Enabled()),
		slog.Int("max_count", conf.History.MaxCount),
		slog.Int("ttl_minutes", conf.History.TtlMinutes),
	).Info("chat history initialized")

	assistant := gpt.NewAssistant(conf, lg)
	assistant.SetCurrencyService(currency.NewCurrencyService(conf, lg))

	// media links must outlive the conversation that references them
	var files media.Store
	if db != nil && conf.Media.PublicURL != "" {
		ttl := time.Duration(conf.History.TtlMinutes+1) * time.Minute
		gridStore := mediastore.NewGridStore(db, conf.Media.PublicURL, conf.Media.Secret, ttl, lg)
		assistant.SetMediaStore(gridStore)
		handler.SetMediaCleaner(gridStore)
		files = gridStore
		lg.With(slog.String("public_url", conf.Media.PublicURL)).Info("gridfs media store initialized")
	} else {
		assistant.SetMediaStore(mediastore.InlineStore{})
		lg.Info("inline media store initialized")
	}
	handler.SetAssistant(assistant)
	lg.With(
		sl.Secret("openai_key", conf.OpenAI.ApiKey),
		slog.String("model", conf.OpenAI.Model),
	).Info("assistant initialized")

	waBot := whatsapp.NewWhatsAppBot(conf, lg)
	handler.SetMessenger(waBot)

	hub := ws.NewHub(lg.With(sl.Module("ws.hub")))
	go hub.Run()
	handler.SetMonitor(hub)

	handler.Init()

	if tgBot != nil {
		tgBot.SetCore(handler)
		go func() {
			if err := tgBot.Start(); err != nil {
				lg.Error("telegram bot error", sl.Err(err))
			}
		}()
	}

	handlerTimeout := time.Duration(conf.Queue.HandlerTimeout) * time.Second
	var publisher pubsub.Publisher
	if conf.Queue.Enabled {
		conn, err := pubsub.DialWithRetry(ctx, pubsub.ConnectionOptions{
			URL:           conf.Queue.URL,
			RetryAttempts: conf.Queue.RetryAttempts,
			Delay:         time.Second,
			Logger:        lg,
		})
		if err != nil {
			lg.Error("rabbitmq connect", sl.Err(err))
			return
		}
		defer conn.Close()

		publisher, err = pubsub.NewPublisher(conn, conf.Queue.Exchange, conf.Queue.RoutingKey, lg)
		if err != nil {
			lg.Error("rabbitmq publisher", sl.Err(err))
			return
		}

		consumer := pubsub.NewConsumer(conn, pubsub.ConsumerOptions{
			Exchange:       conf.Queue.Exchange,
			Queue:          conf.Queue.Queue,
			RoutingKey:     conf.Queue.RoutingKey,
			Workers:        conf.Queue.Workers,
			Prefetch:       conf.Queue.Prefetch,
			BatchSize:      conf.Queue.BatchSize,
			HandlerTimeout: handlerTimeout,
		}, handler.HandleRecords, lg)
		if err = consumer.Start(ctx); err != nil {
			lg.Error("rabbitmq consumer", sl.Err(err))
			return
		}
		lg.With(
			slog.String("exchange", conf.Queue.Exchange),
			slog.String("queue", conf.Queue.Queue),
			slog.Int("workers", conf.Queue.Workers),
		).Info("queue initialized")
	} else {
		publisher = pubsub.NewInlinePublisher(handler.HandleWebhook, handlerTimeout)
		lg.Info("queue disabled, processing webhooks inline")
	}
	defer publisher.Close()

	// *** blocking start with http server ***
	err = api.New(conf, lg, handler, api.Services{
		Webhook:   waBot,
		Publisher: publisher,
		Media:     files,
		Monitor:   hub,
	})
	if err != nil {
		lg.Error("server start", sl.Err(err))
		return
	}
	lg.Error("service stopped")
}

func parseLevel(level string) slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		return slog.LevelWarn
	}
	return l
}
