package core

import (
	"WaGPT/entity"
	"WaGPT/internal/lib/sl"
	"context"
	"log/slog"
	"time"
)

const (
	freshnessWindow = 2 * time.Minute
	unknownName     = "Unknown"
	cleanupInterval = time.Hour
)

type Assistant interface {
	Ask(ctx context.Context, sender, name string, questions []entity.Question, history []entity.ChatTurn) entity.Answer
}

type History interface {
	Get(ctx context.Context, sender string) []entity.ChatTurn
	Add(ctx context.Context, sender string, turn entity.ChatTurn)
	Reset(ctx context.Context, sender string) error
}

// Messenger talks to the WhatsApp Cloud API.
type Messenger interface {
	SendText(ctx context.Context, to, text string) error
	SendImage(ctx context.Context, to, link string) error
	DownloadMedia(ctx context.Context, mediaID string) (entity.Media, error)
}

type MediaCleaner interface {
	Cleanup(ctx context.Context) (int, error)
}

type Monitor interface {
	BroadcastTurn(event entity.TurnEvent)
}

type Core struct {
	ass       Assistant
	history   History
	messenger Messenger
	media     MediaCleaner
	monitor   Monitor
	now       func() time.Time
	log       *slog.Logger
}

func New(log *slog.Logger) *Core {
	return &Core{
		now: time.Now,
		log: log.With(sl.Module("core")),
	}
}

func (c *Core) SetAssistant(ass Assistant) {
	c.ass = ass
}

func (c *Core) SetHistory(history History) {
	c.history = history
}

func (c *Core) SetMessenger(messenger Messenger) {
	c.messenger = messenger
}

func (c *Core) SetMediaCleaner(media MediaCleaner) {
	c.media = media
}

func (c *Core) SetMonitor(monitor Monitor) {
	c.monitor = monitor
}

// Init starts background maintenance.
func (c *Core) Init() {
	if c.media == nil {
		return
	}
	go func() {
		for {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
			n, err := c.media.Cleanup(ctx)
			cancel()
			if err != nil {
				c.log.With(sl.Err(err)).Error("media cleanup")
			} else if n > 0 {
				c.log.With(slog.Int("deleted", n)).Info("media cleanup")
			}

			time.Sleep(cleanupInterval)
		}
	}()
}

// GetHistory returns the stored conversation of sender, oldest turn first.
func (c *Core) GetHistory(ctx context.Context, sender string) []entity.ChatTurn {
	if c.history == nil {
		return nil
	}
	return c.history.Get(ctx, sender)
}

func (c *Core) ResetHistory(ctx context.Context, sender string) error {
	if c.history == nil {
		return nil
	}
	err := c.history.Reset(ctx, sender)
	if err != nil {
		c.log.With(
			slog.String("sender", sender),
			sl.Err(err),
		).Error("reset history")
		return err
	}
	c.log.With(slog.String("sender", sender)).Info("history reset")
	return nil
}
