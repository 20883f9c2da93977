package bot

import (
	"WaGPT/internal/lib/sl"
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	tgbotapi "github.com/PaulSonOfLars/gotgbot/v2"
	"github.com/PaulSonOfLars/gotgbot/v2/ext"
	"github.com/PaulSonOfLars/gotgbot/v2/ext/handlers"
)

// Core is the part of the relay the admin can operate from Telegram.
type Core interface {
	ResetHistory(ctx context.Context, sender string) error
}

// TgBot forwards alerts to the admin chat and accepts a few admin commands.
type TgBot struct {
	log         *slog.Logger
	api         *tgbotapi.Bot
	botUsername string
	adminId     int64
	core        Core
}

func NewTgBot(botName, apiKey string, adminId int64, log *slog.Logger) (*TgBot, error) {
	tgBot := &TgBot{
		log:         log.With(sl.Module("tgbot")),
		adminId:     adminId,
		botUsername: botName,
	}

	api, err := tgbotapi.NewBot(apiKey, nil)
	if err != nil {
		return nil, fmt.Errorf("creating api instance: %v", err)
	}
	tgBot.api = api

	return tgBot, nil
}

func (t *TgBot) SetCore(core Core) {
	t.core = core
}

func (t *TgBot) Start() error {

	dispatcher := ext.NewDispatcher(&ext.DispatcherOpts{
		// If an error is returned by a handler, log it and continue going.
		Error: func(b *tgbotapi.Bot, ctx *ext.Context, err error) ext.DispatcherAction {
			t.log.Warn("handling update", sl.Err(err))
			return ext.DispatcherActionNoop
		},
		MaxRoutines: ext.DefaultMaxRoutines,
	})
	dispatcher.AddHandler(handlers.NewCommand("start", t.start))
	dispatcher.AddHandler(handlers.NewCommand("reset", t.reset))

	updater := ext.NewUpdater(dispatcher, nil)

	err := updater.StartPolling(t.api, &ext.PollingOpts{
		DropPendingUpdates: true,
		GetUpdatesOpts: &tgbotapi.GetUpdatesOpts{
			Timeout: 9,
			RequestOpts: &tgbotapi.RequestOpts{
				Timeout: time.Second * 10,
			},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to start polling: %w", err)
	}
	t.log.Info("bot started", slog.String("username", t.botUsername))

	// Idle, to keep updates coming in, and avoid bot stopping.
	updater.Idle()

	return nil
}

func (t *TgBot) isAdmin(ctx *ext.Context) bool {
	return ctx.EffectiveSender != nil && ctx.EffectiveSender.Id() == t.adminId
}

func (t *TgBot) start(_ *tgbotapi.Bot, ctx *ext.Context) error {
	if !t.isAdmin(ctx) {
		return nil
	}
	t.plainResponse(ctx.EffectiveChat.Id, "Alerts from WaGPT will be posted here.\nUse /reset <phone> to clear a conversation.")
	return nil
}

// reset clears the conversation history of the WhatsApp number given as argument.
func (t *TgBot) reset(_ *tgbotapi.Bot, ctx *ext.Context) error {
	if !t.isAdmin(ctx) || t.core == nil {
		return nil
	}

	args := ctx.Args()
	if len(args) < 2 {
		t.plainResponse(ctx.EffectiveChat.Id, "Usage: /reset <phone>")
		return nil
	}
	sender := strings.TrimPrefix(args[1], "+")

	c, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := t.core.ResetHistory(c, sender); err != nil {
		t.plainResponse(ctx.EffectiveChat.Id, "Reset failed: "+err.Error())
		return err
	}
	t.plainResponse(ctx.EffectiveChat.Id, "History cleared for "+sender)
	return nil
}

// SendMessage posts an alert to the admin chat.
func (t *TgBot) SendMessage(msg string) {
	if t.adminId == 0 {
		return
	}
	t.plainResponse(t.adminId, msg)
}

func (t *TgBot) plainResponse(chatId int64, text string) {

	text = strings.ReplaceAll(text, "**", "*")
	text = strings.ReplaceAll(text, "![", "[")

	sanitized := sanitize(text, false)

	if sanitized != "" {
		_, err := t.api.SendMessage(chatId, sanitized, &tgbotapi.SendMessageOpts{
			ParseMode: "MarkdownV2",
		})
		if err != nil {
			// not through t.log: errors logged here would be routed back to this bot
			slog.Default().Warn("sending telegram message", slog.Int64("id", chatId), sl.Err(err))
			_, err = t.api.SendMessage(chatId, text, &tgbotapi.SendMessageOpts{})
			if err != nil {
				slog.Default().Warn("sending plain telegram message", slog.Int64("id", chatId), sl.Err(err))
			}
		}
	}
}

func sanitize(input string, preserveLinks bool) string {
	reservedChars := "\\`_{}#+-.!|()[]=>~"
	if preserveLinks {
		reservedChars = "\\`_{}#+-.!|=>~"
	}

	var sb strings.Builder
	for _, char := range input {
		if strings.ContainsRune(reservedChars, char) {
			sb.WriteRune('\\')
		}
		sb.WriteRune(char)
	}

	return sb.String()
}
