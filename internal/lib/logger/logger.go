package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
)

const (
	envLocal = "local"
	envDev   = "dev"
	envProd  = "prod"

	logFile = "wagpt.log"
)

func SetupLogger(env, logPath string) *slog.Logger {
	var logger *slog.Logger

	switch env {
	case envLocal:
		logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	case envDev:
		logger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	case envProd:
		var w io.Writer = os.Stdout
		if logPath != "" {
			f, err := os.OpenFile(filepath.Join(logPath, logFile), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
			if err == nil {
				w = io.MultiWriter(os.Stdout, f)
			}
		}
		logger = slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelInfo}))
	default:
		logger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	}

	return logger
}

// Sender delivers a plain text alert to an operator.
type Sender interface {
	SendMessage(msg string)
}

// SetupTelegramHandler duplicates records at or above level to the sender.
func SetupTelegramHandler(log *slog.Logger, sender Sender, level slog.Level) *slog.Logger {
	return slog.New(&alertHandler{
		next:   log.Handler(),
		sender: sender,
		level:  level,
	})
}

type alertHandler struct {
	next   slog.Handler
	sender Sender
	level  slog.Level
	attrs  []slog.Attr
}

func (h *alertHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *alertHandler) Handle(ctx context.Context, r slog.Record) error {
	if r.Level >= h.level {
		h.sender.SendMessage(formatRecord(r, h.attrs))
	}
	return h.next.Handle(ctx, r)
}

func (h *alertHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	merged := make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	merged = append(merged, h.attrs...)
	merged = append(merged, attrs...)
	return &alertHandler{
		next:   h.next.WithAttrs(attrs),
		sender: h.sender,
		level:  h.level,
		attrs:  merged,
	}
}

func (h *alertHandler) WithGroup(name string) slog.Handler {
	return &alertHandler{
		next:   h.next.WithGroup(name),
		sender: h.sender,
		level:  h.level,
		attrs:  h.attrs,
	}
}

func formatRecord(r slog.Record, attrs []slog.Attr) string {
	text := r.Level.String() + ": " + r.Message
	for _, a := range attrs {
		text += "\n" + a.Key + ": " + a.Value.String()
	}
	r.Attrs(func(a slog.Attr) bool {
		text += "\n" + a.Key + ": " + a.Value.String()
		return true
	})
	return text
}
