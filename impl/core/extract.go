package core

import (
	"WaGPT/entity"
	"WaGPT/internal/lib/sl"
	"context"
	"fmt"
	"log/slog"
)

// extractQuestion turns one webhook message into a question. Unsupported
// kinds, missing fields and failed downloads yield false.
func (c *Core) extractQuestion(ctx context.Context, msg entity.WebhookMessage) (q entity.Question, ok bool) {
	log := c.log.With(
		slog.String("sender", msg.From),
		slog.String("message_id", msg.ID),
		slog.String("type", msg.Type),
	)
	defer func() {
		if r := recover(); r != nil {
			log.With(slog.Any("panic", r)).Error("extract question")
			q, ok = entity.Question{}, false
		}
	}()

	switch msg.Type {
	case entity.MessageTypeText:
		if msg.Text == nil || msg.Text.Body == "" {
			log.Debug("empty text message")
			return entity.Question{}, false
		}
		return entity.TextQuestion(msg.Text.Body), true

	case entity.MessageTypeAudio:
		media, err := c.download(ctx, msg.Audio)
		if err != nil {
			log.With(sl.Err(err)).Warn("audio download")
			return entity.Question{}, false
		}
		return entity.AudioQuestion(media.Data, media.MimeType), true

	case entity.MessageTypeImage:
		media, err := c.download(ctx, msg.Image)
		if err != nil {
			log.With(sl.Err(err)).Warn("image download")
			return entity.Question{}, false
		}
		return entity.ImageQuestion(media.Data, media.MimeType, msg.Image.Caption), true

	default:
		log.Debug("unsupported message type")
		return entity.Question{}, false
	}
}

func (c *Core) download(ctx context.Context, ref *entity.WebhookMedia) (entity.Media, error) {
	if ref == nil || ref.ID == "" {
		return entity.Media{}, fmt.Errorf("missing media id")
	}
	if c.messenger == nil {
		return entity.Media{}, fmt.Errorf("messenger not set")
	}
	media, err := c.messenger.DownloadMedia(ctx, ref.ID)
	if err != nil {
		return entity.Media{}, err
	}
	if len(media.Data) == 0 {
		return entity.Media{}, fmt.Errorf("empty media %s", ref.ID)
	}
	if media.MimeType == "" {
		media.MimeType = ref.MimeType
	}
	return media, nil
}
