package core

import (
	"WaGPT/entity"
	"WaGPT/internal/lib/sl"
	"context"
	"log/slog"
)

// reply delivers the answer once. Errors are logged and not retried.
func (c *Core) reply(ctx context.Context, sender string, answer entity.Answer) {
	if c.messenger == nil {
		c.log.Error("messenger not set, reply dropped")
		return
	}

	var err error
	switch answer.Type {
	case entity.AnswerImage:
		err = c.messenger.SendImage(ctx, sender, answer.Content)
	default:
		err = c.messenger.SendText(ctx, sender, answer.Content)
	}
	if err != nil {
		c.log.With(
			slog.String("sender", sender),
			slog.String("type", string(answer.Type)),
			sl.Err(err),
		).Error("send reply")
	}
}
