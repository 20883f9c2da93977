package core

import (
	"WaGPT/entity"
	"WaGPT/internal/lib/sl"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
)

// HandleWebhook processes a single raw webhook body.
func (c *Core) HandleWebhook(ctx context.Context, body []byte) {
	c.HandleRecords(ctx, []entity.QueueRecord{{ID: uuid.NewString(), Body: body}})
}

// HandleRecords processes one queue delivery. Questions of the same sender
// are merged across all records, so each sender gets exactly one answer per
// delivery. A record that fails to decode or extract never reaches the others.
func (c *Core) HandleRecords(ctx context.Context, records []entity.QueueRecord) {
	batch := newAggregation()
	for _, record := range records {
		agg, err := c.aggregateRecord(ctx, record)
		if err != nil {
			c.log.With(
				slog.String("record", record.ID),
				sl.Err(err),
			).Error("handle record")
			continue
		}
		batch.merge(agg)
	}

	c.log.With(
		slog.Int("records", len(records)),
		slog.Int("senders", len(batch.Senders)),
	).Debug("batch aggregated")

	for _, sender := range batch.Senders {
		c.processSender(ctx, sender, batch.Name(sender), batch.QuestionsBySender[sender])
	}
}

func (c *Core) aggregateRecord(ctx context.Context, record entity.QueueRecord) (agg Aggregation, err error) {
	defer func() {
		if r := recover(); r != nil {
			agg, err = Aggregation{}, fmt.Errorf("panic: %v", r)
		}
	}()

	var payload entity.WebhookPayload
	if err = json.Unmarshal(record.Body, &payload); err != nil {
		return Aggregation{}, fmt.Errorf("decode webhook payload: %w", err)
	}
	return c.aggregate(ctx, payload), nil
}

func (c *Core) processSender(ctx context.Context, sender, name string, questions []entity.Question) {
	defer func() {
		if r := recover(); r != nil {
			c.log.With(
				slog.String("sender", sender),
				slog.Any("panic", r),
			).Error("process sender")
		}
	}()

	if c.ass == nil {
		c.log.Error("assistant not set")
		return
	}

	history := c.GetHistory(ctx, sender)
	answer := c.ass.Ask(ctx, sender, name, questions, history)

	c.reply(ctx, sender, answer)

	if c.history != nil {
		for _, turn := range answer.Turns {
			if len(turn.Questions) == 0 {
				continue
			}
			c.history.Add(ctx, sender, turn)
		}
	}

	if c.monitor != nil {
		c.monitor.BroadcastTurn(entity.TurnEvent{
			Sender:     sender,
			Name:       name,
			AnswerType: answer.Type,
			Questions:  len(questions),
			Failed:     answer.Failed(),
			At:         c.now(),
		})
	}

	c.log.With(
		slog.String("sender", sender),
		slog.Int("questions", len(questions)),
		slog.String("answer_type", string(answer.Type)),
		slog.Bool("failed", answer.Failed()),
	).Info("sender processed")
}
