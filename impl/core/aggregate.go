package core

import (
	"WaGPT/entity"
	"context"
	"log/slog"
	"strconv"
	"time"
)

// Aggregation groups the questions of one webhook payload by sender.
type Aggregation struct {
	QuestionsBySender map[string][]entity.Question
	NameBySender      map[string]string
	// Senders lists the keys of QuestionsBySender in first-seen order.
	Senders []string
}

// Name returns the display name of sender or "Unknown".
func (a Aggregation) Name(sender string) string {
	if name, ok := a.NameBySender[sender]; ok && name != "" {
		return name
	}
	return unknownName
}

func newAggregation() Aggregation {
	return Aggregation{
		QuestionsBySender: make(map[string][]entity.Question),
		NameBySender:      make(map[string]string),
	}
}

// merge appends other after a, keeping first-seen sender order and the first
// known name of each sender.
func (a *Aggregation) merge(other Aggregation) {
	for _, sender := range other.Senders {
		if _, seen := a.QuestionsBySender[sender]; !seen {
			a.Senders = append(a.Senders, sender)
		}
		a.QuestionsBySender[sender] = append(a.QuestionsBySender[sender], other.QuestionsBySender[sender]...)
	}
	for sender, name := range other.NameBySender {
		if _, named := a.NameBySender[sender]; !named {
			a.NameBySender[sender] = name
		}
	}
}

func (c *Core) aggregate(ctx context.Context, payload entity.WebhookPayload) Aggregation {
	agg := newAggregation()
	now := c.now()

	for _, entry := range payload.Entry {
		for _, change := range entry.Changes {
			for _, msg := range change.Value.Messages {
				if msg.From == "" {
					c.log.With(slog.String("message_id", msg.ID)).Debug("message without sender dropped")
					continue
				}
				if !fresh(msg.Timestamp, now) {
					c.log.With(
						slog.String("sender", msg.From),
						slog.String("timestamp", msg.Timestamp),
					).Info("stale message dropped")
					continue
				}

				question, ok := c.extractQuestion(ctx, msg)
				if !ok {
					continue
				}

				if _, seen := agg.QuestionsBySender[msg.From]; !seen {
					agg.Senders = append(agg.Senders, msg.From)
				}
				agg.QuestionsBySender[msg.From] = append(agg.QuestionsBySender[msg.From], question)

				if _, named := agg.NameBySender[msg.From]; !named {
					if name, found := change.Value.ContactName(msg.From); found {
						agg.NameBySender[msg.From] = name
					}
				}
			}
		}
	}
	return agg
}

// fresh reports whether a unix-seconds timestamp lies within the freshness window.
func fresh(timestamp string, now time.Time) bool {
	sec, err := strconv.ParseInt(timestamp, 10, 64)
	if err != nil {
		return false
	}
	return now.Sub(time.Unix(sec, 0)) <= freshnessWindow
}
