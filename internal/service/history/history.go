package history

import (
	"WaGPT/entity"
	"WaGPT/internal/lib/sl"
	"context"
	"encoding/json"
	"log/slog"
	"time"
)

const keyPrefix = "chat-history:"

// Backend stores per-key lists of serialized turns, newest first.
type Backend interface {
	PushChatTurn(ctx context.Context, key, payload string, maxCount int, ttl time.Duration) error
	GetChatTurns(ctx context.Context, key string, maxCount int) ([]string, error)
	DeleteChatTurns(ctx context.Context, key string) error
}

type Service struct {
	backend  Backend
	maxCount int
	ttl      time.Duration
	log      *slog.Logger
}

// NewService returns a history service. With maxCount or ttlMinutes not
// positive every operation is a no-op.
func NewService(backend Backend, maxCount, ttlMinutes int, logger *slog.Logger) *Service {
	return &Service{
		backend:  backend,
		maxCount: maxCount,
		ttl:      time.Duration(ttlMinutes) * time.Minute,
		log:      logger.With(sl.Module("history")),
	}
}

func (s *Service) Enabled() bool {
	return s.backend != nil && s.maxCount > 0 && s.ttl > 0
}

func key(sender string) string {
	return keyPrefix + sender
}

// Get returns the stored turns of sender in chronological order.
// Failures are logged and reported as an empty history.
func (s *Service) Get(ctx context.Context, sender string) []entity.ChatTurn {
	if !s.Enabled() {
		return nil
	}

	payloads, err := s.backend.GetChatTurns(ctx, key(sender), s.maxCount)
	if err != nil {
		s.log.With(
			slog.String("sender", sender),
			sl.Err(err),
		).Error("get chat history")
		return nil
	}

	turns := make([]entity.ChatTurn, 0, len(payloads))
	for i := len(payloads) - 1; i >= 0; i-- {
		var turn entity.ChatTurn
		if err = json.Unmarshal([]byte(payloads[i]), &turn); err != nil {
			s.log.With(
				slog.String("sender", sender),
				sl.Err(err),
			).Warn("skip malformed chat turn")
			continue
		}
		turns = append(turns, turn)
	}
	return turns
}

// Add pushes turn as the newest entry, evicting the oldest beyond the limit
// and refreshing the expiry.
func (s *Service) Add(ctx context.Context, sender string, turn entity.ChatTurn) {
	if !s.Enabled() {
		return
	}

	payload, err := json.Marshal(turn)
	if err != nil {
		s.log.With(sl.Err(err)).Error("marshal chat turn")
		return
	}

	if err = s.backend.PushChatTurn(ctx, key(sender), string(payload), s.maxCount, s.ttl); err != nil {
		s.log.With(
			slog.String("sender", sender),
			sl.Err(err),
		).Error("add chat history")
	}
}

// Reset drops the whole history of sender.
func (s *Service) Reset(ctx context.Context, sender string) error {
	if !s.Enabled() {
		return nil
	}
	return s.backend.DeleteChatTurns(ctx, key(sender))
}
