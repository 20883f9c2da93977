package history

import (
	"WaGPT/entity"
	"context"
)

type Core interface {
	GetHistory(ctx context.Context, sender string) []entity.ChatTurn
	ResetHistory(ctx context.Context, sender string) error
}
