package gpt

import (
	"WaGPT/internal/config"
	"WaGPT/internal/lib/sl"
	"context"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/sashabaranov/go-openai"
	"github.com/shopspring/decimal"
)

const errorResponse = "Sorry, I could not answer that right now. Please try again in a moment."

// ChatClient is the subset of the OpenAI API the assistant uses.
type ChatClient interface {
	CreateChatCompletion(ctx context.Context, request openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
	CreateImage(ctx context.Context, request openai.ImageRequest) (openai.ImageResponse, error)
	CreateTranscription(ctx context.Context, request openai.AudioRequest) (openai.AudioResponse, error)
}

type CurrencyService interface {
	Convert(ctx context.Context, amount decimal.Decimal, from, to string) (decimal.Decimal, error)
}

// MediaStore turns uploaded bytes into a URL the model can fetch.
type MediaStore interface {
	Store(ctx context.Context, sender string, data []byte, mimeType string) (string, error)
}

type Assistant struct {
	client             ChatClient
	model              string
	imageModel         string
	imageSize          string
	transcriptionModel string
	systemPrompt       string
	maxToolRounds      int
	currency           CurrencyService
	media              MediaStore
	validate           *validator.Validate
	now                func() time.Time
	log                *slog.Logger
}

func NewAssistant(conf *config.Config, logger *slog.Logger) *Assistant {
	clientConfig := openai.DefaultConfig(conf.OpenAI.ApiKey)
	clientConfig.OrgID = conf.OpenAI.OrgID

	maxToolRounds := conf.OpenAI.MaxToolRounds
	if maxToolRounds < 0 {
		maxToolRounds = 0
	}

	return &Assistant{
		client:             openai.NewClientWithConfig(clientConfig),
		model:              conf.OpenAI.Model,
		imageModel:         conf.OpenAI.ImageModel,
		imageSize:          conf.OpenAI.ImageSize,
		transcriptionModel: conf.OpenAI.TranscriptionModel,
		systemPrompt:       conf.OpenAI.SystemPrompt,
		maxToolRounds:      maxToolRounds,
		validate:           validator.New(validator.WithRequiredStructEnabled()),
		now:                time.Now,
		log:                logger.With(sl.Module("assistant")),
	}
}

func (a *Assistant) SetClient(client ChatClient) {
	a.client = client
}

func (a *Assistant) SetCurrencyService(currency CurrencyService) {
	a.currency = currency
}

func (a *Assistant) SetMediaStore(media MediaStore) {
	a.media = media
}
