package gpt

import (
	"WaGPT/internal/lib/sl"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sashabaranov/go-openai"
	"github.com/shopspring/decimal"
)

type convertCurrencyArgs struct {
	Amount float64 `json:"amount" validate:"gt=0"`
	From   string  `json:"from" validate:"required,alpha,min=2,max=10"`
	To     string  `json:"to" validate:"required,alpha,min=2,max=10"`
}

type generateImageArgs struct {
	Prompt string `json:"prompt" validate:"required,max=4000"`
}

type conversionResult struct {
	Amount json.Number `json:"amount"`
	From   string      `json:"from"`
	To     string      `json:"to"`
	Result json.Number `json:"result"`
}

// toolResult is what a tool hands back: text for the model and, for
// generate_image, the link to deliver to the user.
type toolResult struct {
	output   string
	imageURL string
}

// handleCommand runs one tool call. Argument and collaborator errors become
// output for the model; an unknown tool aborts the run.
func (a *Assistant) handleCommand(ctx context.Context, sender, name, args string) (toolResult, error) {
	a.log.With(
		slog.String("command", name),
		slog.String("args", args),
	).Debug("handling command")

	var (
		res toolResult
		err error
	)
	switch ToolName(name) {
	case ToolConvertCurrency:
		res, err = a.handleConvertCurrency(ctx, args)
	case ToolGenerateImage:
		res, err = a.handleGenerateImage(ctx, args)
	default:
		return toolResult{}, fmt.Errorf("%w: %s", ErrUnknownTool, name)
	}
	if err != nil {
		a.log.With(
			slog.String("sender", sender),
			slog.String("command", name),
			sl.Err(err),
		).Warn("command failed")
		return toolResult{output: fmt.Sprintf("Error handling command %s: %v", name, err)}, nil
	}
	return res, nil
}

func (a *Assistant) decodeArgs(args string, v interface{}) error {
	if err := json.Unmarshal([]byte(args), v); err != nil {
		return fmt.Errorf("invalid arguments: %w", err)
	}
	if err := a.validate.Struct(v); err != nil {
		return fmt.Errorf("invalid arguments: %w", err)
	}
	return nil
}

func (a *Assistant) handleConvertCurrency(ctx context.Context, args string) (toolResult, error) {
	var req convertCurrencyArgs
	if err := a.decodeArgs(args, &req); err != nil {
		return toolResult{}, err
	}
	if a.currency == nil {
		return toolResult{}, fmt.Errorf("currency conversion is not available")
	}

	amount := decimal.NewFromFloat(req.Amount)
	result, err := a.currency.Convert(ctx, amount, req.From, req.To)
	if err != nil {
		return toolResult{}, err
	}

	out, err := json.Marshal(conversionResult{
		Amount: json.Number(amount.String()),
		From:   strings.ToUpper(req.From),
		To:     strings.ToUpper(req.To),
		Result: json.Number(result.String()),
	})
	if err != nil {
		return toolResult{}, err
	}
	return toolResult{output: string(out)}, nil
}

func (a *Assistant) handleGenerateImage(ctx context.Context, args string) (toolResult, error) {
	var req generateImageArgs
	if err := a.decodeArgs(args, &req); err != nil {
		return toolResult{}, err
	}

	resp, err := a.client.CreateImage(ctx, openai.ImageRequest{
		Model:          a.imageModel,
		Prompt:         req.Prompt,
		N:              1,
		Size:           a.imageSize,
		ResponseFormat: openai.CreateImageResponseFormatURL,
	})
	if err != nil {
		return toolResult{}, fmt.Errorf("image generation failed: %w", err)
	}
	if len(resp.Data) == 0 || resp.Data[0].URL == "" {
		return toolResult{}, fmt.Errorf("no image returned")
	}

	return toolResult{
		output:   "The image was generated and will be sent to the user right after your reply.",
		imageURL: resp.Data[0].URL,
	}, nil
}
