package gpt

import (
	"WaGPT/entity"
	"WaGPT/internal/lib/sl"
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/sashabaranov/go-openai"
)

const tokenLimitNote = "\n(ERROR: Token limit reached)"

// Ask answers the questions one sender sent in a batch. It never fails: on any
// error the answer is a fixed apology and the turn is flagged Failed.
func (a *Assistant) Ask(ctx context.Context, sender, name string, questions []entity.Question, history []entity.ChatTurn) entity.Answer {
	turn := entity.ChatTurn{
		Questions: a.convertQuestions(ctx, sender, questions),
	}

	answer, err := a.run(ctx, sender, name, history, &turn)
	if err != nil {
		a.log.With(
			slog.String("sender", sender),
			slog.Int("questions", len(questions)),
			sl.Err(err),
		).Error("ask")

		turn.ToolCalls = nil
		turn.Answer = openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleAssistant,
			Content: errorResponse,
		}
		turn.Failed = true
		return entity.Answer{
			Type:    entity.AnswerText,
			Content: errorResponse,
			Turns:   []entity.ChatTurn{turn},
		}
	}

	answer.Turns = []entity.ChatTurn{turn}
	return answer
}

// run drives the completion, resolving tool calls for at most maxToolRounds
// rounds. The final round is sent without tools so the model has to answer.
func (a *Assistant) run(ctx context.Context, sender, name string, history []entity.ChatTurn, turn *entity.ChatTurn) (entity.Answer, error) {
	if len(turn.Questions) == 0 {
		return entity.Answer{}, ErrNoQuestions
	}

	messages := a.prompt(sender, name, history)
	messages = append(messages, turn.Questions...)

	imageURL := ""
	for round := 0; round <= a.maxToolRounds; round++ {
		req := openai.ChatCompletionRequest{
			Model:    a.model,
			Messages: messages,
		}
		if round < a.maxToolRounds {
			req.Tools = toolset
		}

		resp, err := a.client.CreateChatCompletion(ctx, req)
		if err != nil {
			return entity.Answer{}, fmt.Errorf("chat completion: %w", err)
		}
		if len(resp.Choices) == 0 {
			return entity.Answer{}, ErrEmptyAnswer
		}

		choice := resp.Choices[0]
		message := normalize(choice.Message)
		if message.Role == "" {
			message.Role = openai.ChatMessageRoleAssistant
		}

		if len(message.ToolCalls) > 0 {
			if round == a.maxToolRounds {
				return entity.Answer{}, ErrToolRoundsMax
			}
			messages = append(messages, message)
			for _, call := range message.ToolCalls {
				res, err := a.handleCommand(ctx, sender, call.Function.Name, call.Function.Arguments)
				if err != nil {
					return entity.Answer{}, err
				}
				if res.imageURL != "" {
					imageURL = res.imageURL
				}
				messages = append(messages, openai.ChatCompletionMessage{
					Role:       openai.ChatMessageRoleTool,
					ToolCallID: call.ID,
					Content:    res.output,
				})
				turn.ToolCalls = append(turn.ToolCalls, entity.ToolCall{
					ID:           call.ID,
					FunctionName: call.Function.Name,
					Arguments:    call.Function.Arguments,
					Response:     res.output,
				})
			}
			continue
		}

		if message.Content == "" && len(message.MultiContent) == 0 && imageURL == "" {
			return entity.Answer{}, ErrEmptyAnswer
		}
		turn.Answer = message
		if turn.Answer.Content == "" && len(turn.Answer.MultiContent) == 0 {
			turn.Answer.Content = imageURL
		}

		a.log.With(
			slog.String("sender", sender),
			slog.String("finish_reason", string(choice.FinishReason)),
			slog.Int("tool_calls", len(turn.ToolCalls)),
			slog.Int("total_tokens", resp.Usage.TotalTokens),
		).Debug("answer received")

		if imageURL != "" {
			return entity.Answer{Type: entity.AnswerImage, Content: imageURL}, nil
		}
		text := message.Content
		if choice.FinishReason == openai.FinishReasonLength {
			text += tokenLimitNote
		}
		return entity.Answer{Type: entity.AnswerText, Content: text}, nil
	}

	return entity.Answer{}, ErrToolRoundsMax
}

// normalize drops empty collections so stored turns replay as the API expects.
func normalize(message openai.ChatCompletionMessage) openai.ChatCompletionMessage {
	if len(message.ToolCalls) == 0 {
		message.ToolCalls = nil
	}
	if len(message.MultiContent) == 0 {
		message.MultiContent = nil
	}
	return message
}

// convertQuestions turns questions into user messages. Questions that cannot
// be converted are logged and left out.
func (a *Assistant) convertQuestions(ctx context.Context, sender string, questions []entity.Question) []openai.ChatCompletionMessage {
	messages := make([]openai.ChatCompletionMessage, 0, len(questions))
	for _, q := range questions {
		message, err := a.convertQuestion(ctx, sender, q)
		if err != nil {
			a.log.With(
				slog.String("sender", sender),
				slog.String("type", string(q.Type)),
				sl.Err(err),
			).Warn("question dropped")
			continue
		}
		messages = append(messages, message)
	}
	return messages
}

func (a *Assistant) convertQuestion(ctx context.Context, sender string, q entity.Question) (openai.ChatCompletionMessage, error) {
	switch q.Type {
	case entity.QuestionText:
		if q.Text == "" {
			return openai.ChatCompletionMessage{}, errors.New("empty text")
		}
		return openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: q.Text}, nil

	case entity.QuestionAudio:
		text, err := a.transcribe(ctx, q.Data, q.MimeType)
		if err != nil {
			return openai.ChatCompletionMessage{}, err
		}
		if text == "" {
			return openai.ChatCompletionMessage{}, errors.New("empty transcription")
		}
		return openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: text}, nil

	case entity.QuestionImage:
		if a.media == nil {
			return openai.ChatCompletionMessage{}, errors.New("no media store configured")
		}
		url, err := a.media.Store(ctx, sender, q.Data, q.MimeType)
		if err != nil {
			return openai.ChatCompletionMessage{}, err
		}
		parts := make([]openai.ChatMessagePart, 0, 2)
		if q.Caption != "" {
			parts = append(parts, openai.ChatMessagePart{
				Type: openai.ChatMessagePartTypeText,
				Text: q.Caption,
			})
		}
		parts = append(parts, openai.ChatMessagePart{
			Type: openai.ChatMessagePartTypeImageURL,
			ImageURL: &openai.ChatMessageImageURL{
				URL:    url,
				Detail: openai.ImageURLDetailAuto,
			},
		})
		return openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, MultiContent: parts}, nil

	default:
		return openai.ChatCompletionMessage{}, fmt.Errorf("unsupported question type %q", q.Type)
	}
}
