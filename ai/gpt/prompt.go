package gpt

import (
	"WaGPT/entity"
	"WaGPT/internal/lib/fileurl"
	"WaGPT/internal/lib/phonetime"
	"fmt"
	"time"

	"github.com/sashabaranov/go-openai"
)

const (
	localTimeLayout = "Monday, 2 January 2006 15:04 MST"
	expiredImage    = "(an image was shared here, it is no longer available)"
	// links must stay valid while the provider fetches them
	linkMargin = time.Minute
)

// prompt builds everything that precedes the new questions: instructions,
// user facts and the replayed history, oldest turn first.
func (a *Assistant) prompt(sender, name string, history []entity.ChatTurn) []openai.ChatCompletionMessage {
	local, _ := phonetime.LocalTime(sender, a.now())

	messages := []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: a.systemPrompt},
		{Role: openai.ChatMessageRoleSystem, Content: fmt.Sprintf("The name of the user is %s", name)},
		{Role: openai.ChatMessageRoleSystem, Content: fmt.Sprintf("The current local time of the user is %s", local.Format(localTimeLayout))},
	}
	deadline := a.now().Add(linkMargin)
	for _, turn := range history {
		for _, message := range turn.Messages() {
			messages = append(messages, dropExpiredImages(message, deadline))
		}
	}
	return messages
}

// dropExpiredImages replaces image parts whose signed link is no longer
// valid at deadline with a text note, so the provider never fetches them.
func dropExpiredImages(message openai.ChatCompletionMessage, deadline time.Time) openai.ChatCompletionMessage {
	if len(message.MultiContent) == 0 {
		return message
	}
	parts := make([]openai.ChatMessagePart, 0, len(message.MultiContent))
	for _, part := range message.MultiContent {
		if part.Type == openai.ChatMessagePartTypeImageURL && part.ImageURL != nil && fileurl.Expired(part.ImageURL.URL, deadline) {
			part = openai.ChatMessagePart{Type: openai.ChatMessagePartTypeText, Text: expiredImage}
		}
		parts = append(parts, part)
	}
	message.MultiContent = parts
	return message
}
