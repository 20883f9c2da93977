package entity

import "github.com/sashabaranov/go-openai"

// ToolCall records one function invocation requested by the model and the result sent back.
type ToolCall struct {
	ID           string `json:"id"`
	FunctionName string `json:"function_name"`
	Arguments    string `json:"arguments"`
	Response     string `json:"response"`
}

// ChatTurn is one persisted exchange. Messages are kept in provider format
// so they can be replayed verbatim into a later prompt.
type ChatTurn struct {
	Questions []openai.ChatCompletionMessage `json:"questions"`
	ToolCalls []ToolCall                     `json:"tool_calls,omitempty"`
	Answer    openai.ChatCompletionMessage   `json:"answer"`
	Failed    bool                           `json:"failed,omitempty"`
}

// Messages expands the turn in the order the model originally saw it:
// questions, one request/response pair per tool call, then the answer.
func (t ChatTurn) Messages() []openai.ChatCompletionMessage {
	messages := make([]openai.ChatCompletionMessage, 0, len(t.Questions)+2*len(t.ToolCalls)+1)
	messages = append(messages, t.Questions...)
	for _, call := range t.ToolCalls {
		messages = append(messages,
			openai.ChatCompletionMessage{
				Role: openai.ChatMessageRoleAssistant,
				ToolCalls: []openai.ToolCall{{
					ID:   call.ID,
					Type: openai.ToolTypeFunction,
					Function: openai.FunctionCall{
						Name:      call.FunctionName,
						Arguments: call.Arguments,
					},
				}},
			},
			openai.ChatCompletionMessage{
				Role:       openai.ChatMessageRoleTool,
				ToolCallID: call.ID,
				Content:    call.Response,
			},
		)
	}
	if t.Answer.Role != "" {
		messages = append(messages, t.Answer)
	}
	return messages
}
