package gpt

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/sashabaranov/go-openai"
)

// transcribe sends audio bytes to the transcription model. The file name only
// tells the API which container format to expect.
func (a *Assistant) transcribe(ctx context.Context, data []byte, mimeType string) (string, error) {
	ext := ".ogg"
	if m := mimetype.Lookup(mimeBase(mimeType)); m != nil && m.Extension() != "" {
		ext = m.Extension()
	} else if m := mimetype.Detect(data); m.Extension() != "" {
		ext = m.Extension()
	}

	resp, err := a.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    a.transcriptionModel,
		FilePath: "audio" + ext,
		Reader:   bytes.NewReader(data),
	})
	if err != nil {
		return "", fmt.Errorf("transcription failed: %w", err)
	}
	return strings.TrimSpace(resp.Text), nil
}

// mimeBase strips parameters such as "; codecs=opus".
func mimeBase(mimeType string) string {
	base, _, _ := strings.Cut(mimeType, ";")
	return strings.TrimSpace(base)
}
