package entity

type QuestionType string

const (
	QuestionText  QuestionType = "text"
	QuestionImage QuestionType = "image"
	QuestionAudio QuestionType = "audio"
)

// Question is a normalized user message ready for the assistant.
// Text is set for text questions, Data and MimeType for media, Caption optionally for images.
type Question struct {
	Type     QuestionType
	Text     string
	Data     []byte
	MimeType string
	Caption  string
}

func TextQuestion(text string) Question {
	return Question{Type: QuestionText, Text: text}
}

func ImageQuestion(data []byte, mimeType, caption string) Question {
	return Question{Type: QuestionImage, Data: data, MimeType: mimeType, Caption: caption}
}

func AudioQuestion(data []byte, mimeType string) Question {
	return Question{Type: QuestionAudio, Data: data, MimeType: mimeType}
}
