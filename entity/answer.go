package entity

type AnswerType string

const (
	AnswerText  AnswerType = "text"
	AnswerImage AnswerType = "image"
)

// Answer is what the assistant produced for one sender. Content is the reply
// text or, for image answers, the image URL.
type Answer struct {
	Type    AnswerType `json:"type"`
	Content string     `json:"content"`
	Turns   []ChatTurn `json:"turns,omitempty"`
}

// Failed reports whether the answer is the fallback produced after an error.
func (a Answer) Failed() bool {
	for _, t := range a.Turns {
		if t.Failed {
			return true
		}
	}
	return false
}
