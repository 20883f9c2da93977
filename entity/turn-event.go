package entity

import "time"

// TurnEvent summarizes a processed sender for the live monitor.
type TurnEvent struct {
	Sender     string     `json:"sender"`
	Name       string     `json:"name"`
	AnswerType AnswerType `json:"answer_type"`
	Questions  int        `json:"questions"`
	Failed     bool       `json:"failed"`
	At         time.Time  `json:"at"`
}
