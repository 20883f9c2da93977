package gpt

import "errors"

var (
	ErrUnknownTool   = errors.New("unknown tool")
	ErrEmptyAnswer   = errors.New("empty answer from model")
	ErrNoQuestions   = errors.New("no usable questions")
	ErrToolRoundsMax = errors.New("tool round limit reached")
)
