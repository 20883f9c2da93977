package gpt

import (
	"github.com/sashabaranov/go-openai"
	"github.com/sashabaranov/go-openai/jsonschema"
)

type ToolName string

const (
	ToolConvertCurrency ToolName = "convert_currency"
	ToolGenerateImage   ToolName = "generate_image"
)

var toolset = []openai.Tool{
	{
		Type: openai.ToolTypeFunction,
		Function: &openai.FunctionDefinition{
			Name:        string(ToolConvertCurrency),
			Description: "Convert an amount of money between two currencies using today's exchange rate.",
			Parameters: jsonschema.Definition{
				Type: jsonschema.Object,
				Properties: map[string]jsonschema.Definition{
					"amount": {
						Type:        jsonschema.Number,
						Description: "The amount to convert, greater than zero.",
					},
					"from": {
						Type:        jsonschema.String,
						Description: "Currency code to convert from, e.g. USD.",
					},
					"to": {
						Type:        jsonschema.String,
						Description: "Currency code to convert to, e.g. EUR.",
					},
				},
				Required: []string{"amount", "from", "to"},
			},
		},
	},
	{
		Type: openai.ToolTypeFunction,
		Function: &openai.FunctionDefinition{
			Name:        string(ToolGenerateImage),
			Description: "Generate an image from a text description. The image is sent to the user directly.",
			Parameters: jsonschema.Definition{
				Type: jsonschema.Object,
				Properties: map[string]jsonschema.Definition{
					"prompt": {
						Type:        jsonschema.String,
						Description: "A detailed description of the image.",
					},
				},
				Required: []string{"prompt"},
			},
		},
	},
}
