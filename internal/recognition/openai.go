package recognition

import (
	"context"
	"fmt"

	"github.com/sashabaranov/go-openai"

	"codeberg.org/snonux/vocalens/internal/camera"
)

// OpenAIRecognizer implements Recognizer using an OpenAI vision model
type OpenAIRecognizer struct {
	client *openai.Client
	model  string
}

// NewOpenAIRecognizer creates a new OpenAI recognizer
func NewOpenAIRecognizer(config *Config) (*OpenAIRecognizer, error) {
	if config.OpenAIKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}

	clientConfig := openai.DefaultConfig(config.OpenAIKey)
	if config.OpenAIBaseURL != "" {
		clientConfig.BaseURL = config.OpenAIBaseURL
	}

	model := config.OpenAIModel
	if model == "" {
		model = DefaultConfig().OpenAIModel
	}

	return &OpenAIRecognizer{
		client: openai.NewClientWithConfig(clientConfig),
		model:  model,
	}, nil
}

// Recognize sends the photo as a data URI in a chat completion using JSON mode
func (o *OpenAIRecognizer) Recognize(ctx context.Context, img *camera.Image) (*Result, error) {
	req := openai.ChatCompletionRequest{
		Model: o.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: schemaInstruction(),
			},
			{
				Role: openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{
					{
						Type: openai.ChatMessagePartTypeText,
						Text: Prompt,
					},
					{
						Type: openai.ChatMessagePartTypeImageURL,
						ImageURL: &openai.ChatMessageImageURL{
							URL:    img.DataURI(),
							Detail: openai.ImageURLDetailLow,
						},
					},
				},
			},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Temperature: 0.2,
	}

	resp, err := o.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("OpenAI API error: %w", err)
	}

	if len(resp.Choices) == 0 {
		return nil, ErrEmptyResponse
	}

	return Parse(resp.Choices[0].Message.Content)
}

// Name returns the provider name
func (o *OpenAIRecognizer) Name() string {
	return "openai"
}
