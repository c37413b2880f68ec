package recognition

import (
	"context"
	"fmt"

	"google.golang.org/genai"

	"codeberg.org/snonux/vocalens/internal/camera"
)

// GeminiRecognizer implements Recognizer using Google's Gemini API
type GeminiRecognizer struct {
	client *genai.Client
	model  string
}

// NewGeminiRecognizer creates a new Gemini recognizer
func NewGeminiRecognizer(ctx context.Context, config *Config) (*GeminiRecognizer, error) {
	if config.GeminiKey == "" {
		return nil, fmt.Errorf("Gemini API key is required")
	}

	clientConfig := &genai.ClientConfig{
		APIKey:  config.GeminiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if config.GeminiBaseURL != "" {
		clientConfig.HTTPOptions = genai.HTTPOptions{BaseURL: config.GeminiBaseURL}
	}

	client, err := genai.NewClient(ctx, clientConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	model := config.GeminiModel
	if model == "" {
		model = DefaultConfig().GeminiModel
	}

	return &GeminiRecognizer{client: client, model: model}, nil
}

// Recognize sends the photo inline together with the fixed prompt and
// asks for JSON matching Schema.
func (g *GeminiRecognizer) Recognize(ctx context.Context, img *camera.Image) (*Result, error) {
	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{
			genai.NewPartFromBytes(img.Data, img.MIMEType),
			genai.NewPartFromText(Prompt),
		}, genai.RoleUser),
	}
	config := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   Schema(),
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, config)
	if err != nil {
		return nil, fmt.Errorf("gemini API error: %w", err)
	}

	return Parse(resp.Text())
}

// Name returns the provider name
func (g *GeminiRecognizer) Name() string {
	return "gemini"
}
