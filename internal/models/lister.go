package models

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/sashabaranov/go-openai"
	"google.golang.org/genai"
)

// Config holds the credentials used for listing
type Config struct {
	OpenAIKey     string
	OpenAIBaseURL string
	GeminiKey     string
	GeminiBaseURL string
}

// Lister handles listing available models
type Lister struct {
	config Config
	out    io.Writer
}

// NewLister creates a new model lister printing to out
func NewLister(config Config, out io.Writer) *Lister {
	return &Lister{config: config, out: out}
}

// ListAvailableModels prints the models of every provider a key is configured for
func (l *Lister) ListAvailableModels(ctx context.Context) error {
	if l.config.OpenAIKey == "" && l.config.GeminiKey == "" {
		return fmt.Errorf("no API key found. Set GEMINI_API_KEY or OPENAI_API_KEY, or configure them in .vocalens.yaml")
	}

	if l.config.GeminiKey != "" {
		if err := l.listGemini(ctx); err != nil {
			return err
		}
	}
	if l.config.OpenAIKey != "" {
		if err := l.listOpenAI(ctx); err != nil {
			return err
		}
	}
	return nil
}

func (l *Lister) listGemini(ctx context.Context) error {
	clientConfig := &genai.ClientConfig{
		APIKey:  l.config.GeminiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if l.config.GeminiBaseURL != "" {
		clientConfig.HTTPOptions = genai.HTTPOptions{BaseURL: l.config.GeminiBaseURL}
	}

	client, err := genai.NewClient(ctx, clientConfig)
	if err != nil {
		return fmt.Errorf("failed to create genai client: %w", err)
	}

	var visionModels []string
	for model, err := range client.Models.All(ctx) {
		if err != nil {
			return fmt.Errorf("failed to list Gemini models: %w", err)
		}
		if !supports(model.SupportedActions, "generateContent") {
			continue
		}
		name := strings.TrimPrefix(model.Name, "models/")
		if strings.Contains(name, "gemini") && !strings.Contains(name, "embedding") {
			visionModels = append(visionModels, name)
		}
	}
	sort.Strings(visionModels)

	fmt.Fprintln(l.out, "Available Gemini Models:")
	printSection(l.out, "Image Recognition Models (--recognizer gemini):", visionModels, "No Gemini content models found")
	return nil
}

func (l *Lister) listOpenAI(ctx context.Context) error {
	clientConfig := openai.DefaultConfig(l.config.OpenAIKey)
	if l.config.OpenAIBaseURL != "" {
		clientConfig.BaseURL = l.config.OpenAIBaseURL
	}
	client := openai.NewClientWithConfig(clientConfig)

	models, err := client.ListModels(ctx)
	if err != nil {
		return fmt.Errorf("failed to list models: %w", err)
	}

	ttsModels := []string{}
	visionModels := []string{}
	for _, model := range models.Models {
		id := model.ID
		switch {
		case strings.Contains(id, "tts"):
			ttsModels = append(ttsModels, id)
		case strings.Contains(id, "audio") || strings.Contains(id, "realtime") || strings.Contains(id, "transcribe"):
		case hasAnyPrefix(id, "gpt-4o", "gpt-4.1", "gpt-5", "o1", "o3", "o4"):
			visionModels = append(visionModels, id)
		}
	}
	sort.Strings(ttsModels)
	sort.Strings(visionModels)

	fmt.Fprintln(l.out, "\nAvailable OpenAI Models:")
	printSection(l.out, "Vision Chat Models (--recognizer openai):", visionModels, "No vision models found")
	printSection(l.out, "Text-to-Speech (TTS) Models (--speech openai):", ttsModels, "No TTS models found")
	return nil
}

func printSection(w io.Writer, title string, models []string, empty string) {
	fmt.Fprintf(w, "\n%s\n", title)
	if len(models) == 0 {
		fmt.Fprintf(w, "  %s\n", empty)
		return
	}
	for _, model := range models {
		fmt.Fprintf(w, "  %s\n", model)
	}
}

func supports(actions []string, action string) bool {
	for _, a := range actions {
		if a == action {
			return true
		}
	}
	return false
}

func hasAnyPrefix(s string, prefixes ...string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}
