package speech

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/sashabaranov/go-openai"
)

// OpenAISynthesizer implements Synthesizer using OpenAI TTS
type OpenAISynthesizer struct {
	client      *openai.Client
	config      *Config
	cacheDir    string
	enableCache bool
}

// NewOpenAISynthesizer creates a new OpenAI TTS synthesizer
func NewOpenAISynthesizer(config *Config) (*OpenAISynthesizer, error) {
	if config.OpenAIKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}

	clientConfig := openai.DefaultConfig(config.OpenAIKey)
	if config.OpenAIBaseURL != "" {
		clientConfig.BaseURL = config.OpenAIBaseURL
	}

	s := &OpenAISynthesizer{
		client:      openai.NewClientWithConfig(clientConfig),
		config:      config,
		cacheDir:    config.CacheDir,
		enableCache: config.EnableCache && config.CacheDir != "",
	}

	if s.enableCache {
		if err := os.MkdirAll(s.cacheDir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create cache directory: %w", err)
		}
	}

	return s, nil
}

// Synthesize generates speech using OpenAI TTS, serving repeats from the cache
func (s *OpenAISynthesizer) Synthesize(ctx context.Context, text, locale, outputFile string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return fmt.Errorf("text cannot be empty")
	}

	instruction := s.instruction(locale)

	format := responseFormat(outputFile)

	if s.enableCache {
		cacheFile := s.cacheFilePath(text, instruction, format)
		if _, err := os.Stat(cacheFile); err == nil {
			return copyFile(cacheFile, outputFile)
		}
	}

	req := openai.CreateSpeechRequest{
		Model:          openai.SpeechModel(s.config.OpenAIModel),
		Input:          text,
		Voice:          openai.SpeechVoice(s.config.OpenAIVoice),
		Speed:          s.config.OpenAISpeed,
		ResponseFormat: format,
	}
	if supportsInstructions(s.config.OpenAIModel) {
		req.Instructions = instruction
	}

	response, err := s.client.CreateSpeech(ctx, req)
	if err != nil {
		if strings.Contains(err.Error(), "does not have access to model") && supportsInstructions(s.config.OpenAIModel) {
			return fmt.Errorf("OpenAI TTS API error: %w\nNote: The %s model requires access. Try --speech-model tts-1 instead", err, s.config.OpenAIModel)
		}
		return fmt.Errorf("OpenAI TTS API error: %w", err)
	}
	defer response.Close()

	if err := writeAudio(response, outputFile); err != nil {
		return err
	}

	if s.enableCache {
		_ = copyFile(outputFile, s.cacheFilePath(text, instruction, format)) // cache errors are not fatal
	}
	return nil
}

// Name returns the provider name
func (s *OpenAISynthesizer) Name() string {
	return "openai"
}

// IsAvailable checks that a key is configured without spending credits
func (s *OpenAISynthesizer) IsAvailable() error {
	if s.config.OpenAIKey == "" {
		return fmt.Errorf("OpenAI API key not configured")
	}
	return nil
}

// instruction tells the voice model which language the word is in, since
// a single short word is often ambiguous.
func (s *OpenAISynthesizer) instruction(locale string) string {
	name := localeNames[locale]
	if name == "" {
		name = "English"
	}
	return fmt.Sprintf("You are speaking %s (%s). Pronounce the word with authentic native phonetics. Speak slowly, warmly and clearly for a young child learning new words.", name, locale)
}

// cacheFilePath derives the cache location from the text and voice settings
func (s *OpenAISynthesizer) cacheFilePath(text, instruction string, format openai.SpeechResponseFormat) string {
	h := md5.New()
	h.Write([]byte(text))
	h.Write([]byte(s.config.OpenAIModel))
	h.Write([]byte(s.config.OpenAIVoice))
	h.Write([]byte(fmt.Sprintf("%.2f", s.config.OpenAISpeed)))
	if supportsInstructions(s.config.OpenAIModel) {
		h.Write([]byte(instruction))
	}
	hash := hex.EncodeToString(h.Sum(nil))

	// first 2 chars as subdirectory
	return filepath.Join(s.cacheDir, hash[:2], hash[2:]+"."+string(format))
}

// responseFormat requests WAV for .wav output files and MP3 otherwise
func responseFormat(outputFile string) openai.SpeechResponseFormat {
	if strings.EqualFold(filepath.Ext(outputFile), ".wav") {
		return openai.SpeechResponseFormatWav
	}
	return openai.SpeechResponseFormatMp3
}

func supportsInstructions(model string) bool {
	return model == "gpt-4o-mini-tts" || model == "gpt-4o-mini-audio-preview"
}

var localeNames = map[string]string{
	"ko-KR": "Korean",
	"en-US": "English",
	"ja-JP": "Japanese",
	"zh-CN": "Mandarin Chinese",
	"es-ES": "Spanish",
	"fr-FR": "French",
	"de-DE": "German",
	"ru-RU": "Russian",
	"hi-IN": "Hindi",
}

func writeAudio(r io.Reader, outputFile string) error {
	if dir := filepath.Dir(outputFile); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	out, err := os.Create(outputFile)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer out.Close()

	written, err := io.Copy(out, r)
	if err != nil {
		return fmt.Errorf("failed to write audio file: %w", err)
	}
	if written == 0 {
		return fmt.Errorf("no audio data received")
	}
	return nil
}

// copyFile copies a file from src to dst
func copyFile(src, dst string) error {
	if dir := filepath.Dir(dst); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}

	source, err := os.Open(src)
	if err != nil {
		return err
	}
	defer source.Close()

	destination, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer destination.Close()

	_, err = io.Copy(destination, source)
	return err
}
