package speech

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"codeberg.org/snonux/vocalens/internal/logging"
)

// Synthesizer defines the interface for text-to-speech providers
type Synthesizer interface {
	// Synthesize renders text spoken in locale (BCP-47, e.g. "ko-KR") into outputFile
	Synthesize(ctx context.Context, text, locale, outputFile string) error

	// Name returns the provider name
	Name() string

	// IsAvailable checks if the provider is properly configured and available
	IsAvailable() error
}

// Config holds configuration for speech output
type Config struct {
	Provider string // "openai", "espeak" or "none"

	// OpenAI-specific settings
	OpenAIKey     string
	OpenAIModel   string  // "tts-1", "tts-1-hd", or "gpt-4o-mini-tts"
	OpenAIVoice   string  // "alloy", "coral", "nova", ...
	OpenAISpeed   float64 // 0.25 to 4.0
	OpenAIBaseURL string

	// espeak-ng settings
	ESpeakSpeed int // words per minute

	CacheDir    string
	EnableCache bool

	// Player command override, empty picks a platform default
	PlayerCommand string
}

// DefaultConfig returns default configuration
func DefaultConfig() *Config {
	cacheDir := ""
	if dir, err := os.UserCacheDir(); err == nil {
		cacheDir = filepath.Join(dir, "vocalens", "speech")
	}

	return &Config{
		Provider:    "openai",
		OpenAIModel: "gpt-4o-mini-tts",
		OpenAIVoice: "nova",
		OpenAISpeed: 0.9,
		ESpeakSpeed: 130,
		CacheDir:    cacheDir,
		EnableCache: cacheDir != "",
	}
}

// NewSynthesizer creates the synthesizer selected by the configuration.
// The OpenAI provider falls back to espeak-ng when espeak-ng is installed.
func NewSynthesizer(config *Config, log *logrus.Entry) (Synthesizer, error) {
	if config == nil {
		config = DefaultConfig()
	}

	switch config.Provider {
	case "openai":
		primary, err := NewOpenAISynthesizer(config)
		if err != nil {
			return nil, err
		}
		fallback := NewESpeakSynthesizer(config.ESpeakSpeed)
		if fallback.IsAvailable() != nil {
			return primary, nil
		}
		return NewSynthesizerWithFallback(primary, fallback, log), nil

	case "espeak":
		s := NewESpeakSynthesizer(config.ESpeakSpeed)
		if err := s.IsAvailable(); err != nil {
			return nil, err
		}
		return s, nil

	default:
		return nil, fmt.Errorf("unknown speech provider: %s", config.Provider)
	}
}

// SynthesizerWithFallback wraps a primary synthesizer with a fallback option
type SynthesizerWithFallback struct {
	primary  Synthesizer
	fallback Synthesizer
	log      *logrus.Entry
}

// NewSynthesizerWithFallback creates a synthesizer that falls back to secondary if primary fails
func NewSynthesizerWithFallback(primary, fallback Synthesizer, log *logrus.Entry) Synthesizer {
	if log == nil {
		log = logging.Discard()
	}
	return &SynthesizerWithFallback{
		primary:  primary,
		fallback: fallback,
		log:      log,
	}
}

// Synthesize tries primary provider first, falls back to secondary on error
func (s *SynthesizerWithFallback) Synthesize(ctx context.Context, text, locale, outputFile string) error {
	err := s.primary.Synthesize(ctx, text, locale, outputFile)
	if err == nil || ctx.Err() != nil {
		return err
	}

	s.log.WithError(err).Warnf("Primary speech provider (%s) failed, falling back to %s",
		s.primary.Name(), s.fallback.Name())
	return s.fallback.Synthesize(ctx, text, locale, outputFile)
}

// Name returns the provider name
func (s *SynthesizerWithFallback) Name() string {
	return fmt.Sprintf("%s (fallback: %s)", s.primary.Name(), s.fallback.Name())
}

// IsAvailable checks if at least one provider is available
func (s *SynthesizerWithFallback) IsAvailable() error {
	primaryErr := s.primary.IsAvailable()
	if primaryErr == nil {
		return nil
	}

	fallbackErr := s.fallback.IsAvailable()
	if fallbackErr == nil {
		return nil
	}

	return fmt.Errorf("both providers unavailable: primary=%v, fallback=%v",
		primaryErr, fallbackErr)
}
