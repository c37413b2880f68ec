package recognition

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"codeberg.org/snonux/vocalens/internal/camera"
	"codeberg.org/snonux/vocalens/internal/logging"
)

// Recognizer defines the interface for image recognition providers
type Recognizer interface {
	// Recognize sends one image and returns a complete result or an error
	Recognize(ctx context.Context, img *camera.Image) (*Result, error)

	// Name returns the provider name
	Name() string
}

// Config holds configuration for recognition providers
type Config struct {
	Provider string // "gemini", "openai" or "remote"

	// Gemini settings
	GeminiKey     string
	GeminiModel   string
	GeminiBaseURL string // override for proxies and tests

	// OpenAI settings
	OpenAIKey     string
	OpenAIModel   string
	OpenAIBaseURL string

	// Remote proxy settings
	RemoteURL string

	// Per-request deadline, none when 0
	Timeout time.Duration

	// Circuit breaker, disabled when BreakerFailures is 0
	BreakerFailures uint32
	BreakerCooldown time.Duration
}

// DefaultConfig returns default configuration
func DefaultConfig() *Config {
	return &Config{
		Provider:        "gemini",
		GeminiModel:     "gemini-3-flash-preview",
		OpenAIModel:     "gpt-4o-mini",
		Timeout:         60 * time.Second,
		BreakerFailures: 5,
		BreakerCooldown: 30 * time.Second,
	}
}

// NewRecognizer creates the recognizer selected by the configuration
func NewRecognizer(ctx context.Context, config *Config, log *logrus.Entry) (Recognizer, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if log == nil {
		log = logging.Discard()
	}

	var (
		r   Recognizer
		err error
	)

	switch config.Provider {
	case "gemini":
		r, err = NewGeminiRecognizer(ctx, config)
	case "openai":
		r, err = NewOpenAIRecognizer(config)
	case "remote":
		r, err = NewRemoteRecognizer(config)
	default:
		return nil, fmt.Errorf("unknown recognition provider: %s", config.Provider)
	}
	if err != nil {
		return nil, err
	}

	if config.Timeout > 0 {
		r = &timeoutRecognizer{next: r, timeout: config.Timeout}
	}
	if config.BreakerFailures > 0 {
		r = NewBreakerRecognizer(r, config.BreakerFailures, config.BreakerCooldown, log)
	}
	return r, nil
}

// timeoutRecognizer bounds every request with a deadline
type timeoutRecognizer struct {
	next    Recognizer
	timeout time.Duration
}

func (t *timeoutRecognizer) Recognize(ctx context.Context, img *camera.Image) (*Result, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()
	return t.next.Recognize(ctx, img)
}

func (t *timeoutRecognizer) Name() string {
	return t.next.Name()
}
