package cli

import "time"

// Flags holds all command-line flag values
type Flags struct {
	// General flags
	CfgFile     string
	BatchFile   string
	Serve       string
	ListModels  bool
	PrintConfig bool
	Mute        bool

	// Recognition flags
	Recognizer         string
	GeminiModel        string
	OpenAIVisionModel  string
	RemoteURL          string
	RecognitionTimeout time.Duration

	// Camera flags
	CameraDevice string
	CameraFormat string
	FFmpegPath   string
	CameraWidth  int

	// Speech flags
	SpeechProvider string
	OpenAITTSModel string
	OpenAIVoice    string
	OpenAISpeed    float64
	SpeechCacheDir string
	Player         string

	// Counter flags
	CounterBackend string
	CounterPath    string
	RedisAddr      string

	RetryDelay time.Duration
	LogLevel   string
	LogFormat  string
}

// NewFlags creates a new Flags instance with default values
func NewFlags() *Flags {
	return &Flags{
		Recognizer:         "gemini",
		GeminiModel:        "gemini-3-flash-preview",
		OpenAIVisionModel:  "gpt-4o-mini",
		RecognitionTimeout: 60 * time.Second,
		FFmpegPath:         "ffmpeg",
		CameraWidth:        640,
		SpeechProvider:     "openai",
		OpenAITTSModel:     "gpt-4o-mini-tts",
		OpenAIVoice:        "nova",
		OpenAISpeed:        0.9,
		CounterBackend:     "file",
		RetryDelay:         2 * time.Second,
		LogLevel:           "info",
		LogFormat:          "text",
	}
}
