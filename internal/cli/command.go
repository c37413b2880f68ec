package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"codeberg.org/snonux/vocalens/internal"
)

// CreateRootCommand creates and configures the root cobra command
func CreateRootCommand(flags *Flags) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "vocalens [image]",
		Short: "Photograph an object and learn its name in nine languages",
		Long: `vocalens recognizes the object in a photo and shows its name with a
pronunciation guide in Korean, English, Japanese, Chinese, Spanish, French,
German, Russian and Hindi. Every word can be read aloud.

Examples:
  vocalens                        # Interactive camera console (default)
  vocalens apple.jpg              # Identify the object in a photo
  vocalens --batch photos.txt     # Identify every photo listed in a file
  vocalens --serve :8080          # Run the recognition proxy`,
		Args:    cobra.MaximumNArgs(1),
		Version: internal.Version,
	}

	// Set up flags
	setupFlags(rootCmd, flags)

	return rootCmd
}

func setupFlags(cmd *cobra.Command, flags *Flags) {
	// Global flags
	cmd.PersistentFlags().StringVar(&flags.CfgFile, "config", "", "config file (default is $HOME/.vocalens.yaml)")

	// Local flags
	cmd.Flags().StringVar(&flags.BatchFile, "batch", "", "Identify photos listed in file (one path per line, optional '= expected')")
	cmd.Flags().StringVar(&flags.Serve, "serve", "", "Serve the recognition proxy on this address, e.g. :8080")
	cmd.Flags().BoolVar(&flags.ListModels, "list-models", false, "List vision and TTS models for the configured API keys")
	cmd.Flags().BoolVar(&flags.PrintConfig, "print-config", false, "Print the effective configuration as YAML and exit")
	cmd.Flags().BoolVar(&flags.Mute, "mute", false, "Do not read words aloud")

	// Recognition flags
	cmd.Flags().StringVarP(&flags.Recognizer, "recognizer", "r", flags.Recognizer, "Recognition backend: gemini, openai or remote")
	cmd.Flags().StringVar(&flags.GeminiModel, "gemini-model", flags.GeminiModel, "Gemini model used for recognition")
	cmd.Flags().StringVar(&flags.OpenAIVisionModel, "openai-vision-model", flags.OpenAIVisionModel, "OpenAI chat model used for recognition")
	cmd.Flags().StringVar(&flags.RemoteURL, "remote-url", "", "Base URL of a vocalens proxy (for --recognizer remote)")
	cmd.Flags().DurationVar(&flags.RecognitionTimeout, "timeout", flags.RecognitionTimeout, "Deadline for one recognition request")

	// Camera flags
	cmd.Flags().StringVar(&flags.CameraDevice, "camera", "", "Capture device (default: /dev/video0, 0 on macOS)")
	cmd.Flags().StringVar(&flags.CameraFormat, "camera-format", "", "ffmpeg input format: v4l2, avfoundation or dshow (default: per platform)")
	cmd.Flags().StringVar(&flags.FFmpegPath, "ffmpeg", flags.FFmpegPath, "ffmpeg binary used for capture")
	cmd.Flags().IntVar(&flags.CameraWidth, "camera-width", flags.CameraWidth, "Capture width in pixels")

	// Speech flags
	cmd.Flags().StringVar(&flags.SpeechProvider, "speech", flags.SpeechProvider, "Speech provider: openai or espeak")
	cmd.Flags().StringVar(&flags.OpenAITTSModel, "openai-tts-model", flags.OpenAITTSModel, "OpenAI TTS model: tts-1, tts-1-hd, gpt-4o-mini-tts")
	cmd.Flags().StringVar(&flags.OpenAIVoice, "openai-voice", flags.OpenAIVoice, "OpenAI voice: alloy, ash, ballad, coral, echo, fable, onyx, nova, sage, shimmer, verse")
	cmd.Flags().Float64Var(&flags.OpenAISpeed, "openai-speed", flags.OpenAISpeed, "OpenAI speech speed (0.25 to 4.0)")
	cmd.Flags().StringVar(&flags.SpeechCacheDir, "speech-cache", "", "Directory for cached speech audio (default: user cache dir)")
	cmd.Flags().StringVar(&flags.Player, "player", "", "Audio player command (default: per platform)")

	// Counter flags
	cmd.Flags().StringVar(&flags.CounterBackend, "counter", flags.CounterBackend, "Collected-words counter backend: file, sqlite, redis or memory")
	cmd.Flags().StringVar(&flags.CounterPath, "counter-path", "", "Counter directory (file) or database (sqlite)")
	cmd.Flags().StringVar(&flags.RedisAddr, "redis-addr", "", "Redis address for the redis counter backend")

	cmd.Flags().DurationVar(&flags.RetryDelay, "retry-delay", flags.RetryDelay, "Wait before reopening the camera after a failed recognition")
	cmd.Flags().StringVar(&flags.LogLevel, "log-level", flags.LogLevel, "Log level: debug, info, warn, error")
	cmd.Flags().StringVar(&flags.LogFormat, "log-format", flags.LogFormat, "Log format: text or json")

	// Bind flags to viper
	bindFlagsToViper(cmd)
}

func bindFlagsToViper(cmd *cobra.Command) {
	viper.BindPFlag("recognition.provider", cmd.Flags().Lookup("recognizer"))
	viper.BindPFlag("recognition.gemini_model", cmd.Flags().Lookup("gemini-model"))
	viper.BindPFlag("recognition.openai_model", cmd.Flags().Lookup("openai-vision-model"))
	viper.BindPFlag("recognition.remote_url", cmd.Flags().Lookup("remote-url"))
	viper.BindPFlag("recognition.timeout", cmd.Flags().Lookup("timeout"))
	viper.BindPFlag("camera.device", cmd.Flags().Lookup("camera"))
	viper.BindPFlag("camera.input_format", cmd.Flags().Lookup("camera-format"))
	viper.BindPFlag("camera.ffmpeg", cmd.Flags().Lookup("ffmpeg"))
	viper.BindPFlag("camera.width", cmd.Flags().Lookup("camera-width"))
	viper.BindPFlag("speech.provider", cmd.Flags().Lookup("speech"))
	viper.BindPFlag("speech.openai_model", cmd.Flags().Lookup("openai-tts-model"))
	viper.BindPFlag("speech.openai_voice", cmd.Flags().Lookup("openai-voice"))
	viper.BindPFlag("speech.openai_speed", cmd.Flags().Lookup("openai-speed"))
	viper.BindPFlag("speech.cache_dir", cmd.Flags().Lookup("speech-cache"))
	viper.BindPFlag("speech.player", cmd.Flags().Lookup("player"))
	viper.BindPFlag("counter.backend", cmd.Flags().Lookup("counter"))
	viper.BindPFlag("counter.path", cmd.Flags().Lookup("counter-path"))
	viper.BindPFlag("counter.redis_addr", cmd.Flags().Lookup("redis-addr"))
	viper.BindPFlag("session.retry_delay", cmd.Flags().Lookup("retry-delay"))
	viper.BindPFlag("log.level", cmd.Flags().Lookup("log-level"))
	viper.BindPFlag("log.format", cmd.Flags().Lookup("log-format"))
}

// InitConfig initializes viper configuration
func InitConfig(cfgFile string) {
	if cfgFile != "" {
		// Use config file from the flag
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error getting home directory: %v\n", err)
			return
		}

		// Search config in home directory with name ".vocalens" (without extension)
		viper.AddConfigPath(home)
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".vocalens")
	}

	// Environment variables, VOCALENS_RECOGNITION_PROVIDER etc.
	viper.SetEnvPrefix("VOCALENS")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// Read config file
	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// GetGeminiKey retrieves the Gemini API key from environment or config
func GetGeminiKey() string {
	for _, env := range []string{"GEMINI_API_KEY", "GOOGLE_API_KEY"} {
		if key := os.Getenv(env); key != "" {
			return key
		}
	}
	return viper.GetString("recognition.gemini_key")
}

// GetOpenAIKey retrieves the OpenAI API key from environment or config
func GetOpenAIKey() string {
	// First check environment variable
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		return key
	}

	// Then check config file
	return viper.GetString("recognition.openai_key")
}

// DumpConfig writes the effective settings as YAML. Values of keys ending
// in "_key" are masked.
func DumpConfig(w io.Writer) error {
	settings := viper.AllSettings()
	maskKeys(settings)

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(settings); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return enc.Close()
}

func maskKeys(settings map[string]interface{}) {
	for k, v := range settings {
		switch val := v.(type) {
		case map[string]interface{}:
			maskKeys(val)
		case string:
			if strings.HasSuffix(k, "_key") && val != "" {
				settings[k] = "********"
			}
		}
	}
}
