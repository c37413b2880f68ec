package processor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"codeberg.org/snonux/vocalens/internal/batch"
	"codeberg.org/snonux/vocalens/internal/camera"
	"codeberg.org/snonux/vocalens/internal/cli"
	"codeberg.org/snonux/vocalens/internal/console"
	"codeberg.org/snonux/vocalens/internal/counter"
	"codeberg.org/snonux/vocalens/internal/logging"
	"codeberg.org/snonux/vocalens/internal/models"
	"codeberg.org/snonux/vocalens/internal/recognition"
	"codeberg.org/snonux/vocalens/internal/server"
	"codeberg.org/snonux/vocalens/internal/session"
	"codeberg.org/snonux/vocalens/internal/speech"
)

// Processor builds the vocalens components from flags and configuration
// and runs one of the application modes
type Processor struct {
	flags  *cli.Flags
	logger *logrus.Logger
	in     io.Reader
	out    io.Writer

	// set by tests to bypass the configured providers
	recognizer recognition.Recognizer
	camera     camera.Camera
}

// NewProcessor creates a new processor reading commands from stdin and
// writing to stdout
func NewProcessor(flags *cli.Flags) *Processor {
	return &Processor{
		flags: flags,
		logger: logging.NewLogger(logging.Options{
			Level:  viper.GetString("log.level"),
			Format: viper.GetString("log.format"),
		}),
		in:  os.Stdin,
		out: os.Stdout,
	}
}

// RunInteractive runs the camera console until the user quits or ctx is
// cancelled
func (p *Processor) RunInteractive(ctx context.Context) error {
	cam := p.camera
	if cam == nil {
		var err error
		cam, err = camera.NewCamera(p.cameraConfig(), logging.Component(p.logger, "camera"))
		if err != nil {
			return err
		}
	}

	rec, err := p.newRecognizer(ctx)
	if err != nil {
		return err
	}

	store, closeStore, err := p.newStore(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	cons := console.New(p.in, p.out, logging.Component(p.logger, "console"))
	machine := session.NewMachine(session.Deps{
		Camera:     cam,
		Recognizer: rec,
		Speaker:    p.newSpeaker(),
		Store:      store,
	}, cons, p.sessionConfig(), logging.Component(p.logger, "session"))
	cons.Attach(machine)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := machine.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		defer machine.Close()
		return cons.Run(gctx)
	})

	return g.Wait()
}

// IdentifyImage recognizes the object in one photo and prints its card
func (p *Processor) IdentifyImage(ctx context.Context, path string) error {
	rec, err := p.newRecognizer(ctx)
	if err != nil {
		return err
	}

	store, closeStore, err := p.newStore(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	fmt.Fprintf(p.out, "\nIdentifying: %s\n", path)
	view, err := p.identify(ctx, path, rec, store)
	if err != nil {
		return err
	}

	console.PrintCard(p.out, view.Result, view.Count)
	return nil
}

// ProcessBatch identifies every photo listed in the batch file
func (p *Processor) ProcessBatch(ctx context.Context) error {
	entries, err := batch.ReadBatchFile(p.flags.BatchFile)
	if err != nil {
		return err
	}

	rec, err := p.newRecognizer(ctx)
	if err != nil {
		return err
	}

	store, closeStore, err := p.newStore(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	// Track statistics
	recognizedCount := 0
	matchedCount := 0
	mismatchedCount := 0
	errorCount := 0

	for i, entry := range entries {
		fmt.Fprintf(p.out, "\nIdentifying %d/%d: %s\n", i+1, len(entries), entry.Path)

		view, err := p.identify(ctx, entry.Path, rec, store)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			fmt.Fprintf(p.out, "  Error: %v\n", err)
			errorCount++
			// Continue with next photo
			continue
		}
		recognizedCount++
		console.PrintCard(p.out, view.Result, view.Count)

		if entry.Expected == "" {
			continue
		}
		got := strings.ToLower(strings.TrimSpace(view.Result.English.Word))
		if got == entry.Expected {
			fmt.Fprintf(p.out, "  ✓ matches expected '%s'\n", entry.Expected)
			matchedCount++
		} else {
			fmt.Fprintf(p.out, "  ✗ expected '%s', got '%s'\n", entry.Expected, got)
			mismatchedCount++
		}
	}

	// Print summary
	fmt.Fprintf(p.out, "\n=== Batch Summary ===\n")
	fmt.Fprintf(p.out, "Total photos: %d\n", len(entries))
	fmt.Fprintf(p.out, "Recognized: %d\n", recognizedCount)
	if matchedCount+mismatchedCount > 0 {
		fmt.Fprintf(p.out, "Matched: %d\n", matchedCount)
		fmt.Fprintf(p.out, "Mismatched: %d\n", mismatchedCount)
	}
	if errorCount > 0 {
		fmt.Fprintf(p.out, "Errors: %d\n", errorCount)
	}
	fmt.Fprintf(p.out, "=====================\n")

	return nil
}

// identify drives a machine over a file camera through one full cycle
func (p *Processor) identify(ctx context.Context, path string, rec recognition.Recognizer, store counter.Store) (session.View, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sink := newWaitSink()
	m := session.NewMachine(session.Deps{
		Camera:     camera.NewFileCamera(path),
		Recognizer: rec,
		Store:      store,
	}, sink, p.sessionConfig(), logging.Component(p.logger, "session"))

	go m.Run(ctx)
	defer m.Close()

	if err := m.Start(); err != nil {
		return session.View{}, err
	}
	if _, err := sink.await(ctx, session.Capturing); err != nil {
		return session.View{}, err
	}
	if err := m.Snapshot(); err != nil {
		return session.View{}, err
	}
	return sink.await(ctx, session.Result)
}

// Serve runs the recognition proxy on the --serve address
func (p *Processor) Serve(ctx context.Context) error {
	rec, err := p.newRecognizer(ctx)
	if err != nil {
		return err
	}

	config := server.DefaultConfig()
	if p.flags.Serve != "" {
		config.Addr = p.flags.Serve
	}
	log := logging.Component(p.logger, "server")
	app := server.New(config, rec, log)
	return server.Serve(ctx, app, config.Addr, log)
}

// ListModels prints the models available to the configured API keys
func (p *Processor) ListModels(ctx context.Context) error {
	lister := models.NewLister(models.Config{
		OpenAIKey:     cli.GetOpenAIKey(),
		OpenAIBaseURL: viper.GetString("recognition.openai_base_url"),
		GeminiKey:     cli.GetGeminiKey(),
		GeminiBaseURL: viper.GetString("recognition.gemini_base_url"),
	}, p.out)
	return lister.ListAvailableModels(ctx)
}

// PrintConfig writes the effective configuration
func (p *Processor) PrintConfig() error {
	return cli.DumpConfig(p.out)
}

func (p *Processor) newRecognizer(ctx context.Context) (recognition.Recognizer, error) {
	if p.recognizer != nil {
		return p.recognizer, nil
	}
	rec, err := recognition.NewRecognizer(ctx, p.recognitionConfig(), logging.Component(p.logger, "recognition"))
	if err != nil {
		return nil, fmt.Errorf("failed to create recognizer: %w", err)
	}
	return rec, nil
}

func (p *Processor) newStore(ctx context.Context) (counter.Store, func(), error) {
	config := p.counterConfig()
	backend, err := counter.NewBackend(ctx, config)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open counter backend: %w", err)
	}

	closeStore := func() {
		if err := backend.Close(); err != nil {
			p.logger.WithError(err).Warn("Failed to close counter backend")
		}
	}
	return counter.NewStore(backend, config.Key), closeStore, nil
}

// newSpeaker returns a silent speaker when muted or when no speech
// provider can be set up, so the rest of the app still works
func (p *Processor) newSpeaker() speech.Speaker {
	if p.flags.Mute {
		return speech.NoOpSpeaker{}
	}

	log := logging.Component(p.logger, "speech")
	config := p.speechConfig()

	synth, err := speech.NewSynthesizer(config, log)
	if err != nil {
		log.WithError(err).Warn("Speech output disabled")
		return speech.NoOpSpeaker{}
	}
	player, err := speech.NewCommandPlayer(config.PlayerCommand)
	if err != nil {
		log.WithError(err).Warn("Speech output disabled")
		return speech.NoOpSpeaker{}
	}

	log.WithField("provider", synth.Name()).Debug("Speech output ready")
	return speech.NewAudioSpeaker(synth, player, log)
}

func (p *Processor) recognitionConfig() *recognition.Config {
	config := recognition.DefaultConfig()
	setString(&config.Provider, "recognition.provider")
	setString(&config.GeminiModel, "recognition.gemini_model")
	setString(&config.GeminiBaseURL, "recognition.gemini_base_url")
	setString(&config.OpenAIModel, "recognition.openai_model")
	setString(&config.OpenAIBaseURL, "recognition.openai_base_url")
	setString(&config.RemoteURL, "recognition.remote_url")
	setDuration(&config.Timeout, "recognition.timeout")
	setDuration(&config.BreakerCooldown, "recognition.breaker_cooldown")
	// zero disables the breaker, so only an unset key keeps the default
	if viper.IsSet("recognition.breaker_failures") {
		config.BreakerFailures = viper.GetUint32("recognition.breaker_failures")
	}
	config.GeminiKey = cli.GetGeminiKey()
	config.OpenAIKey = cli.GetOpenAIKey()
	return config
}

func (p *Processor) cameraConfig() *camera.Config {
	config := camera.DefaultConfig()
	setString(&config.Device, "camera.device")
	setString(&config.InputFormat, "camera.input_format")
	setString(&config.Command, "camera.ffmpeg")
	if w := viper.GetInt("camera.width"); w > 0 {
		config.Width = w
	}
	return config
}

func (p *Processor) speechConfig() *speech.Config {
	config := speech.DefaultConfig()
	setString(&config.Provider, "speech.provider")
	setString(&config.OpenAIModel, "speech.openai_model")
	setString(&config.OpenAIVoice, "speech.openai_voice")
	setString(&config.OpenAIBaseURL, "speech.openai_base_url")
	setString(&config.PlayerCommand, "speech.player")
	if s := viper.GetFloat64("speech.openai_speed"); s > 0 {
		config.OpenAISpeed = s
	}
	if dir := viper.GetString("speech.cache_dir"); dir != "" {
		config.CacheDir = dir
		config.EnableCache = true
	}
	config.OpenAIKey = cli.GetOpenAIKey()
	return config
}

func (p *Processor) counterConfig() *counter.Config {
	config := counter.DefaultConfig()
	setString(&config.Backend, "counter.backend")
	setString(&config.Path, "counter.path")
	setString(&config.RedisAddr, "counter.redis_addr")
	setString(&config.Key, "counter.key")
	config.RedisDB = viper.GetInt("counter.redis_db")
	return config
}

func (p *Processor) sessionConfig() *session.Config {
	config := session.DefaultConfig()
	setDuration(&config.RetryDelay, "session.retry_delay")
	return config
}

// setString overrides dst when key holds a non-empty value
func setString(dst *string, key string) {
	if v := viper.GetString(key); v != "" {
		*dst = v
	}
}

func setDuration(dst *time.Duration, key string) {
	if v := viper.GetDuration(key); v > 0 {
		*dst = v
	}
}
