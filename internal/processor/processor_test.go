package processor

import (
	"bytes"
	"context"
	"errors"
	"io"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"

	"codeberg.org/snonux/vocalens/internal/camera"
	"codeberg.org/snonux/vocalens/internal/cli"
	"codeberg.org/snonux/vocalens/internal/recognition"
	"codeberg.org/snonux/vocalens/internal/speech"
	"codeberg.org/snonux/vocalens/internal/testutil"
)

// newTestProcessor returns a processor with an in-memory counter, quiet
// logging and a fake recognizer
func newTestProcessor(t *testing.T, rec *testutil.MockRecognizer) (*Processor, *bytes.Buffer) {
	t.Helper()

	viper.Reset()
	t.Cleanup(viper.Reset)
	viper.Set("counter.backend", "memory")
	viper.Set("session.retry_delay", "20ms")

	flags := cli.NewFlags()
	flags.Mute = true

	out := &bytes.Buffer{}
	p := NewProcessor(flags)
	p.logger.SetOutput(io.Discard)
	p.out = out
	if rec != nil {
		p.recognizer = rec
	}
	return p, out
}

func TestNewProcessor(t *testing.T) {
	flags := cli.NewFlags()
	p := NewProcessor(flags)

	if p == nil {
		t.Fatal("NewProcessor returned nil")
	}
	if p.flags != flags {
		t.Error("Processor flags not set correctly")
	}
	if p.logger == nil {
		t.Error("Logger not initialized")
	}
	if p.in == nil || p.out == nil {
		t.Error("Standard streams not set")
	}
}

func TestIdentifyImage(t *testing.T) {
	rec := &testutil.MockRecognizer{Result: testutil.SampleResult("apple", "사과")}
	p, out := newTestProcessor(t, rec)

	path := testutil.CreateTestImage(t, t.TempDir(), "apple.jpg")
	if err := p.IdentifyImage(context.Background(), path); err != nil {
		t.Fatalf("IdentifyImage() error = %v", err)
	}

	for _, want := range []string{"Identifying: " + path, "APPLE", "사과", "[사과-ko]", "수집한 단어: 1개"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("output missing %q:\n%s", want, out.String())
		}
	}
	if rec.Calls() != 1 {
		t.Errorf("recognizer calls = %d, want 1", rec.Calls())
	}
}

func TestIdentifyImageErrors(t *testing.T) {
	tests := []struct {
		name    string
		rec     *testutil.MockRecognizer
		file    func(t *testing.T, dir string) string
		wantErr string
	}{
		{
			name: "missing file",
			rec:  &testutil.MockRecognizer{Result: testutil.SampleResult("apple", "사과")},
			file: func(t *testing.T, dir string) string {
				return filepath.Join(dir, "missing.jpg")
			},
			wantErr: "failed to open image",
		},
		{
			name: "not an image",
			rec:  &testutil.MockRecognizer{Result: testutil.SampleResult("apple", "사과")},
			file: func(t *testing.T, dir string) string {
				path := filepath.Join(dir, "notes.txt")
				testutil.CreateTestFile(t, path, []byte("just some text"))
				return path
			},
			wantErr: "failed to open image",
		},
		{
			name: "recognition fails",
			rec:  &testutil.MockRecognizer{Err: errors.New("quota exceeded")},
			file: func(t *testing.T, dir string) string {
				return testutil.CreateTestImage(t, dir, "cup.jpg")
			},
			wantErr: "quota exceeded",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, _ := newTestProcessor(t, tt.rec)

			err := p.IdentifyImage(context.Background(), tt.file(t, t.TempDir()))
			if err == nil {
				t.Fatal("IdentifyImage() expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("IdentifyImage() error = %v, want it to contain %q", err, tt.wantErr)
			}
		})
	}
}

func TestProcessBatch_InvalidFile(t *testing.T) {
	p, _ := newTestProcessor(t, &testutil.MockRecognizer{})
	p.flags.BatchFile = filepath.Join(t.TempDir(), "nonexistent.txt")

	if err := p.ProcessBatch(context.Background()); err == nil {
		t.Error("Expected error for non-existent batch file")
	}
}

func TestProcessBatch_ValidFile(t *testing.T) {
	rec := &testutil.MockRecognizer{Result: testutil.SampleResult("apple", "사과")}
	p, out := newTestProcessor(t, rec)

	dir := t.TempDir()
	testutil.CreateTestImage(t, dir, "apple.jpg")
	testutil.CreateTestImage(t, dir, "pear.jpg")
	batchFile := filepath.Join(dir, "photos.txt")
	testutil.CreateTestFile(t, batchFile, []byte(`# fruit
apple.jpg = Apple
pear.jpg = pear

missing.jpg
`))
	p.flags.BatchFile = batchFile

	if err := p.ProcessBatch(context.Background()); err != nil {
		t.Fatalf("ProcessBatch() error = %v", err)
	}

	for _, want := range []string{
		"Identifying 1/3",
		"✓ matches expected 'apple'",
		"✗ expected 'pear', got 'apple'",
		"수집한 단어: 2개",
		"Total photos: 3",
		"Recognized: 2",
		"Matched: 1",
		"Mismatched: 1",
		"Errors: 1",
	} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("output missing %q:\n%s", want, out.String())
		}
	}
}

func TestRunInteractive(t *testing.T) {
	rec := &testutil.MockRecognizer{Result: testutil.SampleResult("cup", "컵")}
	p, out := newTestProcessor(t, rec)
	p.camera = camera.NewFileCamera(testutil.CreateTestImage(t, t.TempDir(), "cup.jpg"))
	p.in = strings.NewReader("help\nstatus\nquit\n")

	errc := make(chan error, 1)
	go func() { errc <- p.RunInteractive(context.Background()) }()

	select {
	case err := <-errc:
		if err != nil {
			t.Fatalf("RunInteractive() error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("RunInteractive() did not return after quit")
	}

	for _, want := range []string{"Commands:", "state: idle"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("output missing %q:\n%s", want, out.String())
		}
	}
}

func TestRunInteractiveCancelled(t *testing.T) {
	p, _ := newTestProcessor(t, &testutil.MockRecognizer{})
	p.camera = &testutil.MockCamera{}

	// a pipe nobody writes to blocks the console reader
	pr, pw := io.Pipe()
	t.Cleanup(func() { pw.Close() })
	p.in = pr

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- p.RunInteractive(ctx) }()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-errc:
		if err != nil {
			t.Errorf("RunInteractive() error = %v, want nil on cancellation", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("RunInteractive() did not return after cancellation")
	}
}

func TestNewSpeaker(t *testing.T) {
	p, _ := newTestProcessor(t, nil)

	if _, ok := p.newSpeaker().(speech.NoOpSpeaker); !ok {
		t.Error("muted processor should use the no-op speaker")
	}

	// no OpenAI key and an unknown provider both leave speech disabled
	p.flags.Mute = false
	t.Setenv("OPENAI_API_KEY", "")
	viper.Set("speech.provider", "nonexistent")
	if _, ok := p.newSpeaker().(speech.NoOpSpeaker); !ok {
		t.Error("unusable speech provider should fall back to the no-op speaker")
	}
}

func TestConfigFromViper(t *testing.T) {
	p, _ := newTestProcessor(t, nil)
	t.Setenv("GEMINI_API_KEY", "gemini-test-key")

	viper.Set("recognition.provider", "remote")
	viper.Set("recognition.remote_url", "https://proxy.example")
	viper.Set("recognition.timeout", "15s")
	viper.Set("camera.device", "/dev/video2")
	viper.Set("camera.width", 320)
	viper.Set("speech.openai_voice", "coral")
	viper.Set("speech.cache_dir", "/tmp/vocalens-speech")
	viper.Set("counter.path", "/tmp/vocalens-counter")

	rc := p.recognitionConfig()
	if rc.Provider != "remote" || rc.RemoteURL != "https://proxy.example" {
		t.Errorf("recognition config = %+v", rc)
	}
	if rc.Timeout != 15*time.Second {
		t.Errorf("recognition timeout = %v, want 15s", rc.Timeout)
	}
	if rc.GeminiKey != "gemini-test-key" {
		t.Errorf("gemini key = %q", rc.GeminiKey)
	}
	if rc.GeminiModel != "gemini-3-flash-preview" {
		t.Errorf("unset gemini model should keep the default, got %q", rc.GeminiModel)
	}

	cc := p.cameraConfig()
	if cc.Device != "/dev/video2" || cc.Width != 320 || cc.Command != "ffmpeg" {
		t.Errorf("camera config = %+v", cc)
	}

	sc := p.speechConfig()
	if sc.OpenAIVoice != "coral" || sc.CacheDir != "/tmp/vocalens-speech" || !sc.EnableCache {
		t.Errorf("speech config = %+v", sc)
	}

	kc := p.counterConfig()
	if kc.Backend != "memory" || kc.Path != "/tmp/vocalens-counter" {
		t.Errorf("counter config = %+v", kc)
	}

	if got := p.sessionConfig().RetryDelay; got != 20*time.Millisecond {
		t.Errorf("retry delay = %v, want 20ms", got)
	}
}

func TestBreakerFailuresConfig(t *testing.T) {
	p, _ := newTestProcessor(t, nil)

	if got, want := p.recognitionConfig().BreakerFailures, recognition.DefaultConfig().BreakerFailures; got != want {
		t.Errorf("unset breaker failures = %d, want default %d", got, want)
	}

	viper.Set("recognition.breaker_failures", 0)
	if got := p.recognitionConfig().BreakerFailures; got != 0 {
		t.Errorf("breaker failures = %d, want 0 to disable the breaker", got)
	}

	viper.Set("recognition.breaker_failures", 3)
	if got := p.recognitionConfig().BreakerFailures; got != 3 {
		t.Errorf("breaker failures = %d, want 3", got)
	}
}

func TestPrintConfig(t *testing.T) {
	p, out := newTestProcessor(t, nil)
	viper.Set("recognition.openai_key", "sk-secret")

	if err := p.PrintConfig(); err != nil {
		t.Fatalf("PrintConfig() error = %v", err)
	}
	if !strings.Contains(out.String(), "backend: memory") {
		t.Errorf("config dump missing counter backend:\n%s", out.String())
	}
	if strings.Contains(out.String(), "sk-secret") {
		t.Errorf("config dump leaked a key:\n%s", out.String())
	}
}

func TestListModelsWithoutKeys(t *testing.T) {
	p, _ := newTestProcessor(t, nil)
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("GOOGLE_API_KEY", "")

	if err := p.ListModels(context.Background()); err == nil {
		t.Error("Expected error without any API key")
	}
}
