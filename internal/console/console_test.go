package console

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"codeberg.org/snonux/vocalens/internal/counter"
	"codeberg.org/snonux/vocalens/internal/language"
	"codeberg.org/snonux/vocalens/internal/session"
	"codeberg.org/snonux/vocalens/internal/testutil"
)

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func newTestConsole(t *testing.T, in io.Reader) (*Console, *syncBuffer, *testutil.MockSpeaker, *session.Machine) {
	t.Helper()

	out := &syncBuffer{}
	c := New(in, out, nil)
	speaker := &testutil.MockSpeaker{}

	store := counter.NewStore(counter.NewMemoryBackend(), "")
	store.Save(context.Background(), 5)

	m := session.NewMachine(session.Deps{
		Camera:     &testutil.MockCamera{},
		Recognizer: &testutil.MockRecognizer{Result: testutil.SampleResult("apple", "사과")},
		Speaker:    speaker,
		Store:      store,
	}, c, nil, nil)
	c.Attach(m)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		m.Run(ctx)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	return c, out, speaker, m
}

func waitOutput(t *testing.T, out *syncBuffer, want string) {
	t.Helper()
	testutil.WaitFor(t, 2*time.Second, "output "+want, func() bool {
		return strings.Contains(out.String(), want)
	})
}

func TestExecuteFullCycle(t *testing.T) {
	c, out, speaker, m := newTestConsole(t, strings.NewReader(""))
	waitOutput(t, out, "수집한 단어: 5개")

	c.Execute("start")
	testutil.WaitFor(t, 2*time.Second, "capturing", func() bool {
		return m.Status().State == session.Capturing
	})
	waitOutput(t, out, "Camera is on")

	c.Execute("snap")
	waitOutput(t, out, "APPLE")
	waitOutput(t, out, "수집한 단어: 6개")

	for _, want := range []string{"한국어", "사과", "[사과-ko]", "English", "हिन्दी"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("card missing %q:\n%s", want, out.String())
		}
	}

	c.Execute("ko")
	waitOutput(t, out, "🔊 한국어: 사과")
	if utts := speaker.Utterances(); len(utts) != 1 || utts[0].Locale != "ko-KR" {
		t.Errorf("utterances = %+v", utts)
	}

	c.Execute("say EN")
	if utts := speaker.Utterances(); len(utts) != 2 || utts[1].Text != "apple" {
		t.Errorf("utterances = %+v", utts)
	}

	c.Execute("reset")
	testutil.WaitFor(t, 2*time.Second, "idle", func() bool {
		return m.Status().State == session.Idle
	})
}

func TestExecuteRejectsInvalidCommands(t *testing.T) {
	c, out, _, _ := newTestConsole(t, strings.NewReader(""))

	tests := []struct {
		line string
		want string
	}{
		{"snap", "Not now"},
		{"dance", `Unknown command "dance"`},
		{"say", "Usage: say <code>"},
		{"say xx", "unknown language code"},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			c.Execute(tt.line)
			waitOutput(t, out, tt.want)
		})
	}

	if c.Execute("   ") {
		t.Error("blank line requested quit")
	}
}

func TestExecuteHelpAndStatus(t *testing.T) {
	c, out, _, _ := newTestConsole(t, strings.NewReader(""))

	c.Execute("help")
	waitOutput(t, out, "Language codes: ko, en, ja, zh, es, fr, de, ru, hi")

	c.Execute("status")
	waitOutput(t, out, "state: idle")
}

func TestRunQuits(t *testing.T) {
	c, out, _, _ := newTestConsole(t, strings.NewReader("help\nquit\nstart\n"))

	errc := make(chan error, 1)
	go func() { errc <- c.Run(context.Background()) }()

	select {
	case err := <-errc:
		if err != nil {
			t.Fatalf("Run() error = %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run() did not return on quit")
	}

	if !strings.Contains(out.String(), "Commands:") {
		t.Error("help was not printed before quit")
	}
	if strings.Contains(out.String(), "Opening camera") {
		t.Error("command after quit was executed")
	}
}

func TestRunEndOfInput(t *testing.T) {
	c, _, _, _ := newTestConsole(t, strings.NewReader("status\n"))

	if err := c.Run(context.Background()); err != nil {
		t.Errorf("Run() error = %v", err)
	}
}

func TestRunWithoutController(t *testing.T) {
	c := New(strings.NewReader(""), io.Discard, nil)
	if err := c.Run(context.Background()); err == nil {
		t.Error("Run() expected error without controller")
	}
}

func TestNoticeAndSpeaking(t *testing.T) {
	out := &syncBuffer{}
	c := New(strings.NewReader(""), out, nil)

	c.Notice(session.Notice{Kind: session.NoticeRetrying, Message: "앗! 다시 시도할게요... 🔄", Err: errors.New("boom")})
	if !strings.Contains(out.String(), "앗! 다시 시도할게요") {
		t.Errorf("notice not printed: %q", out.String())
	}

	// no card yet, nothing to read from
	c.SpeakingChanged(language.Korean)
	c.SpeakingChanged("")
	if strings.Contains(out.String(), "🔊") {
		t.Errorf("speaking printed without a card: %q", out.String())
	}
}

func TestRenderCardAlignment(t *testing.T) {
	var buf bytes.Buffer
	renderCard(&buf, testutil.SampleResult("cup", "컵"), 3, language.Korean)

	lines := strings.Split(buf.String(), "\n")
	var rows []string
	for _, l := range lines {
		if strings.Contains(l, "[") {
			rows = append(rows, l)
		}
	}
	if len(rows) != 9 {
		t.Fatalf("card rows = %d, want 9:\n%s", len(rows), buf.String())
	}
	if !strings.HasPrefix(rows[0], "🔊 ko") {
		t.Errorf("first row = %q, want the Korean row marked as speaking", rows[0])
	}
	if !strings.Contains(buf.String(), "수집한 단어: 3개") {
		t.Error("card missing counter")
	}
}
