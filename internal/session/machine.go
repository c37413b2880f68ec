package session

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"codeberg.org/snonux/vocalens/internal/camera"
	"codeberg.org/snonux/vocalens/internal/counter"
	"codeberg.org/snonux/vocalens/internal/language"
	"codeberg.org/snonux/vocalens/internal/logging"
	"codeberg.org/snonux/vocalens/internal/recognition"
	"codeberg.org/snonux/vocalens/internal/speech"
)

// Config controls timing of the machine
type Config struct {
	RetryDelay         time.Duration // wait before recovering from a failed recognition
	SnapshotTimeout    time.Duration
	RecognitionTimeout time.Duration // 0 leaves the deadline to the recognizer
	CounterTimeout     time.Duration
}

// DefaultConfig returns default configuration
func DefaultConfig() *Config {
	return &Config{
		RetryDelay:      2 * time.Second,
		SnapshotTimeout: 5 * time.Second,
		CounterTimeout:  3 * time.Second,
	}
}

// Deps are the adapters the machine drives
type Deps struct {
	Camera     camera.Camera
	Recognizer recognition.Recognizer
	Speaker    speech.Speaker
	Store      counter.Store
}

// Machine is the application state machine. Create it with NewMachine, run
// it with Run and drive it with the command methods from any goroutine.
type Machine struct {
	deps   Deps
	sink   EventSink
	config Config
	log    *logrus.Entry

	inbox   chan event
	stop    chan struct{}
	ready   chan struct{} // closed once the loaded counter is published
	done    chan struct{}
	running atomic.Bool
	once    sync.Once

	// owned by the Run goroutine
	ctx           context.Context
	phase         phase
	epoch         uint64
	count         int
	sessionID     string
	speaking      language.Code
	speakToken    uint64
	acquireCancel context.CancelFunc
	requestCancel context.CancelFunc
	retryTimer    *time.Timer

	mu   sync.RWMutex
	view View
}

// NewMachine creates a machine in Idle. A nil sink discards events.
func NewMachine(deps Deps, sink EventSink, config *Config, log *logrus.Entry) *Machine {
	if config == nil {
		config = DefaultConfig()
	}
	if sink == nil {
		sink = NopSink{}
	}
	if log == nil {
		log = logging.Discard()
	}
	cfg := *config
	if cfg.SnapshotTimeout <= 0 {
		cfg.SnapshotTimeout = DefaultConfig().SnapshotTimeout
	}
	if deps.Speaker == nil {
		deps.Speaker = speech.NoOpSpeaker{}
	}

	return &Machine{
		deps:   deps,
		sink:   sink,
		config: cfg,
		log:    log,
		inbox:  make(chan event),
		stop:   make(chan struct{}),
		ready:  make(chan struct{}),
		done:   make(chan struct{}),
		phase:  idlePhase{},
		view:   View{State: Idle},
	}
}

// Run loads the counter and processes events until ctx is cancelled or
// Close is called. On exit the camera is released and speech cancelled.
func (m *Machine) Run(ctx context.Context) error {
	if !m.running.CompareAndSwap(false, true) {
		return fmt.Errorf("session machine already running")
	}
	defer close(m.done)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	m.ctx = ctx

	m.loadCount()
	m.publish()
	close(m.ready)

	for {
		select {
		case <-ctx.Done():
			m.shutdown()
			return ctx.Err()
		case <-m.stop:
			m.shutdown()
			return nil
		case ev := <-m.inbox:
			ev.apply(m)
		}
	}
}

// Close stops a running machine and waits for it to release its resources
func (m *Machine) Close() error {
	m.once.Do(func() { close(m.stop) })
	if m.running.Load() {
		<-m.done
	}
	return nil
}

// Status returns the latest published view. It blocks until Run has loaded
// the counter and published the initial view, or the machine is closed.
func (m *Machine) Status() View {
	select {
	case <-m.ready:
	case <-m.stop:
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.view
}

// Start acquires the camera. Valid in Idle with no acquisition pending.
func (m *Machine) Start() error {
	return m.command(cmdStart, "")
}

// Snapshot captures a still, releases the camera and submits the image.
// Valid in Capturing.
func (m *Machine) Snapshot() error {
	return m.command(cmdSnapshot, "")
}

// CaptureAnother discards the result and re-acquires the camera. Valid in Result.
func (m *Machine) CaptureAnother() error {
	return m.command(cmdCaptureAnother, "")
}

// StartOver returns to Idle from any other state, dropping whatever the
// current cycle holds.
func (m *Machine) StartOver() error {
	return m.command(cmdStartOver, "")
}

// Speak reads the word for code aloud. Valid in Result.
func (m *Machine) Speak(code language.Code) error {
	return m.command(cmdSpeak, code)
}

func (m *Machine) command(kind commandKind, code language.Code) error {
	reply := make(chan error, 1)
	if !m.post(command{kind: kind, code: code, reply: reply}) {
		return ErrClosed
	}
	return <-reply
}

// post delivers ev to the loop; it reports false once the loop has exited.
func (m *Machine) post(ev event) bool {
	select {
	case m.inbox <- ev:
		return true
	case <-m.done:
		return false
	}
}

// transition installs p as the current phase under a new generation.
// Completions issued under older generations are ignored from now on.
func (m *Machine) transition(p phase) {
	m.epoch++
	m.phase = p
	m.publish()
}

func (m *Machine) publish() {
	v := viewOf(m.phase)
	v.Count = m.count
	v.Speaking = m.speaking
	v.SessionID = m.sessionID

	m.mu.Lock()
	m.view = v
	m.mu.Unlock()

	m.sink.StateChanged(v)
}

func (m *Machine) notify(kind NoticeKind, msg string, err error) {
	m.sink.Notice(Notice{Kind: kind, Message: msg, Err: err})
}

func (m *Machine) cycleLog() *logrus.Entry {
	return m.log.WithField("session", m.sessionID)
}

// beginAcquire moves to Idle with an acquisition pending and starts it.
func (m *Machine) beginAcquire() {
	m.sessionID = uuid.NewString()
	m.transition(idlePhase{acquiring: true})

	ctx, cancel := context.WithCancel(m.ctx)
	m.acquireCancel = cancel
	epoch := m.epoch
	cam := m.deps.Camera

	m.cycleLog().WithField("camera", cam.Name()).Debug("Acquiring camera")
	go func() {
		stream, err := cam.Acquire(ctx)
		if !m.post(acquired{epoch: epoch, stream: stream, err: err}) && stream != nil {
			stream.Release()
		}
	}()
}

func (m *Machine) cancelAcquire() {
	if m.acquireCancel != nil {
		m.acquireCancel()
		m.acquireCancel = nil
	}
}

func (m *Machine) cancelRequest() {
	if m.requestCancel != nil {
		m.requestCancel()
		m.requestCancel = nil
	}
}

func (m *Machine) stopRetry() {
	if m.retryTimer != nil {
		m.retryTimer.Stop()
		m.retryTimer = nil
	}
}

func (m *Machine) releaseStream(stream camera.Stream) {
	if err := stream.Release(); err != nil {
		m.cycleLog().WithError(err).Warn("Failed to release camera")
	}
}

// cancelSpeech silences playback and clears the indicator. Bumping the
// token makes any pending completion callback stale.
func (m *Machine) cancelSpeech() {
	m.speakToken++
	m.deps.Speaker.CancelAll()
	if m.speaking != "" {
		m.speaking = ""
		m.sink.SpeakingChanged("")
	}
}

func (m *Machine) submit(img *camera.Image) {
	parent := m.ctx
	var (
		ctx    context.Context
		cancel context.CancelFunc
	)
	if m.config.RecognitionTimeout > 0 {
		ctx, cancel = context.WithTimeout(parent, m.config.RecognitionTimeout)
	} else {
		ctx, cancel = context.WithCancel(parent)
	}
	m.requestCancel = cancel
	epoch := m.epoch
	rec := m.deps.Recognizer

	m.cycleLog().WithFields(logrus.Fields{
		"recognizer": rec.Name(),
		"bytes":      img.Size(),
	}).Info("Submitting image for recognition")

	go func() {
		defer cancel()
		result, err := rec.Recognize(ctx, img)
		m.post(recognized{epoch: epoch, result: result, err: err})
	}()
}

func (m *Machine) loadCount() {
	ctx, cancel := m.counterContext()
	defer cancel()

	n, err := m.deps.Store.Load(ctx)
	if err != nil {
		m.log.WithError(err).Warn("Failed to load collected-words counter, starting at 0")
	}
	m.count = n
}

func (m *Machine) saveCount() {
	ctx, cancel := m.counterContext()
	defer cancel()

	if err := m.deps.Store.Save(ctx, m.count); err != nil {
		m.cycleLog().WithError(err).WithField("count", m.count).Warn("Failed to persist collected-words counter")
	}
}

func (m *Machine) counterContext() (context.Context, context.CancelFunc) {
	if m.config.CounterTimeout > 0 {
		return context.WithTimeout(m.ctx, m.config.CounterTimeout)
	}
	return context.WithCancel(m.ctx)
}

// shutdown releases everything the current phase holds
func (m *Machine) shutdown() {
	m.stopRetry()
	m.cancelAcquire()
	m.cancelRequest()
	if p, ok := m.phase.(capturingPhase); ok {
		m.releaseStream(p.stream)
		m.phase = idlePhase{}
	}
	m.cancelSpeech()
	m.log.Debug("Session machine stopped")
}
