package testutil

import (
	"context"
	"errors"
	"sync"

	"codeberg.org/snonux/vocalens/internal/camera"
	"codeberg.org/snonux/vocalens/internal/language"
	"codeberg.org/snonux/vocalens/internal/recognition"
)

// MockCamera hands out MockStreams and tracks how many are held
type MockCamera struct {
	// AcquireErr fails every acquisition when set
	AcquireErr error
	// SnapshotErr is given to each new stream
	SnapshotErr error
	// Gate, when non-nil, blocks Acquire until it is closed or ctx ends
	Gate chan struct{}

	mu       sync.Mutex
	acquires int
	streams  []*MockStream
}

func (m *MockCamera) Acquire(ctx context.Context) (camera.Stream, error) {
	if m.Gate != nil {
		select {
		case <-m.Gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.acquires++
	if m.AcquireErr != nil {
		return nil, m.AcquireErr
	}

	s := &MockStream{snapshotErr: m.SnapshotErr, owner: m}
	m.streams = append(m.streams, s)
	return s, nil
}

func (m *MockCamera) Name() string {
	return "mock"
}

// Acquires returns the number of Acquire calls that reached the camera
func (m *MockCamera) Acquires() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.acquires
}

// Held returns the number of streams not yet released
func (m *MockCamera) Held() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	held := 0
	for _, s := range m.streams {
		if !s.released {
			held++
		}
	}
	return held
}

// Releases returns the total number of Release calls across all streams
func (m *MockCamera) Releases() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, s := range m.streams {
		n += s.releases
	}
	return n
}

// MockStream returns TestJPEG on every snapshot
type MockStream struct {
	owner       *MockCamera
	snapshotErr error
	released    bool
	releases    int
}

func (s *MockStream) Snapshot(ctx context.Context) (*camera.Image, error) {
	s.owner.mu.Lock()
	defer s.owner.mu.Unlock()
	if s.released {
		return nil, camera.ErrReleased
	}
	if s.snapshotErr != nil {
		return nil, s.snapshotErr
	}
	return camera.NewImage(TestJPEG())
}

func (s *MockStream) Release() error {
	s.owner.mu.Lock()
	defer s.owner.mu.Unlock()
	s.releases++
	s.released = true
	return nil
}

// MockRecognizer returns a fixed result or error
type MockRecognizer struct {
	Result *recognition.Result
	Err    error
	// Gate, when non-nil, holds every response until it is closed. The
	// request context is ignored, like a response already on the wire.
	Gate chan struct{}

	mu     sync.Mutex
	calls  int
	images []*camera.Image
}

func (m *MockRecognizer) Recognize(ctx context.Context, img *camera.Image) (*recognition.Result, error) {
	m.mu.Lock()
	m.calls++
	m.images = append(m.images, img)
	result, err := m.Result, m.Err
	m.mu.Unlock()

	if m.Gate != nil {
		<-m.Gate
	}
	if err != nil {
		return nil, err
	}
	if result == nil {
		return nil, errors.New("mock recognizer has no result")
	}
	return result, nil
}

func (m *MockRecognizer) Name() string {
	return "mock"
}

// SetResponse swaps the canned response for later calls
func (m *MockRecognizer) SetResponse(result *recognition.Result, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Result, m.Err = result, err
}

// Calls returns the number of Recognize calls
func (m *MockRecognizer) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Utterance is one recorded Speak call
type Utterance struct {
	Text       string
	Code       language.Code
	Locale     string
	onComplete func()
}

// MockSpeaker records utterances; the test decides when they complete
type MockSpeaker struct {
	mu         sync.Mutex
	utterances []Utterance
	cancels    int
}

func (m *MockSpeaker) Speak(text string, code language.Code, onComplete func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.utterances = append(m.utterances, Utterance{
		Text:       text,
		Code:       code,
		Locale:     language.Locale(code),
		onComplete: onComplete,
	})
}

func (m *MockSpeaker) CancelAll() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cancels++
}

// Utterances returns a copy of the recorded calls
func (m *MockSpeaker) Utterances() []Utterance {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Utterance(nil), m.utterances...)
}

// Cancels returns the number of CancelAll calls
func (m *MockSpeaker) Cancels() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cancels
}

// Complete finishes utterance i. Call it from the test goroutine.
func (m *MockSpeaker) Complete(i int) {
	m.mu.Lock()
	cb := m.utterances[i].onComplete
	m.mu.Unlock()
	if cb != nil {
		cb()
	}
}
