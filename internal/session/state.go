package session

import (
	"errors"

	"codeberg.org/snonux/vocalens/internal/camera"
	"codeberg.org/snonux/vocalens/internal/language"
	"codeberg.org/snonux/vocalens/internal/recognition"
)

var (
	// ErrInvalidTransition is returned for a command the current state does not accept.
	ErrInvalidTransition = errors.New("invalid transition")
	// ErrUnknownLanguage is returned by Speak for a code outside the nine languages.
	ErrUnknownLanguage = errors.New("unknown language")
	// ErrClosed is returned for commands sent after the machine stopped.
	ErrClosed = errors.New("session machine closed")
)

// State is the externally visible session state
type State int

const (
	Idle State = iota
	Capturing
	Processing
	Result
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Capturing:
		return "capturing"
	case Processing:
		return "processing"
	case Result:
		return "result"
	default:
		return "unknown"
	}
}

// phase is the tagged state; each variant carries only the data valid in it.
type phase interface {
	state() State
}

type idlePhase struct {
	acquiring bool
}

type capturingPhase struct {
	stream camera.Stream
}

type processingPhase struct {
	image    *camera.Image
	retrying bool
}

type resultPhase struct {
	image  *camera.Image
	result *recognition.Result
}

func (idlePhase) state() State       { return Idle }
func (capturingPhase) state() State  { return Capturing }
func (processingPhase) state() State { return Processing }
func (resultPhase) state() State     { return Result }

// View is a read-only snapshot of the machine for rendering
type View struct {
	State     State
	Image     *camera.Image       // set in Processing and Result
	Result    *recognition.Result // set in Result
	Count     int
	Speaking  language.Code // empty when nothing is playing
	Acquiring bool          // Idle with a camera acquisition pending
	Retrying  bool          // Processing with the recovery timer armed
	SessionID string        // one per capture cycle
}

func viewOf(p phase) View {
	v := View{State: p.state()}
	switch p := p.(type) {
	case idlePhase:
		v.Acquiring = p.acquiring
	case processingPhase:
		v.Image = p.image
		v.Retrying = p.retrying
	case resultPhase:
		v.Image = p.image
		v.Result = p.result
	}
	return v
}

// NoticeKind classifies a user-facing notice
type NoticeKind int

const (
	NoticeCameraUnavailable NoticeKind = iota
	NoticeSnapshotFailed
	NoticeRetrying
)

// Notice is a non-blocking message for the user
type Notice struct {
	Kind    NoticeKind
	Message string
	Err     error
}

const (
	msgCameraUnavailable = "카메라를 켤 수 없어요. 권한을 확인해주세요!"
	msgSnapshotFailed    = "사진을 찍지 못했어요. 다시 찍어볼까요?"
	msgRetrying          = "앗! 다시 시도할게요... 🔄"
)

// EventSink receives state changes from the machine's goroutine. Calls are
// made synchronously from the loop, so a sink must not call back into the
// machine's commands from within them.
type EventSink interface {
	StateChanged(view View)
	Notice(notice Notice)
	SpeakingChanged(code language.Code)
}

// NopSink discards all events
type NopSink struct{}

func (NopSink) StateChanged(View)             {}
func (NopSink) Notice(Notice)                 {}
func (NopSink) SpeakingChanged(language.Code) {}
