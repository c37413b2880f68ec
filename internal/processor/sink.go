package processor

import (
	"context"
	"errors"
	"fmt"

	"codeberg.org/snonux/vocalens/internal/language"
	"codeberg.org/snonux/vocalens/internal/session"
)

// waitSink lets a headless caller block until the machine reaches a state.
// Sends never block the machine loop; one cycle publishes far fewer events
// than the buffer holds.
type waitSink struct {
	views   chan session.View
	notices chan session.Notice
}

var _ session.EventSink = (*waitSink)(nil)

func newWaitSink() *waitSink {
	return &waitSink{
		views:   make(chan session.View, 32),
		notices: make(chan session.Notice, 8),
	}
}

func (s *waitSink) StateChanged(v session.View) {
	select {
	case s.views <- v:
	default:
	}
}

func (s *waitSink) Notice(n session.Notice) {
	select {
	case s.notices <- n:
	default:
	}
}

func (s *waitSink) SpeakingChanged(language.Code) {}

// await returns the first published view in state want. A notice means the
// cycle failed and is returned as an error.
func (s *waitSink) await(ctx context.Context, want session.State) (session.View, error) {
	for {
		select {
		case <-ctx.Done():
			return session.View{}, ctx.Err()
		case v := <-s.views:
			if v.State == want && !v.Acquiring {
				return v, nil
			}
		case n := <-s.notices:
			return session.View{}, noticeError(n)
		}
	}
}

func noticeError(n session.Notice) error {
	var what string
	switch n.Kind {
	case session.NoticeCameraUnavailable:
		what = "failed to open image"
	case session.NoticeSnapshotFailed:
		what = "failed to capture image"
	case session.NoticeRetrying:
		what = "recognition failed"
	default:
		what = n.Message
	}
	if n.Err == nil {
		return errors.New(what)
	}
	return fmt.Errorf("%s: %w", what, n.Err)
}
