package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"codeberg.org/snonux/vocalens/internal/camera"
	"codeberg.org/snonux/vocalens/internal/language"
	"codeberg.org/snonux/vocalens/internal/recognition"
)

// event is anything the loop applies to the machine
type event interface {
	apply(m *Machine)
}

type commandKind int

const (
	cmdStart commandKind = iota
	cmdSnapshot
	cmdCaptureAnother
	cmdStartOver
	cmdSpeak
)

func (k commandKind) String() string {
	switch k {
	case cmdStart:
		return "start"
	case cmdSnapshot:
		return "snapshot"
	case cmdCaptureAnother:
		return "capture another"
	case cmdStartOver:
		return "start over"
	case cmdSpeak:
		return "speak"
	default:
		return "unknown"
	}
}

type command struct {
	kind  commandKind
	code  language.Code
	reply chan error
}

func (c command) apply(m *Machine) {
	var err error
	switch c.kind {
	case cmdStart:
		err = m.handleStart()
	case cmdSnapshot:
		err = m.handleSnapshot()
	case cmdCaptureAnother:
		err = m.handleCaptureAnother()
	case cmdStartOver:
		err = m.handleStartOver()
	case cmdSpeak:
		err = m.handleSpeak(c.code)
	}
	if errors.Is(err, ErrInvalidTransition) {
		err = fmt.Errorf("%w: %s while %s", ErrInvalidTransition, c.kind, describe(m.phase))
	}
	c.reply <- err
}

func describe(p phase) string {
	switch p := p.(type) {
	case idlePhase:
		if p.acquiring {
			return "acquiring camera"
		}
	case processingPhase:
		if p.retrying {
			return "waiting to retry"
		}
	}
	return p.state().String()
}

func (m *Machine) handleStart() error {
	p, ok := m.phase.(idlePhase)
	if !ok || p.acquiring {
		return ErrInvalidTransition
	}
	m.beginAcquire()
	return nil
}

func (m *Machine) handleSnapshot() error {
	p, ok := m.phase.(capturingPhase)
	if !ok {
		return ErrInvalidTransition
	}

	ctx, cancel := context.WithTimeout(m.ctx, m.config.SnapshotTimeout)
	img, err := p.stream.Snapshot(ctx)
	cancel()

	// the camera is given up on every path out of Capturing
	m.releaseStream(p.stream)

	if err != nil {
		m.cycleLog().WithError(err).Warn("Snapshot failed")
		m.transition(idlePhase{})
		m.notify(NoticeSnapshotFailed, msgSnapshotFailed, err)
		return nil
	}

	m.transition(processingPhase{image: img})
	m.submit(img)
	return nil
}

func (m *Machine) handleCaptureAnother() error {
	if _, ok := m.phase.(resultPhase); !ok {
		return ErrInvalidTransition
	}
	m.cancelSpeech()
	m.beginAcquire()
	return nil
}

func (m *Machine) handleStartOver() error {
	switch p := m.phase.(type) {
	case idlePhase:
		if !p.acquiring {
			return ErrInvalidTransition
		}
		m.cancelAcquire()
	case capturingPhase:
		m.releaseStream(p.stream)
	case processingPhase:
		m.stopRetry()
		m.cancelRequest()
	case resultPhase:
		m.cancelSpeech()
	}
	m.transition(idlePhase{})
	return nil
}

func (m *Machine) handleSpeak(code language.Code) error {
	p, ok := m.phase.(resultPhase)
	if !ok {
		return ErrInvalidTransition
	}
	info, ok := language.Lookup(code)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownLanguage, string(code))
	}

	entry, ok := p.result.Entry(info.Code)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownLanguage, string(code))
	}
	m.speakToken++
	token := m.speakToken
	m.speaking = info.Code

	m.cycleLog().WithFields(logrus.Fields{
		"language": info.Code,
		"locale":   info.Locale,
	}).Debugf("Speaking %q", entry.Word)

	m.deps.Speaker.Speak(entry.Word, info.Code, func() {
		m.post(speechDone{token: token})
	})
	m.sink.SpeakingChanged(info.Code)
	m.publish()
	return nil
}

type acquired struct {
	epoch  uint64
	stream camera.Stream
	err    error
}

func (e acquired) apply(m *Machine) {
	p, ok := m.phase.(idlePhase)
	if e.epoch != m.epoch || !ok || !p.acquiring {
		if e.stream != nil {
			e.stream.Release()
		}
		return
	}
	m.acquireCancel = nil

	if e.err != nil {
		m.cycleLog().WithError(e.err).Warn("Camera unavailable")
		m.transition(idlePhase{})
		m.notify(NoticeCameraUnavailable, msgCameraUnavailable, e.err)
		return
	}

	m.cycleLog().Info("Camera acquired")
	m.transition(capturingPhase{stream: e.stream})
}

type recognized struct {
	epoch  uint64
	result *recognition.Result
	err    error
}

func (e recognized) apply(m *Machine) {
	p, ok := m.phase.(processingPhase)
	if e.epoch != m.epoch || !ok || p.retrying {
		m.log.WithField("epoch", e.epoch).Debug("Dropping stale recognition response")
		return
	}
	m.requestCancel = nil

	if e.err == nil && e.result == nil {
		e.err = recognition.ErrEmptyResponse
	}
	if e.err != nil {
		m.cycleLog().WithError(e.err).Warnf("Recognition failed, retrying in %s", m.config.RetryDelay)
		m.phase = processingPhase{image: p.image, retrying: true}
		m.scheduleRetry()
		m.publish()
		m.notify(NoticeRetrying, msgRetrying, e.err)
		return
	}

	m.count++
	m.saveCount()
	m.cycleLog().WithFields(logrus.Fields{
		"word":  e.result.English.Word,
		"count": m.count,
	}).Info("Object recognized")
	m.transition(resultPhase{image: p.image, result: e.result})
}

// scheduleRetry arms the single recovery timer for the current generation
func (m *Machine) scheduleRetry() {
	epoch := m.epoch
	m.retryTimer = time.AfterFunc(m.config.RetryDelay, func() {
		m.post(retryDue{epoch: epoch})
	})
}

type retryDue struct {
	epoch uint64
}

func (e retryDue) apply(m *Machine) {
	p, ok := m.phase.(processingPhase)
	if e.epoch != m.epoch || !ok || !p.retrying {
		return
	}
	m.retryTimer = nil
	m.beginAcquire()
}

type speechDone struct {
	token uint64
}

func (e speechDone) apply(m *Machine) {
	if e.token != m.speakToken || m.speaking == "" {
		return
	}
	m.speaking = ""
	m.sink.SpeakingChanged("")
	m.publish()
}
