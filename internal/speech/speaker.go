package speech

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"codeberg.org/snonux/vocalens/internal/language"
	"codeberg.org/snonux/vocalens/internal/logging"
)

// Speaker reads words aloud one at a time.
//
// Speak cancels any utterance still in progress before starting the new
// one. onComplete runs once the utterance has finished playing or failed,
// never for an utterance that was cancelled, and never synchronously from
// inside Speak.
type Speaker interface {
	Speak(text string, code language.Code, onComplete func())
	CancelAll()
}

// AudioSpeaker synthesizes each utterance to a temporary file and plays it
type AudioSpeaker struct {
	synth  Synthesizer
	player Player
	log    *logrus.Entry

	mu     sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewAudioSpeaker creates a speaker from a synthesizer and a player
func NewAudioSpeaker(synth Synthesizer, player Player, log *logrus.Entry) *AudioSpeaker {
	if log == nil {
		log = logging.Discard()
	}
	return &AudioSpeaker{synth: synth, player: player, log: log}
}

// Speak starts reading text in the locale of code
func (s *AudioSpeaker) Speak(text string, code language.Code, onComplete func()) {
	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.wg.Add(1)
	s.mu.Unlock()

	go func() {
		defer s.wg.Done()
		defer cancel()

		if err := s.say(ctx, text, language.Locale(code)); err != nil && ctx.Err() == nil {
			s.log.WithError(err).WithField("language", code).Warn("Speech failed")
		}
		if ctx.Err() != nil {
			return
		}
		if onComplete != nil {
			onComplete()
		}
	}()
}

func (s *AudioSpeaker) say(ctx context.Context, text, locale string) error {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	dir, err := os.MkdirTemp("", "vocalens-speech-")
	if err != nil {
		return err
	}
	defer os.RemoveAll(dir)

	file := filepath.Join(dir, "utterance."+audioFormat(s.player))
	if err := s.synth.Synthesize(ctx, text, locale, file); err != nil {
		return err
	}
	return s.player.Play(ctx, file)
}

// audioFormat returns the file type player needs, mp3 unless it says otherwise
func audioFormat(player Player) string {
	if f, ok := player.(interface{ AudioFormat() string }); ok && f.AudioFormat() != "" {
		return f.AudioFormat()
	}
	return "mp3"
}

// CancelAll stops the current utterance, if any
func (s *AudioSpeaker) CancelAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}

// Wait blocks until every started utterance goroutine has returned
func (s *AudioSpeaker) Wait() {
	s.wg.Wait()
}

// NoOpSpeaker is a silent Speaker; utterances complete immediately
type NoOpSpeaker struct{}

// Ensure NoOpSpeaker implements Speaker
var _ Speaker = NoOpSpeaker{}

func (NoOpSpeaker) Speak(text string, code language.Code, onComplete func()) {
	if onComplete != nil {
		go onComplete()
	}
}

func (NoOpSpeaker) CancelAll() {}
