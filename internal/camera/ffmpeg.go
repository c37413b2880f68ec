package camera

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"runtime"
	"strconv"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"codeberg.org/snonux/vocalens/internal/logging"
)

var (
	jpegSOI = []byte{0xFF, 0xD8}
	jpegEOI = []byte{0xFF, 0xD9}
)

const maxFrameSize = 16 * 1024 * 1024

// FFmpegCamera captures frames from a local device through an ffmpeg
// subprocess emitting an MJPEG stream on stdout.
type FFmpegCamera struct {
	config *Config
	log    *logrus.Entry
}

// NewFFmpegCamera creates a camera backed by ffmpeg
func NewFFmpegCamera(config *Config, log *logrus.Entry) *FFmpegCamera {
	if log == nil {
		log = logging.Discard()
	}
	cfg := *config
	if cfg.Command == "" {
		cfg.Command = "ffmpeg"
	}
	if cfg.FrameRate <= 0 {
		cfg.FrameRate = 15
	}
	if cfg.StartTimeout <= 0 {
		cfg.StartTimeout = 5 * time.Second
	}
	return &FFmpegCamera{config: &cfg, log: log}
}

// Name returns the camera source name
func (c *FFmpegCamera) Name() string {
	return "ffmpeg:" + c.config.Device
}

func (c *FFmpegCamera) args() []string {
	args := []string{
		"-nostdin",
		"-hide_banner",
		"-loglevel", "error",
	}
	if c.config.InputFormat != "" {
		args = append(args, "-f", c.config.InputFormat)
	}
	args = append(args,
		"-framerate", strconv.Itoa(c.config.FrameRate),
		"-i", c.config.Device,
	)
	if c.config.Width > 0 {
		args = append(args, "-vf", fmt.Sprintf("scale=%d:-2", c.config.Width))
	}
	return append(args,
		"-f", "image2pipe",
		"-vcodec", "mjpeg",
		"-q:v", "3",
		"-",
	)
}

// Acquire starts ffmpeg and waits until the first frame arrives. A device
// that is missing or denied makes ffmpeg exit, which fails the acquisition.
func (c *FFmpegCamera) Acquire(ctx context.Context) (Stream, error) {
	// The stream outlives ctx, so the process is not bound to it.
	cmd := exec.Command(c.config.Command, c.args()...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to create ffmpeg stdout pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start ffmpeg: %w", err)
	}

	s := &ffmpegStream{
		stdout:     stdout,
		stderr:     &stderr,
		process:    cmd.Process,
		firstFrame: make(chan struct{}),
		exited:     make(chan struct{}),
		log:        c.log,
	}

	go func() {
		s.waitErr = cmd.Wait()
		close(s.exited)
	}()
	go s.readFrames()

	timer := time.NewTimer(c.config.StartTimeout)
	defer timer.Stop()

	select {
	case <-s.firstFrame:
		c.log.WithField("device", c.config.Device).Debug("camera stream acquired")
		return s, nil
	case <-s.exited:
		_ = s.Release()
		if s.waitErr != nil {
			return nil, fmt.Errorf("ffmpeg exited before the first frame: %w: %s", s.waitErr, trimOutput(stderr.String()))
		}
		return nil, fmt.Errorf("ffmpeg exited before the first frame: %s", trimOutput(stderr.String()))
	case <-timer.C:
		_ = s.Release()
		return nil, fmt.Errorf("no frame from %s within %s", c.config.Device, c.config.StartTimeout)
	case <-ctx.Done():
		_ = s.Release()
		return nil, ctx.Err()
	}
}

type ffmpegStream struct {
	stdout  io.ReadCloser
	stderr  *bytes.Buffer
	process *os.Process
	log     *logrus.Entry

	mu         sync.Mutex
	latest     []byte
	released   bool
	firstOnce  sync.Once
	firstFrame chan struct{}

	exited  chan struct{}
	waitErr error

	releaseOnce sync.Once
	releaseErr  error
}

func (s *ffmpegStream) readFrames() {
	scanner := bufio.NewScanner(s.stdout)
	scanner.Buffer(make([]byte, 0, 512*1024), maxFrameSize)
	scanner.Split(splitJPEGFrames)

	for scanner.Scan() {
		frame := make([]byte, len(scanner.Bytes()))
		copy(frame, scanner.Bytes())

		s.mu.Lock()
		s.latest = frame
		s.mu.Unlock()

		s.firstOnce.Do(func() { close(s.firstFrame) })
	}
	if err := scanner.Err(); err != nil && !errors.Is(err, os.ErrClosed) {
		s.log.WithError(err).Debug("camera frame reader stopped")
	}
}

// Snapshot returns the latest decoded frame.
func (s *ffmpegStream) Snapshot(ctx context.Context) (*Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.released {
		return nil, ErrReleased
	}
	if s.latest == nil {
		return nil, fmt.Errorf("no frame captured yet")
	}

	frame := make([]byte, len(s.latest))
	copy(frame, s.latest)
	return NewImage(frame)
}

// Release stops ffmpeg: interrupt first, kill if it does not exit in time.
func (s *ffmpegStream) Release() error {
	s.releaseOnce.Do(func() {
		s.mu.Lock()
		s.released = true
		s.latest = nil
		s.mu.Unlock()

		if s.process != nil {
			if runtime.GOOS == "windows" {
				_ = s.process.Kill()
			} else {
				_ = s.process.Signal(os.Interrupt)
			}
		}

		select {
		case <-s.exited:
		case <-time.After(1200 * time.Millisecond):
			if s.process != nil {
				_ = s.process.Kill()
			}
			<-s.exited
		}

		if err := s.stdout.Close(); err != nil && !errors.Is(err, os.ErrClosed) {
			s.releaseErr = err
		}
		s.log.Debug("camera stream released")
	})
	return s.releaseErr
}

// splitJPEGFrames is a bufio.SplitFunc yielding complete JPEG images
// (SOI through EOI) from an MJPEG byte stream.
func splitJPEGFrames(data []byte, atEOF bool) (advance int, token []byte, err error) {
	start := bytes.Index(data, jpegSOI)
	if start < 0 {
		if atEOF {
			return len(data), nil, nil
		}
		// Keep a trailing byte, it may be the first half of a marker.
		if len(data) > 1 {
			return len(data) - 1, nil, nil
		}
		return 0, nil, nil
	}

	end := bytes.Index(data[start+len(jpegSOI):], jpegEOI)
	if end < 0 {
		if atEOF {
			return len(data), nil, nil
		}
		return start, nil, nil
	}

	stop := start + len(jpegSOI) + end + len(jpegEOI)
	return stop, data[start:stop], nil
}

func trimOutput(s string) string {
	return string(bytes.TrimSpace([]byte(s)))
}
