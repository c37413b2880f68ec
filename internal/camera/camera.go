package camera

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"time"

	"github.com/sirupsen/logrus"
)

// ErrReleased is returned by Snapshot after the stream was released.
var ErrReleased = errors.New("camera stream already released")

// Camera acquires exclusive camera streams.
type Camera interface {
	// Acquire opens the device and returns once a frame is available.
	Acquire(ctx context.Context) (Stream, error)

	// Name returns the camera source name
	Name() string
}

// Stream is a live camera stream.
type Stream interface {
	// Snapshot returns the most recent still frame.
	Snapshot(ctx context.Context) (*Image, error)

	// Release stops the stream. It is idempotent.
	Release() error
}

// Config holds configuration for camera sources
type Config struct {
	Source string // "ffmpeg" or "file"

	// ffmpeg settings
	Command      string        // ffmpeg binary
	InputFormat  string        // "v4l2", "avfoundation" or "dshow"
	Device       string        // e.g. "/dev/video0"
	Width        int           // output width in pixels, height keeps aspect
	FrameRate    int           // capture frame rate
	StartTimeout time.Duration // how long to wait for the first frame

	// file settings
	FilePath string
}

// DefaultConfig returns the platform default capture configuration.
func DefaultConfig() *Config {
	cfg := &Config{
		Source:       "ffmpeg",
		Command:      "ffmpeg",
		Width:        640,
		FrameRate:    15,
		StartTimeout: 5 * time.Second,
	}

	switch runtime.GOOS {
	case "darwin":
		cfg.InputFormat = "avfoundation"
		cfg.Device = "0"
	case "windows":
		cfg.InputFormat = "dshow"
		cfg.Device = "video=Integrated Camera"
	default:
		cfg.InputFormat = "v4l2"
		cfg.Device = "/dev/video0"
	}

	return cfg
}

// NewCamera creates the camera source selected by the configuration.
func NewCamera(config *Config, log *logrus.Entry) (Camera, error) {
	if config == nil {
		config = DefaultConfig()
	}

	switch config.Source {
	case "ffmpeg", "":
		return NewFFmpegCamera(config, log), nil
	case "file":
		if config.FilePath == "" {
			return nil, fmt.Errorf("file camera requires a file path")
		}
		return NewFileCamera(config.FilePath), nil
	default:
		return nil, fmt.Errorf("unknown camera source: %s", config.Source)
	}
}
