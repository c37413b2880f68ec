package camera

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"
)

// FileCamera serves a still image file as if it were a camera. It is used
// for headless identification and on machines without a capture device.
type FileCamera struct {
	path string
}

// NewFileCamera creates a camera reading from path on every acquisition
func NewFileCamera(path string) *FileCamera {
	return &FileCamera{path: path}
}

// Name returns the camera source name
func (c *FileCamera) Name() string {
	return "file:" + c.path
}

// Acquire reads and validates the image file.
func (c *FileCamera) Acquire(ctx context.Context) (Stream, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(c.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image file: %w", err)
	}

	img, err := NewImage(data)
	if err != nil {
		return nil, fmt.Errorf("invalid image file %s: %w", c.path, err)
	}

	return &fileStream{image: img}, nil
}

type fileStream struct {
	mu       sync.Mutex
	image    *Image
	released bool
}

func (s *fileStream) Snapshot(ctx context.Context) (*Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.released {
		return nil, ErrReleased
	}

	data := make([]byte, len(s.image.Data))
	copy(data, s.image.Data)
	return &Image{Data: data, MIMEType: s.image.MIMEType, CapturedAt: time.Now()}, nil
}

func (s *fileStream) Release() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.released = true
	return nil
}
