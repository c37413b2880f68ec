package camera

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestFileCamera(t *testing.T) {
	path := filepath.Join(t.TempDir(), "apple.jpg")
	if err := os.WriteFile(path, testJPEG, 0644); err != nil {
		t.Fatalf("failed to write test image: %v", err)
	}

	cam := NewFileCamera(path)
	if cam.Name() != "file:"+path {
		t.Errorf("Name() = %s", cam.Name())
	}

	ctx := context.Background()
	stream, err := cam.Acquire(ctx)
	if err != nil {
		t.Fatalf("Acquire() error: %v", err)
	}

	img, err := stream.Snapshot(ctx)
	if err != nil {
		t.Fatalf("Snapshot() error: %v", err)
	}
	if img.MIMEType != "image/jpeg" {
		t.Errorf("MIMEType = %s, want image/jpeg", img.MIMEType)
	}

	// Release is idempotent
	if err := stream.Release(); err != nil {
		t.Errorf("first Release() error: %v", err)
	}
	if err := stream.Release(); err != nil {
		t.Errorf("second Release() error: %v", err)
	}

	if _, err := stream.Snapshot(ctx); !errors.Is(err, ErrReleased) {
		t.Errorf("Snapshot() after release error = %v, want ErrReleased", err)
	}
}

func TestFileCameraAcquireFailures(t *testing.T) {
	dir := t.TempDir()

	textFile := filepath.Join(dir, "notes.txt")
	if err := os.WriteFile(textFile, []byte("not an image"), 0644); err != nil {
		t.Fatalf("failed to write test file: %v", err)
	}

	tests := []struct {
		name string
		path string
	}{
		{"missing file", filepath.Join(dir, "missing.jpg")},
		{"not an image", textFile},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewFileCamera(tt.path).Acquire(context.Background()); err == nil {
				t.Error("expected acquisition error")
			}
		})
	}
}

func TestNewCamera(t *testing.T) {
	tests := []struct {
		name     string
		config   *Config
		wantErr  bool
		wantName string
	}{
		{"file", &Config{Source: "file", FilePath: "/tmp/x.jpg"}, false, "file:/tmp/x.jpg"},
		{"file without path", &Config{Source: "file"}, true, ""},
		{"ffmpeg", &Config{Source: "ffmpeg", Device: "/dev/video2"}, false, "ffmpeg:/dev/video2"},
		{"unknown", &Config{Source: "webcam"}, true, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cam, err := NewCamera(tt.config, nil)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewCamera() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && cam.Name() != tt.wantName {
				t.Errorf("Name() = %s, want %s", cam.Name(), tt.wantName)
			}
		})
	}
}
