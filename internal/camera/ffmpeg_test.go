package camera

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"testing/iotest"
	"time"
)

func scanFrames(t *testing.T, data []byte) [][]byte {
	t.Helper()

	scanner := bufio.NewScanner(iotest.OneByteReader(bytes.NewReader(data)))
	scanner.Split(splitJPEGFrames)

	var frames [][]byte
	for scanner.Scan() {
		frame := make([]byte, len(scanner.Bytes()))
		copy(frame, scanner.Bytes())
		frames = append(frames, frame)
	}
	if err := scanner.Err(); err != nil {
		t.Fatalf("scanner error: %v", err)
	}
	return frames
}

func TestSplitJPEGFrames(t *testing.T) {
	frameA := []byte{0xFF, 0xD8, 0xFF, 0xE0, 'a', 0xFF, 0xD9}
	frameB := []byte{0xFF, 0xD8, 0xFF, 0xDB, 'b', 'b', 0xFF, 0xD9}

	tests := []struct {
		name string
		data []byte
		want [][]byte
	}{
		{
			name: "back to back frames",
			data: append(append([]byte{}, frameA...), frameB...),
			want: [][]byte{frameA, frameB},
		},
		{
			name: "garbage between frames",
			data: append(append(append([]byte("junk"), frameA...), []byte{0x00, 0xFF}...), frameB...),
			want: [][]byte{frameA, frameB},
		},
		{
			name: "truncated trailing frame",
			data: append(append([]byte{}, frameA...), 0xFF, 0xD8, 0x01, 0x02),
			want: [][]byte{frameA},
		},
		{
			name: "no frames",
			data: []byte("nothing to see"),
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := scanFrames(t, tt.data)
			if len(got) != len(tt.want) {
				t.Fatalf("got %d frames, want %d", len(got), len(tt.want))
			}
			for i := range tt.want {
				if !bytes.Equal(got[i], tt.want[i]) {
					t.Errorf("frame %d = %x, want %x", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestFFmpegCameraArgs(t *testing.T) {
	cam := NewFFmpegCamera(&Config{InputFormat: "v4l2", Device: "/dev/video0", Width: 640, FrameRate: 10}, nil)
	args := strings.Join(cam.args(), " ")

	for _, want := range []string{"-f v4l2", "-i /dev/video0", "-framerate 10", "scale=640:-2", "-f image2pipe", "-vcodec mjpeg"} {
		if !strings.Contains(args, want) {
			t.Errorf("args %q missing %q", args, want)
		}
	}
}

// writeFakeFFmpeg creates a shell script standing in for ffmpeg.
func writeFakeFFmpeg(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake ffmpeg script needs a POSIX shell")
	}

	path := filepath.Join(t.TempDir(), "ffmpeg")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0755); err != nil {
		t.Fatalf("failed to write fake ffmpeg: %v", err)
	}
	return path
}

func TestFFmpegCameraAcquireSnapshotRelease(t *testing.T) {
	script := writeFakeFFmpeg(t, `printf '\377\330\377\340\000\020JFIF\000\377\331'
exec sleep 30`)

	cam := NewFFmpegCamera(&Config{Command: script, Device: "fake", StartTimeout: 5 * time.Second}, nil)

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

	if err := stream.Release(); err != nil {
		t.Errorf("Release() error: %v", err)
	}
	if err := stream.Release(); err != nil {
		t.Errorf("second Release() error: %v", err)
	}
	if _, err := stream.Snapshot(ctx); !errors.Is(err, ErrReleased) {
		t.Errorf("Snapshot() after release error = %v, want ErrReleased", err)
	}
}

func TestFFmpegCameraAcquireDeviceFailure(t *testing.T) {
	script := writeFakeFFmpeg(t, `echo "/dev/video9: No such file or directory" >&2
exit 1`)

	cam := NewFFmpegCamera(&Config{Command: script, Device: "/dev/video9", StartTimeout: 5 * time.Second}, nil)

	_, err := cam.Acquire(context.Background())
	if err == nil {
		t.Fatal("expected acquisition error")
	}
	if !strings.Contains(err.Error(), "No such file or directory") {
		t.Errorf("error should carry ffmpeg stderr, got: %v", err)
	}
}

func TestFFmpegCameraAcquireTimeout(t *testing.T) {
	script := writeFakeFFmpeg(t, `exec sleep 30`)

	cam := NewFFmpegCamera(&Config{Command: script, Device: "slow", StartTimeout: 100 * time.Millisecond}, nil)

	start := time.Now()
	if _, err := cam.Acquire(context.Background()); err == nil {
		t.Fatal("expected timeout error")
	}
	if elapsed := time.Since(start); elapsed > 3*time.Second {
		t.Errorf("Acquire took %s, expected it to give up quickly", elapsed)
	}
}

func TestFFmpegCameraDevice(t *testing.T) {
	device := os.Getenv("VOCALENS_CAMERA_DEVICE")
	if device == "" {
		t.Skip("Skipping device test: VOCALENS_CAMERA_DEVICE not set")
	}

	cfg := DefaultConfig()
	cfg.Device = device
	stream, err := NewFFmpegCamera(cfg, nil).Acquire(context.Background())
	if err != nil {
		t.Fatalf("Acquire() error: %v", err)
	}
	defer stream.Release()

	img, err := stream.Snapshot(context.Background())
	if err != nil {
		t.Fatalf("Snapshot() error: %v", err)
	}
	t.Logf("captured %d bytes (%s)", img.Size(), img.MIMEType)
}
