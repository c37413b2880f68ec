package speech

import (
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
)

// Player plays an audio file until it ends or ctx is cancelled
type Player interface {
	Play(ctx context.Context, file string) error
}

// CommandPlayer plays audio through an external program
type CommandPlayer struct {
	name   string
	args   []string // placed before the file name
	format string   // "mp3" or "wav", the file type the program can play
}

// NewCommandPlayer picks a platform player. A non-empty override is split
// on spaces and used as-is, with the file appended.
func NewCommandPlayer(override string) (*CommandPlayer, error) {
	if fields := strings.Fields(override); len(fields) > 0 {
		return &CommandPlayer{name: fields[0], args: fields[1:], format: formatFor(fields[0])}, nil
	}

	switch runtime.GOOS {
	case "darwin":
		return &CommandPlayer{name: "afplay", format: "mp3"}, nil
	case "linux":
		// mpg123 first since it handles MP3 files best
		candidates := []CommandPlayer{
			{name: "mpg123", args: []string{"-q"}, format: "mp3"},
			{name: "ffplay", args: []string{"-nodisp", "-autoexit", "-loglevel", "quiet"}, format: "mp3"},
			{name: "play", args: []string{"-q"}, format: "mp3"},
			{name: "paplay", format: "wav"},
			{name: "aplay", args: []string{"-q"}, format: "wav"},
		}
		for _, c := range candidates {
			if _, err := exec.LookPath(c.name); err == nil {
				player := c
				return &player, nil
			}
		}
		return nil, fmt.Errorf("no audio player found. Install mpg123, ffplay, sox, paplay, or aplay")
	case "windows":
		// Media.SoundPlayer only understands WAV
		return &CommandPlayer{name: "powershell", args: []string{"-NoProfile", "-Command", "(New-Object Media.SoundPlayer $args[0]).PlaySync()"}, format: "wav"}, nil
	default:
		return nil, fmt.Errorf("unsupported platform: %s", runtime.GOOS)
	}
}

// formatFor returns wav for the players known to reject MP3
func formatFor(program string) string {
	switch strings.TrimSuffix(filepath.Base(program), ".exe") {
	case "aplay", "paplay":
		return "wav"
	}
	return "mp3"
}

// Play runs the player and blocks until it exits. Cancelling ctx kills it.
func (p *CommandPlayer) Play(ctx context.Context, file string) error {
	args := append(append([]string{}, p.args...), file)
	cmd := exec.CommandContext(ctx, p.name, args...)
	if output, err := cmd.CombinedOutput(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%s failed: %w: %s", p.name, err, strings.TrimSpace(string(output)))
	}
	return nil
}

// AudioFormat returns the file extension the player can play
func (p *CommandPlayer) AudioFormat() string {
	if p.format == "" {
		return "mp3"
	}
	return p.format
}

// Name returns the player program
func (p *CommandPlayer) Name() string {
	return p.name
}
