package speech

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// ESpeakSynthesizer implements Synthesizer using the local espeak-ng binary
type ESpeakSynthesizer struct {
	command string
	speed   int
}

// NewESpeakSynthesizer creates an espeak-ng synthesizer speaking at speed words per minute
func NewESpeakSynthesizer(speed int) *ESpeakSynthesizer {
	if speed < 80 {
		speed = 80
	} else if speed > 450 {
		speed = 450
	}
	return &ESpeakSynthesizer{command: "espeak-ng", speed: speed}
}

// Synthesize writes WAV, converting to MP3 with ffmpeg when outputFile ends in .mp3
func (e *ESpeakSynthesizer) Synthesize(ctx context.Context, text, locale, outputFile string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return fmt.Errorf("text cannot be empty")
	}

	if dir := filepath.Dir(outputFile); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	if !strings.EqualFold(filepath.Ext(outputFile), ".mp3") {
		return e.generateWAV(ctx, text, locale, outputFile)
	}

	tempWAV := strings.TrimSuffix(outputFile, filepath.Ext(outputFile)) + "_temp.wav"
	defer os.Remove(tempWAV)
	if err := e.generateWAV(ctx, text, locale, tempWAV); err != nil {
		return err
	}
	return convertWAVToMP3(ctx, tempWAV, outputFile)
}

func (e *ESpeakSynthesizer) generateWAV(ctx context.Context, text, locale, outputFile string) error {
	cmd := exec.CommandContext(ctx, e.command, e.args(text, locale, outputFile)...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("espeak-ng failed: %w\nOutput: %s", err, string(output))
	}
	return nil
}

// convertWAVToMP3 converts a WAV file to MP3 using ffmpeg
func convertWAVToMP3(ctx context.Context, wavFile, mp3File string) error {
	cmd := exec.CommandContext(ctx, "ffmpeg", "-loglevel", "error", "-i", wavFile, "-acodec", "mp3", "-y", mp3File)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("ffmpeg conversion failed: %w\nOutput: %s", err, string(output))
	}
	return nil
}

func (e *ESpeakSynthesizer) args(text, locale, outputFile string) []string {
	return []string{
		"-v", ESpeakVoice(locale),
		"-s", fmt.Sprintf("%d", e.speed),
		"-w", outputFile,
		text,
	}
}

// Name returns the provider name
func (e *ESpeakSynthesizer) Name() string {
	return "espeak-ng"
}

// IsAvailable checks if espeak-ng is installed
func (e *ESpeakSynthesizer) IsAvailable() error {
	if _, err := exec.LookPath(e.command); err != nil {
		return fmt.Errorf("espeak-ng is not installed or not in PATH: %w", err)
	}
	return nil
}

// ESpeakVoice maps a BCP-47 locale to an espeak-ng voice name
func ESpeakVoice(locale string) string {
	switch locale {
	case "ko-KR":
		return "ko"
	case "ja-JP":
		return "ja"
	case "zh-CN":
		return "cmn"
	case "es-ES":
		return "es"
	case "fr-FR":
		return "fr-fr"
	case "de-DE":
		return "de"
	case "ru-RU":
		return "ru"
	case "hi-IN":
		return "hi"
	default:
		return "en-us"
	}
}
