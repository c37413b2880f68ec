package recognition

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	json "github.com/goccy/go-json"

	"codeberg.org/snonux/vocalens/internal/camera"
)

// RemoteRequest is the body accepted by a vocalens recognition proxy
type RemoteRequest struct {
	ImageBase64 string `json:"imageBase64"`
}

// RemoteError is the body a proxy returns on failure
type RemoteError struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// RemoteRecognizer forwards photos to a vocalens proxy so that clients
// without an API key can still identify objects.
type RemoteRecognizer struct {
	url    string
	client *http.Client
}

// NewRemoteRecognizer creates a recognizer posting to config.RemoteURL
func NewRemoteRecognizer(config *Config) (*RemoteRecognizer, error) {
	if config.RemoteURL == "" {
		return nil, fmt.Errorf("remote recognition URL is required")
	}

	url := strings.TrimRight(config.RemoteURL, "/")
	if !strings.HasSuffix(url, "/api/gemini") {
		url += "/api/gemini"
	}

	return &RemoteRecognizer{url: url, client: &http.Client{}}, nil
}

// Recognize posts the base64 image and parses the proxied result
func (r *RemoteRecognizer) Recognize(ctx context.Context, img *camera.Image) (*Result, error) {
	body, err := json.Marshal(RemoteRequest{ImageBase64: img.Base64()})
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("proxy request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read proxy response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var remoteErr RemoteError
		if json.Unmarshal(data, &remoteErr) == nil && remoteErr.Error != "" {
			if remoteErr.Message != "" {
				return nil, fmt.Errorf("proxy returned %d: %s: %s", resp.StatusCode, remoteErr.Error, remoteErr.Message)
			}
			return nil, fmt.Errorf("proxy returned %d: %s", resp.StatusCode, remoteErr.Error)
		}
		return nil, fmt.Errorf("proxy returned %d", resp.StatusCode)
	}

	return Parse(string(data))
}

// Name returns the provider name
func (r *RemoteRecognizer) Name() string {
	return "remote"
}
