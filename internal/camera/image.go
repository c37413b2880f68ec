package camera

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
)

var (
	// ErrEmptyImage is returned for a zero-length payload.
	ErrEmptyImage = errors.New("image data is empty")
	// ErrNotAnImage is returned when the payload is not an image format.
	ErrNotAnImage = errors.New("data is not an image")
)

// Image is an encoded still frame held in memory for the current session.
type Image struct {
	Data       []byte
	MIMEType   string
	CapturedAt time.Time
}

// NewImage sniffs the encoding of data and wraps it as an Image.
func NewImage(data []byte) (*Image, error) {
	if len(data) == 0 {
		return nil, ErrEmptyImage
	}

	mtype := mimetype.Detect(data)
	if !strings.HasPrefix(mtype.String(), "image/") {
		return nil, fmt.Errorf("%w: detected %s", ErrNotAnImage, mtype.String())
	}

	return &Image{
		Data:       data,
		MIMEType:   mtype.String(),
		CapturedAt: time.Now(),
	}, nil
}

// DecodeBase64Image decodes a base64 payload, with or without a data URI
// prefix, into an Image.
func DecodeBase64Image(payload string) (*Image, error) {
	payload = strings.TrimSpace(payload)
	if i := strings.Index(payload, ","); strings.HasPrefix(payload, "data:") && i >= 0 {
		payload = payload[i+1:]
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to decode base64 image: %w", err)
	}
	return NewImage(data)
}

// Base64 returns the standard base64 encoding of the image bytes.
func (i *Image) Base64() string {
	return base64.StdEncoding.EncodeToString(i.Data)
}

// DataURI returns the image as a data: URI.
func (i *Image) DataURI() string {
	return fmt.Sprintf("data:%s;base64,%s", i.MIMEType, i.Base64())
}

// Size returns the payload length in bytes.
func (i *Image) Size() int {
	return len(i.Data)
}
