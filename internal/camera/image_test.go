package camera

import (
	"encoding/base64"
	"errors"
	"strings"
	"testing"
)

// minimal JPEG: SOI, APP0 marker start, payload, EOI
var testJPEG = []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10, 'J', 'F', 'I', 'F', 0x00, 0xFF, 0xD9}

func TestNewImage(t *testing.T) {
	tests := []struct {
		name     string
		data     []byte
		wantErr  error
		wantMIME string
	}{
		{
			name:     "jpeg",
			data:     testJPEG,
			wantMIME: "image/jpeg",
		},
		{
			name:     "png",
			data:     []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"),
			wantMIME: "image/png",
		},
		{
			name:    "empty",
			data:    nil,
			wantErr: ErrEmptyImage,
		},
		{
			name:    "plain text",
			data:    []byte("hello world"),
			wantErr: ErrNotAnImage,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			img, err := NewImage(tt.data)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("NewImage() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("NewImage() unexpected error: %v", err)
			}
			if img.MIMEType != tt.wantMIME {
				t.Errorf("MIMEType = %s, want %s", img.MIMEType, tt.wantMIME)
			}
			if img.CapturedAt.IsZero() {
				t.Error("CapturedAt not set")
			}
		})
	}
}

func TestImageEncoding(t *testing.T) {
	img, err := NewImage(testJPEG)
	if err != nil {
		t.Fatalf("NewImage() error: %v", err)
	}

	if img.Base64() != base64.StdEncoding.EncodeToString(testJPEG) {
		t.Error("Base64() does not match standard encoding")
	}
	if !strings.HasPrefix(img.DataURI(), "data:image/jpeg;base64,") {
		t.Errorf("DataURI() has wrong prefix: %s", img.DataURI()[:30])
	}
	if img.Size() != len(testJPEG) {
		t.Errorf("Size() = %d, want %d", img.Size(), len(testJPEG))
	}
}

func TestDecodeBase64Image(t *testing.T) {
	encoded := base64.StdEncoding.EncodeToString(testJPEG)

	for _, payload := range []string{encoded, "data:image/jpeg;base64," + encoded, "  " + encoded + "\n"} {
		img, err := DecodeBase64Image(payload)
		if err != nil {
			t.Fatalf("DecodeBase64Image(%.20q) error: %v", payload, err)
		}
		if img.MIMEType != "image/jpeg" {
			t.Errorf("MIMEType = %s, want image/jpeg", img.MIMEType)
		}
	}

	if _, err := DecodeBase64Image("not base64!!"); err == nil {
		t.Error("expected error for invalid base64")
	}
}
