package testutil

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"codeberg.org/snonux/vocalens/internal/recognition"
)

// TestJPEG returns a tiny but well-formed JPEG
func TestJPEG() []byte {
	return []byte{
		0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10, 'J', 'F', 'I', 'F', 0x00,
		0x01, 0x01, 0x00, 0x00, 0x01, 0x00, 0x01, 0x00, 0x00,
		0xFF, 0xD9,
	}
}

// CreateTestFile creates a test file with content
func CreateTestFile(t *testing.T, path string, content []byte) {
	t.Helper()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("Failed to create directory for test file: %v", err)
	}

	if err := os.WriteFile(path, content, 0644); err != nil {
		t.Fatalf("Failed to create test file %s: %v", path, err)
	}
}

// CreateTestImage writes TestJPEG to dir/name and returns its path
func CreateTestImage(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	CreateTestFile(t, path, TestJPEG())
	return path
}

// SampleResult returns a complete result whose English and Korean words are given
func SampleResult(english, korean string) *recognition.Result {
	return &recognition.Result{
		English:  recognition.Entry{Word: english, Pronunciation: english + "-en"},
		Korean:   recognition.Entry{Word: korean, Pronunciation: korean + "-ko"},
		Japanese: recognition.Entry{Word: english + "-ja", Pronunciation: "ja"},
		Chinese:  recognition.Entry{Word: english + "-zh", Pronunciation: "zh"},
		Spanish:  recognition.Entry{Word: english + "-es", Pronunciation: "es"},
		French:   recognition.Entry{Word: english + "-fr", Pronunciation: "fr"},
		German:   recognition.Entry{Word: english + "-de", Pronunciation: "de"},
		Russian:  recognition.Entry{Word: english + "-ru", Pronunciation: "ru"},
		Hindi:    recognition.Entry{Word: english + "-hi", Pronunciation: "hi"},
	}
}

// WaitFor polls cond until it holds, failing the test after timeout
func WaitFor(t *testing.T, timeout time.Duration, what string, cond func() bool) {
	t.Helper()

	deadline := time.Now().Add(timeout)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("Timed out waiting for %s", what)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

// AssertFileExists checks if a file exists
func AssertFileExists(t *testing.T, path string) {
	t.Helper()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("Expected file to exist: %s", path)
	}
}
