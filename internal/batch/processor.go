package batch

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ImageEntry is one photo listed in a batch file
type ImageEntry struct {
	Path string
	// Expected is the English word the photo should be recognized as, if given
	Expected string
}

// ReadBatchFile reads image paths from a file, one per line.
// Supports formats:
// - Path only: "photos/apple.jpg"
// - With expected English word: "photos/apple.jpg = apple"
// Blank lines and lines starting with '#' are skipped. Relative paths are
// resolved against the directory of the batch file.
func ReadBatchFile(filename string) ([]ImageEntry, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read batch file: %w", err)
	}
	defer file.Close()

	baseDir := filepath.Dir(filename)
	var entries []ImageEntry

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		entry := ImageEntry{Path: line}
		if path, expected, ok := strings.Cut(line, "="); ok {
			entry.Path = strings.TrimSpace(path)
			entry.Expected = strings.ToLower(strings.TrimSpace(expected))
		}
		if entry.Path == "" {
			continue
		}
		if !filepath.IsAbs(entry.Path) {
			entry.Path = filepath.Join(baseDir, entry.Path)
		}
		entries = append(entries, entry)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read batch file: %w", err)
	}

	return entries, nil
}
