package recognition

import (
	"errors"
	"fmt"
	"strings"

	json "github.com/goccy/go-json"

	"codeberg.org/snonux/vocalens/internal/language"
)

var (
	// ErrEmptyResponse is returned when the model produced no text.
	ErrEmptyResponse = errors.New("empty AI response")
	// ErrIncompleteResult is returned when a language entry is missing or blank.
	ErrIncompleteResult = errors.New("incomplete recognition result")
)

// Parse decodes a model reply into a Result. The reply must be a JSON
// object holding all nine languages with non-blank word and pronunciation.
func Parse(text string) (*Result, error) {
	text = stripCodeFence(text)
	if text == "" {
		return nil, ErrEmptyResponse
	}

	var raw map[string]*Entry
	if err := json.Unmarshal([]byte(text), &raw); err != nil {
		return nil, fmt.Errorf("failed to parse recognition result: %w", err)
	}

	result := &Result{}
	var missing []string
	for _, info := range language.All() {
		e := raw[info.Field]
		if e == nil {
			missing = append(missing, info.Field)
			continue
		}
		word := strings.TrimSpace(e.Word)
		pronunciation := strings.TrimSpace(e.Pronunciation)
		if word == "" || pronunciation == "" {
			missing = append(missing, info.Field)
			continue
		}
		*result.field(info.Code) = Entry{Word: word, Pronunciation: pronunciation}
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: missing %s", ErrIncompleteResult, strings.Join(missing, ", "))
	}
	return result, nil
}

// stripCodeFence removes a markdown code fence some models wrap JSON in.
func stripCodeFence(text string) string {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	return strings.TrimSpace(text)
}
