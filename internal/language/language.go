package language

import (
	"fmt"
	"strings"
)

// Code is a short user-facing language identifier such as "ko".
type Code string

const (
	Korean   Code = "ko"
	English  Code = "en"
	Japanese Code = "ja"
	Chinese  Code = "zh"
	Spanish  Code = "es"
	French   Code = "fr"
	German   Code = "de"
	Russian  Code = "ru"
	Hindi    Code = "hi"
)

// DefaultLocale is used for codes outside the table.
const DefaultLocale = "en-US"

// Info describes one supported language.
type Info struct {
	Code   Code
	Label  string // native display label shown on the word card
	Name   string // English name used in prompts and voice instructions
	Field  string // JSON field name in a recognition result
	Locale string // speech synthesis locale
}

// all is kept in word card display order.
var all = []Info{
	{Korean, "한국어", "Korean", "korean", "ko-KR"},
	{English, "English", "English", "english", "en-US"},
	{Japanese, "日本語", "Japanese", "japanese", "ja-JP"},
	{Chinese, "中文", "Chinese (Simplified)", "chinese", "zh-CN"},
	{Spanish, "Español", "Spanish", "spanish", "es-ES"},
	{French, "Français", "French", "french", "fr-FR"},
	{German, "Deutsch", "German", "german", "de-DE"},
	{Russian, "Русский", "Russian", "russian", "ru-RU"},
	{Hindi, "हिन्दी", "Hindi", "hindi", "hi-IN"},
}

// All returns every supported language in display order.
func All() []Info {
	out := make([]Info, len(all))
	copy(out, all)
	return out
}

// Codes returns the supported codes in display order.
func Codes() []Code {
	codes := make([]Code, len(all))
	for i, info := range all {
		codes[i] = info.Code
	}
	return codes
}

// Lookup returns the info for a code.
func Lookup(code Code) (Info, bool) {
	for _, info := range all {
		if info.Code == code {
			return info, true
		}
	}
	return Info{}, false
}

// Locale maps a code to its speech locale, falling back to DefaultLocale.
func Locale(code Code) string {
	if info, ok := Lookup(code); ok {
		return info.Locale
	}
	return DefaultLocale
}

// Parse validates user input such as "KO" or " ja ".
func Parse(s string) (Code, error) {
	code := Code(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := Lookup(code); !ok {
		return "", fmt.Errorf("unknown language code: %q", s)
	}
	return code, nil
}

func (c Code) String() string {
	return string(c)
}
