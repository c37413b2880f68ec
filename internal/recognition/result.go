package recognition

import (
	"codeberg.org/snonux/vocalens/internal/language"
)

// Entry is one language's word and its pronunciation hint.
type Entry struct {
	Word          string `json:"word"`
	Pronunciation string `json:"pronunciation"`
}

// Result is a complete nine-language identification.
type Result struct {
	English  Entry `json:"english"`
	Korean   Entry `json:"korean"`
	Japanese Entry `json:"japanese"`
	Chinese  Entry `json:"chinese"`
	Spanish  Entry `json:"spanish"`
	French   Entry `json:"french"`
	German   Entry `json:"german"`
	Russian  Entry `json:"russian"`
	Hindi    Entry `json:"hindi"`
}

// CardEntry pairs a language with its entry for rendering.
type CardEntry struct {
	Language language.Info
	Entry    Entry
}

func (r *Result) field(code language.Code) *Entry {
	switch code {
	case language.English:
		return &r.English
	case language.Korean:
		return &r.Korean
	case language.Japanese:
		return &r.Japanese
	case language.Chinese:
		return &r.Chinese
	case language.Spanish:
		return &r.Spanish
	case language.French:
		return &r.French
	case language.German:
		return &r.German
	case language.Russian:
		return &r.Russian
	case language.Hindi:
		return &r.Hindi
	}
	return nil
}

// Entry returns the entry for a language code.
func (r *Result) Entry(code language.Code) (Entry, bool) {
	if r == nil {
		return Entry{}, false
	}
	if e := r.field(code); e != nil {
		return *e, true
	}
	return Entry{}, false
}

// Entries returns all entries in word card display order.
func (r *Result) Entries() []CardEntry {
	infos := language.All()
	entries := make([]CardEntry, 0, len(infos))
	for _, info := range infos {
		e, _ := r.Entry(info.Code)
		entries = append(entries, CardEntry{Language: info, Entry: e})
	}
	return entries
}
