package console

import (
	"fmt"
	"io"
	"strings"

	"github.com/mattn/go-runewidth"

	"codeberg.org/snonux/vocalens/internal/language"
	"codeberg.org/snonux/vocalens/internal/recognition"
	"codeberg.org/snonux/vocalens/internal/session"
)

const (
	msgThinking = "무엇일까? 생각 중... 🤔"
	msgCounter  = "수집한 단어: %d개"
)

func renderIdle(w io.Writer, v session.View) {
	if v.Acquiring {
		fmt.Fprintln(w, "📷 Opening camera...")
		return
	}
	fmt.Fprintf(w, "✨ Ready! Type 'start' to open the camera. (%s)\n", counterLine(v.Count))
}

func renderCapturing(w io.Writer) {
	fmt.Fprintln(w, "📸 Camera is on. Point it at something and type 'snap'.")
}

func renderProcessing(w io.Writer, v session.View) {
	if v.Retrying {
		return
	}
	fmt.Fprintln(w, msgThinking)
}

func renderCard(w io.Writer, result *recognition.Result, count int, speaking language.Code) {
	writeCard(w, result, count, speaking)
	fmt.Fprintln(w, "Type a language code (ko, en, ja, ...) to hear it, 'again' for another photo or 'reset'.")
}

// PrintCard writes the word card for result, for non-interactive output
func PrintCard(w io.Writer, result *recognition.Result, count int) {
	writeCard(w, result, count, "")
}

// writeCard prints one aligned row per language followed by the counter
func writeCard(w io.Writer, result *recognition.Result, count int, speaking language.Code) {
	entries := result.Entries()

	labelWidth, wordWidth := 0, 0
	for _, e := range entries {
		labelWidth = max(labelWidth, runewidth.StringWidth(e.Language.Label))
		wordWidth = max(wordWidth, runewidth.StringWidth(e.Entry.Word))
	}

	title := fmt.Sprintf(" %s ", strings.ToUpper(result.English.Word))
	fmt.Fprintf(w, "\n%s%s%s\n", strings.Repeat("=", 4), title, strings.Repeat("=", 4))
	for _, e := range entries {
		marker := "  "
		if e.Language.Code == speaking {
			marker = "🔊"
		}
		fmt.Fprintf(w, "%s %-2s  %s  %s  [%s]\n",
			marker,
			e.Language.Code,
			runewidth.FillRight(e.Language.Label, labelWidth),
			runewidth.FillRight(e.Entry.Word, wordWidth),
			e.Entry.Pronunciation,
		)
	}
	fmt.Fprintln(w, counterLine(count))
}

func renderSpeaking(w io.Writer, code language.Code, result *recognition.Result) {
	info, ok := language.Lookup(code)
	if !ok {
		return
	}
	e, ok := result.Entry(code)
	if !ok {
		return
	}
	fmt.Fprintf(w, "🔊 %s: %s [%s]\n", info.Label, e.Word, e.Pronunciation)
}

func counterLine(count int) string {
	return fmt.Sprintf(msgCounter, count)
}

func renderStatus(w io.Writer, v session.View) {
	fmt.Fprintf(w, "state: %s", v.State)
	switch {
	case v.Acquiring:
		fmt.Fprint(w, " (acquiring camera)")
	case v.Retrying:
		fmt.Fprint(w, " (retrying)")
	}
	fmt.Fprintf(w, ", %s", counterLine(v.Count))
	if v.Speaking != "" {
		fmt.Fprintf(w, ", speaking %s", v.Speaking)
	}
	fmt.Fprintln(w)
}

func renderHelp(w io.Writer) {
	codes := make([]string, 0, 9)
	for _, c := range language.Codes() {
		codes = append(codes, string(c))
	}
	fmt.Fprintf(w, `Commands:
  start           open the camera
  snap            take a photo and identify it
  again           discard the card and take another photo
  reset           go back to the start
  say <code>      read the word aloud (or just type the code)
  status          show the current state
  help            show this help
  quit            exit
Language codes: %s
`, strings.Join(codes, ", "))
}
