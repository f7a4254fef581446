package tui

import (
	"unicode/utf8"

	tea "github.com/charmbracelet/bubbletea"
)

// maxInputLen is the maximum number of runes allowed in form inputs.
const maxInputLen = 255

// editRune processes a keystroke for inline text editing.
// Handles backspace (rune-aware) and single printable characters.
// Returns the text unchanged for non-printable keys (enter, esc, etc.).
// Input is clamped to maxInputLen runes.
func editRune(text string, key string) string {
	switch key {
	case "backspace":
		if len(text) > 0 {
			runes := []rune(text)
			return string(runes[:len(runes)-1])
		}
		return text
	case "space":
		key = " "
	}
	if utf8.RuneCountInString(key) == 1 {
		if utf8.RuneCountInString(text) >= maxInputLen {
			return text
		}
		return text + key
	}
	return text
}

// truncateToHeight limits output to maxLines newline-delimited lines.
// Returns the original string if it fits or maxLines is <= 0.
func truncateToHeight(s string, maxLines int) string {
	if maxLines <= 0 {
		return s
	}
	n := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			n++
			if n >= maxLines {
				return s[:i+1]
			}
		}
	}
	return s
}

// truncStr truncates a string to maxLen runes, appending an ellipsis if needed.
func truncStr(s string, maxLen int) string {
	if maxLen <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= maxLen {
		return s
	}
	runes := []rune(s)
	return string(runes[:maxLen-1]) + "…"
}

// padRight pads s with spaces to width runes, truncating if longer.
func padRight(s string, width int) string {
	s = truncStr(s, width)
	for n := utf8.RuneCountInString(s); n < width; n++ {
		s += " "
	}
	return s
}

// appendRunes appends typed or pasted runes, dropping control characters and
// clamping the result to maxInputLen runes.
func appendRunes(text string, runes []rune) string {
	room := maxInputLen - utf8.RuneCountInString(text)
	if room <= 0 {
		return text
	}
	out := []rune(text)
	for _, r := range runes {
		if room == 0 {
			break
		}
		if r < 0x20 || r == 0x7f {
			continue
		}
		out = append(out, r)
		room--
	}
	return string(out)
}

// editKey applies a key message to text.
func editKey(text string, msg tea.KeyMsg) string {
	if msg.Type == tea.KeyRunes {
		return appendRunes(text, msg.Runes)
	}
	return editRune(text, msg.String())
}
