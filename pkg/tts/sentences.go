package tts

import (
	"strings"
	"unicode"
)

// DefaultMinSentence is the shortest fragment spoken on its own; shorter
// fragments are merged into the next sentence.
const DefaultMinSentence = 10

// SplitSentences breaks text at sentence-ending punctuation followed by
// whitespace or the end of text. A period between digits ("3.5") does not
// end a sentence. Fragments shorter than minLen runes are joined with the
// following sentence.
func SplitSentences(text string, minLen int) []string {
	runes := []rune(strings.TrimSpace(text))
	var (
		out     []string
		current strings.Builder
	)

	flush := func(force bool) {
		s := strings.TrimSpace(current.String())
		if s == "" {
			current.Reset()
			return
		}
		if !force && len([]rune(s)) < minLen {
			return
		}
		out = append(out, s)
		current.Reset()
	}

	for i, r := range runes {
		current.WriteRune(r)
		if !isTerminal(r) {
			continue
		}
		// Swallow runs like "?!" or "...".
		if i+1 < len(runes) && isTerminal(runes[i+1]) {
			continue
		}
		if r == '.' && i > 0 && i+1 < len(runes) && unicode.IsDigit(runes[i-1]) && unicode.IsDigit(runes[i+1]) {
			continue
		}
		if i+1 == len(runes) || unicode.IsSpace(runes[i+1]) || isCJKTerminal(r) {
			flush(false)
		}
	}
	flush(true)

	// A short trailing fragment joins the previous sentence.
	if n := len(out); n > 1 && len([]rune(out[n-1])) < minLen {
		out[n-2] = out[n-2] + " " + out[n-1]
		out = out[:n-1]
	}
	return out
}

func isTerminal(r rune) bool {
	switch r {
	case '.', '!', '?', '。', '！', '？':
		return true
	}
	return false
}

func isCJKTerminal(r rune) bool {
	return r == '。' || r == '！' || r == '？'
}
