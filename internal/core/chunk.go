package core

import (
	"strings"
	"unicode/utf16"

	"github.com/rivo/uniseg"
)

// SplitMessage cuts text into pieces of at most maxLen UTF-16 code units,
// the unit Telegram counts message length in. Grapheme clusters are kept
// whole unless a single cluster is longer than maxLen. Joining the pieces
// gives back the original text.
func SplitMessage(text string, maxLen int) []string {
	if text == "" {
		return nil
	}
	if maxLen <= 0 || utf16Len(text) <= maxLen {
		return []string{text}
	}

	var (
		chunks  []string
		current strings.Builder
		size    int
	)
	flush := func() {
		if current.Len() > 0 {
			chunks = append(chunks, current.String())
			current.Reset()
			size = 0
		}
	}

	state := -1
	rest := text
	for len(rest) > 0 {
		var cluster string
		cluster, rest, _, state = uniseg.FirstGraphemeClusterInString(rest, state)
		n := utf16Len(cluster)

		if n > maxLen {
			// oversized cluster, fall back to rune boundaries
			for _, r := range cluster {
				w := runeLen(r)
				if size+w > maxLen {
					flush()
				}
				current.WriteRune(r)
				size += w
			}
			continue
		}

		if size+n > maxLen {
			flush()
		}
		current.WriteString(cluster)
		size += n
	}
	flush()

	return chunks
}

func utf16Len(s string) int {
	n := 0
	for _, r := range s {
		n += runeLen(r)
	}
	return n
}

// runeLen is 2 for runes outside the Basic Multilingual Plane. Invalid
// UTF-8 decodes to U+FFFD and counts as one unit.
func runeLen(r rune) int {
	if n := utf16.RuneLen(r); n > 0 {
		return n
	}
	return 1
}
