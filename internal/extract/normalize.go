package extract

import "strings"

// normalizeWS collapses every whitespace run to a single space and trims
// the ends.
func normalizeWS(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// splitText normalizes text and cuts it into windows of size runes,
// stepping size-overlap so consecutive windows share overlap runes at the
// boundary. The final window may be shorter. Empty or whitespace-only
// input yields nil.
func splitText(text string, size, overlap int) []string {
	text = normalizeWS(text)
	if text == "" {
		return nil
	}

	step := size - overlap
	if step < 1 {
		step = 1
	}

	runes := []rune(text)
	var out []string
	for i := 0; i < len(runes); i += step {
		end := i + size
		if end > len(runes) {
			end = len(runes)
		}
		out = append(out, string(runes[i:end]))
	}
	return out
}

// captionRunes bounds the nearby-text snippet used as an image caption.
const captionRunes = 300

// truncateRunes caps s at n runes. Captions use this so a dense page never
// produces an oversized snippet.
func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
