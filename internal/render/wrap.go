package render

import "strings"

// MeasureFunc returns the rendered width of a string in pixels.
type MeasureFunc func(string) float64

// WrapWords greedily packs words into lines no wider than maxWidth. Existing
// line breaks are treated as ordinary whitespace, which makes wrapping an
// already-wrapped block a no-op. A single word wider than maxWidth gets its
// own line rather than being split.
func WrapWords(text string, maxWidth float64, measure MeasureFunc) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}

	var lines []string
	current := words[0]
	for _, word := range words[1:] {
		candidate := current + " " + word
		if measure(candidate) <= maxWidth {
			current = candidate
			continue
		}
		lines = append(lines, current)
		current = word
	}
	return append(lines, current)
}
