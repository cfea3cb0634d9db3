package render

import (
	"strings"
	"testing"
)

// charWidth measures one pixel per character, which keeps expected widths
// easy to reason about in tests.
func charWidth(s string) float64 {
	return float64(len(s))
}

func TestWrapWordsGreedy(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		maxWidth float64
		want     []string
	}{
		{
			name:     "fits on one line",
			text:     "hello there",
			maxWidth: 20,
			want:     []string{"hello there"},
		},
		{
			name:     "three words per line",
			text:     "Emma feels invisible at school",
			maxWidth: 20,
			want:     []string{"Emma feels invisible", "at school"},
		},
		{
			name:     "single oversized word gets its own line",
			text:     "hi supercalifragilistic yo",
			maxWidth: 10,
			want:     []string{"hi", "supercalifragilistic", "yo"},
		},
		{
			name:     "one word per line",
			text:     "one two three",
			maxWidth: 5,
			want:     []string{"one", "two", "three"},
		},
		{
			name:     "empty input",
			text:     "   ",
			maxWidth: 10,
			want:     nil,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := WrapWords(tc.text, tc.maxWidth, charWidth)
			if len(got) != len(tc.want) {
				t.Fatalf("lines=%v, want %v", got, tc.want)
			}
			for i := range got {
				if got[i] != tc.want[i] {
					t.Errorf("[%d] %q, want %q", i, got[i], tc.want[i])
				}
			}
		})
	}
}

func TestWrapWordsIdempotent(t *testing.T) {
	const maxWidth = 18
	text := "the quick brown fox jumps over the lazy dog"

	once := WrapWords(text, maxWidth, charWidth)
	twice := WrapWords(strings.Join(once, "\n"), maxWidth, charWidth)

	if len(once) != len(twice) {
		t.Fatalf("re-wrap changed line count: %v vs %v", once, twice)
	}
	for i := range once {
		if once[i] != twice[i] {
			t.Errorf("[%d] %q != %q", i, once[i], twice[i])
		}
	}
}
