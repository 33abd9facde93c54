package extract

import (
	"strings"
	"testing"
)

func TestNormalizeWS(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"   \t\n  ", ""},
		{"hello world", "hello world"},
		{"  hello \t\n  world  ", "hello world"},
		{"a\r\nb\r\nc", "a b c"},
	}
	for _, tt := range tests {
		if got := normalizeWS(tt.in); got != tt.want {
			t.Errorf("normalizeWS(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSplitTextEmpty(t *testing.T) {
	if got := splitText("", 900, 150); got != nil {
		t.Errorf("expected nil for empty input, got %v", got)
	}
	if got := splitText(" \n\t ", 900, 150); got != nil {
		t.Errorf("expected nil for whitespace-only input, got %v", got)
	}
}

func TestSplitTextShortInput(t *testing.T) {
	text := strings.Repeat("a", 50)
	got := splitText(text, 900, 150)
	if len(got) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(got))
	}
	if got[0] != text {
		t.Errorf("expected chunk to equal input, got %q", got[0])
	}
}

func TestSplitTextWindowCount(t *testing.T) {
	// 2000 runes with size 900 / overlap 150 steps by 750: offsets 0, 750,
	// 1500 give exactly three windows.
	text := strings.Repeat("x", 2000)
	got := splitText(text, 900, 150)
	if len(got) != 3 {
		t.Fatalf("expected 3 chunks, got %d", len(got))
	}
	if len(got[0]) != 900 || len(got[1]) != 900 {
		t.Errorf("expected full chunks of 900, got %d and %d", len(got[0]), len(got[1]))
	}
	if len(got[2]) != 500 {
		t.Errorf("expected final chunk of 500, got %d", len(got[2]))
	}
}

func TestSplitTextOverlapLaw(t *testing.T) {
	var sb strings.Builder
	for i := 0; sb.Len() < 2000; i++ {
		sb.WriteRune(rune('a' + i%26))
	}
	text := sb.String()

	const size, overlap = 900, 150
	chunks := splitText(text, size, overlap)
	for i := 0; i+1 < len(chunks); i++ {
		tail := chunks[i][len(chunks[i])-overlap:]
		head := chunks[i+1][:overlap]
		if tail != head {
			t.Fatalf("chunks %d and %d do not share %d boundary runes", i, i+1, overlap)
		}
	}
}

func TestSplitTextCoverage(t *testing.T) {
	// Reversing the overlap must reconstruct the normalized text losslessly.
	var sb strings.Builder
	for i := 0; sb.Len() < 3000; i++ {
		sb.WriteRune(rune('a' + i%26))
	}
	text := sb.String()

	const size, overlap = 900, 150
	chunks := splitText(text, size, overlap)

	var rebuilt strings.Builder
	rebuilt.WriteString(chunks[0])
	for _, c := range chunks[1:] {
		rebuilt.WriteString(c[overlap:])
	}
	if rebuilt.String() != text {
		t.Fatal("concatenating chunks minus overlap did not reconstruct the source text")
	}
}

func TestTruncateRunes(t *testing.T) {
	if got := truncateRunes("héllo", 3); got != "hél" {
		t.Errorf("truncateRunes = %q, want %q", got, "hél")
	}
	if got := truncateRunes("ab", 10); got != "ab" {
		t.Errorf("truncateRunes should not pad, got %q", got)
	}
}
