package util

import "testing"

func TestWordCount(t *testing.T) {
	cases := []struct {
		name    string
		content string
		want    int
	}{
		{"empty", "", 0},
		{"only whitespace", "   \t\n", 0},
		{"single word", "hello", 1},
		{"multiple spaces collapse", "one two  three", 3},
		{"mixed whitespace", "a\tb\nc d", 4},
		{"leading and trailing", "  word count here  ", 3},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := WordCount(tc.content)
			if got != tc.want {
				t.Fatalf("WordCount(%q) = %d, want %d", tc.content, got, tc.want)
			}
		})
	}
}

func TestClamp01(t *testing.T) {
	cases := []struct {
		name  string
		score float64
		want  float64
	}{
		{"below range", -0.5, 0},
		{"far below range", -100, 0},
		{"lower bound", 0, 0},
		{"in range", 0.5, 0.5},
		{"upper bound", 1, 1},
		{"above range", 1.5, 1},
		{"far above range", 42, 1},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Clamp01(tc.score)
			if got != tc.want {
				t.Fatalf("Clamp01(%v) = %v, want %v", tc.score, got, tc.want)
			}
		})
	}
}

func TestSanitizePostgresText(t *testing.T) {
	if got := SanitizePostgresText(""); got != "" {
		t.Fatalf("expected empty string, got %q", got)
	}
	if got := SanitizePostgresText("plain text"); got != "plain text" {
		t.Fatalf("expected unchanged text, got %q", got)
	}
	if got := SanitizePostgresText("nul\x00byte"); got != "nulbyte" {
		t.Fatalf("expected nul byte stripped, got %q", got)
	}
}
