package util

import "strings"

// WordCount returns the number of whitespace-delimited tokens in content.
// This is the canonical word count derivation used for articles and queued content.
func WordCount(content string) int {
	return len(strings.Fields(content))
}

// Clamp01 bounds score into [0,1]. Out-of-range relevance and confidence values
// are clamped rather than rejected.
func Clamp01(score float64) float64 {
	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}

func SanitizePostgresText(value string) string {
	if value == "" {
		return value
	}

	sanitized := strings.ToValidUTF8(value, "")
	return strings.ReplaceAll(sanitized, "\x00", "")
}
