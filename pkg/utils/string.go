package utils

// Truncate shortens s to at most maxLen bytes of content, marking the
// cut with a trailing ellipsis. Styled terminal text needs a width-aware
// truncation instead; this is for plain strings only.
func Truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
