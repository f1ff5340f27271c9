package util

import "strings"

func SanitizePostgresText(value string) string {
	if value == "" {
		return value
	}

	sanitized := strings.ToValidUTF8(value, "")
	return strings.ReplaceAll(sanitized, "\x00", "")
}

// CollapseWhitespace replaces every run of whitespace (including line
// breaks) with a single space and trims the result.
func CollapseWhitespace(value string) string {
	return strings.Join(strings.Fields(value), " ")
}
