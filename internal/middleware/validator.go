package middleware

import (
	"mime"
	"strings"
)

// Input validation and sanitization utilities

// ValidateImageContentType reports whether a declared part content type is
// an image type. Parameters such as charset are ignored.
func ValidateImageContentType(ct string) bool {
	ct = strings.TrimSpace(ct)
	if ct == "" {
		return false
	}
	if mt, _, err := mime.ParseMediaType(ct); err == nil {
		ct = mt
	}
	return strings.HasPrefix(strings.ToLower(ct), "image/")
}

// SanitizeString removes characters that would break single-line log output.
func SanitizeString(input string) string {
	input = strings.ReplaceAll(input, "\x00", "")

	var result strings.Builder
	for _, r := range input {
		if r >= 32 && r != 127 {
			result.WriteRune(r)
		}
	}

	return strings.TrimSpace(result.String())
}
