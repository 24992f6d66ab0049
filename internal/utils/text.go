package utils

import (
	"strings"
	"unicode/utf8"
)

// CleanUTF8 strips invalid UTF-8 sequences and NUL bytes from free text
// before it is forwarded upstream.
func CleanUTF8(input string) string {
	if !strings.Contains(input, "\x00") && utf8.ValidString(input) {
		return input
	}

	cleaned := strings.ToValidUTF8(input, "")
	return strings.ReplaceAll(cleaned, "\x00", "")
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func IsBlank(value string) bool {
	return strings.TrimSpace(value) == ""
}
